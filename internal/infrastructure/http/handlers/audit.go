package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/orgauth/internal/application/ports"
)

// Audit event names.
const (
	EventRegister     = "user.register"
	EventLogin        = "user.login"
	EventRefresh      = "auth.refresh"
	EventLogout       = "auth.logout"
	EventOrgCreate    = "org.create"
	EventMemberAdd    = "org.member.add"
	EventInviteCreate = "invite.create"
	EventInviteAccept = "invite.accept"
)

// Auditor logs auth events and forwards them to the webhook emitter when one is configured.
type Auditor struct {
	log     zerolog.Logger
	emitter ports.WebhookEmitter
}

func NewAuditor(log zerolog.Logger, emitter ports.WebhookEmitter) *Auditor {
	return &Auditor{log: log, emitter: emitter}
}

// Emit records one event. Emitter failures are logged, never returned to the client.
func (a *Auditor) Emit(r *http.Request, event, orgID, userID string, err error) {
	success := err == nil
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	ev := a.log.Info()
	if !success {
		ev = a.log.Warn()
	}
	ev = ev.
		Str("event", event).
		Str("user_id", userID).
		Str("ip", r.RemoteAddr).
		Str("request_id", middleware.GetReqID(r.Context())).
		Bool("success", success)
	if orgID != "" {
		ev = ev.Str("org_id", orgID)
	}
	if errMsg != "" {
		ev = ev.Str("error", errMsg)
	}
	ev.Msg("auth_audit")

	if a.emitter == nil {
		return
	}
	if emitErr := a.emitter.Emit(r.Context(), ports.AuditEvent{
		Event:   event,
		UserID:  userID,
		OrgID:   orgID,
		IP:      r.RemoteAddr,
		Success: success,
		Err:     errMsg,
	}); emitErr != nil {
		a.log.Warn().Err(emitErr).Str("event", event).Msg("audit webhook emit failed")
	}
}
