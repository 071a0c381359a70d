package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/orgauth/internal/application/invitation"
	"github.com/amirhosseinghanipour/orgauth/internal/infrastructure/http/middleware"
)

// InvitesHandler handles POST /invites/accept. No session is required; the raw token authorizes.
type InvitesHandler struct {
	accept *invitation.AcceptInvite
	auth   *AuthHandler
	audit  *Auditor
	log    zerolog.Logger
}

func NewInvitesHandler(accept *invitation.AcceptInvite, authHandler *AuthHandler, audit *Auditor, log zerolog.Logger) *InvitesHandler {
	return &InvitesHandler{accept: accept, auth: authHandler, audit: audit, log: log}
}

type acceptInviteResponse struct {
	sessionResponse
	OK    bool   `json:"ok"`
	OrgID string `json:"org_id"`
	Role  string `json:"role"`
}

func (h *InvitesHandler) Accept(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token    string `json:"token" validate:"required,max=256"`
		Password string `json:"password" validate:"omitempty,max=128"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid body")
		return
	}
	if err := validate.Struct(&body); err != nil {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, validationMessage(err))
		return
	}
	res, err := h.accept.Execute(r.Context(), invitation.AcceptInviteInput{Token: body.Token, Password: body.Password})
	middleware.RecordAuthAttempt("invite_accept", err == nil)
	if err != nil {
		h.audit.Emit(r, EventInviteAccept, "", "", err)
		writeDomainErr(w, h.log, "invites.accept", err)
		return
	}
	h.audit.Emit(r, EventInviteAccept, res.OrgID.String(), res.UserID.String(), nil)
	h.auth.setRefreshCookie(w, res.RefreshToken)
	writeJSON(w, http.StatusOK, acceptInviteResponse{
		sessionResponse: sessionResponse{
			AccessToken:  res.AccessToken,
			RefreshToken: res.RefreshToken,
			ExpiresIn:    res.ExpiresIn,
			User:         &userResponse{ID: res.UserID.String(), Email: res.Email},
		},
		OK:    true,
		OrgID: res.OrgID.String(),
		Role:  string(res.Role),
	})
}
