package webhook

import (
	"context"

	"github.com/amirhosseinghanipour/orgauth/internal/application/ports"
)

// NoopEmitter discards audit events when WEBHOOK_URL is not set. Events are still logged by the caller.
type NoopEmitter struct{}

func NewNoopEmitter() *NoopEmitter {
	return &NoopEmitter{}
}

func (e *NoopEmitter) Emit(context.Context, ports.AuditEvent) error {
	return nil
}

var _ ports.WebhookEmitter = (*NoopEmitter)(nil)
