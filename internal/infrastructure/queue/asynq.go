package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/orgauth/internal/application/ports"
)

const (
	TypeWebhook = "webhook:audit"

	webhookMaxRetry = 5
	webhookTimeout  = 30 * time.Second
)

// WebhookEnqueuer implements ports.WebhookEmitter by enqueuing the event for the Worker,
// so request handlers never wait on the webhook endpoint.
type WebhookEnqueuer struct {
	client *asynq.Client
	log    zerolog.Logger
}

func NewWebhookEnqueuer(redisOpt asynq.RedisConnOpt, log zerolog.Logger) *WebhookEnqueuer {
	return &WebhookEnqueuer{client: asynq.NewClient(redisOpt), log: log}
}

func (q *WebhookEnqueuer) Close() error {
	return q.client.Close()
}

// NewWebhookTask builds the task carrying one audit event.
func NewWebhookTask(event ports.AuditEvent) (*asynq.Task, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal audit event: %w", err)
	}
	return asynq.NewTask(TypeWebhook, payload, asynq.MaxRetry(webhookMaxRetry), asynq.Timeout(webhookTimeout)), nil
}

func (q *WebhookEnqueuer) Emit(ctx context.Context, event ports.AuditEvent) error {
	task, err := NewWebhookTask(event)
	if err != nil {
		return err
	}
	if _, err := q.client.EnqueueContext(ctx, task); err != nil {
		q.log.Warn().Err(err).Str("event", event.Event).Msg("enqueue webhook failed")
		return err
	}
	return nil
}

var _ ports.WebhookEmitter = (*WebhookEnqueuer)(nil)
