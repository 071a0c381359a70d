package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/orgauth/internal/application/ports"
)

// Worker runs Asynq task handlers for audit webhook delivery.
type Worker struct {
	srv      *asynq.Server
	mux      *asynq.ServeMux
	delivery ports.WebhookEmitter
	log      zerolog.Logger
}

// NewWorker creates an Asynq server that hands webhook tasks to delivery. Call Run to start.
func NewWorker(redisOpt asynq.RedisConnOpt, concurrency int, delivery ports.WebhookEmitter, log zerolog.Logger) *Worker {
	if concurrency <= 0 {
		concurrency = 2
	}
	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: concurrency,
		LogLevel:    asynq.WarnLevel,
	})
	w := &Worker{srv: srv, mux: asynq.NewServeMux(), delivery: delivery, log: log}
	w.mux.HandleFunc(TypeWebhook, w.handleWebhook)
	return w
}

func (w *Worker) handleWebhook(ctx context.Context, t *asynq.Task) error {
	var event ports.AuditEvent
	if err := json.Unmarshal(t.Payload(), &event); err != nil {
		w.log.Error().Err(err).Msg("webhook task payload invalid")
		// Malformed payloads never succeed; do not retry them.
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	if err := w.delivery.Emit(ctx, event); err != nil {
		w.log.Warn().Err(err).Str("event", event.Event).Msg("webhook delivery failed")
		return err
	}
	return nil
}

// Run processes tasks until ctx is done, then waits for in-flight tasks and stops.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.srv.Start(w.mux); err != nil {
		return err
	}
	<-ctx.Done()
	w.srv.Shutdown()
	return nil
}
