package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/amirhosseinghanipour/orgauth/internal/application/ports"
)

type recordingEmitter struct {
	events []ports.AuditEvent
	err    error
}

func (r *recordingEmitter) Emit(_ context.Context, e ports.AuditEvent) error {
	r.events = append(r.events, e)
	return r.err
}

func TestWebhookTaskRoundTrip(t *testing.T) {
	rec := &recordingEmitter{}
	w := &Worker{delivery: rec, log: zerolog.Nop()}

	task, err := NewWebhookTask(ports.AuditEvent{Event: "user.login", UserID: "u1", Success: true})
	require.NoError(t, err)
	require.Equal(t, TypeWebhook, task.Type())

	require.NoError(t, w.handleWebhook(context.Background(), task))
	require.Len(t, rec.events, 1)
	require.Equal(t, "user.login", rec.events[0].Event)
	require.Equal(t, "u1", rec.events[0].UserID)
}

func TestWebhookTaskDeliveryErrorRetries(t *testing.T) {
	boom := errors.New("endpoint down")
	w := &Worker{delivery: &recordingEmitter{err: boom}, log: zerolog.Nop()}
	task, err := NewWebhookTask(ports.AuditEvent{Event: "auth.refresh"})
	require.NoError(t, err)

	err = w.handleWebhook(context.Background(), task)
	require.ErrorIs(t, err, boom)
	require.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestWebhookTaskMalformedSkipsRetry(t *testing.T) {
	w := &Worker{delivery: &recordingEmitter{}, log: zerolog.Nop()}
	err := w.handleWebhook(context.Background(), asynq.NewTask(TypeWebhook, []byte("{not json")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}
