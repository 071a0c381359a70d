package webhook

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/orgauth/internal/application/ports"
)

// ErrQueueFull is returned by AsyncEmitter.Emit when the buffer has no room. The event is dropped.
var ErrQueueFull = errors.New("webhook: delivery queue full")

// ErrEmitterClosed is returned by Emit after Close.
var ErrEmitterClosed = errors.New("webhook: emitter closed")

// AsyncEmitter moves delivery off the request path when no job queue is configured.
// Emit only enqueues; a fixed set of workers calls next.Emit with a detached context.
type AsyncEmitter struct {
	next  ports.WebhookEmitter
	queue chan ports.AuditEvent
	log   zerolog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewAsyncEmitter starts workers goroutines draining a buffer of the given size.
// Non-positive values fall back to 1 worker and a 256-event buffer.
func NewAsyncEmitter(next ports.WebhookEmitter, workers, buffer int, log zerolog.Logger) *AsyncEmitter {
	if workers <= 0 {
		workers = 1
	}
	if buffer <= 0 {
		buffer = 256
	}
	e := &AsyncEmitter{
		next:  next,
		queue: make(chan ports.AuditEvent, buffer),
		log:   log,
	}
	e.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go e.work()
	}
	return e
}

func (e *AsyncEmitter) work() {
	defer e.wg.Done()
	for ev := range e.queue {
		if err := e.next.Emit(context.Background(), ev); err != nil {
			e.log.Warn().Err(err).Str("event", ev.Event).Msg("webhook delivery failed")
		}
	}
}

// Emit never blocks. The caller's context is not carried into delivery since the
// request it belongs to has usually finished by then.
func (e *AsyncEmitter) Emit(_ context.Context, event ports.AuditEvent) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return ErrEmitterClosed
	}
	select {
	case e.queue <- event:
		return nil
	default:
		e.log.Warn().Str("event", event.Event).Msg("webhook queue full, dropping event")
		return ErrQueueFull
	}
}

// Close stops accepting events and waits for queued ones to be delivered.
func (e *AsyncEmitter) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	close(e.queue)
	e.mu.Unlock()
	e.wg.Wait()
}

var _ ports.WebhookEmitter = (*AsyncEmitter)(nil)
