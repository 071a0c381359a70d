package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

const healthCheckTimeout = 3 * time.Second

// Pinger is satisfied by the Postgres store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// RedisPinger reports the reachability of a go-redis client.
func RedisPinger(c *redis.Client) Pinger {
	return PingFunc(func(ctx context.Context) error { return c.Ping(ctx).Err() })
}

// HealthHandler serves /health. With no checks registered it always reports ok.
type HealthHandler struct {
	checks map[string]Pinger
}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{checks: map[string]Pinger{}}
}

// With registers a named dependency check. A nil pinger is ignored.
func (h *HealthHandler) With(name string, p Pinger) *HealthHandler {
	if p != nil {
		h.checks[name] = p
	}
	return h
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(names))}
	for _, name := range names {
		if err := h.checks[name].Ping(ctx); err != nil {
			resp.Checks[name] = "down: " + err.Error()
			resp.Status = "unhealthy"
			continue
		}
		resp.Checks[name] = "ok"
	}
	code := http.StatusOK
	if resp.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}
