package middleware

import (
	"net/http"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	stdlib "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// RateLimitConfig holds rate limit settings. Rates use limiter's format ("100-M", "1000-H").
type RateLimitConfig struct {
	// RatePerIP applies to every request. Empty disables.
	RatePerIP string
	// RatePerUser applies to authenticated routes. Empty disables.
	RatePerUser string
	// Redis, when set, shares counters across replicas.
	Redis *redis.Client
}

func newStore(client *redis.Client, prefix string) (limiter.Store, error) {
	if client == nil {
		return memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: prefix}), nil
	}
	return sredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: prefix})
}

// NewIPRateLimiter returns middleware that limits by client IP.
func NewIPRateLimiter(cfg RateLimitConfig) (func(next http.Handler) http.Handler, error) {
	if cfg.RatePerIP == "" {
		return noopMiddleware, nil
	}
	rate, err := limiter.NewRateFromFormatted(cfg.RatePerIP)
	if err != nil {
		return nil, err
	}
	store, err := newStore(cfg.Redis, "orgauth_ip")
	if err != nil {
		return nil, err
	}
	return stdlib.NewMiddleware(limiter.New(store, rate)).Handler, nil
}

// NewUserRateLimiter returns middleware that limits by authenticated user. Use after AuthValidator.
func NewUserRateLimiter(cfg RateLimitConfig) (func(next http.Handler) http.Handler, error) {
	if cfg.RatePerUser == "" {
		return noopMiddleware, nil
	}
	rate, err := limiter.NewRateFromFormatted(cfg.RatePerUser)
	if err != nil {
		return nil, err
	}
	store, err := newStore(cfg.Redis, "orgauth_user")
	if err != nil {
		return nil, err
	}
	return userLimitMiddleware(limiter.New(store, rate)), nil
}

func userLimitMiddleware(instance *limiter.Limiter) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			lctx, err := instance.Get(r.Context(), "user:"+id.UserID.String())
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))
			if lctx.Reached {
				writeErr(w, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func noopMiddleware(next http.Handler) http.Handler {
	return next
}
