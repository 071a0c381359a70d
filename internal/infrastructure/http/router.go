package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimid "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/orgauth/internal/domain"
	"github.com/amirhosseinghanipour/orgauth/internal/infrastructure/http/handlers"
	"github.com/amirhosseinghanipour/orgauth/internal/infrastructure/http/middleware"
)

const APIVersion = "1"

type RouterConfig struct {
	AuthHandler          *handlers.AuthHandler
	HealthHandler        *handlers.HealthHandler
	UsersHandler         *handlers.UsersHandler
	OrganizationsHandler *handlers.OrganizationsHandler
	InvitesHandler       *handlers.InvitesHandler
	RequireJWT           func(http.Handler) http.Handler
	OrgResolver          *middleware.OrgResolver
	Log                  zerolog.Logger
	Secure               func(http.Handler) http.Handler
	IPRateLimit          func(http.Handler) http.Handler
	UserRateLimit        func(http.Handler) http.Handler
	CORSAllowedOrigins   []string
	Metrics              bool // expose /metrics
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimid.RequestID)
	r.Use(chimid.RealIP)
	r.Use(loggerMiddleware(cfg.Log))
	r.Use(chimid.Recoverer)
	if cfg.Metrics {
		r.Use(middleware.PrometheusMiddleware)
	}
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	if cfg.Secure != nil {
		r.Use(cfg.Secure)
	}
	r.Use(middleware.APIVersion(APIVersion))
	r.Use(chimid.AllowContentType("application/json"))
	if cfg.IPRateLimit != nil {
		r.Use(cfg.IPRateLimit)
	}

	if cfg.HealthHandler != nil {
		r.Get("/health", cfg.HealthHandler.ServeHTTP)
	} else {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
	}
	if cfg.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", cfg.AuthHandler.Register)
		r.Post("/login", cfg.AuthHandler.Login)
		r.Post("/refresh", cfg.AuthHandler.Refresh)
		r.Post("/logout", cfg.AuthHandler.Logout)
	})

	if cfg.InvitesHandler != nil {
		r.Post("/invites/accept", cfg.InvitesHandler.Accept)
	}

	r.Group(func(r chi.Router) {
		r.Use(cfg.RequireJWT)
		if cfg.UserRateLimit != nil {
			r.Use(cfg.UserRateLimit)
		}
		if cfg.UsersHandler != nil {
			r.Get("/users/me", cfg.UsersHandler.Me)
		}
		if cfg.OrganizationsHandler != nil {
			oh := cfg.OrganizationsHandler
			r.Route("/orgs", func(r chi.Router) {
				r.Post("/", oh.Create)
				r.Get("/mine", oh.Mine)
				r.Route("/{orgID}", func(r chi.Router) {
					r.Get("/", oh.Get)
					r.Group(func(r chi.Router) {
						r.Use(cfg.OrgResolver.Handler)
						r.Use(middleware.RequireRole(domain.ManagerRoles...))
						r.Get("/members", oh.Members)
						r.Post("/members", oh.AddMember)
						r.Post("/invites", oh.CreateInvite)
					})
				})
			})
		}
	})

	return r
}

func loggerMiddleware(log zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimid.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info().
				Str("request_id", chimid.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}
