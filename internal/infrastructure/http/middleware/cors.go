package middleware

import (
	"net/http"
	"strings"
)

// CORS sets Access-Control-* headers for allowed origins and answers preflight requests.
// Credentials are allowed so the refresh cookie can travel cross-origin. Empty allowedOrigins disables it.
func CORS(allowedOrigins []string) func(next http.Handler) http.Handler {
	originsSet := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			originsSet[o] = true
		}
	}
	const (
		methods = "GET, POST, OPTIONS"
		headers = "Authorization, Content-Type, " + OrgIDHeader
	)
	return func(next http.Handler) http.Handler {
		if len(originsSet) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" || !originsSet[origin] {
				next.ServeHTTP(w, r)
				return
			}
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Add("Vary", "Origin")
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Set("Access-Control-Allow-Methods", methods)
				h.Set("Access-Control-Allow-Headers", headers)
				h.Set("Access-Control-Max-Age", "86400")
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
