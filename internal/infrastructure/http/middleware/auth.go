package middleware

import (
	"net/http"
	"strings"

	"github.com/amirhosseinghanipour/orgauth/internal/application/ports"
)

// AuthValidator validates the bearer access token and sets the Identity in context.
type AuthValidator struct {
	issuer ports.TokenIssuer
}

func NewAuthValidator(issuer ports.TokenIssuer) *AuthValidator {
	return &AuthValidator{issuer: issuer}
}

func (m *AuthValidator) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			writeErr(w, http.StatusUnauthorized, "unauthorized", "missing or invalid authorization")
			return
		}
		claims, err := m.issuer.ValidateAccessToken(strings.TrimPrefix(auth, "Bearer "))
		if err != nil {
			writeErr(w, http.StatusUnauthorized, "invalid_token", "invalid token")
			return
		}
		ctx := WithIdentity(r.Context(), Identity{UserID: claims.UserID, Email: claims.Email})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
