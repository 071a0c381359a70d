package handlers

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/orgauth/internal/application/ports"
	domerrors "github.com/amirhosseinghanipour/orgauth/internal/domain/errors"
	"github.com/amirhosseinghanipour/orgauth/internal/infrastructure/http/middleware"
)

// UsersHandler handles /users/*. Requires AuthValidator.
type UsersHandler struct {
	users ports.UserRepository
	log   zerolog.Logger
}

func NewUsersHandler(users ports.UserRepository, log zerolog.Logger) *UsersHandler {
	return &UsersHandler{users: users, log: log}
}

// MeResponse is the JSON shape for GET /users/me (no password).
type MeResponse struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	IsVerified bool   `json:"is_verified"`
	CreatedAt  string `json:"created_at"`
}

func (h *UsersHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeErr(w, http.StatusUnauthorized, ErrCodeUnauthorized, "unauthorized")
		return
	}
	user, err := h.users.GetByID(r.Context(), id.UserID)
	if err != nil {
		writeDomainErr(w, h.log, "users.me", err)
		return
	}
	if user == nil {
		writeDomainErr(w, h.log, "users.me", domerrors.ErrUserNotFound)
		return
	}
	writeJSON(w, http.StatusOK, MeResponse{
		ID:         user.ID.String(),
		Email:      user.Email,
		IsVerified: user.IsVerified,
		CreatedAt:  user.CreatedAt.UTC().Format(time.RFC3339),
	})
}
