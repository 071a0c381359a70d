package handlers

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/orgauth/internal/application/auth"
	"github.com/amirhosseinghanipour/orgauth/internal/domain"
	"github.com/amirhosseinghanipour/orgauth/internal/infrastructure/http/middleware"
)

// CookieConfig controls the refresh-token cookie. Path is always /auth.
type CookieConfig struct {
	Name     string
	Secure   bool
	SameSite http.SameSite
	Domain   string
	MaxAge   time.Duration
}

const refreshCookiePath = "/auth"

type AuthHandler struct {
	register *auth.RegisterUser
	login    *auth.Login
	refresh  *auth.Refresh
	logout   *auth.Logout
	cookie   CookieConfig
	audit    *Auditor
	log      zerolog.Logger
}

func NewAuthHandler(register *auth.RegisterUser, login *auth.Login, refresh *auth.Refresh, logout *auth.Logout, cookie CookieConfig, audit *Auditor, log zerolog.Logger) *AuthHandler {
	if cookie.Name == "" {
		cookie.Name = "refresh_token"
	}
	if cookie.SameSite == 0 {
		cookie.SameSite = http.SameSiteLaxMode
	}
	return &AuthHandler{
		register: register,
		login:    login,
		refresh:  refresh,
		logout:   logout,
		cookie:   cookie,
		audit:    audit,
		log:      log,
	}
}

type credentialsBody struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=1,max=128"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type sessionResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresIn    int64         `json:"expires_in"`
	User         *userResponse `json:"user,omitempty"`
}

func toUserResponse(u *domain.User) *userResponse {
	return &userResponse{ID: u.ID.String(), Email: u.Email}
}

func (h *AuthHandler) setRefreshCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     refreshCookiePath,
		Domain:   h.cookie.Domain,
		MaxAge:   int(h.cookie.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: h.cookie.SameSite,
	})
}

func (h *AuthHandler) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     refreshCookiePath,
		Domain:   h.cookie.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: h.cookie.SameSite,
	})
}

// refreshTokenFrom prefers the cookie and falls back to a JSON body field.
func (h *AuthHandler) refreshTokenFrom(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(h.cookie.Name); err == nil && c.Value != "" {
		return c.Value
	}
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if r.ContentLength != 0 {
		_ = decodeBody(w, r, &body)
	}
	if len(body.RefreshToken) > MaxRefreshToken {
		return ""
	}
	return body.RefreshToken
}

func (h *AuthHandler) readCredentials(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	var body credentialsBody
	if err := decodeBody(w, r, &body); err != nil {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid body")
		return "", "", false
	}
	body.Email = SanitizeEmail(body.Email)
	if err := validate.Struct(&body); err != nil {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, validationMessage(err))
		return "", "", false
	}
	return body.Email, body.Password, true
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	email, password, ok := h.readCredentials(w, r)
	if !ok {
		return
	}
	result, err := h.register.Execute(r.Context(), auth.RegisterUserInput{Email: email, Password: password})
	middleware.RecordAuthAttempt("register", err == nil)
	if err != nil {
		h.audit.Emit(r, EventRegister, "", "", err)
		writeDomainErr(w, h.log, "register", err)
		return
	}
	h.audit.Emit(r, EventRegister, "", result.User.ID.String(), nil)
	h.setRefreshCookie(w, result.RefreshToken)
	writeJSON(w, http.StatusCreated, sessionResponse{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		ExpiresIn:    result.ExpiresIn,
		User:         toUserResponse(result.User),
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	email, password, ok := h.readCredentials(w, r)
	if !ok {
		return
	}
	result, err := h.login.Execute(r.Context(), auth.LoginInput{Email: email, Password: password})
	middleware.RecordAuthAttempt("login", err == nil)
	if err != nil {
		h.audit.Emit(r, EventLogin, "", "", err)
		writeDomainErr(w, h.log, "login", err)
		return
	}
	h.audit.Emit(r, EventLogin, "", result.User.ID.String(), nil)
	h.setRefreshCookie(w, result.RefreshToken)
	writeJSON(w, http.StatusOK, sessionResponse{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		ExpiresIn:    result.ExpiresIn,
		User:         toUserResponse(result.User),
	})
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	token := h.refreshTokenFrom(w, r)
	result, err := h.refresh.Execute(r.Context(), auth.RefreshInput{RefreshToken: token})
	middleware.RecordAuthAttempt("refresh", err == nil)
	if err != nil {
		h.audit.Emit(r, EventRefresh, "", "", err)
		h.clearRefreshCookie(w)
		writeDomainErr(w, h.log, "refresh", err)
		return
	}
	h.audit.Emit(r, EventRefresh, "", result.UserID.String(), nil)
	h.setRefreshCookie(w, result.RefreshToken)
	writeJSON(w, http.StatusOK, sessionResponse{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		ExpiresIn:    result.ExpiresIn,
	})
}

// Logout always answers 200 and clears the cookie; only store failures surface as errors.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := h.refreshTokenFrom(w, r)
	result, err := h.logout.Execute(r.Context(), auth.LogoutInput{RefreshToken: token})
	userID := ""
	if err == nil && result.Revoked {
		userID = result.UserID.String()
	}
	h.audit.Emit(r, EventLogout, "", userID, err)
	h.clearRefreshCookie(w)
	if err != nil {
		writeDomainErr(w, h.log, "logout", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
