package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	domerrors "github.com/amirhosseinghanipour/orgauth/internal/domain/errors"
)

const maxBodyBytes = 1 << 20

// writeErr sends JSON { "error": message, "code": errCode }. If errCode is empty, a default is used from code.
func writeErr(w http.ResponseWriter, code int, errCode string, message string) {
	if errCode == "" {
		errCode = defaultErrCode(code)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message, "code": errCode})
}

func defaultErrCode(httpCode int) string {
	switch httpCode {
	case http.StatusBadRequest:
		return ErrCodeInvalidRequest
	case http.StatusUnauthorized:
		return ErrCodeUnauthorized
	case http.StatusForbidden:
		return ErrCodeForbidden
	case http.StatusNotFound:
		return ErrCodeNotFound
	case http.StatusConflict:
		return ErrCodeConflict
	case http.StatusTooManyRequests:
		return ErrCodeAccountLocked
	default:
		return ErrCodeInternal
	}
}

// statusFor maps a domain error to an HTTP status and a stable code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domerrors.ErrInvalidCredentials):
		return http.StatusUnauthorized, ErrCodeInvalidCredentials
	case errors.Is(err, domerrors.ErrInvalidToken):
		return http.StatusUnauthorized, ErrCodeInvalidToken
	case errors.Is(err, domerrors.ErrTokenRevoked):
		return http.StatusUnauthorized, ErrCodeSessionRevoked
	case errors.Is(err, domerrors.ErrInviteInvalid):
		return http.StatusBadRequest, ErrCodeInvalidInvite
	}
	switch domerrors.KindOf(err) {
	case domerrors.KindBadRequest:
		return http.StatusBadRequest, ErrCodeInvalidRequest
	case domerrors.KindUnauthorized:
		return http.StatusUnauthorized, ErrCodeUnauthorized
	case domerrors.KindForbidden:
		return http.StatusForbidden, ErrCodeForbidden
	case domerrors.KindNotFound:
		return http.StatusNotFound, ErrCodeNotFound
	case domerrors.KindConflict:
		return http.StatusConflict, ErrCodeConflict
	case domerrors.KindTooManyRequests:
		return http.StatusTooManyRequests, ErrCodeAccountLocked
	default:
		return http.StatusInternalServerError, ErrCodeInternal
	}
}

// writeDomainErr writes a classified error; unclassified errors are logged and hidden.
func writeDomainErr(w http.ResponseWriter, log zerolog.Logger, op string, err error) {
	code, errCode := statusFor(err)
	if code == http.StatusInternalServerError {
		log.Error().Err(err).Str("op", op).Msg("request failed")
		writeErr(w, code, errCode, "internal error")
		return
	}
	writeErr(w, code, errCode, err.Error())
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeBody reads a bounded JSON body into dst.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
