package middleware

import (
	"encoding/json"
	"net/http"

	domerrors "github.com/amirhosseinghanipour/orgauth/internal/domain/errors"
)

// writeErr sends JSON { "error": message, "code": errCode }.
func writeErr(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message, "code": errCode})
}

// writeDomainErr maps the subset of domain errors middleware can produce.
func writeDomainErr(w http.ResponseWriter, err error) {
	switch domerrors.KindOf(err) {
	case domerrors.KindForbidden:
		writeErr(w, http.StatusForbidden, "forbidden", err.Error())
	case domerrors.KindNotFound:
		writeErr(w, http.StatusNotFound, "not_found", err.Error())
	case domerrors.KindBadRequest:
		writeErr(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		writeErr(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}
