package handlers

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validation limits.
const (
	MaxEmailLength    = 254
	MaxPasswordLength = 128
	MaxRefreshToken   = 1024
	MaxInviteToken    = 256
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// SanitizeEmail trims and lowercases email; returns empty if invalid length.
func SanitizeEmail(email string) string {
	s := strings.TrimSpace(strings.ToLower(email))
	if len(s) > MaxEmailLength {
		return ""
	}
	return s
}

// validationMessage flattens validator errors into "field: rule" pairs.
func validationMessage(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return "invalid body"
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, strings.ToLower(fe.Field())+": "+fe.Tag())
	}
	return "invalid " + strings.Join(parts, ", ")
}
