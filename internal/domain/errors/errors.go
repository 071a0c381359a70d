package errors

import "errors"

// Kind classifies a failure for the transport layer. Anything unclassified is KindInternal.
type Kind int

const (
	KindInternal Kind = iota
	KindBadRequest
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindTooManyRequests
)

func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindTooManyRequests:
		return "too_many_requests"
	default:
		return "internal"
	}
}

// Error is a classified domain error.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

func newError(kind Kind, msg string) *Error { return &Error{Kind: kind, Message: msg} }

// Sentinel errors for handlers to map to HTTP status.
var (
	ErrUserExists         = newError(KindConflict, "email already in use")
	ErrMemberExists       = newError(KindConflict, "user is already a member of this organization")
	ErrInvalidCredentials = newError(KindUnauthorized, "invalid credentials")
	ErrInvalidToken       = newError(KindUnauthorized, "invalid refresh token")
	ErrTokenRevoked       = newError(KindUnauthorized, "refresh token revoked")
	ErrAccountLocked      = newError(KindTooManyRequests, "too many failed attempts; try again later")
	ErrNotMember          = newError(KindForbidden, "not a member of this organization")
	ErrMissingOrgContext  = newError(KindForbidden, "missing org context")
	ErrInsufficientRole   = newError(KindForbidden, "insufficient org role")
	ErrOrgNotFound        = newError(KindNotFound, "organization not found")
	ErrUserNotFound       = newError(KindNotFound, "user not found")
	ErrAlreadyMember      = newError(KindBadRequest, "user is already a member of this organization")
	ErrInviteInvalid      = newError(KindBadRequest, "invalid or expired invite")
	ErrInvalidRole        = newError(KindBadRequest, "invalid role")
	ErrInvalidInput       = newError(KindBadRequest, "invalid input")
)

// KindOf returns the kind of the first classified error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
