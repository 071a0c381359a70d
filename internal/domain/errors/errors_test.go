package errors

import (
	"fmt"
	"testing"
)

func TestSentinelErrors(t *testing.T) {
	if ErrUserExists == nil {
		t.Error("ErrUserExists should not be nil")
	}
	if ErrInvalidCredentials == nil {
		t.Error("ErrInvalidCredentials should not be nil")
	}
	if ErrInviteInvalid == nil {
		t.Error("ErrInviteInvalid should not be nil")
	}
}

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want Kind
	}{
		{ErrUserExists, KindConflict},
		{ErrInvalidCredentials, KindUnauthorized},
		{ErrTokenRevoked, KindUnauthorized},
		{ErrInsufficientRole, KindForbidden},
		{ErrOrgNotFound, KindNotFound},
		{ErrInviteInvalid, KindBadRequest},
		{ErrAccountLocked, KindTooManyRequests},
		{fmt.Errorf("accept invite: %w", ErrInviteInvalid), KindBadRequest},
		{fmt.Errorf("connection refused"), KindInternal},
		{nil, KindInternal},
	}
	for _, tc := range cases {
		if got := KindOf(tc.err); got != tc.want {
			t.Errorf("KindOf(%v) = %s, want %s", tc.err, got, tc.want)
		}
	}
}

func TestLoginAndRefreshFailuresShareKind(t *testing.T) {
	if KindOf(ErrInvalidToken) != KindOf(ErrTokenRevoked) {
		t.Fatal("refresh failures must map to the same kind")
	}
}
