package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/amirhosseinghanipour/orgauth/internal/application/ports"
)

func TestHTTPEmitterSignsAndPosts(t *testing.T) {
	var (
		got     ports.AuditEvent
		header  http.Header
		rawBody []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawBody, _ = io.ReadAll(r.Body)
		_ = json.Unmarshal(rawBody, &got)
		header = r.Header.Clone()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	e := NewHTTPEmitter(srv.URL, WithSigningSecret("s3cret"), WithHeader("X-API-Key", "k"))
	e.now = func() time.Time { return time.Unix(1700000000, 0) }
	err := e.Emit(context.Background(), ports.AuditEvent{Event: "org.create", OrgID: "o1", Success: true})
	require.NoError(t, err)

	require.Equal(t, "org.create", got.Event)
	require.Equal(t, "o1", got.OrgID)
	require.Equal(t, "k", header.Get("X-API-Key"))
	require.Equal(t, "1700000000", header.Get(TimestampHeader))
	require.NotEmpty(t, header.Get(DeliveryHeader))
	require.True(t, Verify([]byte("s3cret"), "1700000000", rawBody, header.Get(SignatureHeader)))
	require.False(t, Verify([]byte("s3cret"), "1700000001", rawBody, header.Get(SignatureHeader)))
	require.False(t, Verify([]byte("other"), "1700000000", rawBody, header.Get(SignatureHeader)))
}

func TestHTTPEmitterUnsignedWithoutSecret(t *testing.T) {
	var signature string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		signature = r.Header.Get(SignatureHeader)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	require.NoError(t, NewHTTPEmitter(srv.URL, WithSigningSecret("")).Emit(context.Background(), ports.AuditEvent{Event: "x"}))
	require.Empty(t, signature)
}

func TestHTTPEmitterNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewHTTPEmitter(srv.URL).Emit(context.Background(), ports.AuditEvent{Event: "x"})
	var se *StatusError
	require.True(t, errors.As(err, &se))
	require.Equal(t, http.StatusBadGateway, se.Status)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	require.False(t, Verify([]byte("k"), "1", []byte("{}"), "not-hex"))
}
