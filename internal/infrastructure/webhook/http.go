package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/amirhosseinghanipour/orgauth/internal/application/ports"
)

// Headers set on every delivery. The signature covers "<timestamp>.<body>" so a receiver
// can reject replays older than its own tolerance.
const (
	SignatureHeader = "X-Orgauth-Signature"
	TimestampHeader = "X-Orgauth-Timestamp"
	DeliveryHeader  = "X-Orgauth-Delivery"
)

// HTTPEmitter POSTs audit events as JSON to a single endpoint.
type HTTPEmitter struct {
	client  *http.Client
	url     string
	secret  []byte
	headers http.Header
	now     func() time.Time
}

type Option func(*HTTPEmitter)

// WithClient replaces the default client (10s timeout).
func WithClient(c *http.Client) Option {
	return func(e *HTTPEmitter) { e.client = c }
}

func WithHeader(key, value string) Option {
	return func(e *HTTPEmitter) { e.headers.Set(key, value) }
}

// WithSigningSecret enables the signature header. An empty secret leaves deliveries unsigned.
func WithSigningSecret(secret string) Option {
	return func(e *HTTPEmitter) {
		if secret != "" {
			e.secret = []byte(secret)
		}
	}
}

func NewHTTPEmitter(url string, opts ...Option) *HTTPEmitter {
	e := &HTTPEmitter{
		client:  &http.Client{Timeout: 10 * time.Second},
		url:     url,
		headers: http.Header{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Sign returns hex(HMAC-SHA256(secret, timestamp + "." + body)).
func Sign(secret []byte, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(timestamp))
	mac.Write([]byte{'.'})
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a signature produced by Sign in constant time.
func Verify(secret []byte, timestamp string, body []byte, signature string) bool {
	want, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	got, _ := hex.DecodeString(Sign(secret, timestamp, body))
	return hmac.Equal(want, got)
}

func (e *HTTPEmitter) Emit(ctx context.Context, event ports.AuditEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	for k, vs := range e.headers {
		req.Header[k] = vs
	}
	ts := strconv.FormatInt(e.now().Unix(), 10)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(TimestampHeader, ts)
	req.Header.Set(DeliveryHeader, uuid.NewString())
	if e.secret != nil {
		req.Header.Set(SignatureHeader, Sign(e.secret, ts, body))
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver %s: %w", event.Event, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return &StatusError{Status: resp.StatusCode}
	}
	return nil
}

// StatusError is a non-2xx answer from the endpoint. The queue worker retries it.
type StatusError struct {
	Status int
}

func (e *StatusError) Error() string {
	return "webhook endpoint returned status " + strconv.Itoa(e.Status)
}

var _ ports.WebhookEmitter = (*HTTPEmitter)(nil)
