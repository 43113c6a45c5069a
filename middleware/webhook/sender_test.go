package webhook

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	mu      sync.Mutex
	body    []byte
	headers http.Header
}

func captureServer(t *testing.T, status int) (*httptest.Server, *captured) {
	t.Helper()
	c := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		c.mu.Lock()
		c.body = body
		c.headers = r.Header.Clone()
		c.mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, c
}

type recordingDeliveries struct{ statuses []string }

func (o *recordingDeliveries) ObserveDelivery(status string) { o.statuses = append(o.statuses, status) }

func TestSender_SignatureCoversExactBytesSent(t *testing.T) {
	srv, got := captureServer(t, http.StatusAccepted)

	payload := map[string]any{"jobId": "j-1", "status": "completed"}
	resp, err := CreateSignedRequest(context.Background(), srv.URL, payload, "pipeline-secret", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	assert.Equal(t, `{"jobId":"j-1","status":"completed"}`, string(got.body))
	assert.Equal(t, "dc31f46234cb7416088db2d3317146921391a479028e715e49c326a0c28ab8db", got.headers.Get(DefaultSignatureHeader))
	assert.True(t, VerifySignature(got.body, got.headers.Get(DefaultSignatureHeader), "pipeline-secret"))
	assert.Equal(t, "application/json", got.headers.Get("Content-Type"))

	_, err = uuid.Parse(got.headers.Get(DeliveryIDHeader))
	assert.NoError(t, err)
}

func TestSender_ExtraHeadersAppliedLast(t *testing.T) {
	srv, got := captureServer(t, http.StatusOK)

	extra := http.Header{}
	extra.Set("X-Job-Source", "feed-refresh")
	extra.Set("Content-Type", "application/vnd.feedhub+json")

	resp, err := NewSender(fixtureSecret).Send(context.Background(), srv.URL, map[string]int{"a": 1}, extra)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "feed-refresh", got.headers.Get("X-Job-Source"))
	assert.Equal(t, "application/vnd.feedhub+json", got.headers.Get("Content-Type"))
	assert.Equal(t, fixtureSignature, got.headers.Get(DefaultSignatureHeader))
}

func TestSender_RoundTripThroughAuthenticator(t *testing.T) {
	a, err := NewAuthenticator(Config{Secret: "shared", Header: "X-Pipeline-Signature"})
	require.NoError(t, err)

	var received []byte
	srv := httptest.NewServer(a.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received, _ = RawBody(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})))
	defer srv.Close()

	s := NewSender("shared", WithSignatureHeader("X-Pipeline-Signature"))
	resp, err := s.Send(context.Background(), srv.URL, map[string]string{"feedId": "f-42"}, nil)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.JSONEq(t, `{"feedId":"f-42"}`, string(received))
}

func TestSender_EmptySecretStillSigns(t *testing.T) {
	srv, got := captureServer(t, http.StatusOK)

	resp, err := NewSender("").SendRaw(context.Background(), srv.URL, []byte(`{}`), nil)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, GenerateSignature([]byte(`{}`), ""), got.headers.Get(DefaultSignatureHeader))
	assert.False(t, VerifySignature([]byte(`{}`), got.headers.Get(DefaultSignatureHeader), "pipeline-secret"))
	assert.NotEmpty(t, got.headers.Get(DeliveryIDHeader))
}

func TestSender_ObservesStatusClass(t *testing.T) {
	srv, _ := captureServer(t, http.StatusBadGateway)
	obs := &recordingDeliveries{}

	s := NewSender(fixtureSecret, WithDeliveryObserver(obs))
	resp, err := s.SendRaw(context.Background(), srv.URL, []byte(`{}`), nil)
	require.NoError(t, err)
	resp.Body.Close()

	srv.Close()
	_, err = s.SendRaw(context.Background(), srv.URL, []byte(`{}`), nil)
	assert.Error(t, err)

	assert.Equal(t, []string{"5xx", "error"}, obs.statuses)
}

func TestSender_EncodeError(t *testing.T) {
	_, err := NewSender(fixtureSecret).Send(context.Background(), "http://127.0.0.1:1", make(chan int), nil)
	assert.ErrorContains(t, err, "encode payload")
}

func TestSender_PacingHonorsContext(t *testing.T) {
	srv, _ := captureServer(t, http.StatusOK)

	// 1 envio por minuto: o segundo precisa esperar e o ctx expira antes
	s := NewSender(fixtureSecret, WithPacing(1.0/60, 1))
	resp, err := s.SendRaw(context.Background(), srv.URL, []byte(`{}`), nil)
	require.NoError(t, err)
	resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = s.SendRaw(ctx, srv.URL, []byte(`{}`), nil)
	assert.ErrorContains(t, err, "pacing")
}
