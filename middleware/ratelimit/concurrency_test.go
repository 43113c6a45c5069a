package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"feedhub-gateway/middleware/ratelimit/infra"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcurrencyMiddleware_RejectsWhenNoSlot(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var startedOnce sync.Once

	// handler que segura a vaga até liberarmos.
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startedOnce.Do(func() { close(started) })
		<-release
		w.WriteHeader(http.StatusOK)
	})

	h := ConcurrencyMiddleware(ConcurrencyOptions{
		Pool:           infra.NewChanPool(1),
		AcquireTimeout: 25 * time.Millisecond,
	})(next)

	first := httptest.NewRecorder()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		h.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "http://example/api/ai/summarize", nil))
	}()

	select {
	case <-started:
	case <-time.After(500 * time.Millisecond):
		close(release)
		wg.Wait()
		t.Fatalf("timeout waiting first request to start")
	}

	// a segunda não consegue vaga dentro do timeout
	second := httptest.NewRecorder()
	h.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "http://example/api/ai/summarize", nil))

	close(release)
	wg.Wait()

	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusServiceUnavailable, second.Code)
	assert.JSONEq(t, `{"error":"Too many concurrent requests"}`, second.Body.String())
}

func TestConcurrencyMiddleware_NoPoolPassesThrough(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusAccepted) })
	h := ConcurrencyMiddleware(ConcurrencyOptions{})(next)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "http://example/", nil))
	assert.Equal(t, http.StatusAccepted, w.Code)
}
