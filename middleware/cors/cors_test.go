package cors

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const appOrigin = "https://app.feedhub.dev"

var extOrigin = "chrome-extension://" + strings.Repeat("a", 32)

func newHandler(t *testing.T) (http.Handler, *int) {
	t.Helper()
	mw, err := Middleware(Policy{Origins: []string{appOrigin + "/"}, ExtensionPattern: DefaultExtensionPattern})
	require.NoError(t, err)

	calls := 0
	return mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	})), &calls
}

func TestMiddleware_Preflight(t *testing.T) {
	h, calls := newHandler(t)

	r := httptest.NewRequest(http.MethodOptions, "/api/ingest", nil)
	r.Header.Set("Origin", extOrigin)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
	assert.Equal(t, extOrigin, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Methods"))
	assert.Zero(t, *calls)
}

func TestMiddleware_DisallowedOrigin(t *testing.T) {
	h, calls := newHandler(t)

	for _, origin := range []string{
		"https://evil.example",
		"chrome-extension://" + strings.Repeat("a", 31),
		"chrome-extension://" + strings.Repeat("A", 32),
		appOrigin + ".evil.example",
	} {
		r := httptest.NewRequest(http.MethodPost, "/api/ingest", nil)
		r.Header.Set("Origin", origin)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		assert.Equal(t, http.StatusForbidden, w.Code, origin)
		assert.JSONEq(t, `{"error":"Origin not allowed"}`, w.Body.String())
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	}
	assert.Zero(t, *calls)
}

func TestMiddleware_AllowedOriginEchoed(t *testing.T) {
	h, calls := newHandler(t)

	r := httptest.NewRequest(http.MethodGet, "/api/feeds/ping", nil)
	r.Header.Set("Origin", appOrigin)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, appOrigin, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, 1, *calls)
}

func TestMiddleware_NoOriginPassesThrough(t *testing.T) {
	h, calls := newHandler(t)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/callbacks/processing-complete", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, 1, *calls)
}

func TestMiddleware_InvalidPattern(t *testing.T) {
	_, err := Middleware(Policy{ExtensionPattern: "("})
	assert.Error(t, err)
}
