package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"feedhub-gateway/middleware/ratelimit/domain"

	"github.com/stretchr/testify/assert"
)

func TestClientIdentifier_Priority(t *testing.T) {
	cases := []struct {
		name    string
		headers map[string]string
		want    domain.Identifier
	}{
		{
			name:    "first forwarded-for value",
			headers: map[string]string{"X-Forwarded-For": " 1.2.3.4 , 5.6.7.8", "X-Real-IP": "9.9.9.9"},
			want:    domain.IPIdentifier("1.2.3.4"),
		},
		{
			name:    "real ip before cloudflare",
			headers: map[string]string{"X-Real-IP": "9.9.9.9", "CF-Connecting-IP": "8.8.8.8"},
			want:    domain.IPIdentifier("9.9.9.9"),
		},
		{
			name:    "cloudflare before client ip",
			headers: map[string]string{"CF-Connecting-IP": "8.8.8.8", "X-Client-IP": "7.7.7.7"},
			want:    domain.IPIdentifier("8.8.8.8"),
		},
		{
			name:    "client ip",
			headers: map[string]string{"X-Client-IP": "7.7.7.7"},
			want:    domain.IPIdentifier("7.7.7.7"),
		},
		{
			name:    "empty forwarded-for falls through",
			headers: map[string]string{"X-Forwarded-For": " , 5.6.7.8", "X-Client-IP": "7.7.7.7"},
			want:    domain.IPIdentifier("7.7.7.7"),
		},
		{
			name: "unknown",
			want: domain.Identifier{Key: "unknown", Kind: domain.KindUnknown},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
			r.RemoteAddr = "10.0.0.9:5555"
			for k, v := range tc.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tc.want, ClientIdentifier(r))
		})
	}
}

func TestUserIDFromContext(t *testing.T) {
	assert.Empty(t, UserIDFromContext(context.Background()))

	ctx := WithUserID(context.Background(), "user-42")
	assert.Equal(t, "user-42", UserIDFromContext(ctx))

	r := httptest.NewRequest(http.MethodGet, "http://example/", nil).WithContext(ctx)
	assert.Equal(t, "user-42", ContextKeyFunc(r))
}
