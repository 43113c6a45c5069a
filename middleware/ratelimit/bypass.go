package ratelimit

import (
	"net/http"

	"feedhub-gateway/middleware/webhook"
)

// InternalTokenHeader carrega o token de serviços internos confiáveis.
const InternalTokenHeader = "X-Internal-Token"

// TokenBypass libera do rate limit as requisições que apresentam o token
// interno. Token vazio nunca libera nada.
func TokenBypass(token string) func(r *http.Request) bool {
	if token == "" {
		return func(*http.Request) bool { return false }
	}
	return func(r *http.Request) bool {
		got := r.Header.Get(InternalTokenHeader)
		return got != "" && webhook.ConstantTimeEqual(got, token)
	}
}
