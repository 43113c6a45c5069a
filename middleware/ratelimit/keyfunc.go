package ratelimit

import (
	"context"
	"net/http"
	"strings"

	"feedhub-gateway/middleware/ratelimit/domain"
)

// KeyFunc extrai o identificador autenticado de uma requisição. "" significa
// anônimo, e aí vale o IP do cliente.
type KeyFunc func(r *http.Request) string

// headers de IP do cliente, em ordem de prioridade
var clientIPHeaders = []string{
	"X-Forwarded-For",
	"X-Real-IP",
	"CF-Connecting-IP",
	"X-Client-IP",
}

// ClientIdentifier deriva o identificador a partir dos headers de proxy.
// Do X-Forwarded-For vale o primeiro valor (cliente original). Sem nenhum
// header, devolve "unknown".
func ClientIdentifier(r *http.Request) domain.Identifier {
	for _, h := range clientIPHeaders {
		v := r.Header.Get(h)
		if v == "" {
			continue
		}
		if h == "X-Forwarded-For" {
			v, _, _ = strings.Cut(v, ",")
		}
		if v = strings.TrimSpace(v); v != "" {
			return domain.IPIdentifier(v)
		}
	}
	return domain.Unknown()
}

type userIDKey struct{}

// WithUserID marca o contexto com o id do usuário autenticado. A camada de auth
// chama isso antes do middleware de rate limit.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey{}, id)
}

func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey{}).(string)
	return id
}

// ContextKeyFunc lê o usuário gravado por WithUserID.
func ContextKeyFunc(r *http.Request) string {
	return UserIDFromContext(r.Context())
}
