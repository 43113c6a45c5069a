// Package cors é a fronteira de origem do gateway: roda antes do rate limit e
// da verificação de assinatura.
package cors

import (
	"net/http"
	"regexp"
	"strings"

	"feedhub-gateway/middleware/respond"
)

// DefaultExtensionPattern aceita ids de extensão do Chrome (32 letras minúsculas).
const DefaultExtensionPattern = `^chrome-extension://[a-z]{32}$`

const (
	allowMethods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
	allowHeaders = "Authorization, Content-Type, X-Internal-Token, X-Webhook-Signature"
	maxAge       = "86400"
)

type Policy struct {
	// Origins exatas permitidas (ex: https://app.feedhub.dev).
	Origins []string
	// ExtensionPattern casa origens de extensão. Vazio desliga.
	ExtensionPattern string
}

type matcher struct {
	exact map[string]struct{}
	ext   *regexp.Regexp
}

func compile(p Policy) (*matcher, error) {
	m := &matcher{exact: make(map[string]struct{}, len(p.Origins))}
	for _, o := range p.Origins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o != "" {
			m.exact[o] = struct{}{}
		}
	}
	if p.ExtensionPattern != "" {
		re, err := regexp.Compile(p.ExtensionPattern)
		if err != nil {
			return nil, err
		}
		m.ext = re
	}
	return m, nil
}

func (m *matcher) allowed(origin string) bool {
	if _, ok := m.exact[origin]; ok {
		return true
	}
	return m.ext != nil && m.ext.MatchString(origin)
}

// Middleware aplica a política. Sem Origin (servidor para servidor) a requisição
// segue sem headers de CORS.
func Middleware(p Policy) (func(http.Handler) http.Handler, error) {
	m, err := compile(p)
	if err != nil {
		return nil, err
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			if !m.allowed(origin) {
				respond.Error(http.StatusForbidden, "Origin not allowed").Write(w)
				return
			}

			respond.EchoOrigin(w.Header(), r)

			if r.Method == http.MethodOptions {
				h := w.Header()
				h.Set("Access-Control-Allow-Methods", allowMethods)
				h.Set("Access-Control-Allow-Headers", allowHeaders)
				h.Set("Access-Control-Max-Age", maxAge)
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}, nil
}
