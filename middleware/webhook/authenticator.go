package webhook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"feedhub-gateway/internal/logging"
	"feedhub-gateway/middleware/respond"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Mensagens das respostas 401. Propositalmente curtas.
const (
	msgMissingSignature = "Missing webhook signature"
	msgInvalidSignature = "Invalid webhook signature"

	msgDisabled = "WEBHOOK_SECRET not configured - callback authentication disabled"
)

// DefaultMaxBodyBytes limita o corpo lido para verificação (1MB).
const DefaultMaxBodyBytes int64 = 1 << 20

var (
	ErrSecretRequired = errors.New("webhook: WEBHOOK_SECRET is required")
	errBodyTooLarge   = errors.New("webhook: body too large")
)

// Mode é a postura de segurança do receptor, explícita na configuração.
type Mode int

const (
	// ModeEnforced exige assinatura válida.
	ModeEnforced Mode = iota
	// ModeDisabled aceita callbacks sem verificar, com warning em toda requisição.
	ModeDisabled
)

func (m Mode) String() string {
	switch m {
	case ModeEnforced:
		return "enforced"
	case ModeDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// Observer recebe o resultado de cada verificação (ex: Prometheus).
type Observer interface {
	ObserveVerification(result string)
}

type Config struct {
	Secret string
	// Header com a assinatura. Padrão: x-webhook-signature.
	Header string
	// RequireSecret faz NewAuthenticator falhar sem segredo, em vez de cair
	// para ModeDisabled.
	RequireSecret bool
	MaxBodyBytes  int64
	Logger        log.Logger
	Observer      Observer
}

// Authenticator verifica callbacks de entrada.
type Authenticator struct {
	mode     Mode
	secret   string
	header   string
	maxBody  int64
	logger   log.Logger
	observer Observer
}

func NewAuthenticator(cfg Config) (*Authenticator, error) {
	secret := strings.TrimSpace(cfg.Secret)
	mode := ModeEnforced
	if secret == "" {
		if cfg.RequireSecret {
			return nil, ErrSecretRequired
		}
		mode = ModeDisabled
	}
	if cfg.Header == "" {
		cfg.Header = DefaultSignatureHeader
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}

	return &Authenticator{
		mode:     mode,
		secret:   secret,
		header:   cfg.Header,
		maxBody:  cfg.MaxBodyBytes,
		logger:   logging.OrNop(cfg.Logger),
		observer: cfg.Observer,
	}, nil
}

func (a *Authenticator) Mode() Mode { return a.mode }

// Validate lê o corpo bruto e, em ModeEnforced, verifica a assinatura. Devolve
// os bytes lidos (o corpo já foi consumido) ou a resposta de erro.
func (a *Authenticator) Validate(r *http.Request) ([]byte, *respond.Response) {
	logger := log.With(a.logger, "path", r.URL.Path, "mode", a.mode)

	if a.mode == ModeDisabled {
		_ = level.Warn(logger).Log("msg", msgDisabled)
		a.observe("unverified")
		raw, err := readBody(r, a.maxBody)
		if err != nil {
			_ = level.Error(logger).Log("msg", "webhook body could not be read", "err", err)
			return nil, respond.Error(http.StatusBadRequest, "Invalid request body")
		}
		return raw, nil
	}

	sig := strings.TrimSpace(r.Header.Get(a.header))
	if sig == "" {
		_ = level.Error(logger).Log("msg", "webhook signature missing", "header", a.header)
		a.observe("missing")
		return nil, respond.Error(http.StatusUnauthorized, msgMissingSignature)
	}

	raw, err := readBody(r, a.maxBody)
	if err != nil {
		_ = level.Error(logger).Log("msg", "webhook body could not be read", "err", err)
		a.observe("invalid")
		return nil, respond.Error(http.StatusUnauthorized, msgInvalidSignature)
	}

	if !verifySignature(logger, raw, sig, a.secret) {
		_ = level.Error(logger).Log(
			"msg", "webhook signature invalid",
			"signature_prefix", digestPrefix(sig),
			"body_bytes", len(raw),
		)
		a.observe("invalid")
		return nil, respond.Error(http.StatusUnauthorized, msgInvalidSignature)
	}

	a.observe("valid")
	return raw, nil
}

// Middleware roda Validate antes do handler e recoloca os mesmos bytes em
// r.Body, que o handler pode decodificar normalmente.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, resp := a.Validate(r)
		if resp != nil {
			respond.EchoOrigin(resp.Header, r)
			resp.Write(w)
			return
		}

		r.Body = io.NopCloser(bytes.NewReader(raw))
		r.ContentLength = int64(len(raw))
		next.ServeHTTP(w, r.WithContext(withRawBody(r.Context(), raw)))
	})
}

func (a *Authenticator) observe(result string) {
	if a.observer != nil {
		a.observer.ObserveVerification(result)
	}
}

// ValidateRequest verifica um callback com segredo e header explícitos.
// headerName vazio usa x-webhook-signature.
func ValidateRequest(r *http.Request, secret, headerName string) ([]byte, *respond.Response) {
	a := &Authenticator{
		mode:    ModeEnforced,
		secret:  secret,
		header:  headerName,
		maxBody: DefaultMaxBodyBytes,
		logger:  log.NewNopLogger(),
	}
	if a.header == "" {
		a.header = DefaultSignatureHeader
	}
	return a.Validate(r)
}

func readBody(r *http.Request, max int64) ([]byte, error) {
	if r.Body == nil {
		return []byte{}, nil
	}
	defer r.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(r.Body, max+1))
	if err != nil {
		return nil, fmt.Errorf("webhook: read body: %w", err)
	}
	if int64(len(raw)) > max {
		return nil, errBodyTooLarge
	}
	return raw, nil
}

type rawBodyKey struct{}

func withRawBody(ctx context.Context, raw []byte) context.Context {
	return context.WithValue(ctx, rawBodyKey{}, raw)
}

// RawBody devolve o corpo verificado pelo Middleware.
func RawBody(ctx context.Context) ([]byte, bool) {
	raw, ok := ctx.Value(rawBodyKey{}).([]byte)
	return raw, ok
}
