package ratelimit

import (
	"fmt"
	"net/http"
	"time"

	"feedhub-gateway/internal/logging"
	"feedhub-gateway/middleware/ratelimit/application"
	"feedhub-gateway/middleware/ratelimit/domain"
	"feedhub-gateway/middleware/respond"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Observer recebe cada decisão (ex: contadores Prometheus).
type Observer interface {
	ObserveDecision(tier, outcome string)
}

type Options struct {
	Store    domain.CounterStore
	Stats    domain.StatsStore
	Logger   log.Logger
	Observer Observer
	// Now permite relógio fixo em testes. nil usa time.Now.
	Now func() time.Time
}

// Limiter é o ponto de entrada HTTP do rate limit. É montado uma vez no boot e
// compartilhado por todos os handlers.
type Limiter struct {
	svc      application.Service
	stats    domain.StatsStore
	logger   log.Logger
	observer Observer
	now      func() time.Time
}

func NewLimiter(opts Options) *Limiter {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Limiter{
		svc:      application.Service{Store: opts.Store, Now: now},
		stats:    opts.Stats,
		logger:   logging.OrNop(opts.Logger),
		observer: opts.Observer,
		now:      now,
	}
}

type checkOptions struct {
	identifier string
	bypass     bool
}

type CheckOption func(*checkOptions)

// WithIdentifier usa o id do usuário autenticado em vez do IP.
func WithIdentifier(id string) CheckOption {
	return func(o *checkOptions) { o.identifier = id }
}

// WithBypass pula a checagem (chamadas internas/admin). Fica registrado no log.
func WithBypass(bypass bool) CheckOption {
	return func(o *checkOptions) { o.bypass = bypass }
}

// Check decide se a requisição pode seguir no tier informado. Devolve nil para
// seguir, ou a resposta 429 completa. Erros do store seguem como permitidos.
func (l *Limiter) Check(r *http.Request, tier domain.Tier, opts ...CheckOption) *respond.Response {
	var co checkOptions
	for _, opt := range opts {
		opt(&co)
	}

	id := ClientIdentifier(r)
	if co.identifier != "" {
		id = domain.UserIdentifier(co.identifier)
	}
	logger := log.With(l.logger, "tier", tier.Name, "identifier_kind", id.Kind)

	if co.bypass {
		_ = level.Info(logger).Log("msg", "rate limit bypassed", "bypass", true, "path", r.URL.Path)
		l.observe(tier, "bypassed")
		return nil
	}

	res := l.svc.Check(r.Context(), tier, id)
	l.observe(tier, res.Outcome.String())

	if res.Outcome == application.OutcomeStoreError {
		_ = level.Error(logger).Log("msg", "rate limit check failed, allowing request", "err", res.Err)
	} else {
		_ = level.Info(logger).Log(
			"msg", "rate limit check",
			"success", res.Decision.Allowed,
			"remaining", res.Decision.Remaining,
		)
		l.record(r, tier, id, res.Decision.Allowed)
	}

	if application.FailOpen(res) {
		return nil
	}

	_ = level.Warn(logger).Log(
		"msg", "rate limit exceeded",
		"identifier", id.Key,
		"limit", res.Decision.Limit,
		"reset", formatISO(res.Decision.Reset),
	)
	return exceeded(r, res.Decision, application.RetryAfterSeconds(res.Decision.Reset, l.now()))
}

func (l *Limiter) observe(tier domain.Tier, outcome string) {
	if l.observer != nil {
		l.observer.ObserveDecision(tier.Name, outcome)
	}
}

func (l *Limiter) record(r *http.Request, tier domain.Tier, id domain.Identifier, allowed bool) {
	if l.stats == nil {
		return
	}
	err := l.stats.Record(r.Context(), domain.StatsEvent{
		Tier:    tier.Name,
		Key:     id.Key,
		Allowed: allowed,
		Method:  r.Method,
		Path:    r.URL.Path,
		At:      l.now(),
	})
	if err != nil {
		_ = level.Debug(l.logger).Log("msg", "rate limit stats not recorded", "err", err)
	}
}

// ExceededBody é o corpo JSON da resposta 429.
type ExceededBody struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	Limit      int64  `json:"limit"`
	Remaining  int64  `json:"remaining"`
	Reset      string `json:"reset"`
	RetryAfter int64  `json:"retryAfter"`
}

func exceeded(r *http.Request, dec domain.Decision, retryAfter int64) *respond.Response {
	h := http.Header{}
	h.Set("X-RateLimit-Limit", formatInt(dec.Limit))
	h.Set("X-RateLimit-Remaining", formatInt(dec.Remaining))
	h.Set("X-RateLimit-Reset", formatInt(dec.Reset.UnixMilli()))
	h.Set("Retry-After", formatInt(retryAfter))
	respond.EchoOrigin(h, r)

	return &respond.Response{
		Status: http.StatusTooManyRequests,
		Header: h,
		Body: ExceededBody{
			Error:      "Rate limit exceeded",
			Message:    fmt.Sprintf("Too many requests. Please try again in %d seconds.", retryAfter),
			Limit:      dec.Limit,
			Remaining:  dec.Remaining,
			Reset:      formatISO(dec.Reset),
			RetryAfter: retryAfter,
		},
	}
}

type MiddlewareOptions struct {
	// KeyFn devolve o usuário autenticado. Padrão: ContextKeyFunc.
	KeyFn KeyFunc
	// Bypass marca chamadas confiáveis que não passam pelo limite.
	Bypass func(r *http.Request) bool
}

// Middleware aplica Check no topo da cadeia, antes de qualquer lógica de negócio.
func Middleware(l *Limiter, tier domain.Tier, opts MiddlewareOptions) func(next http.Handler) http.Handler {
	if opts.KeyFn == nil {
		opts.KeyFn = ContextKeyFunc
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bypass := opts.Bypass != nil && opts.Bypass(r)
			if resp := l.Check(r, tier, WithIdentifier(opts.KeyFn(r)), WithBypass(bypass)); resp != nil {
				resp.Write(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
