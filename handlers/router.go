package handlers

import (
	"net/http"
	"time"

	"feedhub-gateway/middleware/ratelimit"
	"feedhub-gateway/middleware/ratelimit/domain"
	"feedhub-gateway/middleware/webhook"

	"github.com/gorilla/mux"
)

// RouterOptions reúne o que NewRouter encadeia na frente de cada rota.
type RouterOptions struct {
	Limiter *ratelimit.Limiter
	// Auth verifica a assinatura dos callbacks do pipeline.
	Auth *webhook.Authenticator
	// AIPool limita chamadas simultâneas ao provedor de IA. nil não limita.
	AIPool           domain.SlotPool
	AIAcquireTimeout time.Duration
	InternalToken    string
	// CORS envolve o roteador inteiro: também precisa ver preflights de rotas
	// que só aceitam POST.
	CORS func(http.Handler) http.Handler
	// Metrics é servido em /metrics quando não for nil.
	Metrics http.Handler
}

// NewRouter monta as rotas. O rate limit vem antes de qualquer lógica de
// negócio; na rota de callback, só depois da verificação de assinatura.
func NewRouter(api *API, opts RouterOptions) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", Health).Methods(http.MethodGet)
	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics).Methods(http.MethodGet)
	}

	mw := ratelimit.MiddlewareOptions{Bypass: ratelimit.TokenBypass(opts.InternalToken)}
	limit := func(tier domain.Tier, h http.Handler) http.Handler {
		if opts.Limiter == nil {
			return h
		}
		return ratelimit.Middleware(opts.Limiter, tier, mw)(h)
	}

	summarize := ratelimit.ConcurrencyMiddleware(ratelimit.ConcurrencyOptions{
		Pool:           opts.AIPool,
		AcquireTimeout: opts.AIAcquireTimeout,
	})(http.HandlerFunc(api.Summarize))

	// assinatura antes do limite: callbacks forjados não gastam a cota do tier
	callback := limit(domain.Callback, http.HandlerFunc(api.ProcessingComplete))
	if opts.Auth != nil {
		callback = opts.Auth.Middleware(callback)
	}

	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.Handle("/ai/summarize", limit(domain.HighCost, summarize)).Methods(http.MethodPost)
	apiRouter.Handle("/ingest", limit(domain.MediumCost, http.HandlerFunc(api.Ingest))).Methods(http.MethodPost)
	apiRouter.Handle("/callbacks/processing-complete", callback).Methods(http.MethodPost)
	apiRouter.Handle("/feeds/ping", limit(domain.LowCost, http.HandlerFunc(api.Ping))).Methods(http.MethodGet)
	apiRouter.Handle("/jobs/{id}", limit(domain.LowCost, http.HandlerFunc(api.JobStatus))).Methods(http.MethodGet)

	if opts.CORS == nil {
		return r
	}
	return opts.CORS(r)
}
