package ratelimit

import (
	"net/http"
	"time"

	"feedhub-gateway/middleware/ratelimit/application"
	"feedhub-gateway/middleware/ratelimit/domain"
	"feedhub-gateway/middleware/respond"
)

type ConcurrencyOptions struct {
	Pool           domain.SlotPool
	RejectStatus   int
	AcquireTimeout time.Duration
}

// ConcurrencyMiddleware limita quantas requisições ficam em voo no handler.
// Sem Pool, não limita nada.
func ConcurrencyMiddleware(opts ConcurrencyOptions) func(next http.Handler) http.Handler {
	if opts.Pool == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusServiceUnavailable
	}

	svc := application.ConcurrencyService{
		Pool:           opts.Pool,
		AcquireTimeout: opts.AcquireTimeout,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			release, ok := svc.Acquire(r.Context())
			if !ok {
				respond.Error(opts.RejectStatus, "Too many concurrent requests").Write(w)
				return
			}
			defer release()

			next.ServeHTTP(w, r)
		})
	}
}
