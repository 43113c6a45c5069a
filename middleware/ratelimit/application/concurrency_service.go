package application

import (
	"context"
	"time"

	"feedhub-gateway/middleware/ratelimit/domain"
)

// ConcurrencyService decide quanto tempo uma requisição espera por uma vaga.
type ConcurrencyService struct {
	Pool domain.SlotPool
	// AcquireTimeout <= 0 espera enquanto a requisição durar.
	AcquireTimeout time.Duration
}

// Acquire devolve (release, true) com a vaga, ou (nil, false) se o prazo acabou.
// Sem Pool, sempre libera.
func (s ConcurrencyService) Acquire(ctx context.Context) (release func(), ok bool) {
	if s.Pool == nil {
		return func() {}, true
	}
	if s.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.AcquireTimeout)
		defer cancel()
	}
	return s.Pool.Acquire(ctx)
}
