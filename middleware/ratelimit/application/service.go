package application

import (
	"context"
	"time"

	"feedhub-gateway/middleware/ratelimit/domain"
)

// Outcome é o resultado "bruto" de uma checagem, antes de qualquer política.
type Outcome int

const (
	OutcomeAllowed Outcome = iota
	OutcomeLimited
	OutcomeStoreError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAllowed:
		return "allowed"
	case OutcomeLimited:
		return "limited"
	case OutcomeStoreError:
		return "store_error"
	default:
		return "unknown"
	}
}

// Result carrega a decisão do store ou o erro dele. Quem decide o que fazer com
// o erro é FailOpen, não o Service.
type Result struct {
	Outcome  Outcome
	Decision domain.Decision
	Err      error
}

// Service concentra a regra de aplicação do rate limit.
//
// Ele não sabe nada sobre HTTP (headers/status), apenas retorna um Result.
type Service struct {
	Store domain.CounterStore
	// Now permite relógio fixo em testes. nil usa time.Now.
	Now func() time.Time
}

func (s Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Check registra a requisição e avalia a janela. Deve ser chamado uma única vez
// por requisição lógica.
func (s Service) Check(ctx context.Context, tier domain.Tier, id domain.Identifier) Result {
	if s.Store == nil {
		return Result{
			Outcome:  OutcomeAllowed,
			Decision: domain.Decision{Allowed: true, Limit: tier.Limit, Remaining: tier.Limit},
		}
	}

	dec, err := s.Store.Hit(ctx, tier, id, s.now())
	if err != nil {
		return Result{Outcome: OutcomeStoreError, Err: err}
	}
	if !dec.Allowed {
		return Result{Outcome: OutcomeLimited, Decision: dec}
	}
	return Result{Outcome: OutcomeAllowed, Decision: dec}
}

// FailOpen é a política de disponibilidade: só OutcomeLimited bloqueia. Uma
// queda do store de contadores não pode derrubar o serviço protegido.
func FailOpen(r Result) bool {
	return r.Outcome != OutcomeLimited
}

// RetryAfterSeconds é ceil((reset - now) / 1s), nunca negativo.
func RetryAfterSeconds(reset, now time.Time) int64 {
	ms := reset.UnixMilli() - now.UnixMilli()
	if ms <= 0 {
		return 0
	}
	return (ms + 999) / 1000
}
