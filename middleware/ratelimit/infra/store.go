package infra

import (
	"context"
	"sync"
	"time"

	"feedhub-gateway/middleware/ratelimit/domain"
)

// Store é um CounterStore em memória com a mesma janela deslizante ponderada do
// store Redis. Serve para desenvolvimento local e testes: o estado não é
// compartilhado entre processos.
type Store struct {
	mu           sync.Mutex
	entries      map[string]*storeEntry
	idleTTL      time.Duration
	cleanupEvery time.Duration
}

type storeEntry struct {
	index    int64
	current  int64
	previous int64
	lastSeen time.Time
}

var _ domain.CounterStore = (*Store)(nil)

type StoreOption func(*Store)

func WithIdleTTL(d time.Duration) StoreOption {
	return func(s *Store) { s.idleTTL = d }
}

func WithCleanupEvery(d time.Duration) StoreOption {
	return func(s *Store) { s.cleanupEvery = d }
}

func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		entries:      make(map[string]*storeEntry),
		idleTTL:      2 * time.Hour,
		cleanupEvery: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hit implementa domain.CounterStore.
func (s *Store) Hit(ctx context.Context, tier domain.Tier, id domain.Identifier, now time.Time) (domain.Decision, error) {
	if err := ctx.Err(); err != nil {
		return domain.Decision{}, err
	}

	key := tier.Prefix + ":" + id.Key
	idx := windowIndex(now, tier)

	s.mu.Lock()
	defer s.mu.Unlock()

	ent, ok := s.entries[key]
	if !ok {
		ent = &storeEntry{index: idx}
		s.entries[key] = ent
	}

	// avança a janela: a corrente vira anterior, ou as duas zeram se pulou mais de uma
	switch {
	case idx == ent.index+1:
		ent.previous, ent.current = ent.current, 0
	case idx > ent.index+1:
		ent.previous, ent.current = 0, 0
	}
	if idx > ent.index {
		ent.index = idx
	}
	ent.lastSeen = now

	allowed, remaining := decide(tier.Limit, ent.current, weightedPrevious(ent.previous, now, tier))
	if allowed {
		ent.current++
	}

	return domain.Decision{
		Allowed:   allowed,
		Limit:     tier.Limit,
		Remaining: remaining,
		Reset:     windowReset(idx, tier),
	}, nil
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store) Cleanup() {
	cutoff := time.Now().Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, ent := range s.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(s.entries, k)
		}
	}
}

// StartJanitor inicia uma goroutine que limpa chaves inativas periodicamente.
// Pare cancelando o contexto.
func (s *Store) StartJanitor(ctx DoneContext) {
	if s.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(s.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Cleanup()
			}
		}
	}()
}

// DoneContext é o mínimo necessário para aceitar context.Context sem acoplar.
type DoneContext interface {
	Done() <-chan struct{}
}
