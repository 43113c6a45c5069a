package infra

import (
	"context"
	"sync"

	"feedhub-gateway/middleware/ratelimit/domain"
)

type Counters struct {
	Allowed int64
	Denied  int64
}

func (c *Counters) add(allowed bool) {
	if allowed {
		c.Allowed++
		return
	}
	c.Denied++
}

// MemoryStatsStore é uma implementação simples em memória.
// Útil para testes e desenvolvimento.
//
// Não faz expiração e não é indicada para produção.
type MemoryStatsStore struct {
	mu      sync.Mutex
	total   Counters
	byTier  map[string]Counters
	byRoute map[string]Counters
	byKey   map[string]Counters

	trackKeys bool
}

type MemoryStatsOption func(*MemoryStatsStore)

func WithTrackKeys(track bool) MemoryStatsOption {
	return func(s *MemoryStatsStore) { s.trackKeys = track }
}

func NewMemoryStatsStore(opts ...MemoryStatsOption) *MemoryStatsStore {
	s := &MemoryStatsStore{
		byTier:  make(map[string]Counters),
		byRoute: make(map[string]Counters),
		byKey:   make(map[string]Counters),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	route := ev.Method + " " + ev.Path

	s.mu.Lock()
	defer s.mu.Unlock()

	s.total.add(ev.Allowed)

	t := s.byTier[ev.Tier]
	t.add(ev.Allowed)
	s.byTier[ev.Tier] = t

	r := s.byRoute[route]
	r.add(ev.Allowed)
	s.byRoute[route] = r

	if s.trackKeys {
		k := s.byKey[ev.Tier+":"+ev.Key]
		k.add(ev.Allowed)
		s.byKey[ev.Tier+":"+ev.Key] = k
	}
	return nil
}

func (s *MemoryStatsStore) Total() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *MemoryStatsStore) ByTier() map[string]Counters {
	return s.snapshot(func() map[string]Counters { return s.byTier })
}

func (s *MemoryStatsStore) ByRoute() map[string]Counters {
	return s.snapshot(func() map[string]Counters { return s.byRoute })
}

func (s *MemoryStatsStore) ByKey() map[string]Counters {
	return s.snapshot(func() map[string]Counters { return s.byKey })
}

func (s *MemoryStatsStore) snapshot(src func() map[string]Counters) map[string]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := src()
	out := make(map[string]Counters, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
