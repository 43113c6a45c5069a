package domain

import (
	"context"
	"time"
)

// StatsEvent é uma decisão do rate limit vista pelas estatísticas.
// Key e Path aumentam a cardinalidade no store; gravar por Key é opcional.
type StatsEvent struct {
	Tier    string
	Key     string
	Allowed bool
	Method  string
	Path    string
	At      time.Time
}

// StatsStore grava estatísticas de decisão. Best-effort: um erro aqui nunca muda
// a decisão nem a resposta.
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
