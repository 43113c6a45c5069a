package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// heldPool nunca libera vaga: Acquire só volta quando o ctx encerra.
type heldPool struct{}

func (heldPool) Acquire(ctx context.Context) (func(), bool) {
	<-ctx.Done()
	return nil, false
}

type countingPool struct {
	acquired int
}

func (p *countingPool) Acquire(context.Context) (func(), bool) {
	p.acquired++
	return func() {}, true
}

func TestConcurrencyService_NoPoolAlwaysAcquires(t *testing.T) {
	release, ok := ConcurrencyService{}.Acquire(context.Background())
	require.True(t, ok)
	release()
}

func TestConcurrencyService_TimesOut(t *testing.T) {
	svc := ConcurrencyService{Pool: heldPool{}, AcquireTimeout: 10 * time.Millisecond}

	start := time.Now()
	_, ok := svc.Acquire(context.Background())
	assert.False(t, ok)
	assert.Less(t, time.Since(start), time.Second)
}

func TestConcurrencyService_WithoutTimeoutFollowsRequestContext(t *testing.T) {
	svc := ConcurrencyService{Pool: heldPool{}}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, ok := svc.Acquire(ctx)
	assert.False(t, ok)
}

func TestConcurrencyService_DelegatesToPool(t *testing.T) {
	pool := &countingPool{}
	svc := ConcurrencyService{Pool: pool}

	_, ok := svc.Acquire(context.Background())
	require.True(t, ok)
	assert.Equal(t, 1, pool.acquired)
}
