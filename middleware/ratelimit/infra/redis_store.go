package infra

import (
	"context"
	"fmt"
	"time"

	"feedhub-gateway/middleware/ratelimit/domain"

	"github.com/redis/go-redis/v9"
)

// RedisStore é o CounterStore compartilhado entre instâncias. Cada checagem é
// um único script Lua, então incrementos concorrentes de invocações paralelas
// são linearizados por chave pelo próprio Redis.
type RedisStore struct {
	client redis.Cmdable
}

var _ domain.CounterStore = (*RedisStore)(nil)

func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

// slidingWindowScript conta e avalia numa única ida ao servidor.
// KEYS[1] = chave da janela corrente
// KEYS[2] = chave da janela anterior
// ARGV[1] = limite do tier
// ARGV[2] = agora (epoch ms)
// ARGV[3] = tamanho da janela (ms)
//
// Retorna {permitido (1|0), restante}.
var slidingWindowScript = redis.NewScript(`
local current_key = KEYS[1]
local previous_key = KEYS[2]
local limit = tonumber(ARGV[1])
local now = tonumber(ARGV[2])
local window = tonumber(ARGV[3])

local current = tonumber(redis.call("GET", current_key) or "0")
local previous = tonumber(redis.call("GET", previous_key) or "0")
local weighted = math.floor((1 - (now % window) / window) * previous)

if weighted + current >= limit then
    return {0, 0}
end

local value = redis.call("INCR", current_key)
if value == 1 then
    redis.call("PEXPIRE", current_key, window * 2 + 1000)
end

local remaining = limit - (value + weighted)
if remaining < 0 then
    remaining = 0
end
return {1, remaining}
`)

// Hit implementa domain.CounterStore.
func (s *RedisStore) Hit(ctx context.Context, tier domain.Tier, id domain.Identifier, now time.Time) (domain.Decision, error) {
	idx := windowIndex(now, tier)
	keys := []string{
		counterKey(tier, id.Key, idx),
		counterKey(tier, id.Key, idx-1),
	}

	res, err := slidingWindowScript.Run(ctx, s.client, keys,
		tier.Limit, now.UnixMilli(), windowMillis(tier),
	).Int64Slice()
	if err != nil {
		return domain.Decision{}, fmt.Errorf("ratelimit/redis: hit %s: %w", tier.Name, err)
	}
	if len(res) != 2 {
		return domain.Decision{}, fmt.Errorf("ratelimit/redis: unexpected script result: %v", res)
	}

	return domain.Decision{
		Allowed:   res[0] == 1,
		Limit:     tier.Limit,
		Remaining: res[1],
		Reset:     windowReset(idx, tier),
	}, nil
}
