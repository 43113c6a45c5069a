package infra

import (
	"context"
	"fmt"
	"strings"
	"time"

	"feedhub-gateway/middleware/ratelimit/domain"

	"github.com/redis/go-redis/v9"
)

// RedisStatsStore acumula decisões por tier em hashes do Redis.
//
// Layout das chaves (prefixo padrão "ratelimit:stats"):
//
//	<prefix>:total                      allowed / denied
//	<prefix>:tier:<tier>                allowed / denied
//	<prefix>:hour:<tier>:<yyyymmddhh>   allowed / denied (expira)
//	<prefix>:route                      "<METHOD> <path>:<field>"
//	<prefix>:key:<tier>:<key>           allowed / denied (só com trackKeys)
type RedisStatsStore struct {
	rdb redis.Cmdable

	prefix string
	// ttl aplica apenas em chaves de série temporal / por key.
	// total e tier são cumulativos e não expiram.
	ttl time.Duration

	bucket string // "hour" (padrão) ou "none"

	trackKeys bool
}

type RedisStatsOption func(*RedisStatsStore)

func WithStatsPrefix(prefix string) RedisStatsOption {
	return func(s *RedisStatsStore) {
		s.prefix = strings.Trim(prefix, ":")
	}
}

func WithStatsTTL(d time.Duration) RedisStatsOption {
	return func(s *RedisStatsStore) { s.ttl = d }
}

func WithStatsBucket(bucket string) RedisStatsOption {
	return func(s *RedisStatsStore) { s.bucket = strings.ToLower(strings.TrimSpace(bucket)) }
}

func WithStatsTrackKeys(track bool) RedisStatsOption {
	return func(s *RedisStatsStore) { s.trackKeys = track }
}

func NewRedisStatsStore(rdb redis.Cmdable, opts ...RedisStatsOption) *RedisStatsStore {
	s := &RedisStatsStore{
		rdb:    rdb,
		prefix: "ratelimit:stats",
		ttl:    48 * time.Hour,
		bucket: "hour",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStatsStore) Record(ctx context.Context, ev domain.StatsEvent) error {
	if s == nil || s.rdb == nil {
		return nil
	}

	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}

	field := "denied"
	if ev.Allowed {
		field = "allowed"
	}
	tier := strings.TrimSpace(ev.Tier)
	if tier == "" {
		tier = "none"
	}

	pipe := s.rdb.Pipeline()
	pipe.HIncrBy(ctx, s.prefix+":total", field, 1)
	pipe.HIncrBy(ctx, s.prefix+":tier:"+tier, field, 1)

	if s.bucket == "hour" {
		bucketKey := fmt.Sprintf("%s:hour:%s:%s", s.prefix, tier, at.UTC().Format("2006010215"))
		pipe.HIncrBy(ctx, bucketKey, field, 1)
		if s.ttl > 0 {
			pipe.Expire(ctx, bucketKey, s.ttl)
		}
	}

	routeField := strings.TrimSpace(strings.TrimSpace(ev.Method) + " " + strings.TrimSpace(ev.Path))
	if routeField != "" {
		pipe.HIncrBy(ctx, s.prefix+":route", routeField+":"+field, 1)
	}

	if s.trackKeys {
		k := strings.TrimSpace(ev.Key)
		if k != "" {
			keyKey := s.prefix + ":key:" + tier + ":" + k
			pipe.HIncrBy(ctx, keyKey, field, 1)
			if s.ttl > 0 {
				pipe.Expire(ctx, keyKey, s.ttl)
			}
		}
	}

	_, err := pipe.Exec(ctx)
	return err
}
