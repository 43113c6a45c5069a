package jobs

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore grava cada job num hash <prefix>:<id> com TTL.
type RedisStore struct {
	rdb    redis.Cmdable
	prefix string
	ttl    time.Duration
}

func NewRedisStore(rdb redis.Cmdable, prefix string, ttl time.Duration) *RedisStore {
	prefix = strings.TrimRight(prefix, ":")
	if prefix == "" {
		prefix = "feedhub:jobs"
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &RedisStore{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(id string) string { return s.prefix + ":" + id }

func (s *RedisStore) Put(ctx context.Context, job Job) error {
	k := s.key(job.ID)
	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, k, map[string]any{
		"feed_id":         job.FeedID,
		"feed_url":        job.FeedURL,
		"owner":           job.Owner,
		"status":          string(job.Status),
		"items_processed": job.ItemsProcessed,
		"error":           job.Error,
		"updated_at":      job.UpdatedAt.UnixMilli(),
	})
	pipe.Expire(ctx, k, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("jobs/redis: put %s: %w", job.ID, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (Job, error) {
	m, err := s.rdb.HGetAll(ctx, s.key(id)).Result()
	if err != nil {
		return Job{}, fmt.Errorf("jobs/redis: get %s: %w", id, err)
	}
	if len(m) == 0 {
		return Job{}, ErrNotFound
	}

	items, _ := strconv.ParseInt(m["items_processed"], 10, 64)
	updated, _ := strconv.ParseInt(m["updated_at"], 10, 64)
	return Job{
		ID:             id,
		FeedID:         m["feed_id"],
		FeedURL:        m["feed_url"],
		Owner:          m["owner"],
		Status:         Status(m["status"]),
		ItemsProcessed: items,
		Error:          m["error"],
		UpdatedAt:      time.UnixMilli(updated).UTC(),
	}, nil
}
