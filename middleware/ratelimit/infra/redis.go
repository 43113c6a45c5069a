package infra

import (
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

var (
	ErrMissingStoreURL   = errors.New("ratelimit: counter store URL is not configured")
	ErrMissingStoreToken = errors.New("ratelimit: counter store token is not configured")
)

// NewRedisClient monta o cliente do store de contadores a partir da URL e do
// token de acesso. Falha na hora (boot) se qualquer um estiver ausente.
//
// Aceita redis:// ou rediss://; sem esquema, a URL é tratada como host:porta.
func NewRedisClient(storeURL, token string) (*redis.Client, error) {
	storeURL = strings.TrimSpace(storeURL)
	token = strings.TrimSpace(token)
	if storeURL == "" {
		return nil, ErrMissingStoreURL
	}
	if token == "" {
		return nil, ErrMissingStoreToken
	}

	var opts *redis.Options
	if strings.Contains(storeURL, "://") {
		parsed, err := redis.ParseURL(storeURL)
		if err != nil {
			return nil, fmt.Errorf("ratelimit: invalid counter store URL: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: storeURL}
	}
	opts.Password = token

	return redis.NewClient(opts), nil
}
