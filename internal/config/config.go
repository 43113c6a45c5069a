// Package config lê a configuração do gateway: valores padrão, um arquivo YAML
// opcional (CONFIG_FILE) e, por cima, as variáveis de ambiente (.env incluso).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

var (
	ErrUnknownBackend = errors.New("config: unknown rate limit backend")
	ErrMissingStore   = errors.New("config: RATE_LIMIT_STORE_URL and RATE_LIMIT_STORE_TOKEN are required")
)

type Config struct {
	ListenAddr string `yaml:"listen_addr"`
	LogLevel   string `yaml:"log_level"`

	// PublicBaseURL é onde o pipeline encontra o gateway para os callbacks.
	PublicBaseURL string `yaml:"public_base_url"`

	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	CORS      CORSConfig      `yaml:"cors"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	AI        AIConfig        `yaml:"ai"`

	// InternalToken libera chamadas internas do rate limit. Vazio desliga o bypass.
	InternalToken string `yaml:"internal_token"`
}

type RateLimitConfig struct {
	// Backend: redis (produção) ou memory (desenvolvimento, um processo só).
	Backend    string `yaml:"backend"`
	StoreURL   string `yaml:"store_url"`
	StoreToken string `yaml:"store_token"`

	StatsEnabled   bool          `yaml:"stats_enabled"`
	StatsPrefix    string        `yaml:"stats_prefix"`
	StatsTTL       time.Duration `yaml:"stats_ttl"`
	StatsBucket    string        `yaml:"stats_bucket"`
	StatsTrackKeys bool          `yaml:"stats_track_keys"`
}

type WebhookConfig struct {
	Secret        string `yaml:"secret"`
	Header        string `yaml:"header"`
	RequireSecret bool   `yaml:"require_secret"`
	MaxBodyBytes  int64  `yaml:"max_body_bytes"`
}

type CORSConfig struct {
	Origins          []string `yaml:"origins"`
	ExtensionPattern string   `yaml:"extension_pattern"`
}

type PipelineConfig struct {
	// URL do webhook do pipeline de automação que recebe os jobs de ingestão.
	URL         string  `yaml:"url"`
	PacingRPS   float64 `yaml:"pacing_rps"`
	PacingBurst int     `yaml:"pacing_burst"`
}

type AIConfig struct {
	APIKey         string        `yaml:"api_key"`
	BaseURL        string        `yaml:"base_url"`
	Model          string        `yaml:"model"`
	MaxConcurrent  int           `yaml:"max_concurrent"`
	AcquireTimeout time.Duration `yaml:"acquire_timeout"`
}

func defaults() Config {
	return Config{
		ListenAddr:    ":8080",
		LogLevel:      "info",
		PublicBaseURL: "http://localhost:8080",
		RateLimit: RateLimitConfig{
			Backend:     BackendRedis,
			StatsPrefix: "ratelimit:stats",
			StatsTTL:    48 * time.Hour,
			StatsBucket: "hour",
		},
		Webhook: WebhookConfig{
			Header:       "x-webhook-signature",
			MaxBodyBytes: 1 << 20,
		},
		CORS: CORSConfig{
			ExtensionPattern: `^chrome-extension://[a-z]{32}$`,
		},
		Pipeline: PipelineConfig{
			PacingRPS:   5,
			PacingBurst: 10,
		},
		AI: AIConfig{
			Model:          "gpt-4o-mini",
			MaxConcurrent:  4,
			AcquireTimeout: 2 * time.Second,
		},
	}
}

// Load monta a configuração: padrões, depois CONFIG_FILE, depois o ambiente.
// Um .env no diretório corrente é carregado sem sobrescrever o que já existe.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	}

	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.ListenAddr = getenv("LISTEN_ADDR", c.ListenAddr, asString)
	c.LogLevel = getenv("LOG_LEVEL", c.LogLevel, asString)
	c.PublicBaseURL = getenv("PUBLIC_BASE_URL", c.PublicBaseURL, asString)
	c.InternalToken = getenv("INTERNAL_API_TOKEN", c.InternalToken, asString)

	rl := &c.RateLimit
	rl.Backend = getenv("RATE_LIMIT_BACKEND", rl.Backend, asString)
	rl.StoreURL = getenv("RATE_LIMIT_STORE_URL", rl.StoreURL, asString)
	rl.StoreToken = getenv("RATE_LIMIT_STORE_TOKEN", rl.StoreToken, asString)
	rl.StatsEnabled = getenv("RATE_STATS_ENABLED", rl.StatsEnabled, asBool)
	rl.StatsPrefix = getenv("RATE_STATS_PREFIX", rl.StatsPrefix, asString)
	rl.StatsTTL = getenv("RATE_STATS_TTL", rl.StatsTTL, asDuration)
	rl.StatsBucket = getenv("RATE_STATS_BUCKET", rl.StatsBucket, asString)
	rl.StatsTrackKeys = getenv("RATE_STATS_TRACK_KEYS", rl.StatsTrackKeys, asBool)

	wh := &c.Webhook
	wh.Secret = getenv("WEBHOOK_SECRET", wh.Secret, asString)
	wh.Header = getenv("WEBHOOK_SIGNATURE_HEADER", wh.Header, asString)
	wh.RequireSecret = getenv("WEBHOOK_REQUIRE_SECRET", wh.RequireSecret, asBool)
	wh.MaxBodyBytes = getenv("WEBHOOK_MAX_BODY_BYTES", wh.MaxBodyBytes, asInt64)

	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		c.CORS.Origins = splitList(v)
	}
	c.CORS.ExtensionPattern = getenv("CORS_EXTENSION_PATTERN", c.CORS.ExtensionPattern, asString)

	c.Pipeline.URL = getenv("PIPELINE_WEBHOOK_URL", c.Pipeline.URL, asString)
	c.Pipeline.PacingRPS = getenv("PIPELINE_PACING_RPS", c.Pipeline.PacingRPS, asFloat)
	c.Pipeline.PacingBurst = getenv("PIPELINE_PACING_BURST", c.Pipeline.PacingBurst, asInt)

	c.AI.APIKey = getenv("OPENAI_API_KEY", c.AI.APIKey, asString)
	c.AI.BaseURL = getenv("OPENAI_BASE_URL", c.AI.BaseURL, asString)
	c.AI.Model = getenv("OPENAI_MODEL", c.AI.Model, asString)
	c.AI.MaxConcurrent = getenv("AI_MAX_CONCURRENT", c.AI.MaxConcurrent, asInt)
	c.AI.AcquireTimeout = getenv("AI_ACQUIRE_TIMEOUT", c.AI.AcquireTimeout, asDuration)
}

// Validate falha no boot para configurações que quebrariam por requisição.
func (c Config) Validate() error {
	switch c.RateLimit.Backend {
	case BackendRedis:
		if strings.TrimSpace(c.RateLimit.StoreURL) == "" || strings.TrimSpace(c.RateLimit.StoreToken) == "" {
			return ErrMissingStore
		}
	case BackendMemory:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.RateLimit.Backend)
	}

	if c.Webhook.RequireSecret && strings.TrimSpace(c.Webhook.Secret) == "" {
		return errors.New("config: WEBHOOK_SECRET is required when WEBHOOK_REQUIRE_SECRET=true")
	}
	if c.Webhook.MaxBodyBytes <= 0 {
		return errors.New("config: WEBHOOK_MAX_BODY_BYTES must be > 0")
	}
	if c.AI.MaxConcurrent < 0 {
		return errors.New("config: AI_MAX_CONCURRENT must be >= 0")
	}
	if c.Pipeline.PacingRPS < 0 {
		return errors.New("config: PIPELINE_PACING_RPS must be >= 0")
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
