package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"feedhub-gateway/handlers"
	"feedhub-gateway/internal/config"
	"feedhub-gateway/internal/jobs"
	"feedhub-gateway/internal/logging"
	"feedhub-gateway/internal/metrics"
	"feedhub-gateway/middleware/cors"
	"feedhub-gateway/middleware/ratelimit"
	"feedhub-gateway/middleware/ratelimit/domain"
	"feedhub-gateway/middleware/ratelimit/infra"
	"feedhub-gateway/middleware/webhook"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fatal(logging.New(os.Stderr, "gateway", "info"), "config error", err)
	}

	logger := logging.New(os.Stdout, "gateway", cfg.LogLevel)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var (
		counters   domain.CounterStore
		statsStore domain.StatsStore
		jobStore   jobs.Store
	)
	switch cfg.RateLimit.Backend {
	case config.BackendRedis:
		rdb, err := infra.NewRedisClient(cfg.RateLimit.StoreURL, cfg.RateLimit.StoreToken)
		if err != nil {
			fatal(logger, "rate limit store error", err)
		}
		defer func() { _ = rdb.Close() }()

		// sem Redis o gateway segue de pé: o rate limit libera as requisições
		pingCtx, cancelPing := context.WithTimeout(ctx, 2*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = level.Warn(logger).Log("msg", "redis ping failed, rate limiting will fail open", "err", err)
		}
		cancelPing()

		counters = infra.NewRedisStore(rdb)
		jobStore = jobs.NewRedisStore(rdb, "feedhub:jobs", 7*24*time.Hour)
		if cfg.RateLimit.StatsEnabled {
			statsStore = redisStats(rdb, cfg.RateLimit)
		}

	case config.BackendMemory:
		store := infra.NewStore()
		store.StartJanitor(ctx)
		counters = store
		jobStore = jobs.NewMemoryStore()
		if cfg.RateLimit.StatsEnabled {
			statsStore = infra.NewMemoryStatsStore(infra.WithTrackKeys(cfg.RateLimit.StatsTrackKeys))
		}
		_ = level.Warn(logger).Log("msg", "using in-memory rate limit store, limits are per process")
	}

	limiter := ratelimit.NewLimiter(ratelimit.Options{
		Store:    counters,
		Stats:    statsStore,
		Logger:   log.With(logger, "module", "ratelimit"),
		Observer: m,
	})

	auth, err := webhook.NewAuthenticator(webhook.Config{
		Secret:        cfg.Webhook.Secret,
		Header:        cfg.Webhook.Header,
		RequireSecret: cfg.Webhook.RequireSecret,
		MaxBodyBytes:  cfg.Webhook.MaxBodyBytes,
		Logger:        log.With(logger, "module", "webhook"),
		Observer:      m,
	})
	if err != nil {
		fatal(logger, "webhook config error", err)
	}

	sender := webhook.NewSender(cfg.Webhook.Secret,
		webhook.WithSignatureHeader(cfg.Webhook.Header),
		webhook.WithPacing(cfg.Pipeline.PacingRPS, cfg.Pipeline.PacingBurst),
		webhook.WithSenderLogger(log.With(logger, "module", "sender")),
		webhook.WithDeliveryObserver(m),
	)

	var summarizer handlers.Summarizer
	if cfg.AI.APIKey != "" {
		summarizer = handlers.NewOpenAISummarizer(handlers.NewOpenAIClient(cfg.AI.APIKey, cfg.AI.BaseURL), cfg.AI.Model)
	} else {
		_ = level.Warn(logger).Log("msg", "OPENAI_API_KEY not configured - summarize endpoint disabled")
	}

	var aiPool domain.SlotPool
	if cfg.AI.MaxConcurrent > 0 {
		aiPool = infra.NewChanPool(cfg.AI.MaxConcurrent)
	}

	corsMW, err := cors.Middleware(cors.Policy{
		Origins:          cfg.CORS.Origins,
		ExtensionPattern: cfg.CORS.ExtensionPattern,
	})
	if err != nil {
		fatal(logger, "cors config error", err)
	}

	api := &handlers.API{
		Summarizer:  summarizer,
		Forwarder:   sender,
		PipelineURL: cfg.Pipeline.URL,
		CallbackURL: cfg.PublicBaseURL + "/api/callbacks/processing-complete",
		Jobs:        jobStore,
		Logger:      log.With(logger, "module", "handlers"),
	}

	h := handlers.NewRouter(api, handlers.RouterOptions{
		Limiter:          limiter,
		Auth:             auth,
		AIPool:           aiPool,
		AIAcquireTimeout: cfg.AI.AcquireTimeout,
		InternalToken:    cfg.InternalToken,
		CORS:             corsMW,
		Metrics:          promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	_ = level.Info(logger).Log(
		"msg", "gateway listening",
		"addr", cfg.ListenAddr,
		"backend", cfg.RateLimit.Backend,
		"webhook_mode", auth.Mode(),
		"stats", cfg.RateLimit.StatsEnabled,
		"ai_max_concurrent", cfg.AI.MaxConcurrent,
		"pipeline", cfg.Pipeline.URL != "",
	)
	for _, t := range domain.DefaultTiers() {
		_ = level.Debug(logger).Log("msg", "rate limit tier", "tier", t.Name, "limit", t.Limit, "window", t.Window)
	}

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fatal(logger, "server error", err)
	}
}

func redisStats(rdb *redis.Client, rl config.RateLimitConfig) domain.StatsStore {
	return infra.NewRedisStatsStore(
		rdb,
		infra.WithStatsPrefix(rl.StatsPrefix),
		infra.WithStatsTTL(rl.StatsTTL),
		infra.WithStatsBucket(rl.StatsBucket),
		infra.WithStatsTrackKeys(rl.StatsTrackKeys),
	)
}

func fatal(logger log.Logger, msg string, err error) {
	_ = level.Error(logger).Log("msg", msg, "err", err)
	os.Exit(1)
}
