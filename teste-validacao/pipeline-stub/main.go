package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"time"

	"feedhub-gateway/internal/logging"
	"feedhub-gateway/middleware/respond"
	"feedhub-gateway/middleware/webhook"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/joho/godotenv"
)

// Pipeline falso para validação local: recebe os jobs assinados do gateway e,
// depois de um atraso, responde no callbackUrl com um callback assinado.
//
//	WEBHOOK_SECRET=dev-secret go run ./teste-validacao/pipeline-stub
//	PIPELINE_WEBHOOK_URL=http://localhost:8081/jobs go run ./cmd/gateway

type job struct {
	JobID       string `json:"jobId"`
	FeedID      string `json:"feedId"`
	FeedURL     string `json:"feedUrl"`
	CallbackURL string `json:"callbackUrl"`
}

func main() {
	_ = godotenv.Load()

	logger := logging.New(os.Stdout, "pipeline-stub", "info")
	secret := os.Getenv("WEBHOOK_SECRET")
	delay := 2 * time.Second
	if v, err := time.ParseDuration(os.Getenv("STUB_DELAY")); err == nil {
		delay = v
	}

	auth, err := webhook.NewAuthenticator(webhook.Config{Secret: secret, Logger: logger})
	if err != nil {
		_ = level.Error(logger).Log("msg", "webhook config error", "err", err)
		os.Exit(1)
	}
	sender := webhook.NewSender(secret, webhook.WithSenderLogger(logger))

	mux := http.NewServeMux()
	mux.Handle("/jobs", auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var j job
		if err := json.NewDecoder(r.Body).Decode(&j); err != nil || j.JobID == "" {
			respond.Error(http.StatusBadRequest, "Invalid job").Write(w)
			return
		}
		_ = level.Info(logger).Log("msg", "job received", "job_id", j.JobID, "feed_url", j.FeedURL)
		respond.JSON(w, http.StatusAccepted, map[string]string{"jobId": j.JobID})

		if j.CallbackURL != "" {
			go complete(logger, sender, j, delay)
		}
	})))

	addr := ":8081"
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		addr = v
	}
	_ = level.Info(logger).Log("msg", "pipeline stub listening", "addr", addr, "mode", auth.Mode())
	if err := http.ListenAndServe(addr, mux); err != nil {
		_ = level.Error(logger).Log("msg", "server error", "err", err)
		os.Exit(1)
	}
}

func complete(logger log.Logger, sender *webhook.Sender, j job, delay time.Duration) {
	time.Sleep(delay)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resp, err := sender.Send(ctx, j.CallbackURL, map[string]any{
		"jobId":          j.JobID,
		"status":         "completed",
		"itemsProcessed": 10,
	}, nil)
	if err != nil {
		_ = level.Error(logger).Log("msg", "callback failed", "job_id", j.JobID, "err", err)
		return
	}
	resp.Body.Close()
	_ = level.Info(logger).Log("msg", "callback delivered", "job_id", j.JobID, "status", resp.StatusCode)
}
