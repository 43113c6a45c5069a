package main

import (
	"context"
	"flag"
	"io"
	"net/http"
	"os"
	"time"

	"feedhub-gateway/internal/logging"
	"feedhub-gateway/middleware/webhook"

	"github.com/go-kit/log/level"
	"github.com/joho/godotenv"
)

// callback-sender dispara um callback de conclusão assinado, do jeito que o
// pipeline faz. Útil para testar o endpoint de callbacks localmente.
func main() {
	_ = godotenv.Load()

	var (
		target  = flag.String("url", "http://localhost:8080/api/callbacks/processing-complete", "Callback endpoint")
		secret  = flag.String("secret", os.Getenv("WEBHOOK_SECRET"), "Shared webhook secret (default: $WEBHOOK_SECRET)")
		header  = flag.String("header", webhook.DefaultSignatureHeader, "Signature header name")
		jobID   = flag.String("job.id", "", "Job identifier")
		status  = flag.String("job.status", "completed", "Final job status (completed|failed)")
		items   = flag.Int64("job.items", 0, "Number of processed items")
		errMsg  = flag.String("job.error", "", "Failure reason for failed jobs")
		timeout = flag.Duration("timeout", 10*time.Second, "Request timeout")
	)
	flag.Parse()

	logger := logging.New(os.Stderr, "callback-sender", "info")

	if *jobID == "" {
		_ = level.Error(logger).Log("msg", "job.id is required")
		os.Exit(2)
	}

	payload := map[string]any{
		"jobId":          *jobID,
		"status":         *status,
		"itemsProcessed": *items,
	}
	if *errMsg != "" {
		payload["error"] = *errMsg
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var (
		resp *http.Response
		err  error
	)
	if *header == webhook.DefaultSignatureHeader {
		resp, err = webhook.CreateSignedRequest(ctx, *target, payload, *secret, nil)
	} else {
		resp, err = webhook.NewSender(*secret, webhook.WithSignatureHeader(*header), webhook.WithSenderLogger(logger)).
			Send(ctx, *target, payload, nil)
	}
	if err != nil {
		_ = level.Error(logger).Log("msg", "callback failed", "err", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = level.Info(logger).Log("msg", "callback sent", "status", resp.StatusCode, "response", string(body))
	if resp.StatusCode >= 300 {
		os.Exit(1)
	}
}
