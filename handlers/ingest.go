package handlers

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"feedhub-gateway/internal/jobs"
	"feedhub-gateway/middleware/ratelimit"
	"feedhub-gateway/middleware/respond"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"
)

// Forwarder entrega trabalho assinado ao pipeline (webhook.Sender).
type Forwarder interface {
	Send(ctx context.Context, url string, payload any, extra http.Header) (*http.Response, error)
}

type IngestRequest struct {
	FeedID  string `json:"feedId"`
	FeedURL string `json:"feedUrl"`
}

// IngestJob é o corpo assinado enviado ao pipeline.
type IngestJob struct {
	JobID       string    `json:"jobId"`
	FeedID      string    `json:"feedId"`
	FeedURL     string    `json:"feedUrl"`
	UserID      string    `json:"userId,omitempty"`
	CallbackURL string    `json:"callbackUrl,omitempty"`
	RequestedAt time.Time `json:"requestedAt"`
}

type IngestResponse struct {
	JobID  string      `json:"jobId"`
	Status jobs.Status `json:"status"`
}

// Ingest dispara o processamento de um feed no pipeline (tier mediumCost).
func (a *API) Ingest(w http.ResponseWriter, r *http.Request) {
	if a.Forwarder == nil || a.PipelineURL == "" {
		respond.Error(http.StatusServiceUnavailable, "Ingestion pipeline not configured").Write(w)
		return
	}

	var req IngestRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.FeedID = strings.TrimSpace(req.FeedID)
	if req.FeedID == "" || !validFeedURL(req.FeedURL) {
		respond.Error(http.StatusBadRequest, "feedId and a valid http(s) feedUrl are required").Write(w)
		return
	}

	job := IngestJob{
		JobID:       uuid.NewString(),
		FeedID:      req.FeedID,
		FeedURL:     req.FeedURL,
		UserID:      ratelimit.UserIDFromContext(r.Context()),
		CallbackURL: a.CallbackURL,
		RequestedAt: a.now().UTC(),
	}
	logger := log.With(a.logger(), "job_id", job.JobID, "feed_id", job.FeedID)

	// grava antes de despachar: o callback do pipeline pode chegar antes de Send voltar
	a.putJob(r.Context(), logger, jobs.Job{
		ID:        job.JobID,
		FeedID:    job.FeedID,
		FeedURL:   job.FeedURL,
		Owner:     job.UserID,
		Status:    jobs.StatusQueued,
		UpdatedAt: job.RequestedAt,
	})

	resp, err := a.Forwarder.Send(r.Context(), a.PipelineURL, job, nil)
	if err != nil {
		_ = level.Error(logger).Log("msg", "pipeline dispatch failed", "err", err)
		a.failQueuedJob(r.Context(), logger, job.JobID, "pipeline unavailable")
		respond.Error(http.StatusBadGateway, "Pipeline unavailable").Write(w)
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = level.Error(logger).Log("msg", "pipeline rejected job", "status", resp.StatusCode)
		a.failQueuedJob(r.Context(), logger, job.JobID, "pipeline rejected job")
		respond.Error(http.StatusBadGateway, "Pipeline rejected job").Write(w)
		return
	}

	_ = level.Info(logger).Log("msg", "job queued")
	respond.JSON(w, http.StatusAccepted, IngestResponse{JobID: job.JobID, Status: jobs.StatusQueued})
}

func (a *API) putJob(ctx context.Context, logger log.Logger, job jobs.Job) {
	if a.Jobs == nil {
		return
	}
	if err := a.Jobs.Put(ctx, job); err != nil {
		_ = level.Warn(logger).Log("msg", "job status not stored", "err", err)
	}
}

// failQueuedJob só mexe em jobs ainda queued: um status final vindo do
// callback nunca é sobrescrito.
func (a *API) failQueuedJob(ctx context.Context, logger log.Logger, id, reason string) {
	if a.Jobs == nil {
		return
	}
	job, err := a.Jobs.Get(ctx, id)
	if err != nil || job.Status != jobs.StatusQueued {
		return
	}
	job.Status = jobs.StatusFailed
	job.Error = reason
	job.UpdatedAt = a.now().UTC()
	a.putJob(ctx, logger, job)
}

func validFeedURL(raw string) bool {
	u, err := url.ParseRequestURI(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
