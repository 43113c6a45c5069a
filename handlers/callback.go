package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"feedhub-gateway/internal/jobs"
	"feedhub-gateway/middleware/ratelimit"
	"feedhub-gateway/middleware/respond"
	"feedhub-gateway/middleware/webhook"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/gorilla/mux"
)

// ProcessingCallback é o que o pipeline envia ao terminar um job.
type ProcessingCallback struct {
	JobID          string      `json:"jobId"`
	Status         jobs.Status `json:"status"`
	ItemsProcessed int64       `json:"itemsProcessed"`
	Error          string      `json:"error,omitempty"`
}

// ProcessingComplete roda depois da verificação de assinatura: o corpo já foi
// consumido e os bytes verificados estão no contexto.
func (a *API) ProcessingComplete(w http.ResponseWriter, r *http.Request) {
	raw, ok := webhook.RawBody(r.Context())
	if !ok {
		var err error
		raw, err = io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
		if err != nil {
			respond.Error(http.StatusBadRequest, "Invalid request body").Write(w)
			return
		}
	}

	var cb ProcessingCallback
	if err := json.Unmarshal(raw, &cb); err != nil {
		respond.Error(http.StatusBadRequest, "Invalid JSON payload").Write(w)
		return
	}
	cb.JobID = strings.TrimSpace(cb.JobID)
	if cb.JobID == "" || (cb.Status != jobs.StatusCompleted && cb.Status != jobs.StatusFailed) {
		respond.Error(http.StatusBadRequest, "jobId and a final status are required").Write(w)
		return
	}

	logger := log.With(a.logger(), "job_id", cb.JobID, "status", cb.Status)

	if a.Jobs != nil {
		job, err := a.Jobs.Get(r.Context(), cb.JobID)
		if err != nil && !errors.Is(err, jobs.ErrNotFound) {
			_ = level.Error(logger).Log("msg", "job lookup failed", "err", err)
			respond.Error(http.StatusInternalServerError, "Internal error").Write(w)
			return
		}
		job.ID = cb.JobID
		job.Status = cb.Status
		job.ItemsProcessed = cb.ItemsProcessed
		job.Error = cb.Error
		job.UpdatedAt = a.now().UTC()

		if err := a.Jobs.Put(r.Context(), job); err != nil {
			_ = level.Error(logger).Log("msg", "job status not stored", "err", err)
			respond.Error(http.StatusInternalServerError, "Internal error").Write(w)
			return
		}
	}

	_ = level.Info(logger).Log("msg", "processing callback received", "items", cb.ItemsProcessed)
	respond.JSON(w, http.StatusOK, map[string]any{"received": true, "jobId": cb.JobID})
}

// JobStatus devolve o estado de um job (tier lowCost). Job de outro usuário
// responde como inexistente.
func (a *API) JobStatus(w http.ResponseWriter, r *http.Request) {
	if a.Jobs == nil {
		respond.Error(http.StatusNotFound, "Job not found").Write(w)
		return
	}

	job, err := a.Jobs.Get(r.Context(), mux.Vars(r)["id"])
	switch {
	case errors.Is(err, jobs.ErrNotFound), err == nil && !ownedBy(job, ratelimit.UserIDFromContext(r.Context())):
		respond.Error(http.StatusNotFound, "Job not found").Write(w)
	case err != nil:
		_ = level.Error(a.logger()).Log("msg", "job lookup failed", "err", err)
		respond.Error(http.StatusInternalServerError, "Internal error").Write(w)
	default:
		respond.JSON(w, http.StatusOK, job)
	}
}

// ownedBy: jobs criados por um usuário só são visíveis para ele; jobs anônimos
// são visíveis para quem tem o id.
func ownedBy(job jobs.Job, user string) bool {
	return job.Owner == "" || job.Owner == user
}
