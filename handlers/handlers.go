// Package handlers implementa os endpoints do gateway. Cada rota recebe o tier
// de rate limit adequado ao seu custo em NewRouter.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"feedhub-gateway/internal/jobs"
	"feedhub-gateway/internal/logging"
	"feedhub-gateway/middleware/respond"

	"github.com/go-kit/log"
)

const maxRequestBody = 1 << 20

// API agrupa as dependências dos handlers.
type API struct {
	Summarizer  Summarizer
	Forwarder   Forwarder
	PipelineURL string
	// CallbackURL vai em cada job para o pipeline saber onde responder.
	CallbackURL string
	Jobs        jobs.Store
	Logger      log.Logger
	Now         func() time.Time
}

func (a *API) logger() log.Logger { return logging.OrNop(a.Logger) }

func (a *API) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// decodeJSON lê no máximo maxRequestBody bytes. JSON inválido responde 400.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil {
		respond.Error(http.StatusBadRequest, "Invalid JSON payload").Write(w)
		return false
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(v); err != nil {
		respond.Error(http.StatusBadRequest, "Invalid JSON payload").Write(w)
		return false
	}
	return true
}

// Health responde sem passar por rate limit.
func Health(w http.ResponseWriter, _ *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ping é a sonda barata das rotas de feed (tier lowCost).
func (a *API) Ping(w http.ResponseWriter, _ *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   a.now().UTC().Format(time.RFC3339),
	})
}
