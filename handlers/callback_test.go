package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"feedhub-gateway/internal/jobs"
	"feedhub-gateway/middleware/ratelimit"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessingComplete_UpdatesJob(t *testing.T) {
	store := jobs.NewMemoryStore()
	require.NoError(t, store.Put(context.Background(), jobs.Job{ID: "j-1", FeedID: "f-42", Status: jobs.StatusQueued}))
	api := &API{Jobs: store, Now: func() time.Time { return fixedTime }}

	w := httptest.NewRecorder()
	body := `{"jobId":"j-1","status":"completed","itemsProcessed":12}`
	api.ProcessingComplete(w, httptest.NewRequest(http.MethodPost, "/api/callbacks/processing-complete", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"received":true,"jobId":"j-1"}`, w.Body.String())

	job, err := store.Get(context.Background(), "j-1")
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusCompleted, job.Status)
	assert.Equal(t, int64(12), job.ItemsProcessed)
	assert.Equal(t, "f-42", job.FeedID)
	assert.Equal(t, fixedTime, job.UpdatedAt)
}

func TestProcessingComplete_UnknownJobIsRecorded(t *testing.T) {
	store := jobs.NewMemoryStore()
	api := &API{Jobs: store}

	w := httptest.NewRecorder()
	body := `{"jobId":"j-9","status":"failed","error":"feed returned 404"}`
	api.ProcessingComplete(w, httptest.NewRequest(http.MethodPost, "/api/callbacks/processing-complete", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code)

	job, err := store.Get(context.Background(), "j-9")
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusFailed, job.Status)
	assert.Equal(t, "feed returned 404", job.Error)
}

func TestProcessingComplete_Validation(t *testing.T) {
	for _, body := range []string{
		`not json`,
		`{"status":"completed"}`,
		`{"jobId":"j-1","status":"queued"}`,
		`{"jobId":"j-1","status":"running"}`,
	} {
		w := httptest.NewRecorder()
		(&API{}).ProcessingComplete(w, httptest.NewRequest(http.MethodPost, "/api/callbacks/processing-complete", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func jobRequest(id, user string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/api/jobs/"+id, nil)
	if user != "" {
		r = r.WithContext(ratelimit.WithUserID(r.Context(), user))
	}
	return mux.SetURLVars(r, map[string]string{"id": id})
}

func TestJobStatus(t *testing.T) {
	store := jobs.NewMemoryStore()
	require.NoError(t, store.Put(context.Background(), jobs.Job{ID: "j-1", FeedID: "f-42", Owner: "user-7", Status: jobs.StatusQueued}))
	require.NoError(t, store.Put(context.Background(), jobs.Job{ID: "j-anon", FeedID: "f-1", Status: jobs.StatusQueued}))
	api := &API{Jobs: store}

	w := httptest.NewRecorder()
	api.JobStatus(w, jobRequest("j-1", "user-7"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"queued"`)
	assert.NotContains(t, w.Body.String(), "user-7")

	w = httptest.NewRecorder()
	api.JobStatus(w, jobRequest("j-2", "user-7"))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	api.JobStatus(w, jobRequest("j-anon", ""))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestJobStatus_OtherUsersJobLooksMissing(t *testing.T) {
	store := jobs.NewMemoryStore()
	require.NoError(t, store.Put(context.Background(), jobs.Job{ID: "j-1", Owner: "user-7", Status: jobs.StatusCompleted}))
	api := &API{Jobs: store}

	for _, user := range []string{"user-8", ""} {
		w := httptest.NewRecorder()
		api.JobStatus(w, jobRequest("j-1", user))
		assert.Equal(t, http.StatusNotFound, w.Code, "user %q", user)
		assert.JSONEq(t, `{"error":"Job not found"}`, w.Body.String())
	}
}
