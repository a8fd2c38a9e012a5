package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trackstudio/trackstudio-api/internal/domain"
	"github.com/trackstudio/trackstudio-api/internal/queue"
	"github.com/trackstudio/trackstudio-api/internal/scheduler"
	"github.com/trackstudio/trackstudio-api/internal/service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// noopDispatcher satisfies service.Dispatcher for handler tests; dispatch
// behavior itself is covered by the scheduler tests.
type noopDispatcher struct{}

func (noopDispatcher) OnStateChanged() {}

type handlerFixture struct {
	store   *queue.Store
	service *service.QueueService
	router  *chi.Mux
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	store := queue.NewStore(testLogger())
	jobs := queue.NewJobRegistry(testLogger())
	scope := scheduler.NewSchedulingScope("project_a")
	svc := service.NewQueueService(store, jobs, noopDispatcher{}, scope, nil, testLogger())

	handler := NewQueueHandler(svc)
	router := chi.NewRouter()
	router.Post("/api/queue", handler.Enqueue)
	router.Get("/api/queue", handler.List)
	router.Post("/api/queue/{id}/retry", handler.Retry)
	router.Get("/api/queue/config", handler.GetConfig)
	router.Put("/api/queue/config", handler.UpdateConfig)
	router.Get("/api/queue/active-project", handler.GetActiveProject)
	router.Put("/api/queue/active-project", handler.SetActiveProject)
	router.Get("/api/jobs", handler.ListJobs)
	router.Get("/api/history", handler.History)

	return &handlerFixture{store: store, service: svc, router: router}
}

func (f *handlerFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func validEnqueueRequest() EnqueueRequest {
	return EnqueueRequest{
		Params: domain.GenerationParams{
			CustomMode:   true,
			Instrumental: true,
			Model:        "V4_5",
			Title:        "Night Drive",
			Style:        "synthwave",
		},
		ProjectID: "project_a",
	}
}

func TestEnqueueEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("creates items", func(t *testing.T) {
		t.Parallel()
		f := newHandlerFixture(t)

		rec := f.do(t, http.MethodPost, "/api/queue", validEnqueueRequest())

		require.Equal(t, http.StatusCreated, rec.Code)
		var resp EnqueueResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Items, 1)
		assert.Equal(t, domain.QueueStatusPending, resp.Items[0].Status)
		assert.Equal(t, "project_a", resp.Items[0].ProjectID)
	})

	t.Run("fans out variations", func(t *testing.T) {
		t.Parallel()
		f := newHandlerFixture(t)

		req := validEnqueueRequest()
		req.Variations = 2
		rec := f.do(t, http.MethodPost, "/api/queue", req)

		require.Equal(t, http.StatusCreated, rec.Code)
		var resp EnqueueResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Items, 2)
		assert.Equal(t, 1, resp.Items[0].VariationIndex)
		assert.Equal(t, 2, resp.Items[1].VariationTotal)
	})

	t.Run("rejects malformed body", func(t *testing.T) {
		t.Parallel()
		f := newHandlerFixture(t)

		req := httptest.NewRequest(http.MethodPost, "/api/queue", bytes.NewBufferString("{not json"))
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects invalid params", func(t *testing.T) {
		t.Parallel()
		f := newHandlerFixture(t)

		req := validEnqueueRequest()
		req.Params.Title = ""
		rec := f.do(t, http.MethodPost, "/api/queue", req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "title")
	})

	t.Run("rejects out of range variations", func(t *testing.T) {
		t.Parallel()
		f := newHandlerFixture(t)

		req := validEnqueueRequest()
		req.Variations = 9
		rec := f.do(t, http.MethodPost, "/api/queue", req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("returns 402 behind a closed credit gate", func(t *testing.T) {
		t.Parallel()
		f := newHandlerFixture(t)

		item, err := domain.NewQueueItem(validEnqueueRequest().Params, "project_a")
		require.NoError(t, err)
		f.service.CreditHooks().OnInsufficient(*item)

		rec := f.do(t, http.MethodPost, "/api/queue", validEnqueueRequest())

		assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	})
}

func TestListEndpoint(t *testing.T) {
	t.Parallel()

	f := newHandlerFixture(t)

	rec := f.do(t, http.MethodGet, "/api/queue", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"items":[]}`, rec.Body.String())

	_, err := f.store.Enqueue(validEnqueueRequest().Params, "project_a")
	require.NoError(t, err)
	_, err = f.store.Enqueue(validEnqueueRequest().Params, "project_b")
	require.NoError(t, err)

	rec = f.do(t, http.MethodGet, "/api/queue?project_id=project_a", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp QueueListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "project_a", resp.Items[0].ProjectID)
}

func TestRetryEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("invalid id", func(t *testing.T) {
		t.Parallel()
		f := newHandlerFixture(t)

		rec := f.do(t, http.MethodPost, "/api/queue/not-a-uuid/retry", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown item", func(t *testing.T) {
		t.Parallel()
		f := newHandlerFixture(t)

		rec := f.do(t, http.MethodPost, fmt.Sprintf("/api/queue/%s/retry", uuid.New()), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("pending item conflicts", func(t *testing.T) {
		t.Parallel()
		f := newHandlerFixture(t)

		item, err := f.store.Enqueue(validEnqueueRequest().Params, "project_a")
		require.NoError(t, err)

		rec := f.do(t, http.MethodPost, fmt.Sprintf("/api/queue/%s/retry", item.ID), nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("failed item is re-queued", func(t *testing.T) {
		t.Parallel()
		f := newHandlerFixture(t)

		item, err := f.store.Enqueue(validEnqueueRequest().Params, "project_a")
		require.NoError(t, err)
		running := domain.QueueStatusRunning
		require.True(t, f.store.UpdateItem(item.ID, queue.ItemUpdate{Status: &running}))
		failed := domain.QueueStatusFailed
		require.True(t, f.store.UpdateItem(item.ID, queue.ItemUpdate{Status: &failed}))

		rec := f.do(t, http.MethodPost, fmt.Sprintf("/api/queue/%s/retry", item.ID), nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp domain.QueueItem
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, domain.QueueStatusPending, resp.Status)
	})
}

func TestConfigEndpoints(t *testing.T) {
	t.Parallel()

	f := newHandlerFixture(t)

	rec := f.do(t, http.MethodGet, "/api/queue/config", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var cfg domain.QueueConfig
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cfg))
	assert.Equal(t, domain.DefaultQueueConfig(), cfg)

	rec = f.do(t, http.MethodPut, "/api/queue/config", QueueConfigRequest{AutoRun: false, MaxConcurrency: 3})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, f.service.Config().MaxConcurrency)
	assert.False(t, f.service.Config().AutoRun)

	rec = f.do(t, http.MethodPut, "/api/queue/config", QueueConfigRequest{AutoRun: true, MaxConcurrency: 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestActiveProjectEndpoints(t *testing.T) {
	t.Parallel()

	f := newHandlerFixture(t)

	rec := f.do(t, http.MethodGet, "/api/queue/active-project", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"project_id":"project_a"}`, rec.Body.String())

	rec = f.do(t, http.MethodPut, "/api/queue/active-project", ActiveProjectRequest{ProjectID: "project_b"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "project_b", f.service.ActiveProject())

	rec = f.do(t, http.MethodPut, "/api/queue/active-project", ActiveProjectRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistoryEndpointWithoutBackend(t *testing.T) {
	t.Parallel()

	f := newHandlerFixture(t)

	rec := f.do(t, http.MethodGet, "/api/history", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
