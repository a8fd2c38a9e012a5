package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/trackstudio/trackstudio-api/internal/api/shared"
	"github.com/trackstudio/trackstudio-api/internal/domain"
	"github.com/trackstudio/trackstudio-api/internal/service"
)

// QueueHandler handles queue-related HTTP requests
type QueueHandler struct {
	queueService *service.QueueService
	validator    *validator.Validate
}

// NewQueueHandler creates a new QueueHandler
func NewQueueHandler(queueService *service.QueueService) *QueueHandler {
	return &QueueHandler{
		queueService: queueService,
		validator:    validator.New(),
	}
}

// Enqueue handles POST /api/queue requests
func (h *QueueHandler) Enqueue(w http.ResponseWriter, r *http.Request) {
	var req EnqueueRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	items, err := h.queueService.Enqueue(r.Context(), req.Params, req.ProjectID, req.Variations)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, EnqueueResponse{Items: items})
}

// List handles GET /api/queue requests
func (h *QueueHandler) List(w http.ResponseWriter, r *http.Request) {
	projectID := r.URL.Query().Get("project_id")
	items := h.queueService.Items(projectID)
	if items == nil {
		items = []domain.QueueItem{}
	}

	shared.RespondWithJSON(w, r, http.StatusOK, QueueListResponse{Items: items})
}

// Retry handles POST /api/queue/{id}/retry requests
func (h *QueueHandler) Retry(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid item ID")
		return
	}

	item, err := h.queueService.Retry(r.Context(), id)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, item)
}

// GetConfig handles GET /api/queue/config requests
func (h *QueueHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, h.queueService.Config())
}

// UpdateConfig handles PUT /api/queue/config requests
func (h *QueueHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	var req QueueConfigRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	cfg := domain.QueueConfig{
		AutoRun:        req.AutoRun,
		MaxConcurrency: req.MaxConcurrency,
	}
	if err := h.queueService.SetConfig(r.Context(), cfg); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, cfg)
}

// GetActiveProject handles GET /api/queue/active-project requests
func (h *QueueHandler) GetActiveProject(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, ActiveProjectResponse{
		ProjectID: h.queueService.ActiveProject(),
	})
}

// SetActiveProject handles PUT /api/queue/active-project requests
func (h *QueueHandler) SetActiveProject(w http.ResponseWriter, r *http.Request) {
	var req ActiveProjectRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	if err := h.queueService.SetActiveProject(r.Context(), req.ProjectID); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, ActiveProjectResponse{ProjectID: req.ProjectID})
}

// ListJobs handles GET /api/jobs requests
func (h *QueueHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	projectID := r.URL.Query().Get("project_id")
	jobs := h.queueService.Jobs(projectID)
	if jobs == nil {
		jobs = []domain.Job{}
	}

	shared.RespondWithJSON(w, r, http.StatusOK, JobListResponse{Jobs: jobs})
}

// History handles GET /api/history requests
func (h *QueueHandler) History(w http.ResponseWriter, r *http.Request) {
	projectID := r.URL.Query().Get("project_id")
	if projectID == "" {
		projectID = domain.DefaultProjectID
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = parsed
	}

	jobs, err := h.queueService.History(r.Context(), projectID, limit)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	if jobs == nil {
		jobs = []domain.Job{}
	}

	shared.RespondWithJSON(w, r, http.StatusOK, JobListResponse{Jobs: jobs})
}
