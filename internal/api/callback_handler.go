package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/trackstudio/trackstudio-api/internal/api/shared"
	"github.com/trackstudio/trackstudio-api/internal/events"
	"github.com/trackstudio/trackstudio-api/internal/generation"
)

// CallbackHandler receives the provider's completion webhooks and
// republishes them as completion events. The endpoint is public; a
// payload naming an unknown task is acknowledged and dropped downstream,
// so a forged callback cannot disturb queue state.
type CallbackHandler struct {
	emitter events.Emitter
	logger  *slog.Logger
}

// NewCallbackHandler creates a new CallbackHandler
func NewCallbackHandler(emitter events.Emitter, logger *slog.Logger) *CallbackHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &CallbackHandler{
		emitter: emitter,
		logger:  logger.With(slog.String("component", "callback_handler")),
	}
}

// HandleCallback handles POST /api/provider/callback requests
func (h *CallbackHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	var req CallbackRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if req.Data.TaskID == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Missing task_id")
		return
	}

	status, progress := mapCallback(req)

	h.logger.Info("provider callback received",
		slog.String("task_id", req.Data.TaskID),
		slog.String("callback_type", req.Data.CallbackType),
		slog.Int("provider_code", req.Code),
		slog.String("status", string(status)))

	event := events.NewCompletionEvent(req.Data.TaskID, status, progress)
	if status == generation.TaskStatusFailed {
		event.ErrorMessage = req.Msg
	}

	if err := h.emitter.Emit(r.Context(), event); err != nil {
		h.logger.Error("failed to emit callback event",
			slog.String("task_id", req.Data.TaskID),
			slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to process callback")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, CallbackResponse{Received: true})
}

// mapCallback folds the webhook's code and callbackType into a normalized
// status. A non-200 code is a failure regardless of the stated type.
func mapCallback(req CallbackRequest) (generation.TaskStatus, int) {
	callbackType := strings.ToLower(req.Data.CallbackType)

	switch {
	case req.Code != http.StatusOK || callbackType == "error":
		return generation.TaskStatusFailed, 0
	case callbackType == "complete":
		return generation.TaskStatusCompleted, 100
	case callbackType == "first":
		return generation.TaskStatusFirst, 50
	default:
		return generation.TaskStatusPending, 0
	}
}
