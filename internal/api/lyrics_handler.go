package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/trackstudio/trackstudio-api/internal/api/shared"
	"github.com/trackstudio/trackstudio-api/internal/generation"
)

// LyricsHandler handles lyrics generation HTTP requests
type LyricsHandler struct {
	generator generation.LyricsGenerator
	validator *validator.Validate
}

// NewLyricsHandler creates a new LyricsHandler. The generator may be nil
// when no LLM is configured; requests then get 503.
func NewLyricsHandler(generator generation.LyricsGenerator) *LyricsHandler {
	return &LyricsHandler{
		generator: generator,
		validator: validator.New(),
	}
}

// Generate handles POST /api/lyrics requests
func (h *LyricsHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if h.generator == nil {
		shared.RespondWithError(w, r, http.StatusServiceUnavailable, "Lyrics generation is not configured")
		return
	}

	var req LyricsRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	lyrics, err := h.generator.GenerateLyrics(r.Context(), req.Prompt, req.Style)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, LyricsResponse{Lyrics: lyrics})
}
