package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/trackstudio/trackstudio-api/internal/config"
	"github.com/trackstudio/trackstudio-api/internal/generation"
)

// ErrEmptyPrompt is returned when GenerateLyrics is called without a theme.
var ErrEmptyPrompt = errors.New("lyrics prompt cannot be empty")

// DefaultModelName is used when the configuration does not name a model.
const DefaultModelName = "gemini-2.0-flash"

// systemInstruction frames every lyrics request. The model is asked for
// plain lyrics with section markers, which is the shape the generation
// provider expects in the prompt field of a custom-mode request.
const systemInstruction = `You are a professional songwriter. Write complete song lyrics ` +
	`for the requested theme. Structure the song with section markers such as ` +
	`[Verse 1], [Chorus], [Bridge]. Return only the lyrics, no commentary.`

// modelsAPI is the slice of the genai client the generator uses. It exists
// so tests can substitute a fake without a network round trip.
type modelsAPI interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// LyricsGenerator produces song lyrics through the Gemini API.
type LyricsGenerator struct {
	logger *slog.Logger
	models modelsAPI
	model  string
}

var _ generation.LyricsGenerator = (*LyricsGenerator)(nil)

// NewLyricsGenerator creates a LyricsGenerator from the LLM configuration.
// It fails with generation.ErrInvalidConfig when the API key is missing or
// the Gemini client cannot be created.
func NewLyricsGenerator(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*LyricsGenerator, error) {
	if logger == nil {
		return nil, fmt.Errorf("%w: logger cannot be nil", generation.ErrInvalidConfig)
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}

	model := cfg.ModelName
	if model == "" {
		model = DefaultModelName
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", generation.ErrInvalidConfig, err)
	}

	return &LyricsGenerator{
		logger: logger.With(slog.String("component", "lyrics_generator")),
		models: client.Models,
		model:  model,
	}, nil
}

// GenerateLyrics asks the model for lyrics on the given theme. The style
// hint is optional and steers genre and mood.
func (g *LyricsGenerator) GenerateLyrics(ctx context.Context, prompt, style string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", ErrEmptyPrompt
	}

	request := buildPrompt(prompt, style)

	g.logger.DebugContext(ctx, "requesting lyrics",
		slog.String("model", g.model),
		slog.Int("prompt_length", len(request)))

	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(request), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
	})
	if err != nil {
		return "", fmt.Errorf("gemini API call failed: %w", err)
	}

	lyrics, err := extractLyrics(resp)
	if err != nil {
		return "", err
	}

	g.logger.DebugContext(ctx, "lyrics generated",
		slog.Int("lyrics_length", len(lyrics)))

	return lyrics, nil
}

// buildPrompt assembles the user-facing part of the request.
func buildPrompt(prompt, style string) string {
	var b strings.Builder
	b.WriteString("Write song lyrics about: ")
	b.WriteString(strings.TrimSpace(prompt))
	if s := strings.TrimSpace(style); s != "" {
		b.WriteString("\nMusical style: ")
		b.WriteString(s)
	}
	return b.String()
}

// extractLyrics pulls the text out of a Gemini response, distinguishing
// safety blocks from empty or malformed responses.
func extractLyrics(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: lyrics request was blocked", generation.ErrContentBlocked)
	}
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		b.WriteString(part.Text)
	}

	lyrics := strings.TrimSpace(b.String())
	if lyrics == "" {
		return "", fmt.Errorf("%w: response contained no text", generation.ErrInvalidResponse)
	}
	return lyrics, nil
}
