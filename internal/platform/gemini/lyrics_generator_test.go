package gemini

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/trackstudio/trackstudio-api/internal/config"
	"github.com/trackstudio/trackstudio-api/internal/generation"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeModels implements modelsAPI and records the last request.
type fakeModels struct {
	resp      *genai.GenerateContentResponse
	err       error
	lastModel string
	lastText  string
}

func (f *fakeModels) GenerateContent(
	_ context.Context,
	model string,
	contents []*genai.Content,
	_ *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	f.lastModel = model
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.lastText = contents[0].Parts[0].Text
	}
	return f.resp, f.err
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				Content: &genai.Content{
					Parts: []*genai.Part{{Text: text}},
				},
			},
		},
	}
}

func newTestGenerator(models modelsAPI) *LyricsGenerator {
	return &LyricsGenerator{
		logger: testLogger(),
		models: models,
		model:  DefaultModelName,
	}
}

func TestNewLyricsGeneratorValidation(t *testing.T) {
	t.Parallel()

	t.Run("nil logger", func(t *testing.T) {
		t.Parallel()
		_, err := NewLyricsGenerator(context.Background(), nil, config.LLMConfig{GeminiAPIKey: "key"})
		assert.ErrorIs(t, err, generation.ErrInvalidConfig)
	})

	t.Run("missing API key", func(t *testing.T) {
		t.Parallel()
		_, err := NewLyricsGenerator(context.Background(), testLogger(), config.LLMConfig{})
		assert.ErrorIs(t, err, generation.ErrInvalidConfig)
	})
}

func TestGenerateLyrics(t *testing.T) {
	t.Parallel()

	models := &fakeModels{resp: textResponse("[Verse 1]\nNeon rain on empty streets\n")}
	g := newTestGenerator(models)

	lyrics, err := g.GenerateLyrics(context.Background(), "a lonely night drive", "synthwave")
	require.NoError(t, err)
	assert.Equal(t, "[Verse 1]\nNeon rain on empty streets", lyrics,
		"lyrics should be trimmed of surrounding whitespace")

	assert.Equal(t, DefaultModelName, models.lastModel)
	assert.Contains(t, models.lastText, "a lonely night drive")
	assert.Contains(t, models.lastText, "synthwave")
}

func TestGenerateLyricsWithoutStyle(t *testing.T) {
	t.Parallel()

	models := &fakeModels{resp: textResponse("[Chorus]\nHold on\n")}
	g := newTestGenerator(models)

	_, err := g.GenerateLyrics(context.Background(), "perseverance", "")
	require.NoError(t, err)
	assert.NotContains(t, models.lastText, "Musical style",
		"style section should be omitted when no style is given")
}

func TestGenerateLyricsEmptyPrompt(t *testing.T) {
	t.Parallel()

	g := newTestGenerator(&fakeModels{})

	_, err := g.GenerateLyrics(context.Background(), "   ", "pop")
	assert.ErrorIs(t, err, ErrEmptyPrompt)
}

func TestGenerateLyricsAPIError(t *testing.T) {
	t.Parallel()

	apiErr := errors.New("backend unavailable")
	g := newTestGenerator(&fakeModels{err: apiErr})

	_, err := g.GenerateLyrics(context.Background(), "a storm at sea", "")
	assert.ErrorIs(t, err, apiErr)
}

func TestExtractLyrics(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		resp    *genai.GenerateContentResponse
		wantErr error
	}{
		{
			name:    "nil response",
			resp:    nil,
			wantErr: generation.ErrInvalidResponse,
		},
		{
			name:    "no candidates",
			resp:    &genai.GenerateContentResponse{},
			wantErr: generation.ErrInvalidResponse,
		},
		{
			name: "safety block",
			resp: &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}},
			},
			wantErr: generation.ErrContentBlocked,
		},
		{
			name: "empty content",
			resp: &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{{Content: &genai.Content{}}},
			},
			wantErr: generation.ErrInvalidResponse,
		},
		{
			name:    "whitespace only text",
			resp:    textResponse("   \n  "),
			wantErr: generation.ErrInvalidResponse,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := extractLyrics(tc.resp)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}
