package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trackstudio/trackstudio-api/internal/events"
	"github.com/trackstudio/trackstudio-api/internal/generation"
)

// recordingHandler collects every event delivered through the emitter.
type recordingHandler struct {
	mu     sync.Mutex
	events []*events.CompletionEvent
}

func (h *recordingHandler) HandleEvent(_ context.Context, event *events.CompletionEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
	return nil
}

func (h *recordingHandler) snapshot() []*events.CompletionEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*events.CompletionEvent(nil), h.events...)
}

func newCallbackFixture() (*CallbackHandler, *recordingHandler) {
	recorder := &recordingHandler{}
	emitter := events.NewInMemoryEmitter(testLogger())
	emitter.RegisterHandler(recorder)
	return NewCallbackHandler(emitter, testLogger()), recorder
}

func postCallback(t *testing.T, handler *CallbackHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/provider/callback", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	handler.HandleCallback(rec, req)
	return rec
}

func TestCallbackComplete(t *testing.T) {
	t.Parallel()

	handler, recorder := newCallbackFixture()

	rec := postCallback(t, handler,
		`{"code":200,"msg":"All generated successfully.","data":{"callbackType":"complete","task_id":"task_1"}}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"received":true}`, rec.Body.String())

	got := recorder.snapshot()
	require.Len(t, got, 1)
	assert.Equal(t, "task_1", got[0].TaskID)
	assert.Equal(t, generation.TaskStatusCompleted, got[0].Status)
	assert.Equal(t, 100, got[0].Progress)
}

func TestCallbackError(t *testing.T) {
	t.Parallel()

	handler, recorder := newCallbackFixture()

	rec := postCallback(t, handler,
		`{"code":400,"msg":"generation failed: prohibited content","data":{"callbackType":"error","task_id":"task_1"}}`)

	require.Equal(t, http.StatusOK, rec.Code)

	got := recorder.snapshot()
	require.Len(t, got, 1)
	assert.Equal(t, generation.TaskStatusFailed, got[0].Status)
	assert.Equal(t, "generation failed: prohibited content", got[0].ErrorMessage)
}

func TestCallbackNonOKCodeIsFailure(t *testing.T) {
	t.Parallel()

	handler, recorder := newCallbackFixture()

	// A provider code other than 200 means failure even when the type
	// claims otherwise.
	rec := postCallback(t, handler,
		`{"code":500,"msg":"internal error","data":{"callbackType":"complete","task_id":"task_1"}}`)

	require.Equal(t, http.StatusOK, rec.Code)

	got := recorder.snapshot()
	require.Len(t, got, 1)
	assert.Equal(t, generation.TaskStatusFailed, got[0].Status)
}

func TestCallbackIntermediateTypes(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		callbackType string
		want         generation.TaskStatus
	}{
		{"text", generation.TaskStatusPending},
		{"first", generation.TaskStatusFirst},
		{"FIRST", generation.TaskStatusFirst},
		{"something_else", generation.TaskStatusPending},
	}

	for _, tc := range testCases {
		t.Run(tc.callbackType, func(t *testing.T) {
			t.Parallel()
			handler, recorder := newCallbackFixture()

			rec := postCallback(t, handler,
				`{"code":200,"msg":"ok","data":{"callbackType":"`+tc.callbackType+`","task_id":"task_1"}}`)

			require.Equal(t, http.StatusOK, rec.Code)
			got := recorder.snapshot()
			require.Len(t, got, 1)
			assert.Equal(t, tc.want, got[0].Status)
		})
	}
}

func TestCallbackRejectsBadPayloads(t *testing.T) {
	t.Parallel()

	t.Run("malformed JSON", func(t *testing.T) {
		t.Parallel()
		handler, recorder := newCallbackFixture()

		rec := postCallback(t, handler, `{not json`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, recorder.snapshot())
	})

	t.Run("missing task_id", func(t *testing.T) {
		t.Parallel()
		handler, recorder := newCallbackFixture()

		rec := postCallback(t, handler,
			`{"code":200,"msg":"ok","data":{"callbackType":"complete"}}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, recorder.snapshot())
	})
}
