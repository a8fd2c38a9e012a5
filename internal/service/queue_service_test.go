package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trackstudio/trackstudio-api/internal/domain"
	"github.com/trackstudio/trackstudio-api/internal/generation"
	"github.com/trackstudio/trackstudio-api/internal/queue"
	"github.com/trackstudio/trackstudio-api/internal/scheduler"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testParams() domain.GenerationParams {
	return domain.GenerationParams{
		CustomMode:   true,
		Instrumental: true,
		Model:        "V4_5",
		Title:        "Night Drive",
		Style:        "synthwave",
	}
}

// countingDispatcher records how often the service pokes the scheduler.
type countingDispatcher struct {
	mu    sync.Mutex
	count int
}

func (d *countingDispatcher) OnStateChanged() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.count++
}

func (d *countingDispatcher) calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.count
}

type serviceFixture struct {
	store      *queue.Store
	jobs       *queue.JobRegistry
	dispatcher *countingDispatcher
	service    *QueueService
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	store := queue.NewStore(testLogger())
	jobs := queue.NewJobRegistry(testLogger())
	dispatcher := &countingDispatcher{}
	scope := scheduler.NewSchedulingScope("project_a")

	return &serviceFixture{
		store:      store,
		jobs:       jobs,
		dispatcher: dispatcher,
		service:    NewQueueService(store, jobs, dispatcher, scope, nil, testLogger()),
	}
}

func TestEnqueue(t *testing.T) {
	t.Parallel()

	t.Run("valid request is queued and dispatcher poked", func(t *testing.T) {
		t.Parallel()
		f := newServiceFixture(t)

		items, err := f.service.Enqueue(context.Background(), testParams(), "project_a", 1)

		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, domain.QueueStatusPending, items[0].Status)
		assert.Equal(t, 1, f.dispatcher.calls())
	})

	t.Run("variation fan-out", func(t *testing.T) {
		t.Parallel()
		f := newServiceFixture(t)

		items, err := f.service.Enqueue(context.Background(), testParams(), "project_a", 3)

		require.NoError(t, err)
		require.Len(t, items, 3)
		for i, item := range items {
			assert.Equal(t, i+1, item.VariationIndex)
			assert.Equal(t, 3, item.VariationTotal)
		}
		assert.Equal(t, 1, f.dispatcher.calls(), "one fan-out is one dispatch trigger")
	})

	t.Run("invalid params are rejected before queueing", func(t *testing.T) {
		t.Parallel()
		f := newServiceFixture(t)

		params := testParams()
		params.Title = ""
		_, err := f.service.Enqueue(context.Background(), params, "project_a", 1)

		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.Empty(t, f.store.List(""))
		assert.Zero(t, f.dispatcher.calls())
	})
}

func TestCreditGate(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	hooks := f.service.CreditHooks()

	item, err := domain.NewQueueItem(testParams(), "project_a")
	require.NoError(t, err)

	assert.False(t, f.service.CreditsExhausted())

	hooks.OnInsufficient(*item)
	assert.True(t, f.service.CreditsExhausted())

	_, err = f.service.Enqueue(context.Background(), testParams(), "project_a", 1)
	assert.ErrorIs(t, err, generation.ErrInsufficientCredits,
		"a closed gate should fail enqueue fast")
	assert.Empty(t, f.store.List(""), "nothing should be queued behind a closed gate")

	hooks.OnBalance(0)
	assert.True(t, f.service.CreditsExhausted(), "a zero balance should not reopen the gate")

	hooks.OnBalance(12.5)
	assert.False(t, f.service.CreditsExhausted())

	_, err = f.service.Enqueue(context.Background(), testParams(), "project_a", 1)
	assert.NoError(t, err)
}

func TestRetry(t *testing.T) {
	t.Parallel()

	t.Run("unknown item", func(t *testing.T) {
		t.Parallel()
		f := newServiceFixture(t)

		_, err := f.service.Retry(context.Background(), uuid.New())
		assert.ErrorIs(t, err, ErrItemNotFound)
		assert.Zero(t, f.dispatcher.calls())
	})

	t.Run("pending item is not retryable", func(t *testing.T) {
		t.Parallel()
		f := newServiceFixture(t)

		queued, err := f.store.Enqueue(testParams(), "project_a")
		require.NoError(t, err)

		_, err = f.service.Retry(context.Background(), queued.ID)
		assert.ErrorIs(t, err, ErrNotRetryable)
	})

	t.Run("failed item is re-queued", func(t *testing.T) {
		t.Parallel()
		f := newServiceFixture(t)

		queued, err := f.store.Enqueue(testParams(), "project_a")
		require.NoError(t, err)

		running := domain.QueueStatusRunning
		require.True(t, f.store.UpdateItem(queued.ID, queue.ItemUpdate{Status: &running}))
		failed := domain.QueueStatusFailed
		errMsg := "provider error"
		require.True(t, f.store.UpdateItem(queued.ID, queue.ItemUpdate{Status: &failed, Error: &errMsg}))

		item, err := f.service.Retry(context.Background(), queued.ID)

		require.NoError(t, err)
		assert.Equal(t, domain.QueueStatusPending, item.Status)
		assert.Empty(t, item.Error)
		assert.Equal(t, queued.Params, item.Params, "retry must reuse the original snapshot")
		assert.Equal(t, 1, f.dispatcher.calls())
	})
}

func TestSetConfig(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)

	err := f.service.SetConfig(context.Background(), domain.QueueConfig{AutoRun: true, MaxConcurrency: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidConcurrency)
	assert.Zero(t, f.dispatcher.calls())

	err = f.service.SetConfig(context.Background(), domain.QueueConfig{AutoRun: true, MaxConcurrency: 4})
	require.NoError(t, err)
	assert.Equal(t, 4, f.service.Config().MaxConcurrency)
	assert.Equal(t, 1, f.dispatcher.calls(), "config changes should wake the dispatcher")
}

func TestSetActiveProject(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)

	err := f.service.SetActiveProject(context.Background(), "")
	assert.Error(t, err)
	assert.Equal(t, "project_a", f.service.ActiveProject())
	assert.Zero(t, f.dispatcher.calls())

	err = f.service.SetActiveProject(context.Background(), "project_b")
	require.NoError(t, err)
	assert.Equal(t, "project_b", f.service.ActiveProject())
	assert.Equal(t, 1, f.dispatcher.calls())
}

func TestHistoryUnavailable(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)

	_, err := f.service.History(context.Background(), "project_a", 10)
	assert.ErrorIs(t, err, ErrHistoryUnavailable)
}
