package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/admitlab/admit-api/internal/lock"
	"github.com/admitlab/admit-api/internal/queue"
)

// fakeEnqueuer records enqueued messages and can fail on demand.
type fakeEnqueuer struct {
	err  error
	seen []queue.TaskMessage
}

func (f *fakeEnqueuer) Enqueue(ctx context.Context, msg queue.TaskMessage) error {
	if f.err != nil {
		return f.err
	}
	f.seen = append(f.seen, msg)
	return nil
}

func newLock(t *testing.T) *lock.PullLock {
	t.Helper()
	return lock.New(filepath.Join(t.TempDir(), "pull.lock"), 0)
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), out))
}

func TestTasksHandler_PullData(t *testing.T) {
	t.Run("enqueues a scrape task and takes the lock", func(t *testing.T) {
		enq := &fakeEnqueuer{}
		l := newLock(t)
		h := NewTasksHandler(enq, l, nil)

		rr := httptest.NewRecorder()
		h.PullData(rr, httptest.NewRequest(http.MethodPost, "/api/pull-data", nil))

		assert.Equal(t, http.StatusAccepted, rr.Code)

		var resp EnqueueResponse
		decode(t, rr, &resp)
		assert.True(t, resp.OK)
		assert.True(t, resp.Queued)
		assert.Equal(t, "scrape_new_data", resp.Kind)

		require.Len(t, enq.seen, 1)
		assert.Equal(t, queue.KindScrapeNewData, enq.seen[0].Kind)
		assert.True(t, l.IsRunning(), "lock held until the worker finishes")
	})

	t.Run("returns busy while a run is active", func(t *testing.T) {
		enq := &fakeEnqueuer{}
		l := newLock(t)
		acquired, err := l.TryStart()
		require.NoError(t, err)
		require.True(t, acquired)

		h := NewTasksHandler(enq, l, nil)

		rr := httptest.NewRecorder()
		h.PullData(rr, httptest.NewRequest(http.MethodPost, "/api/pull-data", nil))

		assert.Equal(t, http.StatusConflict, rr.Code)

		var resp BusyResponse
		decode(t, rr, &resp)
		assert.True(t, resp.Busy)
		assert.Empty(t, enq.seen, "nothing published while busy")
	})

	t.Run("releases the lock when the publish fails", func(t *testing.T) {
		enq := &fakeEnqueuer{err: queue.ErrPublishFailed}
		l := newLock(t)
		h := NewTasksHandler(enq, l, nil)

		rr := httptest.NewRecorder()
		h.PullData(rr, httptest.NewRequest(http.MethodPost, "/api/pull-data", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		assert.False(t, l.IsRunning(), "failed publish must not leave the system busy")
	})
}

func TestTasksHandler_UpdateAnalysis(t *testing.T) {
	t.Run("enqueues a recompute task", func(t *testing.T) {
		enq := &fakeEnqueuer{}
		h := NewTasksHandler(enq, newLock(t), nil)

		rr := httptest.NewRecorder()
		h.UpdateAnalysis(rr, httptest.NewRequest(http.MethodPost, "/api/update-analysis", nil))

		assert.Equal(t, http.StatusAccepted, rr.Code)

		var resp EnqueueResponse
		decode(t, rr, &resp)
		assert.Equal(t, "recompute_analytics", resp.Kind)

		require.Len(t, enq.seen, 1)
		assert.Equal(t, queue.KindRecomputeAnalytics, enq.seen[0].Kind)
	})

	t.Run("returns busy during a pull without taking the lock", func(t *testing.T) {
		enq := &fakeEnqueuer{}
		l := newLock(t)
		acquired, err := l.TryStart()
		require.NoError(t, err)
		require.True(t, acquired)

		h := NewTasksHandler(enq, l, nil)

		rr := httptest.NewRecorder()
		h.UpdateAnalysis(rr, httptest.NewRequest(http.MethodPost, "/api/update-analysis", nil))

		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.Empty(t, enq.seen)
		assert.True(t, l.IsRunning(), "gating must not release someone else's lock")
	})

	t.Run("returns unavailable when the broker is down", func(t *testing.T) {
		enq := &fakeEnqueuer{err: queue.ErrPublishFailed}
		h := NewTasksHandler(enq, newLock(t), nil)

		rr := httptest.NewRecorder()
		h.UpdateAnalysis(rr, httptest.NewRequest(http.MethodPost, "/api/update-analysis", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})
}
