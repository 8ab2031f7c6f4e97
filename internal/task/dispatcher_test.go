package task

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/admitlab/admit-api/internal/queue"
)

// fakeHandler serves a fixed kind and returns a canned error.
type fakeHandler struct {
	kind   queue.TaskKind
	err    error
	called int
}

func (h *fakeHandler) Kind() queue.TaskKind { return h.kind }

func (h *fakeHandler) Handle(ctx context.Context, tx *sql.Tx, msg queue.TaskMessage) error {
	h.called++
	return h.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func message(t *testing.T, payload map[string]any) queue.TaskMessage {
	t.Helper()
	return queue.NewTaskMessage(queue.KindScrapeNewData, payload)
}

func TestNewDispatcher(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	t.Run("rejects nil database", func(t *testing.T) {
		_, err := NewDispatcher(nil, testLogger())
		assert.ErrorIs(t, err, ErrNilDB)
	})

	t.Run("rejects nil logger", func(t *testing.T) {
		_, err := NewDispatcher(db, nil)
		assert.ErrorIs(t, err, ErrNilLogger)
	})

	t.Run("rejects a duplicate kind", func(t *testing.T) {
		_, err := NewDispatcher(db, testLogger(),
			&fakeHandler{kind: queue.KindScrapeNewData},
			&fakeHandler{kind: queue.KindScrapeNewData},
		)
		assert.ErrorIs(t, err, ErrDuplicateKind)
	})
}

func TestDispatcher_Dispatch(t *testing.T) {
	t.Run("commits when the handler succeeds", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectCommit()

		h := &fakeHandler{kind: queue.KindScrapeNewData}
		d, err := NewDispatcher(db, testLogger(), h)
		require.NoError(t, err)

		err = d.Dispatch(context.Background(), queue.NewTaskMessage(queue.KindScrapeNewData, nil))
		require.NoError(t, err)

		assert.Equal(t, 1, h.called)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when the handler fails", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectRollback()

		handlerErr := errors.New("source unreachable")
		h := &fakeHandler{kind: queue.KindScrapeNewData, err: handlerErr}
		d, err := NewDispatcher(db, testLogger(), h)
		require.NoError(t, err)

		err = d.Dispatch(context.Background(), queue.NewTaskMessage(queue.KindScrapeNewData, nil))
		assert.ErrorIs(t, err, handlerErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown kind errors without opening a transaction", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		d, err := NewDispatcher(db, testLogger())
		require.NoError(t, err)

		err = d.Dispatch(context.Background(), queue.NewTaskMessage("reticulate_splines", nil))
		assert.ErrorIs(t, err, ErrUnknownKind)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
