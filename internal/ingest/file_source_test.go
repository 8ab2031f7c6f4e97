package ingest

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRows(t *testing.T, rows []RawRecord) string {
	t.Helper()

	data, err := json.Marshal(rows)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "applicant_data.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestFileSource_FetchSince(t *testing.T) {
	path := writeRows(t, []RawRecord{
		{"url": "https://example.com/3", "date_added": "2026-01-03"},
		{"url": "https://example.com/1", "date_added": "2026-01-01"},
		{"url": "https://example.com/2", "date_added": "2026-01-02"},
	})
	src := NewFileSource("applicant_data_json", path)

	t.Run("empty cursor returns everything ascending", func(t *testing.T) {
		rows, err := src.FetchSince(context.Background(), "")
		require.NoError(t, err)

		require.Len(t, rows, 3)
		assert.Equal(t, "2026-01-01", rows[0].SortKey())
		assert.Equal(t, "2026-01-02", rows[1].SortKey())
		assert.Equal(t, "2026-01-03", rows[2].SortKey())
	})

	t.Run("filters rows at or below the cursor", func(t *testing.T) {
		rows, err := src.FetchSince(context.Background(), "2026-01-02")
		require.NoError(t, err)

		require.Len(t, rows, 1)
		assert.Equal(t, "2026-01-03", rows[0].SortKey())
	})

	t.Run("cursor past all rows returns none", func(t *testing.T) {
		rows, err := src.FetchSince(context.Background(), "2026-12-31")
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("missing file errors", func(t *testing.T) {
		missing := NewFileSource("applicant_data_json", filepath.Join(t.TempDir(), "nope.json"))
		_, err := missing.FetchSince(context.Background(), "")
		assert.Error(t, err)
	})

	t.Run("cancelled context errors", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := src.FetchSince(ctx, "")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestRawRecord_SortKey(t *testing.T) {
	assert.Equal(t, "2026-01-01", RawRecord{"date_added": "2026-01-01", "url": "u"}.SortKey())
	assert.Equal(t, "u", RawRecord{"url": "u"}.SortKey())
	assert.Equal(t, "", RawRecord{}.SortKey())
}
