package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// FileSource reads applicant rows from a JSON file on disk. It serves as the
// fallback data source when no live scraper is wired in: the file holds the
// full export and FetchSince filters it down to rows newer than the cursor.
type FileSource struct {
	name string
	path string
}

// NewFileSource creates a FileSource reading from path. The name keys the
// source's watermark row and must be stable across runs.
func NewFileSource(name, path string) *FileSource {
	return &FileSource{name: name, path: path}
}

// Name implements Source.
func (s *FileSource) Name() string {
	return s.name
}

// FetchSince implements Source. It loads the whole file, keeps rows whose
// sort key is strictly greater than since, and returns them ascending by
// sort key so the caller's watermark advances monotonically as it inserts.
func (s *FileSource) FetchSince(ctx context.Context, since string) ([]RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("reading source file %s: %w", s.path, err)
	}

	var rows []RawRecord
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parsing source file %s: %w", s.path, err)
	}

	fresh := make([]RawRecord, 0, len(rows))
	for _, row := range rows {
		if row.SortKey() > since {
			fresh = append(fresh, row)
		}
	}

	sort.SliceStable(fresh, func(i, j int) bool {
		return fresh[i].SortKey() < fresh[j].SortKey()
	})

	return fresh, nil
}
