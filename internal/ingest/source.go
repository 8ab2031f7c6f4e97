// Package ingest defines the ingestion-source collaborator consumed by the
// scrape task handler, together with the normalization of raw scraped rows
// into the applicant schema. The scraping/HTTP-fetch machinery itself lives
// behind the Source interface and is not part of this subsystem.
package ingest

import (
	"context"
	"fmt"
)

// RawRecord is one scraped row before normalization: an opaque mapping of
// source field names to values.
type RawRecord map[string]any

// SortKey returns the record's ordering cursor: date_added when present,
// otherwise url. Mirrors domain.Applicant.SortKey so raw rows and stored
// rows order identically.
func (r RawRecord) SortKey() string {
	if v := stringField(r, "date_added"); v != "" {
		return v
	}
	return stringField(r, "url")
}

// Source supplies scraped applicant rows newer than a cursor.
type Source interface {
	// Name identifies the source; it keys the source's watermark row.
	Name() string

	// FetchSince returns all records whose sort key is strictly greater
	// than since, ordered ascending by sort key. An empty since returns
	// everything the source has.
	FetchSince(ctx context.Context, since string) ([]RawRecord, error)
}

// stringField reads a string-valued field from a raw record, tolerating
// missing keys and non-string values.
func stringField(r RawRecord, key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
