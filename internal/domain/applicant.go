package domain

import (
	"errors"
	"time"
)

// Common validation errors for Applicant
var (
	ErrEmptyApplicantURL = errors.New("applicant URL cannot be empty")
)

// Applicant represents one scraped admission result record. The URL of the
// source page uniquely identifies the record; re-ingesting an already-seen
// URL is a no-op, which is what makes redelivered scrape tasks safe.
type Applicant struct {
	Program            string    `json:"program"`
	Comments           string    `json:"comments"`
	DateAdded          string    `json:"date_added"`
	URL                string    `json:"url"`
	Status             string    `json:"status"`
	Term               string    `json:"term"`
	USOrInternational  string    `json:"us_or_international"`
	GPA                *float64  `json:"gpa"`
	GRE                *float64  `json:"gre"`
	GREV               *float64  `json:"gre_v"`
	GREAW              *float64  `json:"gre_aw"`
	Degree             string    `json:"degree"`
	StandardProgram    string    `json:"llm_generated_program"`
	StandardUniversity string    `json:"llm_generated_university"`
	CreatedAt          time.Time `json:"created_at"`
}

// Validate checks if the Applicant has valid data.
// Returns an error if any field fails validation.
func (a *Applicant) Validate() error {
	if a.URL == "" {
		return ErrEmptyApplicantURL
	}
	return nil
}

// SortKey returns the ordering cursor for this record: the date it was
// added to the source, falling back to the URL when the date is missing.
// Cursors compare lexicographically, so the watermark for a source is the
// maximum SortKey among its ingested records.
func (a *Applicant) SortKey() string {
	if a.DateAdded != "" {
		return a.DateAdded
	}
	return a.URL
}
