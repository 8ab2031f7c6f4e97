package ingest

import (
	"strconv"
	"strings"

	"github.com/admitlab/admit-api/internal/domain"
)

// Normalize maps a raw scraped row onto the applicant schema. Several fields
// have carried different key names across scraper versions, so each accepts
// a list of candidates; unknown fields are dropped, string fields default to
// empty, and numeric fields that fail to parse come through as nil rather
// than failing the whole row.
func Normalize(r RawRecord) *domain.Applicant {
	return &domain.Applicant{
		Program:            firstString(r, "program_name", "program", "program_name_clean"),
		Comments:           stringField(r, "comments"),
		DateAdded:          stringField(r, "date_added"),
		URL:                firstString(r, "url", "overview_url", "entry_url", "page_url"),
		Status:             firstString(r, "applicant_status", "status"),
		Term:               firstString(r, "semester_year_start", "start_term", "term"),
		USOrInternational:  firstString(r, "international_or_american", "citizenship", "us_or_international"),
		GPA:                floatField(r, "gpa"),
		GRE:                firstFloat(r, "gre_score", "gre_general", "gre"),
		GREV:               firstFloat(r, "gre_v_score", "gre_verbal", "gre_v"),
		GREAW:              floatField(r, "gre_aw"),
		Degree:             firstString(r, "masters_or_phd", "degree_level", "degree"),
		StandardProgram:    firstString(r, "program_name_clean", "standard_program"),
		StandardUniversity: firstString(r, "university_clean", "standard_university"),
	}
}

// NormalizeAll maps a batch of raw rows, preserving order.
func NormalizeAll(rows []RawRecord) []*domain.Applicant {
	out := make([]*domain.Applicant, 0, len(rows))
	for _, r := range rows {
		out = append(out, Normalize(r))
	}
	return out
}

// firstString returns the first non-empty string value among the candidate
// keys.
func firstString(r RawRecord, keys ...string) string {
	for _, k := range keys {
		if v := stringField(r, k); v != "" {
			return v
		}
	}
	return ""
}

// firstFloat returns the first parseable numeric value among the candidate
// keys.
func firstFloat(r RawRecord, keys ...string) *float64 {
	for _, k := range keys {
		if f := floatField(r, k); f != nil {
			return f
		}
	}
	return nil
}

// floatField coerces a raw field to *float64. Numbers pass through, numeric
// strings are parsed, and anything else (missing, empty, malformed) yields
// nil.
func floatField(r RawRecord, key string) *float64 {
	v, ok := r[key]
	if !ok || v == nil {
		return nil
	}
	switch n := v.(type) {
	case float64:
		return &n
	case int:
		f := float64(n)
		return &f
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		return &f
	default:
		return nil
	}
}
