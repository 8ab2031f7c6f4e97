package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Run("maps a fully populated record", func(t *testing.T) {
		a := Normalize(RawRecord{
			"program_name":              "Computer Science",
			"comments":                  "strong profile",
			"date_added":                "2026-01-15",
			"url":                       "https://example.com/result/1",
			"applicant_status":          "Accepted",
			"semester_year_start":       "Fall 2026",
			"international_or_american": "International",
			"gpa":                       3.9,
			"gre_score":                 330.0,
			"gre_v_score":               165.0,
			"gre_aw":                    4.5,
			"masters_or_phd":            "PhD",
			"program_name_clean":        "Computer Science",
			"university_clean":          "MIT",
		})

		assert.Equal(t, "Computer Science", a.Program)
		assert.Equal(t, "https://example.com/result/1", a.URL)
		assert.Equal(t, "Accepted", a.Status)
		assert.Equal(t, "Fall 2026", a.Term)
		assert.Equal(t, "International", a.USOrInternational)
		require.NotNil(t, a.GPA)
		assert.Equal(t, 3.9, *a.GPA)
		require.NotNil(t, a.GRE)
		assert.Equal(t, 330.0, *a.GRE)
		assert.Equal(t, "PhD", a.Degree)
		assert.Equal(t, "MIT", a.StandardUniversity)
	})

	t.Run("falls back across alternate key names", func(t *testing.T) {
		a := Normalize(RawRecord{
			"program":      "History",
			"page_url":     "https://example.com/result/2",
			"status":       "Rejected",
			"start_term":   "Spring 2026",
			"citizenship":  "American",
			"gre_general":  "320",
			"degree_level": "MS",
		})

		assert.Equal(t, "History", a.Program)
		assert.Equal(t, "https://example.com/result/2", a.URL)
		assert.Equal(t, "Rejected", a.Status)
		assert.Equal(t, "Spring 2026", a.Term)
		assert.Equal(t, "American", a.USOrInternational)
		require.NotNil(t, a.GRE)
		assert.Equal(t, 320.0, *a.GRE)
		assert.Equal(t, "MS", a.Degree)
	})

	t.Run("tolerates malformed numerics", func(t *testing.T) {
		a := Normalize(RawRecord{
			"url":    "https://example.com/result/3",
			"gpa":    "n/a",
			"gre":    "",
			"gre_v":  true,
			"gre_aw": nil,
		})

		assert.Nil(t, a.GPA)
		assert.Nil(t, a.GRE)
		assert.Nil(t, a.GREV)
		assert.Nil(t, a.GREAW)
	})

	t.Run("parses numeric strings", func(t *testing.T) {
		a := Normalize(RawRecord{
			"url": "https://example.com/result/4",
			"gpa": " 3.75 ",
		})

		require.NotNil(t, a.GPA)
		assert.Equal(t, 3.75, *a.GPA)
	})
}

func TestNormalizeAll(t *testing.T) {
	rows := []RawRecord{
		{"url": "https://example.com/a"},
		{"url": "https://example.com/b"},
	}

	out := NormalizeAll(rows)

	require.Len(t, out, 2)
	assert.Equal(t, "https://example.com/a", out[0].URL)
	assert.Equal(t, "https://example.com/b", out[1].URL)
}
