package queue

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for consumed-task metrics.
const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
	outcomeInvalid = "invalid"
)

var (
	tasksPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "admit_tasks_published_total",
		Help: "Task messages published to the broker, by kind.",
	}, []string{"kind"})

	tasksConsumedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "admit_tasks_consumed_total",
		Help: "Task messages consumed from the broker, by kind and outcome.",
	}, []string{"kind", "outcome"})

	ingestWatermark = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "admit_ingest_watermark_seconds",
		Help: "Unix timestamp of the ingestion watermark, by source. Only set when the cursor parses as a date.",
	}, []string{"source"})
)

// cursor layouts seen in scraped data
var watermarkLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"January 02, 2006",
}

// ObserveWatermark exports the advanced cursor as a gauge when it parses as
// a timestamp. Cursors that fell back to a URL are skipped.
func ObserveWatermark(source, cursor string) {
	for _, layout := range watermarkLayouts {
		if t, err := time.Parse(layout, cursor); err == nil {
			ingestWatermark.WithLabelValues(source).Set(float64(t.Unix()))
			return
		}
	}
}
