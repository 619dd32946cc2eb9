package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/CHIDI00/healix/internal/domain"
)

var (
	recordPersistGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "healix",
		Subsystem: "persistence",
		Name:      "last_record_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent health record persisted to Postgres, per category.",
	}, []string{"category"})
	contextResolvedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "healix",
		Subsystem: "context",
		Name:      "resolutions_total",
		Help:      "Health-context resolutions served, by kind (query or comprehensive).",
	}, []string{"kind"})
)

func init() {
	prometheus.MustRegister(recordPersistGauge, contextResolvedCounter)
}

// RecordHealthRecordPersisted updates the per-category persistence watermark gauge.
func RecordHealthRecordPersisted(category domain.Category, ts time.Time) {
	if ts.IsZero() {
		return
	}
	recordPersistGauge.WithLabelValues(string(category)).Set(float64(ts.Unix()))
}

// RecordContextResolution counts a served context resolution.
func RecordContextResolution(kind string) {
	contextResolvedCounter.WithLabelValues(kind).Inc()
}
