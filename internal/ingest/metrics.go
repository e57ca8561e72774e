package ingest

import "github.com/prometheus/client_golang/prometheus"

var (
	ingestJobs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "music_ingest_jobs_total",
			Help: "Total number of songs processed by the ingest pipeline",
		},
		[]string{"status"}, // success | duplicate | failure
	)
	ingestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "music_ingest_duration_seconds",
			Help:    "Time taken to process a single song",
			Buckets: prometheus.DefBuckets,
		},
	)
	duplicatesDetected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "music_duplicates_detected_total",
			Help: "Duplicate songs rejected, by detection reason",
		},
		[]string{"reason"},
	)
)

// RegisterMetrics must be called once per process before serving /metrics.
func RegisterMetrics() {
	prometheus.MustRegister(ingestJobs, ingestDuration, duplicatesDetected)
}
