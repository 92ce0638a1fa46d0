package core

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UploadsTotal counts finished uploads by outcome ("completed" or a FailureKind).
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "user_uploads_total",
			Help: "Number of user import uploads by outcome.",
		},
		[]string{"outcome"})

	// UploadRowsInserted counts rows reported as inserted by the store.
	UploadRowsInserted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "user_upload_rows_inserted_total",
		Help: "Total number of user rows inserted by uploads.",
	})

	// UploadRowsSkipped counts records dropped for having no usable name.
	UploadRowsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "user_upload_rows_skipped_total",
		Help: "Total number of upload records skipped during normalization.",
	})

	// UploadBytes counts raw upload bytes read by the parser.
	UploadBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "user_upload_bytes_total",
		Help: "Total number of upload bytes read.",
	})

	// UploadDuration observes end-to-end upload processing time.
	UploadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "user_upload_duration_seconds",
			Help:    "Duration of user import uploads.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"format"})

	// UploadsActive tracks uploads currently holding a limiter slot.
	UploadsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "user_uploads_active",
		Help: "Number of uploads currently being processed.",
	})
)
