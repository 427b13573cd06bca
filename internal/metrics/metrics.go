package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	GalleryUploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_upload_batches_total",
			Help: "Gallery upload batches by product and result.",
		},
		[]string{"product", "result"},
	)

	GalleryFilesTranscoded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_files_transcoded_total",
			Help: "Images transcoded into gallery renditions.",
		},
	)

	GalleryTranscodeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gallery_transcode_duration_seconds",
			Help:    "Time spent transcoding one image.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	GalleryReorderFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_reorder_failed_items_total",
			Help: "Items whose sort key could not be written during a reorder.",
		},
	)

	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_login_attempts_total",
			Help: "Admin login attempts by result.",
		},
		[]string{"result"},
	)
)
