package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ImagesGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "icg",
		Name:      "images_generated_total",
		Help:      "Total number of images generated",
	}, []string{"content_type"})

	VideosRendered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "icg",
		Name:      "videos_rendered_total",
		Help:      "Total number of videos rendered",
	}, []string{"video_type"})

	WorkflowFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "icg",
		Name:      "workflow_failures_total",
		Help:      "Total number of failed workflow invocations",
	}, []string{"workflow"})

	ContentExported = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "icg",
		Name:      "content_exported_total",
		Help:      "Total number of content items exported",
	})

	RenderDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "icg",
		Name:      "render_duration_seconds",
		Help:      "Duration of video renders by video type",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
	}, []string{"video_type"})

	SynthesisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "icg",
		Name:      "synthesis_duration_seconds",
		Help:      "Duration of image synthesis calls",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
	})

	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "icg",
		Name:      "queue_depth",
		Help:      "Number of pending render jobs in queue",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "icg",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "icg",
		Name:      "ws_connections",
		Help:      "Number of active WebSocket connections",
	})
)
