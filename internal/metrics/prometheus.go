package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the transcription bot
type Metrics struct {
	// Job pipeline metrics
	JobsQueued    prometheus.Counter
	JobsProcessed prometheus.Counter
	JobsFailed    prometheus.Counter
	QueueSize     prometheus.Gauge
	JobDuration   prometheus.Histogram

	// Stage metrics
	ConversionDuration    prometheus.Histogram
	TranscriptionDuration prometheus.Histogram

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics() *Metrics {
	return &Metrics{
		// Job pipeline metrics
		JobsQueued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tgstt_jobs_queued_total",
			Help: "Total number of media jobs accepted into the queue",
		}),
		JobsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tgstt_jobs_processed_total",
			Help: "Total number of jobs completed successfully",
		}),
		JobsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tgstt_jobs_failed_total",
			Help: "Total number of jobs that failed",
		}),
		QueueSize: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "tgstt_queue_size",
			Help: "Current number of jobs waiting in the queue",
		}),
		JobDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "tgstt_job_duration_seconds",
			Help:    "End to end job processing time in seconds",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10), // 0.5s to ~4m
		}),

		// Stage metrics
		ConversionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "tgstt_conversion_duration_seconds",
			Help:    "Time spent converting media with ffmpeg",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~51s
		}),
		TranscriptionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "tgstt_transcription_duration_seconds",
			Help:    "Time spent in the speech to text provider call",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10), // 250ms to ~2m
		}),

		// HTTP API metrics
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tgstt_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		}, []string{"endpoint", "status"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tgstt_http_request_duration_seconds",
			Help:    "HTTP request duration by endpoint",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}
}

// RecordJobQueued increments the queued counter.
func (m *Metrics) RecordJobQueued() {
	m.JobsQueued.Inc()
}

// SetQueueSize updates the queue depth gauge.
func (m *Metrics) SetQueueSize(n int) {
	m.QueueSize.Set(float64(n))
}

// RecordJobProcessed records a successful job and its duration.
func (m *Metrics) RecordJobProcessed(d time.Duration) {
	m.JobsProcessed.Inc()
	m.JobDuration.Observe(d.Seconds())
}

// RecordJobFailed records a failed job and its duration.
func (m *Metrics) RecordJobFailed(d time.Duration) {
	m.JobsFailed.Inc()
	m.JobDuration.Observe(d.Seconds())
}

// RecordHTTPRequest records one monitoring API request.
func (m *Metrics) RecordHTTPRequest(endpoint, status string, duration float64) {
	m.HTTPRequests.WithLabelValues(endpoint, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(endpoint).Observe(duration)
}

// RecordConversionDuration records one ffmpeg conversion.
func (m *Metrics) RecordConversionDuration(d time.Duration) {
	m.ConversionDuration.Observe(d.Seconds())
}

// RecordTranscriptionDuration records one provider call.
func (m *Metrics) RecordTranscriptionDuration(d time.Duration) {
	m.TranscriptionDuration.Observe(d.Seconds())
}
