package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Webhook metrics
	webhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tts_webhook_events_total",
		Help: "Total number of webhook events received",
	}, []string{"status"}) // status: "accepted" or "rejected"

	pipelineRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tts_webhook_pipeline_runs_total",
		Help: "Total number of pipeline runs by outcome",
	}, []string{"outcome"}) // outcome: "done" or "aborted"

	pipelineDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tts_webhook_pipeline_duration_seconds",
		Help:    "End-to-end pipeline duration in seconds",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
	})

	// Synthesis metrics
	synthesisRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tts_webhook_synthesis_requests_total",
		Help: "Total number of synthesis requests",
	}, []string{"status"})

	synthesisLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tts_webhook_synthesis_latency_seconds",
		Help:    "Synthesis call latency in seconds",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	})

	// Delivery metrics
	deliveryRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tts_webhook_delivery_requests_total",
		Help: "Total number of voice delivery uploads",
	}, []string{"status"})

	deliveryLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tts_webhook_delivery_latency_seconds",
		Help:    "Voice delivery upload latency in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0},
	})

	// Error metrics
	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tts_webhook_errors_total",
		Help: "Total number of errors",
	}, []string{"type", "component"})

	// Audio metrics
	audioBytesEncoded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tts_webhook_audio_bytes_total",
		Help: "Total raw PCM bytes wrapped into WAV containers",
	})
)

// RecordWebhookEvent records an inbound webhook event
func RecordWebhookEvent(accepted bool) {
	status := "accepted"
	if !accepted {
		status = "rejected"
	}
	webhookEvents.WithLabelValues(status).Inc()
}

// Metrics tracks timing for a single pipeline run
type Metrics struct {
	startTime      time.Time
	synthesisStart time.Time
	deliveryStart  time.Time
}

// NewPipelineMetrics creates a metrics tracker for one pipeline run
func NewPipelineMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// RecordPipelineEnd records the pipeline outcome and duration
func (m *Metrics) RecordPipelineEnd(done bool) {
	outcome := "done"
	if !done {
		outcome = "aborted"
	}
	pipelineRuns.WithLabelValues(outcome).Inc()
	pipelineDuration.Observe(time.Since(m.startTime).Seconds())
}

// RecordSynthesisStart records the start of a synthesis call
func (m *Metrics) RecordSynthesisStart() {
	m.synthesisStart = time.Now()
}

// RecordSynthesisEnd records the end of a synthesis call
func (m *Metrics) RecordSynthesisEnd(success bool) {
	if !m.synthesisStart.IsZero() {
		synthesisLatency.Observe(time.Since(m.synthesisStart).Seconds())
	}

	status := "success"
	if !success {
		status = "error"
	}
	synthesisRequests.WithLabelValues(status).Inc()
}

// RecordDeliveryStart records the start of a voice upload
func (m *Metrics) RecordDeliveryStart() {
	m.deliveryStart = time.Now()
}

// RecordDeliveryEnd records the end of a voice upload
func (m *Metrics) RecordDeliveryEnd(success bool) {
	if !m.deliveryStart.IsZero() {
		deliveryLatency.Observe(time.Since(m.deliveryStart).Seconds())
	}

	status := "success"
	if !success {
		status = "error"
	}
	deliveryRequests.WithLabelValues(status).Inc()
}

// RecordError records an error
func (m *Metrics) RecordError(errorType, component string) {
	errorsTotal.WithLabelValues(errorType, component).Inc()
}

// RecordAudioBytes records raw PCM bytes handed to the encoder
func (m *Metrics) RecordAudioBytes(n int64) {
	audioBytesEncoded.Add(float64(n))
}
