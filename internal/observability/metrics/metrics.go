// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "kisan_voice"

// Metrics holds all Prometheus metrics for the client.
type Metrics struct {
	// Recording session metrics
	SessionsTotal     prometheus.Counter
	SessionsActive    prometheus.Gauge
	SessionsCompleted *prometheus.CounterVec
	SessionsRejected  prometheus.Counter
	SessionDuration   prometheus.Histogram
	PermissionDenied  prometheus.Counter
	FallbacksTotal    *prometheus.CounterVec

	// Audio metrics
	AudioBytesCaptured  prometheus.Counter
	AudioChunksCaptured prometheus.Counter

	// STT metrics
	STTLatency *prometheus.HistogramVec
	STTErrors  *prometheus.CounterVec

	// gRPC client metrics
	GRPCCalls   *prometheus.CounterVec
	GRPCLatency *prometheus.HistogramVec

	// Resolver metrics
	ResolverHits       *prometheus.CounterVec
	TranslationReloads *prometheus.CounterVec

	// Speech dispatch metrics
	SpeechDispatches *prometheus.CounterVec
	SpeechFailures   *prometheus.CounterVec

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec

	// Archive metrics
	ArchiveUploads *prometheus.CounterVec

	// Backpressure metrics
	RecordingLimitExceeded *prometheus.CounterVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		SessionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Total number of recording sessions started",
		}),
		SessionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of recording sessions currently holding the microphone",
		}),
		SessionsCompleted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_completed_total",
			Help:      "Total number of recording sessions closed, by outcome",
		}, []string{"outcome"}),
		SessionsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_rejected_total",
			Help:      "Start requests rejected because another session held the microphone",
		}),
		SessionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_duration_seconds",
			Help:      "Time from start request to result delivery",
			Buckets:   []float64{0.5, 1, 2, 3, 5, 7.5, 10, 15, 30},
		}),
		PermissionDenied: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "permission_denied_total",
			Help:      "Total number of microphone acquisitions refused",
		}),
		FallbacksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallbacks_total",
			Help:      "Total number of fallback strings delivered instead of a transcription",
		}, []string{"reason"}),

		AudioBytesCaptured: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_bytes_captured_total",
			Help:      "Total audio bytes captured from input devices",
		}),
		AudioChunksCaptured: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_chunks_captured_total",
			Help:      "Total audio chunks captured from input devices",
		}),

		STTLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stt_latency_seconds",
			Help:      "Speech-to-text request latency in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"provider"}),
		STTErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stt_errors_total",
			Help:      "Total number of STT errors",
		}, []string{"provider", "error_type"}),

		GRPCCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grpc_client_calls_total",
			Help:      "Outbound gRPC calls by provider, method and status code",
		}, []string{"provider", "method", "code"}),
		GRPCLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "grpc_client_latency_seconds",
			Help:      "Outbound gRPC call latency in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"provider", "method"}),

		ResolverHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolver_hits_total",
			Help:      "Text resolutions by the tier that answered",
		}, []string{"tier"}),
		TranslationReloads: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "translation_reloads_total",
			Help:      "Dynamic translation set reloads by language and result",
		}, []string{"language", "result"}),

		SpeechDispatches: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "speech_dispatches_total",
			Help:      "Speech requests by the path that served them",
		}, []string{"path"}),
		SpeechFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "speech_failures_total",
			Help:      "Speech requests that produced no audio",
		}, []string{"path"}),

		KafkaPublishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka messages published",
		}, []string{"topic", "event_type"}),
		KafkaPublishErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka publish errors",
		}, []string{"topic", "event_type"}),
		KafkaPublishLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Kafka publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),

		ArchiveUploads: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_uploads_total",
			Help:      "Recording archive uploads by result",
		}, []string{"result"}),

		RecordingLimitExceeded: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recording_limit_exceeded_total",
			Help:      "Total number of times recording limits forced a stop",
		}, []string{"limit_type"}),
	}
}

// RecordSessionStart records a session acquiring the microphone.
func (m *Metrics) RecordSessionStart() {
	m.SessionsTotal.Inc()
	m.SessionsActive.Inc()
}

// RecordSessionEnd records a session reaching its terminal state.
func (m *Metrics) RecordSessionEnd(outcome string, durationSeconds float64) {
	m.SessionsActive.Dec()
	m.SessionDuration.Observe(durationSeconds)
	m.SessionsCompleted.WithLabelValues(outcome).Inc()
}

// RecordSessionRejected records a start request refused while busy.
func (m *Metrics) RecordSessionRejected() {
	m.SessionsRejected.Inc()
}

// RecordPermissionDenied records a refused microphone acquisition.
func (m *Metrics) RecordPermissionDenied() {
	m.PermissionDenied.Inc()
}

// RecordFallback records a fallback string delivered to the caller.
func (m *Metrics) RecordFallback(reason string) {
	m.FallbacksTotal.WithLabelValues(reason).Inc()
}

// RecordAudioCaptured records one captured chunk.
func (m *Metrics) RecordAudioCaptured(bytes int) {
	m.AudioBytesCaptured.Add(float64(bytes))
	m.AudioChunksCaptured.Inc()
}

// RecordSTTLatency records a completed STT request.
func (m *Metrics) RecordSTTLatency(provider string, latencySeconds float64) {
	m.STTLatency.WithLabelValues(provider).Observe(latencySeconds)
}

// RecordGRPCCall records an outbound gRPC call and its status code.
func (m *Metrics) RecordGRPCCall(provider, method, code string, latencySeconds float64) {
	m.GRPCCalls.WithLabelValues(provider, method, code).Inc()
	m.GRPCLatency.WithLabelValues(provider, method).Observe(latencySeconds)
}

// RecordSTTError records an STT error.
func (m *Metrics) RecordSTTError(provider, errorType string) {
	m.STTErrors.WithLabelValues(provider, errorType).Inc()
}

// RecordResolverHit records which tier answered a resolution.
func (m *Metrics) RecordResolverHit(tier string) {
	m.ResolverHits.WithLabelValues(tier).Inc()
}

// RecordTranslationReload records a dynamic set reload attempt.
func (m *Metrics) RecordTranslationReload(language string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.TranslationReloads.WithLabelValues(language, result).Inc()
}

// RecordSpeech records a speech dispatch and whether it failed.
func (m *Metrics) RecordSpeech(path string, err error) {
	m.SpeechDispatches.WithLabelValues(path).Inc()
	if err != nil {
		m.SpeechFailures.WithLabelValues(path).Inc()
	}
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic, eventType string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic, eventType).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}

// RecordArchiveUpload records a recording archive upload.
func (m *Metrics) RecordArchiveUpload(err error) {
	if err != nil {
		m.ArchiveUploads.WithLabelValues("failure").Inc()
		return
	}
	m.ArchiveUploads.WithLabelValues("success").Inc()
}

// RecordLimitExceeded records when a recording limit forces a stop.
func (m *Metrics) RecordLimitExceeded(limitType string) {
	m.RecordingLimitExceeded.WithLabelValues(limitType).Inc()
}
