// Package metrics provides Prometheus metrics for monitoring session workflows.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Session workflow metrics
var (
	// aiRequestsTotal records the total number of AI boundary calls.
	// Labels:
	//   - operation: Boundary operation (e.g., "classify", "describe", "translate", "suggest")
	//   - status: Call status (e.g., "success", "failed", "rate_limited")
	aiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_ai_requests_total",
			Help: "Total number of AI boundary calls issued by session workflows",
		},
		[]string{"operation", "status"},
	)

	// aiRequestDuration records the duration of AI boundary calls.
	// Labels:
	//   - operation: Boundary operation (e.g., "classify", "translate")
	// Buckets: 0.1s, 0.5s, 1s, 2s, 5s, 10s, 30s, 60s
	aiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "session_ai_request_duration_seconds",
			Help:    "Duration of AI boundary calls in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"operation"},
	)

	// languageFallbacksTotal records rate-limit language fallback events.
	// Labels:
	//   - workflow: Workflow that hit the rate limit (e.g., "localize", "describe")
	languageFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_language_fallbacks_total",
			Help: "Total number of rate-limit fallbacks to the base language",
		},
		[]string{"workflow"},
	)

	// speechPlaybacksTotal records speech playback attempts.
	// Labels:
	//   - status: Playback status (e.g., "started", "cancelled", "error")
	speechPlaybacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_speech_playbacks_total",
			Help: "Total number of read-aloud playback attempts",
		},
		[]string{"status"},
	)

	// activeSessions tracks the number of live sessions in the registry.
	activeSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "session_active_total",
			Help: "Number of active sessions in the in-memory registry",
		},
	)
)

func init() {
	// Register all session-related metrics with Prometheus
	prometheus.MustRegister(aiRequestsTotal)
	prometheus.MustRegister(aiRequestDuration)
	prometheus.MustRegister(languageFallbacksTotal)
	prometheus.MustRegister(speechPlaybacksTotal)
	prometheus.MustRegister(activeSessions)
}

// RecordAIRequest records one AI boundary call outcome.
// Parameters:
//   - operation: Boundary operation (e.g., "classify", "translate")
//   - status: Call status (e.g., "success", "failed", "rate_limited")
func RecordAIRequest(operation, status string) {
	aiRequestsTotal.WithLabelValues(operation, status).Inc()
}

// RecordAIRequestDuration records the duration of one AI boundary call.
// Parameters:
//   - operation: Boundary operation (e.g., "classify", "translate")
//   - durationSeconds: Call duration in seconds
func RecordAIRequestDuration(operation string, durationSeconds float64) {
	aiRequestDuration.WithLabelValues(operation).Observe(durationSeconds)
}

// RecordLanguageFallback records one rate-limit fallback to the base language.
// Parameters:
//   - workflow: Workflow that triggered the fallback (e.g., "localize", "describe")
func RecordLanguageFallback(workflow string) {
	languageFallbacksTotal.WithLabelValues(workflow).Inc()
}

// RecordSpeechPlayback records one read-aloud playback attempt.
// Parameters:
//   - status: Playback status (e.g., "started", "cancelled", "error")
func RecordSpeechPlayback(status string) {
	speechPlaybacksTotal.WithLabelValues(status).Inc()
}

// SetActiveSessions updates the active session gauge.
func SetActiveSessions(n int) {
	activeSessions.Set(float64(n))
}
