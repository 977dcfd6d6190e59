// Package metrics exposes prometheus counters for the playback engine
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	labelUnknown = "unknown"

	ProgressCreated = "created"
	ProgressUpdated = "updated"
	ProgressSkipped = "skipped"
	ProgressFailed  = "failed"

	DecoderInitialized = "initialized"
	DecoderSkipped     = "skipped"
	DecoderTornDown    = "torn_down"
)

var knownEvents = map[string]struct{}{
	"buffering-started":    {},
	"playback-started":     {},
	"playback-paused":      {},
	"playback-completed":   {},
	"playback-interrupted": {},
}

var (
	engagementEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "haven_engagement_events_total",
		Help: "Engagement events forwarded to the analytics tracker by event type",
	}, []string{"event"})

	engagementSuppressedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "haven_engagement_suppressed_total",
		Help: "Engagement events suppressed before delivery by event type",
	}, []string{"event"})

	progressWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "haven_progress_writes_total",
		Help: "Progress merge outcomes at teardown",
	}, []string{"outcome"})

	decoderLifecycleTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "haven_decoder_lifecycle_total",
		Help: "Decoder lifecycle transitions by stage",
	}, []string{"stage"})

	heartbeatsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "haven_heartbeats_total",
		Help: "Session liveness heartbeats sent",
	})

	watchCompletionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "haven_watch_completions_total",
		Help: "Videos that crossed the watched threshold",
	})
)

// IncEngagementEvent counts a forwarded engagement event
func IncEngagementEvent(event string) {
	engagementEventsTotal.WithLabelValues(normalizeEventLabel(event)).Inc()
}

// IncEngagementSuppressed counts an engagement event that was built but not forwarded
func IncEngagementSuppressed(event string) {
	engagementSuppressedTotal.WithLabelValues(normalizeEventLabel(event)).Inc()
}

// IncProgressWrite counts a progress merge outcome
func IncProgressWrite(outcome string) {
	switch outcome {
	case ProgressCreated, ProgressUpdated, ProgressSkipped, ProgressFailed:
	default:
		outcome = labelUnknown
	}
	progressWritesTotal.WithLabelValues(outcome).Inc()
}

// IncDecoderLifecycle counts a decoder lifecycle stage
func IncDecoderLifecycle(stage string) {
	switch stage {
	case DecoderInitialized, DecoderSkipped, DecoderTornDown:
	default:
		stage = labelUnknown
	}
	decoderLifecycleTotal.WithLabelValues(stage).Inc()
}

// IncHeartbeat counts a sent heartbeat
func IncHeartbeat() {
	heartbeatsTotal.Inc()
}

// IncWatchCompletion counts a watched threshold crossing
func IncWatchCompletion() {
	watchCompletionsTotal.Inc()
}

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}

func normalizeEventLabel(event string) string {
	if _, ok := knownEvents[event]; ok {
		return event
	}
	return labelUnknown
}
