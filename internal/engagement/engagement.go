// Package engagement builds the structured playback analytics payloads and forwards them to the analytics tracker.
package engagement

import (
	"math"
	"strconv"
	"strings"

	"github.com/PizzaHomicide/haven/internal/domain"
	"github.com/PizzaHomicide/haven/internal/log"
	"github.com/PizzaHomicide/haven/internal/metrics"
)

// EventType is the name of a playback lifecycle event
type EventType string

const (
	BufferingStarted    EventType = "buffering-started"
	PlaybackStarted     EventType = "playback-started"
	PlaybackPaused      EventType = "playback-paused"
	PlaybackCompleted   EventType = "playback-completed"
	PlaybackInterrupted EventType = "playback-interrupted"
)

// Representation is the quality level the decoder is currently playing
type Representation struct {
	// Bandwidth in bits per second
	Bandwidth float64
	// FrameRate as advertised by the manifest, e.g. "25" or "30000/1001"
	FrameRate string
}

// Snapshot is the player state an event is built from
type Snapshot struct {
	Duration   float64 // seconds
	Position   float64 // seconds
	Volume     float64 // 0.0 - 1.0
	Fullscreen bool
	// Representation is nil when the decoder cannot report one yet
	Representation *Representation
}

// Event is a single engagement payload.  Optional metrics are nil when unavailable, never zero-filled.
type Event struct {
	Type           EventType
	SessionID      string
	ContentAssetID int
	TotalLength    int
	Position       int
	SoundLevel     int
	FullScreen     bool
	BitrateKbps    *int
	FrameRate      *float64
}

// Properties flattens the event for the analytics tracker
func (e Event) Properties() map[string]any {
	props := map[string]any{
		"session_id":       e.SessionID,
		"content_asset_id": e.ContentAssetID,
		"total_length":     e.TotalLength,
		"position":         e.Position,
		"sound_level":      e.SoundLevel,
		"full_screen":      e.FullScreen,
	}
	if e.BitrateKbps != nil {
		props["bitrate"] = *e.BitrateKbps
	}
	if e.FrameRate != nil {
		props["frame_rate"] = *e.FrameRate
	}
	return props
}

// Emitter owns payload construction for one playback session
type Emitter struct {
	tracker   domain.AnalyticsTracker
	sessionID string
	assetID   int
	logger    *log.Logger
}

// NewEmitter creates an emitter bound to a session and video
func NewEmitter(tracker domain.AnalyticsTracker, sessionID string, assetID int) *Emitter {
	return &Emitter{
		tracker:   tracker,
		sessionID: sessionID,
		assetID:   assetID,
		logger:    log.With("session_id", sessionID, "video_id", assetID),
	}
}

// Build assembles the payload for an event from the given snapshot
func (e *Emitter) Build(eventType EventType, s Snapshot) Event {
	ev := Event{
		Type:           eventType,
		SessionID:      e.sessionID,
		ContentAssetID: e.assetID,
		TotalLength:    wholeSeconds(s.Duration),
		Position:       wholeSeconds(s.Position),
		SoundLevel:     soundLevel(s.Volume),
		FullScreen:     s.Fullscreen,
	}

	if s.Representation != nil {
		if kbps, ok := bitrateKbps(s.Representation.Bandwidth); ok {
			ev.BitrateKbps = &kbps
		}
		if fps, ok := ParseFrameRate(s.Representation.FrameRate); ok {
			ev.FrameRate = &fps
		}
	}

	return ev
}

// Emit builds and forwards an event.  playback-interrupted is suppressed while the position is still at or before
// zero; every other type always emits.  It returns the event and whether it was forwarded.
func (e *Emitter) Emit(eventType EventType, s Snapshot) (Event, bool) {
	ev := e.Build(eventType, s)

	if eventType == PlaybackInterrupted && !(s.Position > 0) {
		e.logger.Debug("Suppressing interrupted event before playback advanced", "position", s.Position)
		metrics.IncEngagementSuppressed(string(eventType))
		return ev, false
	}

	if ev.BitrateKbps == nil || ev.FrameRate == nil {
		e.logger.Trace("Representation metrics unavailable", "event", eventType, "error", domain.ErrMetricUnavailable)
	}

	if e.tracker != nil {
		e.tracker.Track(string(eventType), ev.Properties())
	}
	metrics.IncEngagementEvent(string(eventType))
	e.logger.Debug("Engagement event emitted", "event", eventType, "position", ev.Position)
	return ev, true
}

// ParseFrameRate understands plain numbers and DASH style fractions.  Results are rounded to three decimals.
func ParseFrameRate(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}

	var fps float64
	if num, den, found := strings.Cut(raw, "/"); found {
		n, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return 0, false
		}
		d, err := strconv.ParseFloat(den, 64)
		if err != nil || d == 0 {
			return 0, false
		}
		fps = n / d
	} else {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, false
		}
		fps = v
	}

	if math.IsNaN(fps) || math.IsInf(fps, 0) || fps <= 0 {
		return 0, false
	}
	return math.Round(fps*1000) / 1000, true
}

func bitrateKbps(bps float64) (int, bool) {
	if math.IsNaN(bps) || math.IsInf(bps, 0) || bps <= 0 {
		return 0, false
	}
	return int(math.Round(bps / 1000)), true
}

func wholeSeconds(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return int(math.Floor(v))
}

func soundLevel(volume float64) int {
	if math.IsNaN(volume) {
		return 0
	}
	return int(math.Round(min(max(volume, 0), 1) * 100))
}
