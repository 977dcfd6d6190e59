package playback

import "fmt"

// EventKind names a callback coming from the media element or the decoder
type EventKind string

const (
	EventManifestLoaded    EventKind = "manifest-loaded"
	EventStreamInitialized EventKind = "stream-initialized"
	EventLoadedMetadata    EventKind = "loaded-metadata"
	EventTextTrackChange   EventKind = "text-track-change"
	EventTimeUpdate        EventKind = "time-update"
	EventPlaying           EventKind = "playing"
	EventPaused            EventKind = "paused"
	EventWaiting           EventKind = "waiting"
	EventEnded             EventKind = "ended"
	EventError             EventKind = "error"
	EventAbort             EventKind = "abort"
)

// Event is one element or decoder callback.  Only the fields relevant to Kind are set.
type Event struct {
	Kind EventKind

	// CurrentTime and Duration are in seconds.  Set for time-update.
	CurrentTime float64
	Duration    float64

	// TextTracks is the number of text tracks in the loaded media.  Set for loaded-metadata.
	TextTracks int

	// CaptionsEnabled is the platform's caption state.  Set for text-track-change.
	CaptionsEnabled bool

	// Err is set for error
	Err error
}

func (e Event) String() string {
	switch e.Kind {
	case EventTimeUpdate:
		return fmt.Sprintf("%s(%.2f/%.2f)", e.Kind, e.CurrentTime, e.Duration)
	case EventLoadedMetadata:
		return fmt.Sprintf("%s(tracks=%d)", e.Kind, e.TextTracks)
	case EventTextTrackChange:
		return fmt.Sprintf("%s(enabled=%t)", e.Kind, e.CaptionsEnabled)
	case EventError:
		return fmt.Sprintf("%s(%v)", e.Kind, e.Err)
	default:
		return string(e.Kind)
	}
}
