// Package progress turns position ticks into percent-complete values and decides whether tracked progress should be
// written back to the remote store.
package progress

import (
	"math"

	"github.com/PizzaHomicide/haven/internal/domain"
)

// DefaultWatchedThreshold is the percentage that must be exceeded for a video to count as watched
const DefaultWatchedThreshold = 95

// Percent converts a position into a whole percentage: round(ceil(currentTime/duration*100)), clamped to [0,100].
// ok is false when the duration is unknown or zero, or either input is not a finite number.
func Percent(currentTime, duration float64) (percent int, ok bool) {
	if !isFinite(currentTime) || !isFinite(duration) || duration <= 0 {
		return 0, false
	}

	raw := math.Round(math.Ceil(currentTime / duration * 100))
	if !isFinite(raw) {
		return 0, false
	}
	switch {
	case raw < 0:
		return 0, true
	case raw > 100:
		return 100, true
	}
	return int(raw), true
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Update is the result of feeding one tick to a Tracker
type Update struct {
	// Percent is the percentage at this tick
	Percent int
	// Max is the highest percentage seen this session
	Max int
	// CrossedWatched is true only on the tick that first exceeded the watched threshold
	CrossedWatched bool
}

// Tracker keeps the per-session progress state.  It is not safe for concurrent use; the playback controller owns it.
type Tracker struct {
	threshold  int
	current    int
	trackedMax int
	watched    bool
}

// NewTracker creates a tracker.  A threshold outside 1..100 falls back to DefaultWatchedThreshold.
func NewTracker(threshold int) *Tracker {
	if threshold < 1 || threshold > 100 {
		threshold = DefaultWatchedThreshold
	}
	return &Tracker{threshold: threshold}
}

// Observe records a position tick.  Ticks with an unusable duration are ignored and ok is false.
func (t *Tracker) Observe(currentTime, duration float64) (Update, bool) {
	percent, ok := Percent(currentTime, duration)
	if !ok {
		return Update{Percent: t.current, Max: t.trackedMax}, false
	}
	return t.apply(percent), true
}

// Complete forces progress to 100 at natural end of media
func (t *Tracker) Complete() Update {
	return t.apply(100)
}

func (t *Tracker) apply(percent int) Update {
	t.current = percent
	t.trackedMax = max(t.trackedMax, percent)

	crossed := false
	if percent > t.threshold && !t.watched {
		t.watched = true
		crossed = true
	}

	return Update{Percent: percent, Max: t.trackedMax, CrossedWatched: crossed}
}

// Current is the percentage at the latest tick
func (t *Tracker) Current() int { return t.current }

// Max is the highest percentage seen this session
func (t *Tracker) Max() int { return t.trackedMax }

// Watched reports whether the watched threshold has been crossed.  It never reverts within a session.
func (t *Tracker) Watched() bool { return t.watched }

// Write is a progress update that should be sent to the remote store
type Write struct {
	// RecordID is nil when a new record must be created
	RecordID *int
	VideoID  int
	Percent  int
}

// Merge compares tracked progress against the freshest known record for the video and decides whether a write is
// needed.  latest must be the snapshot available at the time of the call; a record for another video is ignored.
//
//   - no record and trackedMax > 0: create
//   - record with a lower percent: update
//   - otherwise: skip
func Merge(videoID, trackedMax int, latest *domain.ProgressRecord) (Write, bool) {
	if latest != nil && latest.VideoID != videoID {
		latest = nil
	}

	if latest == nil {
		if trackedMax > 0 {
			return Write{VideoID: videoID, Percent: trackedMax}, true
		}
		return Write{}, false
	}

	if trackedMax > latest.PercentComplete {
		var id *int
		if latest.ID != nil {
			v := *latest.ID
			id = &v
		}
		return Write{RecordID: id, VideoID: videoID, Percent: trackedMax}, true
	}
	return Write{}, false
}
