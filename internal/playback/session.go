package playback

import (
	"context"
	"time"

	"github.com/PizzaHomicide/haven/internal/playback/source"
)

// Session is a read-only view of the mounted player for the UI host
type Session struct {
	SessionID               string
	VideoID                 int
	StartTime               time.Time
	State                   State
	Strategy                source.Strategy
	CurrentPosition         float64
	Duration                float64
	Volume                  float64
	Fullscreen              bool
	CaptionEnabled          bool
	CaptionsAvailable       bool
	WatchedThresholdCrossed bool
	// Percent is the progress at the latest tick, TrackedMax the highest seen this session
	Percent       int
	TrackedMax    int
	PosterVisible bool
}

// Session returns a snapshot of the current session
func (c *Controller) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Session{
		SessionID:               c.sessionID,
		VideoID:                 c.videoID,
		StartTime:               c.startTime,
		State:                   c.lifecycle.State(),
		CurrentPosition:         c.position,
		Duration:                c.duration,
		Percent:                 c.tracker.Current(),
		TrackedMax:              c.tracker.Max(),
		WatchedThresholdCrossed: c.tracker.Watched(),
		PosterVisible:           c.poster,
	}
	if c.handle != nil {
		s.Strategy = c.handle.Strategy()
	}
	if c.captions != nil {
		s.CaptionEnabled = c.captions.Enabled()
		s.CaptionsAvailable = c.captions.Available()
	}
	if c.element != nil && !c.unmounting {
		s.Volume = c.element.Volume()
		s.Fullscreen = c.element.Fullscreen()
	}
	return s
}

// Run delivers events to HandleEvent until the channel closes or ctx is cancelled.  It is the single event pump for a
// controller; onEvent, when set, is called after each event has been applied.
func (c *Controller) Run(ctx context.Context, events <-chan Event, onEvent func(Event)) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				c.logger.Debug("Playback event stream closed")
				return
			}
			c.HandleEvent(ev)
			if onEvent != nil {
				onEvent(ev)
			}
		}
	}
}
