// Package heartbeat reports session liveness while a video is playing.
package heartbeat

import (
	"time"

	"github.com/PizzaHomicide/haven/internal/domain"
	"github.com/PizzaHomicide/haven/internal/log"
	"github.com/PizzaHomicide/haven/internal/metrics"
)

// DefaultInterval is the minimum wall-clock gap between two heartbeats
const DefaultInterval = 60 * time.Second

// Bridge throttles heartbeats to at most one per interval.  It does not run a timer of its own; Sample is called from
// time-update events, so heartbeats stop whenever playback stops.
type Bridge struct {
	sender   domain.HeartbeatSender
	interval time.Duration
	now      func() time.Time
	last     time.Time
}

// Option configures a Bridge
type Option func(*Bridge)

// WithInterval overrides DefaultInterval.  Non-positive values are ignored.
func WithInterval(d time.Duration) Option {
	return func(b *Bridge) {
		if d > 0 {
			b.interval = d
		}
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(b *Bridge) {
		if now != nil {
			b.now = now
		}
	}
}

// New creates a bridge.  The mount time counts as the last heartbeat.
func New(sender domain.HeartbeatSender, opts ...Option) *Bridge {
	b := &Bridge{
		sender:   sender,
		interval: DefaultInterval,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.last = b.now()
	return b
}

// Sample sends a heartbeat if more than the interval has elapsed since the previous one.  Returns true if one was sent.
func (b *Bridge) Sample() bool {
	now := b.now()
	if now.Sub(b.last) <= b.interval {
		return false
	}

	b.last = now
	if b.sender != nil {
		b.sender.SendHeartbeat()
	}
	metrics.IncHeartbeat()
	log.Trace("Heartbeat sent", "at", now)
	return true
}

// Interval returns the configured interval
func (b *Bridge) Interval() time.Duration {
	return b.interval
}
