// Package analytics provides the engagement event sinks
package analytics

import (
	"github.com/PizzaHomicide/haven/internal/domain"
	"github.com/PizzaHomicide/haven/internal/log"
)

// LogTracker writes every event to the structured log
type LogTracker struct {
	logger *log.Logger
}

func NewLogTracker(logger *log.Logger) *LogTracker {
	return &LogTracker{logger: logger}
}

func (t *LogTracker) Track(event string, properties map[string]any) {
	args := make([]any, 0, len(properties)*2+2)
	args = append(args, "event", event)
	for k, v := range properties {
		args = append(args, k, v)
	}
	if t.logger != nil {
		t.logger.Info("Engagement event", args...)
		return
	}
	log.Info("Engagement event", args...)
}

// Multi fans events out to several trackers in order
type Multi []domain.AnalyticsTracker

func (m Multi) Track(event string, properties map[string]any) {
	for _, t := range m {
		if t != nil {
			t.Track(event, properties)
		}
	}
}
