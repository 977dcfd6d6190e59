package graphql

import (
	"context"
	"sync"
	"time"

	"github.com/PizzaHomicide/haven/internal/log"
)

const defaultReportTimeout = 10 * time.Second

// Reporter sends fire-and-forget session signals: liveness heartbeats and engagement events.  Calls return
// immediately; Close waits for requests still in flight.
type Reporter struct {
	client    *Client
	sessionID string
	timeout   time.Duration
	wg        sync.WaitGroup
}

// NewReporter creates a reporter for one playback session
func NewReporter(client *Client, sessionID string) *Reporter {
	return &Reporter{
		client:    client,
		sessionID: sessionID,
		timeout:   defaultReportTimeout,
	}
}

// SendHeartbeat tells the API the session is still alive
func (r *Reporter) SendHeartbeat() {
	mutation := `
		mutation ($sessionId: String!) {
			sessionHeartbeat(sessionId: $sessionId)
		}
	`
	r.send("heartbeat", mutation, map[string]any{"sessionId": r.sessionID})
}

// Track forwards an engagement event
func (r *Reporter) Track(event string, properties map[string]any) {
	mutation := `
		mutation ($sessionId: String!, $event: String!, $properties: JSON) {
			trackEvent(sessionId: $sessionId, event: $event, properties: $properties)
		}
	`
	r.send("track "+event, mutation, map[string]any{
		"sessionId":  r.sessionID,
		"event":      event,
		"properties": properties,
	})
}

func (r *Reporter) send(what, mutation string, variables map[string]any) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		var response map[string]any
		if err := r.client.Query(ctx, mutation, variables, &response); err != nil {
			log.Warn("Failed to report session signal", "signal", what, "error", err)
			return
		}
		log.Trace("Session signal reported", "signal", what)
	}()
}

// Close waits for in-flight reports
func (r *Reporter) Close() {
	r.wg.Wait()
}
