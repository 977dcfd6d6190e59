package domain

import "context"

// ProgressRepository defines access to the remote progress store.  A nil recordID asks the store to create a new
// record for the video.
type ProgressRepository interface {
	// FetchProgress retrieves every progress record of the current user
	FetchProgress(ctx context.Context) ([]*ProgressRecord, error)

	// UpdateProgress sets the percent complete of a video
	UpdateProgress(ctx context.Context, recordID *int, videoID int, percent int) (*ProgressRecord, error)

	// RateVideo stores the user's rating of a video
	RateVideo(ctx context.Context, recordID *int, videoID int, rating int) (*ProgressRecord, error)

	// SetSaveForLater flags or unflags a video for later viewing
	SetSaveForLater(ctx context.Context, recordID *int, videoID int, save bool) (*ProgressRecord, error)
}

// CaptionPreferenceStore persists whether the user wants captions across sessions
type CaptionPreferenceStore interface {
	CaptionsEnabled() bool
	SetCaptionsEnabled(enabled bool) error
}

// AnalyticsTracker receives engagement events.  Delivery is fire-and-forget.
type AnalyticsTracker interface {
	Track(event string, properties map[string]any)
}

// HeartbeatSender signals that the viewing session is still alive
type HeartbeatSender interface {
	SendHeartbeat()
}

// ActionLog records that a user has watched a video.  It is separate from engagement analytics.
type ActionLog interface {
	RecordWatched(ctx context.Context, videoID int, sessionID string) error
}
