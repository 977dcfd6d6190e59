package models

import "github.com/PizzaHomicide/haven/internal/playback"

// PlaybackEventMsg is sent after the controller has applied a player event
type PlaybackEventMsg struct {
	Event playback.Event
}

// PlaybackStoppedMsg is sent when the player's event stream has closed, e.g. the player window was closed
type PlaybackStoppedMsg struct{}

// SessionTickMsg refreshes the session view between player events
type SessionTickMsg struct{}

// UnmountedMsg is sent once the player has been torn down and progress saved
type UnmountedMsg struct {
	Err error
}

// HostErrorMsg reports a failed user action against the player
type HostErrorMsg struct {
	Action string
	Err    error
}
