package domain

import "errors"

// Failure modes of the playback engine.  None of these are surfaced to the UI; they are returned so callers can log
// or assert on them.
var (
	// ErrInitializationSkipped means the platform cannot run the adaptive decoder and native sources took over
	ErrInitializationSkipped = errors.New("adaptive initialization skipped")
	// ErrPlaybackInterrupted means the decoder reported an abort or error after playback had advanced
	ErrPlaybackInterrupted = errors.New("playback interrupted")
	// ErrProgressWriteSkipped means tracked progress did not exceed the known remote value
	ErrProgressWriteSkipped = errors.New("progress write skipped")
	// ErrMetricUnavailable means bitrate or frame rate could not be derived yet
	ErrMetricUnavailable = errors.New("metric unavailable")
	// ErrNotInitialized is returned by operations that need an initialized player
	ErrNotInitialized = errors.New("player not initialized")
	// ErrTornDown is returned by operations attempted after the player was torn down
	ErrTornDown = errors.New("player already torn down")
)
