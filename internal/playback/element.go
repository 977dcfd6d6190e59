package playback

import (
	"github.com/PizzaHomicide/haven/internal/engagement"
)

// Element is the native media surface a player mounts on
type Element interface {
	// Paused reports whether the element is currently paused
	Paused() bool
	Pause() error

	// CurrentTime and Duration are in seconds.  Duration is NaN or zero while unknown.
	CurrentTime() float64
	Duration() float64
	// Volume is between 0.0 and 1.0
	Volume() float64
	Fullscreen() bool

	// SetSources hands an ordered list of native sources to the element.  The element plays the first one it can.
	SetSources(urls []string) error
}

// Decoder is an adaptive streaming engine bound to one element
type Decoder interface {
	LoadManifest(url string) error
	// SelectTextTrack selects a text track by index.  A negative index deselects every track.
	SelectTextTrack(index int) error
	// Representation returns the quality level currently playing, if the engine exposes one yet
	Representation() (*engagement.Representation, bool)
	// Destroy releases the decoder.  It is called exactly once per decoder.
	Destroy() error
}

// DecoderFactory creates a decoder bound to an element
type DecoderFactory func(el Element) (Decoder, error)
