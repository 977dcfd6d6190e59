// Package source picks how a video should be started from the transcodings that exist for it.
package source

import (
	"github.com/PizzaHomicide/haven/internal/domain"
)

// Strategy is the way playback is initialised
type Strategy string

const (
	// StrategyAdaptive hands the manifest to the adaptive streaming decoder
	StrategyAdaptive Strategy = "adaptive"
	// StrategyNative lets the media element try the native sources in order
	StrategyNative Strategy = "native"
	// StrategyNone means there is nothing playable.  The poster stays up and nothing is emitted.
	StrategyNone Strategy = "none"
)

// Kind identifies the format of a native candidate
type Kind string

const (
	KindStreamingPlaylist Kind = "hls"
	KindProgressiveFile   Kind = "progressive"
)

// Capabilities describes what the platform can do
type Capabilities struct {
	// AdaptiveStreaming is true when an adaptive decoder is available and supported
	AdaptiveStreaming bool
}

// Candidate is one native source
type Candidate struct {
	URL  string
	Kind Kind
}

// Selection is the outcome of Select.  Exactly one strategy is chosen.
type Selection struct {
	Strategy    Strategy
	ManifestURL string
	// Fallbacks is the ordered native list.  Only set for StrategyNative.
	Fallbacks []Candidate
	PosterURL string
}

// URLs returns the native fallback URLs in order
func (s Selection) URLs() []string {
	urls := make([]string, 0, len(s.Fallbacks))
	for _, c := range s.Fallbacks {
		urls = append(urls, c.URL)
	}
	return urls
}

// Select deterministically chooses the playback strategy.  There is no cross-strategy retry: once adaptive is chosen
// a failing manifest simply never starts.
func Select(src domain.MediaSource, caps Capabilities) Selection {
	sel := Selection{PosterURL: src.PosterURL}

	if caps.AdaptiveStreaming && src.AdaptiveManifestURL != "" {
		sel.Strategy = StrategyAdaptive
		sel.ManifestURL = src.AdaptiveManifestURL
		return sel
	}

	if src.StreamingPlaylistURL != "" {
		sel.Fallbacks = append(sel.Fallbacks, Candidate{URL: src.StreamingPlaylistURL, Kind: KindStreamingPlaylist})
	}
	if src.ProgressiveFileURL != "" {
		sel.Fallbacks = append(sel.Fallbacks, Candidate{URL: src.ProgressiveFileURL, Kind: KindProgressiveFile})
	}

	if len(sel.Fallbacks) == 0 {
		sel.Strategy = StrategyNone
		return sel
	}
	sel.Strategy = StrategyNative
	return sel
}
