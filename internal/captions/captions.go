// Package captions keeps the persisted caption preference, the decoder's selected text track and the visible toggle in
// agreement.
package captions

import (
	"fmt"
	"sync"

	"github.com/PizzaHomicide/haven/internal/domain"
	"github.com/PizzaHomicide/haven/internal/log"
)

// TrackOff deselects every text track
const TrackOff = -1

// TrackSelector is the part of the decoder the synchronizer drives
type TrackSelector interface {
	SelectTextTrack(index int) error
}

// ToggleView is what a placement needs to draw the caption toggle
type ToggleView struct {
	// Visible is false when the loaded media has no text track
	Visible bool
	Enabled bool
}

// Placement decides where the caption toggle is drawn.  Render is called every time the view changes.
type Placement interface {
	Render(view ToggleView)
}

// InlinePlacement keeps the toggle next to the player.  It only remembers the latest view for the host to draw.
type InlinePlacement struct {
	mu   sync.Mutex
	view ToggleView
}

func (p *InlinePlacement) Render(view ToggleView) {
	p.mu.Lock()
	p.view = view
	p.mu.Unlock()
}

// View returns the latest rendered view
func (p *InlinePlacement) View() ToggleView {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.view
}

// Synchronizer owns the caption state of one player.  Local state is the source of truth for the toggle; the persisted
// preference and the decoder selection follow it.  Not safe for concurrent use.
type Synchronizer struct {
	prefs     domain.CaptionPreferenceStore
	selector  TrackSelector
	placement Placement

	preferred bool
	enabled   bool
	trackSeen bool
	listening bool
}

// New creates a synchronizer.  preferred is the stored preference read when the player mounted.  A nil placement
// renders inline.
func New(prefs domain.CaptionPreferenceStore, placement Placement, preferred bool) *Synchronizer {
	if placement == nil {
		placement = &InlinePlacement{}
	}
	return &Synchronizer{
		prefs:     prefs,
		placement: placement,
		preferred: preferred,
	}
}

// Bind attaches the decoder whose text tracks are driven
func (s *Synchronizer) Bind(selector TrackSelector) {
	s.selector = selector
}

// ForceDefault enables captions and selects the first text track.  Called at manifest load so the track can be
// addressed later.
func (s *Synchronizer) ForceDefault() error {
	s.enabled = true
	s.render()
	return s.selectTrack(true)
}

// Reconcile applies the stored preference once the stream is ready and starts honouring platform changes.  It returns
// true the first time it is called.
func (s *Synchronizer) Reconcile() (bool, error) {
	s.enabled = s.preferred
	s.render()
	first := !s.listening
	s.listening = true
	return first, s.selectTrack(s.enabled)
}

// Toggle flips captions from the user control.  The new value is selected on the decoder and persisted.
func (s *Synchronizer) Toggle() error {
	s.enabled = !s.enabled
	s.render()

	selectErr := s.selectTrack(s.enabled)
	persistErr := s.persist(s.enabled)
	if selectErr != nil {
		return selectErr
	}
	return persistErr
}

// PlatformChanged handles a caption change made outside the toggle, e.g. the player's own subtitle key.  The preference
// is written before local state.  Changes before Reconcile are ignored.
func (s *Synchronizer) PlatformChanged(enabled bool) error {
	if !s.listening {
		log.Trace("Ignoring caption change before stream is ready", "enabled", enabled)
		return nil
	}
	if enabled == s.enabled {
		return nil
	}

	err := s.persist(enabled)
	s.enabled = enabled
	s.render()
	return err
}

// SetTrackCount records how many text tracks the loaded media really has.  The toggle only renders when there is one.
func (s *Synchronizer) SetTrackCount(n int) {
	s.trackSeen = n > 0
	s.render()
}

// Enabled reports the local caption state
func (s *Synchronizer) Enabled() bool { return s.enabled }

// Available reports whether the media has a text track
func (s *Synchronizer) Available() bool { return s.trackSeen }

// Listening reports whether platform changes are honoured
func (s *Synchronizer) Listening() bool { return s.listening }

func (s *Synchronizer) selectTrack(enabled bool) error {
	if s.selector == nil {
		return nil
	}
	index := TrackOff
	if enabled {
		index = 0
	}
	if err := s.selector.SelectTextTrack(index); err != nil {
		return fmt.Errorf("selecting text track %d: %w", index, err)
	}
	return nil
}

func (s *Synchronizer) persist(enabled bool) error {
	s.preferred = enabled
	if s.prefs == nil {
		return nil
	}
	if err := s.prefs.SetCaptionsEnabled(enabled); err != nil {
		return fmt.Errorf("persisting caption preference: %w", err)
	}
	return nil
}

func (s *Synchronizer) render() {
	s.placement.Render(ToggleView{Visible: s.trackSeen, Enabled: s.enabled})
}
