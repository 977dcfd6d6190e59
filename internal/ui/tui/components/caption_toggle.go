package components

import (
	"sync"

	"github.com/PizzaHomicide/haven/internal/captions"
	"github.com/PizzaHomicide/haven/internal/ui/tui/styles"
)

// CaptionAnchor draws the caption toggle in the status bar instead of next to the video.  The playback controller
// renders into it; the player view reads it on every frame.
type CaptionAnchor struct {
	mu   sync.Mutex
	view captions.ToggleView
}

var _ captions.Placement = (*CaptionAnchor)(nil)

func NewCaptionAnchor() *CaptionAnchor {
	return &CaptionAnchor{}
}

func (a *CaptionAnchor) Render(view captions.ToggleView) {
	a.mu.Lock()
	a.view = view
	a.mu.Unlock()
}

// View returns the last rendered toggle
func (a *CaptionAnchor) View() captions.ToggleView {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.view
}

// String renders the toggle for the status bar.  Nothing is drawn while the media has no text track.
func (a *CaptionAnchor) String() string {
	view := a.View()
	if !view.Visible {
		return ""
	}
	if view.Enabled {
		return styles.CaptionOn.Render("CC on")
	}
	return styles.CaptionOff.Render("CC off")
}
