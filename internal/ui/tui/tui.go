package tui

import (
	"context"
	"errors"

	"github.com/PizzaHomicide/haven/internal/domain"
	"github.com/PizzaHomicide/haven/internal/playback"
	"github.com/PizzaHomicide/haven/internal/ui/tui/components"
	"github.com/PizzaHomicide/haven/internal/ui/tui/models"
	tea "github.com/charmbracelet/bubbletea"
)

// Pump delivers playback events, already applied to the controller, until the player stops or ctx is done
type Pump func(ctx context.Context, onEvent func(playback.Event))

// Run shows the player screen until the user quits or the player goes away.  The host is unmounted before Run returns
// unless ctx was cancelled first.
func Run(ctx context.Context, host models.Host, pump Pump, media domain.MediaSource, anchor *components.CaptionAnchor) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(models.NewAppModel(host, media, anchor), tea.WithAltScreen(), tea.WithContext(ctx))

	go func() {
		pump(ctx, func(ev playback.Event) {
			p.Send(models.PlaybackEventMsg{Event: ev})
		})
		if ctx.Err() == nil {
			p.Send(models.PlaybackStoppedMsg{})
		}
	}()

	final, err := p.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	if app, ok := final.(models.AppModel); ok {
		return app.Err()
	}
	return nil
}
