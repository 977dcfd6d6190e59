package models

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PizzaHomicide/haven/internal/domain"
	"github.com/PizzaHomicide/haven/internal/log"
	"github.com/PizzaHomicide/haven/internal/playback"
	"github.com/PizzaHomicide/haven/internal/playback/source"
	"github.com/PizzaHomicide/haven/internal/ui/tui/components"
	kb "github.com/PizzaHomicide/haven/internal/ui/tui/keybindings"
	"github.com/PizzaHomicide/haven/internal/ui/tui/styles"
	"github.com/PizzaHomicide/haven/internal/ui/tui/util"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// sessionRefreshInterval keeps volume and fullscreen current when the player is quiet
const sessionRefreshInterval = time.Second

// Host is the mounted playback session the UI drives
type Host interface {
	Session() playback.Session
	ToggleCaptions() error
	TogglePause() error
	// Unmount tears the player down and saves progress
	Unmount(ctx context.Context) error
}

var playerBarHints = map[kb.Action]string{
	kb.ActionTogglePause:    "pause",
	kb.ActionToggleCaptions: "captions",
	kb.ActionStop:           "stop",
}

// PlayerModel shows the state of the mounted player: title, lifecycle state, position and the caption toggle
type PlayerModel struct {
	width, height int
	host          Host
	media         domain.MediaSource
	anchor        *components.CaptionAnchor

	session playback.Session
	bar     progress.Model
	spinner spinner.Model
	lastErr error
}

// NewPlayerModel creates the player view.  anchor is the placement the controller renders the caption toggle into.
func NewPlayerModel(host Host, media domain.MediaSource, anchor *components.CaptionAnchor) *PlayerModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))

	return &PlayerModel{
		host:    host,
		media:   media,
		anchor:  anchor,
		session: host.Session(),
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		spinner: s,
	}
}

func (m *PlayerModel) ViewType() View {
	return ViewPlayer
}

func (m *PlayerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, refreshTick())
}

func refreshTick() tea.Cmd {
	return tea.Tick(sessionRefreshInterval, func(time.Time) tea.Msg {
		return SessionTickMsg{}
	})
}

func (m *PlayerModel) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case PlaybackEventMsg:
		m.session = m.host.Session()
		if msg.Event.Kind == playback.EventError {
			m.lastErr = msg.Event.Err
		}
		return m, nil

	case SessionTickMsg:
		m.session = m.host.Session()
		return m, refreshTick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case HostErrorMsg:
		log.Warn("Player action failed", "action", msg.Action, "error", msg.Err)
		m.lastErr = fmt.Errorf("%s: %w", msg.Action, msg.Err)
		return m, nil

	case tea.KeyMsg:
		switch kb.GetActionByKey(msg, kb.ContextPlayer) {
		case kb.ActionTogglePause:
			return m, m.hostAction("pause", m.host.TogglePause)
		case kb.ActionToggleCaptions:
			if err := m.host.ToggleCaptions(); err != nil {
				return m.Update(HostErrorMsg{Action: "captions", Err: err})
			}
			m.lastErr = nil
			m.session = m.host.Session()
			return m, nil
		}
	}
	return m, nil
}

// hostAction runs a player command off the UI goroutine
func (m *PlayerModel) hostAction(name string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		if err := fn(); err != nil {
			return HostErrorMsg{Action: name, Err: err}
		}
		return nil
	}
}

func (m *PlayerModel) Resize(width, height int) {
	m.width = width
	m.height = height
	m.bar.Width = max(width-8, 10)
}

func (m *PlayerModel) View() string {
	s := m.session

	title := m.media.Title
	if title == "" {
		title = fmt.Sprintf("Video %d", m.media.VideoID)
	}
	header := styles.Header(m.width, util.TruncateString(title, max(m.width-4, 8)))

	var body strings.Builder
	body.WriteString(m.stateLine(s))
	body.WriteString("\n\n")

	if s.PosterVisible && m.media.PosterURL != "" {
		body.WriteString(styles.Muted.Render("Poster: "))
		body.WriteString(styles.Url.Render(m.media.PosterURL))
		body.WriteString("\n\n")
	}

	body.WriteString(m.bar.ViewAs(util.Ratio(s.CurrentPosition, s.Duration)))
	body.WriteString("\n")
	body.WriteString(styles.Info.Render(fmt.Sprintf("%s / %s",
		util.FormatPlaybackTime(s.CurrentPosition), util.FormatPlaybackTime(s.Duration))))
	body.WriteString("\n\n")

	watched := ""
	if s.WatchedThresholdCrossed {
		watched = " • watched"
	}
	body.WriteString(styles.Info.Render(fmt.Sprintf("Progress %d%% (furthest %d%%)%s", s.Percent, s.TrackedMax, watched)))

	if m.lastErr != nil {
		body.WriteString("\n\n")
		body.WriteString(styles.Error.Render(util.TruncateString(m.lastErr.Error(), max(m.width-8, 8))))
	}

	footer := components.KeyBindingsBar(m.width, components.BarFor(kb.ContextPlayer, playerBarHints,
		kb.ActionTogglePause, kb.ActionToggleCaptions, kb.ActionStop))

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		"",
		styles.ContentBox(m.width-2, body.String(), 1),
		m.statusBar(s),
		"",
		footer,
	)
}

func (m *PlayerModel) stateLine(s playback.Session) string {
	if s.Strategy == source.StrategyNone {
		return styles.Muted.Render("Nothing playable for this video")
	}

	switch s.State {
	case playback.StateUnloaded, playback.StateInitializing, playback.StateManifestLoaded:
		return m.spinner.View() + " " + styles.Info.Render("Loading stream")
	case playback.StateStreamReady:
		return styles.Info.Render("Ready")
	case playback.StatePlaying:
		return styles.Info.Render("▶ Playing")
	case playback.StatePaused:
		return styles.Info.Render("⏸ Paused")
	case playback.StateEnded:
		return styles.Info.Render("■ Finished")
	case playback.StateTorndown:
		return styles.Muted.Render("Stopped")
	default:
		return string(s.State)
	}
}

func (m *PlayerModel) statusBar(s playback.Session) string {
	segments := []string{styles.StatusState.Render(string(s.State))}
	if s.Strategy != "" {
		segments = append(segments, styles.StatusSegment.Render(string(s.Strategy)))
	}
	segments = append(segments, styles.StatusSegment.Render(fmt.Sprintf("vol %d%%", int(s.Volume*100+0.5))))
	if s.Fullscreen {
		segments = append(segments, styles.StatusSegment.Render("fullscreen"))
	}
	if m.anchor != nil {
		if toggle := m.anchor.String(); toggle != "" {
			segments = append(segments, toggle)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, segments...)
}
