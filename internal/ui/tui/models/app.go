package models

import (
	"context"
	"time"

	"github.com/PizzaHomicide/haven/internal/domain"
	"github.com/PizzaHomicide/haven/internal/log"
	"github.com/PizzaHomicide/haven/internal/ui/tui/components"
	kb "github.com/PizzaHomicide/haven/internal/ui/tui/keybindings"
	tea "github.com/charmbracelet/bubbletea"
)

// DefaultUnmountTimeout bounds how long saving progress may hold up quitting
const DefaultUnmountTimeout = 15 * time.Second

// AppModel is the main application model that coordinates all child models.  It is the high level wrapper.
type AppModel struct {
	activeView    View
	activeModal   Modal
	width, height int

	host           Host
	unmountTimeout time.Duration
	stopping       bool
	err            error

	playerModel  *PlayerModel
	helpModel    *HelpModel
	loadingModel *LoadingModel
}

// NewAppModel creates the app around a mounted player
func NewAppModel(host Host, media domain.MediaSource, anchor *components.CaptionAnchor) AppModel {
	return AppModel{
		activeView:     ViewPlayer,
		activeModal:    ModalNone,
		host:           host,
		unmountTimeout: DefaultUnmountTimeout,
		playerModel:    NewPlayerModel(host, media, anchor),
		helpModel:      NewHelpModel(),
	}
}

// Err returns the error from tearing the player down, if any
func (m AppModel) Err() error {
	return m.err
}

func (m AppModel) Init() tea.Cmd {
	log.Info("Initialising Haven TUI")
	return tea.Batch(m.playerModel.Init(), m.helpModel.Init())
}

// Update handles messages and updates the models as appropriate
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch kb.GetActionByKey(msg, kb.ContextGlobal) {
		case kb.ActionQuit:
			log.Info("Quit command received.  Saving progress and shutting down...")
			return m.stop()
		case kb.ActionToggleHelp:
			if m.activeModal != ModalNone {
				m.activeModal = ModalNone
			} else if !m.stopping {
				m.activeModal = ModalHelp
			}
			return m, nil
		case kb.ActionBack:
			if m.activeModal != ModalNone {
				m.activeModal = ModalNone
				return m, nil
			}
		}

		if m.activeModal == ModalHelp {
			return m.updateChild(m.helpModel, msg)
		}
		if m.activeView == ViewPlayer && kb.GetActionByKey(msg, kb.ContextPlayer) == kb.ActionStop {
			log.Info("Stop requested from the player view")
			return m.stop()
		}

	case tea.WindowSizeMsg:
		log.Debug("Window size changed", "width", msg.Width, "height", msg.Height)
		m.width = msg.Width
		m.height = msg.Height

		m.playerModel.Resize(msg.Width, msg.Height)
		m.helpModel.Resize(msg.Width, msg.Height)
		if m.loadingModel != nil {
			m.loadingModel.Resize(msg.Width, msg.Height)
		}
		return m, nil

	case PlaybackStoppedMsg:
		log.Info("Player event stream closed")
		return m.stop()

	case UnmountedMsg:
		m.err = msg.Err
		if msg.Err != nil {
			log.Error("Player teardown finished with errors", "error", msg.Err)
		} else {
			log.Info("Player torn down")
		}
		return m, tea.Quit

	case PlaybackEventMsg, SessionTickMsg, HostErrorMsg:
		// The player keeps its session current even while another view is showing
		return m.updateChild(m.playerModel, msg)
	}

	switch m.activeView {
	case ViewLoading:
		return m.updateChild(m.loadingModel, msg)
	case ViewPlayer:
		return m.updateChild(m.playerModel, msg)
	}
	return m, nil
}

// stop swaps to the saving screen and unmounts the player.  Only the first request does anything.
func (m AppModel) stop() (tea.Model, tea.Cmd) {
	if m.stopping {
		return m, nil
	}
	m.stopping = true
	m.activeModal = ModalNone
	m.activeView = ViewLoading
	m.loadingModel = NewLoadingModel("Saving progress").WithContextInfo("Stopping the player")
	m.loadingModel.Resize(m.width, m.height)

	host, timeout := m.host, m.unmountTimeout
	unmount := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return UnmountedMsg{Err: host.Unmount(ctx)}
	}
	return m, tea.Batch(m.loadingModel.Init(), unmount)
}

func (m AppModel) updateChild(child Model, msg tea.Msg) (tea.Model, tea.Cmd) {
	if child == nil {
		return m, nil
	}
	_, cmd := child.Update(msg)
	return m, cmd
}

func (m AppModel) View() string {
	if m.activeModal == ModalHelp {
		return m.helpModel.View()
	}

	switch m.activeView {
	case ViewLoading:
		return m.loadingModel.View()
	case ViewPlayer:
		return m.playerModel.View()
	default:
		return "Unknown view\nPress ctrl+c to quit."
	}
}
