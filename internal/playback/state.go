package playback

import (
	"github.com/PizzaHomicide/haven/internal/playback/fsm"
)

// State is the lifecycle state of a mounted player
type State string

const (
	StateUnloaded       State = "unloaded"
	StateInitializing   State = "initializing"
	StateManifestLoaded State = "manifest_loaded"
	StateStreamReady    State = "stream_ready"
	StatePlaying        State = "playing"
	StatePaused         State = "paused"
	StateEnded          State = "ended"
	StateTorndown       State = "torndown"
)

type trigger string

const (
	triggerInitialize      trigger = "initialize"
	triggerManifestLoaded  trigger = "manifest_loaded"
	triggerSourcesAttached trigger = "sources_attached"
	triggerStreamReady     trigger = "stream_ready"
	triggerPlay            trigger = "play"
	triggerPause           trigger = "pause"
	triggerEnd             trigger = "end"
	triggerTeardown        trigger = "teardown"
)

func lifecycleTransitions() []fsm.Transition[State, trigger] {
	transitions := []fsm.Transition[State, trigger]{
		{From: StateUnloaded, Event: triggerInitialize, To: StateInitializing},
		{From: StateInitializing, Event: triggerManifestLoaded, To: StateManifestLoaded},
		{From: StateInitializing, Event: triggerSourcesAttached, To: StateStreamReady},
		{From: StateManifestLoaded, Event: triggerStreamReady, To: StateStreamReady},
		{From: StatePlaying, Event: triggerPause, To: StatePaused},
	}
	transitions = append(transitions, fsm.FromEach(triggerPlay, StatePlaying, StateStreamReady, StatePaused, StateEnded)...)
	transitions = append(transitions, fsm.FromEach(triggerEnd, StateEnded, StatePlaying, StatePaused)...)
	transitions = append(transitions, fsm.FromEach(triggerTeardown, StateTorndown,
		StateUnloaded, StateInitializing, StateManifestLoaded, StateStreamReady, StatePlaying, StatePaused, StateEnded)...)
	return transitions
}

func newLifecycle() *fsm.Machine[State, trigger] {
	return fsm.MustNew(StateUnloaded, lifecycleTransitions())
}

// started reports whether playback began and has not ended
func (s State) started() bool {
	return s == StatePlaying || s == StatePaused
}

// ready reports whether the stream can produce position ticks
func (s State) ready() bool {
	return s == StateStreamReady || s == StatePlaying || s == StatePaused
}
