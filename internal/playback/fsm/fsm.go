// Package fsm provides a small, strict finite-state machine.  Unknown transitions are errors rather than no-ops so
// that out-of-order callbacks are visible to the caller.
package fsm

import (
	"fmt"
	"sync"
)

// Transition describes a single edge in the FSM
type Transition[S ~string, E ~string] struct {
	From  S
	Event E
	To    S
}

// TransitionError is returned when an event is not valid in the current state
type TransitionError[S ~string, E ~string] struct {
	State S
	Event E
}

func (e *TransitionError[S, E]) Error() string {
	return fmt.Sprintf("invalid transition: state=%s event=%s", e.State, e.Event)
}

// Machine holds the current state and the transition table
type Machine[S ~string, E ~string] struct {
	mu    sync.Mutex
	state S
	index map[string]S
}

// New builds a machine starting in initial.  Duplicate edges are rejected.
func New[S ~string, E ~string](initial S, transitions []Transition[S, E]) (*Machine[S, E], error) {
	idx := make(map[string]S, len(transitions))
	for _, t := range transitions {
		k := key(t.From, t.Event)
		if _, exists := idx[k]; exists {
			return nil, fmt.Errorf("duplicate transition: %s -> %s", t.From, t.Event)
		}
		idx[k] = t.To
	}
	return &Machine[S, E]{state: initial, index: idx}, nil
}

// MustNew is New for static tables that are known to be valid
func MustNew[S ~string, E ~string](initial S, transitions []Transition[S, E]) *Machine[S, E] {
	m, err := New(initial, transitions)
	if err != nil {
		panic(err)
	}
	return m
}

// State returns the current state
func (m *Machine[S, E]) State() S {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Can reports whether event is valid in the current state
func (m *Machine[S, E]) Can(event E) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.index[key(m.state, event)]
	return ok
}

// Fire applies an event.  On success it returns the previous and new state.
func (m *Machine[S, E]) Fire(event E) (from S, to S, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	from = m.state
	to, ok := m.index[key(from, event)]
	if !ok {
		return from, from, &TransitionError[S, E]{State: from, Event: event}
	}
	m.state = to
	return from, to, nil
}

// FromEach expands one event edge to every listed source state
func FromEach[S ~string, E ~string](event E, to S, from ...S) []Transition[S, E] {
	out := make([]Transition[S, E], 0, len(from))
	for _, f := range from {
		out = append(out, Transition[S, E]{From: f, Event: event, To: to})
	}
	return out
}

func key[S ~string, E ~string](from S, event E) string {
	return string(from) + "|" + string(event)
}
