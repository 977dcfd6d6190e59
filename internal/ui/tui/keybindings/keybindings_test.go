package keybindings

import (
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestNoDuplicateKeyBindings(t *testing.T) {
	// Check each context individually
	for contextName, bindings := range ContextBindings {
		t.Run(fmt.Sprintf("Context_%s", contextName), func(t *testing.T) {
			keyToAction := make(map[string]Action)

			for _, binding := range bindings {
				// Check primary key
				if existingAction, exists := keyToAction[binding.KeyMap.Primary]; exists {
					t.Errorf("Duplicate key binding '%s' in context '%s': "+
						"first assigned to action '%s', then to '%s'",
						binding.KeyMap.Primary, contextName, existingAction, binding.Action)
				} else {
					keyToAction[binding.KeyMap.Primary] = binding.Action
				}

				// Check secondary key if it exists
				if binding.KeyMap.Secondary != "" {
					if existingAction, exists := keyToAction[binding.KeyMap.Secondary]; exists {
						t.Errorf("Duplicate key binding '%s' in context '%s': "+
							"first assigned to action '%s', then to '%s'",
							binding.KeyMap.Secondary, contextName, existingAction, binding.Action)
					} else {
						keyToAction[binding.KeyMap.Secondary] = binding.Action
					}
				}
			}
		})
	}
}

func TestPlayerKeysDoNotShadowGlobalKeys(t *testing.T) {
	for _, binding := range ContextBindings[ContextPlayer] {
		for _, key := range []string{binding.KeyMap.Primary, binding.KeyMap.Secondary} {
			if key == "" {
				continue
			}
			if action, _ := GetBindingByKey(key, ContextBindings[ContextGlobal]); action != "" {
				t.Errorf("Player key '%s' for '%s' is already bound globally to '%s'", key, binding.Action, action)
			}
		}
	}
}

func TestGetActionByKey(t *testing.T) {
	tests := []struct {
		name    string
		msg     tea.KeyMsg
		context ContextName
		want    Action
	}{
		{"space pauses", tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}, ContextPlayer, ActionTogglePause},
		{"secondary key", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'p'}}, ContextPlayer, ActionTogglePause},
		{"captions", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'c'}}, ContextPlayer, ActionToggleCaptions},
		{"quit", tea.KeyMsg{Type: tea.KeyCtrlC}, ContextGlobal, ActionQuit},
		{"unbound", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'z'}}, ContextPlayer, ""},
		{"unknown context", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'c'}}, ContextName("nope"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetActionByKey(tt.msg, tt.context); got != tt.want {
				t.Errorf("GetActionByKey() = %q, want %q", got, tt.want)
			}
		})
	}
}
