// Package keymap defines keybindings for the TUI.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines all keybindings for the navigation TUI.
type KeyMap struct {
	// Quit stops guidance and exits.
	Quit key.Binding

	// Stop ends the navigation session but keeps the final screen.
	Stop key.Binding

	// Resume leaves reorienting without waiting for the timeout.
	Resume key.Binding

	// Repeat re-announces the last instruction.
	Repeat key.Binding

	// Help toggles the full help.
	Help key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Stop: key.NewBinding(
			key.WithKeys("s", "esc"),
			key.WithHelp("s", "stop"),
		),
		Resume: key.NewBinding(
			key.WithKeys("r", " "),
			key.WithHelp("r", "resume"),
		),
		Repeat: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "repeat"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}
}

// ShortHelp returns a short list of keybindings for the status bar.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Stop, k.Quit, k.Help}
}

// ReorientHelp returns keybindings shown while reorienting.
func (k *KeyMap) ReorientHelp() []key.Binding {
	return []key.Binding{k.Resume, k.Stop, k.Quit}
}

// FullHelp returns the full list of keybindings for the help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Resume, k.Repeat},
		{k.Stop, k.Quit, k.Help},
	}
}

// Matches checks if a key string matches a binding.
func Matches(keyStr string, binding key.Binding) bool {
	for _, k := range binding.Keys() {
		if k == keyStr {
			return true
		}
	}
	return false
}
