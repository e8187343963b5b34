package ui

import (
	"github.com/charmbracelet/bubbles/key"

	"prochub/internal/i18n"
	"prochub/internal/update"
)

// KeyMap defines the keyboard shortcuts of the main screen.
type KeyMap struct {
	Check key.Binding
	Theme key.Binding
	Quit  key.Binding
}

// DefaultKeyMap returns the default keybindings with help text in the
// translator's language.
func DefaultKeyMap(tr update.Translator) KeyMap {
	return KeyMap{
		Check: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", tr.T(i18n.KeyHintCheck, nil)),
		),
		Theme: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", tr.T(i18n.KeyHintTheme, nil)),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", tr.T(i18n.KeyHintQuit, nil)),
		),
	}
}
