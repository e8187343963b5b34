package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/wordwrap"

	"prochub/internal/update"
)

const maxNotesLines = 8

// ConfirmOverlay is the modal that offers an available update.
type ConfirmOverlay struct {
	dialog update.ConfirmDialog
	keys   confirmKeys
	notes  []string
}

type confirmKeys struct {
	Accept  key.Binding
	Decline key.Binding
}

// NewConfirmOverlay creates the overlay for d. Release notes are rendered
// as markdown and clipped to a few lines.
func NewConfirmOverlay(d update.ConfirmDialog, markdown func(string) string) *ConfirmOverlay {
	m := &ConfirmOverlay{
		dialog: d,
		keys: confirmKeys{
			Accept:  key.NewBinding(key.WithKeys("y", "enter"), key.WithHelp("y/enter", d.ConfirmLabel)),
			Decline: key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n/esc", d.CancelLabel)),
		},
	}
	if notes := strings.TrimSpace(d.Notes); notes != "" {
		if markdown != nil {
			notes = markdown(notes)
		}
		lines := splitLines(notes)
		if len(lines) > maxNotesLines {
			lines = append(lines[:maxNotesLines], "…")
		}
		m.notes = lines
	}
	return m
}

// Dialog returns the dialog being shown.
func (m *ConfirmOverlay) Dialog() update.ConfirmDialog {
	return m.dialog
}

// Update handles the accept and decline keys.
func (m *ConfirmOverlay) Update(msg tea.Msg) (*ConfirmOverlay, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(keyMsg, m.keys.Accept):
		return m, func() tea.Msg { return ConfirmAnsweredMsg{Accepted: true} }
	case key.Matches(keyMsg, m.keys.Decline):
		return m, func() tea.Msg { return ConfirmAnsweredMsg{Accepted: false} }
	}
	return m, nil
}

// View renders the dialog box.
func (m *ConfirmOverlay) View() string {
	inner := dialogWidth - 6
	divider := styleMuted().Render(strings.Repeat("─", inner))

	lines := []string{
		styleAccent().Render(truncate(m.dialog.Title, inner)),
		divider,
		"",
	}
	for _, line := range splitLines(wordwrap.String(m.dialog.Body, inner)) {
		lines = append(lines, styleText().Render(line))
	}
	if len(m.notes) > 0 {
		lines = append(lines, "")
		for _, line := range m.notes {
			lines = append(lines, truncate(line, inner))
		}
	}
	lines = append(lines, "", divider, m.footer())

	return styleDialog().Render(strings.Join(lines, "\n"))
}

func (m *ConfirmOverlay) footer() string {
	hints := []key.Binding{m.keys.Accept, m.keys.Decline}
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts, styleAccent().Render(h.Help().Key)+" "+styleText().Render(h.Help().Desc))
	}
	return strings.Join(parts, "   ")
}
