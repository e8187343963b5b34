package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"prochub/internal/update"
)

const (
	successToastDuration = 5 * time.Second
	errorToastDuration   = 10 * time.Second
	toastMinWidth        = 30
)

type toast struct {
	kind  update.NoticeKind
	text  string
	start time.Time
}

func (t toast) duration() time.Duration {
	if t.kind == update.NoticeError {
		return errorToastDuration
	}
	return successToastDuration
}

func (t toast) expired(now time.Time) bool {
	return now.Sub(t.start) >= t.duration()
}

// render draws the toast with a right-aligned countdown.
func (t toast) render(now time.Time) string {
	remaining := int((t.duration() - now.Sub(t.start)).Seconds())
	remaining = max(remaining, 0)

	msgLine := t.text
	if t.kind == update.NoticeError {
		msgLine = "⚠ " + msgLine
	}
	countdown := fmt.Sprintf("[%ds]", remaining)

	width := max(lipgloss.Width(msgLine), toastMinWidth)
	padding := max(width-len(countdown), 0)
	content := fmt.Sprintf("%s\n%s%s", msgLine, strings.Repeat(" ", padding), countdown)

	if t.kind == update.NoticeError {
		return styleErrorToast().Render(content)
	}
	return styleSuccessToast().Render(content)
}

func scheduleToastTick() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return toastTickMsg{}
	})
}
