package main

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"prochub/internal/update"
)

// consolePresenter shows update dialogs and notices outside the TUI, for
// `prochub --check`. Dialogs run on their own goroutine; Wait blocks until
// every dialog has been answered.
type consolePresenter struct {
	out         io.Writer
	interactive bool
	ask         func(d update.ConfirmDialog) (bool, error)

	success lipgloss.Style
	failure lipgloss.Style
	muted   lipgloss.Style

	mu sync.Mutex // serializes writes to out
	wg sync.WaitGroup
}

var _ update.Presenter = (*consolePresenter)(nil)

func newConsolePresenter(out io.Writer, interactive bool) *consolePresenter {
	renderer := lipgloss.NewRenderer(out)
	if termenv.EnvNoColor() {
		renderer.SetColorProfile(termenv.Ascii)
	}
	return &consolePresenter{
		out:         out,
		interactive: interactive,
		ask:         askWithForm,
		success:     renderer.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		failure:     renderer.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		muted:       renderer.NewStyle().Faint(true),
	}
}

// Confirm implements update.Presenter.
func (c *consolePresenter) Confirm(d update.ConfirmDialog) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		if !c.interactive {
			c.printf("%s\n%s\n%s\n", c.success.Render(d.Title), d.Body, c.muted.Render(d.URL))
			decline(d)
			return
		}

		accepted, err := c.ask(d)
		if err != nil {
			c.printf("%s\n", c.muted.Render(d.URL))
			decline(d)
			return
		}
		if accepted {
			if d.OnAccept != nil {
				d.OnAccept()
			}
			return
		}
		decline(d)
	}()
}

// Notice implements update.Presenter.
func (c *consolePresenter) Notice(kind update.NoticeKind, text string) {
	style := c.success
	prefix := "✓ "
	if kind == update.NoticeError {
		style = c.failure
		prefix = "✖ "
	}
	c.printf("%s\n", style.Render(prefix+text))
}

// Wait blocks until all dialogs have been answered.
func (c *consolePresenter) Wait() {
	c.wg.Wait()
}

func (c *consolePresenter) printf(format string, v ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintf(c.out, format, v...)
}

func decline(d update.ConfirmDialog) {
	if d.OnDecline != nil {
		d.OnDecline()
	}
}

func askWithForm(d update.ConfirmDialog) (bool, error) {
	var confirmed bool
	description := d.Body
	if d.Notes != "" {
		description += "\n\n" + d.Notes
	}
	form := huh.NewConfirm().
		Title(d.Title).
		Description(description).
		Affirmative(d.ConfirmLabel).
		Negative(d.CancelLabel).
		Value(&confirmed)

	if err := form.Run(); err != nil {
		return false, err
	}
	return confirmed, nil
}

// isInteractiveTTY reports whether stdin is a terminal we can prompt on.
func isInteractiveTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}
