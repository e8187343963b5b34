// Package ui implements the prochub terminal interface: a status screen that
// shows the running version, lets the user check for updates and hosts the
// update dialog and notices produced by the update prompter.
package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"prochub/internal/debug"
	"prochub/internal/i18n"
	"prochub/internal/ui/theme"
	"prochub/internal/update"
)

// Config wires the App to the update flow.
type Config struct {
	AppName    string
	Prompter   *update.Prompter
	Cache      *update.VersionCache
	Translator update.Translator
	// NotesFormat selects the glamour style for release notes ("plain"
	// disables markdown rendering).
	NotesFormat string
	// SaveTheme persists a theme picked with the theme key. Optional.
	SaveTheme func(name string) error
}

// App is the root Bubble Tea model.
type App struct {
	appName    string
	prompter   *update.Prompter
	cache      *update.VersionCache
	translator update.Translator
	saveTheme  func(string) error
	markdown   func(string) string
	keys       KeyMap
	spinner    spinner.Model
	logf       func(format string, v ...any)
	now        func() time.Time

	width  int
	height int

	version  string
	checking bool
	offered  bool
	dialog   *ConfirmOverlay
	toast    *toast
}

// NewApp creates the root model.
func NewApp(cfg Config) *App {
	tr := cfg.Translator
	if tr == nil {
		tr = i18n.New("en")
	}
	name := cfg.AppName
	if strings.TrimSpace(name) == "" {
		name = "prochub"
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &App{
		appName:    name,
		prompter:   cfg.Prompter,
		cache:      cfg.Cache,
		translator: tr,
		saveTheme:  cfg.SaveTheme,
		markdown:   buildMarkdownRenderer(cfg.NotesFormat, dialogWidth-6),
		keys:       DefaultKeyMap(tr),
		spinner:    sp,
		logf:       debug.Scoped("ui"),
		now:        time.Now,
		width:      80,
		height:     24,
	}
}

// Init resolves the local version for the header.
func (m *App) Init() tea.Cmd {
	if m.cache == nil {
		return nil
	}
	cache := m.cache
	return func() tea.Msg {
		v, err := cache.Get(context.Background())
		return localVersionMsg{version: v, err: err}
	}
}

// Update implements tea.Model.
func (m *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case localVersionMsg:
		if msg.err != nil {
			m.logf("resolve local version: %v", msg.err)
			m.version = update.Unknown
			return m, nil
		}
		m.version = msg.version
		return m, nil

	case confirmRequestMsg:
		if m.dialog != nil {
			m.logf("dropping update dialog while another is open")
			if msg.dialog.OnDecline != nil {
				msg.dialog.OnDecline()
			}
			return m, nil
		}
		m.dialog = NewConfirmOverlay(msg.dialog, m.markdown)
		return m, nil

	case ConfirmAnsweredMsg:
		return m, m.answer(msg.Accepted)

	case noticeMsg:
		m.toast = &toast{kind: msg.kind, text: msg.text, start: m.now()}
		return m, scheduleToastTick()

	case toastTickMsg:
		if m.toast == nil {
			return m, nil
		}
		if m.toast.expired(m.now()) {
			m.toast = nil
			return m, nil
		}
		return m, scheduleToastTick()

	case checkFinishedMsg:
		m.checking = false
		m.offered = msg.offered
		return m, nil

	case spinner.TickMsg:
		if !m.checking {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.dialog != nil {
		var cmd tea.Cmd
		m.dialog, cmd = m.dialog.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Check):
		return m, m.startCheck()
	case key.Matches(msg, m.keys.Theme):
		name := theme.CycleTheme()
		if m.saveTheme != nil {
			if err := m.saveTheme(name); err != nil {
				m.logf("save theme %s: %v", name, err)
			}
		}
		return m, nil
	}
	return m, nil
}

// startCheck runs a manual check with both notices enabled. Check runs off
// the event loop because the presenter sends back into the program.
func (m *App) startCheck() tea.Cmd {
	if m.checking || m.prompter == nil {
		return nil
	}
	m.checking = true
	m.offered = false
	prompter := m.prompter
	run := func() tea.Msg {
		offered := prompter.Check(context.Background(), update.Options{
			ShowLatestMessage: true,
			ShowErrorMessage:  true,
		})
		return checkFinishedMsg{offered: offered}
	}
	return tea.Batch(m.spinner.Tick, run)
}

func (m *App) answer(accepted bool) tea.Cmd {
	if m.dialog == nil {
		return nil
	}
	d := m.dialog.Dialog()
	m.dialog = nil

	callback := d.OnDecline
	if accepted {
		callback = d.OnAccept
	}
	if callback == nil {
		return nil
	}
	// Opening a browser may block briefly; keep it off the event loop.
	return func() tea.Msg {
		callback()
		return nil
	}
}

// View implements tea.Model.
func (m *App) View() string {
	width := max(m.width, 20)
	height := max(m.height, 5)

	header := styleHeader().Width(width).Render(truncate(m.headerText(), width-2))
	footer := styleFooter().Width(width).Render(truncate(m.footerText(), width-2))
	bodyHeight := height - lipgloss.Height(header) - lipgloss.Height(footer)
	body := lipgloss.NewStyle().
		Width(width).
		Height(max(bodyHeight, 1)).
		Padding(1, 2).
		Render(m.bodyText())

	frame := lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
	if m.dialog == nil && m.toast == nil {
		return frame
	}

	canvas := NewCanvas(width, height)
	canvas.DrawStringAt(0, 0, frame)
	if m.toast != nil {
		canvas.BottomRightOverlay(m.toast.render(m.now()), 1, lipgloss.Height(footer))
	}
	if m.dialog != nil {
		canvas.CenterOverlay(m.dialog.View(), lipgloss.Height(header), lipgloss.Height(footer))
	}
	return canvas.Render()
}

func (m *App) headerText() string {
	version := m.version
	if version == "" {
		version = "…"
	}
	return m.appName + "  " + m.translator.T(i18n.KeyCurrentVersion, map[string]string{"version": version})
}

func (m *App) bodyText() string {
	switch {
	case m.checking:
		return m.spinner.View() + " " + styleText().Render(m.translator.T(i18n.KeyChecking, nil))
	case m.offered:
		return styleAccent().Render(m.translator.T(i18n.KeyUpdateAvailable, nil))
	}
	return ""
}

func (m *App) footerText() string {
	hints := []key.Binding{m.keys.Check, m.keys.Theme, m.keys.Quit}
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts, h.Help().Key+" "+h.Help().Desc)
	}
	return strings.Join(parts, " • ")
}

// Checking reports whether a manual check is running.
func (m *App) Checking() bool {
	return m.checking
}
