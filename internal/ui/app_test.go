package ui

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"prochub/internal/i18n"
	"prochub/internal/ui/theme"
	"prochub/internal/update"
)

type recordingSender struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (s *recordingSender) Send(msg tea.Msg) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
}

func (s *recordingSender) drain() []tea.Msg {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.msgs
	s.msgs = nil
	return out
}

type recordingOpener struct {
	mu   sync.Mutex
	urls []string
}

func (o *recordingOpener) Open(url string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.urls = append(o.urls, url)
	return nil
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestApp(t *testing.T, local, manifest string) (*App, *recordingSender, *recordingOpener) {
	t.Helper()
	sender := &recordingSender{}
	presenter := NewPresenter()
	presenter.Attach(sender)
	opener := &recordingOpener{}

	cache := update.NewVersionCache(update.StaticLocal(local))
	prompter := update.NewPrompter(cache,
		update.RemoteSourceFunc(func(context.Context) (update.Payload, error) {
			return update.TextPayload(manifest), nil
		}),
		update.WithPresenter(presenter),
		update.WithOpener(opener),
		update.WithTranslator(i18n.New("en")),
		update.WithLogger(func(string, ...any) {}),
	)
	app := NewApp(Config{
		Prompter:    prompter,
		Cache:       cache,
		Translator:  i18n.New("en"),
		NotesFormat: "plain",
	})
	app.logf = func(string, ...any) {}
	app.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return app, sender, opener
}

// deliver feeds everything the presenter sent into the app.
func deliver(app *App, sender *recordingSender) {
	for _, msg := range sender.drain() {
		app.Update(msg)
	}
}

func runCmd(cmd tea.Cmd) tea.Msg {
	if cmd == nil {
		return nil
	}
	return cmd()
}

func TestAppInitShowsLocalVersion(t *testing.T) {
	app, _, _ := newTestApp(t, "1.2.0", `{"version":"1.2.0"}`)
	app.Update(runCmd(app.Init()))

	view := ansi.Strip(app.View())
	if !strings.Contains(view, "Current version: 1.2.0") {
		t.Errorf("header missing version:\n%s", view)
	}
}

func TestAppUpdateDialogAccept(t *testing.T) {
	app, sender, opener := newTestApp(t, "1.2.0", `{"version":"1.3.0","url":"https://example.com/dl","notes":"- faster startup"}`)

	if !app.prompter.Check(context.Background(), update.Options{}) {
		t.Fatal("Check() = false, want true")
	}
	deliver(app, sender)
	if app.dialog == nil {
		t.Fatal("dialog not shown")
	}

	view := ansi.Strip(app.View())
	for _, want := range []string{"Update available", "1.3.0", "faster startup", "y/enter"} {
		if !strings.Contains(view, want) {
			t.Errorf("dialog view missing %q:\n%s", want, view)
		}
	}

	// Other keys are swallowed by the dialog.
	if _, cmd := app.Update(keyRunes("q")); cmd != nil {
		t.Error("q should not quit while the dialog is open")
	}

	_, cmd := app.Update(keyRunes("y"))
	answered, ok := runCmd(cmd).(ConfirmAnsweredMsg)
	if !ok || !answered.Accepted {
		t.Fatalf("y produced %#v, want accepted answer", answered)
	}
	_, cmd = app.Update(answered)
	runCmd(cmd)

	if app.dialog != nil {
		t.Error("dialog still open after answering")
	}
	if len(opener.urls) != 1 || opener.urls[0] != "https://example.com/dl" {
		t.Errorf("opened %v", opener.urls)
	}
	if app.prompter.DialogPending() {
		t.Error("prompter still reports a pending dialog")
	}
}

func TestAppUpdateDialogDecline(t *testing.T) {
	app, sender, opener := newTestApp(t, "1.2.0", `{"version":"1.3.0","url":"https://example.com/dl"}`)
	app.prompter.Check(context.Background(), update.Options{})
	deliver(app, sender)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	answered := runCmd(cmd).(ConfirmAnsweredMsg)
	if answered.Accepted {
		t.Fatal("esc accepted the dialog")
	}
	_, cmd = app.Update(answered)
	runCmd(cmd)

	if len(opener.urls) != 0 {
		t.Errorf("opened %v after decline", opener.urls)
	}
	if app.prompter.DialogPending() {
		t.Error("prompter still reports a pending dialog")
	}
}

func TestAppSecondDialogIsDeclined(t *testing.T) {
	app, _, _ := newTestApp(t, "1.2.0", `{"version":"1.2.0"}`)
	var declined int
	d := update.ConfirmDialog{Title: "one", OnDecline: func() { declined++ }}

	app.Update(confirmRequestMsg{dialog: d})
	app.Update(confirmRequestMsg{dialog: update.ConfirmDialog{Title: "two", OnDecline: func() { declined++ }}})

	if app.dialog == nil || app.dialog.Dialog().Title != "one" {
		t.Fatalf("first dialog replaced")
	}
	if declined != 1 {
		t.Errorf("declined = %d, want 1", declined)
	}
}

func TestAppSuccessToast(t *testing.T) {
	app, sender, _ := newTestApp(t, "1.2.0", `{"version":"1.2.0"}`)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	app.now = func() time.Time { return start }

	app.prompter.Check(context.Background(), update.Options{ShowLatestMessage: true})
	deliver(app, sender)

	if app.toast == nil || app.toast.kind != update.NoticeSuccess {
		t.Fatalf("toast = %+v, want success", app.toast)
	}
	view := ansi.Strip(app.View())
	if !strings.Contains(view, "You are using the latest version") || !strings.Contains(view, "[5s]") {
		t.Errorf("toast not rendered:\n%s", view)
	}

	if _, cmd := app.Update(toastTickMsg{}); cmd == nil {
		t.Error("toast tick should reschedule while visible")
	}
	app.now = func() time.Time { return start.Add(successToastDuration) }
	app.Update(toastTickMsg{})
	if app.toast != nil {
		t.Error("toast should expire")
	}
}

func TestAppErrorToast(t *testing.T) {
	app, sender, _ := newTestApp(t, "1.2.0", `{"version":`)
	app.prompter.Check(context.Background(), update.Options{ShowErrorMessage: true})
	deliver(app, sender)

	if app.toast == nil || app.toast.kind != update.NoticeError {
		t.Fatalf("toast = %+v, want error", app.toast)
	}
	if !strings.Contains(ansi.Strip(app.View()), "Failed to check for updates") {
		t.Errorf("error toast not rendered")
	}
}

func TestAppManualCheckKey(t *testing.T) {
	app, _, _ := newTestApp(t, "1.2.0", `{"version":"1.2.0"}`)

	_, cmd := app.Update(keyRunes("u"))
	if cmd == nil || !app.Checking() {
		t.Fatal("u should start a check")
	}
	if !strings.Contains(ansi.Strip(app.View()), "Checking for updates") {
		t.Error("body should show the checking status")
	}
	if _, again := app.Update(keyRunes("u")); again != nil {
		t.Error("a second u while checking should be ignored")
	}

	app.Update(checkFinishedMsg{offered: true})
	if app.Checking() {
		t.Error("still checking after checkFinishedMsg")
	}
	if !strings.Contains(ansi.Strip(app.View()), "Update available") {
		t.Error("body should report the available update")
	}
}

func TestAppQuit(t *testing.T) {
	app, _, _ := newTestApp(t, "1.2.0", `{"version":"1.2.0"}`)
	_, cmd := app.Update(keyRunes("q"))
	if _, ok := runCmd(cmd).(tea.QuitMsg); !ok {
		t.Fatal("q should quit")
	}
}

func TestAppThemeKey(t *testing.T) {
	t.Cleanup(func() { theme.SetTheme("midnight") })
	theme.SetTheme("midnight")

	app, _, _ := newTestApp(t, "1.2.0", `{"version":"1.2.0"}`)
	var saved string
	app.saveTheme = func(name string) error {
		saved = name
		return nil
	}
	app.Update(keyRunes("t"))

	if theme.CurrentName() != "mono" || saved != "mono" {
		t.Errorf("theme = %q, saved = %q, want mono", theme.CurrentName(), saved)
	}
}

func TestPresenterHoldsMessagesUntilAttached(t *testing.T) {
	p := NewPresenter()
	p.Notice(update.NoticeSuccess, "hello")
	p.Confirm(update.ConfirmDialog{Title: "t"})

	sender := &recordingSender{}
	p.Attach(sender)
	p.Notice(update.NoticeError, "after")

	msgs := sender.drain()
	if len(msgs) != 3 {
		t.Fatalf("sent %d messages, want 3", len(msgs))
	}
	if n, ok := msgs[0].(noticeMsg); !ok || n.text != "hello" {
		t.Errorf("first message = %#v", msgs[0])
	}
	if _, ok := msgs[1].(confirmRequestMsg); !ok {
		t.Errorf("second message = %#v", msgs[1])
	}
	if n, ok := msgs[2].(noticeMsg); !ok || n.kind != update.NoticeError {
		t.Errorf("third message = %#v", msgs[2])
	}
}
