package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"prochub/internal/config"
	"prochub/internal/history"
	"prochub/internal/i18n"
	"prochub/internal/ui"
	"prochub/internal/ui/theme"
	"prochub/internal/update"
)

type stubOpener struct {
	mu   sync.Mutex
	urls []string
}

func (o *stubOpener) Open(url string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.urls = append(o.urls, url)
	return nil
}

func manifestServer(t *testing.T, body string, status int) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestEnvironment(t *testing.T, local, url string) *environment {
	t.Helper()
	store, err := history.Open(context.Background(), filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("history.Open() error: %v", err)
	}
	env := &environment{
		settings:   config.Update{URL: url, Source: config.SourceManifest, Timeout: time.Second},
		cache:      update.NewVersionCache(update.StaticLocal(local)),
		source:     update.NewHTTPSource(url, update.WithTimeout(time.Second)),
		translator: i18n.New("en"),
		opener:     &stubOpener{},
		store:      store,
	}
	t.Cleanup(env.Close)
	return env
}

func TestComputeOverrides(t *testing.T) {
	locale := " en "
	debugOn := true
	noAuto := true
	url := "https://example.com/latest.json"
	flags := runtimeFlags{locale: &locale, debug: &debugOn, noAutoCheck: &noAuto, updateURL: &url}

	if got := computeOverrides(flags, map[string]struct{}{}); len(got) != 0 {
		t.Fatalf("unset flags produced overrides: %v", got)
	}

	visited := map[string]struct{}{"locale": {}, "debug": {}, "no-auto-check": {}, "update-url": {}}
	got := computeOverrides(flags, visited)
	want := map[string]any{
		config.KeyLocale:          "en",
		config.KeyDebug:           true,
		config.KeyUpdateAutoCheck: false,
		config.KeyUpdateURL:       url,
		config.KeyUpdateSource:    config.SourceManifest,
	}
	if len(got) != len(want) {
		t.Fatalf("overrides = %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("overrides[%s] = %v, want %v", k, got[k], v)
		}
	}
}

func TestNewRemoteSource(t *testing.T) {
	manifest := newRemoteSource(config.Update{Source: config.SourceManifest, URL: "https://x/latest.json", Timeout: time.Second})
	if _, ok := manifest.(*update.HTTPSource); !ok {
		t.Fatalf("manifest source = %T", manifest)
	}
	github := newRemoteSource(config.Update{Source: config.SourceGitHub, GitHubRepo: "owner/repo", Timeout: time.Second})
	if _, ok := github.(*update.HTTPSource); !ok {
		t.Fatalf("github source = %T", github)
	}
}

func TestRunCheckJSON(t *testing.T) {
	server := manifestServer(t, `{"version":"1.3.0","url":"https://example.com/dl"}`, http.StatusOK)
	env := newTestEnvironment(t, "1.2.0", server.URL)

	var out bytes.Buffer
	if code := runCheckJSON(context.Background(), env, &out); code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}

	var report checkReport
	if err := json.Unmarshal(out.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v\n%s", err, out.String())
	}
	if report.State != "update_available" || report.LocalVersion != "1.2.0" || report.RemoteVersion != "1.3.0" {
		t.Errorf("report = %+v", report)
	}

	entries, err := env.store.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent() error: %v", err)
	}
	if len(entries) != 1 || entries[0].State != "update_available" {
		t.Errorf("history = %+v", entries)
	}
}

func TestRunCheckJSONFailure(t *testing.T) {
	server := manifestServer(t, `{"version":`, http.StatusOK)
	env := newTestEnvironment(t, "1.2.0", server.URL)

	var out bytes.Buffer
	if code := runCheckJSON(context.Background(), env, &out); code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	var report checkReport
	if err := json.Unmarshal(out.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.State != "failed" || report.ErrorCode != "parse_failed" {
		t.Errorf("report = %+v", report)
	}
}

func TestRunCheckConsoleNonInteractive(t *testing.T) {
	server := manifestServer(t, `{"version":"1.3.0","url":"https://example.com/dl"}`, http.StatusOK)
	env := newTestEnvironment(t, "1.2.0", server.URL)

	var out bytes.Buffer
	presenter := newConsolePresenter(&out, false)
	if code := runCheck(context.Background(), env, presenter); code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	text := out.String()
	if !strings.Contains(text, "1.3.0") || !strings.Contains(text, "https://example.com/dl") {
		t.Errorf("console output missing version or url:\n%s", text)
	}
	if opened := env.opener.(*stubOpener).urls; len(opened) != 0 {
		t.Errorf("non-interactive check opened %v", opened)
	}
}

func TestRunCheckConsoleAccept(t *testing.T) {
	server := manifestServer(t, `{"version":"1.3.0","url":"https://example.com/dl"}`, http.StatusOK)
	env := newTestEnvironment(t, "1.2.0", server.URL)

	var out bytes.Buffer
	presenter := newConsolePresenter(&out, true)
	var asked update.ConfirmDialog
	presenter.ask = func(d update.ConfirmDialog) (bool, error) {
		asked = d
		return true, nil
	}

	if code := runCheck(context.Background(), env, presenter); code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if !strings.Contains(asked.Body, "1.3.0") {
		t.Errorf("dialog body = %q", asked.Body)
	}
	opened := env.opener.(*stubOpener).urls
	if len(opened) != 1 || opened[0] != "https://example.com/dl" {
		t.Errorf("opened = %v", opened)
	}
}

func TestRunCheckConsoleFailure(t *testing.T) {
	server := manifestServer(t, `oops`, http.StatusInternalServerError)
	env := newTestEnvironment(t, "1.2.0", server.URL)

	var out bytes.Buffer
	if code := runCheck(context.Background(), env, newConsolePresenter(&out, false)); code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.Contains(out.String(), "Failed to check for updates") {
		t.Errorf("error notice missing:\n%s", out.String())
	}
}

func TestConsolePresenterAskError(t *testing.T) {
	var out bytes.Buffer
	presenter := newConsolePresenter(&out, true)
	presenter.ask = func(update.ConfirmDialog) (bool, error) {
		return false, errors.New("interrupted")
	}
	declined := false
	presenter.Confirm(update.ConfirmDialog{
		URL:       "https://example.com/dl",
		OnAccept:  func() { t.Error("accepted after an error") },
		OnDecline: func() { declined = true },
	})
	presenter.Wait()

	if !declined {
		t.Error("dialog not declined")
	}
	if !strings.Contains(out.String(), "https://example.com/dl") {
		t.Errorf("url not printed:\n%s", out.String())
	}
}

func TestPrintHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	var empty bytes.Buffer
	if err := printHistory(context.Background(), path, false, &empty); err != nil {
		t.Fatalf("printHistory() error: %v", err)
	}
	if !strings.Contains(empty.String(), "No update checks") {
		t.Errorf("empty history output = %q", empty.String())
	}

	store, err := history.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("history.Open() error: %v", err)
	}
	_ = store.Record(context.Background(), update.UpdateAvailable("1.2.0", update.VersionInfo{Version: "1.3.0", URL: "https://example.com/dl"}))
	_ = store.Close()

	var table bytes.Buffer
	if err := printHistory(context.Background(), path, false, &table); err != nil {
		t.Fatalf("printHistory() error: %v", err)
	}
	for _, want := range []string{"STATE", "update_available", "1.3.0", "https://example.com/dl"} {
		if !strings.Contains(table.String(), want) {
			t.Errorf("table missing %q:\n%s", want, table.String())
		}
	}

	var js bytes.Buffer
	if err := printHistory(context.Background(), path, true, &js); err != nil {
		t.Fatalf("printHistory(json) error: %v", err)
	}
	var entries []history.Entry
	if err := json.Unmarshal(js.Bytes(), &entries); err != nil {
		t.Fatalf("decode history json: %v", err)
	}
	if len(entries) != 1 || entries[0].RemoteVersion != "1.3.0" {
		t.Errorf("entries = %+v", entries)
	}
}

// fakeProgram records sent messages. Run returns once a message arrives or
// after a short timeout.
type fakeProgram struct {
	mu     sync.Mutex
	msgs   []tea.Msg
	got    chan struct{}
	once   sync.Once
	waited bool
	wait   bool
}

func newFakeProgram(wait bool) *fakeProgram {
	return &fakeProgram{got: make(chan struct{}), wait: wait}
}

func (p *fakeProgram) Run() (tea.Model, error) {
	if p.wait {
		select {
		case <-p.got:
			p.waited = true
		case <-time.After(2 * time.Second):
		}
	}
	return nil, nil
}

func (p *fakeProgram) Send(msg tea.Msg) {
	p.mu.Lock()
	p.msgs = append(p.msgs, msg)
	p.mu.Unlock()
	p.once.Do(func() { close(p.got) })
}

func TestRunTUIWithoutAutoCheck(t *testing.T) {
	defer config.ResetForTesting(t)()
	server := manifestServer(t, `{"version":"1.3.0","url":"https://example.com/dl"}`, http.StatusOK)
	env := newTestEnvironment(t, "1.2.0", server.URL)
	env.settings.AutoCheck = false

	prog := newFakeProgram(false)
	var built *ui.App
	err := runTUI(env, func(app *ui.App) programRunner {
		built = app
		return prog
	})
	if err != nil {
		t.Fatalf("runTUI() error: %v", err)
	}
	if built == nil {
		t.Fatal("program factory not called")
	}
	prog.mu.Lock()
	defer prog.mu.Unlock()
	if len(prog.msgs) != 0 {
		t.Errorf("messages sent without a check: %v", prog.msgs)
	}
}

func TestRunTUIAutoCheckOffersUpdate(t *testing.T) {
	defer config.ResetForTesting(t)()
	t.Cleanup(func() { theme.SetTheme(config.DefaultTheme) })
	server := manifestServer(t, `{"version":"1.3.0","url":"https://example.com/dl"}`, http.StatusOK)
	env := newTestEnvironment(t, "1.2.0", server.URL)
	env.settings.AutoCheck = true
	env.settings.AutoCheckDelay = 0

	prog := newFakeProgram(true)
	if err := runTUI(env, func(*ui.App) programRunner { return prog }); err != nil {
		t.Fatalf("runTUI() error: %v", err)
	}
	if !prog.waited {
		t.Fatal("background check never reached the program")
	}
}

func TestRunTUINilFactory(t *testing.T) {
	defer config.ResetForTesting(t)()
	env := newTestEnvironment(t, "1.2.0", "https://example.com/latest.json")
	if err := runTUI(env, nil); err == nil {
		t.Fatal("runTUI(nil) should fail")
	}
}

func TestPrintVersion(t *testing.T) {
	var out bytes.Buffer
	printVersion(&out)
	if !strings.HasPrefix(out.String(), "prochub version "+Version) {
		t.Errorf("printVersion() = %q", out.String())
	}
}

func TestConsolePresenterNotice(t *testing.T) {
	var out bytes.Buffer
	presenter := newConsolePresenter(&out, false)
	presenter.Notice(update.NoticeSuccess, "all good")
	presenter.Notice(update.NoticeError, "broken")

	text := out.String()
	if !strings.Contains(text, "✓ all good") || !strings.Contains(text, "✖ broken") {
		t.Errorf("notices = %q", text)
	}
}
