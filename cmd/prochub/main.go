package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"prochub/internal/browser"
	"prochub/internal/config"
	"prochub/internal/debug"
	appErrors "prochub/internal/errors"
	"prochub/internal/history"
	"prochub/internal/i18n"
	"prochub/internal/ui"
	"prochub/internal/ui/theme"
	"prochub/internal/update"
)

func main() {
	if err := config.Initialize(); err != nil {
		fmt.Printf("Error initializing config: %v\n", err)
		os.Exit(1)
	}

	versionFlag := flag.Bool("version", false, "Print version information and exit")
	checkFlag := flag.Bool("check", false, "Check for updates once and exit")
	jsonFlag := flag.Bool("json", false, "With --check or --history, print JSON")
	historyFlag := flag.Bool("history", false, "Print recent update checks and exit")
	localeFlag := flag.String("locale", config.GetString(config.KeyLocale), "Language for prompts (en, zh)")
	debugFlag := flag.Bool("debug", config.GetBool(config.KeyDebug), "Write a debug log to ~/.prochub/debug.log")
	noAutoCheckFlag := flag.Bool("no-auto-check", false, "Skip the background update check")
	updateURLFlag := flag.String("update-url", config.GetString(config.KeyUpdateURL), "Manifest URL for update checks")
	flag.Parse()

	if *versionFlag {
		printVersion(os.Stdout)
		os.Exit(0)
	}

	visited := map[string]struct{}{}
	flag.CommandLine.Visit(func(f *flag.Flag) {
		visited[f.Name] = struct{}{}
	})

	overrides := computeOverrides(runtimeFlags{
		locale:      localeFlag,
		debug:       debugFlag,
		noAutoCheck: noAutoCheckFlag,
		updateURL:   updateURLFlag,
	}, visited)
	if err := config.ApplyOverrides(overrides); err != nil {
		fmt.Fprintf(os.Stderr, "Error applying flags: %v\n", err)
		os.Exit(1)
	}

	if err := debug.Init(config.GetBool(config.KeyDebug)); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: debug log unavailable: %v\n", err)
	}

	mode := modeTUI
	switch {
	case *historyFlag:
		mode = modeHistory
	case *checkFlag:
		mode = modeCheck
	}

	code := run(context.Background(), mode, *jsonFlag, os.Stdout, os.Stderr)
	debug.Close()
	os.Exit(code)
}

type runMode int

const (
	modeTUI runMode = iota
	modeCheck
	modeHistory
)

type runtimeFlags struct {
	locale      *string
	debug       *bool
	noAutoCheck *bool
	updateURL   *string
}

// computeOverrides turns explicitly set flags into config overrides so they
// win over files and environment.
func computeOverrides(flags runtimeFlags, visited map[string]struct{}) map[string]any {
	overrides := map[string]any{}
	if flagWasExplicitlySet("locale", visited) {
		overrides[config.KeyLocale] = strings.TrimSpace(*flags.locale)
	}
	if flagWasExplicitlySet("debug", visited) {
		overrides[config.KeyDebug] = *flags.debug
	}
	if flagWasExplicitlySet("no-auto-check", visited) && *flags.noAutoCheck {
		overrides[config.KeyUpdateAutoCheck] = false
	}
	if flagWasExplicitlySet("update-url", visited) {
		overrides[config.KeyUpdateURL] = strings.TrimSpace(*flags.updateURL)
		overrides[config.KeyUpdateSource] = config.SourceManifest
	}
	return overrides
}

func flagWasExplicitlySet(name string, visited map[string]struct{}) bool {
	_, ok := visited[name]
	return ok
}

// environment holds the collaborators every mode shares.
type environment struct {
	settings   config.Update
	cache      *update.VersionCache
	source     update.RemoteSource
	translator *i18n.Catalog
	opener     update.Opener
	store      *history.Store
}

func (e *environment) Close() {
	if e.store != nil {
		_ = e.store.Close()
	}
}

// newPrompter builds a Prompter over the shared collaborators. A nil
// presenter keeps the silent default. Every verdict passes through tap.
func (e *environment) newPrompter(presenter update.Presenter, tap *verdictTap) *update.Prompter {
	opts := []update.PrompterOption{
		update.WithOpener(e.opener),
		update.WithTranslator(e.translator),
	}
	if presenter != nil {
		opts = append(opts, update.WithPresenter(presenter))
	}
	if tap != nil {
		tap.next = e.recorder()
		opts = append(opts, update.WithRecorder(tap))
	} else if r := e.recorder(); r != nil {
		opts = append(opts, update.WithRecorder(r))
	}
	return update.NewPrompter(e.cache, e.source, opts...)
}

func (e *environment) recorder() update.Recorder {
	if e.store == nil {
		return nil
	}
	return e.store
}

// verdictTap remembers the last verdict and forwards it to next.
type verdictTap struct {
	next update.Recorder
	last update.Verdict
	seen bool
}

func (t *verdictTap) Record(ctx context.Context, v update.Verdict) error {
	t.last = v
	t.seen = true
	if t.next == nil {
		return nil
	}
	return t.next.Record(ctx, v)
}

func buildEnvironment(ctx context.Context) (*environment, error) {
	settings, err := config.UpdateSettings()
	if err != nil {
		return nil, appErrors.New(appErrors.CodeConfigurationError, "update settings", err)
	}
	env := &environment{
		settings:   settings,
		cache:      update.NewVersionCache(update.StaticLocal(Version)),
		source:     newRemoteSource(settings),
		translator: i18n.New(config.GetString(config.KeyLocale)),
		opener:     browser.New(),
	}
	debug.Logf("locale %s, update source %s", env.translator.Language(), settings.Source)

	store, err := history.Open(ctx, config.GetString(config.KeyHistoryPath))
	if err != nil {
		debug.Logf("history disabled: %v", err)
	} else {
		env.store = store
	}
	return env, nil
}

func newRemoteSource(u config.Update) update.RemoteSource {
	opts := []update.HTTPSourceOption{
		update.WithTimeout(u.Timeout),
		update.WithUserAgent("prochub/" + Version),
	}
	if u.Source == config.SourceGitHub {
		owner, repo, _ := strings.Cut(u.GitHubRepo, "/")
		return update.NewGitHubSource(owner, repo, opts...)
	}
	return update.NewHTTPSource(u.URL, opts...)
}

func run(ctx context.Context, mode runMode, jsonOut bool, stdout, stderr io.Writer) int {
	if mode == modeHistory {
		if err := printHistory(ctx, config.GetString(config.KeyHistoryPath), jsonOut, stdout); err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	env, err := buildEnvironment(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer env.Close()

	switch mode {
	case modeCheck:
		if jsonOut {
			return runCheckJSON(ctx, env, stdout)
		}
		return runCheck(ctx, env, newConsolePresenter(stderr, isInteractiveTTY()))
	default:
		err := runTUI(env, func(app *ui.App) programRunner {
			return tea.NewProgram(app, tea.WithAltScreen())
		})
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}
}

// runCheck performs one loud check on the console and waits for the dialog.
// The exit code is 1 only when the check failed.
func runCheck(ctx context.Context, env *environment, presenter *consolePresenter) int {
	tap := &verdictTap{}
	prompter := env.newPrompter(presenter, tap)
	prompter.Check(ctx, update.Options{ShowLatestMessage: true, ShowErrorMessage: true})
	presenter.Wait()
	if tap.seen && tap.last.State == update.StateFailed {
		return 1
	}
	return 0
}

type checkReport struct {
	State         string `json:"state"`
	LocalVersion  string `json:"local_version,omitempty"`
	RemoteVersion string `json:"remote_version,omitempty"`
	URL           string `json:"url,omitempty"`
	Notes         string `json:"notes,omitempty"`
	ErrorCode     string `json:"error_code,omitempty"`
	Error         string `json:"error,omitempty"`
}

func newCheckReport(v update.Verdict) checkReport {
	r := checkReport{
		State:         v.State.String(),
		LocalVersion:  v.Local,
		RemoteVersion: v.Info.Version,
		URL:           v.Info.URL,
		Notes:         v.Info.Notes,
	}
	if v.Err != nil {
		r.ErrorCode = string(v.Kind())
		r.Error = v.Err.Error()
	}
	return r
}

// runCheckJSON evaluates without presenting and prints the verdict. The exit
// code is 1 only when the check failed.
func runCheckJSON(ctx context.Context, env *environment, stdout io.Writer) int {
	verdict := env.newPrompter(nil, nil).Evaluate(ctx)
	if r := env.recorder(); r != nil {
		if err := r.Record(ctx, verdict); err != nil {
			debug.Logf("record check: %v", err)
		}
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(newCheckReport(verdict)); err != nil {
		return 1
	}
	if verdict.State == update.StateFailed {
		return 1
	}
	return 0
}

func printHistory(ctx context.Context, path string, jsonOut bool, w io.Writer) error {
	store, err := history.Open(ctx, path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	entries, err := store.Recent(ctx, history.DefaultLimit)
	if err != nil {
		return err
	}
	if jsonOut {
		if entries == nil {
			entries = []history.Entry{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No update checks recorded yet.")
		return err
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("WHEN", "STATE", "LOCAL", "REMOTE", "DETAIL")
	for _, e := range entries {
		detail := e.URL
		if e.Error != "" {
			detail = e.Error
		}
		t.Row(
			e.CheckedAt.Local().Format(time.DateTime),
			e.State,
			e.LocalVersion,
			e.RemoteVersion,
			detail,
		)
	}
	_, err = fmt.Fprintln(w, t.Render())
	return err
}

type programRunner interface {
	Run() (tea.Model, error)
	Send(msg tea.Msg)
}

type programFactory func(*ui.App) programRunner

// runTUI builds the app, attaches the presenter to the program and arms
// the one-shot background check before running.
func runTUI(env *environment, factory programFactory) error {
	if name := config.GetString(config.KeyTheme); name != "" && !theme.SetTheme(name) {
		debug.Logf("unknown theme %q, keeping %s", name, theme.CurrentName())
	}

	presenter := ui.NewPresenter()
	prompter := env.newPrompter(presenter, nil)
	app := ui.NewApp(ui.Config{
		AppName:    "prochub",
		Prompter:   prompter,
		Cache:      env.cache,
		Translator: env.translator,
		SaveTheme:  config.SaveTheme,
	})

	if factory == nil {
		return fmt.Errorf("program factory is nil")
	}
	prog := factory(app)
	if prog == nil {
		return fmt.Errorf("program is nil")
	}
	presenter.Attach(prog)

	if env.settings.AutoCheck {
		auto := update.NewAutoChecker(prompter)
		auto.ScheduleOnce(env.settings.AutoCheckDelay)
	}

	if _, err := prog.Run(); err != nil {
		return fmt.Errorf("run UI: %w", err)
	}
	return nil
}
