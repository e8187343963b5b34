package update

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"prochub/internal/debug"
	appErrors "prochub/internal/errors"
	"prochub/internal/i18n"
)

// NoticeKind selects how a notice is styled.
type NoticeKind int

const (
	NoticeSuccess NoticeKind = iota
	NoticeError
)

// String returns the string representation of a NoticeKind.
func (k NoticeKind) String() string {
	if k == NoticeError {
		return "error"
	}
	return "success"
}

// ConfirmDialog describes the modal offered when an update is available.
// Exactly one of OnAccept or OnDecline runs, once, when the user answers.
type ConfirmDialog struct {
	Title string
	Body  string
	Notes string
	// URL is where accepting leads; presenters that cannot ask may print it.
	URL          string
	ConfirmLabel string
	CancelLabel  string
	OnAccept     func()
	OnDecline    func()
}

// Presenter shows dialogs and notices. Both calls must return without
// waiting for the user.
type Presenter interface {
	Confirm(d ConfirmDialog)
	Notice(kind NoticeKind, text string)
}

// Opener opens a location in the user's browser.
type Opener interface {
	Open(url string) error
}

// Translator localizes user-visible strings.
type Translator interface {
	T(key string, params map[string]string) string
}

// Recorder receives every verdict, e.g. to keep a check history.
type Recorder interface {
	Record(ctx context.Context, v Verdict) error
}

// Options configures a single Check. The zero value is a silent check.
type Options struct {
	// ShowLatestMessage presents a success notice when already up to date.
	ShowLatestMessage bool
	// ShowErrorMessage presents an error notice when the check fails.
	ShowErrorMessage bool
}

// Prompter runs version checks and reacts to their verdicts.
type Prompter struct {
	cache      *VersionCache
	remote     RemoteSource
	presenter  Presenter
	opener     Opener
	translator Translator
	recorder   Recorder
	logf       func(format string, v ...any)

	// dialogPending is set while a confirm dialog awaits an answer; at most
	// one is outstanding at a time.
	dialogPending atomic.Bool
}

// PrompterOption configures a Prompter.
type PrompterOption func(*Prompter)

// WithPresenter sets where dialogs and notices go.
func WithPresenter(presenter Presenter) PrompterOption {
	return func(p *Prompter) {
		p.presenter = presenter
	}
}

// WithOpener sets how accepted update locations are opened.
func WithOpener(opener Opener) PrompterOption {
	return func(p *Prompter) {
		p.opener = opener
	}
}

// WithTranslator sets the translator for dialog and notice text.
func WithTranslator(translator Translator) PrompterOption {
	return func(p *Prompter) {
		p.translator = translator
	}
}

// WithRecorder sets a sink for verdicts.
func WithRecorder(recorder Recorder) PrompterOption {
	return func(p *Prompter) {
		p.recorder = recorder
	}
}

// WithLogger replaces the debug logger.
func WithLogger(logf func(format string, v ...any)) PrompterOption {
	return func(p *Prompter) {
		p.logf = logf
	}
}

// NewPrompter creates a Prompter. Without options it presents nothing,
// opens nothing and translates to English.
func NewPrompter(cache *VersionCache, remote RemoteSource, opts ...PrompterOption) *Prompter {
	p := &Prompter{
		cache:      cache,
		remote:     remote,
		presenter:  nopPresenter{},
		opener:     nopOpener{},
		translator: i18n.New("en"),
		logf:       debug.Scoped("update"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Evaluate fetches both versions and compares them without presenting
// anything. Every failure, panics included, comes back as a failed verdict.
func (p *Prompter) Evaluate(ctx context.Context) (verdict Verdict) {
	defer func() {
		if r := recover(); r != nil {
			verdict = CheckFailed(appErrors.New(appErrors.CodeUnknown, fmt.Sprintf("panic during version check: %v", r), nil))
		}
	}()

	if p.cache == nil {
		return CheckFailed(appErrors.New(appErrors.CodeFetchFailed, "no local version cache configured", nil))
	}
	local, err := p.cache.Get(ctx)
	if err != nil {
		return CheckFailed(err)
	}

	if p.remote == nil {
		return CheckFailed(appErrors.New(appErrors.CodeFetchFailed, "no remote version source configured", nil))
	}
	payload, err := p.remote.FetchRemote(ctx)
	if err != nil {
		return CheckFailed(appErrors.Wrap(appErrors.CodeFetchFailed, "fetch remote version", err))
	}

	info, err := Normalize(payload)
	if err != nil {
		return CheckFailed(err)
	}
	return Compare(local, info)
}

// Check runs one check and reacts to the verdict. It returns true only when
// an update is available. The confirm dialog, if any, is answered after
// Check has returned; accepting it opens the update location.
func (p *Prompter) Check(ctx context.Context, opts Options) (offered bool) {
	defer func() {
		if r := recover(); r != nil {
			p.logf("Version check failed: %v", appErrors.New(appErrors.CodeUnknown, fmt.Sprintf("panic: %v", r), nil))
			offered = false
		}
	}()

	verdict := p.Evaluate(ctx)
	p.record(ctx, verdict)

	switch verdict.State {
	case StateUpToDate:
		if opts.ShowLatestMessage {
			p.presenter.Notice(NoticeSuccess, p.translator.T(i18n.KeyLatestVersion, nil))
		}
		return false

	case StateUpdateAvailable:
		if verdict.Info.URL != "" {
			p.offer(verdict.Info)
		}
		return true

	default:
		p.logf("Version check failed: %v", verdict.Err)
		if opts.ShowErrorMessage {
			p.presenter.Notice(NoticeError, p.translator.T(i18n.KeyCheckFailed, nil))
		}
		return false
	}
}

// DialogPending reports whether an update dialog is awaiting an answer.
func (p *Prompter) DialogPending() bool {
	return p.dialogPending.Load()
}

func (p *Prompter) offer(info VersionInfo) {
	url := info.URL
	dialog := ConfirmDialog{
		Title:        p.translator.T(i18n.KeyUpdateAvailable, nil),
		Body:         p.translator.T(i18n.KeyUpdateConfirm, map[string]string{"version": info.Version}),
		Notes:        info.Notes,
		URL:          url,
		ConfirmLabel: p.translator.T(i18n.KeyYes, nil),
		CancelLabel:  p.translator.T(i18n.KeyNo, nil),
	}

	if !p.dialogPending.CompareAndSwap(false, true) {
		p.logf("update dialog already pending; not prompting again for %s", info.Version)
		return
	}
	// A presenter that panics never answers, so release the marker here.
	defer func() {
		if r := recover(); r != nil {
			p.dialogPending.Store(false)
			panic(r)
		}
	}()

	var answered sync.Once
	dialog.OnAccept = func() {
		answered.Do(func() {
			p.dialogPending.Store(false)
			if err := p.opener.Open(url); err != nil {
				p.logf("open %s: %v", url, err)
			}
		})
	}
	dialog.OnDecline = func() {
		answered.Do(func() {
			p.dialogPending.Store(false)
		})
	}
	p.presenter.Confirm(dialog)
}

func (p *Prompter) record(ctx context.Context, v Verdict) {
	if p.recorder == nil {
		return
	}
	if err := p.recorder.Record(ctx, v); err != nil {
		p.logf("record check: %v", err)
	}
}

// nopPresenter shows nothing; an unseen dialog counts as declined.
type nopPresenter struct{}

func (nopPresenter) Confirm(d ConfirmDialog) {
	if d.OnDecline != nil {
		d.OnDecline()
	}
}

func (nopPresenter) Notice(NoticeKind, string) {}

type nopOpener struct{}

func (nopOpener) Open(string) error { return nil }
