package update

import (
	"context"
	"sync"
	"time"

	"prochub/internal/debug"
)

// AutoChecker runs one silent check after a delay, once per session.
type AutoChecker struct {
	prompter *Prompter
	logf     func(format string, v ...any)

	once  sync.Once
	mu    sync.Mutex
	timer *time.Timer
	// done is closed after the deferred check has run (or panicked).
	done chan struct{}
	// offered is the return value of the deferred check, valid after done.
	offered bool
}

// AutoCheckerOption configures an AutoChecker.
type AutoCheckerOption func(*AutoChecker)

// WithAutoCheckLogger replaces the debug logger.
func WithAutoCheckLogger(logf func(format string, v ...any)) AutoCheckerOption {
	return func(a *AutoChecker) {
		a.logf = logf
	}
}

// NewAutoChecker creates an AutoChecker for p.
func NewAutoChecker(p *Prompter, opts ...AutoCheckerOption) *AutoChecker {
	a := &AutoChecker{
		prompter: p,
		logf:     debug.Scoped("autocheck"),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ScheduleOnce arms the background check to run after delay with all
// notices suppressed; only an actionable update dialog becomes visible.
// Calls after the first are ignored. Failures are logged, never returned.
func (a *AutoChecker) ScheduleOnce(delay time.Duration) {
	a.once.Do(func() {
		if delay < 0 {
			delay = 0
		}
		a.logf("scheduling version check in %s", delay)

		a.mu.Lock()
		defer a.mu.Unlock()
		a.timer = time.AfterFunc(delay, a.run)
	})
}

func (a *AutoChecker) run() {
	defer close(a.done)
	defer func() {
		if r := recover(); r != nil {
			a.logf("background version check panicked: %v", r)
		}
	}()

	if a.prompter == nil {
		a.logf("background version check skipped: no prompter")
		return
	}
	offered := a.prompter.Check(context.Background(), Options{})
	a.mu.Lock()
	a.offered = offered
	a.mu.Unlock()
	a.logf("background version check finished (update offered: %t)", offered)
}

// stop cancels a check that has not fired yet. It reports whether the
// pending check was cancelled.
func (a *AutoChecker) stop() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.timer == nil {
		return false
	}
	return a.timer.Stop()
}
