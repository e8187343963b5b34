// Package browser opens update download pages in the user's browser.
package browser

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
	"sync"

	"github.com/atotto/clipboard"

	"prochub/internal/debug"
)

// Opener launches the platform browser. When no browser can be started the
// URL is copied to the clipboard so the user can paste it.
type Opener struct {
	goos      string
	start     func(name string, args ...string) error
	copy      func(text string) error
	logf      func(format string, v ...any)
	noCopying bool

	mu       sync.Mutex // guards lastCopy
	lastCopy string
}

// Option configures an Opener.
type Option func(*Opener)

// WithoutClipboard disables the clipboard fallback.
func WithoutClipboard() Option {
	return func(o *Opener) {
		o.noCopying = true
	}
}

// New returns an Opener for the current platform.
func New(opts ...Option) *Opener {
	o := &Opener{
		goos:  runtime.GOOS,
		start: startCommand,
		copy:  clipboard.WriteAll,
		logf:  debug.Scoped("browser"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Open launches the browser for rawURL. Only http and https locations are
// accepted.
func (o *Opener) Open(rawURL string) error {
	target, err := validate(rawURL)
	if err != nil {
		return err
	}

	name, args, err := command(o.goos, target)
	if err == nil {
		err = o.start(name, args...)
	}
	if err == nil {
		o.logf("opened %s", target)
		return nil
	}
	o.logf("open %s with %s: %v", target, o.goos, err)

	if o.noCopying || o.copy == nil {
		return fmt.Errorf("open browser: %w", err)
	}
	if copyErr := o.copy(target); copyErr != nil {
		return fmt.Errorf("open browser: %w (clipboard: %v)", err, copyErr)
	}
	o.mu.Lock()
	o.lastCopy = target
	o.mu.Unlock()
	o.logf("copied %s to clipboard", target)
	return nil
}

// Copied returns the last URL that fell back to the clipboard.
func (o *Opener) Copied() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastCopy
}

func validate(rawURL string) (string, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return "", fmt.Errorf("url is empty")
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("url %q has no host", trimmed)
	}
	return u.String(), nil
}

func command(goos, target string) (string, []string, error) {
	switch goos {
	case "darwin":
		return "open", []string{target}, nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return "xdg-open", []string{target}, nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", target}, nil
	default:
		return "", nil, fmt.Errorf("unsupported platform %s", goos)
	}
}

func startCommand(name string, args ...string) error {
	//nolint:gosec // G204: launches the platform URL handler
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
