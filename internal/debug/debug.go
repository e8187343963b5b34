// Package debug is prochub's opt-in diagnostic log. Nothing is written
// until Init(true) runs; the file lives at ~/.prochub/debug.log and starts
// empty on every launch.
package debug

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	LogFileName = "debug.log"
	LogDirName  = ".prochub"
)

var (
	mu      sync.RWMutex
	enabled bool
	logger  *log.Logger
	logFile *os.File

	// getLogPath is swapped out by tests.
	getLogPath = defaultGetLogPath
)

// Init switches the log on or off. Calling it again closes any file the
// previous call opened.
func Init(enable bool) error {
	mu.Lock()
	defer mu.Unlock()

	closeLocked()
	enabled = enable
	if !enable {
		logger = log.New(io.Discard, "", 0)
		return nil
	}

	f, err := openLogFile()
	if err != nil {
		return err
	}
	logFile = f
	logger = log.New(f, "", log.Ldate|log.Ltime|log.Lmicroseconds)
	logger.Printf("=== prochub debug log started at %s (pid %d) ===", time.Now().Format(time.RFC3339), os.Getpid())
	return nil
}

func openLogFile() (*os.File, error) {
	path, err := getLogPath()
	if err != nil {
		return nil, fmt.Errorf("determine log path: %w", err)
	}
	//nolint:gosec // G301: ~/.prochub is a regular user directory
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	//nolint:gosec // G304: path derives from the home directory
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

// Close releases the log file. It is a no-op when nothing is open.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	closeLocked()
}

func closeLocked() {
	if logFile == nil {
		return
	}
	_ = logFile.Close()
	logFile = nil
}

func output(write func(*log.Logger)) {
	mu.RLock()
	defer mu.RUnlock()
	if enabled && logger != nil {
		write(logger)
	}
}

// Log prints v like fmt.Print.
func Log(v ...any) {
	output(func(l *log.Logger) { l.Print(v...) })
}

// Logf prints like fmt.Printf.
func Logf(format string, v ...any) {
	output(func(l *log.Logger) { l.Printf(format, v...) })
}

// Scoped returns a Logf that tags each line with "[scope] ". Components
// take it as their default logger.
func Scoped(scope string) func(format string, v ...any) {
	prefix := "[" + scope + "] "
	return func(format string, v ...any) {
		Logf(prefix+format, v...)
	}
}

// Enabled reports whether Init(true) is in effect.
func Enabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabled
}

func defaultGetLogPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determine user home: %w", err)
	}
	return filepath.Join(home, LogDirName, LogFileName), nil
}

// GetLogPath reports where Init(true) writes.
func GetLogPath() (string, error) {
	return getLogPath()
}
