package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

const (
	KeyUpdateURL            = "update.url"
	KeyUpdateSource         = "update.source"
	KeyUpdateGitHubRepo     = "update.github-repo"
	KeyUpdateAutoCheck      = "update.auto-check"
	KeyUpdateAutoCheckDelay = "update.auto-check-delay"
	KeyUpdateTimeout        = "update.timeout"

	KeyLocale      = "locale"
	KeyTheme       = "ui.theme"
	KeyHistoryPath = "history.path"
	KeyDebug       = "debug"
)

// Update source modes accepted by KeyUpdateSource.
const (
	SourceManifest = "manifest"
	SourceGitHub   = "github"
)

const (
	// DefaultUpdateURL serves the {"version","url"} manifest for the latest build.
	DefaultUpdateURL = "https://open.modstart.com/prochub/latest.json"
	// DefaultAutoCheckDelay is how long after startup the background check runs.
	DefaultAutoCheckDelay = 5 * time.Second
	DefaultUpdateTimeout  = 5 * time.Second
	DefaultLocale         = "zh"
	DefaultTheme          = "midnight"

	dirName   = ".prochub"
	fileName  = "config.yaml"
	envPrefix = "PH"
)

type initSettings struct {
	workingDir        string
	projectConfigPath string
	userConfigPath    string
}

// Option configures Initialize behaviour. Useful for tests to override paths.
type Option func(*initSettings)

// WithWorkingDir overrides the directory used for project config discovery.
func WithWorkingDir(dir string) Option {
	return func(cfg *initSettings) {
		cfg.workingDir = dir
	}
}

// WithProjectConfig explicitly sets the project config path instead of discovery.
func WithProjectConfig(path string) Option {
	return func(cfg *initSettings) {
		cfg.projectConfigPath = path
	}
}

// WithUserConfig overrides the default user config path.
func WithUserConfig(path string) Option {
	return func(cfg *initSettings) {
		cfg.userConfigPath = path
	}
}

var (
	configOnce sync.Once
	configMu   sync.RWMutex
	configInst *viper.Viper
	initErr    error

	// userConfigPathOverride redirects the user config in tests.
	userConfigPathOverride string
)

// Initialize loads configuration using the precedence:
// defaults < user config < project config < environment variables < overrides.
func Initialize(opts ...Option) error {
	configOnce.Do(func() {
		settings := initSettings{}
		for _, opt := range opts {
			opt(&settings)
		}
		initErr = configure(&settings)
	})
	return initErr
}

// ApplyOverrides injects values typically coming from CLI flags.
func ApplyOverrides(overrides map[string]any) error {
	if len(overrides) == 0 {
		return nil
	}
	if err := Initialize(); err != nil {
		return err
	}
	configMu.Lock()
	defer configMu.Unlock()
	if configInst == nil {
		return fmt.Errorf("configuration not initialized")
	}
	for k, v := range overrides {
		configInst.Set(k, v)
	}
	return nil
}

// GetString fetches a string configuration value, initializing on demand.
func GetString(key string) string {
	v, err := getViper()
	if err != nil {
		return ""
	}
	return v.GetString(key)
}

// GetBool fetches a bool configuration value, initializing on demand.
func GetBool(key string) bool {
	v, err := getViper()
	if err != nil {
		return false
	}
	return v.GetBool(key)
}

// GetDuration fetches a duration configuration value, initializing on demand.
// Plain integers are read as milliseconds so `auto-check-delay: 5000` matches
// the way the setting was historically expressed.
func GetDuration(key string) time.Duration {
	v, err := getViper()
	if err != nil {
		return 0
	}
	if raw, ok := v.Get(key).(int); ok {
		return time.Duration(raw) * time.Millisecond
	}
	return v.GetDuration(key)
}

// Set updates a configuration key at runtime, initializing on demand.
func Set(key string, value any) error {
	if err := Initialize(); err != nil {
		return err
	}
	configMu.Lock()
	defer configMu.Unlock()
	if configInst == nil {
		return fmt.Errorf("configuration not initialized")
	}
	configInst.Set(key, value)
	return nil
}

// Update bundles the update.* keys into one value for the composition root.
type Update struct {
	URL            string
	Source         string
	GitHubRepo     string
	AutoCheck      bool
	AutoCheckDelay time.Duration
	Timeout        time.Duration
}

// UpdateSettings reads and sanitizes the update.* keys.
func UpdateSettings() (Update, error) {
	u := Update{
		URL:            strings.TrimSpace(GetString(KeyUpdateURL)),
		Source:         strings.ToLower(strings.TrimSpace(GetString(KeyUpdateSource))),
		GitHubRepo:     strings.TrimSpace(GetString(KeyUpdateGitHubRepo)),
		AutoCheck:      GetBool(KeyUpdateAutoCheck),
		AutoCheckDelay: GetDuration(KeyUpdateAutoCheckDelay),
		Timeout:        GetDuration(KeyUpdateTimeout),
	}
	if u.AutoCheckDelay < 0 {
		u.AutoCheckDelay = 0
	}
	if u.Timeout <= 0 {
		u.Timeout = DefaultUpdateTimeout
	}
	switch u.Source {
	case "", SourceManifest:
		u.Source = SourceManifest
		if u.URL == "" {
			return u, fmt.Errorf("%s must not be empty", KeyUpdateURL)
		}
	case SourceGitHub:
		if owner, repo, ok := strings.Cut(u.GitHubRepo, "/"); !ok || owner == "" || repo == "" {
			return u, fmt.Errorf("%s must be owner/name, got %q", KeyUpdateGitHubRepo, u.GitHubRepo)
		}
	default:
		return u, fmt.Errorf("unknown %s %q (want %s or %s)", KeyUpdateSource, u.Source, SourceManifest, SourceGitHub)
	}
	return u, nil
}

func configure(settings *initSettings) error {
	workingDir := strings.TrimSpace(settings.workingDir)
	if workingDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("determine working directory: %w", err)
		}
		workingDir = wd
	}

	userConfigPath := strings.TrimSpace(settings.userConfigPath)
	if userConfigPath == "" {
		path, err := defaultUserConfigPath()
		if err != nil {
			return err
		}
		userConfigPath = path
	}

	projectConfigPath := strings.TrimSpace(settings.projectConfigPath)
	if projectConfigPath == "" {
		path, err := findProjectConfig(workingDir)
		if err != nil {
			return err
		}
		projectConfigPath = path
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if err := setDefaults(v); err != nil {
		return err
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := mergeConfigFile(v, userConfigPath); err != nil {
		return fmt.Errorf("load user config: %w", err)
	}
	if projectConfigPath != userConfigPath {
		if err := mergeConfigFile(v, projectConfigPath); err != nil {
			return fmt.Errorf("load project config: %w", err)
		}
	}

	configMu.Lock()
	defer configMu.Unlock()
	configInst = v
	return nil
}

func mergeConfigFile(v *viper.Viper, path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("config path %s is a directory", path)
	}
	//nolint:gosec // G304: config loader intentionally reads user and project config files
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := v.MergeConfig(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func defaultUserConfigPath() (string, error) {
	if userConfigPathOverride != "" {
		return userConfigPathOverride, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determine user home: %w", err)
	}
	return filepath.Join(home, dirName, fileName), nil
}

// DataDir returns ~/.prochub, the home of the debug log and check history.
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determine user home: %w", err)
	}
	return filepath.Join(home, dirName), nil
}

func findProjectConfig(startDir string) (string, error) {
	if strings.TrimSpace(startDir) == "" {
		return "", nil
	}
	dir := startDir
	for {
		candidate := filepath.Join(dir, dirName, fileName)
		info, err := os.Stat(candidate)
		if err == nil {
			if info.IsDir() {
				return "", fmt.Errorf("config path %s is a directory", candidate)
			}
			return candidate, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("stat %s: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

func setDefaults(v *viper.Viper) error {
	v.SetDefault(KeyUpdateURL, DefaultUpdateURL)
	v.SetDefault(KeyUpdateSource, SourceManifest)
	v.SetDefault(KeyUpdateGitHubRepo, "")
	v.SetDefault(KeyUpdateAutoCheck, true)
	v.SetDefault(KeyUpdateAutoCheckDelay, DefaultAutoCheckDelay.String())
	v.SetDefault(KeyUpdateTimeout, DefaultUpdateTimeout.String())
	v.SetDefault(KeyLocale, DefaultLocale)
	v.SetDefault(KeyTheme, DefaultTheme)
	v.SetDefault(KeyDebug, false)

	dataDir, err := DataDir()
	if err != nil {
		return err
	}
	v.SetDefault(KeyHistoryPath, filepath.Join(dataDir, "history.db"))
	return nil
}

func getViper() (*viper.Viper, error) {
	if err := Initialize(); err != nil {
		return nil, err
	}
	configMu.RLock()
	defer configMu.RUnlock()
	if configInst == nil {
		return nil, fmt.Errorf("configuration not initialized")
	}
	return configInst, nil
}

// reset clears package state for tests.
func reset() {
	configMu.Lock()
	defer configMu.Unlock()
	configInst = nil
	initErr = nil
	configOnce = sync.Once{}
	userConfigPathOverride = ""
}

// ResetForTesting clears package state for tests in other packages.
// Returns a cleanup function that should be deferred.
func ResetForTesting(t interface{ TempDir() string }) func() {
	reset()
	tmp := t.TempDir()
	userConfigPathOverride = filepath.Join(tmp, fileName)
	_ = Initialize(WithWorkingDir(tmp))
	return reset
}

// SaveLocale persists the locale to the project config when one exists,
// otherwise to the user config (~/.prochub/config.yaml). The user config
// directory is created on demand; project config directories never are.
func SaveLocale(locale string) error {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return fmt.Errorf("locale must not be empty")
	}
	return save(KeyLocale, locale)
}

// SaveTheme persists the TUI theme the same way SaveLocale does.
func SaveTheme(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("theme must not be empty")
	}
	return save(KeyTheme, name)
}

func save(key, value string) error {
	targetPath, err := findWritableConfigPath()
	if err != nil {
		return fmt.Errorf("find config path: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(targetPath)
	_ = v.ReadInConfig() // a missing file is fine

	v.Set(key, value)

	//nolint:gosec // G301: user config directory needs standard permissions
	if err := os.MkdirAll(filepath.Dir(targetPath), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := v.WriteConfigAs(targetPath); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return Set(key, value)
}

func findWritableConfigPath() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("determine working directory: %w", err)
	}
	projectPath, err := findProjectConfig(wd)
	if err != nil {
		return "", err
	}
	if projectPath != "" {
		return projectPath, nil
	}
	return defaultUserConfigPath()
}
