// Package config loads hookguard settings.
//
// Settings are resolved in layers, later layers winning:
//
//  1. Built-in defaults (embedded in the binary)
//  2. The project file (.hookguard.toml in the working directory), or the
//     file named by --config / HOOKGUARD_CONFIG
//  3. HOOKGUARD_* environment variables
//  4. Command-line flags, applied by the caller
//
// A file layer is decoded on top of the previous one, so users only specify
// the keys they want to change. Lists replace rather than append.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed defaults.toml
var defaultConfig string

// ProjectFile is the per-project override looked up in the working directory.
const ProjectFile = ".hookguard.toml"

// Environment variables read by Load.
const (
	EnvConfig   = "HOOKGUARD_CONFIG"
	EnvLogDir   = "HOOKGUARD_LOG_DIR"
	EnvLogLevel = "HOOKGUARD_LOG_LEVEL"
	EnvTheme    = "HOOKGUARD_THEME"
)

// Config is the resolved hookguard configuration.
type Config struct {
	ProjectName string `toml:"project_name"`
	LogDir      string `toml:"log_dir"`
	LogLevel    string `toml:"log_level"`
	Theme       string `toml:"theme"`
	RulesFile   string `toml:"rules_file"`

	Prompt   PromptConfig   `toml:"prompt"`
	Session  SessionConfig  `toml:"session"`
	Tool     ToolConfig     `toml:"tool"`
	Stop     StopConfig     `toml:"stop"`
	External ExternalConfig `toml:"external"`
	Audit    AuditConfig    `toml:"audit"`

	// Source is the override file that was applied, if any.
	Source string `toml:"-"`
	// Warnings collects problems that were tolerated while loading.
	Warnings []string `toml:"-"`
}

// PromptConfig controls the PromptSubmit stage.
type PromptConfig struct {
	Validate        bool     `toml:"validate"`
	InjectContext   bool     `toml:"inject_context"`
	ContextKeywords []string `toml:"context_keywords"`
	Glossary        string   `toml:"glossary"`
	TaskKeywords    []string `toml:"task_keywords"`
	TaskTip         string   `toml:"task_tip"`
}

// SessionConfig controls the SessionStart banner.
type SessionConfig struct {
	Checklist      []string `toml:"checklist"`
	Tips           []string `toml:"tips"`
	VCSCommand     []string `toml:"vcs_command"`
	TrackerCommand []string `toml:"tracker_command"`
}

// Reminder is printed after an allowed tool call whose input mentions Contains.
type Reminder struct {
	Contains string `toml:"contains"`
	Message  string `toml:"message"`
}

// ToolConfig controls the PreToolUse stage's non-blocking output.
type ToolConfig struct {
	Reminders []Reminder `toml:"reminders"`
}

// StopConfig controls the Stop stage.
type StopConfig struct {
	Announce        bool     `toml:"announce"`
	AnnounceCommand []string `toml:"announce_command"`
	Messages        []string `toml:"messages"`
	Morning         string   `toml:"morning"`
	Afternoon       string   `toml:"afternoon"`
	Evening         string   `toml:"evening"`
}

// ExternalConfig bounds calls to external tools.
type ExternalConfig struct {
	Timeout Duration `toml:"timeout"`
}

// AuditConfig controls the audit log store.
type AuditConfig struct {
	LockTimeout Duration `toml:"lock_timeout"`
}

// Duration is a wrapper for time.Duration that supports TOML marshaling.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for Duration.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler for Duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// String returns the duration in Go syntax.
func (d Duration) String() string {
	return d.Duration.String()
}

// Default returns the built-in configuration.
func Default() *Config {
	var c Config
	if _, err := toml.Decode(defaultConfig, &c); err != nil {
		// defaults.toml is compiled into the binary; a failure here is a build defect.
		panic(fmt.Sprintf("built-in config: %v", err))
	}
	return &c
}

// LoadOptions describes where Load looks for overrides.
type LoadOptions struct {
	// WorkDir is searched for ProjectFile. Empty means the process cwd.
	WorkDir string
	// Path names an explicit override file. It must exist and parse.
	Path string
	// Getenv reads the environment. Nil means os.Getenv.
	Getenv func(string) string
}

// Load resolves the configuration layers described in the package comment.
//
// An explicit Path (or HOOKGUARD_CONFIG) that cannot be read or parsed is an
// error. A broken project file is only a warning: the built-in defaults stay
// in force so a typo never disables the hooks.
func Load(opts LoadOptions) (*Config, error) {
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	cfg := Default()

	explicit := opts.Path
	if explicit == "" {
		explicit = getenv(EnvConfig)
	}

	if explicit != "" {
		if err := cfg.overlayFile(explicit); err != nil {
			return nil, err
		}
	} else {
		project := filepath.Join(opts.WorkDir, ProjectFile)
		next := Default()
		err := next.overlayFile(project)
		switch {
		case err == nil:
			cfg = next
		case errors.Is(err, os.ErrNotExist):
		default:
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("ignoring %s: %v", project, err))
		}
	}

	cfg.applyEnv(getenv)
	return cfg, nil
}

// overlayFile decodes path on top of c and validates the result.
func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is operator-supplied config
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	md, err := toml.Decode(string(data), c)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	for _, key := range md.Undecoded() {
		c.Warnings = append(c.Warnings, fmt.Sprintf("%s: unknown key %q", path, key.String()))
	}
	c.Source = path
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv(EnvLogDir); v != "" {
		c.LogDir = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := getenv(EnvTheme); v != "" {
		c.Theme = v
	}
}

// Validate reports values that cannot be used.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.LogDir) == "" {
		return errors.New("log_dir must not be empty")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log_level %q: want debug, info, warn or error", c.LogLevel)
	}
	if c.External.Timeout.Duration < 0 {
		return fmt.Errorf("external.timeout must not be negative")
	}
	if c.Audit.LockTimeout.Duration < 0 {
		return fmt.Errorf("audit.lock_timeout must not be negative")
	}
	return nil
}

// LogPath returns the audit log directory, resolved against workDir when relative.
func (c *Config) LogPath(workDir string) string {
	if filepath.IsAbs(c.LogDir) || workDir == "" {
		return c.LogDir
	}
	return filepath.Join(workDir, c.LogDir)
}

// RulesPath returns rules_file resolved against workDir, or "" when unset.
func (c *Config) RulesPath(workDir string) string {
	if c.RulesFile == "" || filepath.IsAbs(c.RulesFile) || workDir == "" {
		return c.RulesFile
	}
	return filepath.Join(workDir, c.RulesFile)
}
