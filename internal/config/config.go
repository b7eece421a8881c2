package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"edgealign/internal/domain"
)

// Config holds all edgealign configuration.
type Config struct {
	Journal JournalConfig `toml:"journal"`
	Watch   WatchConfig   `toml:"watch"`
	MCP     MCPConfig     `toml:"mcp"`
}

// JournalConfig selects where optimization runs are recorded.
type JournalConfig struct {
	domain.JournalConnection

	// Runs older than this are pruned. Zero keeps everything.
	Retention time.Duration `toml:"retention"`
	// Secret store key holding the backend password.
	PasswordKey string `toml:"password_key"`
}

// WatchConfig configures the directory watcher.
type WatchConfig struct {
	Extensions []string      `toml:"extensions"`
	Debounce   time.Duration `toml:"debounce"`
	Schedule   string        `toml:"schedule"`       // cron spec for full sweeps, empty disables
	Prune      string        `toml:"prune_schedule"` // cron spec for journal pruning
	Workers    int           `toml:"workers"`
}

// MCPConfig configures the MCP server identity.
type MCPConfig struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// DataDir returns the directory for local state such as the SQLite journal.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "edgealign")
	}
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".local", "share", "edgealign")
}

// DefaultPath returns the config file location used when none is given.
func DefaultPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "edgealign", "config.toml")
	}
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "edgealign", "config.toml")
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Journal: JournalConfig{
			JournalConnection: domain.JournalConnection{
				Driver: domain.JournalDriverSQLite,
				Path:   filepath.Join(DataDir(), "runs.db"),
			},
			Retention:   30 * 24 * time.Hour,
			PasswordKey: "journal",
		},
		Watch: WatchConfig{
			Extensions: []string{".json", ".excalidraw"},
			Debounce:   500 * time.Millisecond,
			Prune:      "@daily",
			Workers:    4,
		},
		MCP: MCPConfig{
			Name:    "edgealign-mcp",
			Version: "1.0.0",
		},
	}
}

// Load reads the TOML file at path over the defaults. An empty path means
// DefaultPath, which may be absent; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("load config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	switch c.Journal.Driver {
	case domain.JournalDriverNone, domain.JournalDriverSQLite, domain.JournalDriverMySQL,
		domain.JournalDriverPostgres, domain.JournalDriverMongoDB:
	default:
		return fmt.Errorf("journal.driver: unsupported driver %q", c.Journal.Driver)
	}
	if c.Journal.Driver == domain.JournalDriverSQLite && c.Journal.Path == "" {
		return fmt.Errorf("journal.path is required for sqlite")
	}
	if c.Journal.Retention < 0 {
		return fmt.Errorf("journal.retention must not be negative")
	}
	if c.Watch.Debounce <= 0 {
		return fmt.Errorf("watch.debounce must be positive")
	}
	if c.Watch.Workers <= 0 {
		return fmt.Errorf("watch.workers must be positive")
	}
	if len(c.Watch.Extensions) == 0 {
		return fmt.Errorf("watch.extensions must not be empty")
	}
	return nil
}

// MatchesExtension reports whether path has one of the watched extensions.
func (w WatchConfig) MatchesExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range w.Extensions {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}
