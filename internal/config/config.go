package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Server contains connection settings for the media catalog.
type Server struct {
	URL               string `toml:"url"`
	APIKey            string `toml:"api_key"`
	UserID            string `toml:"user_id"`
	RequestTimeout    int    `toml:"request_timeout"`
	PageSize          int    `toml:"page_size"`
	RequestsPerSecond int    `toml:"requests_per_second"`
}

// Sync contains settings for the local mirror directory.
type Sync struct {
	Dir     string `toml:"dir"`
	Workers int    `toml:"workers"`
}

// Transcode contains the fixed target audio profile.
type Transcode struct {
	FFmpeg     string `toml:"ffmpeg"`
	Quality    int    `toml:"quality"`
	SampleRate int    `toml:"sample_rate"`
	Channels   int    `toml:"channels"`
}

// Artwork contains cover image settings.
type Artwork struct {
	Enabled   bool `toml:"enabled"`
	MaxPixels int  `toml:"max_pixels"`
}

// History contains run-history database settings.
type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
	Keep    int    `toml:"keep"`
}

// Logging contains log output settings.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config encapsulates all configuration values for favsync.
type Config struct {
	Server    Server    `toml:"server"`
	Sync      Sync      `toml:"sync"`
	Transcode Transcode `toml:"transcode"`
	Artwork   Artwork   `toml:"artwork"`
	History   History   `toml:"history"`
	Logging   Logging   `toml:"logging"`
}

// ErrInvalid marks configuration validation failures. These are fatal and
// reported before any reconciliation begins.
var ErrInvalid = errors.New("invalid configuration")

// DefaultConfigPath returns the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/favsync/config.toml")
}

// Load locates, parses, normalizes, and validates a configuration file.
// Environment variables override file values. The boolean reports whether a
// config file was actually found.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("%w: parse %s: %v", ErrInvalid, resolvedPath, err)
		}
	}

	// Best-effort: a missing .env is the normal case.
	_ = godotenv.Load()
	cfg.applyEnv()

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("FAVSYNC_SERVER_URL")); v != "" {
		c.Server.URL = v
	}
	if v := strings.TrimSpace(os.Getenv("FAVSYNC_API_KEY")); v != "" {
		c.Server.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("FAVSYNC_USER_ID")); v != "" {
		c.Server.UserID = v
	}
	if v := strings.TrimSpace(os.Getenv("FAVSYNC_SYNC_DIR")); v != "" {
		c.Sync.Dir = v
	}
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("favsync.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the sync root and, when history is enabled, the
// directory holding the history database.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.Sync.Dir, 0o755); err != nil {
		return fmt.Errorf("create sync directory %q: %w", c.Sync.Dir, err)
	}
	if c.History.Enabled && strings.TrimSpace(c.History.Path) != "" {
		if err := os.MkdirAll(filepath.Dir(c.History.Path), 0o755); err != nil {
			return fmt.Errorf("create history directory: %w", err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Redacted returns a copy with credential fields masked for display.
func (c *Config) Redacted() Config {
	out := *c
	if out.Server.APIKey != "" {
		out.Server.APIKey = "********"
	}
	return out
}
