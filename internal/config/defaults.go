package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Default returns the baseline configuration before file and environment
// values are applied.
func Default() Config {
	return Config{
		Server: Server{
			RequestTimeout:    30,
			PageSize:          500,
			RequestsPerSecond: 4,
		},
		Sync: Sync{
			Dir:     "~/Music/favorites",
			Workers: 0,
		},
		Transcode: Transcode{
			FFmpeg:     "ffmpeg",
			Quality:    2,
			SampleRate: 44100,
			Channels:   2,
		},
		Artwork: Artwork{
			Enabled:   true,
			MaxPixels: 1200,
		},
		History: History{
			Enabled: true,
			Path:    defaultHistoryPath(),
			Keep:    100,
		},
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
	}
}

// EffectiveWorkers resolves the worker count, defaulting to one less than
// the CPU count with a floor of one.
func (c *Config) EffectiveWorkers() int {
	if c.Sync.Workers > 0 {
		return c.Sync.Workers
	}
	if n := runtime.NumCPU() - 1; n > 1 {
		return n
	}
	return 1
}

func defaultHistoryPath() string {
	if base, ok := os.LookupEnv("XDG_STATE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "favsync", "history.db")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.local/state/favsync/history.db"
	}
	return filepath.Join(home, ".local", "state", "favsync", "history.db")
}
