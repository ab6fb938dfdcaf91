package config

import (
	"fmt"
	"net/url"
	"strings"
)

func (c *Config) normalize() error {
	c.Server.URL = strings.TrimRight(strings.TrimSpace(c.Server.URL), "/")
	c.Server.APIKey = strings.TrimSpace(c.Server.APIKey)
	c.Server.UserID = strings.TrimSpace(c.Server.UserID)
	c.Transcode.FFmpeg = strings.TrimSpace(c.Transcode.FFmpeg)

	if dir := strings.TrimSpace(c.Sync.Dir); dir != "" {
		expanded, err := expandPath(dir)
		if err != nil {
			return err
		}
		c.Sync.Dir = expanded
	} else {
		c.Sync.Dir = ""
	}

	if path := strings.TrimSpace(c.History.Path); path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return err
		}
		c.History.Path = expanded
	}
	return nil
}

// Validate checks that the configuration is complete enough to run a sync.
func (c *Config) Validate() error {
	var problems []string

	switch {
	case c.Server.URL == "":
		problems = append(problems, "server.url is required")
	default:
		parsed, err := url.Parse(c.Server.URL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			problems = append(problems, fmt.Sprintf("server.url %q is not an absolute URL", c.Server.URL))
		}
	}
	if c.Server.APIKey == "" {
		problems = append(problems, "server.api_key is required")
	}
	if c.Server.UserID == "" {
		problems = append(problems, "server.user_id is required")
	}
	if c.Sync.Dir == "" {
		problems = append(problems, "sync.dir is required")
	}
	if c.Server.PageSize <= 0 {
		problems = append(problems, "server.page_size must be positive")
	}
	if c.Server.RequestTimeout <= 0 {
		problems = append(problems, "server.request_timeout must be positive")
	}
	if c.Server.RequestsPerSecond <= 0 {
		problems = append(problems, "server.requests_per_second must be positive")
	}
	if c.Sync.Workers < 0 {
		problems = append(problems, "sync.workers must not be negative")
	}
	if c.Transcode.FFmpeg == "" {
		problems = append(problems, "transcode.ffmpeg must name the transcoder binary")
	}
	if c.Transcode.Quality < 0 || c.Transcode.Quality > 9 {
		problems = append(problems, "transcode.quality must be between 0 and 9")
	}
	if c.Transcode.SampleRate <= 0 {
		problems = append(problems, "transcode.sample_rate must be positive")
	}
	if c.Transcode.Channels != 1 && c.Transcode.Channels != 2 {
		problems = append(problems, "transcode.channels must be 1 or 2")
	}
	if c.Artwork.Enabled && c.Artwork.MaxPixels < 0 {
		problems = append(problems, "artwork.max_pixels must not be negative")
	}
	if c.History.Enabled && strings.TrimSpace(c.History.Path) == "" {
		problems = append(problems, "history.path is required when history is enabled")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}
