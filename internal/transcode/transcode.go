// Package transcode drives the external transcoding engine. The target
// profile (MP3, libmp3lame VBR) is fixed configuration, never a per-file
// choice.
package transcode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"favsync/internal/config"
	"favsync/internal/logging"
)

// ErrTranscode marks transcoding-engine failures. The failing action is
// isolated; the run continues with remaining tracks.
var ErrTranscode = errors.New("transcode failed")

// Job describes one transcode invocation. Metadata fields are embedded in
// the output container by the engine.
type Job struct {
	InputPath   string
	OutputPath  string
	Artist      string
	Album       string
	Title       string
	TrackNumber int
	Year        int
}

// Engine converts one source file into the target profile.
type Engine interface {
	Transcode(ctx context.Context, job Job) error
}

// FFmpeg runs the ffmpeg binary per job.
type FFmpeg struct {
	binary     string
	quality    int
	sampleRate int
	channels   int
	logger     *slog.Logger
}

// NewFFmpeg builds the engine from the fixed configuration profile.
func NewFFmpeg(cfg *config.Config, logger *slog.Logger) *FFmpeg {
	return &FFmpeg{
		binary:     cfg.Transcode.FFmpeg,
		quality:    cfg.Transcode.Quality,
		sampleRate: cfg.Transcode.SampleRate,
		channels:   cfg.Transcode.Channels,
		logger:     logging.WithComponent(logger, "transcode"),
	}
}

func (f *FFmpeg) Transcode(ctx context.Context, job Job) error {
	args := f.args(job)
	f.logger.Debug("launching transcoder",
		logging.String("binary", f.binary),
		logging.String("input", filepath.Base(job.InputPath)),
		logging.String("output", filepath.Base(job.OutputPath)))

	cmd := exec.CommandContext(ctx, f.binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %s: %v: %s", ErrTranscode, filepath.Base(job.InputPath), err, stderrTail(stderr.String()))
	}
	return nil
}

func (f *FFmpeg) args(job Job) []string {
	args := []string{
		"-i", job.InputPath,
		"-codec:a", "libmp3lame",
		"-q:a", strconv.Itoa(f.quality),
		"-ar", strconv.Itoa(f.sampleRate),
		"-ac", strconv.Itoa(f.channels),
		"-map_metadata", "-1",
		"-id3v2_version", "3",
		"-metadata", "artist=" + job.Artist,
		"-metadata", "album=" + job.Album,
		"-metadata", "title=" + job.Title,
	}
	if job.TrackNumber > 0 {
		args = append(args, "-metadata", "track="+strconv.Itoa(job.TrackNumber))
	}
	if job.Year > 0 {
		args = append(args, "-metadata", "date="+strconv.Itoa(job.Year))
	}
	// Output is always a staging path created by the caller; overwrite it.
	args = append(args, "-f", "mp3", "-y", job.OutputPath)
	return args
}

// stderrTail keeps the last few lines of engine output for error messages.
func stderrTail(out string) string {
	out = strings.TrimSpace(out)
	if out == "" {
		return "(no engine output)"
	}
	lines := strings.Split(out, "\n")
	if len(lines) > 4 {
		lines = lines[len(lines)-4:]
	}
	joined := strings.Join(lines, " | ")
	if len(joined) > 500 {
		joined = joined[len(joined)-500:]
	}
	return joined
}
