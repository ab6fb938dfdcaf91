package mirror

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"favsync/internal/artwork"
	"favsync/internal/catalog"
	"favsync/internal/library"
	"favsync/internal/logging"
	"favsync/internal/tag"
	"favsync/internal/transcode"
)

// AudioFetcher retrieves source audio bytes for a track.
type AudioFetcher interface {
	FetchAudio(ctx context.Context, track catalog.Track) (io.ReadCloser, error)
}

// Materializer turns one "create" action into a tagged file at its final
// path. The output is staged in the target directory and renamed into place
// only after the transcoding engine succeeds and tags are written, so no
// reader ever sees a partial track.
type Materializer struct {
	root    string
	fetcher AudioFetcher
	engine  transcode.Engine
	logger  *slog.Logger
}

// NewMaterializer wires the materializer for the given sync root.
func NewMaterializer(root string, fetcher AudioFetcher, engine transcode.Engine, logger *slog.Logger) *Materializer {
	return &Materializer{
		root:    root,
		fetcher: fetcher,
		engine:  engine,
		logger:  logging.WithComponent(logger, "materialize"),
	}
}

// Materialize fetches, transcodes, tags, and promotes one track.
func (m *Materializer) Materialize(ctx context.Context, key library.Key, track catalog.Track) error {
	final := filepath.Join(m.root, filepath.FromSlash(key.String()))
	dir := filepath.Dir(final)
	base := filepath.Base(final)

	source, err := m.stageSource(ctx, dir, base, track)
	if err != nil {
		return err
	}
	defer os.Remove(source)

	staged := filepath.Join(dir, library.TempName(base))
	defer os.Remove(staged)

	job := transcode.Job{
		InputPath:   source,
		OutputPath:  staged,
		Artist:      track.Artist,
		Album:       track.Album,
		Title:       track.Title,
		TrackNumber: track.TrackNumber,
		Year:        track.Year,
	}
	if err := m.engine.Transcode(ctx, job); err != nil {
		return err
	}

	if err := m.applyTags(staged, dir, track); err != nil {
		return err
	}

	if err := os.Rename(staged, final); err != nil {
		return fmt.Errorf("promote %s: %w", key, err)
	}
	m.logger.Info("materialized track",
		logging.String(logging.FieldKey, key.String()),
		logging.String(logging.FieldTrackID, track.ID))
	return nil
}

// stageSource downloads the original audio into a staging file next to the
// target. The staging name matches the temp convention so a crash leaves
// nothing the next index scan will not sweep up.
func (m *Materializer) stageSource(ctx context.Context, dir, base string, track catalog.Track) (string, error) {
	body, err := m.fetcher.FetchAudio(ctx, track)
	if err != nil {
		return "", fmt.Errorf("fetch audio for %s: %w", track.ID, err)
	}
	defer body.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create directory %q: %w", dir, err)
	}
	path := filepath.Join(dir, library.TempName(base+".src"))
	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", fmt.Errorf("create source staging file: %w", err)
	}
	if _, err := io.Copy(out, body); err != nil {
		out.Close()
		os.Remove(path)
		return "", fmt.Errorf("stage source for %s: %w", track.ID, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close source staging file: %w", err)
	}
	return path, nil
}

// applyTags writes ID3 frames onto the staged output, embedding the album
// cover when one is already on disk.
func (m *Materializer) applyTags(staged, dir string, track catalog.Track) error {
	var art []byte
	var artMIME string
	if coverPath, ok := artwork.FindCover(dir); ok {
		data, err := os.ReadFile(coverPath)
		if err == nil {
			art = data
			artMIME = coverMIME(coverPath)
		}
	}
	meta := tag.Metadata{
		Artist:      track.Artist,
		Album:       track.Album,
		Title:       track.Title,
		TrackNumber: track.TrackNumber,
		Year:        track.Year,
	}
	return tag.Apply(staged, meta, art, artMIME)
}

func coverMIME(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
