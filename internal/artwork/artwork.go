// Package artwork mirrors album cover images into the sync tree. Each album
// directory gets one cover.<ext> file, fetched at most once: an existing
// cover short-circuits the network entirely.
package artwork

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/gif"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"

	"favsync/internal/catalog"
	"favsync/internal/config"
	"favsync/internal/fileutil"
	"favsync/internal/library"
	"favsync/internal/logging"
)

// maxCoverBytes bounds a single art download.
const maxCoverBytes = 32 << 20

// Fetcher retrieves album art for a track.
type Fetcher interface {
	FetchArt(ctx context.Context, track catalog.Track) (io.ReadCloser, string, error)
}

// Synchronizer materializes cover images under the sync root.
type Synchronizer struct {
	root      string
	maxPixels int
	fetcher   Fetcher
	logger    *slog.Logger
}

// New constructs a Synchronizer rooted at the configured sync directory.
func New(cfg *config.Config, fetcher Fetcher, logger *slog.Logger) *Synchronizer {
	return &Synchronizer{
		root:      cfg.Sync.Dir,
		maxPixels: cfg.Artwork.MaxPixels,
		fetcher:   fetcher,
		logger:    logging.WithComponent(logger, "artwork"),
	}
}

// EnsureCover guarantees albumDir (relative to the sync root) holds a cover
// image, fetching art via the representative track when absent. Idempotent:
// an existing cover means no fetch. Returns the cover path, or "" when the
// album has no art to mirror.
func (s *Synchronizer) EnsureCover(ctx context.Context, albumDir string, track catalog.Track) (string, error) {
	dir := filepath.Join(s.root, filepath.FromSlash(albumDir))
	if existing, ok := FindCover(dir); ok {
		return existing, nil
	}
	if !track.HasArt() {
		return "", nil
	}

	body, contentType, err := s.fetcher.FetchArt(ctx, track)
	if err != nil {
		return "", fmt.Errorf("fetch art for %s: %w", albumDir, err)
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, maxCoverBytes))
	if err != nil {
		return "", fmt.Errorf("%w: read art for %s: %v", catalog.ErrNetwork, albumDir, err)
	}

	ext := extForContentType(contentType, data)
	if s.maxPixels > 0 {
		if shrunk, ok := s.shrink(data); ok {
			data = shrunk
			ext = ".jpg"
		}
	}

	target := filepath.Join(dir, library.CoverBase+ext)
	if err := fileutil.WriteFileAtomic(target, data, 0o644); err != nil {
		return "", err
	}
	s.logger.Debug("wrote album cover", logging.String(logging.FieldPath, target), logging.Int("bytes", len(data)))
	return target, nil
}

// FindCover returns the existing cover image in dir, if any.
func FindCover(dir string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, entry := range entries {
		if !entry.IsDir() && library.IsCoverName(entry.Name()) {
			return filepath.Join(dir, entry.Name()), true
		}
	}
	return "", false
}

// shrink downscales covers exceeding the pixel bound on either axis and
// re-encodes as JPEG. Returns false when the image is small enough or
// undecodable (written verbatim in that case).
func (s *Synchronizer) shrink(data []byte) ([]byte, bool) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, false
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= s.maxPixels && height <= s.maxPixels {
		return nil, false
	}

	ratio := float64(width) / float64(height)
	if width >= height {
		width = s.maxPixels
		height = int(float64(s.maxPixels) / ratio)
	} else {
		height = s.maxPixels
		width = int(float64(s.maxPixels) * ratio)
	}
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 90}); err != nil {
		return nil, false
	}
	return buf.Bytes(), true
}

func extForContentType(contentType string, data []byte) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if ct == "" || ct == "application/octet-stream" {
		ct = strings.ToLower(http.DetectContentType(data))
	}
	switch ct {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
