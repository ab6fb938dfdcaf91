package library

import (
	"fmt"
	"path"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// TargetExt is the fixed extension of materialized audio files.
const TargetExt = ".mp3"

// CoverBase is the basename (without extension) of album cover images.
const CoverBase = "cover"

// Key identifies a track by its relative path inside the sync root,
// always artist/album/title.mp3 with forward slashes.
type Key string

// fileNameReplacer replaces filesystem-unsafe characters with safe
// alternatives. Slashes, backslashes, colons, and asterisks become dashes;
// the rest are removed.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeName normalizes a metadata field into a filesystem-safe path
// segment. Unicode is NFC-normalized so the same title always produces the
// same bytes regardless of how the server composed it. Returns "unknown"
// when nothing printable remains.
func SanitizeName(name string) string {
	name = norm.NFC.String(strings.TrimSpace(name))
	name = strings.TrimSpace(fileNameReplacer.Replace(name))
	name = strings.Trim(name, ". ")
	if name == "" {
		return "unknown"
	}
	return name
}

// BuildKey derives the SyncKey for a track. A positive track number becomes
// a zero-padded prefix so album order survives naive players.
func BuildKey(artist, album, title string, trackNumber int) Key {
	base := SanitizeName(title)
	if trackNumber > 0 {
		base = fmt.Sprintf("%02d %s", trackNumber, base)
	}
	return Key(path.Join(SanitizeName(artist), SanitizeName(album), base+TargetExt))
}

// ParseKey validates a relative path as a SyncKey. It accepts exactly the
// paths BuildKey produces: three segments, target extension, no traversal.
func ParseKey(rel string) (Key, bool) {
	rel = path.Clean(strings.ReplaceAll(rel, "\\", "/"))
	if rel == "." || strings.HasPrefix(rel, "../") || path.IsAbs(rel) {
		return "", false
	}
	parts := strings.Split(rel, "/")
	if len(parts) != 3 {
		return "", false
	}
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			return "", false
		}
	}
	if !strings.EqualFold(path.Ext(parts[2]), TargetExt) {
		return "", false
	}
	return Key(rel), true
}

// AlbumDir returns the key's album directory relative to the sync root.
func (k Key) AlbumDir() string {
	return path.Dir(string(k))
}

// Artist returns the artist segment of the key.
func (k Key) Artist() string {
	parts := strings.SplitN(string(k), "/", 2)
	return parts[0]
}

func (k Key) String() string { return string(k) }

// IsCoverName reports whether a basename is an album cover image.
func IsCoverName(name string) bool {
	ext := strings.ToLower(path.Ext(name))
	if strings.TrimSuffix(name, path.Ext(name)) != CoverBase {
		return false
	}
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return true
	}
	return false
}
