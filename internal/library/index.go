package library

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"favsync/internal/logging"
)

// Temp file naming used by all writers inside the sync root. Files matching
// this pattern are never valid entries and are removed during the scan.
const (
	TempPrefix = ".favsync-"
	TempSuffix = ".tmp"
)

// LockFileName is the flock target guarding the sync root against
// overlapping runs.
const LockFileName = ".favsync.lock"

// Entry describes one materialized track observed on disk.
type Entry struct {
	Key     Key
	Size    int64
	ModTime time.Time
}

// IsTempName reports whether a basename belongs to an in-flight or
// abandoned staging file.
func IsTempName(name string) bool {
	return strings.HasPrefix(name, TempPrefix) && strings.HasSuffix(name, TempSuffix)
}

// TempName derives the staging name used while producing final.
func TempName(final string) string {
	return TempPrefix + filepath.Base(final) + TempSuffix
}

// Scan walks the sync root and builds the local index. A missing root is an
// empty index (first run). Stray temp files from interrupted runs are
// deleted on sight. Cover images and the lock file are not entries.
func Scan(root string, logger *slog.Logger) (map[Key]Entry, error) {
	log := logging.WithComponent(logger, "index")

	index := make(map[Key]Entry)
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root && errors.Is(err, fs.ErrNotExist) {
				return filepath.SkipAll
			}
			return fmt.Errorf("scan %s: %w", p, err)
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if IsTempName(name) {
			if rmErr := os.Remove(p); rmErr != nil {
				log.Warn("could not remove stray temp file", logging.String(logging.FieldPath, p), logging.Error(rmErr))
			} else {
				log.Debug("removed stray temp file", logging.String(logging.FieldPath, p))
			}
			return nil
		}
		if name == LockFileName || IsCoverName(name) {
			return nil
		}

		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return fmt.Errorf("relativize %s: %w", p, relErr)
		}
		key, ok := ParseKey(filepath.ToSlash(rel))
		if !ok {
			log.Debug("ignoring foreign file in sync root", logging.String(logging.FieldPath, rel))
			return nil
		}
		info, infoErr := d.Info()
		if infoErr != nil {
			return fmt.Errorf("stat %s: %w", p, infoErr)
		}
		index[key] = Entry{Key: key, Size: info.Size(), ModTime: info.ModTime()}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return index, nil
}
