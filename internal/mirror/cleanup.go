package mirror

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"favsync/internal/library"
	"favsync/internal/logging"
)

// deleteEntry removes one unfavorited track file. Missing files count as
// already deleted.
func deleteEntry(root string, key library.Key, logger *slog.Logger) error {
	path := filepath.Join(root, filepath.FromSlash(key.String()))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	logger.Info("deleted track", logging.String(logging.FieldKey, key.String()))
	return nil
}

// pruneEmptyDirs walks upward from each affected directory and removes
// directories left without audio files, deleting a now-orphaned cover image
// first. Pruning bottoms out at the sync root, which is never removed.
func pruneEmptyDirs(root string, dirs map[string]struct{}, logger *slog.Logger) {
	log := logging.WithComponent(logger, "cleanup")
	for dir := range dirs {
		current := filepath.Join(root, filepath.FromSlash(dir))
		for {
			if !strings.HasPrefix(current, root) || current == root {
				break
			}
			if !pruneDir(current, log) {
				break
			}
			current = filepath.Dir(current)
		}
	}
}

// pruneDir removes dir when no audio remains, sweeping covers and stray
// temp files out of the way first. Reports whether the directory was
// removed so the caller can continue upward.
func pruneDir(dir string, log *slog.Logger) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}

	var removable []string
	for _, entry := range entries {
		if entry.IsDir() {
			return false
		}
		name := entry.Name()
		if strings.EqualFold(filepath.Ext(name), library.TargetExt) {
			return false
		}
		if library.IsCoverName(name) || library.IsTempName(name) {
			removable = append(removable, filepath.Join(dir, name))
			continue
		}
		// Foreign file: leave the directory alone.
		return false
	}

	for _, path := range removable {
		if err := os.Remove(path); err != nil {
			log.Warn("could not remove orphaned file", logging.String(logging.FieldPath, path), logging.Error(err))
			return false
		}
	}
	if err := os.Remove(dir); err != nil {
		return false
	}
	log.Debug("pruned empty directory", logging.String(logging.FieldPath, dir))
	return true
}
