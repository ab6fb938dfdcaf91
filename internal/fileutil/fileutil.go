// Package fileutil provides the atomic write primitives used inside the
// sync root. All writers stage into a temp file in the destination
// directory and rename into place, so a reader never observes a partial
// file.
package fileutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"favsync/internal/library"
)

// WriteFileAtomic writes data to path via a staged temp file in the same
// directory, creating parent directories as needed.
func WriteFileAtomic(path string, data []byte, mode os.FileMode) error {
	staged, err := StageFile(path)
	if err != nil {
		return err
	}
	defer staged.Discard()

	if _, err := staged.Write(data); err != nil {
		return err
	}
	if err := staged.File.Chmod(mode); err != nil {
		return fmt.Errorf("chmod staged file: %w", err)
	}
	return staged.Promote()
}

// WriteReaderAtomic streams r to path via a staged temp file, returning the
// number of bytes written.
func WriteReaderAtomic(path string, r io.Reader) (int64, error) {
	staged, err := StageFile(path)
	if err != nil {
		return 0, err
	}
	defer staged.Discard()

	written, err := io.Copy(staged, r)
	if err != nil {
		return written, fmt.Errorf("stage %s: %w", filepath.Base(path), err)
	}
	return written, staged.Promote()
}

// Staged is an open temp file bound to a final destination. Promote renames
// it into place; Discard removes it. Discard after Promote is a no-op, so
// callers can defer it unconditionally.
type Staged struct {
	File  *os.File
	final string
	done  bool
}

// StageFile creates the staging temp file for final, ensuring the parent
// directory exists. The temp name follows the library convention so an
// abandoned file is swept up by the next run's index scan.
func StageFile(final string) (*Staged, error) {
	dir := filepath.Dir(final)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create directory %q: %w", dir, err)
	}
	tmp := filepath.Join(dir, library.TempName(filepath.Base(final)))
	file, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create staging file: %w", err)
	}
	return &Staged{File: file, final: final}, nil
}

func (s *Staged) Write(p []byte) (int, error) {
	return s.File.Write(p)
}

// Path returns the staging file's path.
func (s *Staged) Path() string { return s.File.Name() }

// Promote syncs, closes, and renames the staged file onto its destination.
func (s *Staged) Promote() error {
	if s.done {
		return fmt.Errorf("staged file for %s already settled", s.final)
	}
	if err := s.File.Sync(); err != nil {
		s.Discard()
		return fmt.Errorf("sync staged file: %w", err)
	}
	if err := s.File.Close(); err != nil {
		s.done = true
		_ = os.Remove(s.File.Name())
		return fmt.Errorf("close staged file: %w", err)
	}
	if err := os.Rename(s.File.Name(), s.final); err != nil {
		s.done = true
		_ = os.Remove(s.File.Name())
		return fmt.Errorf("promote %s: %w", filepath.Base(s.final), err)
	}
	s.done = true
	return nil
}

// Discard closes and removes the staged file if it was not promoted.
func (s *Staged) Discard() {
	if s.done {
		return
	}
	s.done = true
	_ = s.File.Close()
	_ = os.Remove(s.File.Name())
}
