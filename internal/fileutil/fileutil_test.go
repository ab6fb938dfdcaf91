package fileutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"favsync/internal/library"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "Artist", "Album", "cover.jpg")

	if err := WriteFileAtomic(target, []byte("image"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "image" {
		t.Fatalf("content mismatch: %q", got)
	}

	// No staging residue may remain.
	entries, err := os.ReadDir(filepath.Dir(target))
	if err != nil {
		t.Fatal(err)
	}
	for _, entry := range entries {
		if library.IsTempName(entry.Name()) {
			t.Fatalf("staging file left behind: %s", entry.Name())
		}
	}
}

func TestWriteReaderAtomic(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "file.bin")

	n, err := WriteReaderAtomic(target, strings.NewReader("stream"))
	if err != nil {
		t.Fatal(err)
	}
	if n != int64(len("stream")) {
		t.Fatalf("written = %d", n)
	}
	got, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "stream" {
		t.Fatalf("content mismatch: %q", got)
	}
}

func TestStagedDiscardLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "track.mp3")

	staged, err := StageFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := staged.Write([]byte("partial")); err != nil {
		t.Fatal(err)
	}
	staged.Discard()

	if _, err := os.Stat(target); !os.IsNotExist(err) {
		t.Fatalf("final path exists after discard: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("staging residue after discard: %v", entries)
	}
}

func TestStagedDiscardAfterPromoteIsNoop(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "track.mp3")

	staged, err := StageFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := staged.Write([]byte("done")); err != nil {
		t.Fatal(err)
	}
	if err := staged.Promote(); err != nil {
		t.Fatal(err)
	}
	staged.Discard()

	got, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("promoted file missing: %v", err)
	}
	if string(got) != "done" {
		t.Fatalf("content mismatch: %q", got)
	}
}
