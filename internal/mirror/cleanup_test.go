package mirror

import (
	"os"
	"path/filepath"
	"testing"

	"favsync/internal/logging"
)

func TestPruneEmptyDirsRemovesOrphanedCovers(t *testing.T) {
	root := t.TempDir()
	album := filepath.Join(root, "Foo", "Bar")
	if err := os.MkdirAll(album, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(album, "cover.jpg"), []byte("img"), 0o644); err != nil {
		t.Fatal(err)
	}

	pruneEmptyDirs(root, map[string]struct{}{"Foo/Bar": {}}, logging.NewNop())

	if _, err := os.Stat(filepath.Join(root, "Foo")); !os.IsNotExist(err) {
		t.Fatalf("artist directory survived: %v", err)
	}
	if _, err := os.Stat(root); err != nil {
		t.Fatalf("sync root must never be pruned: %v", err)
	}
}

func TestPruneEmptyDirsKeepsDirsWithAudio(t *testing.T) {
	root := t.TempDir()
	album := filepath.Join(root, "Foo", "Bar")
	if err := os.MkdirAll(album, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(album, "Baz.mp3"), []byte("audio"), 0o644); err != nil {
		t.Fatal(err)
	}

	pruneEmptyDirs(root, map[string]struct{}{"Foo/Bar": {}}, logging.NewNop())

	if _, err := os.Stat(album); err != nil {
		t.Fatalf("album with audio was pruned: %v", err)
	}
}

func TestPruneEmptyDirsLeavesForeignFiles(t *testing.T) {
	root := t.TempDir()
	album := filepath.Join(root, "Foo", "Bar")
	if err := os.MkdirAll(album, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(album, "notes.txt"), []byte("keep"), 0o644); err != nil {
		t.Fatal(err)
	}

	pruneEmptyDirs(root, map[string]struct{}{"Foo/Bar": {}}, logging.NewNop())

	if _, err := os.Stat(filepath.Join(album, "notes.txt")); err != nil {
		t.Fatalf("foreign file removed: %v", err)
	}
}

func TestDeleteEntryToleratesMissingFile(t *testing.T) {
	root := t.TempDir()
	if err := deleteEntry(root, "Foo/Bar/Baz.mp3", logging.NewNop()); err != nil {
		t.Fatalf("deleteEntry on missing file: %v", err)
	}
}
