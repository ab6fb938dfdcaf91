package library

import (
	"os"
	"path/filepath"
	"testing"

	"favsync/internal/logging"
)

func writeFile(t *testing.T, path string, data string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestScanMissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "does-not-exist")
	index, err := Scan(root, logging.NewNop())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(index) != 0 {
		t.Fatalf("expected empty index, got %d entries", len(index))
	}
}

func TestScanIndexesTracks(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Foo", "Bar", "01 Baz.mp3"), "audio")
	writeFile(t, filepath.Join(root, "Foo", "Bar", "cover.jpg"), "img")
	writeFile(t, filepath.Join(root, "Other", "stray.txt"), "junk")
	writeFile(t, filepath.Join(root, LockFileName), "")

	index, err := Scan(root, logging.NewNop())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(index) != 1 {
		t.Fatalf("expected 1 entry, got %d: %v", len(index), index)
	}
	entry, ok := index[Key("Foo/Bar/01 Baz.mp3")]
	if !ok {
		t.Fatalf("missing expected key, got %v", index)
	}
	if entry.Size != int64(len("audio")) {
		t.Fatalf("size = %d", entry.Size)
	}
}

func TestScanRemovesStrayTempFiles(t *testing.T) {
	root := t.TempDir()
	tmpPath := filepath.Join(root, "Foo", "Bar", TempName("Baz.mp3"))
	writeFile(t, tmpPath, "partial")

	index, err := Scan(root, logging.NewNop())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(index) != 0 {
		t.Fatalf("temp file indexed: %v", index)
	}
	if _, err := os.Stat(tmpPath); !os.IsNotExist(err) {
		t.Fatalf("stray temp file survived the scan: %v", err)
	}
}
