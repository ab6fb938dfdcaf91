package tag

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bogem/id3v2"
)

func TestApplyWritesFrames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "track.mp3")
	if err := os.WriteFile(path, []byte("mp3 payload without a tag"), 0o644); err != nil {
		t.Fatal(err)
	}

	meta := Metadata{Artist: "Foo", Album: "Bar", Title: "Baz", TrackNumber: 7, Year: 1997}
	art := []byte("jpeg-bytes")
	if err := Apply(path, meta, art, "image/jpeg"); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	parsed, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		t.Fatal(err)
	}
	defer parsed.Close()

	if parsed.Artist() != "Foo" || parsed.Album() != "Bar" || parsed.Title() != "Baz" {
		t.Fatalf("frames = %q/%q/%q", parsed.Artist(), parsed.Album(), parsed.Title())
	}
	if got := parsed.GetTextFrame("TRCK").Text; got != "7" {
		t.Fatalf("TRCK = %q", got)
	}
	if got := parsed.GetTextFrame("TYER").Text; got != "1997" {
		t.Fatalf("TYER = %q", got)
	}

	pictures := parsed.GetFrames(parsed.CommonID("Attached picture"))
	if len(pictures) != 1 {
		t.Fatalf("expected one picture frame, got %d", len(pictures))
	}
	picture, ok := pictures[0].(id3v2.PictureFrame)
	if !ok {
		t.Fatalf("unexpected frame type %T", pictures[0])
	}
	if string(picture.Picture) != "jpeg-bytes" || picture.MimeType != "image/jpeg" {
		t.Fatalf("picture = %q mime = %q", picture.Picture, picture.MimeType)
	}
}

func TestApplyWithoutOptionalFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "track.mp3")
	if err := os.WriteFile(path, []byte("mp3 payload without a tag"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Apply(path, Metadata{Artist: "Foo", Album: "Bar", Title: "Baz"}, nil, ""); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	parsed, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		t.Fatal(err)
	}
	defer parsed.Close()

	if got := parsed.GetTextFrame("TRCK").Text; got != "" {
		t.Fatalf("unexpected TRCK frame %q", got)
	}
	if frames := parsed.GetFrames(parsed.CommonID("Attached picture")); len(frames) != 0 {
		t.Fatalf("unexpected picture frames: %d", len(frames))
	}
}

func TestApplyMissingFile(t *testing.T) {
	err := Apply(filepath.Join(t.TempDir(), "missing.mp3"), Metadata{}, nil, "")
	if !errors.Is(err, ErrTag) {
		t.Fatalf("expected ErrTag, got %v", err)
	}
}
