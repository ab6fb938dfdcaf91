package library

import "testing"

func TestBuildKey(t *testing.T) {
	tests := []struct {
		name        string
		artist      string
		album       string
		title       string
		trackNumber int
		want        Key
	}{
		{
			name:   "plain",
			artist: "Foo", album: "Bar", title: "Baz",
			want: "Foo/Bar/Baz.mp3",
		},
		{
			name:   "track number prefix",
			artist: "Foo", album: "Bar", title: "Baz", trackNumber: 7,
			want: "Foo/Bar/07 Baz.mp3",
		},
		{
			name:   "unsafe characters",
			artist: "AC/DC", album: "Back: Black", title: "What?",
			want: "AC-DC/Back- Black/What.mp3",
		},
		{
			name:   "empty fields fall back",
			artist: "", album: "  ", title: "???",
			want: "unknown/unknown/unknown.mp3",
		},
		{
			name:   "trailing dots trimmed",
			artist: "Foo.", album: "Bar", title: "Baz...",
			want: "Foo/Bar/Baz.mp3",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := BuildKey(tc.artist, tc.album, tc.title, tc.trackNumber)
			if got != tc.want {
				t.Fatalf("BuildKey = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestBuildKeyUnicodeNormalization(t *testing.T) {
	// "é" precomposed vs combining form must produce identical keys.
	composed := BuildKey("Beyonc\u00e9", "Album", "Song", 0)
	decomposed := BuildKey("Beyonce\u0301", "Album", "Song", 0)
	if composed != decomposed {
		t.Fatalf("normalization mismatch: %q vs %q", composed, decomposed)
	}
}

func TestParseKeyRoundTrip(t *testing.T) {
	key := BuildKey("Foo", "Bar", "Baz", 3)
	parsed, ok := ParseKey(key.String())
	if !ok {
		t.Fatalf("ParseKey rejected key built by BuildKey: %q", key)
	}
	if parsed != key {
		t.Fatalf("round trip mismatch: %q vs %q", parsed, key)
	}
}

func TestParseKeyRejects(t *testing.T) {
	bad := []string{
		"",
		"Foo/Bar.mp3",
		"Foo/Bar/Baz/Qux.mp3",
		"Foo/Bar/Baz.flac",
		"../Bar/Baz.mp3",
		"/abs/Bar/Baz.mp3",
		"Foo/Bar/cover.jpg",
	}
	for _, rel := range bad {
		if _, ok := ParseKey(rel); ok {
			t.Fatalf("ParseKey accepted %q", rel)
		}
	}
}

func TestKeyAccessors(t *testing.T) {
	key := Key("Foo/Bar/01 Baz.mp3")
	if got := key.AlbumDir(); got != "Foo/Bar" {
		t.Fatalf("AlbumDir = %q", got)
	}
	if got := key.Artist(); got != "Foo" {
		t.Fatalf("Artist = %q", got)
	}
}

func TestIsCoverName(t *testing.T) {
	for _, name := range []string{"cover.jpg", "cover.jpeg", "cover.png", "cover.webp"} {
		if !IsCoverName(name) {
			t.Fatalf("expected %q to be a cover name", name)
		}
	}
	for _, name := range []string{"cover.mp3", "front.jpg", "cover", "mycover.jpg"} {
		if IsCoverName(name) {
			t.Fatalf("expected %q not to be a cover name", name)
		}
	}
}

func TestTempNames(t *testing.T) {
	tmp := TempName("Baz.mp3")
	if !IsTempName(tmp) {
		t.Fatalf("TempName output %q not recognized by IsTempName", tmp)
	}
	if IsTempName("Baz.mp3") {
		t.Fatal("regular file flagged as temp")
	}
}
