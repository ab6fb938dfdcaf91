package transcode

import (
	"slices"
	"strings"
	"testing"

	"favsync/internal/config"
	"favsync/internal/logging"
)

func testEngine(t *testing.T) *FFmpeg {
	t.Helper()
	cfg := config.Default()
	return NewFFmpeg(&cfg, logging.NewNop())
}

func TestArgsTargetProfile(t *testing.T) {
	engine := testEngine(t)
	job := Job{
		InputPath:  "/tmp/in.src",
		OutputPath: "/tmp/out.mp3",
		Artist:     "Foo",
		Album:      "Bar",
		Title:      "Baz",
	}
	args := engine.args(job)

	wantPairs := [][2]string{
		{"-i", "/tmp/in.src"},
		{"-codec:a", "libmp3lame"},
		{"-q:a", "2"},
		{"-ar", "44100"},
		{"-ac", "2"},
		{"-map_metadata", "-1"},
		{"-id3v2_version", "3"},
		{"-metadata", "artist=Foo"},
		{"-metadata", "album=Bar"},
		{"-metadata", "title=Baz"},
		{"-f", "mp3"},
	}
	for _, pair := range wantPairs {
		if !hasPair(args, pair[0], pair[1]) {
			t.Errorf("args missing %q %q: %v", pair[0], pair[1], args)
		}
	}
	if args[len(args)-1] != "/tmp/out.mp3" {
		t.Fatalf("output path must be last: %v", args)
	}
	if !slices.Contains(args, "-y") {
		t.Fatalf("overwrite flag missing: %v", args)
	}
}

func TestArgsOptionalFrames(t *testing.T) {
	engine := testEngine(t)

	bare := engine.args(Job{InputPath: "in", OutputPath: "out"})
	for _, arg := range bare {
		if strings.HasPrefix(arg, "track=") || strings.HasPrefix(arg, "date=") {
			t.Fatalf("unexpected optional frame in %v", bare)
		}
	}

	full := engine.args(Job{InputPath: "in", OutputPath: "out", TrackNumber: 7, Year: 1997})
	if !hasPair(full, "-metadata", "track=7") {
		t.Fatalf("track frame missing: %v", full)
	}
	if !hasPair(full, "-metadata", "date=1997") {
		t.Fatalf("date frame missing: %v", full)
	}
}

func TestStderrTail(t *testing.T) {
	if got := stderrTail(""); got != "(no engine output)" {
		t.Fatalf("empty output tail = %q", got)
	}
	long := "one\ntwo\nthree\nfour\nfive\nsix"
	got := stderrTail(long)
	if strings.Contains(got, "one") || !strings.Contains(got, "six") {
		t.Fatalf("tail = %q", got)
	}
}

func hasPair(args []string, flag, value string) bool {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == flag && args[i+1] == value {
			return true
		}
	}
	return false
}
