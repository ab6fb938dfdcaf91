package plan

import (
	"testing"
	"time"

	"favsync/internal/catalog"
	"favsync/internal/library"
	"favsync/internal/logging"
)

func track(id, artist, album, title string) catalog.Track {
	return catalog.Track{ID: id, Artist: artist, Album: album, Title: title}
}

func entry(key library.Key) library.Entry {
	return library.Entry{Key: key, Size: 1, ModTime: time.Now()}
}

func TestBuildPartitionsKeys(t *testing.T) {
	remote := []catalog.Track{
		track("1", "Foo", "Bar", "New"),
		track("2", "Foo", "Bar", "Kept"),
	}
	keptKey := library.BuildKey("Foo", "Bar", "Kept", 0)
	staleKey := library.BuildKey("Old", "Gone", "Stale", 0)
	index := map[library.Key]library.Entry{
		keptKey:  entry(keptKey),
		staleKey: entry(staleKey),
	}

	p := Build(remote, index, logging.NewNop())

	if len(p.Create) != 1 || len(p.Delete) != 1 || len(p.Unchanged) != 1 {
		t.Fatalf("unexpected partition sizes: create=%d delete=%d unchanged=%d",
			len(p.Create), len(p.Delete), len(p.Unchanged))
	}
	newKey := library.BuildKey("Foo", "Bar", "New", 0)
	if _, ok := p.Create[newKey]; !ok {
		t.Fatalf("expected %q in Create", newKey)
	}
	if _, ok := p.Unchanged[keptKey]; !ok {
		t.Fatalf("expected %q in Unchanged", keptKey)
	}
	if _, ok := p.Delete[staleKey]; !ok {
		t.Fatalf("expected %q in Delete", staleKey)
	}

	// No key may appear in more than one set.
	for key := range p.Create {
		if _, ok := p.Delete[key]; ok {
			t.Fatalf("key %q in both Create and Delete", key)
		}
		if _, ok := p.Unchanged[key]; ok {
			t.Fatalf("key %q in both Create and Unchanged", key)
		}
	}
	for key := range p.Delete {
		if _, ok := p.Unchanged[key]; ok {
			t.Fatalf("key %q in both Delete and Unchanged", key)
		}
	}
}

func TestBuildDuplicateKeyLastWins(t *testing.T) {
	remote := []catalog.Track{
		track("first", "Foo", "Bar", "Same"),
		track("second", "Foo", "Bar", "Same"),
	}

	p := Build(remote, nil, logging.NewNop())

	key := library.BuildKey("Foo", "Bar", "Same", 0)
	if len(p.Create) != 1 {
		t.Fatalf("expected single create, got %d", len(p.Create))
	}
	if got := p.Create[key].ID; got != "second" {
		t.Fatalf("expected last duplicate to win, got id %q", got)
	}
}

func TestBuildEmptySides(t *testing.T) {
	p := Build(nil, nil, logging.NewNop())
	if len(p.Create)+len(p.Delete)+len(p.Unchanged) != 0 {
		t.Fatal("expected empty plan")
	}
}

func TestAlbumsPrefersTracksWithArt(t *testing.T) {
	noArt := track("1", "Foo", "Bar", "One")
	withArt := track("2", "Foo", "Bar", "Two")
	withArt.ArtItemID = "album-9"

	p := Build([]catalog.Track{noArt, withArt}, nil, logging.NewNop())

	albums := p.Albums()
	if len(albums) != 1 {
		t.Fatalf("expected one album, got %d", len(albums))
	}
	rep, ok := albums["Foo/Bar"]
	if !ok {
		t.Fatalf("missing album dir, got %v", albums)
	}
	if !rep.HasArt() {
		t.Fatal("representative track should carry the art reference")
	}
}

func TestKeyOrderingDeterministic(t *testing.T) {
	remote := []catalog.Track{
		track("1", "B", "B", "B"),
		track("2", "A", "A", "A"),
		track("3", "C", "C", "C"),
	}
	p := Build(remote, nil, logging.NewNop())
	keys := p.CreateKeys()
	for i := 1; i < len(keys); i++ {
		if keys[i-1] >= keys[i] {
			t.Fatalf("keys not sorted: %v", keys)
		}
	}
}
