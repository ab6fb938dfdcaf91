// Package plan computes the reconciliation plan for one sync run: the pure
// diff between the remote favorite set and the local index. No I/O happens
// here; execution belongs to the mirror package.
package plan

import (
	"log/slog"
	"sort"

	"favsync/internal/catalog"
	"favsync/internal/library"
	"favsync/internal/logging"
)

// Plan partitions the union of remote and local keys into three disjoint
// sets. Every key appears in exactly one of Create, Delete, or Unchanged.
type Plan struct {
	// Create holds remote keys with no local file, mapped to their track.
	Create map[library.Key]catalog.Track
	// Delete holds local keys no longer favorited.
	Delete map[library.Key]library.Entry
	// Unchanged holds keys present on both sides, mapped to their track
	// so artwork sync can cover kept albums too.
	Unchanged map[library.Key]catalog.Track
}

// Build derives the plan from a complete remote track list and the local
// index. Two tracks collapsing to the same key is resolved last-write-wins
// and logged; it is an accepted limitation, not an error.
func Build(tracks []catalog.Track, index map[library.Key]library.Entry, logger *slog.Logger) Plan {
	log := logging.WithComponent(logger, "plan")

	remote := make(map[library.Key]catalog.Track, len(tracks))
	for _, track := range tracks {
		key := library.BuildKey(track.Artist, track.Album, track.Title, track.TrackNumber)
		if prev, dup := remote[key]; dup {
			log.Warn("duplicate sync key, keeping last",
				logging.String(logging.FieldKey, key.String()),
				logging.String("kept_id", track.ID),
				logging.String("dropped_id", prev.ID))
		}
		remote[key] = track
	}

	p := Plan{
		Create:    make(map[library.Key]catalog.Track),
		Delete:    make(map[library.Key]library.Entry),
		Unchanged: make(map[library.Key]catalog.Track),
	}
	for key, track := range remote {
		if _, ok := index[key]; ok {
			p.Unchanged[key] = track
		} else {
			p.Create[key] = track
		}
	}
	for key, entry := range index {
		if _, ok := remote[key]; !ok {
			p.Delete[key] = entry
		}
	}
	return p
}

// Albums returns every distinct album directory referenced by kept or
// created tracks, each mapped to a representative track for art fetching.
// Tracks without an art reference do not displace ones that have it.
func (p Plan) Albums() map[string]catalog.Track {
	albums := make(map[string]catalog.Track)
	collect := func(m map[library.Key]catalog.Track) {
		for key, track := range m {
			dir := key.AlbumDir()
			if existing, ok := albums[dir]; ok && existing.HasArt() {
				continue
			}
			if _, ok := albums[dir]; !ok || track.HasArt() {
				albums[dir] = track
			}
		}
	}
	collect(p.Unchanged)
	collect(p.Create)
	return albums
}

// CreateKeys returns the keys to create in deterministic order.
func (p Plan) CreateKeys() []library.Key {
	return sortedKeys(p.Create)
}

// DeleteKeys returns the keys to delete in deterministic order.
func (p Plan) DeleteKeys() []library.Key {
	keys := make([]library.Key, 0, len(p.Delete))
	for key := range p.Delete {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func sortedKeys(m map[library.Key]catalog.Track) []library.Key {
	keys := make([]library.Key, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
