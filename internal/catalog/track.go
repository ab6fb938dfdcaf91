package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for catalog failures. Listing errors are fatal to the
// whole run; fetch errors fail only the action that needed the bytes.
var (
	ErrAuth     = errors.New("catalog authentication failed")
	ErrNetwork  = errors.New("catalog network error")
	ErrNotFound = errors.New("catalog item not found")
)

// Track is one favorited audio item as reported by the catalog. Immutable
// once fetched for a run.
type Track struct {
	// ID is the opaque catalog identifier, also the audio fetch handle.
	ID string
	// Artist is the display artist (multiple artists joined with ", ").
	Artist string
	Album  string
	Title  string
	// TrackNumber is the position within the album, 0 when unknown.
	TrackNumber int
	// Year is the production year, 0 when unknown.
	Year int
	// ArtItemID is the item whose primary image serves as album art,
	// empty when the catalog has none.
	ArtItemID string
}

// HasArt reports whether the catalog exposes album art for this track.
func (t Track) HasArt() bool { return t.ArtItemID != "" }

// favoriteItem mirrors the catalog's item payload. Only fields the sync
// needs are decoded.
type favoriteItem struct {
	ID                   string   `json:"Id"`
	Name                 string   `json:"Name"`
	Type                 string   `json:"Type"`
	Artists              []string `json:"Artists"`
	AlbumArtist          string   `json:"AlbumArtist"`
	Album                string   `json:"Album"`
	AlbumID              string   `json:"AlbumId"`
	IndexNumber          int      `json:"IndexNumber"`
	ProductionYear       int      `json:"ProductionYear"`
	AlbumPrimaryImageTag string   `json:"AlbumPrimaryImageTag"`
}

type itemsPage struct {
	Items            []favoriteItem `json:"Items"`
	TotalRecordCount int            `json:"TotalRecordCount"`
}

// toTrack validates a raw item and converts it. Required fields missing
// from the payload are a network error: the listing cannot be trusted.
func (it favoriteItem) toTrack() (Track, error) {
	id := strings.TrimSpace(it.ID)
	title := strings.TrimSpace(it.Name)
	album := strings.TrimSpace(it.Album)
	artist := joinArtists(it.Artists)
	if artist == "" {
		artist = strings.TrimSpace(it.AlbumArtist)
	}

	var missing []string
	if id == "" {
		missing = append(missing, "Id")
	}
	if title == "" {
		missing = append(missing, "Name")
	}
	if artist == "" {
		missing = append(missing, "Artists")
	}
	if album == "" {
		missing = append(missing, "Album")
	}
	if len(missing) > 0 {
		return Track{}, fmt.Errorf("%w: item %q missing required fields: %s", ErrNetwork, it.ID, strings.Join(missing, ", "))
	}

	artItem := ""
	if strings.TrimSpace(it.AlbumPrimaryImageTag) != "" && strings.TrimSpace(it.AlbumID) != "" {
		artItem = strings.TrimSpace(it.AlbumID)
	}
	return Track{
		ID:          id,
		Artist:      artist,
		Album:       album,
		Title:       title,
		TrackNumber: it.IndexNumber,
		Year:        it.ProductionYear,
		ArtItemID:   artItem,
	}, nil
}

func joinArtists(artists []string) string {
	kept := make([]string, 0, len(artists))
	for _, artist := range artists {
		if artist = strings.TrimSpace(artist); artist != "" {
			kept = append(kept, artist)
		}
	}
	return strings.Join(kept, ", ")
}
