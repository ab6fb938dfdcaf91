// Package tag writes ID3v2 frames onto materialized MP3 files. Tagging
// happens on the staged file before it is promoted, so a final path never
// holds a half-tagged track.
package tag

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bogem/id3v2"
)

// ErrTag marks tagging failures so callers can classify them.
var ErrTag = errors.New("tagging failed")

// Metadata holds the frames embedded in every materialized track.
type Metadata struct {
	Artist      string
	Album       string
	Title       string
	TrackNumber int
	Year        int
}

// Apply rewrites the file's ID3v2 tag from metadata, embedding cover art
// when bytes are provided. artMIME defaults to image/jpeg.
func Apply(path string, meta Metadata, artwork []byte, artMIME string) error {
	t, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", ErrTag, path, err)
	}
	defer t.Close()

	t.SetArtist(meta.Artist)
	t.SetAlbum(meta.Album)
	t.SetTitle(meta.Title)

	if meta.TrackNumber > 0 {
		t.AddTextFrame("TRCK", id3v2.EncodingUTF8, strconv.Itoa(meta.TrackNumber))
	} else {
		t.DeleteFrames("TRCK")
	}
	if meta.Year > 0 {
		t.AddTextFrame("TYER", id3v2.EncodingUTF8, strconv.Itoa(meta.Year))
	} else {
		t.DeleteFrames("TYER")
	}

	if len(artwork) > 0 {
		mime := strings.TrimSpace(artMIME)
		if mime == "" {
			mime = "image/jpeg"
		}
		t.DeleteFrames(t.CommonID("Attached picture"))
		t.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    mime,
			PictureType: id3v2.PTFrontCover,
			Description: "Cover",
			Picture:     artwork,
		})
	}

	if err := t.Save(); err != nil {
		return fmt.Errorf("%w: save %s: %v", ErrTag, path, err)
	}
	return nil
}
