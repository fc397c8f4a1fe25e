// Package metadata turns imported audio files into playlist tracks: display
// tags, play length and cover art.
package metadata

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dhowden/tag"
	"github.com/rs/zerolog/log"

	"github.com/edumarques81/nifty/internal/domain/media"
	"github.com/edumarques81/nifty/internal/domain/playlist"
	"github.com/edumarques81/nifty/internal/infra/decode"
)

// UnknownArtist is shown when no artist tag is present.
const UnknownArtist = "Unknown Artist"

// Store holds file contents behind handles.
type Store interface {
	Put(name, mimeType string, data []byte) string
}

// TagReader parses tags from an audio stream.
type TagReader func(r io.ReadSeeker) (tag.Metadata, error)

// Extractor reads track metadata. It never fails: when parsing goes wrong the
// track degrades to file name based values.
type Extractor struct {
	store     Store
	readTags  TagReader
	coverSize int
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithTagReader replaces the tag parser.
func WithTagReader(r TagReader) Option {
	return func(e *Extractor) {
		e.readTags = r
	}
}

// WithCoverSize sets the longest edge of stored cover art.
func WithCoverSize(size int) Option {
	return func(e *Extractor) {
		if size > 0 {
			e.coverSize = size
		}
	}
}

// NewExtractor creates an extractor storing contents in store.
func NewExtractor(store Store, opts ...Option) *Extractor {
	e := &Extractor{
		store:     store,
		readTags:  tag.ReadFrom,
		coverSize: DefaultCoverSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract stores the file and returns its track. The audio handle is always
// issued, even when parsing fails.
func (e *Extractor) Extract(ctx context.Context, file media.File) (track playlist.Track) {
	url := e.store.Put(file.Name, decode.Sniff(file.Data).MimeType(), file.Data)

	fallback := playlist.Track{
		Title:    file.BaseName(),
		Artist:   UnknownArtist,
		Duration: FormatTime(0),
		URL:      url,
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("file", file.Name).Interface("panic", r).Msg("Metadata extraction failed")
			track = fallback
		}
	}()

	if ctx.Err() != nil {
		return fallback
	}

	track = fallback
	cover := e.applyTags(&track, file)
	track.Duration = e.probeDuration(file)

	if cover != nil {
		track.CoverURL = e.storeCover(file.Name, cover)
	}

	log.Debug().
		Str("file", file.Name).
		Str("title", track.Title).
		Str("artist", track.Artist).
		Str("duration", track.Duration).
		Bool("cover", track.CoverURL != "").
		Msg("Extracted metadata")
	return track
}

// applyTags fills title and artist from the file's tags and returns its
// embedded picture, if any.
func (e *Extractor) applyTags(track *playlist.Track, file media.File) *tag.Picture {
	m, err := e.readTags(bytes.NewReader(file.Data))
	if err != nil {
		if errors.Is(err, tag.ErrNoTagsFound) {
			log.Debug().Str("file", file.Name).Msg("No tags found")
		} else {
			log.Warn().Err(err).Str("file", file.Name).Msg("Failed to read tags")
		}
		return nil
	}

	if title := m.Title(); title != "" {
		track.Title = title
	}
	for _, artist := range []string{m.Artist(), m.AlbumArtist(), m.Composer()} {
		if artist != "" {
			track.Artist = artist
			break
		}
	}

	pic := m.Picture()
	if pic == nil || len(pic.Data) == 0 {
		return nil
	}
	return pic
}

func (e *Extractor) probeDuration(file media.File) string {
	d, err := decode.Duration(file.Data)
	if err != nil {
		log.Debug().Err(err).Str("file", file.Name).Msg("Failed to probe duration")
		return FormatTime(0)
	}
	return FormatDuration(d)
}

// storeCover stores the picture, scaled down when it decodes as an image.
func (e *Extractor) storeCover(name string, pic *tag.Picture) string {
	data, mimeType, err := Thumbnail(pic.Data, e.coverSize)
	if err != nil {
		log.Debug().Err(err).Str("file", name).Msg("Storing cover art unscaled")
		data, mimeType = pic.Data, pic.MIMEType
	}
	return e.store.Put(fmt.Sprintf("%s.cover.%s", name, coverExt(mimeType, pic.Ext)), mimeType, data)
}

func coverExt(mimeType, fallback string) string {
	switch mimeType {
	case "image/jpeg":
		return "jpg"
	case "image/png":
		return "png"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	}
	if fallback == "" {
		return "bin"
	}
	return fallback
}
