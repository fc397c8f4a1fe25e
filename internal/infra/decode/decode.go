// Package decode identifies audio containers from their leading bytes and
// opens them as seekable beep streams.
package decode

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

// ErrUnsupportedFormat is returned for data no decoder recognizes.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Format is an audio container.
type Format string

const (
	FormatUnknown Format = ""
	FormatMP3     Format = "mp3"
	FormatWAV     Format = "wav"
	FormatFLAC    Format = "flac"
	FormatVorbis  Format = "ogg"
)

// MimeType returns the MIME type served for the format.
func (f Format) MimeType() string {
	switch f {
	case FormatMP3:
		return "audio/mpeg"
	case FormatWAV:
		return "audio/wav"
	case FormatFLAC:
		return "audio/flac"
	case FormatVorbis:
		return "audio/ogg"
	default:
		return "application/octet-stream"
	}
}

// Sniff identifies the container of data by its magic bytes.
func Sniff(data []byte) Format {
	switch {
	case len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE")):
		return FormatWAV
	case bytes.HasPrefix(data, []byte("fLaC")):
		return FormatFLAC
	case bytes.HasPrefix(data, []byte("OggS")):
		return FormatVorbis
	case bytes.HasPrefix(data, []byte("ID3")):
		return FormatMP3
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		// MPEG audio frame sync
		return FormatMP3
	default:
		return FormatUnknown
	}
}

// Open decodes data as a seekable stream.
func Open(data []byte) (beep.StreamSeekCloser, beep.Format, error) {
	r := bytes.NewReader(data)

	switch Sniff(data) {
	case FormatWAV:
		return wav.Decode(r)
	case FormatFLAC:
		return flac.Decode(r)
	case FormatVorbis:
		return vorbis.Decode(io.NopCloser(r))
	case FormatMP3:
		return mp3.Decode(io.NopCloser(r))
	default:
		return nil, beep.Format{}, ErrUnsupportedFormat
	}
}

// Duration returns the play length of data.
func Duration(data []byte) (time.Duration, error) {
	streamer, format, err := Open(data)
	if err != nil {
		return 0, fmt.Errorf("failed to decode audio: %w", err)
	}
	defer streamer.Close()

	if format.SampleRate <= 0 {
		return 0, fmt.Errorf("invalid sample rate %d", format.SampleRate)
	}
	return format.SampleRate.D(streamer.Len()), nil
}
