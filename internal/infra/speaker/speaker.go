// Package speaker renders playback on the local sound card through beep.
// Builds without native audio support get a stub that reports ErrUnavailable.
package speaker

import (
	"errors"
	"math"
	"time"

	"github.com/gopxl/beep/v2"
)

// ErrUnavailable is returned when the build has no audio output.
var ErrUnavailable = errors.New("speaker output not available in this build")

// DefaultSampleRate is the output rate; sources are resampled to it.
const DefaultSampleRate = beep.SampleRate(44100)

// tickInterval is how often playback position is reported.
const tickInterval = 250 * time.Millisecond

// Fetcher returns the contents behind a blob handle.
type Fetcher func(handle string) ([]byte, error)

// gain converts a 0..1 level to a base-2 volume exponent for
// effects.Volume. Zero and below is silence.
func gain(level float64) (exponent float64, silent bool) {
	if level <= 0 {
		return 0, true
	}
	return math.Log2(min(level, 1)), false
}
