//go:build (linux && cgo) || windows || darwin

package speaker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/rs/zerolog/log"

	"github.com/edumarques81/nifty/internal/domain/media"
	"github.com/edumarques81/nifty/internal/infra/decode"
)

// Available indicates whether audio playback is supported in this build.
const Available = true

// maxLoadFailures is how many sources in a row may fail to load before the
// renderer pauses instead of reporting them as ended.
const maxLoadFailures = 8

// output is the mixer sources are queued on.
type output interface {
	Play(s ...beep.Streamer)
	Clear()
	Lock()
	Unlock()
	Close()
}

// device is the default sound card.
type device struct{}

func (device) Play(s ...beep.Streamer) { speaker.Play(s...) }
func (device) Clear()                  { speaker.Clear() }
func (device) Lock()                   { speaker.Lock() }
func (device) Unlock()                 { speaker.Unlock() }
func (device) Close()                  { speaker.Close() }

// Renderer plays one source at a time on the default output device.
type Renderer struct {
	fetch      Fetcher
	out        output
	sampleRate beep.SampleRate

	mu         sync.Mutex
	source     string
	streamer   beep.StreamSeekCloser
	format     beep.Format
	ctrl       *beep.Ctrl
	volume     *effects.Volume
	level      float64
	muted      bool
	generation int
	failures   int

	events chan media.Event
}

// New initializes the speaker and returns a renderer reading sources through
// fetch.
func New(fetch Fetcher) (*Renderer, error) {
	if err := speaker.Init(DefaultSampleRate, DefaultSampleRate.N(time.Second/10)); err != nil {
		return nil, fmt.Errorf("failed to initialize speaker: %w", err)
	}
	return newRenderer(fetch, device{}), nil
}

func newRenderer(fetch Fetcher, out output) *Renderer {
	return &Renderer{
		fetch:      fetch,
		out:        out,
		sampleRate: DefaultSampleRate,
		level:      1,
		events:     make(chan media.Event, 64),
	}
}

// Load decodes url and queues it paused. An empty url stops output. A source
// that cannot be loaded is reported as ended so playback moves on.
func (r *Renderer) Load(url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stopLocked()
	r.source = url
	if url == "" {
		return nil
	}
	return r.queueLocked(url)
}

func (r *Renderer) queueLocked(url string) error {
	streamer, format, err := r.open(url)
	if err != nil {
		r.failures++
		if r.failures > maxLoadFailures {
			r.emit(media.Paused(url))
		} else {
			r.emit(media.Ended(url))
		}
		return err
	}
	r.failures = 0

	r.streamer = streamer
	r.format = format
	r.ctrl = &beep.Ctrl{Streamer: beep.Resample(4, format.SampleRate, r.sampleRate, streamer), Paused: true}
	exp, silent := gain(r.level)
	r.volume = &effects.Volume{Streamer: r.ctrl, Base: 2, Volume: exp, Silent: silent || r.muted}

	r.generation++
	gen := r.generation
	r.out.Play(beep.Seq(r.volume, beep.Callback(func() {
		// Runs on the mixer goroutine, which must not block on r.mu.
		go r.finished(gen, url)
	})))

	r.emit(media.MetadataReady(url, format.SampleRate.D(streamer.Len()).Seconds()))
	return nil
}

func (r *Renderer) open(url string) (beep.StreamSeekCloser, beep.Format, error) {
	data, err := r.fetch(url)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	streamer, format, err := decode.Open(data)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("failed to decode %s: %w", url, err)
	}
	return streamer, format, nil
}

// Play resumes output. A source that already finished is queued again from
// the start; one that failed to load is reported paused.
func (r *Renderer) Play() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ctrl == nil {
		switch {
		case r.source == "":
			return fmt.Errorf("nothing loaded")
		case r.failures > 0:
			r.emit(media.Paused(r.source))
			return fmt.Errorf("%s could not be loaded", r.source)
		}
		r.stopLocked()
		if err := r.queueLocked(r.source); err != nil {
			return err
		}
	}
	r.out.Lock()
	r.ctrl.Paused = false
	r.out.Unlock()

	r.emit(media.Playing(r.source))
	return nil
}

// Pause halts output.
func (r *Renderer) Pause() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ctrl == nil {
		return nil
	}
	r.out.Lock()
	r.ctrl.Paused = true
	r.out.Unlock()

	r.emit(media.Paused(r.source))
	return nil
}

// Seek moves to seconds, bounded to the source length.
func (r *Renderer) Seek(seconds float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.streamer == nil {
		return nil
	}

	r.out.Lock()
	n := r.format.SampleRate.N(time.Duration(seconds * float64(time.Second)))
	n = min(max(n, 0), max(r.streamer.Len()-1, 0))
	err := r.streamer.Seek(n)
	pos := r.streamer.Position()
	r.out.Unlock()

	if err != nil {
		return fmt.Errorf("seek failed: %w", err)
	}
	r.emit(media.TimeUpdate(r.source, r.format.SampleRate.D(pos).Seconds()))
	return nil
}

// SetVolume sets the output level (0..1).
func (r *Renderer) SetVolume(volume float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.level = volume
	r.applyVolumeLocked()
	return nil
}

// SetMuted silences output without losing the level.
func (r *Renderer) SetMuted(muted bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.muted = muted
	r.applyVolumeLocked()
	return nil
}

func (r *Renderer) applyVolumeLocked() {
	if r.volume == nil {
		return
	}
	exp, silent := gain(r.level)
	r.out.Lock()
	r.volume.Volume = exp
	r.volume.Silent = silent || r.muted
	r.out.Unlock()
}

// Events streams media events until ctx is done. Position is reported while
// output is running.
func (r *Renderer) Events(ctx context.Context) <-chan media.Event {
	out := make(chan media.Event, 64)

	go func() {
		defer close(out)

		ticker := time.NewTicker(tickInterval)
		defer ticker.Stop()

		for {
			var ev media.Event
			select {
			case <-ctx.Done():
				return
			case ev = <-r.events:
			case <-ticker.C:
				var ok bool
				if ev, ok = r.progress(); !ok {
					continue
				}
			}

			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

func (r *Renderer) progress() (media.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ctrl == nil {
		return media.Event{}, false
	}

	r.out.Lock()
	paused := r.ctrl.Paused
	pos := r.streamer.Position()
	r.out.Unlock()

	if paused {
		return media.Event{}, false
	}
	return media.TimeUpdate(r.source, r.format.SampleRate.D(pos).Seconds()), true
}

// finished reports the end of the source queued as generation gen.
func (r *Renderer) finished(gen int, url string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if gen != r.generation {
		return
	}
	r.ctrl = nil
	r.emit(media.Ended(url))
}

// Close stops output and frees the decoder.
func (r *Renderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stopLocked()
	r.out.Close()
	return nil
}

func (r *Renderer) stopLocked() {
	r.generation++
	r.out.Clear()
	if r.streamer != nil {
		r.streamer.Close()
		r.streamer = nil
	}
	r.ctrl = nil
	r.volume = nil
}

// emit queues ev without blocking; events are dropped when no one reads.
func (r *Renderer) emit(ev media.Event) {
	select {
	case r.events <- ev:
	default:
		log.Warn().Str("event", ev.Kind.String()).Msg("Speaker event dropped")
	}
}
