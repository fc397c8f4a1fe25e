package mpd

import (
	"context"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/fhs/gompd/v2/mpd"
	"github.com/rs/zerolog/log"

	"github.com/edumarques81/nifty/internal/domain/media"
)

// DefaultPollInterval is how often the renderer samples MPD while idle events
// are quiet. Elapsed time is not pushed by MPD, so it must be polled.
const DefaultPollInterval = 500 * time.Millisecond

// Resolver maps a blob handle to a URL MPD can stream from.
type Resolver func(handle string) string

// Renderer drives MPD as a media handle. It keeps a single entry queue
// holding the loaded source.
type Renderer struct {
	client   *Client
	resolve  Resolver
	interval time.Duration

	mu     sync.Mutex
	source string
	volume int
	muted  bool
}

// NewRenderer creates a renderer over client.
func NewRenderer(client *Client, resolve Resolver) *Renderer {
	return &Renderer{
		client:   client,
		resolve:  resolve,
		interval: DefaultPollInterval,
		volume:   100,
	}
}

// Load replaces the MPD queue with url. An empty url clears it.
func (r *Renderer) Load(url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	uri := ""
	if url != "" {
		uri = r.resolve(url)
	}
	log.Debug().Str("source", url).Str("uri", uri).Msg("MPD load")

	r.source = url
	return r.client.Replace(uri)
}

// Play starts or resumes playback.
func (r *Renderer) Play() error {
	return r.client.Play()
}

// Pause pauses playback.
func (r *Renderer) Pause() error {
	return r.client.Pause(true)
}

// Seek moves to the given position in seconds.
func (r *Renderer) Seek(seconds float64) error {
	if seconds < 0 {
		seconds = 0
	}
	return r.client.Seek(time.Duration(seconds * float64(time.Second)))
}

// SetVolume sets the mixer volume from a 0..1 level. While muted the level is
// remembered and applied on unmute.
func (r *Renderer) SetVolume(volume float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.volume = toPercent(volume)
	if r.muted {
		return nil
	}
	return r.client.SetVolume(r.volume)
}

// SetMuted mutes by zeroing the mixer volume.
func (r *Renderer) SetMuted(muted bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.muted = muted
	if muted {
		return r.client.SetVolume(0)
	}
	return r.client.SetVolume(r.volume)
}

// Events streams media events until ctx is done. MPD idle notifications
// trigger an immediate sample; a ticker covers elapsed time.
func (r *Renderer) Events(ctx context.Context) <-chan media.Event {
	out := make(chan media.Event, 32)

	changes, err := r.client.Watch("player", "mixer", "playlist")
	if err != nil {
		log.Warn().Err(err).Msg("MPD watcher unavailable, polling only")
	}

	go func() {
		defer close(out)

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		var prev playerStatus
		var prevSource string
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-changes:
				if !ok {
					changes = nil
					continue
				}
			case <-ticker.C:
			}

			cur, source, err := r.sample()
			if err != nil {
				log.Debug().Err(err).Msg("MPD status failed")
				continue
			}
			if source != prevSource {
				prev = playerStatus{}
				prevSource = source
			}
			if source == "" {
				continue
			}

			for _, ev := range translate(prev, cur, source) {
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
			prev = cur
		}
	}()

	return out
}

// sample reads MPD status together with the source it belongs to.
func (r *Renderer) sample() (playerStatus, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	attrs, err := r.client.Status()
	if err != nil {
		return playerStatus{}, "", err
	}
	return parseStatus(attrs), r.source, nil
}

// playerStatus is the part of MPD status the renderer reports on.
type playerStatus struct {
	State    string // play, pause, stop
	Elapsed  float64
	Duration float64
}

func parseStatus(attrs mpd.Attrs) playerStatus {
	s := playerStatus{State: attrs["state"]}
	s.Elapsed, _ = strconv.ParseFloat(attrs["elapsed"], 64)
	s.Duration, _ = strconv.ParseFloat(attrs["duration"], 64)
	return s
}

// translate derives media events from two consecutive samples of the same
// source. MPD stops on its own only at the end of its single entry queue, so
// play followed by stop means the source ended.
func translate(prev, cur playerStatus, source string) []media.Event {
	var events []media.Event

	if cur.Duration > 0 && cur.Duration != prev.Duration {
		events = append(events, media.MetadataReady(source, cur.Duration))
	}

	if cur.State != prev.State {
		switch cur.State {
		case "play":
			events = append(events, media.Playing(source))
		case "pause":
			events = append(events, media.Paused(source))
		case "stop":
			if prev.State == "play" {
				events = append(events, media.Ended(source))
				return events
			}
		}
	}

	if cur.State != "stop" && cur.Elapsed != prev.Elapsed {
		events = append(events, media.TimeUpdate(source, cur.Elapsed))
	}
	return events
}

func toPercent(volume float64) int {
	return int(math.Round(min(max(volume, 0), 1) * 100))
}
