package player

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/edumarques81/nifty/internal/domain/media"
	"github.com/edumarques81/nifty/internal/domain/playlist"
)

// DefaultImportWorkers bounds concurrent metadata extractions per import.
const DefaultImportWorkers = 4

// Extractor turns a raw file into a Track. It must never fail: on any internal
// error it returns a degraded track derived from the file name.
type Extractor interface {
	Extract(ctx context.Context, file media.File) playlist.Track
}

// Change identifies what a mutation touched.
type Change int

const (
	// ChangeState covers playback status, position, volume and the current track.
	ChangeState Change = iota
	// ChangeQueue covers the track list and shuffle order.
	ChangeQueue
)

// Controller is the playback state machine. It owns the playlist, mediates
// every command sent to the media handle and consumes the handle's events.
// All methods are safe for concurrent use; mutations are applied one at a time.
type Controller struct {
	mu        sync.Mutex
	playlist  *playlist.Playlist
	media     media.Handle
	extractor Extractor
	releaser  playlist.Releaser
	workers   int

	session Session
	loaded  string // url currently attached to the media handle
	seek    seekGuard

	listenersMu sync.RWMutex
	listeners   []func(Change)
}

// Option configures a Controller.
type Option func(*Controller)

// WithImportWorkers bounds concurrent extractions during an import.
func WithImportWorkers(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.workers = n
		}
	}
}

// NewController creates a controller over an empty playlist. Handles of
// removed tracks, and of imports abandoned by cancellation, go to releaser.
func NewController(handle media.Handle, extractor Extractor, releaser playlist.Releaser, opts ...Option) *Controller {
	c := &Controller{
		playlist:  playlist.New(releaser),
		media:     handle,
		extractor: extractor,
		releaser:  releaser,
		workers:   DefaultImportWorkers,
		session:   newSession(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnChange registers a callback invoked after each mutation. Callbacks run
// outside the controller lock and may read the controller.
func (c *Controller) OnChange(fn func(Change)) {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()
	c.listeners = append(c.listeners, fn)
}

func (c *Controller) notify(changes ...Change) {
	c.listenersMu.RLock()
	listeners := c.listeners
	c.listenersMu.RUnlock()

	for _, change := range changes {
		for _, fn := range listeners {
			fn(change)
		}
	}
}

// ImportFiles extracts metadata for all files concurrently, waits for the whole
// batch and appends it in input order. Importing into an empty playlist makes
// the first new track current and starts playback.
func (c *Controller) ImportFiles(ctx context.Context, files []media.File) ([]playlist.Track, error) {
	if len(files) == 0 {
		return nil, nil
	}

	tracks := make([]playlist.Track, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			tracks[i] = c.extractor.Extract(gctx, file)
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		log.Warn().Err(err).Int("files", len(files)).Msg("Import abandoned")
		if c.releaser != nil {
			for _, t := range tracks {
				if t.URL != "" {
					c.releaser.Release(t.URL)
				}
				if t.CoverURL != "" {
					c.releaser.Release(t.CoverURL)
				}
			}
		}
		return nil, err
	}

	c.mu.Lock()
	if c.playlist.Add(tracks...) {
		c.session.Status = StatusPlaying
	}
	c.syncMediaLocked(false)
	count := c.playlist.Len()
	c.mu.Unlock()

	log.Info().Int("imported", len(tracks)).Int("total", count).Msg("ImportFiles")
	c.notify(ChangeQueue, ChangeState)
	return tracks, nil
}

// TogglePlay pauses when playing and plays otherwise.
func (c *Controller) TogglePlay() {
	c.mu.Lock()
	changed := c.togglePlayLocked()
	c.mu.Unlock()

	if changed {
		c.notify(ChangeState)
	}
}

// Play sets playback intent on.
func (c *Controller) Play() {
	c.mu.Lock()
	changed := false
	if c.session.Status == StatusPaused {
		changed = c.togglePlayLocked()
	}
	c.mu.Unlock()

	if changed {
		c.notify(ChangeState)
	}
}

// Pause sets playback intent off.
func (c *Controller) Pause() {
	c.mu.Lock()
	changed := false
	if c.session.Status == StatusPlaying {
		changed = c.togglePlayLocked()
	}
	c.mu.Unlock()

	if changed {
		c.notify(ChangeState)
	}
}

func (c *Controller) togglePlayLocked() bool {
	switch c.session.Status {
	case StatusEmpty:
		return false
	case StatusPlaying:
		log.Info().Msg("Pause")
		if err := c.media.Pause(); err != nil {
			log.Error().Err(err).Msg("Pause failed")
		}
		c.session.Status = StatusPaused
	default:
		log.Info().Msg("Play")
		c.session.Status = StatusPlaying
		c.playLocked()
	}
	return true
}

// SkipToNext advances to the next track and plays it.
func (c *Controller) SkipToNext() bool {
	return c.skip(playlist.Forward)
}

// SkipToPrevious steps back to the previous track and plays it.
func (c *Controller) SkipToPrevious() bool {
	return c.skip(playlist.Backward)
}

func (c *Controller) skip(dir playlist.Direction) bool {
	c.mu.Lock()
	ok := c.skipLocked(dir)
	c.mu.Unlock()

	if ok {
		c.notify(ChangeState)
	}
	return ok
}

func (c *Controller) skipLocked(dir playlist.Direction) bool {
	track, ok := c.playlist.Advance(dir)
	if !ok {
		return false
	}
	log.Info().Str("title", track.Title).Int("index", c.playlist.CurrentIndex()).Msg("Skip")
	c.session.Status = StatusPlaying
	if track.URL == c.loaded {
		// Single track playlists wrap onto themselves.
		if err := c.media.Seek(0); err != nil {
			log.Error().Err(err).Msg("Seek failed")
		}
		c.session.CurrentTime = 0
		c.seek.arm(0, time.Now())
	}
	c.syncMediaLocked(true)
	return true
}

// SelectTrack makes the track with url current and plays it. Unknown urls
// are ignored.
func (c *Controller) SelectTrack(url string) bool {
	c.mu.Lock()
	ok := c.playlist.Select(url)
	if ok {
		log.Info().Str("url", url).Msg("SelectTrack")
		c.session.Status = StatusPlaying
		c.syncMediaLocked(true)
	}
	c.mu.Unlock()

	if ok {
		c.notify(ChangeState)
	}
	return ok
}

// RemoveTrack deletes the track with url. If it was loaded in the media
// handle, the handle is re-pointed to the new current track, or detached when
// the playlist becomes empty, before the track's resources are released.
func (c *Controller) RemoveTrack(url string) bool {
	c.mu.Lock()
	removed, ok := c.playlist.Remove(url)
	if ok {
		log.Info().Str("title", removed.Title).Int("remaining", c.playlist.Len()).Msg("RemoveTrack")
		if c.playlist.Len() == 0 {
			c.session.Status = StatusEmpty
		}
		c.syncMediaLocked(false)
		c.playlist.ReleaseDetached()
	}
	c.mu.Unlock()

	if ok {
		c.notify(ChangeQueue, ChangeState)
	}
	return ok
}

// ToggleShuffle flips shuffle mode and returns the new mode.
func (c *Controller) ToggleShuffle() bool {
	c.mu.Lock()
	on := c.playlist.ToggleShuffle()
	c.mu.Unlock()

	log.Info().Bool("shuffle", on).Msg("ToggleShuffle")
	c.notify(ChangeQueue, ChangeState)
	return on
}

// Seek moves playback to the given position in seconds. The value is not
// clamped here; the media handle bounds it. The session reflects the request
// immediately.
func (c *Controller) Seek(seconds float64) bool {
	c.mu.Lock()
	ok := c.seekLocked(seconds)
	c.mu.Unlock()

	if ok {
		c.notify(ChangeState)
	}
	return ok
}

// SeekRelative moves playback by delta seconds from the displayed position.
func (c *Controller) SeekRelative(delta float64) bool {
	c.mu.Lock()
	ok := c.seekLocked(c.session.CurrentTime + delta)
	c.mu.Unlock()

	if ok {
		c.notify(ChangeState)
	}
	return ok
}

// SeekFraction moves playback to a fraction of the current duration.
func (c *Controller) SeekFraction(fraction float64) bool {
	c.mu.Lock()
	ok := c.seekLocked(fraction * c.session.Duration)
	c.mu.Unlock()

	if ok {
		c.notify(ChangeState)
	}
	return ok
}

func (c *Controller) seekLocked(t float64) bool {
	if c.session.Status == StatusEmpty {
		return false
	}
	log.Debug().Float64("time", t).Msg("Seek")
	if err := c.media.Seek(t); err != nil {
		log.Error().Err(err).Msg("Seek failed")
	}
	c.session.CurrentTime = t
	c.seek.arm(t, time.Now())
	return true
}

// SetVolume sets the output volume, clamped to [0, 1].
func (c *Controller) SetVolume(volume float64) {
	volume = ClampVolume(volume)

	c.mu.Lock()
	log.Debug().Float64("volume", volume).Msg("SetVolume")
	if err := c.media.SetVolume(volume); err != nil {
		log.Error().Err(err).Msg("SetVolume failed")
	}
	c.session.Volume = volume
	c.mu.Unlock()

	c.notify(ChangeState)
}

// ToggleMute flips the mute flag and returns the new value.
func (c *Controller) ToggleMute() bool {
	c.mu.Lock()
	muted := !c.session.Muted
	if err := c.media.SetMuted(muted); err != nil {
		log.Error().Err(err).Msg("SetMuted failed")
	}
	c.session.Muted = muted
	c.mu.Unlock()

	log.Debug().Bool("muted", muted).Msg("ToggleMute")
	c.notify(ChangeState)
	return muted
}

// HandleEvent applies one renderer event. Events produced for a source other
// than the attached one are stale and dropped.
func (c *Controller) HandleEvent(ev media.Event) {
	c.mu.Lock()
	changed := c.handleEventLocked(ev)
	c.mu.Unlock()

	if changed {
		c.notify(ChangeState)
	}
}

func (c *Controller) handleEventLocked(ev media.Event) bool {
	if c.loaded == "" {
		return false
	}
	if ev.Source != "" && ev.Source != c.loaded {
		log.Debug().Str("event", ev.Kind.String()).Str("source", ev.Source).Msg("Dropping stale media event")
		return false
	}

	switch ev.Kind {
	case media.EventMetadataReady:
		c.session.Duration = ev.Value
		return true
	case media.EventTimeUpdate:
		at := ev.At
		if at.IsZero() {
			at = time.Now()
		}
		if !c.seek.accept(ev.Value, at) {
			return false
		}
		c.session.CurrentTime = ev.Value
		return true
	case media.EventEnded:
		return c.skipLocked(playlist.Forward)
	case media.EventPlaying:
		if c.session.Status == StatusPaused {
			c.session.Status = StatusPlaying
			return true
		}
	case media.EventPaused:
		if c.session.Status == StatusPlaying {
			c.session.Status = StatusPaused
			return true
		}
	}
	return false
}

// Run consumes renderer events until ctx is done or the channel closes.
func (c *Controller) Run(ctx context.Context, events <-chan media.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			c.HandleEvent(ev)
		}
	}
}

// syncMediaLocked attaches the current track to the media handle if it is not
// already loaded. Play is issued when the intent is on and either a new source
// was attached or resume is set.
func (c *Controller) syncMediaLocked(resume bool) {
	url := ""
	if cur, ok := c.playlist.Current(); ok {
		url = cur.URL
	}

	attached := false
	if url != c.loaded {
		if err := c.media.Load(url); err != nil {
			log.Error().Err(err).Str("url", url).Msg("Load failed")
		}
		c.loaded = url
		c.session.resetProgress()
		c.seek.reset()
		attached = true
	}

	if url != "" && c.session.Status == StatusPlaying && (attached || resume) {
		c.playLocked()
	}
}

// playLocked issues play. A rejected attempt is logged; intent is kept so a
// later user gesture can retry.
func (c *Controller) playLocked() {
	if err := c.media.Play(); err != nil {
		log.Warn().Err(err).Str("url", c.loaded).Msg("Playback start rejected")
	}
}

// Snapshot returns a consistent copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		Session:      c.session,
		Tracks:       c.playlist.Tracks(),
		CurrentIndex: c.playlist.CurrentIndex(),
		Shuffle:      c.playlist.Shuffled(),
	}
	if cur, ok := c.playlist.Current(); ok {
		snap.Current = &cur
	}
	return snap
}

// Session returns the current playback session.
func (c *Controller) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Search returns the tracks whose title contains query, ignoring case.
func (c *Controller) Search(query string) []playlist.Track {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playlist.Filter(query)
}
