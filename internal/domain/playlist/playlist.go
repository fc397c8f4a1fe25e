// Package playlist holds the ordered track list, the current-track pointer and
// the shuffle permutation used for navigation.
package playlist

import (
	"math/rand"
	"strings"
	"time"

	"github.com/samber/lo"
)

// Track is a playable audio item with display metadata and resource handles.
// URL identifies the track; no two tracks share a URL.
type Track struct {
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Duration string `json:"duration"` // Display formatted, mm:ss
	URL      string `json:"url"`
	CoverURL string `json:"coverUrl,omitempty"`
}

// Direction selects the navigation step.
type Direction int

const (
	Forward Direction = iota
	Backward
)

// Releaser frees the client-side resource behind a handle.
type Releaser interface {
	Release(handle string)
}

// Playlist is the track list state. It is not safe for concurrent use; the
// player controller serializes every access.
type Playlist struct {
	tracks  []Track
	current int // -1 when there is no current track

	shuffle bool
	order   []int // permutation of track indices, nil while shuffle is off
	rng     *rand.Rand

	releaser Releaser
	detached []Track
}

// New creates an empty playlist. Handles of removed tracks are handed to
// releaser; a nil releaser disables release.
func New(releaser Releaser) *Playlist {
	return &Playlist{
		current:  -1,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		releaser: releaser,
	}
}

// Len returns the number of tracks.
func (p *Playlist) Len() int {
	return len(p.tracks)
}

// Tracks returns a copy of all tracks in import order.
func (p *Playlist) Tracks() []Track {
	result := make([]Track, len(p.tracks))
	copy(result, p.tracks)
	return result
}

// Track returns the track at index.
func (p *Playlist) Track(index int) (Track, bool) {
	if index < 0 || index >= len(p.tracks) {
		return Track{}, false
	}
	return p.tracks[index], true
}

// CurrentIndex returns the current index, or -1 if there is no current track.
func (p *Playlist) CurrentIndex() int {
	return p.current
}

// Current returns the current track.
func (p *Playlist) Current() (Track, bool) {
	return p.Track(p.current)
}

// Shuffled reports whether shuffle mode is on.
func (p *Playlist) Shuffled() bool {
	return p.shuffle
}

// ShuffleOrder returns a copy of the shuffle permutation (nil when off).
func (p *Playlist) ShuffleOrder() []int {
	if p.order == nil {
		return nil
	}
	result := make([]int, len(p.order))
	copy(result, p.order)
	return result
}

// IndexOf returns the index of the track with url, or -1.
func (p *Playlist) IndexOf(url string) int {
	_, index, ok := lo.FindIndexOf(p.tracks, func(t Track) bool { return t.URL == url })
	if !ok {
		return -1
	}
	return index
}

// Add appends tracks in order. If the playlist was empty, the first appended
// track becomes current and Add reports true.
func (p *Playlist) Add(tracks ...Track) bool {
	if len(tracks) == 0 {
		return false
	}

	wasEmpty := len(p.tracks) == 0
	start := len(p.tracks)
	p.tracks = append(p.tracks, tracks...)

	if p.shuffle {
		for i := start; i < len(p.tracks); i++ {
			p.insertIntoOrder(i)
		}
	}

	if wasEmpty {
		p.current = 0
		return true
	}
	return false
}

// Remove deletes the track with url. When the removed track was current the
// first remaining track becomes current; otherwise the current track keeps its
// identity even though its index may shift. The removed track's handles are
// released by the next ReleaseDetached call.
func (p *Playlist) Remove(url string) (Track, bool) {
	index := p.IndexOf(url)
	if index < 0 {
		return Track{}, false
	}

	removed := p.tracks[index]
	var currentURL string
	if cur, ok := p.Current(); ok {
		currentURL = cur.URL
	}

	p.tracks = append(p.tracks[:index:index], p.tracks[index+1:]...)
	if p.shuffle {
		p.dropFromOrder(index)
	}

	switch {
	case len(p.tracks) == 0:
		p.current = -1
	case currentURL == removed.URL || currentURL == "":
		p.current = 0
	default:
		p.current = p.IndexOf(currentURL)
	}

	p.detached = append(p.detached, removed)
	return removed, true
}

// Select makes the track with url current. Unknown urls are ignored.
func (p *Playlist) Select(url string) bool {
	index := p.IndexOf(url)
	if index < 0 {
		return false
	}
	p.current = index
	return true
}

// ToggleShuffle flips shuffle mode and returns the new mode. Turning it on
// draws a fresh permutation.
func (p *Playlist) ToggleShuffle() bool {
	p.shuffle = !p.shuffle
	if p.shuffle {
		p.order = p.permutation(len(p.tracks))
	} else {
		p.order = nil
	}
	return p.shuffle
}

// NextIndex returns the index one step from `from` in the given direction,
// following the shuffle permutation when shuffle is on. Both orders wrap
// around. It returns -1 for an empty playlist.
func (p *Playlist) NextIndex(from int, dir Direction) int {
	n := len(p.tracks)
	if n == 0 {
		return -1
	}

	step := 1
	if dir == Backward {
		step = -1
	}

	if p.shuffle && len(p.order) == n {
		pos := lo.IndexOf(p.order, from)
		if pos < 0 {
			return p.order[0]
		}
		return p.order[wrap(pos+step, n)]
	}
	return wrap(from+step, n)
}

// Advance moves the current pointer one step and returns the new current track.
func (p *Playlist) Advance(dir Direction) (Track, bool) {
	next := p.NextIndex(p.current, dir)
	if next < 0 {
		return Track{}, false
	}
	p.current = next
	return p.tracks[next], true
}

// Filter returns tracks whose title contains query, ignoring case. An empty
// query matches every track.
func (p *Playlist) Filter(query string) []Track {
	needle := strings.ToLower(query)
	return lo.Filter(p.tracks, func(t Track, _ int) bool {
		return strings.Contains(strings.ToLower(t.Title), needle)
	})
}

// ReleaseDetached frees the handles of removed tracks. Each handle is released
// once, and only when no remaining track refers to it.
func (p *Playlist) ReleaseDetached() int {
	if len(p.detached) == 0 {
		return 0
	}

	var handles []string
	for _, t := range p.detached {
		handles = append(handles, t.URL, t.CoverURL)
	}
	p.detached = nil

	count := 0
	for _, handle := range lo.Uniq(handles) {
		if handle == "" || p.referenced(handle) {
			continue
		}
		if p.releaser != nil {
			p.releaser.Release(handle)
		}
		count++
	}
	return count
}

func (p *Playlist) referenced(handle string) bool {
	return lo.ContainsBy(p.tracks, func(t Track) bool {
		return t.URL == handle || t.CoverURL == handle
	})
}

func wrap(i, n int) int {
	return ((i % n) + n) % n
}
