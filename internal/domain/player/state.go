// Package player provides the playback controller that drives a media handle
// from a playlist.
package player

import (
	"github.com/samber/lo"

	"github.com/edumarques81/nifty/internal/domain/playlist"
)

// Status is the controller's playback state.
type Status int

const (
	// StatusEmpty means there are no tracks; nothing can play.
	StatusEmpty Status = iota
	// StatusPaused means tracks are loaded and playback intent is off.
	StatusPaused
	// StatusPlaying means tracks are loaded and playback intent is on.
	StatusPlaying
)

// String returns the wire name of the status.
func (s Status) String() string {
	switch s {
	case StatusPlaying:
		return "play"
	case StatusPaused:
		return "pause"
	default:
		return "stop"
	}
}

// Session mirrors the renderer as seen by the user: requested values are
// reflected immediately, reported values as events arrive.
type Session struct {
	Status      Status
	Muted       bool
	Volume      float64 // 0.0 - 1.0
	CurrentTime float64 // seconds
	Duration    float64 // seconds
}

// IsPlaying reports the playback intent.
func (s Session) IsPlaying() bool {
	return s.Status == StatusPlaying
}

// newSession creates a session with default values.
func newSession() Session {
	return Session{
		Status: StatusEmpty,
		Volume: 1,
	}
}

// resetProgress clears per-source values when a new source is attached.
func (s *Session) resetProgress() {
	s.CurrentTime = 0
	s.Duration = 0
}

// ClampVolume bounds a volume level to [0, 1].
func ClampVolume(volume float64) float64 {
	return lo.Clamp(volume, 0, 1)
}

// Snapshot is a consistent copy of the controller state for rendering.
type Snapshot struct {
	Session
	Tracks       []playlist.Track
	CurrentIndex int
	Current      *playlist.Track
	Shuffle      bool
}

// Link maps a resource handle to the address clients fetch it from.
type Link func(handle string) string

func (l Link) apply(handle string) string {
	if l == nil || handle == "" {
		return handle
	}
	return l(handle)
}

// ToJSON returns the snapshot as a map suitable for JSON serialization.
// Resource handles are passed through link.
func (s Snapshot) ToJSON(link Link) map[string]interface{} {
	state := map[string]interface{}{
		"status":   s.Status.String(),
		"position": s.CurrentIndex,
		"seek":     int(s.CurrentTime * 1000),
		"duration": s.Duration,
		"random":   s.Shuffle,
		"volume":   s.Volume,
		"mute":     s.Muted,
		"title":    "",
		"artist":   "",
		"uri":      "",
		"albumart": "",
	}
	if s.Current != nil {
		state["title"] = s.Current.Title
		state["artist"] = s.Current.Artist
		state["uri"] = link.apply(s.Current.URL)
		state["albumart"] = link.apply(s.Current.CoverURL)
		state["durationText"] = s.Current.Duration
	}
	return state
}

// QueueJSON returns the track list as maps suitable for JSON serialization.
func (s Snapshot) QueueJSON(link Link) []map[string]interface{} {
	return TracksJSON(s.Tracks, s.CurrentIndex, link)
}

// TracksJSON serializes tracks, flagging the one at index current.
func TracksJSON(tracks []playlist.Track, current int, link Link) []map[string]interface{} {
	result := make([]map[string]interface{}, len(tracks))
	for i, t := range tracks {
		result[i] = map[string]interface{}{
			"title":    t.Title,
			"artist":   t.Artist,
			"duration": t.Duration,
			"uri":      link.apply(t.URL),
			"albumart": link.apply(t.CoverURL),
			"handle":   t.URL,
			"current":  i == current,
		}
	}
	return result
}
