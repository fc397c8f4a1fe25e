package socketio

import (
	"sync"
	"time"
)

// stateCompareKeys are the state fields whose change always warrants a
// broadcast. Seek is handled separately: clients interpolate it while playing.
var stateCompareKeys = []string{
	"status", "position", "duration", "random", "volume", "mute",
	"title", "artist", "uri", "albumart",
}

// seekDriftTolerance is how far (ms) the reported seek may drift from the
// client's interpolation before a broadcast is needed.
const seekDriftTolerance = 1500

// stateDiff remembers the last broadcast state.
type stateDiff struct {
	mu   sync.Mutex
	last map[string]interface{}
	at   time.Time
}

// changed reports whether state differs from what clients can infer from the
// last broadcast, and records it if so.
func (d *stateDiff) changed(state map[string]interface{}, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.last == nil || !d.sameLocked(state, now) {
		d.last = state
		d.at = now
		return true
	}
	return false
}

func (d *stateDiff) sameLocked(state map[string]interface{}, now time.Time) bool {
	for _, key := range stateCompareKeys {
		if state[key] != d.last[key] {
			return false
		}
	}

	seek, _ := state["seek"].(int)
	expected, _ := d.last["seek"].(int)
	if d.last["status"] == "play" {
		expected += int(now.Sub(d.at).Milliseconds())
	}
	drift := seek - expected
	return drift <= seekDriftTolerance && drift >= -seekDriftTolerance
}

// reset forgets the last state so the next one is always broadcast.
func (d *stateDiff) reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.last = nil
}
