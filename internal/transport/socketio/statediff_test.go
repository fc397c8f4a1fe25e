package socketio

import (
	"testing"
	"time"
)

func baseState(status string, seek int) map[string]interface{} {
	return map[string]interface{}{
		"status":   status,
		"position": 0,
		"title":    "Test Song",
		"artist":   "Test Artist",
		"volume":   0.5,
		"duration": 300.0,
		"random":   false,
		"mute":     false,
		"uri":      "/blob/1",
		"albumart": "",
		"seek":     seek,
	}
}

func TestStateCompareKeysDoNotIncludeSeek(t *testing.T) {
	for _, key := range stateCompareKeys {
		if key == "seek" {
			t.Error("stateCompareKeys should not include seek")
		}
	}
}

func TestStateDiffFirstStateChanges(t *testing.T) {
	var d stateDiff
	if !d.changed(baseState("play", 0), time.Now()) {
		t.Error("expected first state to be a change")
	}
}

func TestStateDiffInterpolatedSeekIsSame(t *testing.T) {
	var d stateDiff
	start := time.Now()
	d.changed(baseState("play", 1000), start)

	// Two seconds later the position advanced by about two seconds.
	if d.changed(baseState("play", 3100), start.Add(2*time.Second)) {
		t.Error("expected seek progressing with wall time not to be a change")
	}
}

func TestStateDiffSeekJumpChanges(t *testing.T) {
	var d stateDiff
	start := time.Now()
	d.changed(baseState("play", 1000), start)

	if !d.changed(baseState("play", 90000), start.Add(time.Second)) {
		t.Error("expected a seek jump to be a change")
	}
}

func TestStateDiffPausedSeekMustStay(t *testing.T) {
	var d stateDiff
	start := time.Now()
	d.changed(baseState("pause", 5000), start)

	if d.changed(baseState("pause", 5000), start.Add(10*time.Second)) {
		t.Error("expected unchanged paused state to be same")
	}
	if !d.changed(baseState("pause", 20000), start.Add(11*time.Second)) {
		t.Error("expected seek while paused to be a change")
	}
}

func TestStateDiffKeyChange(t *testing.T) {
	var d stateDiff
	now := time.Now()
	d.changed(baseState("play", 0), now)

	next := baseState("play", 0)
	next["volume"] = 0.6
	if !d.changed(next, now) {
		t.Error("expected volume change to be a change")
	}

	d.reset()
	if !d.changed(next, now) {
		t.Error("expected state after reset to be a change")
	}
}
