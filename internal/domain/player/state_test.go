package player_test

import (
	"testing"

	"github.com/edumarques81/nifty/internal/domain/player"
	"github.com/edumarques81/nifty/internal/domain/playlist"
)

func TestStatusString(t *testing.T) {
	tests := []struct {
		status   player.Status
		expected string
	}{
		{player.StatusEmpty, "stop"},
		{player.StatusPaused, "pause"},
		{player.StatusPlaying, "play"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.status.String(); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestSessionIsPlaying(t *testing.T) {
	if (player.Session{Status: player.StatusPaused}).IsPlaying() {
		t.Error("expected paused session not to be playing")
	}
	if !(player.Session{Status: player.StatusPlaying}).IsPlaying() {
		t.Error("expected playing session to be playing")
	}
}

func TestClampVolume(t *testing.T) {
	tests := []struct {
		input    float64
		expected float64
	}{
		{0.5, 0.5},
		{0, 0},
		{1, 1},
		{-0.2, 0},
		{1.5, 1},
	}

	for _, tt := range tests {
		if got := player.ClampVolume(tt.input); got != tt.expected {
			t.Errorf("ClampVolume(%v) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestSnapshotToJSON(t *testing.T) {
	cur := playlist.Track{
		Title:    "So What",
		Artist:   "Miles Davis",
		Duration: "09:22",
		URL:      "blob:1",
		CoverURL: "blob:2",
	}
	snap := player.Snapshot{
		Session: player.Session{
			Status:      player.StatusPlaying,
			Volume:      0.8,
			CurrentTime: 12.5,
			Duration:    562,
		},
		Tracks:       []playlist.Track{cur},
		CurrentIndex: 0,
		Current:      &cur,
		Shuffle:      true,
	}

	json := snap.ToJSON(func(h string) string { return "/blob/" + h })

	if json["status"] != "play" {
		t.Errorf("expected status play, got %v", json["status"])
	}
	if json["seek"] != 12500 {
		t.Errorf("expected seek 12500, got %v", json["seek"])
	}
	if json["title"] != "So What" || json["artist"] != "Miles Davis" {
		t.Errorf("unexpected track fields: %v", json)
	}
	if json["albumart"] != "/blob/blob:2" {
		t.Errorf("expected linked albumart, got %v", json["albumart"])
	}
	if json["random"] != true {
		t.Errorf("expected random true, got %v", json["random"])
	}
	if json["durationText"] != "09:22" {
		t.Errorf("expected durationText 09:22, got %v", json["durationText"])
	}
}

func TestEmptySnapshotToJSON(t *testing.T) {
	json := player.Snapshot{CurrentIndex: -1}.ToJSON(nil)

	if json["status"] != "stop" {
		t.Errorf("expected status stop, got %v", json["status"])
	}
	if json["title"] != "" {
		t.Errorf("expected empty title, got %v", json["title"])
	}
	if json["position"] != -1 {
		t.Errorf("expected position -1, got %v", json["position"])
	}
}

func TestQueueJSON(t *testing.T) {
	snap := player.Snapshot{
		Tracks: []playlist.Track{
			{Title: "A", URL: "blob:a"},
			{Title: "B", URL: "blob:b", CoverURL: "blob:c"},
		},
		CurrentIndex: 1,
	}

	queue := snap.QueueJSON(func(h string) string { return "/x/" + h })

	if len(queue) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(queue))
	}
	if queue[0]["current"] != false || queue[1]["current"] != true {
		t.Errorf("expected only second entry current, got %v", queue)
	}
	if queue[0]["albumart"] != "" {
		t.Errorf("expected empty albumart to stay empty, got %v", queue[0]["albumart"])
	}
	if queue[1]["uri"] != "/x/blob:b" || queue[1]["albumart"] != "/x/blob:c" {
		t.Errorf("expected linked handles, got %v", queue[1])
	}
	if queue[1]["handle"] != "blob:b" {
		t.Errorf("expected raw handle, got %v", queue[1]["handle"])
	}
}
