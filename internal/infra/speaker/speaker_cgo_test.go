//go:build (linux && cgo) || windows || darwin

package speaker

import (
	"bytes"
	"encoding/binary"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gopxl/beep/v2"

	"github.com/edumarques81/nifty/internal/domain/media"
)

// fakeOutput collects queued streamers instead of mixing them.
type fakeOutput struct {
	mu     sync.Mutex
	queued []beep.Streamer
}

func (o *fakeOutput) Play(s ...beep.Streamer) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.queued = append(o.queued, s...)
}

func (o *fakeOutput) Clear()  {}
func (o *fakeOutput) Lock()   {}
func (o *fakeOutput) Unlock() {}
func (o *fakeOutput) Close()  {}

func (o *fakeOutput) Queued() []beep.Streamer {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]beep.Streamer(nil), o.queued...)
}

// silentWAV builds a mono 16-bit PCM file at the output rate.
func silentWAV(samples int) []byte {
	dataLen := samples * 2
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVEfmt ")
	for _, v := range []any{uint32(16), uint16(1), uint16(1), uint32(DefaultSampleRate), uint32(int(DefaultSampleRate) * 2), uint16(2), uint16(16)} {
		binary.Write(&buf, binary.LittleEndian, v)
	}
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataLen))
	buf.Write(make([]byte, dataLen))
	return buf.Bytes()
}

func fetchFrom(sources map[string][]byte) Fetcher {
	return func(handle string) ([]byte, error) {
		data, ok := sources[handle]
		if !ok {
			return nil, errors.New("not found")
		}
		return data, nil
	}
}

// drain plays s to its end.
func drain(t *testing.T, s beep.Streamer) {
	t.Helper()
	buf := make([][2]float64, 1024)
	for range 10000 {
		if _, ok := s.Stream(buf); !ok {
			return
		}
	}
	t.Fatal("streamer never finished")
}

// waitFor reads events until one of kind arrives.
func waitFor(t *testing.T, r *Renderer, kind media.EventKind) media.Event {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev := <-r.events:
			if ev.Kind == kind {
				return ev
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %v", kind)
			return media.Event{}
		}
	}
}

func TestPlayRequeuesFinishedSource(t *testing.T) {
	out := &fakeOutput{}
	r := newRenderer(fetchFrom(map[string][]byte{"blob:a": silentWAV(4410)}), out)

	if err := r.Load("blob:a"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if ev := waitFor(t, r, media.EventMetadataReady); ev.Value < 0.09 || ev.Value > 0.11 {
		t.Errorf("expected duration near 0.1s, got %v", ev.Value)
	}
	if err := r.Play(); err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	drain(t, out.Queued()[0])
	if ev := waitFor(t, r, media.EventEnded); ev.Source != "blob:a" {
		t.Errorf("expected end of blob:a, got %q", ev.Source)
	}

	// A one track playlist wraps by seeking to the start and playing again.
	if err := r.Seek(0); err != nil {
		t.Fatalf("Seek failed: %v", err)
	}
	if err := r.Play(); err != nil {
		t.Fatalf("Play after end failed: %v", err)
	}
	if n := len(out.Queued()); n != 2 {
		t.Fatalf("expected source queued again, got %d queued", n)
	}
	waitFor(t, r, media.EventPlaying)

	drain(t, out.Queued()[1])
	waitFor(t, r, media.EventEnded)
}

func TestLoadFailureReportsEnded(t *testing.T) {
	r := newRenderer(fetchFrom(map[string][]byte{"blob:bad": []byte("not audio")}), &fakeOutput{})

	if err := r.Load("blob:bad"); err == nil {
		t.Fatal("expected Load to fail")
	}
	if ev := waitFor(t, r, media.EventEnded); ev.Source != "blob:bad" {
		t.Errorf("expected end of blob:bad, got %q", ev.Source)
	}

	if err := r.Play(); err == nil {
		t.Error("expected Play of a failed source to fail")
	}
	if ev := waitFor(t, r, media.EventPaused); ev.Source != "blob:bad" {
		t.Errorf("expected blob:bad paused, got %q", ev.Source)
	}
}

func TestRepeatedLoadFailuresPause(t *testing.T) {
	r := newRenderer(fetchFrom(nil), &fakeOutput{})

	var last media.Event
	for range maxLoadFailures + 1 {
		r.Load("blob:missing")
		last = <-r.events
	}
	if last.Kind != media.EventPaused {
		t.Errorf("expected paused after %d failures, got %v", maxLoadFailures+1, last.Kind)
	}
}

func TestLoadSuccessResetsFailures(t *testing.T) {
	out := &fakeOutput{}
	r := newRenderer(fetchFrom(map[string][]byte{"blob:a": silentWAV(100)}), out)

	for range maxLoadFailures {
		r.Load("blob:missing")
		<-r.events
	}
	if err := r.Load("blob:a"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	<-r.events

	r.Load("blob:missing")
	if ev := <-r.events; ev.Kind != media.EventEnded {
		t.Errorf("expected failure count reset, got %v", ev.Kind)
	}
}

func TestPlayWithoutSource(t *testing.T) {
	r := newRenderer(fetchFrom(nil), &fakeOutput{})
	if err := r.Play(); err == nil {
		t.Error("expected Play with nothing loaded to fail")
	}
}
