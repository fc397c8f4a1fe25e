//go:build !((linux && cgo) || windows || darwin)

package speaker

import (
	"context"

	"github.com/edumarques81/nifty/internal/domain/media"
)

// Available indicates whether audio playback is supported in this build.
// Audio requires CGO for native sound libraries.
const Available = false

// Renderer is a placeholder for builds without audio output.
type Renderer struct{}

// New always fails when cgo is disabled.
func New(fetch Fetcher) (*Renderer, error) {
	return nil, ErrUnavailable
}

func (r *Renderer) Load(url string) error          { return ErrUnavailable }
func (r *Renderer) Play() error                    { return ErrUnavailable }
func (r *Renderer) Pause() error                   { return ErrUnavailable }
func (r *Renderer) Seek(seconds float64) error     { return ErrUnavailable }
func (r *Renderer) SetVolume(volume float64) error { return ErrUnavailable }
func (r *Renderer) SetMuted(muted bool) error      { return ErrUnavailable }
func (r *Renderer) Close() error                   { return nil }

// Events returns a channel closed when ctx is done.
func (r *Renderer) Events(ctx context.Context) <-chan media.Event {
	out := make(chan media.Event)
	go func() {
		<-ctx.Done()
		close(out)
	}()
	return out
}
