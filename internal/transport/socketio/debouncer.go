package socketio

import (
	"sync"
	"time"

	"github.com/edumarques81/nifty/internal/domain/player"
)

// BroadcastDebouncer collapses rapid controller changes into batched
// broadcasts. Changes within the window result in one broadcast per affected
// payload (state and/or queue).
type BroadcastDebouncer struct {
	window        time.Duration
	stateCallback func()
	queueCallback func()

	mu           sync.Mutex
	pendingState bool
	pendingQueue bool
	timer        *time.Timer
	stopped      bool
}

// NewBroadcastDebouncer creates a debouncer with the given window duration.
func NewBroadcastDebouncer(window time.Duration, stateCallback, queueCallback func()) *BroadcastDebouncer {
	return &BroadcastDebouncer{
		window:        window,
		stateCallback: stateCallback,
		queueCallback: queueCallback,
	}
}

// Trigger records a change. Callbacks are deferred until the window elapses
// without further triggers.
func (d *BroadcastDebouncer) Trigger(change player.Change) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	switch change {
	case player.ChangeState:
		d.pendingState = true
	case player.ChangeQueue:
		d.pendingQueue = true
	}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.flush)
}

// flush fires callbacks for any pending flags and resets them.
func (d *BroadcastDebouncer) flush() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	doState := d.pendingState
	doQueue := d.pendingQueue
	d.pendingState = false
	d.pendingQueue = false
	d.mu.Unlock()

	if doQueue && d.queueCallback != nil {
		d.queueCallback()
	}
	if doState && d.stateCallback != nil {
		d.stateCallback()
	}
}

// Stop prevents any further callbacks from firing.
func (d *BroadcastDebouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.pendingState = false
	d.pendingQueue = false
}
