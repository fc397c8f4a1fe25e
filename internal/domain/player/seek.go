package player

import (
	"math"
	"time"
)

const (
	// seekSettleWindow is how long after a seek position reports far from the
	// target are treated as stale.
	seekSettleWindow = time.Second

	// seekTolerance is the distance in seconds within which a reported
	// position confirms a pending seek.
	seekTolerance = 1.5
)

// seekGuard keeps an optimistic seek visible until the renderer confirms it.
type seekGuard struct {
	pending bool
	target  float64
	at      time.Time
}

func (g *seekGuard) arm(target float64, at time.Time) {
	g.pending = true
	g.target = target
	g.at = at
}

func (g *seekGuard) reset() {
	*g = seekGuard{}
}

// accept reports whether a position update stamped at `at` may replace the
// displayed time.
func (g *seekGuard) accept(position float64, at time.Time) bool {
	if !g.pending {
		return true
	}
	if at.Before(g.at) {
		return false
	}
	if math.Abs(position-g.target) <= seekTolerance || at.Sub(g.at) >= seekSettleWindow {
		g.pending = false
		return true
	}
	return false
}
