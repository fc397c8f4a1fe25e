package playlist

import "math/rand"

// SetShuffleOrder replaces the permutation so tests can pin a known order.
func (p *Playlist) SetShuffleOrder(order []int) {
	p.order = append([]int(nil), order...)
}

// SeedRand makes shuffle draws deterministic.
func (p *Playlist) SeedRand(seed int64) {
	p.rng = rand.New(rand.NewSource(seed))
}
