package playlist

// permutation returns a uniformly random ordering of [0, n) using the
// Fisher-Yates shuffle.
func (p *Playlist) permutation(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := p.rng.Intn(i + 1)
		order[i], order[j] = order[j], order[i]
	}
	return order
}

// insertIntoOrder places a newly appended track index at a random position of
// the permutation.
func (p *Playlist) insertIntoOrder(index int) {
	pos := p.rng.Intn(len(p.order) + 1)
	p.order = append(p.order, 0)
	copy(p.order[pos+1:], p.order[pos:])
	p.order[pos] = index
}

// dropFromOrder removes a deleted track index from the permutation and
// renumbers the indices that shifted down, keeping the survivors' relative
// order.
func (p *Playlist) dropFromOrder(index int) {
	order := p.order[:0]
	for _, i := range p.order {
		switch {
		case i == index:
			continue
		case i > index:
			order = append(order, i-1)
		default:
			order = append(order, i)
		}
	}
	p.order = order
}
