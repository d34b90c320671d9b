package playlists

import "slices"

// positionCalculator computes the order produced by moving a selection of
// 1-based positions by delta. It holds no database state.
type positionCalculator struct {
	sorted []int // sorted positions to move
	count  int   // total song count
	delta  int   // movement amount (negative = up, positive = down)
}

func newPositionCalculator(positions []int, count, delta int) *positionCalculator {
	sorted := slices.Clone(positions)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	return &positionCalculator{sorted: sorted, count: count, delta: delta}
}

// canMove reports whether every selected position exists and stays within
// 1..count after the move.
func (c *positionCalculator) canMove() bool {
	if len(c.sorted) == 0 || c.delta == 0 {
		return false
	}
	first, last := c.sorted[0], c.sorted[len(c.sorted)-1]
	if first < 1 || last > c.count {
		return false
	}
	if c.delta < 0 {
		return first+c.delta >= 1
	}
	return last+c.delta <= c.count
}

// newPositions returns where each of originalPositions ends up.
func (c *positionCalculator) newPositions(originalPositions []int) []int {
	result := make([]int, len(originalPositions))
	for i, pos := range originalPositions {
		result[i] = pos + c.delta
	}
	return result
}

// apply returns ids (ordered by current position) rearranged so the selected
// entries land at pos+delta and the others keep their relative order in the
// remaining slots.
func (c *positionCalculator) apply(ids []int64) []int64 {
	if !c.canMove() || len(ids) != c.count {
		return slices.Clone(ids)
	}

	result := make([]int64, len(ids))
	taken := make([]bool, len(ids))
	selected := make([]bool, len(ids))
	for _, pos := range c.sorted {
		result[pos-1+c.delta] = ids[pos-1]
		taken[pos-1+c.delta] = true
		selected[pos-1] = true
	}

	slot := 0
	for i, id := range ids {
		if selected[i] {
			continue
		}
		for taken[slot] {
			slot++
		}
		result[slot] = id
		slot++
	}
	return result
}
