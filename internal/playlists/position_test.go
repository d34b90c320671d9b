package playlists

import (
	"reflect"
	"testing"
)

func TestPositionCalculator_canMove(t *testing.T) {
	tests := []struct {
		name      string
		positions []int
		count     int
		delta     int
		want      bool
	}{
		{
			name:      "empty positions",
			positions: []int{},
			count:     5,
			delta:     1,
			want:      false,
		},
		{
			name:      "zero delta",
			positions: []int{1, 2},
			count:     5,
			delta:     0,
			want:      false,
		},
		{
			name:      "move up valid",
			positions: []int{2, 3},
			count:     5,
			delta:     -1,
			want:      true,
		},
		{
			name:      "move up at boundary",
			positions: []int{1, 2},
			count:     5,
			delta:     -1,
			want:      false,
		},
		{
			name:      "move down valid",
			positions: []int{1, 2},
			count:     5,
			delta:     1,
			want:      true,
		},
		{
			name:      "move down at boundary",
			positions: []int{4, 5},
			count:     5,
			delta:     1,
			want:      false,
		},
		{
			name:      "move up unsorted positions",
			positions: []int{4, 2, 3},
			count:     5,
			delta:     -1,
			want:      true,
		},
		{
			name:      "position beyond count",
			positions: []int{6},
			count:     5,
			delta:     -1,
			want:      false,
		},
		{
			name:      "zero position",
			positions: []int{0},
			count:     5,
			delta:     1,
			want:      false,
		},
		{
			name:      "single position move down",
			positions: []int{3},
			count:     5,
			delta:     2,
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc := newPositionCalculator(tt.positions, tt.count, tt.delta)
			if got := calc.canMove(); got != tt.want {
				t.Errorf("canMove() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPositionCalculator_newPositions(t *testing.T) {
	calc := newPositionCalculator([]int{4, 2}, 5, -1)
	got := calc.newPositions([]int{4, 2})
	if want := []int{3, 1}; !reflect.DeepEqual(got, want) {
		t.Errorf("newPositions() = %v, want %v", got, want)
	}
}

func TestPositionCalculator_apply(t *testing.T) {
	ids := []int64{10, 20, 30, 40, 50}

	tests := []struct {
		name      string
		positions []int
		delta     int
		want      []int64
	}{
		{
			name:      "single up",
			positions: []int{3},
			delta:     -1,
			want:      []int64{10, 30, 20, 40, 50},
		},
		{
			name:      "single down by two",
			positions: []int{1},
			delta:     2,
			want:      []int64{20, 30, 10, 40, 50},
		},
		{
			name:      "contiguous block down",
			positions: []int{2, 3},
			delta:     1,
			want:      []int64{10, 40, 20, 30, 50},
		},
		{
			name:      "scattered up",
			positions: []int{2, 4},
			delta:     -1,
			want:      []int64{20, 10, 40, 30, 50},
		},
		{
			name:      "out of bounds leaves order",
			positions: []int{5},
			delta:     1,
			want:      []int64{10, 20, 30, 40, 50},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc := newPositionCalculator(tt.positions, len(ids), tt.delta)
			if got := calc.apply(ids); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("apply() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPositionCalculator_doesNotMutateInput(t *testing.T) {
	positions := []int{3, 1, 2}
	ids := []int64{1, 2, 3, 4}

	calc := newPositionCalculator(positions, len(ids), 1)
	_ = calc.apply(ids)

	if !reflect.DeepEqual(positions, []int{3, 1, 2}) {
		t.Errorf("positions mutated: %v", positions)
	}
	if !reflect.DeepEqual(ids, []int64{1, 2, 3, 4}) {
		t.Errorf("ids mutated: %v", ids)
	}
}
