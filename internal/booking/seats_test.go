package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssignSeatsAuto(t *testing.T) {
	cases := []struct {
		name     string
		capacity uint32
		occupied []uint32
		count    int
		want     []uint32
	}{
		{"empty bus", 10, nil, 3, []uint32{1, 2, 3}},
		{"skips occupied", 10, []uint32{1, 3}, 3, []uint32{2, 4, 5}},
		{"fills tail", 5, []uint32{1, 2, 3}, 2, []uint32{4, 5}},
		{"exact fit", 4, nil, 4, []uint32{1, 2, 3, 4}},
		{"not enough free", 5, []uint32{1, 2, 3, 4}, 2, nil},
		{"zero capacity", 0, nil, 1, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := assignSeats(tc.capacity, tc.occupied, nil, tc.count)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestAssignSeatsPreferences(t *testing.T) {
	t.Run("honored and sorted", func(t *testing.T) {
		got := assignSeats(40, nil, []uint32{14, 13}, 2)
		assert.Equal(t, []uint32{13, 14}, got)
	})
	t.Run("occupied preference falls back", func(t *testing.T) {
		got := assignSeats(40, []uint32{13}, []uint32{13, 14}, 2)
		assert.Equal(t, []uint32{1, 2}, got)
	})
	t.Run("out of range falls back", func(t *testing.T) {
		got := assignSeats(10, nil, []uint32{11}, 1)
		assert.Equal(t, []uint32{1}, got)
	})
	t.Run("seat zero falls back", func(t *testing.T) {
		got := assignSeats(10, nil, []uint32{0}, 1)
		assert.Equal(t, []uint32{1}, got)
	})
	t.Run("duplicate preference falls back", func(t *testing.T) {
		got := assignSeats(10, nil, []uint32{3, 3}, 2)
		assert.Equal(t, []uint32{1, 2}, got)
	})
	t.Run("count mismatch falls back", func(t *testing.T) {
		got := assignSeats(10, nil, []uint32{3}, 2)
		assert.Equal(t, []uint32{1, 2}, got)
	})
	t.Run("fallback still bounded by capacity", func(t *testing.T) {
		got := assignSeats(2, []uint32{1, 2}, []uint32{1}, 1)
		assert.Nil(t, got)
	})
}
