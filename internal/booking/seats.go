package booking

import "sort"

// assignSeats picks the seat numbers for a reservation of count seats on
// a schedule with the given capacity.  occupied lists seats held by
// non-cancelled reservations.  Preferences are honored only when they
// name exactly count distinct, in-range, unoccupied seats; anything else
// falls back to auto-assignment, which takes the lowest-numbered free
// seats in ascending order.  Returns nil when fewer than count seats are
// free (the capacity counter normally prevents this; the nil return
// guards a counter/seat-row mismatch).
func assignSeats(capacity uint32, occupied []uint32, prefs []uint32, count int) []uint32 {
	taken := make(map[uint32]struct{}, len(occupied))
	for _, s := range occupied {
		taken[s] = struct{}{}
	}

	if len(prefs) > 0 {
		if picked := pickPreferred(capacity, taken, prefs, count); picked != nil {
			return picked
		}
		// fall through to auto-assignment
	}

	out := make([]uint32, 0, count)
	for seat := uint32(1); seat <= capacity && len(out) < count; seat++ {
		if _, ok := taken[seat]; !ok {
			out = append(out, seat)
		}
	}
	if len(out) < count {
		return nil
	}
	return out
}

// pickPreferred validates a preference list against the occupied set and
// returns the seats sorted ascending, or nil when the list cannot be
// honored as a whole.
func pickPreferred(capacity uint32, taken map[uint32]struct{}, prefs []uint32, count int) []uint32 {
	seen := make(map[uint32]struct{}, len(prefs))
	out := make([]uint32, 0, len(prefs))
	for _, p := range prefs {
		if p < 1 || p > capacity {
			return nil
		}
		if _, dup := seen[p]; dup {
			return nil
		}
		if _, occ := taken[p]; occ {
			return nil
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	if len(out) != count {
		return nil
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
