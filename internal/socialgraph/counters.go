package socialgraph

// CounterDelta is the logical change to one user's denormalized counters.
// Values are -1, 0 or +1; the store backend translates them into atomic
// field increments so unrelated increments compose safely.
type CounterDelta struct {
	Follower  int64
	Following int64
	Mutual    int64
}

func (d CounterDelta) IsZero() bool {
	return d.Follower == 0 && d.Following == 0 && d.Mutual == 0
}

// decrement returns the delta for lowering a count whose in-transaction
// value is current. A count already at 0 is never decremented further; the
// store-level increment does not enforce this itself, so the guard lives
// here to keep drift from widening.
func decrement(current int64) int64 {
	if current <= 0 {
		return 0
	}
	return -1
}
