package cache

import (
	"context"
	"log"

	"github.com/focusloop/backend/internal/socialgraph"
)

// Mirror wraps a graph mutation with the optimistic update protocol:
// snapshot the cached counters, write the speculative values, run the
// server transaction, then roll back to the snapshot on failure or
// invalidate on settle so the next read refetches from the store.
//
// The mirror is advisory only. Cache failures are logged and dropped; they
// never affect the outcome of the mutation. Mutual friendship counts are not
// speculated on, since mutuality is only known inside the transaction.
type Mirror struct {
	cache CounterCache
}

// NewMirror creates a new Mirror
func NewMirror(cache CounterCache) *Mirror {
	return &Mirror{cache: cache}
}

// ApplyFollowChange runs commit under the optimistic protocol. commit is the
// authoritative graph mutation; its error is returned unchanged.
func (m *Mirror) ApplyFollowChange(ctx context.Context, actorID, targetID string, action socialgraph.Action, commit func(ctx context.Context) error) error {
	if m == nil || m.cache == nil {
		return commit(ctx)
	}

	actorSnap, actorHit := m.snapshot(ctx, actorID)
	targetSnap, targetHit := m.snapshot(ctx, targetID)

	var step int64 = 1
	if action == socialgraph.ActionUnfollow {
		step = -1
	}

	if actorHit {
		next := actorSnap
		next.FollowingCount = clamp(next.FollowingCount + step)
		m.set(ctx, actorID, next)
	}
	if targetHit {
		next := targetSnap
		next.FollowerCount = clamp(next.FollowerCount + step)
		m.set(ctx, targetID, next)
	}

	if err := commit(ctx); err != nil {
		// Restore the pre-mutation snapshots; entries that were cold stay
		// cold so the next read refetches.
		if actorHit {
			m.set(ctx, actorID, actorSnap)
		}
		if targetHit {
			m.set(ctx, targetID, targetSnap)
		}
		return err
	}

	// Settled: force a reconciling refetch on the next read.
	if err := m.cache.Invalidate(ctx, actorID, targetID); err != nil {
		log.Printf("counter cache invalidate failed for %s,%s: %v", actorID, targetID, err)
	}
	return nil
}

func (m *Mirror) snapshot(ctx context.Context, userID string) (CounterSnapshot, bool) {
	snap, ok, err := m.cache.Get(ctx, userID)
	if err != nil {
		log.Printf("counter cache read failed for %s: %v", userID, err)
		return CounterSnapshot{}, false
	}
	if !ok {
		return CounterSnapshot{}, false
	}
	return *snap, true
}

func (m *Mirror) set(ctx context.Context, userID string, snap CounterSnapshot) {
	if err := m.cache.Set(ctx, userID, snap); err != nil {
		log.Printf("counter cache write failed for %s: %v", userID, err)
	}
}

func clamp(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
