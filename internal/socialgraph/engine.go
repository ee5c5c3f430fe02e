package socialgraph

import (
	"context"
	"fmt"
	"time"
)

// Action is the requested state change for a follow relationship.
type Action string

const (
	ActionFollow   Action = "follow"
	ActionUnfollow Action = "unfollow"
)

// Engine is the social graph mutator. It is the only writer of follow edges
// and of the denormalized counters on user documents; every mutation happens
// inside a single store transaction.
type Engine struct {
	store Store
	now   func() time.Time
}

func NewEngine(store Store) *Engine {
	return &Engine{store: store, now: time.Now}
}

// ApplyFollowChange creates or removes the (actorID -> targetID) follow edge
// inside one atomic transaction, adjusting followerCount, followingCount and
// mutualFriendshipCount on both user documents.
//
// The operation is idempotent: following someone already followed, or
// unfollowing someone not followed, returns nil without writes. Missing actor
// or target yields a NotFoundError with no partial state. The transaction
// callback is pure, so the backend's automatic conflict retries are safe.
func (e *Engine) ApplyFollowChange(ctx context.Context, actorID, targetID string, action Action) error {
	if actorID == targetID {
		return ErrSelfFollow
	}
	if action != ActionFollow && action != ActionUnfollow {
		return fmt.Errorf("unknown follow action %q", action)
	}

	return e.store.RunTransaction(ctx, func(tx Tx) error {
		// All reads first: both user documents, then both edge directions.
		// The reverse edge is read regardless of action because it decides
		// the mutuality delta.
		actor, err := tx.GetUser(actorID)
		if err != nil {
			return err
		}
		target, err := tx.GetUser(targetID)
		if err != nil {
			return err
		}
		forward, err := tx.EdgeExists(actorID, targetID)
		if err != nil {
			return err
		}
		reverse, err := tx.EdgeExists(targetID, actorID)
		if err != nil {
			return err
		}

		if action == ActionFollow && forward {
			return nil
		}
		if action == ActionUnfollow && !forward {
			return nil
		}

		now := e.now().UTC()
		var actorDelta, targetDelta CounterDelta

		if action == ActionFollow {
			if err := tx.PutEdgePair(actorID, targetID, now); err != nil {
				return err
			}
			actorDelta = CounterDelta{Following: 1}
			targetDelta = CounterDelta{Follower: 1}
			if reverse {
				actorDelta.Mutual = 1
				targetDelta.Mutual = 1
			}
		} else {
			if err := tx.DeleteEdgePair(actorID, targetID); err != nil {
				return err
			}
			actorDelta = CounterDelta{Following: decrement(actor.FollowingCount)}
			targetDelta = CounterDelta{Follower: decrement(target.FollowerCount)}
			if reverse {
				actorDelta.Mutual = decrement(actor.MutualFriendshipCount)
				targetDelta.Mutual = decrement(target.MutualFriendshipCount)
			}
		}

		if err := tx.UpdateCounters(actorID, actorDelta, now); err != nil {
			return err
		}
		return tx.UpdateCounters(targetID, targetDelta, now)
	})
}

// ReconcileCounters overwrites a user's counters with values recounted from
// the edge set, as a drift backstop. The correction is expressed as a delta
// against the in-transaction read so it goes through the same atomic
// increment path as every other counter write.
func (e *Engine) ReconcileCounters(ctx context.Context, userID string, followers, following, mutual int64) error {
	return e.store.RunTransaction(ctx, func(tx Tx) error {
		u, err := tx.GetUser(userID)
		if err != nil {
			return err
		}
		delta := CounterDelta{
			Follower:  followers - u.FollowerCount,
			Following: following - u.FollowingCount,
			Mutual:    mutual - u.MutualFriendshipCount,
		}
		if delta.IsZero() {
			return nil
		}
		return tx.UpdateCounters(userID, delta, e.now().UTC())
	})
}

// IsFollowing reports whether the (followerID -> followeeID) edge exists.
func (e *Engine) IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error) {
	return e.store.EdgeExists(ctx, followerID, followeeID)
}

// Following returns the IDs the user follows.
func (e *Engine) Following(ctx context.Context, userID string) ([]string, error) {
	return e.store.Following(ctx, userID)
}

// Followers returns the IDs following the user.
func (e *Engine) Followers(ctx context.Context, userID string) ([]string, error) {
	return e.store.Followers(ctx, userID)
}
