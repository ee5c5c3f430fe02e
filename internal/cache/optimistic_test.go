package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/focusloop/backend/internal/socialgraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCounterCache is an in-process CounterCache for exercising the
// optimistic protocol without Redis.
type fakeCounterCache struct {
	entries map[string]CounterSnapshot
	failAll bool
}

func newFakeCounterCache() *fakeCounterCache {
	return &fakeCounterCache{entries: map[string]CounterSnapshot{}}
}

func (f *fakeCounterCache) Get(ctx context.Context, userID string) (*CounterSnapshot, bool, error) {
	if f.failAll {
		return nil, false, errors.New("cache down")
	}
	snap, ok := f.entries[userID]
	if !ok {
		return nil, false, nil
	}
	return &snap, true, nil
}

func (f *fakeCounterCache) Set(ctx context.Context, userID string, snap CounterSnapshot) error {
	if f.failAll {
		return errors.New("cache down")
	}
	f.entries[userID] = snap
	return nil
}

func (f *fakeCounterCache) Invalidate(ctx context.Context, userIDs ...string) error {
	if f.failAll {
		return errors.New("cache down")
	}
	for _, id := range userIDs {
		delete(f.entries, id)
	}
	return nil
}

func TestMirrorInvalidatesOnCommit(t *testing.T) {
	fake := newFakeCounterCache()
	fake.entries["alice"] = CounterSnapshot{FollowingCount: 3}
	fake.entries["bob"] = CounterSnapshot{FollowerCount: 10}
	mirror := NewMirror(fake)

	var speculative struct {
		actorFollowing, targetFollowers int64
	}
	err := mirror.ApplyFollowChange(context.Background(), "alice", "bob", socialgraph.ActionFollow, func(ctx context.Context) error {
		// The speculative values must already be visible while the
		// transaction runs.
		actor, ok, err := fake.Get(ctx, "alice")
		require.NoError(t, err)
		require.True(t, ok)
		target, ok, err := fake.Get(ctx, "bob")
		require.NoError(t, err)
		require.True(t, ok)
		speculative.actorFollowing = actor.FollowingCount
		speculative.targetFollowers = target.FollowerCount
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, int64(4), speculative.actorFollowing)
	assert.Equal(t, int64(11), speculative.targetFollowers)

	// Settled entries are dropped so the next read refetches.
	_, ok, err := fake.Get(context.Background(), "alice")
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = fake.Get(context.Background(), "bob")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMirrorRestoresSnapshotsOnFailure(t *testing.T) {
	fake := newFakeCounterCache()
	fake.entries["alice"] = CounterSnapshot{FollowingCount: 3}
	fake.entries["bob"] = CounterSnapshot{FollowerCount: 10}
	mirror := NewMirror(fake)

	boom := errors.New("transaction aborted")
	err := mirror.ApplyFollowChange(context.Background(), "alice", "bob", socialgraph.ActionFollow, func(ctx context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)

	actor, ok, err := fake.Get(context.Background(), "alice")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(3), actor.FollowingCount)

	target, ok, err := fake.Get(context.Background(), "bob")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(10), target.FollowerCount)
}

func TestMirrorColdEntriesStayCold(t *testing.T) {
	fake := newFakeCounterCache()
	fake.entries["bob"] = CounterSnapshot{FollowerCount: 10}
	mirror := NewMirror(fake)

	err := mirror.ApplyFollowChange(context.Background(), "alice", "bob", socialgraph.ActionFollow, func(ctx context.Context) error {
		// Only the warm entry gets a speculative write.
		_, ok, err := fake.Get(ctx, "alice")
		require.NoError(t, err)
		assert.False(t, ok)
		return errors.New("abort")
	})
	assert.Error(t, err)

	_, ok, err := fake.Get(context.Background(), "alice")
	require.NoError(t, err)
	assert.False(t, ok, "a cold entry must not be populated by a rollback")
}

func TestMirrorUnfollowClampsAtZero(t *testing.T) {
	fake := newFakeCounterCache()
	fake.entries["alice"] = CounterSnapshot{FollowingCount: 0}
	mirror := NewMirror(fake)

	err := mirror.ApplyFollowChange(context.Background(), "alice", "bob", socialgraph.ActionUnfollow, func(ctx context.Context) error {
		actor, ok, err := fake.Get(ctx, "alice")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, int64(0), actor.FollowingCount)
		return nil
	})
	require.NoError(t, err)
}

func TestMirrorCommitsWithoutCache(t *testing.T) {
	var committed bool
	commit := func(ctx context.Context) error {
		committed = true
		return nil
	}

	var nilMirror *Mirror
	require.NoError(t, nilMirror.ApplyFollowChange(context.Background(), "a", "b", socialgraph.ActionFollow, commit))
	assert.True(t, committed)

	committed = false
	require.NoError(t, NewMirror(nil).ApplyFollowChange(context.Background(), "a", "b", socialgraph.ActionFollow, commit))
	assert.True(t, committed)
}

func TestMirrorCacheFailureDoesNotBlockCommit(t *testing.T) {
	fake := newFakeCounterCache()
	fake.failAll = true
	mirror := NewMirror(fake)

	var committed bool
	err := mirror.ApplyFollowChange(context.Background(), "alice", "bob", socialgraph.ActionFollow, func(ctx context.Context) error {
		committed = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, committed, "a broken cache must never block the mutation")
}
