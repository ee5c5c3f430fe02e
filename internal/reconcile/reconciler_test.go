package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/focusloop/backend/internal/models"
	"github.com/focusloop/backend/internal/socialgraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGraph(t *testing.T, userIDs ...string) (*socialgraph.BadgerStore, *socialgraph.Engine) {
	t.Helper()
	store, err := socialgraph.OpenBadgerStore("")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	for _, id := range userIDs {
		err := store.CreateUser(context.Background(), &models.User{
			ID:          id,
			DisplayName: id,
			Email:       id + "@example.com",
		})
		require.NoError(t, err)
	}
	return store, socialgraph.NewEngine(store)
}

func follow(t *testing.T, engine *socialgraph.Engine, actor, target string) {
	t.Helper()
	require.NoError(t, engine.ApplyFollowChange(context.Background(), actor, target, socialgraph.ActionFollow))
}

// drift pushes a user's counters off their true values through the store's
// transactional write path.
func drift(t *testing.T, store *socialgraph.BadgerStore, userID string, delta socialgraph.CounterDelta) {
	t.Helper()
	err := store.RunTransaction(context.Background(), func(tx socialgraph.Tx) error {
		return tx.UpdateCounters(userID, delta, time.Now().UTC())
	})
	require.NoError(t, err)
}

func TestReconcileUserCorrectsDrift(t *testing.T) {
	store, engine := newGraph(t, "alice", "bob", "carol")
	ctx := context.Background()

	follow(t, engine, "alice", "bob")
	follow(t, engine, "bob", "alice")
	follow(t, engine, "carol", "alice")

	drift(t, store, "alice", socialgraph.CounterDelta{Follower: 5, Following: -1, Mutual: 2})

	r := NewReconciler(store, engine)
	fixed, err := r.ReconcileUser(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, fixed)

	alice, err := store.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(2), alice.FollowerCount, "bob and carol follow alice")
	assert.Equal(t, int64(1), alice.FollowingCount, "alice follows bob")
	assert.Equal(t, int64(1), alice.MutualFriendshipCount, "alice<->bob is the only mutual pair")
}

func TestReconcileUserCleanUserIsNotDrifted(t *testing.T) {
	store, engine := newGraph(t, "alice", "bob")
	follow(t, engine, "alice", "bob")

	r := NewReconciler(store, engine)
	fixed, err := r.ReconcileUser(context.Background(), "alice")
	require.NoError(t, err)
	assert.False(t, fixed)

	fixed, err = r.ReconcileUser(context.Background(), "bob")
	require.NoError(t, err)
	assert.False(t, fixed)
}

func TestRunSweepsAllUsers(t *testing.T) {
	store, engine := newGraph(t, "alice", "bob", "carol")
	ctx := context.Background()

	follow(t, engine, "alice", "bob")
	follow(t, engine, "carol", "bob")
	drift(t, store, "bob", socialgraph.CounterDelta{Follower: 40})
	drift(t, store, "carol", socialgraph.CounterDelta{Following: -1})

	r := NewReconciler(store, engine)
	require.NoError(t, r.Run(ctx))

	bob, err := store.GetUser(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(2), bob.FollowerCount)

	carol, err := store.GetUser(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, int64(1), carol.FollowingCount)
}

func TestReconcileUserUnknownUser(t *testing.T) {
	store, engine := newGraph(t)

	r := NewReconciler(store, engine)
	_, err := r.ReconcileUser(context.Background(), "ghost")
	assert.True(t, socialgraph.IsNotFound(err))
}
