package socialgraph

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/focusloop/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBadgerCreateUserRejectsDuplicates(t *testing.T) {
	store := newTestStore(t)
	seedUser(t, store, "alice")

	err := store.CreateUser(context.Background(), getUser(t, store, "alice"))
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestBadgerGetUserNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetUser(context.Background(), "ghost")
	assert.True(t, IsNotFound(err))

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "ghost", nf.UserID)
}

func TestBadgerUpdateProfile(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedUser(t, store, "alice")

	require.NoError(t, store.UpdateProfile(ctx, "alice", "Alice L.", "gopher"))

	u := getUser(t, store, "alice")
	assert.Equal(t, "Alice L.", u.DisplayName)
	assert.Equal(t, "gopher", u.Bio)
	assert.False(t, u.UpdatedAt.IsZero())

	err := store.UpdateProfile(ctx, "ghost", "x", "y")
	assert.True(t, IsNotFound(err))
}

func TestBadgerEdgePairSymmetry(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.RunTransaction(ctx, func(tx Tx) error {
		return tx.PutEdgePair("alice", "bob", time.Now().UTC())
	})
	require.NoError(t, err)

	following, err := store.Following(ctx, "alice")
	require.NoError(t, err)
	followers, err := store.Followers(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, following)
	assert.Equal(t, []string{"alice"}, followers)

	err = store.RunTransaction(ctx, func(tx Tx) error {
		return tx.DeleteEdgePair("alice", "bob")
	})
	require.NoError(t, err)

	following, err = store.Following(ctx, "alice")
	require.NoError(t, err)
	followers, err = store.Followers(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, following, "both halves must go when the pair is deleted")
	assert.Empty(t, followers)
}

func TestBadgerListingsScopedToUser(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	pairs := [][2]string{
		{"alice", "bob"},
		{"alice", "carol"},
		{"dave", "bob"},
	}
	err := store.RunTransaction(ctx, func(tx Tx) error {
		for _, p := range pairs {
			if err := tx.PutEdgePair(p[0], p[1], time.Now().UTC()); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	following, err := store.Following(ctx, "alice")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"bob", "carol"}, following)

	followers, err := store.Followers(ctx, "bob")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alice", "dave"}, followers)

	followers, err = store.Followers(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, followers)
}

func TestBadgerUserIDs(t *testing.T) {
	store := newTestStore(t)
	seedUser(t, store, "alice")
	seedUser(t, store, "bob")

	ids, err := store.UserIDs(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alice", "bob"}, ids)
}

func TestBadgerCreateUserRejectsSeparatorInID(t *testing.T) {
	store := newTestStore(t)

	err := store.CreateUser(context.Background(), &models.User{
		ID:          "alice/following",
		DisplayName: "alice",
		Email:       "alice@example.com",
	})
	assert.ErrorIs(t, err, ErrInvalidUserID)
}

func TestBadgerTransactionRetriesOnConflict(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedUser(t, store, "alice")

	var attempts int
	err := store.RunTransaction(ctx, func(tx Tx) error {
		attempts++
		u, err := tx.GetUser("alice")
		if err != nil {
			return err
		}
		if attempts == 1 {
			// A competing write lands on a key this transaction has
			// read, so the commit conflicts and the callback re-runs.
			if err := store.UpdateProfile(ctx, "alice", "Alice L.", u.Bio); err != nil {
				return err
			}
		}
		return tx.UpdateCounters("alice", CounterDelta{Follower: 1}, time.Now().UTC())
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts, "the callback must re-run after the conflict")

	u := getUser(t, store, "alice")
	assert.Equal(t, int64(1), u.FollowerCount, "the delta must apply exactly once")
	assert.Equal(t, "Alice L.", u.DisplayName, "the competing write must survive")
}

func TestBadgerTransactionConflictBudgetExhausted(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedUser(t, store, "alice")

	var attempts int
	err := store.RunTransaction(ctx, func(tx Tx) error {
		attempts++
		if _, err := tx.GetUser("alice"); err != nil {
			return err
		}
		// Conflict on every attempt until the budget runs out.
		if err := store.UpdateProfile(ctx, "alice", fmt.Sprintf("rev-%d", attempts), ""); err != nil {
			return err
		}
		return tx.UpdateCounters("alice", CounterDelta{Follower: 1}, time.Now().UTC())
	})
	assert.ErrorIs(t, err, ErrTransactionConflict)
	assert.Equal(t, maxTxAttempts, attempts)
	assert.Equal(t, int64(0), getUser(t, store, "alice").FollowerCount, "no attempt may have committed")
}

func TestBadgerReadsHonorContext(t *testing.T) {
	store := newTestStore(t)
	seedUser(t, store, "alice")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.GetUser(ctx, "alice")
	assert.ErrorIs(t, err, context.Canceled)
	_, err = store.EdgeExists(ctx, "alice", "bob")
	assert.ErrorIs(t, err, context.Canceled)
	_, err = store.Following(ctx, "alice")
	assert.ErrorIs(t, err, context.Canceled)
	_, err = store.Followers(ctx, "alice")
	assert.ErrorIs(t, err, context.Canceled)
	_, err = store.UserIDs(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBadgerTransactionHonorsContext(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.RunTransaction(ctx, func(tx Tx) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
