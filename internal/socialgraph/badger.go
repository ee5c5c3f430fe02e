package socialgraph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/focusloop/backend/internal/models"
)

// maxTxAttempts bounds the conflict-retry loop. Firestore keeps this budget
// internal; Badger surfaces ErrConflict and leaves the retry to the caller.
const maxTxAttempts = 5

const (
	userKeyPrefix     = "user/"
	outboundKeyPrefix = "following/"
	inboundKeyPrefix  = "followers/"
)

// BadgerStore is the embedded Store used for local development and tests.
// Documents are JSON values; the two halves of a follow edge live under
// "following/{follower}/{followee}" and "followers/{followee}/{follower}".
// Badger's serializable transactions give the same first-committer-wins
// semantics the managed backend provides, with an explicit retry loop here.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadgerStore opens (or creates) a store at path. An empty path opens an
// in-memory store, which is what the tests use.
func OpenBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger store: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func userKey(id string) []byte {
	return []byte(userKeyPrefix + id)
}

func outboundKey(followerID, followeeID string) []byte {
	return []byte(outboundKeyPrefix + followerID + "/" + followeeID)
}

func inboundKey(followerID, followeeID string) []byte {
	return []byte(inboundKeyPrefix + followeeID + "/" + followerID)
}

func (s *BadgerStore) RunTransaction(ctx context.Context, fn func(tx Tx) error) error {
	var lastErr error
	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.db.Update(func(txn *badger.Txn) error {
			return fn(&badgerTx{txn: txn})
		})
		if errors.Is(err, badger.ErrConflict) {
			lastErr = err
			continue
		}
		return err
	}
	return fmt.Errorf("%w after %d attempts: %v", ErrTransactionConflict, maxTxAttempts, lastErr)
}

// update wraps a plain write in the same conflict-retry loop.
func (s *BadgerStore) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	var lastErr error
	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.db.Update(fn)
		if errors.Is(err, badger.ErrConflict) {
			lastErr = err
			continue
		}
		return err
	}
	return fmt.Errorf("%w after %d attempts: %v", ErrTransactionConflict, maxTxAttempts, lastErr)
}

func (s *BadgerStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var u *models.User
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		u, err = readUser(txn, id)
		return err
	})
	return u, err
}

func (s *BadgerStore) CreateUser(ctx context.Context, user *models.User) error {
	if strings.Contains(user.ID, "/") {
		return ErrInvalidUserID
	}
	return s.update(ctx, func(txn *badger.Txn) error {
		if _, err := txn.Get(userKey(user.ID)); err == nil {
			return ErrUserExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return writeUser(txn, user)
	})
}

func (s *BadgerStore) UpdateProfile(ctx context.Context, id, displayName, bio string) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		u, err := readUser(txn, id)
		if err != nil {
			return err
		}
		u.DisplayName = displayName
		u.Bio = bio
		u.UpdatedAt = time.Now().UTC()
		return writeUser(txn, u)
	})
}

func (s *BadgerStore) EdgeExists(ctx context.Context, followerID, followeeID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var exists bool
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		exists, err = edgeExists(txn, followerID, followeeID)
		return err
	})
	return exists, err
}

func (s *BadgerStore) Following(ctx context.Context, userID string) ([]string, error) {
	return s.scanSuffixes(ctx, outboundKeyPrefix+userID+"/")
}

func (s *BadgerStore) Followers(ctx context.Context, userID string) ([]string, error) {
	return s.scanSuffixes(ctx, inboundKeyPrefix+userID+"/")
}

func (s *BadgerStore) UserIDs(ctx context.Context) ([]string, error) {
	return s.scanSuffixes(ctx, userKeyPrefix)
}

// scanSuffixes returns the key remainders under prefix, keys-only iteration.
func (s *BadgerStore) scanSuffixes(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().Key())
			out = append(out, strings.TrimPrefix(key, prefix))
		}
		return nil
	})
	return out, err
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func readUser(txn *badger.Txn, id string) (*models.User, error) {
	item, err := txn.Get(userKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, &NotFoundError{UserID: id}
		}
		return nil, err
	}
	var u models.User
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &u)
	}); err != nil {
		return nil, err
	}
	u.ID = id
	return &u, nil
}

func writeUser(txn *badger.Txn, u *models.User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return txn.Set(userKey(u.ID), data)
}

func edgeExists(txn *badger.Txn, followerID, followeeID string) (bool, error) {
	_, err := txn.Get(outboundKey(followerID, followeeID))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// badgerTx adapts *badger.Txn to the Tx interface. Badger tracks read keys
// for conflict detection, so reads and writes mix freely inside one txn; the
// engine still issues all reads first to match the Firestore constraint.
type badgerTx struct {
	txn *badger.Txn
}

func (tx *badgerTx) GetUser(id string) (*models.User, error) {
	return readUser(tx.txn, id)
}

func (tx *badgerTx) EdgeExists(followerID, followeeID string) (bool, error) {
	return edgeExists(tx.txn, followerID, followeeID)
}

func (tx *badgerTx) PutEdgePair(followerID, followeeID string, at time.Time) error {
	data, err := json.Marshal(edgeRecord{CreatedAt: at})
	if err != nil {
		return err
	}
	if err := tx.txn.Set(outboundKey(followerID, followeeID), data); err != nil {
		return err
	}
	return tx.txn.Set(inboundKey(followerID, followeeID), data)
}

func (tx *badgerTx) DeleteEdgePair(followerID, followeeID string) error {
	if err := tx.txn.Delete(outboundKey(followerID, followeeID)); err != nil {
		return err
	}
	return tx.txn.Delete(inboundKey(followerID, followeeID))
}

func (tx *badgerTx) UpdateCounters(userID string, delta CounterDelta, at time.Time) error {
	u, err := readUser(tx.txn, userID)
	if err != nil {
		return err
	}
	u.FollowerCount += delta.Follower
	u.FollowingCount += delta.Following
	u.MutualFriendshipCount += delta.Mutual
	u.UpdatedAt = at
	return writeUser(tx.txn, u)
}
