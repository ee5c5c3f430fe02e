package socialgraph

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/focusloop/backend/internal/models"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	usersCollection     = "users"
	followingCollection = "following"
	followersCollection = "followers"
)

// FirestoreStore is the production Store. Firestore supplies the transaction
// primitive the protocol needs: reads before writes are enforced, conflicting
// commits re-run the callback automatically, and counter updates use atomic
// field increments.
type FirestoreStore struct {
	client *firestore.Client
}

func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

func (s *FirestoreStore) userRef(id string) *firestore.DocumentRef {
	return s.client.Collection(usersCollection).Doc(id)
}

// outboundRef is the edge half stored under the follower's outbound set.
func (s *FirestoreStore) outboundRef(followerID, followeeID string) *firestore.DocumentRef {
	return s.userRef(followerID).Collection(followingCollection).Doc(followeeID)
}

// inboundRef is the edge half stored under the followee's inbound set.
func (s *FirestoreStore) inboundRef(followerID, followeeID string) *firestore.DocumentRef {
	return s.userRef(followeeID).Collection(followersCollection).Doc(followerID)
}

func (s *FirestoreStore) RunTransaction(ctx context.Context, fn func(tx Tx) error) error {
	err := s.client.RunTransaction(ctx, func(ctx context.Context, t *firestore.Transaction) error {
		return fn(&firestoreTx{store: s, t: t})
	})
	if status.Code(err) == codes.Aborted {
		return fmt.Errorf("%w: %v", ErrTransactionConflict, err)
	}
	return err
}

func (s *FirestoreStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	snap, err := s.userRef(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, &NotFoundError{UserID: id}
		}
		return nil, err
	}
	return userFromSnapshot(id, snap)
}

func (s *FirestoreStore) CreateUser(ctx context.Context, user *models.User) error {
	if strings.Contains(user.ID, "/") {
		return ErrInvalidUserID
	}
	_, err := s.userRef(user.ID).Create(ctx, user)
	if status.Code(err) == codes.AlreadyExists {
		return ErrUserExists
	}
	return err
}

func (s *FirestoreStore) UpdateProfile(ctx context.Context, id, displayName, bio string) error {
	_, err := s.userRef(id).Update(ctx, []firestore.Update{
		{Path: "displayName", Value: displayName},
		{Path: "bio", Value: bio},
		{Path: "updatedAt", Value: firestore.ServerTimestamp},
	})
	if status.Code(err) == codes.NotFound {
		return &NotFoundError{UserID: id}
	}
	return err
}

func (s *FirestoreStore) EdgeExists(ctx context.Context, followerID, followeeID string) (bool, error) {
	_, err := s.outboundRef(followerID, followeeID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *FirestoreStore) Following(ctx context.Context, userID string) ([]string, error) {
	return collectIDs(s.userRef(userID).Collection(followingCollection).Documents(ctx))
}

func (s *FirestoreStore) Followers(ctx context.Context, userID string) ([]string, error) {
	return collectIDs(s.userRef(userID).Collection(followersCollection).Documents(ctx))
}

func (s *FirestoreStore) UserIDs(ctx context.Context) ([]string, error) {
	return collectIDs(s.client.Collection(usersCollection).Select().Documents(ctx))
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

func collectIDs(it *firestore.DocumentIterator) ([]string, error) {
	defer it.Stop()
	var ids []string
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			return ids, nil
		}
		if err != nil {
			return nil, err
		}
		ids = append(ids, snap.Ref.ID)
	}
}

func userFromSnapshot(id string, snap *firestore.DocumentSnapshot) (*models.User, error) {
	var u models.User
	if err := snap.DataTo(&u); err != nil {
		return nil, err
	}
	u.ID = id
	return &u, nil
}

// firestoreTx adapts *firestore.Transaction to the Tx interface.
type firestoreTx struct {
	store *FirestoreStore
	t     *firestore.Transaction
}

func (tx *firestoreTx) GetUser(id string) (*models.User, error) {
	snap, err := tx.t.Get(tx.store.userRef(id))
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, &NotFoundError{UserID: id}
		}
		return nil, err
	}
	return userFromSnapshot(id, snap)
}

func (tx *firestoreTx) EdgeExists(followerID, followeeID string) (bool, error) {
	_, err := tx.t.Get(tx.store.outboundRef(followerID, followeeID))
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (tx *firestoreTx) PutEdgePair(followerID, followeeID string, at time.Time) error {
	rec := edgeRecord{CreatedAt: at}
	if err := tx.t.Set(tx.store.outboundRef(followerID, followeeID), rec); err != nil {
		return err
	}
	return tx.t.Set(tx.store.inboundRef(followerID, followeeID), rec)
}

func (tx *firestoreTx) DeleteEdgePair(followerID, followeeID string) error {
	if err := tx.t.Delete(tx.store.outboundRef(followerID, followeeID)); err != nil {
		return err
	}
	return tx.t.Delete(tx.store.inboundRef(followerID, followeeID))
}

func (tx *firestoreTx) UpdateCounters(userID string, delta CounterDelta, at time.Time) error {
	updates := []firestore.Update{
		{Path: "updatedAt", Value: at},
	}
	if delta.Follower != 0 {
		updates = append(updates, firestore.Update{Path: "followerCount", Value: firestore.Increment(delta.Follower)})
	}
	if delta.Following != 0 {
		updates = append(updates, firestore.Update{Path: "followingCount", Value: firestore.Increment(delta.Following)})
	}
	if delta.Mutual != 0 {
		updates = append(updates, firestore.Update{Path: "mutualFriendshipCount", Value: firestore.Increment(delta.Mutual)})
	}
	return tx.t.Update(tx.store.userRef(userID), updates)
}
