package socialgraph

import (
	"context"
	"time"

	"github.com/focusloop/backend/internal/models"
)

// Store is the document store the engine runs against. A follow relationship
// is persisted as two independent existence records: an outbound record under
// the follower and an inbound record under the followee. Both halves are
// always written or deleted inside one transaction.
type Store interface {
	// RunTransaction executes fn atomically. The backend may invoke fn more
	// than once when it detects a conflicting concurrent commit, so fn must
	// be free of side effects outside the Tx.
	RunTransaction(ctx context.Context, fn func(tx Tx) error) error

	// Non-transactional reads, used outside the mutator.
	GetUser(ctx context.Context, id string) (*models.User, error)
	EdgeExists(ctx context.Context, followerID, followeeID string) (bool, error)
	Following(ctx context.Context, userID string) ([]string, error)
	Followers(ctx context.Context, userID string) ([]string, error)
	UserIDs(ctx context.Context) ([]string, error)

	// Profile writes. These never touch the denormalized counters; the
	// engine's transaction is the only writer of those fields. User IDs
	// must not contain "/", the path separator of the edge key layout;
	// CreateUser rejects such IDs with ErrInvalidUserID.
	CreateUser(ctx context.Context, user *models.User) error
	UpdateProfile(ctx context.Context, id, displayName, bio string) error

	Close() error
}

// Tx is the view of one transaction. All reads must be issued before the
// first write; the Firestore backend enforces this ordering, the Badger
// backend relies on the engine respecting it.
type Tx interface {
	GetUser(id string) (*models.User, error)
	EdgeExists(followerID, followeeID string) (bool, error)

	PutEdgePair(followerID, followeeID string, at time.Time) error
	DeleteEdgePair(followerID, followeeID string) error

	// UpdateCounters applies delta with the store's atomic increment
	// primitive and stamps the user's updatedAt marker.
	UpdateCounters(userID string, delta CounterDelta, at time.Time) error
}

// edgeRecord is the payload of one half of a follow edge. Edges are created
// and deleted, never updated in place.
type edgeRecord struct {
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}
