package repositories

import (
	"context"
	"time"

	"github.com/focusloop/backend/internal/models"
	"github.com/focusloop/backend/internal/socialgraph"
)

// UserRepository defines the interface for user profile operations
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]models.User, error)
	UpdateProfile(ctx context.Context, id, displayName, bio string) error
}

// GraphUserRepository implements UserRepository over the social graph store,
// where the profile documents live. It never touches the denormalized
// counters; those belong to the engine's transaction.
type GraphUserRepository struct {
	store socialgraph.Store
}

// NewGraphUserRepository creates a new GraphUserRepository
func NewGraphUserRepository(store socialgraph.Store) *GraphUserRepository {
	return &GraphUserRepository{store: store}
}

// CreateUser creates the profile document with zeroed counters
func (r *GraphUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	user.FollowerCount = 0
	user.FollowingCount = 0
	user.MutualFriendshipCount = 0
	user.CreatedAt = now
	user.UpdatedAt = now
	return r.store.CreateUser(ctx, user)
}

// GetUserByID retrieves a user profile by ID
func (r *GraphUserRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return r.store.GetUser(ctx, id)
}

// GetUsersByIDs retrieves several profiles, skipping IDs that no longer exist
func (r *GraphUserRepository) GetUsersByIDs(ctx context.Context, ids []string) (map[string]models.User, error) {
	users := make(map[string]models.User, len(ids))
	for _, id := range ids {
		u, err := r.store.GetUser(ctx, id)
		if err != nil {
			if socialgraph.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		users[id] = *u
	}
	return users, nil
}

// UpdateProfile updates the mutable profile fields
func (r *GraphUserRepository) UpdateProfile(ctx context.Context, id, displayName, bio string) error {
	return r.store.UpdateProfile(ctx, id, displayName, bio)
}
