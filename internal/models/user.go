package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// User is the profile document stored in the graph store, keyed by the
// Firebase UID. The three counters are denormalized from the edge records
// and are only ever written by the social graph engine.
type User struct {
	ID                    string    `json:"id" firestore:"-"`
	DisplayName           string    `json:"display_name" firestore:"displayName"`
	Email                 string    `json:"email" firestore:"email"`
	Bio                   string    `json:"bio,omitempty" firestore:"bio"`
	FollowerCount         int64     `json:"follower_count" firestore:"followerCount"`
	FollowingCount        int64     `json:"following_count" firestore:"followingCount"`
	MutualFriendshipCount int64     `json:"mutual_friendship_count" firestore:"mutualFriendshipCount"`
	CreatedAt             time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt             time.Time `json:"updated_at" firestore:"updatedAt"`
}

// UserCompact is the author shape embedded in feed and follower listings.
type UserCompact struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

func (u *User) ToCompact() UserCompact {
	return UserCompact{ID: u.ID, DisplayName: u.DisplayName}
}

type UpdateUserRequest struct {
	DisplayName string `json:"display_name,omitempty" validate:"omitempty,min=2,max=50"`
	Bio         string `json:"bio,omitempty" validate:"omitempty,max=300"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
