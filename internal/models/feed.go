package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FeedEntry is one activity item in the social feed (MongoDB). Entries are
// written when a followed user records a session and read back fan-in style:
// the feed query filters on the viewer's following list.
type FeedEntry struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	AuthorID        string             `json:"author_id" bson:"author_id"`
	Type            string             `json:"type" bson:"type"` // session
	Title           string             `json:"title" bson:"title"`
	Tag             string             `json:"tag,omitempty" bson:"tag,omitempty"`
	DurationMinutes int                `json:"duration_minutes" bson:"duration_minutes"`
	CreatedAt       time.Time          `json:"created_at" bson:"created_at"`
}
