package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification represents a user notification (MongoDB)
type Notification struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Type        string             `json:"type" bson:"type"` // follow, milestone
	ActorID     string             `json:"actor_id" bson:"actor_id"`
	RecipientID string             `json:"recipient_id" bson:"recipient_id"`
	Message     string             `json:"message" bson:"message"`
	IsRead      bool               `json:"is_read" bson:"is_read"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
}
