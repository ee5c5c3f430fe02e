package repositories

import (
	"context"
	"time"

	"github.com/focusloop/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FeedRepository defines the interface for activity feed operations
type FeedRepository interface {
	CreateEntry(ctx context.Context, entry *models.FeedEntry) error
	GetForAuthors(ctx context.Context, authorIDs []string, skip, limit int64) ([]models.FeedEntry, error)
	CountForAuthors(ctx context.Context, authorIDs []string) (int64, error)
}

// MongoFeedRepository implements FeedRepository for MongoDB
type MongoFeedRepository struct {
	collection *mongo.Collection
}

// NewMongoFeedRepository creates a new MongoFeedRepository
func NewMongoFeedRepository(db *mongo.Database) *MongoFeedRepository {
	return &MongoFeedRepository{collection: db.Collection("feed_entries")}
}

// CreateEntry appends an activity entry to the feed
func (r *MongoFeedRepository) CreateEntry(ctx context.Context, entry *models.FeedEntry) error {
	entry.ID = primitive.NewObjectID()
	entry.CreatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, entry)
	return err
}

// GetForAuthors retrieves entries written by any of authorIDs, newest first
func (r *MongoFeedRepository) GetForAuthors(ctx context.Context, authorIDs []string, skip, limit int64) ([]models.FeedEntry, error) {
	if len(authorIDs) == 0 {
		return nil, nil
	}
	findOptions := options.Find().SetSkip(skip).SetLimit(limit).SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"author_id": bson.M{"$in": authorIDs}}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []models.FeedEntry
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// CountForAuthors counts the feed entries visible to a viewer
func (r *MongoFeedRepository) CountForAuthors(ctx context.Context, authorIDs []string) (int64, error) {
	if len(authorIDs) == 0 {
		return 0, nil
	}
	return r.collection.CountDocuments(ctx, bson.M{"author_id": bson.M{"$in": authorIDs}})
}
