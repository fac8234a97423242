package repositories

import (
	"context"
	"time"

	"github.com/avelith/pixelgram/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// PostRepository is the read-side collaborator the stats aggregator consumes.
// Post creation and editing belong to the post subsystem; the follow engine
// only reads per-author aggregates.
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	CountPostsByUser(ctx context.Context, authorID uint) (int64, error)
	SumLikesByUser(ctx context.Context, authorID uint) (int64, error)
}

// MongoPostRepository implements PostRepository for MongoDB
type MongoPostRepository struct {
	collection *mongo.Collection
}

// NewMongoPostRepository creates a new MongoPostRepository
func NewMongoPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{collection: db.Collection("posts")}
}

// CreatePost inserts a new post document
func (r *MongoPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	post.CreatedAt = time.Now()
	post.UpdatedAt = post.CreatedAt
	_, err := r.collection.InsertOne(ctx, post)
	return err
}

// CountPostsByUser counts the posts authored by the given user
func (r *MongoPostRepository) CountPostsByUser(ctx context.Context, authorID uint) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"author_id": authorID})
}

// SumLikesByUser sums likes_count across all posts authored by the given user
func (r *MongoPostRepository) SumLikesByUser(ctx context.Context, authorID uint) (int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"author_id": authorID}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$likes_count"},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var results []struct {
		Total int64 `bson:"total"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return 0, err
	}
	if len(results) == 0 {
		return 0, nil // user has no posts
	}
	return results[0].Total, nil
}

var _ PostRepository = (*MongoPostRepository)(nil)
