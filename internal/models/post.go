package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post represents a photo post stored in MongoDB. The follow engine only
// reads aggregates over posts (count, sum of likes) for profile stats.
type Post struct {
	ID         primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	AuthorID   uint               `json:"author_id" bson:"author_id"`
	Caption    string             `json:"caption" bson:"caption"`
	ImageURLs  []string           `json:"image_urls,omitempty" bson:"image_urls,omitempty"`
	LikesCount int64              `json:"likes_count" bson:"likes_count"`
	CreatedAt  time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at" bson:"updated_at"`
}
