package models

import "time"

// Follow is a directed follow edge between two users. At most one edge may
// exist per (follower, followee) pair; the database unique index is the
// serialization point for concurrent identical follows.
type Follow struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	FollowerID uint      `json:"follower_id" gorm:"index;uniqueIndex:idx_follower_followee"`
	FolloweeID uint      `json:"followee_id" gorm:"index;uniqueIndex:idx_follower_followee"`
	CreatedAt  time.Time `json:"created_at"`
}

// FollowResult reports the outcome of a follow or unfollow attempt.
// IsFollowing and FollowerCount carry the true current state even when the
// operation itself was a no-op (already following / not following).
type FollowResult struct {
	Success       bool   `json:"success"`
	StatusCode    int    `json:"-"`
	Message       string `json:"message"`
	IsFollowing   bool   `json:"is_following"`
	FollowerCount int64  `json:"follower_count"`
}

// FollowStatusResult reports the relationship between two users in both
// directions.
type FollowStatusResult struct {
	IsFollowing  bool `json:"is_following"`
	IsFollowedBy bool `json:"is_followed_by"`
}

// FollowListEntry is one row of a followers/following page. IsFollowing is
// viewer-relative: whether the requesting caller follows the listed user.
type FollowListEntry struct {
	ID            uint      `json:"id"`
	Username      string    `json:"username"`
	DisplayName   string    `json:"display_name"`
	AvatarURL     string    `json:"avatar_url"`
	Bio           string    `json:"bio"`
	FollowerCount int64     `json:"follower_count"`
	IsFollowing   bool      `json:"is_following" gorm:"-"`
	FollowedAt    time.Time `json:"followed_at"`
}

// PagedUsers is a single page of a followers or following listing.
type PagedUsers struct {
	Users    []FollowListEntry `json:"users"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}

// UserStats are the headline counters shown on a profile.
type UserStats struct {
	FollowingCount int64 `json:"following_count"`
	FollowerCount  int64 `json:"follower_count"`
	PostCount      int64 `json:"post_count"`
	TotalLikes     int64 `json:"total_likes"`
}

// BatchStatusRequest is the body of a bulk follow-status check.
type BatchStatusRequest struct {
	Usernames []string `json:"usernames" validate:"required,min=1,max=100,dive,required"`
}
