package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// User represents an account on the platform. Username is the stable,
// externally visible identifier; ID is the internal physical key.
// FollowerCount and FollowingCount are cached aggregates maintained by the
// follow service inside the same transaction as the edge write; the follows
// table remains the source of truth.
type User struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	Username       string    `json:"username" gorm:"size:30;uniqueIndex"`
	DisplayName    string    `json:"display_name" gorm:"size:50"`
	Email          string    `json:"email" gorm:"uniqueIndex"`
	Password       string    `json:"-"` // bcrypt hash, never serialized
	FirebaseUID    string    `json:"firebase_uid,omitempty" gorm:"index"`
	AvatarURL      string    `json:"avatar_url"`
	Bio            string    `json:"bio" gorm:"size:300"`
	FollowerCount  int64     `json:"follower_count" gorm:"default:0"`
	FollowingCount int64     `json:"following_count" gorm:"default:0"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// UserCompact is the embedded form of a user used in notifications
type UserCompact struct {
	ID          uint   `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

// ToCompact converts a User to its compact representation
func (u *User) ToCompact() UserCompact {
	return UserCompact{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
	}
}

type SignupRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=30,alphanum"`
	DisplayName string `json:"display_name" validate:"required,min=2,max=50"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
}

type UpdateProfileRequest struct {
	DisplayName string `json:"display_name,omitempty" validate:"omitempty,min=2,max=50"`
	AvatarURL   string `json:"avatar_url,omitempty" validate:"omitempty,url"`
	Bio         string `json:"bio,omitempty" validate:"omitempty,max=300"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}
