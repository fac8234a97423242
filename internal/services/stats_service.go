package services

import (
	"context"
	"errors"

	"github.com/avelith/pixelgram/backend/internal/models"
	"github.com/avelith/pixelgram/backend/internal/repositories"
	"gorm.io/gorm"
)

// StatsService composes the headline profile counters: cached follow counters
// from the user row plus post count and total likes from the post subsystem.
// Pure read composition; no transaction needed.
type StatsService struct {
	userRepo repositories.UserRepository
	postRepo repositories.PostRepository
}

// NewStatsService creates a new StatsService
func NewStatsService(userRepo repositories.UserRepository, postRepo repositories.PostRepository) *StatsService {
	return &StatsService{userRepo: userRepo, postRepo: postRepo}
}

// GetUserStats returns the four headline counters for a profile.
func (s *StatsService) GetUserStats(ctx context.Context, username string) (*models.UserStats, error) {
	user, err := s.userRepo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	postCount, err := s.postRepo.CountPostsByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	totalLikes, err := s.postRepo.SumLikesByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &models.UserStats{
		FollowingCount: user.FollowingCount,
		FollowerCount:  user.FollowerCount,
		PostCount:      postCount,
		TotalLikes:     totalLikes,
	}, nil
}
