package services

import (
	"context"
	"testing"

	"github.com/avelith/pixelgram/backend/internal/models"
	"github.com/avelith/pixelgram/backend/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubPostRepository serves canned per-author aggregates keyed by author ID.
type stubPostRepository struct {
	postCounts map[uint]int64
	likeSums   map[uint]int64
}

func (s *stubPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	return nil
}

func (s *stubPostRepository) CountPostsByUser(ctx context.Context, authorID uint) (int64, error) {
	return s.postCounts[authorID], nil
}

func (s *stubPostRepository) SumLikesByUser(ctx context.Context, authorID uint) (int64, error) {
	return s.likeSums[authorID], nil
}

var _ repositories.PostRepository = (*stubPostRepository)(nil)

func TestGetUserStats(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", alice.ID).
		Updates(map[string]interface{}{"follower_count": 12, "following_count": 34}).Error)

	svc := NewStatsService(
		repositories.NewPostgresUserRepository(db),
		&stubPostRepository{
			postCounts: map[uint]int64{alice.ID: 9},
			likeSums:   map[uint]int64{alice.ID: 250},
		},
	)

	stats, err := svc.GetUserStats(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(12), stats.FollowerCount)
	assert.Equal(t, int64(34), stats.FollowingCount)
	assert.Equal(t, int64(9), stats.PostCount)
	assert.Equal(t, int64(250), stats.TotalLikes)
}

func TestGetUserStats_ZeroDefaults(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	createTestUser(t, db, "newcomer")

	svc := NewStatsService(
		repositories.NewPostgresUserRepository(db),
		&stubPostRepository{},
	)

	stats, err := svc.GetUserStats(ctx, "newcomer")
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.FollowerCount)
	assert.Equal(t, int64(0), stats.FollowingCount)
	assert.Equal(t, int64(0), stats.PostCount)
	assert.Equal(t, int64(0), stats.TotalLikes)
}

func TestGetUserStats_UserNotFound(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	svc := NewStatsService(
		repositories.NewPostgresUserRepository(db),
		&stubPostRepository{},
	)

	_, err := svc.GetUserStats(ctx, "nosuchuser")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
