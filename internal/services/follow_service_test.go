package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/avelith/pixelgram/backend/internal/models"
	"github.com/avelith/pixelgram/backend/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Follow{}, &models.Notification{}))
	return db
}

func newTestFollowService(t *testing.T) (*FollowService, *gorm.DB) {
	t.Helper()
	db := openTestDB(t)
	svc := NewFollowService(
		repositories.NewPostgresFollowRepository(db),
		repositories.NewPostgresUserRepository(db),
		repositories.NewPostgresNotificationRepository(db),
		5*time.Second,
	)
	return svc, db
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username:    username,
		DisplayName: username,
		Email:       username + "@example.com",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func userByID(t *testing.T, db *gorm.DB, id uint) *models.User {
	t.Helper()
	var user models.User
	require.NoError(t, db.First(&user, id).Error)
	return &user
}

func TestFollowUser_CreatesEdgeAndCounters(t *testing.T) {
	svc, db := newTestFollowService(t)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	result, err := svc.FollowUser(ctx, alice.ID, "bob")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, http.StatusCreated, result.StatusCode)
	assert.True(t, result.IsFollowing)
	assert.Equal(t, int64(1), result.FollowerCount)

	assert.Equal(t, int64(1), userByID(t, db, bob.ID).FollowerCount)
	assert.Equal(t, int64(1), userByID(t, db, alice.ID).FollowingCount)
}

func TestFollowUser_Idempotent(t *testing.T) {
	svc, db := newTestFollowService(t)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	first, err := svc.FollowUser(ctx, alice.ID, "bob")
	require.NoError(t, err)
	require.True(t, first.Success)

	second, err := svc.FollowUser(ctx, alice.ID, "bob")
	require.NoError(t, err)
	assert.False(t, second.Success)
	assert.Equal(t, http.StatusConflict, second.StatusCode)
	assert.True(t, second.IsFollowing, "conflict response still reports current state")
	assert.Equal(t, int64(1), second.FollowerCount, "counter must not double count")

	var edges int64
	require.NoError(t, db.Model(&models.Follow{}).
		Where("follower_id = ? AND followee_id = ?", alice.ID, bob.ID).
		Count(&edges).Error)
	assert.Equal(t, int64(1), edges)
	assert.Equal(t, int64(1), userByID(t, db, bob.ID).FollowerCount)
}

func TestFollowUser_SelfFollowForbidden(t *testing.T) {
	svc, db := newTestFollowService(t)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")

	result, err := svc.FollowUser(ctx, alice.ID, "alice")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, http.StatusBadRequest, result.StatusCode)
	assert.Equal(t, int64(0), userByID(t, db, alice.ID).FollowerCount)
}

func TestFollowUser_TargetNotFound(t *testing.T) {
	svc, db := newTestFollowService(t)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")

	result, err := svc.FollowUser(ctx, alice.ID, "nosuchuser")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, http.StatusNotFound, result.StatusCode)
}

func TestFollowUser_CreatesNotification(t *testing.T) {
	svc, db := newTestFollowService(t)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	_, err := svc.FollowUser(ctx, alice.ID, "bob")
	require.NoError(t, err)

	var notif models.Notification
	require.NoError(t, db.Where("recipient_id = ?", bob.ID).First(&notif).Error)
	assert.Equal(t, "follow", notif.Type)
	assert.Equal(t, alice.ID, notif.ActorID)
	assert.Contains(t, notif.Message, "started following you")
}

func TestUnfollowUser_RemovesEdgeAndCounters(t *testing.T) {
	svc, db := newTestFollowService(t)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	_, err := svc.FollowUser(ctx, alice.ID, "bob")
	require.NoError(t, err)

	result, err := svc.UnfollowUser(ctx, alice.ID, "bob")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.False(t, result.IsFollowing)
	assert.Equal(t, int64(0), result.FollowerCount)

	assert.Equal(t, int64(0), userByID(t, db, bob.ID).FollowerCount)
	assert.Equal(t, int64(0), userByID(t, db, alice.ID).FollowingCount)
}

func TestUnfollowUser_WithoutFollow(t *testing.T) {
	svc, db := newTestFollowService(t)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	result, err := svc.UnfollowUser(ctx, alice.ID, "bob")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, http.StatusNotFound, result.StatusCode)
	assert.False(t, result.IsFollowing)

	assert.Equal(t, int64(0), userByID(t, db, bob.ID).FollowerCount)
	assert.Equal(t, int64(0), userByID(t, db, alice.ID).FollowingCount)
}

func TestCountersMatchEdges(t *testing.T) {
	svc, db := newTestFollowService(t)
	ctx := context.Background()
	followRepo := repositories.NewPostgresFollowRepository(db)

	users := make([]*models.User, 4)
	for i := range users {
		users[i] = createTestUser(t, db, fmt.Sprintf("user%d", i))
	}

	// Mixed follows, unfollows, and repeated no-ops
	mutations := []struct {
		op       string
		follower *models.User
		followee string
	}{
		{"follow", users[0], "user1"},
		{"follow", users[0], "user2"},
		{"follow", users[1], "user2"},
		{"follow", users[2], "user0"},
		{"follow", users[0], "user1"},   // duplicate
		{"unfollow", users[0], "user2"},
		{"unfollow", users[0], "user2"}, // no-op
		{"follow", users[3], "user2"},
	}
	for _, m := range mutations {
		var err error
		if m.op == "follow" {
			_, err = svc.FollowUser(ctx, m.follower.ID, m.followee)
		} else {
			_, err = svc.UnfollowUser(ctx, m.follower.ID, m.followee)
		}
		require.NoError(t, err)
	}

	for _, u := range users {
		followers, err := followRepo.CountFollowers(ctx, u.ID)
		require.NoError(t, err)
		following, err := followRepo.CountFollowing(ctx, u.ID)
		require.NoError(t, err)

		fresh := userByID(t, db, u.ID)
		assert.Equal(t, followers, fresh.FollowerCount, "follower counter drifted for %s", u.Username)
		assert.Equal(t, following, fresh.FollowingCount, "following counter drifted for %s", u.Username)
	}
}

func TestCheckFollowStatus(t *testing.T) {
	svc, db := newTestFollowService(t)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	createTestUser(t, db, "carol")

	_, err := svc.FollowUser(ctx, alice.ID, "bob")
	require.NoError(t, err)
	_, err = svc.FollowUser(ctx, bob.ID, "alice")
	require.NoError(t, err)

	status, err := svc.CheckFollowStatus(ctx, alice.ID, "bob")
	require.NoError(t, err)
	assert.True(t, status.IsFollowing)
	assert.True(t, status.IsFollowedBy)

	status, err = svc.CheckFollowStatus(ctx, alice.ID, "carol")
	require.NoError(t, err)
	assert.False(t, status.IsFollowing)
	assert.False(t, status.IsFollowedBy)

	_, err = svc.CheckFollowStatus(ctx, alice.ID, "nosuchuser")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestListFollowers_Pagination(t *testing.T) {
	svc, db := newTestFollowService(t)
	ctx := context.Background()

	subject := createTestUser(t, db, "subject")
	for i := 0; i < 25; i++ {
		follower := createTestUser(t, db, fmt.Sprintf("fan%02d", i))
		_, err := svc.FollowUser(ctx, follower.ID, "subject")
		require.NoError(t, err)
	}

	page1, err := svc.ListFollowers(ctx, "subject", 0, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(25), page1.Total)
	assert.Len(t, page1.Users, 20)

	page2, err := svc.ListFollowers(ctx, "subject", 0, 2, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(25), page2.Total)
	assert.Len(t, page2.Users, 5)

	seen := make(map[uint]bool)
	for _, u := range page1.Users {
		seen[u.ID] = true
	}
	for _, u := range page2.Users {
		assert.False(t, seen[u.ID], "user %s appeared on both pages", u.Username)
	}

	assert.Equal(t, int64(25), userByID(t, db, subject.ID).FollowerCount)
}

func TestListFollowers_ViewerAnnotation(t *testing.T) {
	svc, db := newTestFollowService(t)
	ctx := context.Background()

	createTestUser(t, db, "subject")
	viewer := createTestUser(t, db, "viewer")
	fan1 := createTestUser(t, db, "fanone")
	fan2 := createTestUser(t, db, "fantwo")

	_, err := svc.FollowUser(ctx, fan1.ID, "subject")
	require.NoError(t, err)
	_, err = svc.FollowUser(ctx, fan2.ID, "subject")
	require.NoError(t, err)
	// Viewer follows fan1 but not fan2
	_, err = svc.FollowUser(ctx, viewer.ID, "fanone")
	require.NoError(t, err)

	result, err := svc.ListFollowers(ctx, "subject", viewer.ID, 1, 20)
	require.NoError(t, err)
	require.Len(t, result.Users, 2)

	byName := make(map[string]models.FollowListEntry)
	for _, u := range result.Users {
		byName[u.Username] = u
	}
	assert.True(t, byName["fanone"].IsFollowing)
	assert.False(t, byName["fantwo"].IsFollowing)

	// Anonymous viewer gets all-false annotations
	anon, err := svc.ListFollowers(ctx, "subject", 0, 1, 20)
	require.NoError(t, err)
	for _, u := range anon.Users {
		assert.False(t, u.IsFollowing)
	}
}

func TestListFollowing_ClampsPagination(t *testing.T) {
	svc, db := newTestFollowService(t)
	ctx := context.Background()

	createTestUser(t, db, "alice")

	result, err := svc.ListFollowing(ctx, "alice", 0, 0, 1000)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Page)
	assert.Equal(t, 100, result.PageSize)

	result, err = svc.ListFollowing(ctx, "alice", 0, 1, -5)
	require.NoError(t, err)
	assert.Equal(t, 20, result.PageSize)
}

func TestBatchCheckFollowStatus_Bounds(t *testing.T) {
	svc, db := newTestFollowService(t)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")

	_, err := svc.BatchCheckFollowStatus(ctx, alice.ID, nil)
	assert.ErrorIs(t, err, ErrBatchSize)

	oversized := make([]string, 101)
	for i := range oversized {
		oversized[i] = fmt.Sprintf("user%d", i)
	}
	_, err = svc.BatchCheckFollowStatus(ctx, alice.ID, oversized)
	assert.ErrorIs(t, err, ErrBatchSize)
}

func TestBatchCheckFollowStatus(t *testing.T) {
	svc, db := newTestFollowService(t)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	createTestUser(t, db, "bob")
	createTestUser(t, db, "carol")

	_, err := svc.FollowUser(ctx, alice.ID, "bob")
	require.NoError(t, err)

	// Duplicates are collapsed; unknown usernames map to false
	result, err := svc.BatchCheckFollowStatus(ctx, alice.ID, []string{"bob", "carol", "bob", "ghost"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{
		"bob":   true,
		"carol": false,
		"ghost": false,
	}, result)
}

func TestRecountUser_RepairsDrift(t *testing.T) {
	svc, db := newTestFollowService(t)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	_, err := svc.FollowUser(ctx, alice.ID, "bob")
	require.NoError(t, err)

	// Corrupt the cached counters directly
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", bob.ID).
		Updates(map[string]interface{}{"follower_count": 42, "following_count": 7}).Error)

	followers, following, err := svc.RecountUser(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(1), followers)
	assert.Equal(t, int64(0), following)

	fresh := userByID(t, db, bob.ID)
	assert.Equal(t, int64(1), fresh.FollowerCount)
	assert.Equal(t, int64(0), fresh.FollowingCount)

	_, _, err = svc.RecountUser(ctx, "nosuchuser")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
