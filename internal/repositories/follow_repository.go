package repositories

import (
	"context"
	"errors"

	"github.com/avelith/pixelgram/backend/internal/models"
	"gorm.io/gorm"
)

// ErrDuplicateEdge is returned by InsertEdge when the (follower, followee)
// pair already exists. Under concurrent identical follows the unique index
// guarantees exactly one insert succeeds; the loser sees this error.
var ErrDuplicateEdge = errors.New("follow edge already exists")

// FollowRepository defines the interface for follow edge and counter operations.
// All mutating methods called from the follow service run inside a single
// transaction obtained via InTx: edge writes and counter updates are atomic.
type FollowRepository interface {
	InTx(ctx context.Context, fn func(FollowRepository) error) error
	EdgeExists(ctx context.Context, followerID, followeeID uint) (bool, error)
	InsertEdge(ctx context.Context, follow *models.Follow) error
	DeleteEdge(ctx context.Context, followerID, followeeID uint) (int64, error)
	IncrementFollowerCount(ctx context.Context, userID uint, delta int) error
	IncrementFollowingCount(ctx context.Context, userID uint, delta int) error
	CountFollowers(ctx context.Context, userID uint) (int64, error)
	CountFollowing(ctx context.Context, userID uint) (int64, error)
	RecountUser(ctx context.Context, userID uint) (followers, following int64, err error)
	ListFollowers(ctx context.Context, userID uint, offset, limit int) ([]models.FollowListEntry, int64, error)
	ListFollowing(ctx context.Context, userID uint, offset, limit int) ([]models.FollowListEntry, int64, error)
	BatchEdgeExists(ctx context.Context, followerID uint, followeeIDs []uint) (map[uint]bool, error)
}

// PostgresFollowRepository implements FollowRepository for PostgreSQL
type PostgresFollowRepository struct {
	db *gorm.DB
}

// NewPostgresFollowRepository creates a new PostgresFollowRepository
func NewPostgresFollowRepository(db *gorm.DB) *PostgresFollowRepository {
	return &PostgresFollowRepository{db: db}
}

// InTx runs fn against a transaction-scoped copy of the repository. The
// transaction is committed when fn returns nil and rolled back otherwise,
// so a failed edge insert never leaves a counter increment behind.
func (r *PostgresFollowRepository) InTx(ctx context.Context, fn func(FollowRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresFollowRepository{db: tx})
	})
}

// EdgeExists reports whether followerID currently follows followeeID
func (r *PostgresFollowRepository) EdgeExists(ctx context.Context, followerID, followeeID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// InsertEdge creates a follow edge. Unique-index violations are reported as
// ErrDuplicateEdge; requires TranslateError on the gorm config.
func (r *PostgresFollowRepository) InsertEdge(ctx context.Context, follow *models.Follow) error {
	if err := r.db.WithContext(ctx).Create(follow).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateEdge
		}
		return err
	}
	return nil
}

// DeleteEdge removes a follow edge and returns the number of rows affected.
// Zero rows means the edge did not exist.
func (r *PostgresFollowRepository) DeleteEdge(ctx context.Context, followerID, followeeID uint) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// IncrementFollowerCount applies a relative update to the cached follower
// counter. Relative (count = count + delta) rather than absolute so
// concurrent transactions cannot overwrite each other.
func (r *PostgresFollowRepository) IncrementFollowerCount(ctx context.Context, userID uint, delta int) error {
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("follower_count", gorm.Expr("follower_count + ?", delta)).Error
}

// IncrementFollowingCount applies a relative update to the cached following counter
func (r *PostgresFollowRepository) IncrementFollowingCount(ctx context.Context, userID uint, delta int) error {
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("following_count", gorm.Expr("following_count + ?", delta)).Error
}

// CountFollowers returns the true follower count from the edges table
func (r *PostgresFollowRepository) CountFollowers(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("followee_id = ?", userID).
		Count(&count).Error
	return count, err
}

// CountFollowing returns the true following count from the edges table
func (r *PostgresFollowRepository) CountFollowing(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ?", userID).
		Count(&count).Error
	return count, err
}

// RecountUser recomputes both cached counters from the edges table and writes
// them back in one transaction. Repair path only; the hot path never writes
// absolute counter values.
func (r *PostgresFollowRepository) RecountUser(ctx context.Context, userID uint) (int64, int64, error) {
	var followers, following int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Follow{}).Where("followee_id = ?", userID).Count(&followers).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Follow{}).Where("follower_id = ?", userID).Count(&following).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", userID).
			Updates(map[string]interface{}{
				"follower_count":  followers,
				"following_count": following,
			}).Error
	})
	if err != nil {
		return 0, 0, err
	}
	return followers, following, nil
}

// ListFollowers returns one page of users who follow userID, most recent
// relationship first, plus the total follower count at query time. The order
// is made deterministic by tie-breaking on edge id so rows cannot repeat or
// vanish between pages.
func (r *PostgresFollowRepository) ListFollowers(ctx context.Context, userID uint, offset, limit int) ([]models.FollowListEntry, int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("followee_id = ?", userID).
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	var entries []models.FollowListEntry
	err = r.db.WithContext(ctx).
		Table("follows").
		Select("users.id, users.username, users.display_name, users.avatar_url, users.bio, users.follower_count, follows.created_at AS followed_at").
		Joins("JOIN users ON users.id = follows.follower_id").
		Where("follows.followee_id = ?", userID).
		Order("follows.created_at DESC, follows.id DESC").
		Offset(offset).
		Limit(limit).
		Scan(&entries).Error
	return entries, total, err
}

// ListFollowing returns one page of users that userID follows, most recent
// relationship first, plus the total following count at query time.
func (r *PostgresFollowRepository) ListFollowing(ctx context.Context, userID uint, offset, limit int) ([]models.FollowListEntry, int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ?", userID).
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	var entries []models.FollowListEntry
	err = r.db.WithContext(ctx).
		Table("follows").
		Select("users.id, users.username, users.display_name, users.avatar_url, users.bio, users.follower_count, follows.created_at AS followed_at").
		Joins("JOIN users ON users.id = follows.followee_id").
		Where("follows.follower_id = ?", userID).
		Order("follows.created_at DESC, follows.id DESC").
		Offset(offset).
		Limit(limit).
		Scan(&entries).Error
	return entries, total, err
}

// BatchEdgeExists checks in one query whether followerID follows each of the
// given followeeIDs. Every requested id gets an entry in the result map.
func (r *PostgresFollowRepository) BatchEdgeExists(ctx context.Context, followerID uint, followeeIDs []uint) (map[uint]bool, error) {
	result := make(map[uint]bool, len(followeeIDs))
	for _, id := range followeeIDs {
		result[id] = false
	}
	if len(followeeIDs) == 0 {
		return result, nil
	}

	var followed []uint
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND followee_id IN ?", followerID, followeeIDs).
		Pluck("followee_id", &followed).Error
	if err != nil {
		return nil, err
	}
	for _, id := range followed {
		result[id] = true
	}
	return result, nil
}

// Ensure interface is satisfied at compile time.
var _ FollowRepository = (*PostgresFollowRepository)(nil)
