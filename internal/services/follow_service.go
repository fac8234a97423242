package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/avelith/pixelgram/backend/internal/models"
	"github.com/avelith/pixelgram/backend/internal/repositories"
	"github.com/avelith/pixelgram/backend/pkg/logger"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	maxBatchSize    = 100
)

// FollowService owns the relationship consistency rules: idempotent edge
// mutation, atomic counter maintenance, pagination, and bulk status checks.
// Every mutating call runs its edge write and counter updates inside one
// repository transaction; the unique index on (follower_id, followee_id)
// serializes concurrent identical follows.
type FollowService struct {
	followRepo repositories.FollowRepository
	userRepo   repositories.UserRepository
	notifRepo  repositories.NotificationRepository
	txTimeout  time.Duration
}

// NewFollowService creates a new FollowService. notifRepo may be nil, in
// which case follow notifications are skipped.
func NewFollowService(
	followRepo repositories.FollowRepository,
	userRepo repositories.UserRepository,
	notifRepo repositories.NotificationRepository,
	txTimeout time.Duration,
) *FollowService {
	if txTimeout <= 0 {
		txTimeout = 5 * time.Second
	}
	return &FollowService{
		followRepo: followRepo,
		userRepo:   userRepo,
		notifRepo:  notifRepo,
		txTimeout:  txTimeout,
	}
}

// FollowUser creates a follow edge from followerID to the user identified by
// followeeUsername. The operation is idempotent: following someone already
// followed reports 409 together with the true current state. Two concurrent
// identical follows produce exactly one edge and one net counter increment;
// the loser of the insert race lands on the 409 path after rollback.
func (s *FollowService) FollowUser(ctx context.Context, followerID uint, followeeUsername string) (*models.FollowResult, error) {
	followee, err := s.userRepo.GetUserByUsername(ctx, followeeUsername)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &models.FollowResult{
				StatusCode: http.StatusNotFound,
				Message:    "User not found",
			}, nil
		}
		return nil, err
	}

	if followerID == followee.ID {
		return &models.FollowResult{
			StatusCode: http.StatusBadRequest,
			Message:    "Cannot follow yourself",
		}, nil
	}

	txCtx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	txErr := s.followRepo.InTx(txCtx, func(tx repositories.FollowRepository) error {
		exists, err := tx.EdgeExists(txCtx, followerID, followee.ID)
		if err != nil {
			return err
		}
		if exists {
			return repositories.ErrDuplicateEdge
		}
		edge := &models.Follow{FollowerID: followerID, FolloweeID: followee.ID}
		if err := tx.InsertEdge(txCtx, edge); err != nil {
			// A duplicate here means we lost a race with an identical
			// follow; returning it rolls back the whole transaction so
			// no counter is ever applied twice.
			return err
		}
		if err := tx.IncrementFollowerCount(txCtx, followee.ID, 1); err != nil {
			return err
		}
		return tx.IncrementFollowingCount(txCtx, followerID, 1)
	})

	switch {
	case txErr == nil:
		count, err := s.currentFollowerCount(ctx, followee.ID)
		if err != nil {
			return nil, err
		}
		s.notifyFollow(ctx, followerID, followee)
		return &models.FollowResult{
			Success:       true,
			StatusCode:    http.StatusCreated,
			Message:       "Now following " + followee.Username,
			IsFollowing:   true,
			FollowerCount: count,
		}, nil

	case errors.Is(txErr, repositories.ErrDuplicateEdge):
		count, err := s.currentFollowerCount(ctx, followee.ID)
		if err != nil {
			return nil, err
		}
		return &models.FollowResult{
			StatusCode:    http.StatusConflict,
			Message:       "Already following this user",
			IsFollowing:   true,
			FollowerCount: count,
		}, nil

	default:
		logger.L().Error().Err(txErr).
			Uint("follower_id", followerID).
			Uint("followee_id", followee.ID).
			Msg("follow transaction failed")
		return nil, txErr
	}
}

// UnfollowUser removes the follow edge from followerID to the user identified
// by followeeUsername. Unfollowing someone not followed is a no-op reported
// as 404 with current state and unchanged counters.
func (s *FollowService) UnfollowUser(ctx context.Context, followerID uint, followeeUsername string) (*models.FollowResult, error) {
	followee, err := s.userRepo.GetUserByUsername(ctx, followeeUsername)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &models.FollowResult{
				StatusCode: http.StatusNotFound,
				Message:    "User not found",
			}, nil
		}
		return nil, err
	}

	if followerID == followee.ID {
		return &models.FollowResult{
			StatusCode: http.StatusBadRequest,
			Message:    "Cannot unfollow yourself",
		}, nil
	}

	txCtx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	txErr := s.followRepo.InTx(txCtx, func(tx repositories.FollowRepository) error {
		rows, err := tx.DeleteEdge(txCtx, followerID, followee.ID)
		if err != nil {
			return err
		}
		if rows == 0 {
			return errNotFollowing
		}
		if err := tx.IncrementFollowerCount(txCtx, followee.ID, -1); err != nil {
			return err
		}
		return tx.IncrementFollowingCount(txCtx, followerID, -1)
	})

	switch {
	case txErr == nil:
		count, err := s.currentFollowerCount(ctx, followee.ID)
		if err != nil {
			return nil, err
		}
		return &models.FollowResult{
			Success:       true,
			StatusCode:    http.StatusOK,
			Message:       "Unfollowed " + followee.Username,
			IsFollowing:   false,
			FollowerCount: count,
		}, nil

	case errors.Is(txErr, errNotFollowing):
		count, err := s.currentFollowerCount(ctx, followee.ID)
		if err != nil {
			return nil, err
		}
		return &models.FollowResult{
			StatusCode:    http.StatusNotFound,
			Message:       "Not following this user",
			IsFollowing:   false,
			FollowerCount: count,
		}, nil

	default:
		logger.L().Error().Err(txErr).
			Uint("follower_id", followerID).
			Uint("followee_id", followee.ID).
			Msg("unfollow transaction failed")
		return nil, txErr
	}
}

// CheckFollowStatus reports the relationship between the caller and the
// target in both directions. The two reads are independent; a point-in-time
// snapshot across both is not required.
func (s *FollowService) CheckFollowStatus(ctx context.Context, callerID uint, targetUsername string) (*models.FollowStatusResult, error) {
	target, err := s.userRepo.GetUserByUsername(ctx, targetUsername)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	isFollowing, err := s.followRepo.EdgeExists(ctx, callerID, target.ID)
	if err != nil {
		return nil, err
	}
	isFollowedBy, err := s.followRepo.EdgeExists(ctx, target.ID, callerID)
	if err != nil {
		return nil, err
	}

	return &models.FollowStatusResult{
		IsFollowing:  isFollowing,
		IsFollowedBy: isFollowedBy,
	}, nil
}

// ListFollowers returns one page of users following the subject, newest
// relationship first, annotated with whether the viewer follows each listed
// user. viewerID 0 means anonymous and yields all-false annotations.
func (s *FollowService) ListFollowers(ctx context.Context, subjectUsername string, viewerID uint, page, pageSize int) (*models.PagedUsers, error) {
	subject, err := s.userRepo.GetUserByUsername(ctx, subjectUsername)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	page, pageSize = clampPage(page, pageSize)
	entries, total, err := s.followRepo.ListFollowers(ctx, subject.ID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, err
	}
	if err := s.annotateViewer(ctx, viewerID, entries); err != nil {
		return nil, err
	}

	return &models.PagedUsers{Users: entries, Total: total, Page: page, PageSize: pageSize}, nil
}

// ListFollowing returns one page of users the subject follows, symmetric to
// ListFollowers.
func (s *FollowService) ListFollowing(ctx context.Context, subjectUsername string, viewerID uint, page, pageSize int) (*models.PagedUsers, error) {
	subject, err := s.userRepo.GetUserByUsername(ctx, subjectUsername)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	page, pageSize = clampPage(page, pageSize)
	entries, total, err := s.followRepo.ListFollowing(ctx, subject.ID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, err
	}
	if err := s.annotateViewer(ctx, viewerID, entries); err != nil {
		return nil, err
	}

	return &models.PagedUsers{Users: entries, Total: total, Page: page, PageSize: pageSize}, nil
}

// BatchCheckFollowStatus tests membership for up to 100 target usernames in
// one batched query. Usernames that resolve to no user are reported as false
// rather than omitted, so the caller always gets one entry per distinct input.
func (s *FollowService) BatchCheckFollowStatus(ctx context.Context, followerID uint, usernames []string) (map[string]bool, error) {
	if len(usernames) == 0 || len(usernames) > maxBatchSize {
		return nil, ErrBatchSize
	}

	distinct := make([]string, 0, len(usernames))
	seen := make(map[string]struct{}, len(usernames))
	for _, name := range usernames {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		distinct = append(distinct, name)
	}

	users, err := s.userRepo.GetUsersByUsernames(ctx, distinct)
	if err != nil {
		return nil, err
	}

	idByName := make(map[string]uint, len(users))
	ids := make([]uint, 0, len(users))
	for _, u := range users {
		idByName[u.Username] = u.ID
		ids = append(ids, u.ID)
	}

	followed, err := s.followRepo.BatchEdgeExists(ctx, followerID, ids)
	if err != nil {
		return nil, err
	}

	result := make(map[string]bool, len(distinct))
	for _, name := range distinct {
		id, ok := idByName[name]
		result[name] = ok && followed[id]
	}
	return result, nil
}

// RecountUser recomputes the subject's cached counters from the edges table.
// Repair path for counter drift; the returned values are the corrected counts.
func (s *FollowService) RecountUser(ctx context.Context, username string) (followers, following int64, err error) {
	user, err := s.userRepo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, 0, ErrUserNotFound
		}
		return 0, 0, err
	}
	return s.followRepo.RecountUser(ctx, user.ID)
}

// currentFollowerCount re-reads the followee row so results always carry the
// committed counter value, not a locally computed guess.
func (s *FollowService) currentFollowerCount(ctx context.Context, userID uint) (int64, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return 0, err
	}
	return user.FollowerCount, nil
}

// notifyFollow writes a follow notification. Best-effort: failures are logged
// and never affect the follow outcome.
func (s *FollowService) notifyFollow(ctx context.Context, followerID uint, followee *models.User) {
	if s.notifRepo == nil {
		return
	}
	actor, err := s.userRepo.GetUserByID(ctx, followerID)
	if err != nil {
		logger.L().Warn().Err(err).Uint("actor_id", followerID).Msg("skipping follow notification")
		return
	}
	notif := &models.Notification{
		Type:        "follow",
		ActorID:     followerID,
		RecipientID: followee.ID,
		Message:     actor.DisplayName + " started following you",
	}
	if err := s.notifRepo.CreateNotification(ctx, notif); err != nil {
		logger.L().Warn().Err(err).Uint("recipient_id", followee.ID).Msg("failed to create follow notification")
	}
}

func clampPage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

// annotateViewer fills the viewer-relative IsFollowing flag on a page of
// entries with a single batched lookup.
func (s *FollowService) annotateViewer(ctx context.Context, viewerID uint, entries []models.FollowListEntry) error {
	if viewerID == 0 || len(entries) == 0 {
		return nil
	}
	ids := make([]uint, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	followed, err := s.followRepo.BatchEdgeExists(ctx, viewerID, ids)
	if err != nil {
		return err
	}
	for i := range entries {
		entries[i].IsFollowing = followed[entries[i].ID]
	}
	return nil
}
