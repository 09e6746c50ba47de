package service

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/d60-Lab/pulse/internal/model"
	"github.com/d60-Lab/pulse/internal/repository"
)

// RelationshipService maintains the symmetric follow graph. An edge lives in
// two rows (follows + fans) that are only ever written inside one
// transaction, so readers never observe a half-applied edge.
type RelationshipService interface {
	// ToggleFollow follows the target if no edge exists, unfollows
	// otherwise, and reports the resulting state.
	ToggleFollow(ctx context.Context, currentUserID, targetUserID string) (bool, error)
	Following(ctx context.Context, userID string, page, pageSize int) ([]model.Snapshot, error)
	Followers(ctx context.Context, userID string, page, pageSize int) ([]model.Snapshot, error)
}

type relationshipService struct {
	db      *gorm.DB
	users   repository.UserRepository
	follows repository.FollowRepository
	fans    repository.FanRepository
}

func NewRelationshipService(
	db *gorm.DB,
	users repository.UserRepository,
	follows repository.FollowRepository,
	fans repository.FanRepository,
) RelationshipService {
	return &relationshipService{db: db, users: users, follows: follows, fans: fans}
}

func (s *relationshipService) ToggleFollow(ctx context.Context, currentUserID, targetUserID string) (bool, error) {
	if currentUserID == targetUserID {
		return false, ErrSelfFollow
	}
	if _, err := s.users.GetByID(ctx, currentUserID); err != nil {
		return false, userLookupErr(err)
	}
	if _, err := s.users.GetByID(ctx, targetUserID); err != nil {
		return false, userLookupErr(err)
	}

	exists, err := s.follows.Exists(ctx, currentUserID, targetUserID)
	if err != nil {
		return false, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		follows := repository.NewFollowRepository(tx)
		fans := repository.NewFanRepository(tx)
		if exists {
			if err := follows.Delete(ctx, currentUserID, targetUserID); err != nil {
				return err
			}
			return fans.Delete(ctx, targetUserID, currentUserID)
		}

		created, err := follows.Create(ctx, currentUserID, targetUserID)
		if err != nil {
			return err
		}
		if _, err := fans.Create(ctx, targetUserID, currentUserID); err != nil {
			return err
		}
		// A concurrent toggle can insert the edge between the membership
		// check and here; only the caller whose insert created it notifies.
		if !created {
			return nil
		}
		return emitNotification(tx, currentUserID, targetUserID, model.NotificationFollow, nil, nil)
	})
	if err != nil {
		return false, err
	}
	return !exists, nil
}

func (s *relationshipService) Following(ctx context.Context, userID string, page, pageSize int) ([]model.Snapshot, error) {
	offset, limit := pageBounds(page, pageSize)
	edges, err := s.follows.ListFollowings(ctx, userID, offset, limit)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(edges))
	for i, e := range edges {
		ids[i] = e.FolloweeID
	}
	return s.snapshots(ctx, ids)
}

func (s *relationshipService) Followers(ctx context.Context, userID string, page, pageSize int) ([]model.Snapshot, error) {
	offset, limit := pageBounds(page, pageSize)
	edges, err := s.fans.ListFans(ctx, userID, offset, limit)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(edges))
	for i, e := range edges {
		ids[i] = e.FanID
	}
	return s.snapshots(ctx, ids)
}

// snapshots bulk-loads users and returns them in the order of ids, skipping
// any that no longer exist.
func (s *relationshipService) snapshots(ctx context.Context, ids []string) ([]model.Snapshot, error) {
	users, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	res := make([]model.Snapshot, 0, len(ids))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			res = append(res, u.Snapshot())
		}
	}
	return res, nil
}

func userLookupErr(err error) error {
	if repository.IsNotFound(err) {
		return fmt.Errorf("%w: user", ErrNotFound)
	}
	return err
}
