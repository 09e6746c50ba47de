package service

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/d60-Lab/pulse/internal/model"
	"github.com/d60-Lab/pulse/internal/repository"
)

// EngagementService applies like/unlike toggles. The like row and its
// notification commit in one transaction; the notification is only emitted
// when someone likes another user's post.
type EngagementService interface {
	ToggleLike(ctx context.Context, userID, postID string) (bool, error)
}

type engagementService struct {
	db    *gorm.DB
	users repository.UserRepository
	posts repository.PostRepository
	likes repository.LikeRepository
}

func NewEngagementService(
	db *gorm.DB,
	users repository.UserRepository,
	posts repository.PostRepository,
	likes repository.LikeRepository,
) EngagementService {
	return &engagementService{db: db, users: users, posts: posts, likes: likes}
}

func (s *engagementService) ToggleLike(ctx context.Context, userID, postID string) (bool, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return false, userLookupErr(err)
	}
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		if repository.IsNotFound(err) {
			return false, fmt.Errorf("%w: post", ErrNotFound)
		}
		return false, err
	}

	liked, err := s.likes.Exists(ctx, postID, userID)
	if err != nil {
		return false, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		likes := repository.NewLikeRepository(tx)
		if liked {
			// Unlike. Deleting an already-absent row is a no-op, so a
			// repeated unlike stays idempotent.
			return likes.Delete(ctx, postID, userID)
		}
		created, err := likes.Create(ctx, postID, userID)
		if err != nil {
			return err
		}
		// A concurrent toggle can insert the row between the membership
		// check and here; only the caller whose insert created the row
		// notifies, so the owner never hears about one like twice.
		if !created {
			return nil
		}
		return emitNotification(tx, userID, post.AuthorID, model.NotificationLike, &post.ID, nil)
	})
	if err != nil {
		return false, err
	}
	return !liked, nil
}
