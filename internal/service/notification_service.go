package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/pulse/internal/model"
	"github.com/d60-Lab/pulse/internal/repository"
)

// NotificationView carries the actor snapshot and, when still present, the
// post/comment that triggered the notification. Deleted references come back
// nil rather than failing the listing.
type NotificationView struct {
	model.Notification
	From    model.Snapshot `json:"from"`
	Post    *model.Post    `json:"post,omitempty"`
	Comment *model.Comment `json:"comment,omitempty"`
}

type NotificationService interface {
	List(ctx context.Context, recipientID string, page, pageSize int) ([]NotificationView, error)
	Delete(ctx context.Context, recipientID, notificationID string) error
}

type notificationService struct {
	notifications repository.NotificationRepository
	users         repository.UserRepository
	posts         repository.PostRepository
	comments      repository.CommentRepository
}

func NewNotificationService(
	notifications repository.NotificationRepository,
	users repository.UserRepository,
	posts repository.PostRepository,
	comments repository.CommentRepository,
) NotificationService {
	return &notificationService{notifications: notifications, users: users, posts: posts, comments: comments}
}

// emitNotification appends a notification inside the caller's transaction so
// the record commits or rolls back together with the engagement mutation that
// produced it. Self-directed events are silently skipped.
func emitNotification(tx *gorm.DB, fromID, toID, typ string, postID, commentID *string) error {
	if fromID == toID {
		return nil
	}
	n := &model.Notification{
		ID:         uuid.New().String(),
		FromUserID: fromID,
		ToUserID:   toID,
		Type:       typ,
		PostID:     postID,
		CommentID:  commentID,
		CreatedAt:  time.Now(),
	}
	return repository.NewNotificationRepository(tx).Create(tx.Statement.Context, n)
}

func (s *notificationService) List(ctx context.Context, recipientID string, page, pageSize int) ([]NotificationView, error) {
	offset, limit := pageBounds(page, pageSize)
	items, err := s.notifications.ListByRecipient(ctx, recipientID, offset, limit)
	if err != nil {
		return nil, err
	}

	actorIDs := make([]string, 0, len(items))
	for _, n := range items {
		actorIDs = append(actorIDs, n.FromUserID)
	}
	actors, err := s.users.GetByIDs(ctx, actorIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.User, len(actors))
	for _, u := range actors {
		byID[u.ID] = u
	}

	views := make([]NotificationView, 0, len(items))
	for _, n := range items {
		v := NotificationView{Notification: *n}
		if u, ok := byID[n.FromUserID]; ok {
			v.From = u.Snapshot()
		}
		if n.PostID != nil {
			if p, err := s.posts.GetByID(ctx, *n.PostID); err == nil {
				v.Post = p
			} else if !repository.IsNotFound(err) {
				return nil, err
			}
		}
		if n.CommentID != nil {
			if c, err := s.comments.GetByID(ctx, *n.CommentID); err == nil {
				v.Comment = c
			} else if !repository.IsNotFound(err) {
				return nil, err
			}
		}
		views = append(views, v)
	}
	return views, nil
}

func (s *notificationService) Delete(ctx context.Context, recipientID, notificationID string) error {
	affected, err := s.notifications.DeleteOwned(ctx, recipientID, notificationID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: notification", ErrNotFound)
	}
	return nil
}

// pageBounds normalizes 1-based paging into offset/limit.
func pageBounds(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	return (page - 1) * pageSize, pageSize
}
