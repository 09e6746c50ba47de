package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/pulse/internal/model"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	// ListByRecipient returns the recipient's notifications newest first.
	ListByRecipient(ctx context.Context, recipientID string, offset, limit int) ([]*model.Notification, error)
	// DeleteOwned removes the notification only if it belongs to the
	// recipient, returning the number of rows removed.
	DeleteOwned(ctx context.Context, recipientID, notificationID string) (int64, error)
}

type notificationRepository struct{ db *gorm.DB }

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *notificationRepository) ListByRecipient(ctx context.Context, recipientID string, offset, limit int) ([]*model.Notification, error) {
	var res []*model.Notification
	err := r.db.WithContext(ctx).
		Where("to_user_id = ?", recipientID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&res).Error
	return res, err
}

func (r *notificationRepository) DeleteOwned(ctx context.Context, recipientID, notificationID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND to_user_id = ?", notificationID, recipientID).
		Delete(&model.Notification{})
	return res.RowsAffected, res.Error
}
