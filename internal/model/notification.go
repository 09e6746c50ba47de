package model

import "time"

const (
	NotificationLike    = "like"
	NotificationComment = "comment"
	NotificationFollow  = "follow"
)

// Notification is append-only; rows are only ever removed by their recipient.
type Notification struct {
	ID         string  `json:"id" gorm:"primaryKey;type:varchar(36)"`
	FromUserID string  `json:"from_user_id" gorm:"type:varchar(36);not null"`
	ToUserID   string  `json:"to_user_id" gorm:"type:varchar(36);index:idx_notification_to;not null"`
	Type       string  `json:"type" gorm:"type:varchar(16);not null"`
	PostID     *string `json:"post_id,omitempty" gorm:"type:varchar(36)"`
	CommentID  *string `json:"comment_id,omitempty" gorm:"type:varchar(36)"`
	CreatedAt  time.Time `json:"created_at" gorm:"index:idx_notification_created"`
}

func (Notification) TableName() string { return "notifications" }
