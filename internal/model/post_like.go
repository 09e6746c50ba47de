package model

import "time"

// PostLike marks that UserID likes PostID. The unique pair index makes a
// repeated like a no-op instead of a duplicate row.
type PostLike struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	PostID    string `gorm:"type:varchar(36);index:idx_like_post;index:idx_like_pair,unique;not null"`
	UserID    string `gorm:"type:varchar(36);not null;index:idx_like_pair,unique"`
	CreatedAt time.Time
}

func (PostLike) TableName() string { return "post_likes" }
