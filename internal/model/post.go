package model

import "time"

// Post must carry text content, an image, or both. Cursor is assigned once at
// insert and gives a stable chronological order that survives deletes.
type Post struct {
	ID        string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	AuthorID  string `json:"author_id" gorm:"type:varchar(36);index:idx_post_author;not null"`
	Content   string `json:"content" gorm:"type:text"`
	Image     string `json:"image" gorm:"type:varchar(512)"`
	Cursor    int64  `json:"-" gorm:"index:idx_post_cursor;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Post) TableName() string { return "posts" }
