package model

import "time"

// Comment belongs to exactly one post; PostID never changes. The post's
// comment list is the set of rows carrying its id, ordered by Cursor, so list
// membership and the back-reference cannot drift apart.
type Comment struct {
	ID        string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	PostID    string `json:"post_id" gorm:"type:varchar(36);index:idx_comment_post;not null"`
	AuthorID  string `json:"author_id" gorm:"type:varchar(36);index:idx_comment_author;not null"`
	Content   string `json:"content" gorm:"type:text;not null"`
	Cursor    int64  `json:"-" gorm:"index:idx_comment_cursor;not null"`
	CreatedAt time.Time `json:"created_at"`
}

func (Comment) TableName() string { return "comments" }
