package model

import "time"

// User is an application account backed by an identity-provider principal.
// ExternalID is the provider's principal id and never changes after creation.
type User struct {
	ID             string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ExternalID     string `json:"-" gorm:"type:varchar(64);uniqueIndex:ux_user_external;not null"`
	Username       string `json:"username" gorm:"type:varchar(64);uniqueIndex:ux_user_username;not null"`
	Email          string `json:"email" gorm:"type:varchar(255)"`
	FirstName      string `json:"first_name" gorm:"type:varchar(64)"`
	LastName       string `json:"last_name" gorm:"type:varchar(64)"`
	Bio            string `json:"bio" gorm:"type:text"`
	Location       string `json:"location" gorm:"type:varchar(128)"`
	ProfilePicture string `json:"profile_picture" gorm:"type:varchar(512)"`
	BannerImage    string `json:"banner_image" gorm:"type:varchar(512)"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }

// Snapshot is the denormalized author view embedded in posts, comments and
// notifications.
type Snapshot struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	ProfilePicture string `json:"profile_picture"`
}

func (u *User) Snapshot() Snapshot {
	return Snapshot{
		ID:             u.ID,
		Username:       u.Username,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		ProfilePicture: u.ProfilePicture,
	}
}
