package models

import "time"

type UserType string

const (
	UserIndividual   UserType = "individual"
	UserOrganization UserType = "organization"
)

type User struct {
	ID           string    `gorm:"primaryKey;size:64" json:"id"`
	DisplayName  string    `gorm:"not null;size:255" json:"display_name"`
	AvatarURL    string    `gorm:"size:500" json:"avatar_url"`
	UserType     UserType  `gorm:"type:varchar(20);not null;default:'individual'" json:"user_type"`
	Email        string    `gorm:"size:255;uniqueIndex" json:"-"`
	PasswordHash string    `gorm:"size:255" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreatorSummary is the public slice of a user profile that may be joined
// into other resources.
type CreatorSummary struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}
