package domain

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	PasswordHash string    `json:"-" gorm:"not null"`
	DisplayName  string    `json:"displayName" gorm:"uniqueIndex;not null"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// TableName returns the table name for GORM
func (User) TableName() string {
	return "users"
}

type UserSession struct {
	ID               uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID           uuid.UUID `json:"userId" gorm:"type:uuid;not null;index"`
	RefreshTokenHash string    `json:"-" gorm:"not null"`
	ExpiresAt        time.Time `json:"expiresAt" gorm:"not null"`
	CreatedAt        time.Time `json:"createdAt"`
}

// BuildStats aggregates a user's builds for the profile page.
type BuildStats struct {
	BuildCount  int `json:"buildCount"`
	PublicCount int `json:"publicCount"`
	TotalVotes  int `json:"totalVotes"`
	TotalViews  int `json:"totalViews"`
}

// UserProfile is a user together with their build statistics.
type UserProfile struct {
	User  *User      `json:"user"`
	Stats BuildStats `json:"stats"`
}
