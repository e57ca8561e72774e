package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID        string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"` // Hidden from JSON
	FullName     string `json:"full_name"`
	Role         string `gorm:"type:varchar(20);default:'user'" json:"role"`
	AvatarURL    string `json:"avatar_url,omitempty"`
	IsActive     bool   `gorm:"default:false" json:"is_active"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// RefreshToken is one live session. Login revokes the previous session for
// the same device type before creating a new row.
type RefreshToken struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	UserID     string    `gorm:"type:varchar(36);index;not null" json:"user_id"`
	Token      string    `gorm:"uniqueIndex;not null" json:"-"`
	DeviceType string    `gorm:"type:varchar(20);default:'web'" json:"device_type"`
	ExpiresAt  time.Time `gorm:"index" json:"expires_at"`
	Revoked    bool      `gorm:"default:false" json:"revoked"`
}

func (r *RefreshToken) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
