package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Background types for theme settings
const (
	BackgroundDefault = "default"
	BackgroundColor   = "color"
	BackgroundImage   = "image"
)

// UserThemeSettings holds per-user appearance preferences. One row per user,
// created lazily with defaults on first read.
type UserThemeSettings struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID          string  `gorm:"type:varchar(36);uniqueIndex;not null" json:"user_id"`
	PresetTheme     string  `gorm:"type:varchar(30);default:'Dark'" json:"preset_theme"`
	AccentColor     *string `gorm:"type:varchar(10)" json:"accent_color"`
	BackgroundType  string  `gorm:"type:varchar(10);default:'default'" json:"background_type"`
	BackgroundValue *string `json:"background_value"`
	SidebarOpacity  float64 `gorm:"default:1.0" json:"sidebar_opacity"`
}

func (t *UserThemeSettings) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// ActivityLog records notable user actions for the admin analytics view.
type ActivityLog struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	UserID     *string `gorm:"type:varchar(36);index" json:"user_id,omitempty"`
	Action     string  `gorm:"type:varchar(50);index;not null" json:"action"`
	EntityType string  `gorm:"type:varchar(30)" json:"entity_type,omitempty"`
	EntityID   string  `gorm:"type:varchar(36)" json:"entity_id,omitempty"`
	Detail     string  `json:"detail,omitempty"`
}

func (a *ActivityLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
