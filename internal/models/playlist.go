package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Playlist is a user-owned collection of songs.
type Playlist struct {
	ID        string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`
	IsPrivate   bool   `gorm:"default:false" json:"is_private"`
	CoverURL    string `json:"cover_url,omitempty"`

	UserID string `gorm:"type:varchar(36);index;not null" json:"user_id"`
	Songs  []Song `gorm:"many2many:playlist_songs;" json:"songs,omitempty"`
}

func (p *Playlist) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// PlaylistSong is the join table that stores track order.
type PlaylistSong struct {
	PlaylistID string `gorm:"primaryKey;type:varchar(36)" json:"playlist_id"`
	SongID     string `gorm:"primaryKey;type:varchar(36)" json:"song_id"`
	SortOrder  int    `json:"sort_order"`
}

// Share permissions
const (
	SharePermissionRead = "read"
	SharePermissionEdit = "edit"
)

// SharedPlaylist grants another user access to a playlist.
type SharedPlaylist struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	PlaylistID   string `gorm:"type:varchar(36);index:idx_share_unique,unique,priority:1;not null" json:"playlist_id"`
	SharedWithID string `gorm:"type:varchar(36);index:idx_share_unique,unique,priority:2;not null" json:"shared_with_id"`
	Permission   string `gorm:"type:varchar(10);default:'read'" json:"permission"`
}

func (s *SharedPlaylist) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// Favorite is a (user, song) like. The pair is unique.
type Favorite struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	UserID string `gorm:"type:varchar(36);index:idx_fav_unique,unique,priority:1;not null" json:"user_id"`
	SongID string `gorm:"type:varchar(36);index:idx_fav_unique,unique,priority:2;not null" json:"song_id"`
	Song   *Song  `json:"song,omitempty"`
}

func (f *Favorite) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}
