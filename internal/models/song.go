package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Song sources
const (
	SourceDevice  = "DEVICE"
	SourceYoutube = "YOUTUBE"
)

// Song represents one track in the library. FileURL points at the HLS
// playlist produced during ingestion; the original upload is not kept.
type Song struct {
	ID        string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Title    string `gorm:"not null;index" json:"title"`
	Slug     string `gorm:"uniqueIndex" json:"slug"`
	Source   string `gorm:"type:varchar(10);not null" json:"source"` // DEVICE | YOUTUBE
	FileURL  string `json:"file_url"`
	CoverURL string `json:"cover_url"`
	Views    int64  `gorm:"default:0" json:"views"`

	// Duplicate detection fields. A song with a NULL fingerprint is never
	// considered as a fingerprint-match candidate.
	YoutubeID       *string `gorm:"type:varchar(20);index" json:"youtube_id,omitempty"`
	Fingerprint     *string `gorm:"type:text" json:"-"`
	DurationSeconds *int    `gorm:"index" json:"duration_seconds,omitempty"`

	// Tech details (extracted via ffprobe)
	Bitrate int    `json:"bitrate,omitempty"`
	Format  string `gorm:"type:varchar(10)" json:"format,omitempty"`

	GenreID    *string `gorm:"type:varchar(36);index" json:"genre_id,omitempty"`
	Genre      *Genre  `json:"genre,omitempty"`
	ArtistID   *string `gorm:"type:varchar(36);index" json:"artist_id,omitempty"`
	Artist     *Artist `json:"artist,omitempty"`
	UploadedBy *string `gorm:"type:varchar(36)" json:"uploaded_by,omitempty"`
}

func (s *Song) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// Artist is a display grouping, not an account.
type Artist struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name      string `gorm:"not null;index" json:"name"`
	Bio       string `json:"bio,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

func (a *Artist) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

type Genre struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name string `gorm:"uniqueIndex;not null" json:"name"`
}

func (g *Genre) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	return nil
}
