package library

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/ToiLaHao2/MyFreeMusic-BE/internal/fingerprint"
	"github.com/ToiLaHao2/MyFreeMusic-BE/internal/models"
)

// SongRepository owns catalog queries shared by the API handlers and the
// ingest pipeline. It is also the lookup surface the duplicate detector runs
// against.
type SongRepository struct {
	db *gorm.DB
}

var _ fingerprint.Index = (*SongRepository)(nil)

func NewSongRepository(db *gorm.DB) *SongRepository {
	return &SongRepository{db: db}
}

// FindByYoutubeID returns the song already ingested from this video, nil when
// the video has never been ingested.
func (r *SongRepository) FindByYoutubeID(ctx context.Context, youtubeID string) (*fingerprint.Candidate, error) {
	var song models.Song
	err := r.db.WithContext(ctx).
		Where("youtube_id = ?", youtubeID).
		First(&song).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return candidateFrom(song), nil
}

// FindBySimilarDuration returns every fingerprinted song whose duration lies
// within tolerance seconds, as a minimal projection. Unfingerprinted rows can
// never match and are filtered out in SQL.
func (r *SongRepository) FindBySimilarDuration(ctx context.Context, duration, tolerance int) ([]fingerprint.Candidate, error) {
	var rows []struct {
		ID              string
		Title           string
		Fingerprint     string
		DurationSeconds int
	}
	err := r.db.WithContext(ctx).
		Model(&models.Song{}).
		Select("id, title, fingerprint, duration_seconds").
		Where("fingerprint IS NOT NULL").
		Where("duration_seconds BETWEEN ? AND ?", duration-tolerance, duration+tolerance).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]fingerprint.Candidate, 0, len(rows))
	for _, row := range rows {
		out = append(out, fingerprint.Candidate{
			ID:              row.ID,
			Title:           row.Title,
			Fingerprint:     row.Fingerprint,
			DurationSeconds: row.DurationSeconds,
		})
	}
	return out, nil
}

func candidateFrom(s models.Song) *fingerprint.Candidate {
	c := &fingerprint.Candidate{ID: s.ID, Title: s.Title}
	if s.Fingerprint != nil {
		c.Fingerprint = *s.Fingerprint
	}
	if s.DurationSeconds != nil {
		c.DurationSeconds = *s.DurationSeconds
	}
	return c
}

func (r *SongRepository) Create(ctx context.Context, song *models.Song) error {
	if song.Slug == "" {
		song.Slug = r.uniqueSlug(ctx, song.Title)
	}
	return r.db.WithContext(ctx).Create(song).Error
}

func (r *SongRepository) GetByID(ctx context.Context, id string) (*models.Song, error) {
	var song models.Song
	err := r.db.WithContext(ctx).
		Preload("Genre").
		Preload("Artist").
		First(&song, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &song, nil
}

func (r *SongRepository) GetBySlug(ctx context.Context, slug string) (*models.Song, error) {
	var song models.Song
	err := r.db.WithContext(ctx).
		Preload("Genre").
		Preload("Artist").
		First(&song, "slug = ?", slug).Error
	if err != nil {
		return nil, err
	}
	return &song, nil
}

// ListFilter narrows List. Zero fields are ignored.
type ListFilter struct {
	Search   string
	GenreID  string
	ArtistID string
	Source   string
	SortBy   string
	Limit    int
	Offset   int
}

// List returns a page of songs plus the unpaginated total for scroll math.
func (r *SongRepository) List(ctx context.Context, f ListFilter) ([]models.Song, int64, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Limit > 200 {
		f.Limit = 200 // Hard cap to protect the server
	}

	query := r.db.WithContext(ctx).Model(&models.Song{})

	if f.Search != "" {
		term := "%" + strings.ToLower(f.Search) + "%"
		query = query.Where("LOWER(title) LIKE ?", term)
	}
	if f.GenreID != "" {
		query = query.Where("genre_id = ?", f.GenreID)
	}
	if f.ArtistID != "" {
		query = query.Where("artist_id = ?", f.ArtistID)
	}
	if f.Source != "" {
		query = query.Where("source = ?", f.Source)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	switch f.SortBy {
	case "alphabetical":
		query = query.Order("title ASC")
	case "views":
		query = query.Order("views DESC")
	default: // "newest"
		query = query.Order("created_at DESC")
	}

	var songs []models.Song
	err := query.
		Preload("Genre").
		Preload("Artist").
		Limit(f.Limit).
		Offset(f.Offset).
		Find(&songs).Error
	return songs, total, err
}

// Update applies a partial update. Read-only and pipeline-owned fields must
// be stripped by the caller before this point.
func (r *SongRepository) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&models.Song{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete soft-deletes; the row keeps its fingerprint but stops matching
// queries through the default scope.
func (r *SongRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.Song{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// IncrementViews bumps the play counter atomically in SQL.
func (r *SongRepository) IncrementViews(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&models.Song{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1")).Error
}

var slugStripRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases the title and collapses everything non-alphanumeric to
// single dashes.
func Slugify(title string) string {
	s := slugStripRe.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(s, "-")
}

// uniqueSlug suffixes a counter until the slug is free. Collisions are rare
// enough that a linear probe is fine.
func (r *SongRepository) uniqueSlug(ctx context.Context, title string) string {
	base := Slugify(title)
	if base == "" {
		base = "untitled"
	}

	slug := base
	for i := 2; ; i++ {
		var count int64
		r.db.WithContext(ctx).
			Model(&models.Song{}).
			Where("slug = ?", slug).
			Count(&count)
		if count == 0 {
			return slug
		}
		slug = base + "-" + strconv.Itoa(i)
	}
}
