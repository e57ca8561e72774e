package handlers

import (
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ToiLaHao2/MyFreeMusic-BE/internal/api/middleware"
	"github.com/ToiLaHao2/MyFreeMusic-BE/internal/audio"
	"github.com/ToiLaHao2/MyFreeMusic-BE/internal/config"
	"github.com/ToiLaHao2/MyFreeMusic-BE/internal/ingest"
	"github.com/ToiLaHao2/MyFreeMusic-BE/internal/library"
	"github.com/ToiLaHao2/MyFreeMusic-BE/internal/metadata"
	"github.com/ToiLaHao2/MyFreeMusic-BE/internal/storage"
)

// Ingestor is the slice of the ingest service the handler drives.
type Ingestor interface {
	AddFromDevice(ctx context.Context, in ingest.DeviceInput) (*ingest.Outcome, error)
	AddFromYoutube(ctx context.Context, in ingest.YoutubeInput) (*ingest.Outcome, error)
}

// SongHandler serves the catalog and feeds uploads into the ingest pipeline.
type SongHandler struct {
	db      *gorm.DB
	repo    *library.SongRepository
	ingest  Ingestor
	storage *storage.Client
	cfg     *config.Config
}

func NewSongHandler(db *gorm.DB, repo *library.SongRepository, svc Ingestor, st *storage.Client, cfg *config.Config) *SongHandler {
	return &SongHandler{db: db, repo: repo, ingest: svc, storage: st, cfg: cfg}
}

// GetSongs returns a paginated, filterable list plus the total for
// infinite-scroll math.
func (h *SongHandler) GetSongs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	songs, total, err := h.repo.List(c.Request.Context(), library.ListFilter{
		Search:   c.Query("search"),
		GenreID:  c.Query("genre_id"),
		ArtistID: c.Query("artist_id"),
		Source:   c.Query("source"),
		SortBy:   c.DefaultQuery("sort", "newest"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		slog.Error("Failed to fetch songs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": songs,
		"meta": gin.H{
			"total":  total,
			"limit":  limit,
			"offset": offset,
		},
	})
}

func (h *SongHandler) GetSong(c *gin.Context) {
	song, err := h.repo.GetByID(c.Request.Context(), c.Param("id"))
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Song not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	c.JSON(http.StatusOK, song)
}

// PreAnalyzeFile reads the uploaded file in memory and extracts its tags so
// the client can pre-fill the upload form. Nothing is persisted.
func (h *SongHandler) PreAnalyzeFile(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to open file"})
		return
	}
	defer file.Close()

	tags := metadata.Read(file)
	if tags.Title == "" {
		tags.Title = strings.TrimSuffix(fileHeader.Filename, filepath.Ext(fileHeader.Filename))
	}

	c.JSON(http.StatusOK, gin.H{
		"filename": fileHeader.Filename,
		"tags":     tags,
	})
}

// UploadSong runs a device upload through the full pipeline. A duplicate is
// reported as 409 with the verdict so the client can show what it matched.
func (h *SongHandler) UploadSong(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	if !audio.IsSupportedFormat(fileHeader.Filename) {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "Unsupported audio format"})
		return
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	localPath, err := spoolUpload(fileHeader, h.cfg.Server.TempDir, ext)
	if err != nil {
		slog.Error("upload spool failed", "file", fileHeader.Filename, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store upload"})
		return
	}
	defer os.Remove(localPath)

	outcome, err := h.ingest.AddFromDevice(c.Request.Context(), ingest.DeviceInput{
		LocalPath: localPath,
		Tags: metadata.Tags{
			Title:  c.PostForm("title"),
			Artist: c.PostForm("artist"),
			Album:  c.PostForm("album"),
			Genre:  c.PostForm("genre"),
			Year:   c.PostForm("year"),
		},
		GenreID:   c.PostForm("genre_id"),
		ArtistID:  c.PostForm("artist_id"),
		UserID:    middleware.UserID(c),
		SkipCheck: c.PostForm("skip_duplicate_check") == "true",
	})
	if err != nil {
		slog.Error("upload ingest failed", "file", fileHeader.Filename, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ingest failed"})
		return
	}

	if outcome.Duplicate != nil {
		c.JSON(http.StatusConflict, gin.H{
			"error":     "Song already exists in the library",
			"duplicate": outcome.Duplicate,
		})
		return
	}

	logActivity(h.db, middleware.UserID(c), ActionSongUploaded, "song", outcome.Song.ID, outcome.Song.Title)
	c.JSON(http.StatusCreated, outcome.Song)
}

// spoolUpload copies the multipart file to a closed temp file so fpcalc and
// ffmpeg can open it by path. A short write must fail here, not surface
// later as a truncated rendition.
func spoolUpload(fh *multipart.FileHeader, dir, ext string) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	tmp, err := os.CreateTemp(dir, "upload-*"+ext)
	if err != nil {
		return "", err
	}

	_, err = io.Copy(tmp, src)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

type youtubeRequest struct {
	URL       string `json:"url" binding:"required"`
	GenreID   string `json:"genre_id"`
	SkipCheck bool   `json:"skip_duplicate_check"`
}

// AddFromYoutube ingests a song by video link.
func (h *SongHandler) AddFromYoutube(c *gin.Context) {
	var req youtubeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	outcome, err := h.ingest.AddFromYoutube(c.Request.Context(), ingest.YoutubeInput{
		URL:       req.URL,
		GenreID:   req.GenreID,
		UserID:    middleware.UserID(c),
		SkipCheck: req.SkipCheck,
	})
	if err != nil {
		slog.Error("youtube ingest failed", "url", req.URL, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Could not ingest video"})
		return
	}

	if outcome.Duplicate != nil {
		c.JSON(http.StatusConflict, gin.H{
			"error":     "Song already exists in the library",
			"duplicate": outcome.Duplicate,
		})
		return
	}

	logActivity(h.db, middleware.UserID(c), ActionSongFromLink, "song", outcome.Song.ID, req.URL)
	c.JSON(http.StatusCreated, outcome.Song)
}

func (h *SongHandler) UpdateSong(c *gin.Context) {
	var updateData map[string]interface{}
	if err := c.ShouldBindJSON(&updateData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	// Protect pipeline-owned fields from being modified via the API
	for _, k := range []string{"id", "slug", "source", "file_url", "views", "youtube_id", "fingerprint", "duration_seconds"} {
		delete(updateData, k)
	}

	err := h.repo.Update(c.Request.Context(), c.Param("id"), updateData)
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Song not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update song"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Song updated successfully"})
}

// DeleteSong soft-deletes the row and removes the stored rendition.
func (h *SongHandler) DeleteSong(c *gin.Context) {
	id := c.Param("id")

	err := h.repo.Delete(c.Request.Context(), id)
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Song not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete song"})
		return
	}

	if err := h.storage.DeleteMediaPrefix("songs/" + id); err != nil {
		// Row is gone; orphaned segments are a cleanup problem, not a 500
		slog.Warn("media cleanup failed", "song_id", id, "error", err)
	}

	logActivity(h.db, middleware.UserID(c), ActionSongDeleted, "song", id, "")
	c.JSON(http.StatusOK, gin.H{"message": "Song deleted"})
}

// RegisterView bumps the play counter.
func (h *SongHandler) RegisterView(c *gin.Context) {
	if err := h.repo.IncrementViews(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "View counted"})
}

// StreamSong serves the HLS playlist and segments for a song through the
// storage abstraction.
func (h *SongHandler) StreamSong(c *gin.Context) {
	id := c.Param("id")
	file := strings.TrimPrefix(c.Param("filepath"), "/")
	if file == "" {
		file = "index.m3u8"
	}
	// Keys are flat under the song prefix; reject traversal attempts
	if strings.Contains(file, "..") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid path"})
		return
	}

	obj, err := h.storage.DownloadMedia("songs/" + id + "/" + file)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Audio file missing from storage"})
		return
	}
	defer obj.Body.Close()

	if seeker, ok := obj.Body.(io.ReadSeeker); ok {
		http.ServeContent(c.Writer, c.Request, file, obj.LastModified, seeker)
		return
	}

	extraHeaders := map[string]string{
		"Cache-Control": "public, max-age=31536000",
	}
	c.DataFromReader(http.StatusOK, obj.ContentLength, obj.ContentType, obj.Body, extraHeaders)
}
