package handlers

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ToiLaHao2/MyFreeMusic-BE/internal/config"
	"github.com/ToiLaHao2/MyFreeMusic-BE/internal/models"
	"github.com/ToiLaHao2/MyFreeMusic-BE/internal/storage"
)

// StorageHandler reports media storage usage for the admin dashboard.
type StorageHandler struct {
	db      *gorm.DB
	storage *storage.Client
	cfg     *config.Config
}

func NewStorageHandler(db *gorm.DB, st *storage.Client, cfg *config.Config) *StorageHandler {
	return &StorageHandler{db: db, storage: st, cfg: cfg}
}

// GetStorageStats walks the media bucket and reports total and per-rendition
// usage against the configured capacity. Renditions without a live catalog
// row are listed as orphans so an admin can reclaim the space.
func (h *StorageHandler) GetStorageStats(c *gin.Context) {
	objects, err := h.storage.ScanMedia()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Storage scan failed"})
		return
	}

	var totalSize int64
	perSong := make(map[string]int64)
	for _, obj := range objects {
		totalSize += obj.Size
		if id, ok := songIDFromKey(obj.Key); ok {
			perSong[id] += obj.Size
		}
	}

	var songIDs []string
	if err := h.db.Model(&models.Song{}).Pluck("id", &songIDs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	known := make(map[string]bool, len(songIDs))
	for _, id := range songIDs {
		known[id] = true
	}

	orphans := []string{}
	for id := range perSong {
		if !known[id] {
			orphans = append(orphans, id)
		}
	}
	sort.Strings(orphans)

	var avgSize int64
	if len(objects) > 0 {
		avgSize = totalSize / int64(len(objects))
	}

	limit := h.cfg.Storage.LimitBytes
	var usedPercent float64
	if limit > 0 {
		usedPercent = float64(totalSize) / float64(limit) * 100
	}

	c.JSON(http.StatusOK, gin.H{
		"storage": gin.H{
			"total_size_bytes":       totalSize,
			"total_size_formatted":   formatBytes(totalSize),
			"file_count":             len(objects),
			"average_size_bytes":     avgSize,
			"average_size_formatted": formatBytes(avgSize),
			"songs_in_catalog":       len(songIDs),
			"renditions_in_storage":  len(perSong),
			"orphaned_song_ids":      orphans,
			"capacity": gin.H{
				"limit_bytes":     limit,
				"limit_formatted": formatBytes(limit),
				"used_percent":    usedPercent,
				"free_bytes":      limit - totalSize,
				"free_formatted":  formatBytes(limit - totalSize),
			},
		},
		"scanned_at": time.Now().UTC(),
	})
}

// songIDFromKey extracts the song ID from a "songs/<id>/..." media key.
// Covers and other flat objects do not belong to a rendition.
func songIDFromKey(key string) (string, bool) {
	parts := strings.SplitN(key, "/", 3)
	if len(parts) < 3 || parts[0] != "songs" {
		return "", false
	}
	return parts[1], true
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(n)/float64(div), "KMGT"[exp])
}
