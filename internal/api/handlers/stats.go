package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ToiLaHao2/MyFreeMusic-BE/internal/models"
)

// StatsHandler serves the admin dashboard aggregates.
type StatsHandler struct {
	db *gorm.DB
}

func NewStatsHandler(db *gorm.DB) *StatsHandler {
	return &StatsHandler{db: db}
}

// GetStats returns library totals, a source breakdown and the most played
// songs.
func (h *StatsHandler) GetStats(c *gin.Context) {
	var totalSongs, totalUsers, totalPlaylists, totalFavorites int64

	h.db.Model(&models.Song{}).Count(&totalSongs)
	h.db.Model(&models.User{}).Count(&totalUsers)
	h.db.Model(&models.Playlist{}).Count(&totalPlaylists)
	h.db.Model(&models.Favorite{}).Count(&totalFavorites)

	var bySource []struct {
		Source string `json:"source"`
		Count  int64  `json:"count"`
	}
	h.db.Model(&models.Song{}).
		Select("source, COUNT(*) as count").
		Group("source").
		Scan(&bySource)

	var fingerprinted int64
	h.db.Model(&models.Song{}).Where("fingerprint IS NOT NULL").Count(&fingerprinted)

	var topSongs []models.Song
	h.db.Order("views DESC").Limit(10).Find(&topSongs)

	var recentActivity []models.ActivityLog
	h.db.Order("created_at DESC").Limit(20).Find(&recentActivity)

	c.JSON(http.StatusOK, gin.H{
		"stats": gin.H{
			"total_songs":     totalSongs,
			"total_users":     totalUsers,
			"total_playlists": totalPlaylists,
			"total_favorites": totalFavorites,
			"songs_by_source": bySource,
			"fingerprint_coverage": gin.H{
				"fingerprinted": fingerprinted,
				"total":         totalSongs,
			},
		},
		"top_songs":       topSongs,
		"recent_activity": recentActivity,
	})
}
