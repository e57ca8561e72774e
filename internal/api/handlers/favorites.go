package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ToiLaHao2/MyFreeMusic-BE/internal/api/middleware"
	"github.com/ToiLaHao2/MyFreeMusic-BE/internal/models"
)

// FavoriteHandler handles the user's liked songs.
type FavoriteHandler struct {
	db *gorm.DB
}

func NewFavoriteHandler(db *gorm.DB) *FavoriteHandler {
	return &FavoriteHandler{db: db}
}

func (h *FavoriteHandler) AddFavorite(c *gin.Context) {
	songID := c.Param("id")

	var song models.Song
	if err := h.db.Select("id").First(&song, "id = ?", songID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Song not found"})
		return
	}

	fav := models.Favorite{
		UserID: middleware.UserID(c),
		SongID: songID,
	}
	// Liking twice is a no-op thanks to the unique (user, song) pair
	if err := h.db.Where("user_id = ? AND song_id = ?", fav.UserID, fav.SongID).
		FirstOrCreate(&fav).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add favorite"})
		return
	}

	c.JSON(http.StatusCreated, fav)
}

func (h *FavoriteHandler) RemoveFavorite(c *gin.Context) {
	result := h.db.Where("user_id = ? AND song_id = ?", middleware.UserID(c), c.Param("id")).
		Delete(&models.Favorite{})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove favorite"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not in favorites"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Removed from favorites"})
}

func (h *FavoriteHandler) GetFavorites(c *gin.Context) {
	var favorites []models.Favorite
	err := h.db.
		Preload("Song").
		Preload("Song.Artist").
		Where("user_id = ?", middleware.UserID(c)).
		Order("created_at DESC").
		Find(&favorites).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch favorites"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": favorites})
}
