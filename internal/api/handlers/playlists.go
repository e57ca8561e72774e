package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ToiLaHao2/MyFreeMusic-BE/internal/api/middleware"
	"github.com/ToiLaHao2/MyFreeMusic-BE/internal/models"
)

// PlaylistHandler handles playlist CRUD, ordering and sharing.
type PlaylistHandler struct {
	db *gorm.DB
}

func NewPlaylistHandler(db *gorm.DB) *PlaylistHandler {
	return &PlaylistHandler{db: db}
}

// access resolves what the current user may do with a playlist: "owner",
// "edit", "read" or "" for no access.
func (h *PlaylistHandler) access(c *gin.Context, playlist *models.Playlist) string {
	userID := middleware.UserID(c)
	if playlist.UserID == userID {
		return "owner"
	}

	var share models.SharedPlaylist
	err := h.db.First(&share, "playlist_id = ? AND shared_with_id = ?", playlist.ID, userID).Error
	if err == nil {
		return share.Permission
	}
	if !playlist.IsPrivate {
		return models.SharePermissionRead
	}
	return ""
}

func (h *PlaylistHandler) CreatePlaylist(c *gin.Context) {
	var input struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
		IsPrivate   bool   `json:"is_private"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	playlist := models.Playlist{
		Name:        input.Name,
		Description: input.Description,
		IsPrivate:   input.IsPrivate,
		UserID:      middleware.UserID(c),
	}
	if err := h.db.Create(&playlist).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create playlist"})
		return
	}

	c.JSON(http.StatusCreated, playlist)
}

// GetPlaylists returns the user's own playlists plus those shared with them.
func (h *PlaylistHandler) GetPlaylists(c *gin.Context) {
	userID := middleware.UserID(c)

	var playlists []models.Playlist
	result := h.db.
		Where("user_id = ?", userID).
		Or("id IN (?)", h.db.Model(&models.SharedPlaylist{}).
			Select("playlist_id").
			Where("shared_with_id = ?", userID)).
		Order("name asc").
		Find(&playlists)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch playlists"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": playlists})
}

func (h *PlaylistHandler) GetPlaylist(c *gin.Context) {
	var playlist models.Playlist
	err := h.db.
		Preload("Songs", func(db *gorm.DB) *gorm.DB {
			// The m2m preload already joins playlist_songs
			return db.Order("playlist_songs.sort_order asc")
		}).
		First(&playlist, "id = ?", c.Param("id")).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Playlist not found"})
		return
	}

	if h.access(c, &playlist) == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "This playlist is private"})
		return
	}

	c.JSON(http.StatusOK, playlist)
}

func (h *PlaylistHandler) UpdatePlaylist(c *gin.Context) {
	var input struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		IsPrivate   *bool  `json:"is_private"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var playlist models.Playlist
	if err := h.db.First(&playlist, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Playlist not found"})
		return
	}

	switch h.access(c, &playlist) {
	case "owner", models.SharePermissionEdit:
	default:
		c.JSON(http.StatusForbidden, gin.H{"error": "You cannot edit this playlist"})
		return
	}

	if input.Name != "" {
		playlist.Name = input.Name
	}
	// Always update the description so users can clear it
	playlist.Description = input.Description
	if input.IsPrivate != nil {
		playlist.IsPrivate = *input.IsPrivate
	}

	if err := h.db.Save(&playlist).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update playlist"})
		return
	}
	c.JSON(http.StatusOK, playlist)
}

// UpdatePlaylistSongs replaces the playlist's contents in the given order.
func (h *PlaylistHandler) UpdatePlaylistSongs(c *gin.Context) {
	playlistID := c.Param("id")

	var input struct {
		SongIDs []string `json:"song_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid song IDs"})
		return
	}

	var playlist models.Playlist
	if err := h.db.First(&playlist, "id = ?", playlistID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Playlist not found"})
		return
	}

	switch h.access(c, &playlist) {
	case "owner", models.SharePermissionEdit:
	default:
		c.JSON(http.StatusForbidden, gin.H{"error": "You cannot edit this playlist"})
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("playlist_id = ?", playlistID).Delete(&models.PlaylistSong{}).Error; err != nil {
			return err
		}

		for i, songID := range input.SongIDs {
			var song models.Song
			if err := tx.Select("id").First(&song, "id = ?", songID).Error; err != nil {
				return err
			}
			assoc := models.PlaylistSong{
				PlaylistID: playlistID,
				SongID:     songID,
				SortOrder:  i,
			}
			if err := tx.Create(&assoc).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown song in list"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update playlist songs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "count": len(input.SongIDs)})
}

// DeletePlaylist removes a playlist, its song links and its shares.
func (h *PlaylistHandler) DeletePlaylist(c *gin.Context) {
	id := c.Param("id")

	var playlist models.Playlist
	if err := h.db.First(&playlist, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Playlist not found"})
		return
	}
	if h.access(c, &playlist) != "owner" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the owner can delete a playlist"})
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("playlist_id = ?", id).Delete(&models.PlaylistSong{}).Error; err != nil {
			return err
		}
		if err := tx.Where("playlist_id = ?", id).Delete(&models.SharedPlaylist{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Playlist{}, "id = ?", id).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete playlist"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Playlist deleted successfully"})
}

// SharePlaylist grants another user read or edit access.
func (h *PlaylistHandler) SharePlaylist(c *gin.Context) {
	var input struct {
		Email      string `json:"email" binding:"required,email"`
		Permission string `json:"permission"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.Permission == "" {
		input.Permission = models.SharePermissionRead
	}
	if input.Permission != models.SharePermissionRead && input.Permission != models.SharePermissionEdit {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Permission must be read or edit"})
		return
	}

	var playlist models.Playlist
	if err := h.db.First(&playlist, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Playlist not found"})
		return
	}
	if h.access(c, &playlist) != "owner" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the owner can share a playlist"})
		return
	}

	var target models.User
	if err := h.db.First(&target, "email = ?", input.Email).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No account with that email"})
		return
	}
	if target.ID == playlist.UserID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot share a playlist with its owner"})
		return
	}

	share := models.SharedPlaylist{
		PlaylistID:   playlist.ID,
		SharedWithID: target.ID,
		Permission:   input.Permission,
	}
	// Re-sharing updates the permission instead of erroring on the unique pair
	err := h.db.Where("playlist_id = ? AND shared_with_id = ?", playlist.ID, target.ID).
		Assign(models.SharedPlaylist{Permission: input.Permission}).
		FirstOrCreate(&share).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to share playlist"})
		return
	}

	c.JSON(http.StatusOK, share)
}

// UnsharePlaylist revokes a user's access.
func (h *PlaylistHandler) UnsharePlaylist(c *gin.Context) {
	var playlist models.Playlist
	if err := h.db.First(&playlist, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Playlist not found"})
		return
	}
	if h.access(c, &playlist) != "owner" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the owner can manage sharing"})
		return
	}

	h.db.Where("playlist_id = ? AND shared_with_id = ?", playlist.ID, c.Param("userId")).
		Delete(&models.SharedPlaylist{})

	c.JSON(http.StatusOK, gin.H{"message": "Access revoked"})
}
