package handlers

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/ToiLaHao2/MyFreeMusic-BE/internal/models"
)

// Activity actions recorded for the admin dashboard.
const (
	ActionSongUploaded = "song_uploaded"
	ActionSongFromLink = "song_from_youtube"
	ActionSongDeleted  = "song_deleted"
	ActionUserLogin    = "user_login"
)

// logActivity records an action without ever failing the request.
func logActivity(db *gorm.DB, userID, action, entityType, entityID, detail string) {
	entry := models.ActivityLog{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Detail:     detail,
	}
	if userID != "" {
		entry.UserID = &userID
	}
	if err := db.Create(&entry).Error; err != nil {
		slog.Warn("activity log write failed", "action", action, "error", err)
	}
}
