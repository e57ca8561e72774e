package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ToiLaHao2/MyFreeMusic-BE/internal/api/middleware"
	"github.com/ToiLaHao2/MyFreeMusic-BE/internal/models"
)

// PresetThemes are the selectable built-in palettes.
var PresetThemes = []string{"Dark", "Ocean", "Sunset", "Forest", "Midnight", "HighContrast"}

// ThemeHandler manages per-user appearance settings.
type ThemeHandler struct {
	db *gorm.DB
}

func NewThemeHandler(db *gorm.DB) *ThemeHandler {
	return &ThemeHandler{db: db}
}

// GetTheme returns the user's settings, creating the default row on first
// read so the client never special-cases "no settings yet".
func (h *ThemeHandler) GetTheme(c *gin.Context) {
	userID := middleware.UserID(c)

	settings := models.UserThemeSettings{
		UserID:         userID,
		PresetTheme:    "Dark",
		BackgroundType: models.BackgroundDefault,
		SidebarOpacity: 1.0,
	}
	if err := h.db.Where("user_id = ?", userID).FirstOrCreate(&settings).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load theme"})
		return
	}

	c.JSON(http.StatusOK, settings)
}

type themeRequest struct {
	PresetTheme     string   `json:"preset_theme"`
	AccentColor     *string  `json:"accent_color"`
	BackgroundType  string   `json:"background_type"`
	BackgroundValue *string  `json:"background_value"`
	SidebarOpacity  *float64 `json:"sidebar_opacity"`
}

// UpdateTheme validates and upserts the user's settings.
func (h *ThemeHandler) UpdateTheme(c *gin.Context) {
	var req themeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	if req.PresetTheme != "" && !isPresetTheme(req.PresetTheme) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown preset theme"})
		return
	}
	switch req.BackgroundType {
	case "", models.BackgroundDefault, models.BackgroundColor, models.BackgroundImage:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Background type must be default, color or image"})
		return
	}
	if req.SidebarOpacity != nil && (*req.SidebarOpacity < 0 || *req.SidebarOpacity > 1) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Sidebar opacity must be between 0 and 1"})
		return
	}

	userID := middleware.UserID(c)

	var settings models.UserThemeSettings
	err := h.db.Where("user_id = ?", userID).
		FirstOrCreate(&settings, models.UserThemeSettings{UserID: userID}).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load theme"})
		return
	}

	if req.PresetTheme != "" {
		settings.PresetTheme = req.PresetTheme
	}
	if req.AccentColor != nil {
		settings.AccentColor = req.AccentColor
	}
	if req.BackgroundType != "" {
		settings.BackgroundType = req.BackgroundType
		settings.BackgroundValue = req.BackgroundValue
	}
	if req.SidebarOpacity != nil {
		settings.SidebarOpacity = *req.SidebarOpacity
	}

	if err := h.db.Save(&settings).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save theme"})
		return
	}

	c.JSON(http.StatusOK, settings)
}

// ResetTheme drops the row; the next read recreates defaults.
func (h *ThemeHandler) ResetTheme(c *gin.Context) {
	h.db.Where("user_id = ?", middleware.UserID(c)).Delete(&models.UserThemeSettings{})
	c.JSON(http.StatusOK, gin.H{"message": "Theme reset to defaults"})
}

func isPresetTheme(name string) bool {
	for _, p := range PresetThemes {
		if p == name {
			return true
		}
	}
	return false
}
