package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ToiLaHao2/MyFreeMusic-BE/internal/models"
)

// CatalogHandler manages the genre and artist reference tables.
type CatalogHandler struct {
	db *gorm.DB
}

func NewCatalogHandler(db *gorm.DB) *CatalogHandler {
	return &CatalogHandler{db: db}
}

func (h *CatalogHandler) GetGenres(c *gin.Context) {
	var genres []models.Genre
	if err := h.db.Order("name asc").Find(&genres).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch genres"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": genres})
}

func (h *CatalogHandler) CreateGenre(c *gin.Context) {
	var input struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	genre := models.Genre{Name: input.Name}
	if err := h.db.Create(&genre).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Genre already exists"})
		return
	}
	c.JSON(http.StatusCreated, genre)
}

func (h *CatalogHandler) GetArtists(c *gin.Context) {
	var artists []models.Artist
	if err := h.db.Order("name asc").Find(&artists).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch artists"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": artists})
}

func (h *CatalogHandler) CreateArtist(c *gin.Context) {
	var input struct {
		Name      string `json:"name" binding:"required"`
		Bio       string `json:"bio"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	artist := models.Artist{Name: input.Name, Bio: input.Bio, AvatarURL: input.AvatarURL}
	if err := h.db.Create(&artist).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create artist"})
		return
	}
	c.JSON(http.StatusCreated, artist)
}
