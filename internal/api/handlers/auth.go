package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/ToiLaHao2/MyFreeMusic-BE/internal/api/middleware"
	"github.com/ToiLaHao2/MyFreeMusic-BE/internal/config"
	"github.com/ToiLaHao2/MyFreeMusic-BE/internal/models"
)

// AuthHandler owns registration, login and the refresh-token session model:
// one live session per (user, device type).
type AuthHandler struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewAuthHandler(db *gorm.DB, cfg *config.Config) *AuthHandler {
	return &AuthHandler{db: db, cfg: cfg}
}

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Registration failed"})
		return
	}

	user := models.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		FullName:     req.FullName,
		Role:         "user",
		IsActive:     true,
	}
	if err := h.db.Create(&user).Error; err != nil {
		// Unique index on email makes a second signup fail here
		c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
		return
	}

	c.JSON(http.StatusCreated, user)
}

type loginRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required"`
	DeviceType string `json:"device_type"`
	RememberMe bool   `json:"remember_me"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}
	if req.DeviceType == "" {
		req.DeviceType = "web"
	}

	var user models.User
	if err := h.db.First(&user, "email = ?", req.Email).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if !user.IsActive {
		c.JSON(http.StatusForbidden, gin.H{"error": "Account is disabled"})
		return
	}

	// One session per device type: a new login kicks the previous one
	h.db.Model(&models.RefreshToken{}).
		Where("user_id = ? AND device_type = ? AND revoked = ?", user.ID, req.DeviceType, false).
		Update("revoked", true)

	ttlDays := h.cfg.Auth.RefreshTTLDays
	if req.RememberMe {
		ttlDays = h.cfg.Auth.RememberMeTTLDays
	}

	refresh := models.RefreshToken{
		UserID:     user.ID,
		Token:      newOpaqueToken(),
		DeviceType: req.DeviceType,
		ExpiresAt:  time.Now().Add(time.Duration(ttlDays) * 24 * time.Hour),
	}
	if err := h.db.Create(&refresh).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		return
	}

	access, err := h.signAccessToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		return
	}

	logActivity(h.db, user.ID, ActionUserLogin, "user", user.ID, req.DeviceType)

	c.JSON(http.StatusOK, gin.H{
		"access_token":  access,
		"refresh_token": refresh.Token,
		"user":          user,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Refresh exchanges a live refresh token for a new access token and rotates
// the refresh token itself.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	var stored models.RefreshToken
	err := h.db.First(&stored, "token = ?", req.RefreshToken).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if stored.Revoked || time.Now().After(stored.ExpiresAt) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Session expired"})
		return
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", stored.UserID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Account not found"})
		return
	}

	// Rotate: retire the presented token, issue a fresh one with the same
	// expiry so remember-me sessions don't extend forever
	rotated := models.RefreshToken{
		UserID:     stored.UserID,
		Token:      newOpaqueToken(),
		DeviceType: stored.DeviceType,
		ExpiresAt:  stored.ExpiresAt,
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&stored).Update("revoked", true).Error; err != nil {
			return err
		}
		return tx.Create(&rotated).Error
	})
	if err != nil {
		slog.Error("refresh rotation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Refresh failed"})
		return
	}

	access, err := h.signAccessToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Refresh failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token":  access,
		"refresh_token": rotated.Token,
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	h.db.Model(&models.RefreshToken{}).
		Where("token = ?", req.RefreshToken).
		Update("revoked", true)

	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *AuthHandler) Me(c *gin.Context) {
	var user models.User
	if err := h.db.First(&user, "id = ?", middleware.UserID(c)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) signAccessToken(user models.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":  user.ID,
		"role": user.Role,
		"exp":  time.Now().Add(time.Duration(h.cfg.Auth.AccessTTLMinutes) * time.Minute).Unix(),
		"iat":  time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.cfg.Auth.JWTSecret))
}

func newOpaqueToken() string {
	b := make([]byte, 32)
	rand.Read(b)
	return hex.EncodeToString(b)
}
