package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ToiLaHao2/MyFreeMusic-BE/internal/api/middleware"
	"github.com/ToiLaHao2/MyFreeMusic-BE/internal/config"
	database "github.com/ToiLaHao2/MyFreeMusic-BE/internal/db"
	"github.com/ToiLaHao2/MyFreeMusic-BE/internal/models"
)

func setupAuthRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.RefreshToken{}, &models.ActivityLog{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	cfg := &config.Config{}
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.AccessTTLMinutes = 15
	cfg.Auth.RefreshTTLDays = 7
	cfg.Auth.RememberMeTTLDays = 30

	h := NewAuthHandler(db, cfg)

	r := gin.New()
	r.POST("/register", h.Register)
	r.POST("/login", h.Login)
	r.POST("/refresh", h.Refresh)
	r.POST("/logout", h.Logout)

	protected := r.Group("/", middleware.RequireAuth([]byte(cfg.Auth.JWTSecret)))
	protected.GET("/me", h.Me)

	return r, db
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func registerAndLogin(t *testing.T, r *gin.Engine) map[string]any {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/register", gin.H{
		"email":    "alice@example.com",
		"password": "password123",
	}, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("register: status %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodPost, "/login", gin.H{
		"email":    "alice@example.com",
		"password": "password123",
	}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("login: status %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

func TestRegisterAndLogin(t *testing.T) {
	r, _ := setupAuthRouter(t)

	resp := registerAndLogin(t, r)
	if resp["access_token"] == "" || resp["refresh_token"] == "" {
		t.Fatalf("login response missing tokens: %v", resp)
	}

	// Wrong password never leaks which part was wrong
	w := doJSON(t, r, http.MethodPost, "/login", gin.H{
		"email":    "alice@example.com",
		"password": "wrongwrong",
	}, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad password: status %d", w.Code)
	}

	// Duplicate email is rejected
	w = doJSON(t, r, http.MethodPost, "/register", gin.H{
		"email":    "alice@example.com",
		"password": "password123",
	}, "")
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate email: status %d", w.Code)
	}
}

func TestAccessTokenGrantsMe(t *testing.T) {
	r, _ := setupAuthRouter(t)
	resp := registerAndLogin(t, r)

	access, _ := resp["access_token"].(string)
	w := doJSON(t, r, http.MethodGet, "/me", nil, access)
	if w.Code != http.StatusOK {
		t.Fatalf("/me with valid token: status %d: %s", w.Code, w.Body.String())
	}

	var me models.User
	json.Unmarshal(w.Body.Bytes(), &me)
	if me.Email != "alice@example.com" {
		t.Errorf("me = %q", me.Email)
	}

	if w := doJSON(t, r, http.MethodGet, "/me", nil, ""); w.Code != http.StatusUnauthorized {
		t.Errorf("/me without token: status %d", w.Code)
	}
	if w := doJSON(t, r, http.MethodGet, "/me", nil, "not-a-jwt"); w.Code != http.StatusUnauthorized {
		t.Errorf("/me with garbage token: status %d", w.Code)
	}
}

func TestSeededAdminCanLogin(t *testing.T) {
	r, db := setupAuthRouter(t)

	t.Setenv("MUSIC_ADMIN_EMAIL", "root@example.com")
	t.Setenv("MUSIC_ADMIN_PASSWORD", "sup3rsecret")
	database.SeedAdminUser(db)

	w := doJSON(t, r, http.MethodPost, "/login", gin.H{
		"email":    "root@example.com",
		"password": "sup3rsecret",
	}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("seeded admin login: status %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["access_token"] == "" {
		t.Error("seeded admin login returned no access token")
	}
}

func TestLoginRevokesPreviousDeviceSession(t *testing.T) {
	r, db := setupAuthRouter(t)
	first := registerAndLogin(t, r)
	firstRefresh, _ := first["refresh_token"].(string)

	// Second login on the same device type kicks the first session
	w := doJSON(t, r, http.MethodPost, "/login", gin.H{
		"email":    "alice@example.com",
		"password": "password123",
	}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("second login: status %d", w.Code)
	}

	var stored models.RefreshToken
	if err := db.First(&stored, "token = ?", firstRefresh).Error; err != nil {
		t.Fatalf("first refresh token row missing: %v", err)
	}
	if !stored.Revoked {
		t.Error("previous web session still live after new login")
	}

	// The kicked session cannot refresh
	w = doJSON(t, r, http.MethodPost, "/refresh", gin.H{"refresh_token": firstRefresh}, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("revoked refresh: status %d", w.Code)
	}
}

func TestRefreshRotation(t *testing.T) {
	r, _ := setupAuthRouter(t)
	resp := registerAndLogin(t, r)
	refresh, _ := resp["refresh_token"].(string)

	w := doJSON(t, r, http.MethodPost, "/refresh", gin.H{"refresh_token": refresh}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("refresh: status %d: %s", w.Code, w.Body.String())
	}

	var rotated map[string]any
	json.Unmarshal(w.Body.Bytes(), &rotated)
	newRefresh, _ := rotated["refresh_token"].(string)
	if newRefresh == "" || newRefresh == refresh {
		t.Fatal("refresh token was not rotated")
	}

	// Old token is single-use
	w = doJSON(t, r, http.MethodPost, "/refresh", gin.H{"refresh_token": refresh}, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("replayed refresh token: status %d", w.Code)
	}

	// New one works
	w = doJSON(t, r, http.MethodPost, "/refresh", gin.H{"refresh_token": newRefresh}, "")
	if w.Code != http.StatusOK {
		t.Errorf("rotated token refused: status %d", w.Code)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	r, _ := setupAuthRouter(t)
	resp := registerAndLogin(t, r)
	refresh, _ := resp["refresh_token"].(string)

	if w := doJSON(t, r, http.MethodPost, "/logout", gin.H{"refresh_token": refresh}, ""); w.Code != http.StatusOK {
		t.Fatalf("logout: status %d", w.Code)
	}

	if w := doJSON(t, r, http.MethodPost, "/refresh", gin.H{"refresh_token": refresh}, ""); w.Code != http.StatusUnauthorized {
		t.Errorf("refresh after logout: status %d", w.Code)
	}
}
