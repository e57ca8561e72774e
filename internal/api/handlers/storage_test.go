package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ToiLaHao2/MyFreeMusic-BE/internal/api/middleware"
	"github.com/ToiLaHao2/MyFreeMusic-BE/internal/config"
	"github.com/ToiLaHao2/MyFreeMusic-BE/internal/models"
	"github.com/ToiLaHao2/MyFreeMusic-BE/internal/storage"
)

func setupStorageRouter(t *testing.T) (*gin.Engine, *gorm.DB, *storage.Client) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.Song{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	st := storage.NewClient(storage.NewLocalProvider(t.TempDir()), "media", "ingest")

	cfg := &config.Config{}
	cfg.Storage.LimitBytes = 1 << 20

	h := NewStorageHandler(db, st, cfg)

	r := gin.New()
	auth := r.Group("/", middleware.RequireAuth([]byte(testSecret)))
	auth.GET("/storage/stats", middleware.RequireRole("admin"), h.GetStorageStats)
	return r, db, st
}

func TestStorageStatsScan(t *testing.T) {
	r, db, st := setupStorageRouter(t)

	song := models.Song{ID: "known-song", Title: "Known", Slug: "known", Source: models.SourceDevice}
	if err := db.Create(&song).Error; err != nil {
		t.Fatalf("seed song: %v", err)
	}

	fixtures := map[string]string{
		"songs/known-song/index.m3u8":     "#EXTM3U",
		"songs/known-song/segment_000.ts": "0123456789",
		"songs/ghost/index.m3u8":          "#EXTM3U",
		"covers/known-song.jpg":           "jpegjpeg",
	}
	var wantTotal int64
	for key, body := range fixtures {
		if err := st.UploadMediaFile(key, strings.NewReader(body), ""); err != nil {
			t.Fatalf("upload %s: %v", key, err)
		}
		wantTotal += int64(len(body))
	}

	adminTok := tokenFor(t, "admin-1", "admin")
	w := doJSON(t, r, http.MethodGet, "/storage/stats", nil, adminTok)
	if w.Code != http.StatusOK {
		t.Fatalf("storage stats: status %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Storage struct {
			TotalSizeBytes      int64    `json:"total_size_bytes"`
			FileCount           int      `json:"file_count"`
			SongsInCatalog      int      `json:"songs_in_catalog"`
			RenditionsInStorage int      `json:"renditions_in_storage"`
			OrphanedSongIDs     []string `json:"orphaned_song_ids"`
			Capacity            struct {
				LimitBytes  int64   `json:"limit_bytes"`
				UsedPercent float64 `json:"used_percent"`
			} `json:"capacity"`
		} `json:"storage"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if resp.Storage.TotalSizeBytes != wantTotal {
		t.Errorf("total_size_bytes = %d, want %d", resp.Storage.TotalSizeBytes, wantTotal)
	}
	if resp.Storage.FileCount != len(fixtures) {
		t.Errorf("file_count = %d, want %d", resp.Storage.FileCount, len(fixtures))
	}
	if resp.Storage.SongsInCatalog != 1 {
		t.Errorf("songs_in_catalog = %d, want 1", resp.Storage.SongsInCatalog)
	}
	// known-song and ghost each have a rendition; the cover is not one
	if resp.Storage.RenditionsInStorage != 2 {
		t.Errorf("renditions_in_storage = %d, want 2", resp.Storage.RenditionsInStorage)
	}
	if len(resp.Storage.OrphanedSongIDs) != 1 || resp.Storage.OrphanedSongIDs[0] != "ghost" {
		t.Errorf("orphaned_song_ids = %v, want [ghost]", resp.Storage.OrphanedSongIDs)
	}
	if resp.Storage.Capacity.LimitBytes != 1<<20 {
		t.Errorf("limit_bytes = %d", resp.Storage.Capacity.LimitBytes)
	}
	if resp.Storage.Capacity.UsedPercent <= 0 {
		t.Errorf("used_percent = %v, want > 0", resp.Storage.Capacity.UsedPercent)
	}
}

func TestStorageStatsRequiresAdmin(t *testing.T) {
	r, _, _ := setupStorageRouter(t)

	userTok := tokenFor(t, "user-1", "user")
	if w := doJSON(t, r, http.MethodGet, "/storage/stats", nil, userTok); w.Code != http.StatusForbidden {
		t.Errorf("non-admin scan: status %d", w.Code)
	}
	if w := doJSON(t, r, http.MethodGet, "/storage/stats", nil, ""); w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous scan: status %d", w.Code)
	}
}

func TestSongIDFromKey(t *testing.T) {
	cases := []struct {
		key    string
		wantID string
		wantOK bool
	}{
		{"songs/abc/index.m3u8", "abc", true},
		{"songs/abc/sub/segment_000.ts", "abc", true},
		{"covers/abc.jpg", "", false},
		{"songs/orphanless", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		id, ok := songIDFromKey(tc.key)
		if id != tc.wantID || ok != tc.wantOK {
			t.Errorf("songIDFromKey(%q) = %q,%v, want %q,%v", tc.key, id, ok, tc.wantID, tc.wantOK)
		}
	}
}
