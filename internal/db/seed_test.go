package database

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ToiLaHao2/MyFreeMusic-BE/internal/models"
)

func TestSeedAdminUser(t *testing.T) {
	t.Setenv("MUSIC_ADMIN_EMAIL", "root@example.com")
	t.Setenv("MUSIC_ADMIN_PASSWORD", "sup3rsecret")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	SeedAdminUser(db)

	var admin models.User
	if err := db.First(&admin, "email = ?", "root@example.com").Error; err != nil {
		t.Fatalf("seeded admin missing: %v", err)
	}
	if admin.Role != "admin" {
		t.Errorf("role = %q, want admin", admin.Role)
	}
	// Login refuses inactive accounts, so the seed must activate the admin
	if !admin.IsActive {
		t.Error("seeded admin is inactive and could never log in")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("sup3rsecret")); err != nil {
		t.Errorf("seeded password does not verify: %v", err)
	}
}

func TestSeedAdminUserIsIdempotent(t *testing.T) {
	t.Setenv("MUSIC_ADMIN_EMAIL", "root@example.com")
	t.Setenv("MUSIC_ADMIN_PASSWORD", "sup3rsecret")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	SeedAdminUser(db)
	var first models.User
	if err := db.First(&first, "email = ?", "root@example.com").Error; err != nil {
		t.Fatalf("seeded admin missing: %v", err)
	}

	// A restart with a changed password must not duplicate or overwrite
	t.Setenv("MUSIC_ADMIN_PASSWORD", "rotated-later")
	SeedAdminUser(db)

	var count int64
	db.Model(&models.User{}).Count(&count)
	if count != 1 {
		t.Fatalf("user count after re-seed = %d, want 1", count)
	}
	var second models.User
	db.First(&second, "email = ?", "root@example.com")
	if second.PasswordHash != first.PasswordHash {
		t.Error("re-seed overwrote the existing admin password")
	}
}
