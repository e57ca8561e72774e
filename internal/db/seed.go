package database

import (
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ToiLaHao2/MyFreeMusic-BE/internal/models"
)

// SeedAdminUser guarantees at least one admin account exists so the instance
// is reachable after a fresh deploy. Credentials come from the environment;
// the default password is only for local development.
func SeedAdminUser(db *gorm.DB) {
	email := os.Getenv("MUSIC_ADMIN_EMAIL")
	if email == "" {
		email = "admin@myfreemusic.local"
	}
	password := os.Getenv("MUSIC_ADMIN_PASSWORD")
	if password == "" {
		password = "changeme"
		log.Println("⚠️ MUSIC_ADMIN_PASSWORD not set, seeding admin with default password")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash admin password: %v", err)
	}

	admin := models.User{
		Email:        email,
		PasswordHash: string(hash),
		FullName:     "Administrator",
		Role:         "admin",
		IsActive:     true,
	}

	// UPSERT on email so restarts never duplicate or overwrite the account
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoNothing: true,
	}).Create(&admin)

	if result.Error != nil {
		log.Printf("⚠️ Admin seed failed: %v", result.Error)
		return
	}
	if result.RowsAffected > 0 {
		log.Printf("🌱 Seeded admin user %s", email)
	}
}
