package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	apiserver "github.com/ToiLaHao2/MyFreeMusic-BE/internal/api/server"
	"github.com/ToiLaHao2/MyFreeMusic-BE/internal/audio"
	"github.com/ToiLaHao2/MyFreeMusic-BE/internal/config"
	database "github.com/ToiLaHao2/MyFreeMusic-BE/internal/db"
	"github.com/ToiLaHao2/MyFreeMusic-BE/internal/fingerprint"
	"github.com/ToiLaHao2/MyFreeMusic-BE/internal/ingest"
	"github.com/ToiLaHao2/MyFreeMusic-BE/internal/library"
	"github.com/ToiLaHao2/MyFreeMusic-BE/internal/storage"
	"github.com/ToiLaHao2/MyFreeMusic-BE/internal/youtube"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting Music Library API Server...")

	// 1. Setup Configuration
	cfg := config.Load()

	// 2. Initialize Infrastructure
	db := database.New(cfg)
	db.AutoMigrate()
	database.SeedAdminUser(db.DB)

	store := storage.New(cfg)
	os.MkdirAll(cfg.Server.TempDir, 0755)

	// 3. Assemble the Ingest Pipeline
	repo := library.NewSongRepository(db.DB)
	extractor := fingerprint.NewExtractor(
		cfg.Fingerprint.FpcalcPath,
		time.Duration(cfg.Fingerprint.TimeoutSeconds)*time.Second,
	)
	detector := fingerprint.NewDetector(repo, extractor, fingerprint.DetectorConfig{
		SimilarityThreshold: cfg.Fingerprint.SimilarityThreshold,
		DurationTolerance:   cfg.Fingerprint.DurationTolerance,
	})
	transcoder := audio.NewTranscoder(cfg)
	videos := youtube.NewClient(cfg)
	svc := ingest.NewService(repo, detector, transcoder, store, videos, cfg)

	// 4. Setup Metrics
	ingest.RegisterMetrics()
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		log.Printf("📊 Metrics exposed at http://localhost%s/metrics", cfg.Server.MetricsPort)
		if err := http.ListenAndServe(cfg.Server.MetricsPort, nil); err != nil {
			log.Printf("⚠️ Metrics server error: %v", err)
		}
	}()

	// 5. Start Server
	srv := apiserver.New(cfg, db, store, svc, repo)

	log.Printf("🚀 API Server starting on %s", cfg.Server.Port)
	if err := srv.Start(cfg.Server.Port); err != nil {
		log.Fatalf("❌ Server failed to start: %v", err)
	}
}
