package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

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
	log.Println("Starting Music Ingestion Worker...")

	// 1. Setup Configuration
	cfg := config.Load()

	// 2. Initialize Infrastructure
	store := storage.New(cfg)
	db := database.New(cfg)
	db.AutoMigrate()

	os.MkdirAll(cfg.Server.TempDir, 0755)

	// 3. Assemble the Pipeline
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
		log.Fatal(http.ListenAndServe(cfg.Server.MetricsPort, nil))
	}()

	// 5. Start Worker, stop cleanly on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	worker := ingest.NewWorker(svc, store, cfg)
	worker.Run(ctx)
}
