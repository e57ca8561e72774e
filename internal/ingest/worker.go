package ingest

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ToiLaHao2/MyFreeMusic-BE/internal/audio"
	"github.com/ToiLaHao2/MyFreeMusic-BE/internal/config"
	"github.com/ToiLaHao2/MyFreeMusic-BE/internal/storage"
)

// IngestQueue is the slice of the storage client the worker drains.
type IngestQueue interface {
	ListIngestFiles() ([]string, error)
	DownloadIngestFile(key string) (*storage.FileObject, error)
	DeleteIngestFile(key string) error
}

// Worker drains the ingest bucket: files dropped there by the API (or by
// hand) get run through the pipeline and removed.
type Worker struct {
	svc   *Service
	queue IngestQueue
	cfg   *config.Config
}

func NewWorker(svc *Service, queue IngestQueue, cfg *config.Config) *Worker {
	return &Worker{svc: svc, queue: queue, cfg: cfg}
}

// Run polls until the context is cancelled. One pass runs immediately so a
// restart picks up backlog without waiting a full interval.
func (w *Worker) Run(ctx context.Context) {
	interval := time.Duration(w.cfg.Ingester.PollingInterval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("Watcher started on '%s' (every %s).", w.cfg.Storage.BucketIngest, interval)

	w.processQueue(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Println("Ingest worker stopping")
			return
		case <-ticker.C:
			w.processQueue(ctx)
		}
	}
}

func (w *Worker) processQueue(ctx context.Context) {
	keys, err := w.queue.ListIngestFiles()
	if err != nil {
		log.Printf("Error listing ingest bucket: %v", err)
		return
	}
	if len(keys) == 0 {
		return
	}

	log.Printf("Found %d items in ingest queue.", len(keys))

	for _, key := range keys {
		if ctx.Err() != nil {
			return
		}
		if strings.HasSuffix(key, "/") || !audio.IsSupportedFormat(key) {
			continue
		}

		log.Printf("Processing: %s", key)
		outcome, err := w.processKey(ctx, key)
		switch {
		case err != nil:
			log.Printf("❌ FAILED %s: %v", key, err)
		case outcome.Duplicate != nil:
			log.Printf("♻️ DUPLICATE %s (reason: %s, matches %q)",
				key, outcome.Duplicate.Reason, outcome.Duplicate.Existing.Title)
		default:
			log.Printf("✅ INGESTED %s as %q", key, outcome.Song.Title)
		}
	}
}

// processKey stages the object on local disk and runs it through the device
// pipeline. Duplicates are drained from the queue like successes; retrying
// them would yield the same verdict forever.
func (w *Worker) processKey(ctx context.Context, key string) (*Outcome, error) {
	localPath := filepath.Join(w.cfg.Server.TempDir, "ingest_"+filepath.Base(key))
	defer os.Remove(localPath)

	if err := w.stage(key, localPath); err != nil {
		return nil, err
	}

	outcome, err := w.svc.AddFromDevice(ctx, DeviceInput{LocalPath: localPath})
	if err != nil {
		return nil, err
	}

	if err := w.queue.DeleteIngestFile(key); err != nil {
		log.Printf("⚠️ Could not remove %s from queue: %v", key, err)
	}
	return outcome, nil
}

func (w *Worker) stage(key, localPath string) error {
	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return err
	}

	obj, err := w.queue.DownloadIngestFile(key)
	if err != nil {
		return err
	}
	defer obj.Body.Close()

	f, err := os.Create(localPath)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(f, obj.Body)
	return err
}
