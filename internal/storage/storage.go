package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"

	"github.com/ToiLaHao2/MyFreeMusic-BE/internal/config"
)

// Client routes song media and raw ingest uploads to the configured backend.
// Media holds processed HLS renditions and covers; ingest holds originals
// waiting for the pipeline.
type Client struct {
	backend      Provider
	bucketMedia  string
	bucketIngest string
}

func New(cfg *config.Config) *Client {
	var backend Provider

	if cfg.Storage.Provider == "local" {
		backend = NewLocalProvider(cfg.Storage.LocalRoot)
	} else {
		s3Config := &aws.Config{
			Credentials:      credentials.NewStaticCredentials(cfg.Storage.KeyID, cfg.Storage.AppKey, ""),
			Endpoint:         aws.String(cfg.Storage.Endpoint),
			Region:           aws.String(cfg.Storage.Region),
			S3ForcePathStyle: aws.Bool(true),
		}
		sess := session.Must(session.NewSession(s3Config))
		backend = NewS3Provider(sess)
	}

	return NewClient(backend, cfg.Storage.BucketMedia, cfg.Storage.BucketIngest)
}

// NewClient wires a Client around an explicit backend. Tests use it with a
// LocalProvider rooted in a temp dir.
func NewClient(backend Provider, bucketMedia, bucketIngest string) *Client {
	return &Client{
		backend:      backend,
		bucketMedia:  bucketMedia,
		bucketIngest: bucketIngest,
	}
}

// --- Media (processed output) ---

// UploadMediaDir pushes every file under localDir to the media bucket below
// keyPrefix, preserving relative paths. Used for HLS renditions, which are a
// playlist plus many segment files.
func (c *Client) UploadMediaDir(localDir, keyPrefix string) error {
	return filepath.Walk(localDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(localDir, path)
		if err != nil {
			return err
		}
		key := keyPrefix + "/" + filepath.ToSlash(rel)

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		if err := c.backend.Put(c.bucketMedia, key, f, contentTypeForKey(key)); err != nil {
			return fmt.Errorf("upload %s: %w", key, err)
		}
		return nil
	})
}

func (c *Client) UploadMediaFile(key string, body io.ReadSeeker, contentType string) error {
	return c.backend.Put(c.bucketMedia, key, body, contentType)
}

func (c *Client) DownloadMedia(key string) (*FileObject, error) {
	return c.backend.Get(c.bucketMedia, key)
}

// ScanMedia lists every object in the media bucket with its size, for the
// admin storage dashboard.
func (c *Client) ScanMedia() ([]ObjectInfo, error) {
	return c.backend.ListObjects(c.bucketMedia, "")
}

// DeleteMediaPrefix removes a whole rendition (playlist and all segments).
func (c *Client) DeleteMediaPrefix(prefix string) error {
	keys, err := c.backend.List(c.bucketMedia, prefix)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := c.backend.Delete(c.bucketMedia, key); err != nil {
			return fmt.Errorf("delete %s: %w", key, err)
		}
	}
	return nil
}

// --- Ingest (raw uploads awaiting processing) ---

func (c *Client) UploadIngestFile(key string, body io.ReadSeeker, contentType string) error {
	return c.backend.Put(c.bucketIngest, key, body, contentType)
}

func (c *Client) ListIngestFiles() ([]string, error) {
	return c.backend.List(c.bucketIngest, "")
}

func (c *Client) DownloadIngestFile(key string) (*FileObject, error) {
	return c.backend.Get(c.bucketIngest, key)
}

func (c *Client) DeleteIngestFile(key string) error {
	return c.backend.Delete(c.bucketIngest, key)
}
