package storage

import (
	"io"
	"time"
)

// Provider is the behavior any storage backend must implement.
type Provider interface {
	List(bucket, prefix string) ([]string, error)
	ListObjects(bucket, prefix string) ([]ObjectInfo, error)
	Get(bucket, key string) (*FileObject, error)
	Put(bucket, key string, body io.ReadSeeker, contentType string) error
	Delete(bucket, key string) error
}

// ObjectInfo describes one stored object without opening it.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// FileObject is the provider-agnostic representation of a stored file.
type FileObject struct {
	Body          io.ReadCloser
	ContentLength int64
	ContentType   string
	LastModified  time.Time
}
