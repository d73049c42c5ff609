// Package storage persists generated report files and signs download links for them.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned when a stored object does not exist.
var ErrNotFound = errors.New("stored file not found")

// BlobStore is the contract shared by the local and S3 backends.
type BlobStore interface {
	Save(ctx context.Context, name string, data []byte, contentType string) (string, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Delete(ctx context.Context, name string) error
	CleanupOlderThan(ctx context.Context, ttl time.Duration) ([]string, error)
}

var (
	_ BlobStore = (*LocalStorage)(nil)
	_ BlobStore = (*S3Storage)(nil)
)
