/*
Package storage stores uploaded avatar images.

Two backends exist: a local directory served by the application itself, and
an S3-compatible bucket. Both address objects by key and resolve a key to the
URL a browser can load it from.
*/
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
)

const (
	BackendLocal = "local"
	BackendS3    = "s3"
)

// ServiceConfig holds the configuration required to connect to the storage service.
type ServiceConfig struct {
	Backend string

	// Local backend.
	UploadDir string
	MediaURL  string

	// S3 backend.
	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3PublicURL       string
}

// StorageService defines the public interface for the file storage service.
type StorageService interface {
	// Put stores size bytes read from body under key.
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error

	// Delete removes the file specified by the given key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// URL returns the public URL of key.
	URL(key string) string
}

// NewStorageService is the factory function for StorageService.
// It initializes and returns a concrete implementation based on the provided configuration.
func NewStorageService(ctx context.Context, cfg ServiceConfig) (StorageService, error) {
	switch cfg.Backend {
	case BackendS3:
		return newS3Client(ctx, cfg)
	case BackendLocal, "":
		return NewLocalStorage(cfg.UploadDir, cfg.MediaURL)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// SaveImage stores img under a fresh key and returns the key.
func SaveImage(ctx context.Context, s StorageService, img *Image) (string, error) {
	key := img.Key()
	if err := s.Put(ctx, key, img.ContentType, bytes.NewReader(img.Data), img.Size()); err != nil {
		return "", err
	}
	return key, nil
}
