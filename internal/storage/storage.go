package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/jobportal/apiserver/config"
)

var (
	// ErrInvalidKey is returned for object keys outside the upload namespace.
	ErrInvalidKey = errors.New("invalid object key")
	// ErrObjectNotFound is returned by backends when a key does not exist.
	ErrObjectNotFound = errors.New("object not found")
)

const resumePrefix = "resumes/"

// ObjectStorage defines common object operations across backends.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Bucket() string
}

// Storage wraps an ObjectStorage backend with a stable API.
type Storage struct {
	backend ObjectStorage
}

// NewStorage constructs a Storage wrapper for the provided backend.
func NewStorage(backend ObjectStorage) *Storage {
	return &Storage{backend: backend}
}

// Open builds the backend selected by cfg and makes sure its bucket exists.
// It returns nil, nil when uploads are disabled.
func Open(ctx context.Context, cfg config.StorageConfig) (*Storage, error) {
	var backend ObjectStorage
	switch cfg.Backend {
	case "":
		return nil, nil
	case "minio":
		client, err := NewMinioClient(cfg.Minio)
		if err != nil {
			return nil, err
		}
		backend = client
	case "gcs":
		client, err := NewGCSClient(ctx, cfg.GCS)
		if err != nil {
			return nil, err
		}
		backend = client
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}

	s := NewStorage(backend)
	if err := s.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket %s: %w", s.Bucket(), err)
	}
	return s, nil
}

// EnsureBucket ensures the configured bucket exists.
func (s *Storage) EnsureBucket(ctx context.Context) error {
	return s.backend.EnsureBucket(ctx)
}

// PutResume stores an uploaded resume file and returns its object key.
func (s *Storage) PutResume(ctx context.Context, userID int, r io.Reader, size int64) (string, error) {
	key := fmt.Sprintf("%s%d/%s.pdf", resumePrefix, userID, uuid.NewString())
	if err := s.backend.Put(ctx, key, r, size, "application/pdf"); err != nil {
		return "", err
	}
	return key, nil
}

// Get opens a reader for a previously uploaded object.
func (s *Storage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	clean, err := CleanKey(key)
	if err != nil {
		return nil, err
	}
	return s.backend.Get(ctx, clean)
}

// Delete removes an uploaded object.
func (s *Storage) Delete(ctx context.Context, key string) error {
	clean, err := CleanKey(key)
	if err != nil {
		return err
	}
	return s.backend.Delete(ctx, clean)
}

// Bucket returns the configured bucket name.
func (s *Storage) Bucket() string {
	return s.backend.Bucket()
}

// CleanKey normalizes a client-supplied key and rejects anything that escapes
// the upload namespace.
func CleanKey(key string) (string, error) {
	key = strings.TrimPrefix(key, "/")
	if key == "" || strings.Contains(key, "..") {
		return "", ErrInvalidKey
	}
	clean := path.Clean(key)
	if !strings.HasPrefix(clean, resumePrefix) {
		return "", ErrInvalidKey
	}
	return clean, nil
}
