// Package storage archives uploaded statement files.
package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
)

var ErrFileNotFound = errors.New("stored file not found")

// FileInfo contains metadata about a stored file
type FileInfo struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	Path        string    `json:"path"` // Internal storage path
	CreatedAt   time.Time `json:"created_at"`
}

// Storage defines the interface for file storage operations
type Storage interface {
	// Upload stores a file and returns its metadata
	Upload(ctx context.Context, filename string, contentType string, r io.Reader) (*FileInfo, error)

	// Download retrieves a file by its ID
	Download(ctx context.Context, fileID uuid.UUID) (io.ReadCloser, *FileInfo, error)

	// Delete removes a file by its ID
	Delete(ctx context.Context, fileID uuid.UUID) error

	// List returns every stored file, oldest first
	List(ctx context.Context) ([]*FileInfo, error)

	GetInfo(ctx context.Context, fileID uuid.UUID) (*FileInfo, error)

	// PurgeBefore deletes files stored before cutoff and returns how many were removed.
	PurgeBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// Config holds storage configuration
type Config struct {
	Enabled   bool
	LocalPath string
}

// New creates the configured Storage, or nil when archiving is disabled.
func New(cfg *Config) (Storage, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	return NewLocalStorage(cfg.LocalPath)
}
