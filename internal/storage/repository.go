// Package storage defines the persistence contracts the API wires together:
// the per-entity repositories backed by Postgres and the file store backing
// story media.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/terrastories/server/internal/auth"
	"github.com/terrastories/server/internal/domain/communities"
	"github.com/terrastories/server/internal/domain/places"
	"github.com/terrastories/server/internal/domain/speakers"
	"github.com/terrastories/server/internal/domain/stories"
	"github.com/terrastories/server/internal/domain/users"
)

// Repository aggregates every entity repository over one database handle.
type Repository interface {
	Communities() communities.Repository
	Users() users.Repository
	Stories() stories.Repository
	Speakers() speakers.Repository
	Places() places.Repository
	Sessions() auth.SessionRepository
}

// ErrFileNotFound is returned by FileStore implementations for absent paths.
var ErrFileNotFound = errors.New("file not found")

// FileMetadata describes a stored file without reading its contents.
type FileMetadata struct {
	Size         int64
	LastModified time.Time
	ContentType  string
	ETag         string
}

// FileStore is the narrow contract for media blobs. Paths are relative,
// slash-separated, and validated by implementations.
type FileStore interface {
	Upload(ctx context.Context, path string, data []byte) (string, error)
	Download(ctx context.Context, path string) ([]byte, error)
	Delete(ctx context.Context, path string) error
	Exists(ctx context.Context, path string) (bool, error)
	Metadata(ctx context.Context, path string) (FileMetadata, error)
}
