// Package files implements the media FileStore on the local filesystem.
package files

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/terrastories/server/internal/storage"
)

// Config mirrors the adapter configuration surface: base directory, a size
// ceiling on uploads, and optional etag generation.
type Config struct {
	BaseDir       string
	MaxFileSize   int64
	GenerateETags bool
}

// Local stores files under a single base directory. Relative paths are
// cleaned and confined to that directory.
type Local struct {
	cfg Config
}

func NewLocal(cfg Config) (*Local, error) {
	if cfg.BaseDir == "" {
		return nil, fmt.Errorf("base dir is required")
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 50 << 20
	}
	if err := os.MkdirAll(cfg.BaseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create base dir: %w", err)
	}
	return &Local{cfg: cfg}, nil
}

var _ storage.FileStore = (*Local)(nil)

// resolve confines a relative path to the base directory.
func (l *Local) resolve(rel string) (string, error) {
	cleaned := path.Clean("/" + strings.ReplaceAll(rel, "\\", "/"))
	if cleaned == "/" {
		return "", fmt.Errorf("empty path")
	}
	// After cleaning with a leading slash, any remaining ".." means escape.
	if strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("invalid path %q", rel)
	}
	return filepath.Join(l.cfg.BaseDir, filepath.FromSlash(cleaned)), nil
}

func (l *Local) Upload(_ context.Context, rel string, data []byte) (string, error) {
	if int64(len(data)) > l.cfg.MaxFileSize {
		return "", fmt.Errorf("file exceeds maximum size of %d bytes", l.cfg.MaxFileSize)
	}
	full, err := l.resolve(rel)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create parent dir: %w", err)
	}

	// Write through a temp file then rename so readers never observe a
	// partially written blob.
	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close file: %w", err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("finalize file: %w", err)
	}
	return strings.TrimPrefix(path.Clean("/"+rel), "/"), nil
}

func (l *Local) Download(_ context.Context, rel string) ([]byte, error) {
	full, err := l.resolve(rel)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storage.ErrFileNotFound
		}
		return nil, fmt.Errorf("read file: %w", err)
	}
	return data, nil
}

func (l *Local) Delete(_ context.Context, rel string) error {
	full, err := l.resolve(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		if os.IsNotExist(err) {
			return storage.ErrFileNotFound
		}
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

func (l *Local) Exists(_ context.Context, rel string) (bool, error) {
	full, err := l.resolve(rel)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(full); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat file: %w", err)
	}
	return true, nil
}

func (l *Local) Metadata(_ context.Context, rel string) (storage.FileMetadata, error) {
	full, err := l.resolve(rel)
	if err != nil {
		return storage.FileMetadata{}, err
	}
	info, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return storage.FileMetadata{}, storage.ErrFileNotFound
		}
		return storage.FileMetadata{}, fmt.Errorf("stat file: %w", err)
	}

	meta := storage.FileMetadata{
		Size:         info.Size(),
		LastModified: info.ModTime().UTC(),
		ContentType:  mime.TypeByExtension(filepath.Ext(full)),
	}
	if l.cfg.GenerateETags {
		data, err := os.ReadFile(full)
		if err != nil {
			return storage.FileMetadata{}, fmt.Errorf("read file for etag: %w", err)
		}
		sum := sha256.Sum256(data)
		meta.ETag = hex.EncodeToString(sum[:])
	}
	return meta, nil
}
