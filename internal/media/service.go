// Package media moves story files through the configured file stores and
// feeds the file-operations metrics collector. During a storage migration
// two stores may be active at once: reads fall back from the primary to the
// legacy store, recorded as dual reads.
package media

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/terrastories/server/internal/metrics"
	"github.com/terrastories/server/internal/storage"
)

type Service struct {
	primary   storage.FileStore
	legacy    storage.FileStore // nil when no migration is in progress
	collector *metrics.FileOpsCollector
	logger    zerolog.Logger
	now       func() time.Time
}

func NewService(primary storage.FileStore, legacy storage.FileStore, collector *metrics.FileOpsCollector, logger zerolog.Logger) *Service {
	return &Service{
		primary:   primary,
		legacy:    legacy,
		collector: collector,
		logger:    logger.With().Str("component", "media").Logger(),
		now:       time.Now,
	}
}

func (s *Service) record(op metrics.Operation, success bool, bytes int64, started time.Time) {
	// Metrics failures must never fail the operation being measured.
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Msg("metrics recording failed")
		}
	}()
	s.collector.Record(op, success, bytes, float64(s.now().Sub(started))/float64(time.Millisecond))
}

// Upload stores data under path in the primary store.
func (s *Service) Upload(ctx context.Context, path string, data []byte) (string, error) {
	started := s.now()
	stored, err := s.primary.Upload(ctx, path, data)
	s.record(metrics.OpUpload, err == nil, int64(len(data)), started)
	if err != nil {
		return "", fmt.Errorf("upload media: %w", err)
	}
	return stored, nil
}

// Download reads path from the primary store, falling back to the legacy
// store when a file has not been migrated yet. The fallback is recorded as
// a dual read regardless of whether the legacy store had the file.
func (s *Service) Download(ctx context.Context, path string) ([]byte, error) {
	started := s.now()
	data, err := s.primary.Download(ctx, path)
	if err == nil {
		s.record(metrics.OpAccess, true, int64(len(data)), started)
		return data, nil
	}
	if !errors.Is(err, storage.ErrFileNotFound) || s.legacy == nil {
		s.record(metrics.OpAccess, false, 0, started)
		return nil, fmt.Errorf("download media: %w", err)
	}

	data, legacyErr := s.legacy.Download(ctx, path)
	s.record(metrics.OpDualRead, legacyErr == nil, int64(len(data)), started)
	if legacyErr != nil {
		return nil, fmt.Errorf("download media: %w", legacyErr)
	}
	s.logger.Debug().Str("path", path).Msg("served from legacy store")
	return data, nil
}

// Delete removes path from the primary store and, best effort, from the
// legacy store.
func (s *Service) Delete(ctx context.Context, path string) error {
	started := s.now()
	err := s.primary.Delete(ctx, path)
	if errors.Is(err, storage.ErrFileNotFound) && s.legacy != nil {
		err = s.legacy.Delete(ctx, path)
	} else if err == nil && s.legacy != nil {
		if legacyErr := s.legacy.Delete(ctx, path); legacyErr != nil && !errors.Is(legacyErr, storage.ErrFileNotFound) {
			s.logger.Warn().Err(legacyErr).Str("path", path).Msg("legacy delete failed")
		}
	}
	s.record(metrics.OpDelete, err == nil, 0, started)
	if err != nil {
		return fmt.Errorf("delete media: %w", err)
	}
	return nil
}

// Exists reports whether path is present in either store.
func (s *Service) Exists(ctx context.Context, path string) (bool, error) {
	ok, err := s.primary.Exists(ctx, path)
	if err != nil || ok {
		return ok, err
	}
	if s.legacy == nil {
		return false, nil
	}
	return s.legacy.Exists(ctx, path)
}

// Metadata describes path from whichever store holds it.
func (s *Service) Metadata(ctx context.Context, path string) (storage.FileMetadata, error) {
	meta, err := s.primary.Metadata(ctx, path)
	if err == nil {
		return meta, nil
	}
	if errors.Is(err, storage.ErrFileNotFound) && s.legacy != nil {
		return s.legacy.Metadata(ctx, path)
	}
	return storage.FileMetadata{}, err
}
