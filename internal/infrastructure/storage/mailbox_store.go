package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/SpudMar/Lotus-PM-sub001/internal/application/port"
)

// LocalMailboxStore implements port.MailboxStore over a directory tree. Each
// location is a subdirectory of baseDir and each key a file within it, the
// layout a maildir-style delivery agent produces.
type LocalMailboxStore struct {
	baseDir    string
	holdingDir string
	logger     *zap.Logger
}

// NewLocalMailboxStore creates a new LocalMailboxStore. Artifacts without a
// usable attachment are parked under holdingDir.
func NewLocalMailboxStore(baseDir, holdingDir string, logger *zap.Logger) port.MailboxStore {
	return &LocalMailboxStore{
		baseDir:    baseDir,
		holdingDir: holdingDir,
		logger:     logger,
	}
}

// Fetch reads the raw message for an inbound artifact
func (s *LocalMailboxStore) Fetch(ctx context.Context, location, key string) ([]byte, error) {
	path := filepath.Join(s.baseDir, filepath.Base(location), filepath.Base(key))

	content, err := os.ReadFile(path)
	if err != nil {
		s.logger.Error("Failed to fetch mailbox artifact",
			zap.String("location", location),
			zap.String("key", key),
			zap.Error(err))
		return nil, fmt.Errorf("failed to fetch artifact: %w", err)
	}
	return content, nil
}

// MoveToHolding parks an artifact for manual follow-up. Moving a key that is
// already parked succeeds.
func (s *LocalMailboxStore) MoveToHolding(ctx context.Context, location, key string) error {
	src := filepath.Join(s.baseDir, filepath.Base(location), filepath.Base(key))
	dst := filepath.Join(s.holdingDir, filepath.Base(location)+"_"+filepath.Base(key))

	if _, err := os.Stat(src); os.IsNotExist(err) {
		if _, dstErr := os.Stat(dst); dstErr == nil {
			return nil
		}
		return fmt.Errorf("artifact not found: %s/%s", location, key)
	}

	if err := os.MkdirAll(s.holdingDir, 0755); err != nil {
		return fmt.Errorf("failed to create holding directory: %w", err)
	}

	if err := os.Rename(src, dst); err != nil {
		s.logger.Error("Failed to move artifact to holding",
			zap.String("location", location),
			zap.String("key", key),
			zap.Error(err))
		return fmt.Errorf("failed to move artifact to holding: %w", err)
	}

	s.logger.Info("Artifact moved to holding",
		zap.String("location", location),
		zap.String("key", key))
	return nil
}

// Verify interface compliance
var _ port.MailboxStore = (*LocalMailboxStore)(nil)
