package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/SpudMar/Lotus-PM-sub001/internal/application/port"
)

// LocalDocumentStorage implements port.DocumentStorage on the local filesystem.
// Documents are filed under baseDir/YYYY/MM with a unique prefix so repeated
// names never collide.
type LocalDocumentStorage struct {
	baseDir string
	logger  *zap.Logger
}

// NewLocalDocumentStorage creates a new LocalDocumentStorage
func NewLocalDocumentStorage(baseDir string, logger *zap.Logger) port.DocumentStorage {
	return &LocalDocumentStorage{
		baseDir: baseDir,
		logger:  logger,
	}
}

// Save writes a document and returns its storage path
func (s *LocalDocumentStorage) Save(ctx context.Context, name string, content []byte) (string, error) {
	now := time.Now().UTC()
	relPath := filepath.Join(
		now.Format("2006"),
		now.Format("01"),
		uuid.NewString()[:8]+"_"+sanitizeFilename(name),
	)
	fullPath := filepath.Join(s.baseDir, relPath)

	if err := s.validatePath(fullPath); err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		s.logger.Error("Failed to create document directory",
			zap.String("path", filepath.Dir(fullPath)),
			zap.Error(err))
		return "", fmt.Errorf("failed to create directories: %w", err)
	}

	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		s.logger.Error("Failed to write document",
			zap.String("path", fullPath),
			zap.Error(err))
		return "", fmt.Errorf("failed to write document: %w", err)
	}

	s.logger.Debug("Document saved",
		zap.String("path", fullPath),
		zap.Int("size", len(content)))
	return fullPath, nil
}

// Read reads a previously stored document
func (s *LocalDocumentStorage) Read(ctx context.Context, path string) ([]byte, error) {
	if err := s.validatePath(path); err != nil {
		return nil, err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		s.logger.Error("Failed to read document",
			zap.String("path", path),
			zap.Error(err))
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return content, nil
}

// validatePath checks that the path stays within baseDir
func (s *LocalDocumentStorage) validatePath(fullPath string) error {
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	absBase, err := filepath.Abs(s.baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) && absPath != absBase {
		return fmt.Errorf("path escapes base directory: %s", fullPath)
	}
	return nil
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	if name == "" || name == "." {
		name = "document.pdf"
	}
	return name
}

// Verify interface compliance
var _ port.DocumentStorage = (*LocalDocumentStorage)(nil)
