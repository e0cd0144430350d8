// Package files stores subsidy attachments on the local filesystem,
// one directory per subsidy identifier.
package files

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/kailas-cloud/jgrants-mcp/internal/domain"
	"github.com/kailas-cloud/jgrants-mcp/internal/domain/subsidy"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Store is the attachment store rooted at a single directory.
type Store struct {
	root   string
	logger *zap.Logger
}

// New creates the root directory if needed.
func New(root string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(root, dirPerm); err != nil {
		return nil, fmt.Errorf("create files dir %s: %w", root, err)
	}
	return &Store{root: root, logger: logger}, nil
}

// Root returns the configured root directory.
func (s *Store) Root() string { return s.root }

// Dir returns the directory of a subsidy without creating it.
func (s *Store) Dir(subsidyID string) (string, error) {
	if err := subsidy.ValidateSegment(subsidyID); err != nil {
		return "", fmt.Errorf("%w: subsidy_id %v", domain.ErrInvalidArgument, err)
	}
	return filepath.Join(s.root, subsidyID), nil
}

// EnsureDir creates the directory of a subsidy.
func (s *Store) EnsureDir(subsidyID string) (string, error) {
	dir, err := s.Dir(subsidyID)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	return dir, nil
}

// Write stores data as name inside the subsidy directory, replacing any existing file.
func (s *Store) Write(subsidyID, name string, data []byte) error {
	path, err := s.path(subsidyID, name)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, filePerm); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	s.logger.Debug("attachment written",
		zap.String("subsidy_id", subsidyID),
		zap.String("path", path),
		zap.Int("size", len(data)),
	)
	return nil
}

// Read returns the contents of a stored file. A missing file wraps domain.ErrFileNotFound.
func (s *Store) Read(subsidyID, name string) ([]byte, error) {
	path, err := s.path(subsidyID, name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s/%s", domain.ErrFileNotFound, subsidyID, name)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func (s *Store) path(subsidyID, name string) (string, error) {
	dir, err := s.Dir(subsidyID)
	if err != nil {
		return "", err
	}
	if err := subsidy.ValidateSegment(name); err != nil {
		return "", fmt.Errorf("%w: filename %v", domain.ErrInvalidArgument, err)
	}
	return filepath.Join(dir, name), nil
}
