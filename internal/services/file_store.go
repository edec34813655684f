package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DiskFileStore implements FileStore on the local filesystem. Uploaded
// source bytes land here before ingestion; step one of the upload
// pipeline is a fetch from this store.
type DiskFileStore struct {
	baseDir string
}

// NewDiskFileStore creates a file store rooted at baseDir.
func NewDiskFileStore(baseDir string) (*DiskFileStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &DiskFileStore{baseDir: baseDir}, nil
}

// Save writes source bytes under the store root.
func (s *DiskFileStore) Save(ctx context.Context, path string, data []byte) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return os.WriteFile(full, data, 0o644)
}

// Fetch reads source bytes previously saved under the store root.
func (s *DiskFileStore) Fetch(ctx context.Context, path string) ([]byte, error) {
	full, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("failed to read stored file: %w", err)
	}
	return data, nil
}

// resolve rejects paths escaping the store root.
func (s *DiskFileStore) resolve(path string) (string, error) {
	full := filepath.Join(s.baseDir, filepath.Clean("/"+path))
	if full != s.baseDir && !strings.HasPrefix(full, s.baseDir+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid storage path: %s", path)
	}
	return full, nil
}
