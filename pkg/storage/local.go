package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalStore stores objects as files under an optional base directory.
// With an empty base directory keys are used as filesystem paths directly,
// absolute or relative to the working directory.
type LocalStore struct {
	baseDir string
}

// NewLocalStore creates a filesystem store rooted at baseDir. An empty
// baseDir leaves keys untranslated.
func NewLocalStore(baseDir string) *LocalStore {
	return &LocalStore{baseDir: baseDir}
}

func (s *LocalStore) resolve(key string) string {
	if s.baseDir == "" {
		return filepath.FromSlash(key)
	}
	return filepath.Join(s.baseDir, filepath.FromSlash(key))
}

// Read returns the file contents at key.
func (s *LocalStore) Read(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.resolve(key))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// Write writes data to the file at key, creating parent directories.
func (s *LocalStore) Write(_ context.Context, key string, data []byte) error {
	path := s.resolve(key)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Exists reports whether a regular file exists at key.
func (s *LocalStore) Exists(_ context.Context, key string) (bool, error) {
	info, err := os.Stat(s.resolve(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", key, err)
	}
	return info.Mode().IsRegular(), nil
}
