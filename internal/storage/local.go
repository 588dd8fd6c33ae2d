package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalStore stores blobs on the local filesystem, one directory per
// document under baseDir: {baseDir}/{documentID}/original.pdf.
type LocalStore struct {
	baseDir string
}

func NewLocalStore(baseDir string) (*LocalStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &LocalStore{baseDir: baseDir}, nil
}

func (s *LocalStore) Save(_ context.Context, documentID string, r io.Reader) (string, int64, error) {
	dir := filepath.Join(s.baseDir, documentID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", 0, fmt.Errorf("create document dir: %w", err)
	}

	fullPath := filepath.Join(dir, BlobName)
	f, err := os.Create(fullPath)
	if err != nil {
		return "", 0, fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(f, r)
	if err != nil {
		os.Remove(fullPath)
		return "", 0, fmt.Errorf("write file: %w", err)
	}
	return fullPath, n, nil
}

func (s *LocalStore) Open(_ context.Context, path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("blob %s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("open file: %w", err)
	}
	return f, nil
}

func (s *LocalStore) Stat(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("blob %s: %w", path, ErrNotFound)
		}
		return fmt.Errorf("stat file: %w", err)
	}
	return nil
}
