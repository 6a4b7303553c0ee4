package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/resqfood/resq/internal/config"
	"go.uber.org/zap"
)

// LocalStore keeps blobs on the local filesystem under a root directory.
type LocalStore struct {
	root    string
	baseURL string
	log     *zap.Logger
}

func NewLocal(cfg config.Config, log *zap.Logger) (*LocalStore, error) {
	root := strings.TrimSpace(cfg.StorageDir)
	if root == "" {
		root = "data/blobs"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &LocalStore{
		root:    root,
		baseURL: strings.TrimRight(cfg.StorageBaseURL, "/"),
		log:     log.Named("storage.local"),
	}, nil
}

func (s *LocalStore) Upload(ctx context.Context, path string, contentType string, body io.Reader) (string, error) {
	_ = contentType
	clean, err := s.resolve(path)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(clean), 0o755); err != nil {
		return "", err
	}

	f, err := os.Create(clean)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(f, body); err != nil {
		_ = os.Remove(clean)
		return "", err
	}
	return path, nil
}

func (s *LocalStore) PublicURL(path string) string {
	return s.baseURL + "/" + strings.TrimLeft(path, "/")
}

func (s *LocalStore) Delete(ctx context.Context, path string) error {
	clean, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(clean); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Root returns the directory served for public blob URLs.
func (s *LocalStore) Root() string { return s.root }

func (s *LocalStore) resolve(path string) (string, error) {
	clean := filepath.Clean("/" + strings.TrimSpace(path))
	if clean == "/" || strings.Contains(clean, "..") {
		return "", ErrInvalidPath
	}
	return filepath.Join(s.root, clean), nil
}
