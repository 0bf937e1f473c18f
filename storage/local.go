package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"selfiebox/models"
)

// LocalStore writes uploads to a directory that is served back under
// baseURL (normally "/uploads").
type LocalStore struct {
	dir     string
	baseURL string
	log     *zap.Logger
}

func NewLocalStore(dir, baseURL string, log *zap.Logger) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", dir, err)
	}
	return &LocalStore{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log,
	}, nil
}

func (s *LocalStore) Dir() string { return s.dir }

func (s *LocalStore) Put(ctx context.Context, folder, name string, body io.Reader, size int64, contentType string) (string, error) {
	key := objectKey(folder, name)
	dst := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("%w: create folder: %v", models.ErrBackendOperation, err)
	}

	// Write to a hidden temp file and rename so listings never see a partial file.
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("%w: create temp file: %v", models.ErrBackendOperation, err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("%w: write %s: %v", models.ErrBackendOperation, key, err)
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrBackendOperation, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", fmt.Errorf("%w: rename %s: %v", models.ErrBackendOperation, key, err)
	}

	s.log.Info("Selfie saved",
		zap.String("key", key),
		zap.Int64("size", n),
		zap.String("content_type", contentType))

	return s.url(key), nil
}

func (s *LocalStore) List(ctx context.Context, folder string, limit int) ([]string, error) {
	if limit <= 0 {
		return []string{}, nil
	}
	dir := filepath.Join(s.dir, filepath.FromSlash(strings.Trim(folder, "/")))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("%w: read %s: %v", models.ErrBackendOperation, dir, err)
	}

	urls := make([]string, 0, min(len(entries), limit))
	for _, e := range entries {
		if len(urls) >= limit {
			break
		}
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		urls = append(urls, s.url(objectKey(folder, e.Name())))
	}
	return urls, nil
}

func (s *LocalStore) url(key string) string {
	return s.baseURL + "/" + key
}
