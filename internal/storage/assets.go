package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/semaphore"
)

// ErrAssetNotFound is returned by AssetStore.Load when no copy is on disk.
var ErrAssetNotFound = errors.New("asset not on disk")

// AssetStore keeps downloaded upstream assets on disk, mirroring the URL
// layout: https://host/a/b.json is stored at <dir>/host/a/b.json.
type AssetStore struct {
	dir    string
	files  *semaphore.Weighted
	logger *slog.Logger
}

// NewAssetStore creates a store rooted at dir. files bounds concurrent file
// operations and is usually shared with the transcript Writer.
func NewAssetStore(dir string, files *semaphore.Weighted, logger *slog.Logger) *AssetStore {
	if dir == "" {
		dir = "./assets"
	}
	return &AssetStore{dir: dir, files: files, logger: logger}
}

// URLToPath maps an asset URL to its location under the store directory.
func (s *AssetStore) URLToPath(rawURL string) (string, error) {
	_, rest, ok := strings.Cut(rawURL, "//")
	if !ok || rest == "" {
		return "", fmt.Errorf("asset url %q has no host", rawURL)
	}
	rest, _, _ = strings.Cut(rest, "?")

	rel := filepath.Clean(filepath.FromSlash(rest))
	if rel == "." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || rel == ".." || filepath.IsAbs(rel) {
		return "", fmt.Errorf("asset url %q escapes the asset directory", rawURL)
	}
	return filepath.Join(s.dir, rel), nil
}

// Load reads the stored copy of url.
func (s *AssetStore) Load(ctx context.Context, url string) ([]byte, error) {
	path, err := s.URLToPath(url)
	if err != nil {
		return nil, err
	}

	if err := s.files.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.files.Release(1)

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", url, ErrAssetNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read asset: %w", err)
	}
	return data, nil
}

// Save stores body as the copy of url, creating directories as needed.
func (s *AssetStore) Save(ctx context.Context, url string, body []byte) error {
	path, err := s.URLToPath(url)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create asset directory: %w", err)
	}

	if err := s.files.Acquire(ctx, 1); err != nil {
		return err
	}
	defer s.files.Release(1)

	if err := os.WriteFile(path, body, 0o644); err != nil {
		return fmt.Errorf("failed to write asset: %w", err)
	}
	s.logger.Debug("Saved asset", "url", url, "path", path)
	return nil
}
