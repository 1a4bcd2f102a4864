package assets

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/agentstudio/studio-core/internal/adapters/duckdb"
	"github.com/agentstudio/studio-core/internal/core/ports"
)

// Store downloads offline model assets into a local directory and tracks them
// in DuckDB so downloads survive restarts.
type Store struct {
	logger     *slog.Logger
	db         *duckdb.Store
	baseURL    string
	dir        string
	httpClient *http.Client
}

func NewStore(logger *slog.Logger, db *duckdb.Store, baseURL, dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create asset dir %s: %w", dir, err)
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 10 * time.Second
	retryClient.Logger = nil

	return &Store{
		logger:     logger,
		db:         db,
		baseURL:    strings.TrimRight(baseURL, "/"),
		dir:        dir,
		httpClient: retryClient.StandardClient(),
	}, nil
}

var _ ports.ModelAssetStore = (*Store)(nil)

// Download fetches the model asset, writing it atomically (temp file + rename).
// A no-op returning the existing path when the asset is already present.
func (s *Store) Download(ctx context.Context, modelID string) (string, error) {
	if path, ok := s.lookup(ctx, modelID); ok {
		return path, nil
	}

	url := fmt.Sprintf("%s/models/%s.bin", s.baseURL, modelID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create download request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch asset %s: %w", modelID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch asset %s: status %d", modelID, resp.StatusCode)
	}

	finalPath := filepath.Join(s.dir, modelID+".bin")
	tmp, err := os.CreateTemp(s.dir, modelID+".partial-*")
	if err != nil {
		return "", fmt.Errorf("create temp asset file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write asset %s: %w", modelID, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close asset %s: %w", modelID, err)
	}
	if err := os.Rename(tmp.Name(), finalPath); err != nil {
		return "", fmt.Errorf("finalize asset %s: %w", modelID, err)
	}

	if err := s.db.RecordAsset(ctx, modelID, finalPath); err != nil {
		return "", err
	}

	s.logger.Info("model asset downloaded", "model", modelID, "path", finalPath)
	return finalPath, nil
}

// Exists reports whether the asset is on local storage.
func (s *Store) Exists(modelID string) bool {
	_, ok := s.lookup(context.Background(), modelID)
	return ok
}

// Remove deletes the asset file and its record.
func (s *Store) Remove(modelID string) error {
	ctx := context.Background()
	path, ok, err := s.db.AssetPath(ctx, modelID)
	if err != nil {
		return err
	}
	if ok {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove asset file %s: %w", path, err)
		}
	}
	return s.db.DeleteAsset(ctx, modelID)
}

// lookup verifies both the DB record and the file on disk; a record whose file
// vanished does not count as downloaded.
func (s *Store) lookup(ctx context.Context, modelID string) (string, bool) {
	path, ok, err := s.db.AssetPath(ctx, modelID)
	if err != nil || !ok {
		return "", false
	}
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}
