package duckdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/agentstudio/studio-core/internal/core/domain"
	"github.com/agentstudio/studio-core/internal/core/ports"
)

// Store persists the last-known-good optimization profile and the offline model
// asset catalog in a local DuckDB file.
type Store struct {
	logger *slog.Logger
	db     *sql.DB
}

// NewStore opens (or creates) the database and initializes the schema.
func NewStore(logger *slog.Logger, path string) (*Store, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb at %s: %w", path, err)
	}

	s := &Store{logger: logger, db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS profiles (
			id         INTEGER PRIMARY KEY,
			payload    JSON NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS model_assets (
			model_id      VARCHAR PRIMARY KEY,
			local_path    VARCHAR NOT NULL,
			downloaded_at TIMESTAMP NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

var _ ports.ProfileStore = (*Store)(nil)

// Load returns the cached optimization profile, ok=false when none is stored.
func (s *Store) Load(ctx context.Context) (*domain.OptimizationProfile, bool, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM profiles WHERE id = 1`).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load profile: %w", err)
	}

	var profile domain.OptimizationProfile
	if err := json.Unmarshal([]byte(payload), &profile); err != nil {
		return nil, false, fmt.Errorf("unmarshal profile: %w", err)
	}
	return &profile, true, nil
}

// Save upserts the profile as the single last-known-good row.
func (s *Store) Save(ctx context.Context, profile *domain.OptimizationProfile) error {
	payload, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO profiles (id, payload, updated_at)
		VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			payload    = excluded.payload,
			updated_at = excluded.updated_at`,
		string(payload),
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// RecordAsset registers a downloaded model asset.
func (s *Store) RecordAsset(ctx context.Context, modelID, localPath string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO model_assets (model_id, local_path, downloaded_at)
		VALUES (?, ?, ?)
		ON CONFLICT (model_id) DO UPDATE SET
			local_path    = excluded.local_path,
			downloaded_at = excluded.downloaded_at`,
		modelID,
		localPath,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("record asset %s: %w", modelID, err)
	}
	return nil
}

// AssetPath returns the recorded local path for a model asset, ok=false when
// the asset was never downloaded.
func (s *Store) AssetPath(ctx context.Context, modelID string) (string, bool, error) {
	var path string
	err := s.db.QueryRowContext(ctx, `SELECT local_path FROM model_assets WHERE model_id = ?`, modelID).Scan(&path)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("lookup asset %s: %w", modelID, err)
	}
	return path, true, nil
}

// DeleteAsset drops the asset record.
func (s *Store) DeleteAsset(ctx context.Context, modelID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM model_assets WHERE model_id = ?`, modelID); err != nil {
		return fmt.Errorf("delete asset %s: %w", modelID, err)
	}
	return nil
}
