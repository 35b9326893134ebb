package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"bom-server/backend/internal/bom"
	"bom-server/backend/internal/constants"
	"bom-server/backend/pkg/config"
	bomerrors "bom-server/backend/pkg/errors"
)

// SQLite stores the snapshot as a JSON blob in a single bucket table
type SQLite struct {
	db   *sql.DB
	path string
}

// NewSQLite opens (or creates) the database file at path
func NewSQLite(ctx context.Context, path string) (*SQLite, error) {
	if path == "" {
		path = "bom.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, bomerrors.NewStoreFailed(config.StoreSQLite, "open", fmt.Errorf("create dirs: %w", err))
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, bomerrors.NewStoreFailed(config.StoreSQLite, "open", err)
	}
	// one writer at a time; the driver serialises anyway
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, bomerrors.NewStoreFailed(config.StoreSQLite, "open", fmt.Errorf("create state table: %w", err))
	}
	return &SQLite{db: db, path: path}, nil
}

func (s *SQLite) Load(ctx context.Context) (bom.Snapshot, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM state WHERE bucket = ?`, constants.SnapshotBucket).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return bom.Snapshot{}, nil
	}
	if err != nil {
		return bom.Snapshot{}, bomerrors.NewStoreFailed(config.StoreSQLite, "load", err)
	}
	return decodeSnapshot(config.StoreSQLite, payload)
}

func (s *SQLite) Save(ctx context.Context, snap bom.Snapshot) (retErr error) {
	data, err := encodeSnapshot(config.StoreSQLite, snap)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return bomerrors.NewStoreFailed(config.StoreSQLite, "save", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`,
		constants.SnapshotBucket, data); err != nil {
		return bomerrors.NewStoreFailed(config.StoreSQLite, "save", fmt.Errorf("upsert %s: %w", constants.SnapshotBucket, err))
	}
	if err := tx.Commit(); err != nil {
		return bomerrors.NewStoreFailed(config.StoreSQLite, "save", err)
	}
	return nil
}

// Path returns the database file path
func (s *SQLite) Path() string { return s.path }

func (s *SQLite) Close() error { return s.db.Close() }
