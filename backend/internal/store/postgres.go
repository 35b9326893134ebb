package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"bom-server/backend/internal/bom"
	"bom-server/backend/internal/constants"
	"bom-server/backend/pkg/config"
	bomerrors "bom-server/backend/pkg/errors"
)

const defaultPostgresDSN = "postgres://localhost/bom?sslmode=disable"

// Postgres stores the snapshot as JSONB in a single bucket table
type Postgres struct {
	db *sql.DB
}

// NewPostgres connects using dsn and ensures the state table exists
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	if dsn == "" {
		dsn = defaultPostgresDSN
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, bomerrors.NewStoreFailed(config.StorePostgres, "open", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, bomerrors.NewStoreFailed(config.StorePostgres, "open", fmt.Errorf("ping postgres: %w", err))
	}
	ddl := `CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload JSONB NOT NULL
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		_ = db.Close()
		return nil, bomerrors.NewStoreFailed(config.StorePostgres, "open", fmt.Errorf("ensure state table: %w", err))
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Load(ctx context.Context) (bom.Snapshot, error) {
	var payload []byte
	err := p.db.QueryRowContext(ctx, `SELECT payload FROM state WHERE bucket = $1`, constants.SnapshotBucket).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return bom.Snapshot{}, nil
	}
	if err != nil {
		return bom.Snapshot{}, bomerrors.NewStoreFailed(config.StorePostgres, "load", err)
	}
	return decodeSnapshot(config.StorePostgres, payload)
}

func (p *Postgres) Save(ctx context.Context, snap bom.Snapshot) (retErr error) {
	data, err := encodeSnapshot(config.StorePostgres, snap)
	if err != nil {
		return err
	}
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return bomerrors.NewStoreFailed(config.StorePostgres, "save", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO state(bucket,payload) VALUES($1,$2) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`,
		constants.SnapshotBucket, data); err != nil {
		return bomerrors.NewStoreFailed(config.StorePostgres, "save", fmt.Errorf("upsert %s: %w", constants.SnapshotBucket, err))
	}
	if err := tx.Commit(); err != nil {
		return bomerrors.NewStoreFailed(config.StorePostgres, "save", err)
	}
	return nil
}

func (p *Postgres) Close() error { return p.db.Close() }
