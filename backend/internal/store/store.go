// Package store persists graph snapshots to a durable backend. The engine
// stays the source of truth while running; a store is read once at startup
// and written behind it by the Saver.
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"bom-server/backend/internal/bom"
	"bom-server/backend/pkg/config"
	bomerrors "bom-server/backend/pkg/errors"
)

// Store loads and saves whole-graph snapshots
type Store interface {
	// Load returns the last saved snapshot, or an empty one when nothing has
	// been saved yet.
	Load(ctx context.Context) (bom.Snapshot, error)
	Save(ctx context.Context, snap bom.Snapshot) error
	Close() error
}

// Open selects the backend named by cfg.StoreBackend
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (Store, error) {
	if log == nil {
		log = zap.NewNop()
	}

	var (
		s   Store
		err error
	)
	switch cfg.StoreBackend {
	case config.StoreMemory, "":
		s = NewMemory()
	case config.StoreSQLite:
		s, err = NewSQLite(ctx, cfg.SQLitePath)
	case config.StorePostgres:
		s, err = NewPostgres(ctx, cfg.PostgresDSN)
	case config.StoreNeo4j:
		s, err = NewNeo4j(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword, log)
	case config.StoreS3:
		s, err = NewS3(ctx, S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			Key:       cfg.S3Key,
			PathStyle: cfg.S3PathStyle,
		})
	default:
		return nil, bomerrors.NewConfigValidationFailed("STORE_BACKEND",
			fmt.Sprintf("unknown backend %q", cfg.StoreBackend))
	}
	if err != nil {
		return nil, err
	}

	log.Info("Opened snapshot store", zap.String("backend", backendName(cfg.StoreBackend)))
	return s, nil
}

func backendName(b string) string {
	if b == "" {
		return config.StoreMemory
	}
	return b
}

func encodeSnapshot(backend string, snap bom.Snapshot) ([]byte, error) {
	if snap.Parts == nil {
		snap.Parts = []bom.SnapshotPart{}
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, bomerrors.NewStoreFailed(backend, "encode", err)
	}
	return data, nil
}

func decodeSnapshot(backend string, data []byte) (bom.Snapshot, error) {
	var snap bom.Snapshot
	if len(data) == 0 {
		return snap, nil
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return bom.Snapshot{}, bomerrors.NewStoreFailed(backend, "decode", err)
	}
	return snap, nil
}
