package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"bom-server/backend/internal/bom"
	"bom-server/backend/pkg/config"
	bomerrors "bom-server/backend/pkg/errors"
)

// Neo4j mirrors the graph as (:Part)-[:CONTAINS]->(:Part). Each save
// replaces the stored graph inside one write transaction.
type Neo4j struct {
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

// NewNeo4j connects to uri and verifies connectivity
func NewNeo4j(ctx context.Context, uri, user, password string, log *zap.Logger) (*Neo4j, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, bomerrors.NewStoreFailed(config.StoreNeo4j, "open", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, bomerrors.NewStoreFailed(config.StoreNeo4j, "open", fmt.Errorf("verify connectivity: %w", err))
	}
	n := NewNeo4jFromDriver(driver, log)
	n.ensureSchema(ctx)
	return n, nil
}

// ensureSchema creates the id constraint and seq index. Failures are logged
// and ignored.
func (n *Neo4j) ensureSchema(ctx context.Context) {
	session := n.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	statements := []string{
		"CREATE CONSTRAINT part_id_unique IF NOT EXISTS FOR (p:Part) REQUIRE p.id IS UNIQUE",
		"CREATE INDEX part_seq IF NOT EXISTS FOR (p:Part) ON (p.seq)",
	}
	for _, stmt := range statements {
		if _, err := session.Run(ctx, stmt, nil); err != nil {
			n.logger.Warn("Failed to apply neo4j schema statement", zap.String("statement", stmt), zap.Error(err))
		}
	}
}

// NewNeo4jFromDriver wraps an already connected driver
func NewNeo4jFromDriver(driver neo4j.DriverWithContext, log *zap.Logger) *Neo4j {
	if log == nil {
		log = zap.NewNop()
	}
	return &Neo4j{driver: driver, logger: log}
}

func (n *Neo4j) Load(ctx context.Context) (bom.Snapshot, error) {
	session := n.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	snap, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return readSnapshot(ctx, tx)
	})
	if err != nil {
		return bom.Snapshot{}, bomerrors.NewStoreFailed(config.StoreNeo4j, "load", err)
	}
	return snap.(bom.Snapshot), nil
}

func readSnapshot(ctx context.Context, tx neo4j.ManagedTransaction) (bom.Snapshot, error) {
	result, err := tx.Run(ctx, `
		MATCH (p:Part)
		RETURN p.id AS id, p.name AS name
		ORDER BY p.seq
	`, nil)
	if err != nil {
		return bom.Snapshot{}, fmt.Errorf("failed to execute query: %w", err)
	}

	var snap bom.Snapshot
	index := make(map[uuid.UUID]int)
	for result.Next(ctx) {
		record := result.Record()
		id, err := uuidFromRecord(record, "id")
		if err != nil {
			return bom.Snapshot{}, err
		}
		index[id] = len(snap.Parts)
		snap.Parts = append(snap.Parts, bom.SnapshotPart{
			ID:   id,
			Name: getStringFromRecord(record, "name"),
		})
	}
	if err := result.Err(); err != nil {
		return bom.Snapshot{}, fmt.Errorf("failed to read parts: %w", err)
	}

	result, err = tx.Run(ctx, `
		MATCH (p:Part)-[r:CONTAINS]->(c:Part)
		RETURN p.id AS parent, c.id AS child
		ORDER BY p.seq, r.position
	`, nil)
	if err != nil {
		return bom.Snapshot{}, fmt.Errorf("failed to execute query: %w", err)
	}
	for result.Next(ctx) {
		record := result.Record()
		parent, err := uuidFromRecord(record, "parent")
		if err != nil {
			return bom.Snapshot{}, err
		}
		child, err := uuidFromRecord(record, "child")
		if err != nil {
			return bom.Snapshot{}, err
		}
		i, ok := index[parent]
		if !ok {
			return bom.Snapshot{}, fmt.Errorf("edge from unknown part %s", parent)
		}
		snap.Parts[i].Children = append(snap.Parts[i].Children, child)
	}
	if err := result.Err(); err != nil {
		return bom.Snapshot{}, fmt.Errorf("failed to read edges: %w", err)
	}
	return snap, nil
}

func (n *Neo4j) Save(ctx context.Context, snap bom.Snapshot) error {
	session := n.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	parts := make([]map[string]any, 0, len(snap.Parts))
	edges := make([]map[string]any, 0, snap.EdgeCount())
	for seq, p := range snap.Parts {
		parts = append(parts, map[string]any{
			"id":   p.ID.String(),
			"name": p.Name,
			"seq":  int64(seq),
		})
		for pos, c := range p.Children {
			edges = append(edges, map[string]any{
				"parent":   p.ID.String(),
				"child":    c.String(),
				"position": int64(pos),
			})
		}
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx, `MATCH (p:Part) DETACH DELETE p`, nil); err != nil {
			return nil, fmt.Errorf("failed to clear parts: %w", err)
		}
		if _, err := tx.Run(ctx, `
			UNWIND $parts AS part
			CREATE (:Part {id: part.id, name: part.name, seq: part.seq})
		`, map[string]any{"parts": parts}); err != nil {
			return nil, fmt.Errorf("failed to create parts: %w", err)
		}
		if _, err := tx.Run(ctx, `
			UNWIND $edges AS edge
			MATCH (p:Part {id: edge.parent}), (c:Part {id: edge.child})
			CREATE (p)-[:CONTAINS {position: edge.position}]->(c)
		`, map[string]any{"edges": edges}); err != nil {
			return nil, fmt.Errorf("failed to create edges: %w", err)
		}
		return nil, nil
	})
	if err != nil {
		return bomerrors.NewStoreFailed(config.StoreNeo4j, "save", err)
	}

	n.logger.Debug("Saved graph to neo4j",
		zap.Int("parts", len(parts)),
		zap.Int("edges", len(edges)),
	)
	return nil
}

// Close closes the Neo4j driver connection
func (n *Neo4j) Close() error {
	return n.driver.Close(context.Background())
}

func getStringFromRecord(record *neo4j.Record, key string) string {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return ""
	}
	if str, ok := val.(string); ok {
		return str
	}
	return ""
}

func uuidFromRecord(record *neo4j.Record, key string) (uuid.UUID, error) {
	raw := getStringFromRecord(record, key)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("bad %s %q: %w", key, raw, err)
	}
	return id, nil
}
