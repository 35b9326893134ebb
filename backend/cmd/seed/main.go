package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bom-server/backend/internal/bom"
	"bom-server/backend/internal/store"
	"bom-server/backend/pkg/config"
	"bom-server/backend/pkg/logger"
)

// assembly is one entry of the sample bill of materials
type assembly struct {
	name     string
	children []string
}

// sampleBOM is a small bicycle: two levels of subassemblies, a shared
// component and one loose part.
var sampleBOM = []assembly{
	{name: "bicycle", children: []string{"frame", "front wheel", "rear wheel", "drivetrain"}},
	{name: "front wheel", children: []string{"rim", "spoke", "hub", "tire"}},
	{name: "rear wheel", children: []string{"rim", "spoke", "hub", "tire", "cassette"}},
	{name: "drivetrain", children: []string{"crankset", "chain", "cassette"}},
	{name: "crankset", children: []string{"crank arm", "chainring", "pedal"}},
	{name: "frame"},
	{name: "bell"},
}

func main() {
	force := flag.Bool("force", false, "Overwrite the stored graph even if it has parts")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}

	// Initialize logger
	if err := logger.Init(cfg.Env, cfg.LogLevel); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting graph seeding...")

	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration", zap.Error(err))
	}

	ctx := context.Background()
	st, err := store.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to open store", zap.Error(err))
	}
	defer st.Close()

	existing, err := st.Load(ctx)
	if err != nil {
		log.Fatal("Failed to load stored graph", zap.Error(err))
	}
	if len(existing.Parts) > 0 && !*force {
		log.Info("Store already has parts, skipping (use -force to overwrite)",
			zap.Int("parts", len(existing.Parts)),
		)
		os.Exit(0)
	}

	engine := bom.NewEngine(bom.WithLogger(log))
	if err := seed(engine, sampleBOM); err != nil {
		log.Fatal("Failed to build sample graph", zap.Error(err))
	}
	if err := st.Save(ctx, engine.Snapshot()); err != nil {
		log.Fatal("Failed to save sample graph", zap.Error(err))
	}

	stats := engine.Stats()
	log.Info("Seeding completed successfully",
		zap.String("backend", cfg.StoreBackend),
		zap.Int("parts", stats.Parts),
		zap.Int("edges", stats.Edges),
	)
}

// seed creates every named part once and links each assembly to its children
func seed(engine *bom.Engine, entries []assembly) error {
	ids := make(map[string]bom.Part)
	ensure := func(name string) (bom.Part, error) {
		if p, ok := ids[name]; ok {
			return p, nil
		}
		p, err := engine.CreatePart(name)
		if err != nil {
			return bom.Part{}, err
		}
		ids[name] = p
		return p, nil
	}

	for _, entry := range entries {
		parent, err := ensure(entry.name)
		if err != nil {
			return err
		}
		if len(entry.children) == 0 {
			continue
		}
		childIDs := make([]uuid.UUID, 0, len(entry.children))
		for _, name := range entry.children {
			child, err := ensure(name)
			if err != nil {
				return err
			}
			childIDs = append(childIDs, child.ID)
		}
		if _, err := engine.UpdateChildren(parent.ID, bom.ActionAdd, childIDs); err != nil {
			return fmt.Errorf("link %s: %w", entry.name, err)
		}
	}
	return engine.CheckInvariants()
}
