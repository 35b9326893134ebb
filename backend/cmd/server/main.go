package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"bom-server/backend/internal/api"
	"bom-server/backend/internal/bom"
	"bom-server/backend/internal/store"
	"bom-server/backend/pkg/config"
	"bom-server/backend/pkg/logger"
)

func main() {
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
	log.Info("Starting BOM server...")

	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize server", zap.Error(err))
	}
	defer a.close()

	if err := a.serve(ctx); err != nil {
		log.Error("Server stopped with error", zap.Error(err))
		return
	}
	log.Info("Server exited")
}

// app wires the engine, its store and the HTTP server together
type app struct {
	cfg    *config.Config
	log    *zap.Logger
	engine *bom.Engine
	store  store.Store
	saver  *store.Saver
	srv    *http.Server
}

func newApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*app, error) {
	st, err := store.Open(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	snap, err := st.Load(ctx)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	engine := bom.NewEngine(bom.WithLogger(log))
	if err := engine.Restore(snap); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("restore snapshot: %w", err)
	}
	stats := engine.Stats()
	log.Info("Graph restored",
		zap.String("backend", cfg.StoreBackend),
		zap.Int("parts", stats.Parts),
		zap.Int("edges", stats.Edges),
	)

	saver := store.NewSaver(st, engine, cfg.SaveDebounce, log)
	engine.SetChangeHook(saver.Notify)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	router := api.NewRouter(engine, api.RouterConfig{
		Logger:     log,
		Registry:   reg,
		Production: cfg.IsProduction(),
	})

	return &app{
		cfg:    cfg,
		log:    log,
		engine: engine,
		store:  st,
		saver:  saver,
		srv: &http.Server{
			Addr:    ":" + cfg.Port,
			Handler: router,
		},
	}, nil
}

// serve runs until ctx is cancelled or the listener fails, then drains
// requests and flushes the last snapshot.
func (a *app) serve(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	// the saver outlives the HTTP server so late writes are flushed
	saverCtx, stopSaver := context.WithCancel(context.Background())
	defer stopSaver()

	g.Go(func() error {
		a.log.Info("Server started", zap.String("port", a.cfg.Port))
		if err := a.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return a.saver.Run(saverCtx)
	})

	g.Go(func() error {
		<-gctx.Done()
		a.log.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		err := a.srv.Shutdown(shutdownCtx)
		if err != nil {
			a.log.Error("Server forced to shutdown", zap.Error(err))
		}
		stopSaver()
		return err
	})

	return g.Wait()
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.log.Error("Failed to close store", zap.Error(err))
	}
}
