package store

import (
	"context"
	"time"

	"go.uber.org/zap"

	"bom-server/backend/internal/bom"
	"bom-server/backend/internal/constants"
)

// Saver writes engine snapshots to a Store in the background. Change
// notifications arriving within the debounce window collapse into one save
// of the latest graph.
type Saver struct {
	store    Store
	engine   *bom.Engine
	debounce time.Duration
	logger   *zap.Logger
	notify   chan struct{}
}

// NewSaver creates a saver; hook it up with engine.SetChangeHook(s.Notify)
func NewSaver(store Store, engine *bom.Engine, debounce time.Duration, log *zap.Logger) *Saver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Saver{
		store:    store,
		engine:   engine,
		debounce: debounce,
		logger:   log,
		notify:   make(chan struct{}, 1),
	}
}

// Notify marks the graph dirty. It never blocks.
func (s *Saver) Notify() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Run saves after each quiet period until ctx is cancelled, then flushes
// pending changes once more. Only the final flush error is returned.
func (s *Saver) Run(ctx context.Context) error {
	var (
		timer  *time.Timer
		timerC <-chan time.Time
		dirty  bool
	)
	stop := func() {
		if timer != nil {
			timer.Stop()
		}
		timerC = nil
	}

	for {
		select {
		case <-ctx.Done():
			stop()
			// a notification may be sitting in the channel
			select {
			case <-s.notify:
				dirty = true
			default:
			}
			if !dirty {
				return nil
			}
			return s.Flush(context.Background())

		case <-s.notify:
			dirty = true
			if timerC == nil {
				timer = time.NewTimer(s.debounce)
				timerC = timer.C
			}

		case <-timerC:
			timerC = nil
			if err := s.Flush(ctx); err != nil {
				s.logger.Error("Failed to save snapshot, will retry on next change", zap.Error(err))
				continue
			}
			dirty = false
		}
	}
}

// Flush saves the current graph now
func (s *Saver) Flush(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, constants.SaveTimeoutSeconds*time.Second)
	defer cancel()

	snap := s.engine.Snapshot()
	start := time.Now()
	if err := s.store.Save(ctx, snap); err != nil {
		return err
	}
	s.logger.Debug("Saved snapshot",
		zap.Int("parts", len(snap.Parts)),
		zap.Int("edges", snap.EdgeCount()),
		zap.Duration("latency", time.Since(start)),
	)
	return nil
}
