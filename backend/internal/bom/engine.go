// Package bom implements the bill-of-materials part graph: a directed
// acyclic graph of named parts kept consistent under concurrent requests.
package bom

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Engine is the entry point for request handlers. It composes the
// repository, edge manager, classifier and closure resolver behind one
// read/write lock: mutations hold the write lock for their whole duration
// including validation, reads hold the read lock and return copies.
type Engine struct {
	mu         sync.RWMutex
	repo       *Repository
	edges      *EdgeManager
	classifier *Classifier
	closure    *ClosureResolver

	logger   *zap.Logger
	onChange atomic.Pointer[func()]
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the engine logger
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) { e.logger = log }
}

// WithChangeHook registers fn to run after every successful mutation
func WithChangeHook(fn func()) Option {
	return func(e *Engine) { e.SetChangeHook(fn) }
}

// Stats counts parts per category
type Stats struct {
	Parts       int `json:"parts"`
	Edges       int `json:"edges"`
	TopLevel    int `json:"top_level"`
	Subassembly int `json:"subassembly"`
	Component   int `json:"component"`
	Orphan      int `json:"orphan"`
}

// NewEngine creates an engine over an empty graph
func NewEngine(opts ...Option) *Engine {
	e := &Engine{logger: zap.NewNop()}
	e.install(NewRepository())
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) install(repo *Repository) {
	e.repo = repo
	e.edges = NewEdgeManager(repo)
	e.classifier = NewClassifier(repo)
	e.closure = NewClosureResolver(repo)
}

// SetChangeHook replaces the mutation hook. It runs outside the lock.
func (e *Engine) SetChangeHook(fn func()) {
	if fn == nil {
		e.onChange.Store(nil)
		return
	}
	e.onChange.Store(&fn)
}

func (e *Engine) changed() {
	if fn := e.onChange.Load(); fn != nil {
		(*fn)()
	}
}

// CreatePart adds a part with no edges
func (e *Engine) CreatePart(name string) (Part, error) {
	e.mu.Lock()
	id, err := e.repo.Create(name)
	var part Part
	if err == nil {
		part, err = e.repo.Get(id)
	}
	e.mu.Unlock()
	if err != nil {
		return Part{}, err
	}

	e.logger.Info("Part created",
		zap.String("part_id", id.String()),
		zap.String("name", name),
	)
	e.changed()
	return part, nil
}

// GetPart returns a copy of one part
func (e *Engine) GetPart(id uuid.UUID) (Part, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.repo.Get(id)
}

// DeletePart removes a part and every edge touching it. The returned copy
// shows the part as it was just before removal.
func (e *Engine) DeletePart(id uuid.UUID) (Part, error) {
	e.mu.Lock()
	part, err := e.repo.Get(id)
	if err == nil {
		err = e.edges.DeleteCascade(id)
	}
	e.mu.Unlock()
	if err != nil {
		return Part{}, err
	}

	e.logger.Info("Part deleted",
		zap.String("part_id", id.String()),
		zap.Int("parents", len(part.Parents)),
		zap.Int("children", len(part.Children)),
	)
	e.changed()
	return part, nil
}

// ListParts returns all parts matching f in creation order
func (e *Engine) ListParts(f Filter) []Part {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.classifier.ListParts(f)
}

// ListChildren returns the immediate children of id matching f
func (e *Engine) ListChildren(id uuid.UUID, f Filter) ([]Part, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.classifier.ListChildren(id, f)
}

// UpdateChildren changes the children of id and returns the part after
// the change. Either the whole batch applies or nothing does.
func (e *Engine) UpdateChildren(id uuid.UUID, action Action, childIDs []uuid.UUID) (Part, error) {
	e.mu.Lock()
	err := e.edges.UpdateChildren(id, action, childIDs)
	var part Part
	if err == nil {
		part, err = e.repo.Get(id)
	}
	e.mu.Unlock()
	if err != nil {
		e.logger.Debug("Children update rejected",
			zap.String("part_id", id.String()),
			zap.String("action", string(action)),
			zap.Error(err),
		)
		return Part{}, err
	}

	e.logger.Debug("Children updated",
		zap.String("part_id", id.String()),
		zap.String("action", string(action)),
		zap.Int("requested", len(childIDs)),
		zap.Int("children", len(part.Children)),
	)
	e.changed()
	return part, nil
}

// Contained returns every assembly that includes id directly or through
// subassemblies, nearest first.
func (e *Engine) Contained(id uuid.UUID) ([]Part, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ids, err := e.closure.Contained(id)
	if err != nil {
		return nil, err
	}
	return e.repo.views(ids)
}

// ListDescendants returns every part below id matching f
func (e *Engine) ListDescendants(id uuid.UUID, f Filter) ([]Part, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ids, err := e.closure.Descendants(id)
	if err != nil {
		return nil, err
	}
	parts, err := e.repo.views(ids)
	if err != nil {
		return nil, err
	}
	return filterParts(parts, f), nil
}

// Snapshot exports the whole graph
func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return snapshotOf(e.repo)
}

// Restore replaces the graph with the snapshot contents. A snapshot that
// would break any invariant is rejected and the current graph is kept.
// The change hook does not fire: the data came from the store.
func (e *Engine) Restore(s Snapshot) error {
	repo, err := buildRepository(s)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.install(repo)
	e.mu.Unlock()

	e.logger.Info("Graph restored",
		zap.Int("parts", len(s.Parts)),
		zap.Int("edges", s.EdgeCount()),
	)
	return nil
}

// Stats counts parts per category
func (e *Engine) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var st Stats
	for _, n := range e.repo.parts {
		st.Parts++
		st.Edges += n.children.len()
		switch Category(n.parents.len(), n.children.len()) {
		case FilterTopLevel:
			st.TopLevel++
		case FilterSubassembly:
			st.Subassembly++
		case FilterComponent:
			st.Component++
		case FilterOrphan:
			st.Orphan++
		}
	}
	return st
}

// CheckInvariants verifies the whole graph and returns an internal error
// describing the first violation found.
func (e *Engine) CheckInvariants() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return checkInvariants(e.repo)
}
