package store

import (
	"context"
	"sync"

	"bom-server/backend/internal/bom"
	"bom-server/backend/pkg/config"
)

// Memory keeps the last saved snapshot in process. Saved data is stored in
// encoded form so later changes to the caller's slices cannot leak in.
type Memory struct {
	mu    sync.Mutex
	data  []byte
	saves int
}

// NewMemory creates an empty in-process store
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Load(_ context.Context) (bom.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return decodeSnapshot(config.StoreMemory, m.data)
}

func (m *Memory) Save(_ context.Context, snap bom.Snapshot) error {
	data, err := encodeSnapshot(config.StoreMemory, snap)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = data
	m.saves++
	return nil
}

// Saves reports how many times Save succeeded
func (m *Memory) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func (m *Memory) Close() error { return nil }
