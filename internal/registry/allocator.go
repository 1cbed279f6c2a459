package registry

import (
	"fmt"
	"sync"
)

// Resource kinds with independent id sequences.
const (
	KindNetwork   = "network"
	KindMachine   = "machine"
	KindSSHKey    = "ssh_key"
	KindDHCPRange = "dhcp_range"
)

// Allocator hands out strictly increasing ids per resource kind,
// starting at 1. Ids of deleted records are never reused: the highest
// id handed out for each kind is persisted before it is returned, so
// the guarantee holds across restarts.
type Allocator struct {
	mu    sync.Mutex
	store SequenceStore
	last  map[string]int64
}

// NewAllocator builds an allocator seeded from the persisted sequences.
func NewAllocator(store SequenceStore) (*Allocator, error) {
	last, err := store.Sequences()
	if err != nil {
		return nil, fmt.Errorf("failed to load id sequences: %w", err)
	}
	if last == nil {
		last = make(map[string]int64)
	}
	return &Allocator{store: store, last: last}, nil
}

// Next returns the next id for kind.
func (a *Allocator) Next(kind string) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	id := a.last[kind] + 1
	if err := a.store.SetSequence(kind, id); err != nil {
		return 0, fmt.Errorf("failed to persist id sequence for %s: %w", kind, err)
	}
	a.last[kind] = id
	return id, nil
}

// Observe raises the high-water mark for kind to at least id. Used when
// loading existing records whose ids may be ahead of the persisted
// sequence (e.g. a database created before sequences were tracked).
func (a *Allocator) Observe(kind string, id int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if id > a.last[kind] {
		a.last[kind] = id
	}
}
