package registry

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"warren/internal/domain"
)

// SSHKeys is the registry of SSH public keys. Every key belongs to a
// machine and is removed with it.
type SSHKeys struct {
	mu    sync.RWMutex
	store Store
	alloc *Allocator

	machines *Machines // read-locked during Create

	byID      map[int64]domain.SSHKey
	byMachine map[int64][]int64
	order     []int64
}

func loadSSHKeys(store Store, alloc *Allocator, machines *Machines) (*SSHKeys, error) {
	r := &SSHKeys{
		store:     store,
		alloc:     alloc,
		machines:  machines,
		byID:      make(map[int64]domain.SSHKey),
		byMachine: make(map[int64][]int64),
	}

	keys, err := store.LoadSSHKeys()
	if err != nil {
		return nil, err
	}
	for _, k := range keys {
		alloc.Observe(KindSSHKey, k.ID)
		if _, ok := machines.byID[k.MachineID]; !ok {
			log.Printf("dropping ssh key %d: references missing machine %d", k.ID, k.MachineID)
			continue
		}
		r.byID[k.ID] = k
		r.byMachine[k.MachineID] = append(r.byMachine[k.MachineID], k.ID)
		r.order = append(r.order, k.ID)
	}
	return r, nil
}

// Create stores a new key for an existing machine. The machine
// registry's read lock is held across the insert so the machine cannot
// be deleted out from under the new key.
func (r *SSHKeys) Create(ctx context.Context, machineID int64, keyText string) (domain.SSHKey, error) {
	if strings.TrimSpace(keyText) == "" {
		return domain.SSHKey{}, fmt.Errorf("key for machine %d: %w", machineID, ErrEmptyKey)
	}

	// Lock order: machines before SSH keys.
	r.machines.mu.RLock()
	defer r.machines.mu.RUnlock()
	if _, ok := r.machines.byID[machineID]; !ok {
		return domain.SSHKey{}, fmt.Errorf("machine %d: %w", machineID, ErrUnknownMachine)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id, err := r.alloc.Next(KindSSHKey)
	if err != nil {
		return domain.SSHKey{}, err
	}
	k := domain.SSHKey{ID: id, MachineID: machineID, KeyText: keyText}

	if err := r.store.InsertSSHKey(k); err != nil {
		return domain.SSHKey{}, fmt.Errorf("failed to persist ssh key: %w", err)
	}

	r.byID[id] = k
	r.byMachine[machineID] = append(r.byMachine[machineID], id)
	r.order = append(r.order, id)
	return k, nil
}

// List returns all keys in insertion order.
func (r *SSHKeys) List(ctx context.Context) ([]domain.SSHKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]domain.SSHKey, 0, len(r.order))
	for _, id := range r.order {
		keys = append(keys, r.byID[id])
	}
	return keys, nil
}

// ListByMachine returns the keys of one machine in insertion order.
func (r *SSHKeys) ListByMachine(ctx context.Context, machineID int64) ([]domain.SSHKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.byMachine[machineID]
	keys := make([]domain.SSHKey, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, r.byID[id])
	}
	return keys, nil
}

// Delete removes a single key.
func (r *SSHKeys) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("ssh key %d: %w", id, ErrNotFound)
	}

	if err := r.store.DeleteSSHKey(id); err != nil {
		return fmt.Errorf("failed to delete ssh key: %w", err)
	}

	delete(r.byID, id)
	r.byMachine[k.MachineID] = removeID(r.byMachine[k.MachineID], id)
	r.order = removeID(r.order, id)
	return nil
}

// dropMachineLocked removes all keys of a machine from memory. The
// caller (machine delete cascade) holds this registry's write lock; the
// durable rows go away with the machine via the store cascade.
func (r *SSHKeys) dropMachineLocked(machineID int64) {
	for _, id := range r.byMachine[machineID] {
		delete(r.byID, id)
		r.order = removeID(r.order, id)
	}
	delete(r.byMachine, machineID)
}
