package registry

import (
	"context"
	"fmt"
	"log"
	"sync"

	"warren/internal/domain"
)

// Machines is the registry of machines. A machine may hold a non-owning
// reference to a network; the reference is validated at create time and
// guards the network against deletion while it stands.
type Machines struct {
	mu    sync.RWMutex
	store Store
	alloc *Allocator

	networks *Networks // read-locked during Create
	sshKeys  *SSHKeys  // set by New; write-locked during Delete for the cascade

	byID   map[int64]domain.Machine
	byName map[string]int64
	byIPv4 map[string]int64 // only machines with a static address
	order  []int64
}

func loadMachines(store Store, alloc *Allocator, networks *Networks) (*Machines, error) {
	r := &Machines{
		store:    store,
		alloc:    alloc,
		networks: networks,
		byID:     make(map[int64]domain.Machine),
		byName:   make(map[string]int64),
		byIPv4:   make(map[string]int64),
	}

	machines, err := store.LoadMachines()
	if err != nil {
		return nil, err
	}
	for _, m := range machines {
		alloc.Observe(KindMachine, m.ID)
		if m.NetworkID != nil {
			if _, ok := networks.byID[*m.NetworkID]; !ok {
				log.Printf("dropping machine %d (%s): references missing network %d", m.ID, m.Name, *m.NetworkID)
				continue
			}
		}
		r.byID[m.ID] = m
		r.byName[m.Name] = m.ID
		if m.IPv4 != "" {
			r.byIPv4[m.IPv4] = m.ID
		}
		r.order = append(r.order, m.ID)
	}
	return r, nil
}

// Create stores a new machine. If m.NetworkID is set the referenced
// network must exist; the network registry's read lock is held across
// the insert so the network cannot vanish mid-create.
func (r *Machines) Create(ctx context.Context, m domain.Machine) (domain.Machine, error) {
	// Lock order: networks before machines.
	if m.NetworkID != nil {
		r.networks.mu.RLock()
		defer r.networks.mu.RUnlock()
		if _, ok := r.networks.byID[*m.NetworkID]; !ok {
			return domain.Machine{}, fmt.Errorf("network %d: %w", *m.NetworkID, ErrUnknownNetwork)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName[m.Name]; ok {
		return domain.Machine{}, fmt.Errorf("machine %q: %w", m.Name, ErrDuplicateName)
	}
	if m.IPv4 != "" {
		if _, ok := r.byIPv4[m.IPv4]; ok {
			return domain.Machine{}, fmt.Errorf("machine address %s: %w", m.IPv4, ErrDuplicateAddress)
		}
	}

	id, err := r.alloc.Next(KindMachine)
	if err != nil {
		return domain.Machine{}, err
	}
	m.ID = id

	if err := r.store.InsertMachine(m); err != nil {
		return domain.Machine{}, fmt.Errorf("failed to persist machine: %w", err)
	}

	r.byID[id] = m
	r.byName[m.Name] = id
	if m.IPv4 != "" {
		r.byIPv4[m.IPv4] = id
	}
	r.order = append(r.order, id)
	return m, nil
}

// List returns all machines in insertion order.
func (r *Machines) List(ctx context.Context) ([]domain.Machine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	machines := make([]domain.Machine, 0, len(r.order))
	for _, id := range r.order {
		machines = append(machines, r.byID[id])
	}
	return machines, nil
}

// GetByID returns the machine with the given id.
func (r *Machines) GetByID(ctx context.Context, id int64) (domain.Machine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.byID[id]
	if !ok {
		return domain.Machine{}, fmt.Errorf("machine %d: %w", id, ErrNotFound)
	}
	return m, nil
}

// GetByName returns the machine with the given name.
func (r *Machines) GetByName(ctx context.Context, name string) (domain.Machine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byName[name]
	if !ok {
		return domain.Machine{}, fmt.Errorf("machine %q: %w", name, ErrNotFound)
	}
	return r.byID[id], nil
}

// GetByIPv4 returns the machine with the given static address. Used by
// the instance metadata endpoints to identify the caller.
func (r *Machines) GetByIPv4(ctx context.Context, ipv4 string) (domain.Machine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byIPv4[ipv4]
	if !ok {
		return domain.Machine{}, fmt.Errorf("machine address %s: %w", ipv4, ErrNotFound)
	}
	return r.byID[id], nil
}

// Delete removes a machine and cascades its SSH keys. Both write locks
// are held across the cascade, so readers never observe a deleted
// machine with surviving keys.
func (r *Machines) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("machine %d: %w", id, ErrNotFound)
	}

	// Lock order: machines before SSH keys.
	r.sshKeys.mu.Lock()
	defer r.sshKeys.mu.Unlock()

	// The store cascades the keys with the machine row.
	if err := r.store.DeleteMachine(id); err != nil {
		return fmt.Errorf("failed to delete machine: %w", err)
	}

	r.sshKeys.dropMachineLocked(id)
	delete(r.byID, id)
	delete(r.byName, m.Name)
	if m.IPv4 != "" {
		delete(r.byIPv4, m.IPv4)
	}
	r.order = removeID(r.order, id)
	return nil
}

// referencesNetwork reports whether any machine references networkID.
// Called by the network registry while it holds its own write lock.
func (r *Machines) referencesNetwork(networkID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, m := range r.byID {
		if m.NetworkID != nil && *m.NetworkID == networkID {
			return true
		}
	}
	return false
}
