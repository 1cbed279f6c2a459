// Package registry implements the resource registries behind the HTTP
// API: networks, machines, and SSH keys, with referential integrity
// enforced between them. State is held in memory and written through to
// a Store; each registry guards its maps with a single RWMutex held for
// the duration of a call.
//
// Operations that span registries take locks in a fixed order to avoid
// deadlock: networks, then machines, then SSH keys.
package registry

import "fmt"

// Registry bundles the three resource registries. Build one at process
// start with New and pass it by reference to the HTTP layer.
type Registry struct {
	Networks *Networks
	Machines *Machines
	SSHKeys  *SSHKeys
}

// New loads all records from store and wires the registries together.
// Rows whose parent record is missing (a machine on a vanished network,
// a key on a vanished machine) are dropped with a log line rather than
// served; their ids still count toward the allocator's high-water mark.
func New(store Store) (*Registry, error) {
	alloc, err := NewAllocator(store)
	if err != nil {
		return nil, err
	}

	networks, err := loadNetworks(store, alloc)
	if err != nil {
		return nil, fmt.Errorf("failed to load networks: %w", err)
	}
	machines, err := loadMachines(store, alloc, networks)
	if err != nil {
		return nil, fmt.Errorf("failed to load machines: %w", err)
	}
	sshKeys, err := loadSSHKeys(store, alloc, machines)
	if err != nil {
		return nil, fmt.Errorf("failed to load ssh keys: %w", err)
	}

	// Cross-registry wiring for referential integrity checks and
	// cascades. The registries never call each other re-entrantly; see
	// the lock order note in the package comment.
	networks.machines = machines
	machines.sshKeys = sshKeys

	return &Registry{
		Networks: networks,
		Machines: machines,
		SSHKeys:  sshKeys,
	}, nil
}
