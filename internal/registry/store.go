package registry

import "warren/internal/domain"

// SequenceStore persists allocator high-water marks per resource kind.
type SequenceStore interface {
	Sequences() (map[string]int64, error)
	SetSequence(kind string, last int64) error
}

// Store is the persistence backend the registries write through to.
// The registries assign IDs before insert; implementations must store
// them verbatim and return records in id order from the Load methods.
// Deleting a network must also delete its DHCP ranges, and deleting a
// machine its SSH keys (foreign key cascade in the SQLite backend).
type Store interface {
	SequenceStore

	LoadNetworks() ([]domain.Network, error)
	InsertNetwork(n domain.Network) error
	DeleteNetwork(id int64) error

	LoadDHCPRanges() ([]domain.DHCPRange, error)
	InsertDHCPRange(dr domain.DHCPRange) error
	DeleteDHCPRange(id int64) error

	LoadMachines() ([]domain.Machine, error)
	InsertMachine(m domain.Machine) error
	DeleteMachine(id int64) error

	LoadSSHKeys() ([]domain.SSHKey, error)
	InsertSSHKey(k domain.SSHKey) error
	DeleteSSHKey(id int64) error
}
