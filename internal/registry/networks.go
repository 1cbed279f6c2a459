package registry

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net"
	"sync"

	"warren/internal/domain"
)

// Networks is the registry of networks and their DHCP ranges. Ranges
// are owned by their network and are removed with it.
type Networks struct {
	mu    sync.RWMutex
	store Store
	alloc *Allocator

	machines *Machines // set by New; consulted during Delete

	byID   map[int64]domain.Network
	byName map[string]int64
	order  []int64

	ranges      map[int64]domain.DHCPRange
	rangesByNet map[int64][]int64
}

func loadNetworks(store Store, alloc *Allocator) (*Networks, error) {
	r := &Networks{
		store:       store,
		alloc:       alloc,
		byID:        make(map[int64]domain.Network),
		byName:      make(map[string]int64),
		ranges:      make(map[int64]domain.DHCPRange),
		rangesByNet: make(map[int64][]int64),
	}

	networks, err := store.LoadNetworks()
	if err != nil {
		return nil, err
	}
	for _, n := range networks {
		r.byID[n.ID] = n
		r.byName[n.Name] = n.ID
		r.order = append(r.order, n.ID)
		alloc.Observe(KindNetwork, n.ID)
	}

	dhcpRanges, err := store.LoadDHCPRanges()
	if err != nil {
		return nil, err
	}
	for _, dr := range dhcpRanges {
		alloc.Observe(KindDHCPRange, dr.ID)
		if _, ok := r.byID[dr.NetworkID]; !ok {
			log.Printf("dropping dhcp range %d: references missing network %d", dr.ID, dr.NetworkID)
			continue
		}
		r.ranges[dr.ID] = dr
		r.rangesByNet[dr.NetworkID] = append(r.rangesByNet[dr.NetworkID], dr.ID)
	}

	return r, nil
}

// Create stores a new network. The ID field of n is ignored; the
// assigned record is returned.
func (r *Networks) Create(ctx context.Context, n domain.Network) (domain.Network, error) {
	if _, _, err := net.ParseCIDR(n.Subnet); err != nil {
		return domain.Network{}, fmt.Errorf("subnet %q: %w", n.Subnet, ErrInvalidSubnet)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName[n.Name]; ok {
		return domain.Network{}, fmt.Errorf("network %q: %w", n.Name, ErrDuplicateName)
	}

	id, err := r.alloc.Next(KindNetwork)
	if err != nil {
		return domain.Network{}, err
	}
	n.ID = id

	if err := r.store.InsertNetwork(n); err != nil {
		return domain.Network{}, fmt.Errorf("failed to persist network: %w", err)
	}

	r.byID[id] = n
	r.byName[n.Name] = id
	r.order = append(r.order, id)
	return n, nil
}

// List returns all networks in insertion order.
func (r *Networks) List(ctx context.Context) ([]domain.Network, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	networks := make([]domain.Network, 0, len(r.order))
	for _, id := range r.order {
		networks = append(networks, r.byID[id])
	}
	return networks, nil
}

// GetByID returns the network with the given id.
func (r *Networks) GetByID(ctx context.Context, id int64) (domain.Network, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n, ok := r.byID[id]
	if !ok {
		return domain.Network{}, fmt.Errorf("network %d: %w", id, ErrNotFound)
	}
	return n, nil
}

// GetByName returns the network with the given name.
func (r *Networks) GetByName(ctx context.Context, name string) (domain.Network, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byName[name]
	if !ok {
		return domain.Network{}, fmt.Errorf("network %q: %w", name, ErrNotFound)
	}
	return r.byID[id], nil
}

// Delete removes a network and its DHCP ranges. It fails with
// ErrNetworkInUse while any machine still references the network;
// machines are never cascade-deleted.
func (r *Networks) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("network %d: %w", id, ErrNotFound)
	}

	// Lock order: networks before machines.
	if r.machines.referencesNetwork(id) {
		return fmt.Errorf("network %d: %w", id, ErrNetworkInUse)
	}

	// The store cascades the ranges with the network row.
	if err := r.store.DeleteNetwork(id); err != nil {
		return fmt.Errorf("failed to delete network: %w", err)
	}

	delete(r.byID, id)
	delete(r.byName, n.Name)
	r.order = removeID(r.order, id)
	for _, rangeID := range r.rangesByNet[id] {
		delete(r.ranges, rangeID)
	}
	delete(r.rangesByNet, id)
	return nil
}

// CreateDHCPRange stores a new range under an existing network. Both
// endpoints must be addresses inside the network subnet.
func (r *Networks) CreateDHCPRange(ctx context.Context, dr domain.DHCPRange) (domain.DHCPRange, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.byID[dr.NetworkID]
	if !ok {
		return domain.DHCPRange{}, fmt.Errorf("network %d: %w", dr.NetworkID, ErrUnknownNetwork)
	}
	if err := checkRangeFits(n.Subnet, dr.StartIP, dr.EndIP); err != nil {
		return domain.DHCPRange{}, err
	}

	id, err := r.alloc.Next(KindDHCPRange)
	if err != nil {
		return domain.DHCPRange{}, err
	}
	dr.ID = id

	if err := r.store.InsertDHCPRange(dr); err != nil {
		return domain.DHCPRange{}, fmt.Errorf("failed to persist dhcp range: %w", err)
	}

	r.ranges[id] = dr
	r.rangesByNet[dr.NetworkID] = append(r.rangesByNet[dr.NetworkID], id)
	return dr, nil
}

// DHCPRanges returns the ranges of a network in insertion order.
func (r *Networks) DHCPRanges(ctx context.Context, networkID int64) ([]domain.DHCPRange, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.byID[networkID]; !ok {
		return nil, fmt.Errorf("network %d: %w", networkID, ErrNotFound)
	}
	ids := r.rangesByNet[networkID]
	ranges := make([]domain.DHCPRange, 0, len(ids))
	for _, id := range ids {
		ranges = append(ranges, r.ranges[id])
	}
	return ranges, nil
}

// DeleteDHCPRange removes a single range.
func (r *Networks) DeleteDHCPRange(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	dr, ok := r.ranges[id]
	if !ok {
		return fmt.Errorf("dhcp range %d: %w", id, ErrNotFound)
	}

	if err := r.store.DeleteDHCPRange(id); err != nil {
		return fmt.Errorf("failed to delete dhcp range: %w", err)
	}

	delete(r.ranges, id)
	r.rangesByNet[dr.NetworkID] = removeID(r.rangesByNet[dr.NetworkID], id)
	return nil
}

// checkRangeFits validates that startIP..endIP is an ordered range of
// addresses inside subnet. The subnet was validated at network create.
func checkRangeFits(subnet, startIP, endIP string) error {
	_, cidr, err := net.ParseCIDR(subnet)
	if err != nil {
		return fmt.Errorf("subnet %q: %w", subnet, ErrInvalidSubnet)
	}
	start := net.ParseIP(startIP)
	end := net.ParseIP(endIP)
	if start == nil || end == nil {
		return fmt.Errorf("range %s-%s: %w", startIP, endIP, ErrInvalidRange)
	}
	if !cidr.Contains(start) || !cidr.Contains(end) {
		return fmt.Errorf("range %s-%s outside %s: %w", startIP, endIP, subnet, ErrInvalidRange)
	}
	if bytes.Compare(start.To16(), end.To16()) > 0 {
		return fmt.Errorf("range %s-%s reversed: %w", startIP, endIP, ErrInvalidRange)
	}
	return nil
}

func removeID(ids []int64, id int64) []int64 {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
