// Package datastore persists registry state in SQLite. Ids are assigned
// by the registries and stored verbatim; this package is plain
// row-in/row-out plumbing.
package datastore

import (
	"database/sql"
	"log"

	_ "modernc.org/sqlite"

	"warren/internal/domain"
)

type Datastore struct {
	DB *sql.DB
}

// New wraps an already opened and migrated database handle.
func New(db *sql.DB) *Datastore {
	return &Datastore{DB: db}
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		log.Printf("failed to close rows: %v", err)
	}
}

// LoadNetworks returns all networks ordered by id.
func (ds *Datastore) LoadNetworks() ([]domain.Network, error) {
	rows, err := ds.DB.Query(`SELECT id, name, bridge, subnet, gateway, dns_servers, description
		FROM networks ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var networks []domain.Network
	for rows.Next() {
		var n domain.Network
		if err := rows.Scan(&n.ID, &n.Name, &n.Bridge, &n.Subnet, &n.Gateway, &n.DNSServers, &n.Description); err != nil {
			return nil, err
		}
		networks = append(networks, n)
	}
	return networks, rows.Err()
}

// InsertNetwork stores a network with its pre-assigned id.
func (ds *Datastore) InsertNetwork(n domain.Network) error {
	_, err := ds.DB.Exec(`INSERT INTO networks (id, name, bridge, subnet, gateway, dns_servers, description)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.Name, n.Bridge, n.Subnet, n.Gateway, n.DNSServers, n.Description)
	return err
}

// DeleteNetwork removes a network. Its DHCP ranges go with it via the
// foreign key cascade.
func (ds *Datastore) DeleteNetwork(id int64) error {
	_, err := ds.DB.Exec("DELETE FROM networks WHERE id = ?", id)
	return err
}

// LoadDHCPRanges returns all DHCP ranges ordered by id.
func (ds *Datastore) LoadDHCPRanges() ([]domain.DHCPRange, error) {
	rows, err := ds.DB.Query(`SELECT id, network_id, start_ip, end_ip, lease_time
		FROM dhcp_ranges ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var ranges []domain.DHCPRange
	for rows.Next() {
		var dr domain.DHCPRange
		if err := rows.Scan(&dr.ID, &dr.NetworkID, &dr.StartIP, &dr.EndIP, &dr.LeaseTime); err != nil {
			return nil, err
		}
		ranges = append(ranges, dr)
	}
	return ranges, rows.Err()
}

// InsertDHCPRange stores a range with its pre-assigned id.
func (ds *Datastore) InsertDHCPRange(dr domain.DHCPRange) error {
	_, err := ds.DB.Exec(`INSERT INTO dhcp_ranges (id, network_id, start_ip, end_ip, lease_time)
		VALUES (?, ?, ?, ?, ?)`,
		dr.ID, dr.NetworkID, dr.StartIP, dr.EndIP, dr.LeaseTime)
	return err
}

// DeleteDHCPRange removes a single range.
func (ds *Datastore) DeleteDHCPRange(id int64) error {
	_, err := ds.DB.Exec("DELETE FROM dhcp_ranges WHERE id = ?", id)
	return err
}

// LoadMachines returns all machines ordered by id.
func (ds *Datastore) LoadMachines() ([]domain.Machine, error) {
	rows, err := ds.DB.Query(`SELECT id, name, hostname, ipv4, network_id
		FROM machines ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var machines []domain.Machine
	for rows.Next() {
		var m domain.Machine
		var networkID sql.NullInt64
		if err := rows.Scan(&m.ID, &m.Name, &m.Hostname, &m.IPv4, &networkID); err != nil {
			return nil, err
		}
		if networkID.Valid {
			m.NetworkID = &networkID.Int64
		}
		machines = append(machines, m)
	}
	return machines, rows.Err()
}

// InsertMachine stores a machine with its pre-assigned id.
func (ds *Datastore) InsertMachine(m domain.Machine) error {
	_, err := ds.DB.Exec(`INSERT INTO machines (id, name, hostname, ipv4, network_id)
		VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.Name, m.Hostname, m.IPv4, m.NetworkID)
	return err
}

// DeleteMachine removes a machine. Its SSH keys go with it via the
// foreign key cascade.
func (ds *Datastore) DeleteMachine(id int64) error {
	_, err := ds.DB.Exec("DELETE FROM machines WHERE id = ?", id)
	return err
}

// LoadSSHKeys returns all SSH keys ordered by id.
func (ds *Datastore) LoadSSHKeys() ([]domain.SSHKey, error) {
	rows, err := ds.DB.Query("SELECT id, machine_id, key_text FROM ssh_keys ORDER BY id ASC")
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var keys []domain.SSHKey
	for rows.Next() {
		var k domain.SSHKey
		if err := rows.Scan(&k.ID, &k.MachineID, &k.KeyText); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// InsertSSHKey stores a key with its pre-assigned id.
func (ds *Datastore) InsertSSHKey(k domain.SSHKey) error {
	_, err := ds.DB.Exec("INSERT INTO ssh_keys (id, machine_id, key_text) VALUES (?, ?, ?)",
		k.ID, k.MachineID, k.KeyText)
	return err
}

// DeleteSSHKey removes a single key.
func (ds *Datastore) DeleteSSHKey(id int64) error {
	_, err := ds.DB.Exec("DELETE FROM ssh_keys WHERE id = ?", id)
	return err
}

// Sequences returns the persisted id high-water marks per resource kind.
func (ds *Datastore) Sequences() (map[string]int64, error) {
	rows, err := ds.DB.Query("SELECT kind, last_id FROM id_sequences")
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	sequences := make(map[string]int64)
	for rows.Next() {
		var kind string
		var last int64
		if err := rows.Scan(&kind, &last); err != nil {
			return nil, err
		}
		sequences[kind] = last
	}
	return sequences, rows.Err()
}

// SetSequence records the highest id handed out for a resource kind.
func (ds *Datastore) SetSequence(kind string, last int64) error {
	_, err := ds.DB.Exec(`INSERT INTO id_sequences (kind, last_id) VALUES (?, ?)
		ON CONFLICT(kind) DO UPDATE SET last_id = excluded.last_id`, kind, last)
	return err
}
