package migrations

import "database/sql"

// All returns every migration the service knows about, oldest first.
func All() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_core_tables",
			Up: func(tx *sql.Tx) error {
				stmts := []string{
					`CREATE TABLE networks (
						id INTEGER PRIMARY KEY,
						name TEXT NOT NULL UNIQUE,
						bridge TEXT NOT NULL,
						subnet TEXT NOT NULL,
						gateway TEXT NOT NULL DEFAULT '',
						dns_servers TEXT NOT NULL DEFAULT '',
						description TEXT NOT NULL DEFAULT '',
						created_at DATETIME DEFAULT CURRENT_TIMESTAMP
					)`,
					`CREATE TABLE machines (
						id INTEGER PRIMARY KEY,
						name TEXT NOT NULL UNIQUE,
						hostname TEXT NOT NULL,
						ipv4 TEXT NOT NULL DEFAULT '',
						network_id INTEGER REFERENCES networks(id),
						created_at DATETIME DEFAULT CURRENT_TIMESTAMP
					)`,
					`CREATE TABLE ssh_keys (
						id INTEGER PRIMARY KEY,
						machine_id INTEGER NOT NULL,
						key_text TEXT NOT NULL,
						created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
						FOREIGN KEY (machine_id) REFERENCES machines(id) ON DELETE CASCADE
					)`,
					`CREATE TABLE dhcp_ranges (
						id INTEGER PRIMARY KEY,
						network_id INTEGER NOT NULL,
						start_ip TEXT NOT NULL,
						end_ip TEXT NOT NULL,
						lease_time TEXT NOT NULL DEFAULT '12h',
						created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
						FOREIGN KEY (network_id) REFERENCES networks(id) ON DELETE CASCADE
					)`,
					`CREATE TABLE id_sequences (
						kind TEXT PRIMARY KEY,
						last_id INTEGER NOT NULL
					)`,
				}
				for _, stmt := range stmts {
					if _, err := tx.Exec(stmt); err != nil {
						return err
					}
				}
				return nil
			},
			Down: func(tx *sql.Tx) error {
				// Reverse creation order to satisfy foreign keys.
				for _, table := range []string{"id_sequences", "dhcp_ranges", "ssh_keys", "machines", "networks"} {
					if _, err := tx.Exec("DROP TABLE IF EXISTS " + table); err != nil {
						return err
					}
				}
				return nil
			},
		},
		{
			Version: 2,
			Name:    "add_lookup_indexes",
			Up: func(tx *sql.Tx) error {
				stmts := []string{
					`CREATE UNIQUE INDEX IF NOT EXISTS idx_machines_ipv4 ON machines(ipv4) WHERE ipv4 != ''`,
					`CREATE INDEX IF NOT EXISTS idx_machines_network_id ON machines(network_id)`,
					`CREATE INDEX IF NOT EXISTS idx_ssh_keys_machine_id ON ssh_keys(machine_id)`,
					`CREATE INDEX IF NOT EXISTS idx_dhcp_ranges_network_id ON dhcp_ranges(network_id)`,
				}
				for _, stmt := range stmts {
					if _, err := tx.Exec(stmt); err != nil {
						return err
					}
				}
				return nil
			},
			Down: func(tx *sql.Tx) error {
				for _, index := range []string{"idx_machines_ipv4", "idx_machines_network_id", "idx_ssh_keys_machine_id", "idx_dhcp_ranges_network_id"} {
					if _, err := tx.Exec("DROP INDEX IF EXISTS " + index); err != nil {
						return err
					}
				}
				return nil
			},
		},
	}
}
