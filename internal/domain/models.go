package domain

// Network is a bridged network available to machines.
type Network struct {
	ID          int64  // Unique identifier
	Name        string // Network name, unique across networks
	Bridge      string // Bridge interface name (e.g., "br0")
	Subnet      string // Subnet in CIDR notation (e.g., "192.168.100.0/24")
	Gateway     string // Gateway IP address (optional)
	DNSServers  string // Comma-separated DNS server IPs (optional)
	Description string // Free-form description (optional)
}

// Machine is a virtual machine known to the service.
type Machine struct {
	ID        int64  // Unique identifier
	Name      string // Machine name, unique across machines
	Hostname  string // Hostname served via instance metadata
	IPv4      string // Static IPv4 address (optional)
	NetworkID *int64 // Reference to a Network (optional)
}

// SSHKey is a public key attached to a machine. Keys live and die
// with the machine that owns them.
type SSHKey struct {
	ID        int64  // Unique identifier
	MachineID int64  // Owning machine
	KeyText   string // Public SSH key text
}

// DHCPRange is an address range a network hands out leases from.
type DHCPRange struct {
	ID        int64  // Unique identifier
	NetworkID int64  // Owning network
	StartIP   string // First address of the range
	EndIP     string // Last address of the range
	LeaseTime string // Lease duration (e.g., "12h")
}
