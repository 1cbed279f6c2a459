package registry

import "errors"

// Registry errors. Callers check these with errors.Is(); the HTTP layer
// maps them to status codes.
var (
	// ErrNotFound is returned when no record has the given id or name.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateName is returned when a create would reuse a name.
	ErrDuplicateName = errors.New("name already in use")

	// ErrDuplicateAddress is returned when a create would reuse a static IPv4.
	ErrDuplicateAddress = errors.New("address already in use")

	// ErrInvalidSubnet is returned when a subnet is not valid CIDR.
	ErrInvalidSubnet = errors.New("subnet is not valid CIDR")

	// ErrInvalidRange is returned when a DHCP range does not fit its subnet.
	ErrInvalidRange = errors.New("range does not fit inside the network subnet")

	// ErrUnknownNetwork is returned when a network reference dangles.
	ErrUnknownNetwork = errors.New("referenced network does not exist")

	// ErrUnknownMachine is returned when a machine reference dangles.
	ErrUnknownMachine = errors.New("referenced machine does not exist")

	// ErrNetworkInUse is returned when deleting a network that machines
	// still reference.
	ErrNetworkInUse = errors.New("network is referenced by a machine")

	// ErrEmptyKey is returned when an SSH key has blank key text.
	ErrEmptyKey = errors.New("ssh key text is empty")
)
