package api

import (
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"warren/internal/domain"
	"warren/internal/registry"
)

// machineForRequest resolves the machine making a metadata request from
// its IP. On failure the response has already been written.
func (a *API) machineForRequest(w http.ResponseWriter, r *http.Request) (domain.Machine, bool) {
	ip, err := clientIP(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return domain.Machine{}, false
	}
	machine, err := a.reg.Machines.GetByIPv4(r.Context(), ip)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			http.Error(w, "machine not found for IP", http.StatusNotFound)
		} else {
			log.Printf("failed to look up machine for %s: %v", ip, err)
			http.Error(w, "failed to look up machine by IP", http.StatusInternalServerError)
		}
		return domain.Machine{}, false
	}
	return machine, true
}

func writeText(w http.ResponseWriter, contentType, body string) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(body)); err != nil {
		log.Printf("failed to write metadata response: %v", err)
	}
}

func instanceID(m domain.Machine) string {
	return fmt.Sprintf("iid-%08d", m.ID)
}

// metaDataHandler serves the NoCloud meta-data document.
func (a *API) metaDataHandler(w http.ResponseWriter, r *http.Request) {
	machine, ok := a.machineForRequest(w, r)
	if !ok {
		return
	}
	meta := fmt.Sprintf(
		"instance-id: %s\n"+
			"hostname: %s\n"+
			"local-hostname: %s\n"+
			"local-ipv4: %s\n"+
			"public-hostname: %s\n"+
			"security-groups: default\n",
		instanceID(machine),
		machine.Hostname,
		machine.Hostname,
		machine.IPv4,
		machine.Hostname,
	)
	writeText(w, "text/yaml", meta)
}

// metaDataDirectoryHandler lists the available metadata keys.
func (a *API) metaDataDirectoryHandler(w http.ResponseWriter, r *http.Request) {
	writeText(w, "text/plain",
		"instance-id\nhostname\nlocal-hostname\nlocal-ipv4\npublic-hostname\nsecurity-groups\n")
}

// metaDataKeyHandler serves a single metadata key.
func (a *API) metaDataKeyHandler(w http.ResponseWriter, r *http.Request) {
	machine, ok := a.machineForRequest(w, r)
	if !ok {
		return
	}

	var value string
	switch chi.URLParam(r, "key") {
	case "instance-id":
		value = instanceID(machine)
	case "hostname", "local-hostname", "public-hostname":
		value = machine.Hostname
	case "local-ipv4":
		value = machine.IPv4
	case "security-groups":
		value = "default"
	default:
		http.Error(w, "unknown metadata key", http.StatusNotFound)
		return
	}
	writeText(w, "text/plain", value+"\n")
}

func (a *API) userDataHandler(w http.ResponseWriter, r *http.Request) {
	writeText(w, "text/plain", "#cloud-config\nmanage_etc_hosts: true\n")
}

func (a *API) vendorDataHandler(w http.ResponseWriter, r *http.Request) {
	writeText(w, "text/plain", "")
}

// networkConfigHandler renders a NoCloud network-config v2 document. A
// machine with a static address on a known network gets a static
// configuration from the network record; everything else falls back to
// DHCP.
func (a *API) networkConfigHandler(w http.ResponseWriter, r *http.Request) {
	dhcpFallback := "version: 2\nethernets:\n  eth0:\n    dhcp4: true\n"

	machine, ok := a.machineForRequest(w, r)
	if !ok {
		return
	}
	if machine.NetworkID == nil || machine.IPv4 == "" {
		writeText(w, "text/yaml", dhcpFallback)
		return
	}
	network, err := a.reg.Networks.GetByID(r.Context(), *machine.NetworkID)
	if err != nil {
		log.Printf("failed to load network %d for machine %d: %v", *machine.NetworkID, machine.ID, err)
		writeText(w, "text/yaml", dhcpFallback)
		return
	}

	_, cidr, err := net.ParseCIDR(network.Subnet)
	if err != nil {
		writeText(w, "text/yaml", dhcpFallback)
		return
	}
	prefixLen, _ := cidr.Mask.Size()

	var b strings.Builder
	b.WriteString("version: 2\nethernets:\n  eth0:\n")
	fmt.Fprintf(&b, "    addresses: [%s/%d]\n", machine.IPv4, prefixLen)
	if network.Gateway != "" {
		fmt.Fprintf(&b, "    gateway4: %s\n", network.Gateway)
	}
	if network.DNSServers != "" {
		servers := strings.Split(network.DNSServers, ",")
		for i := range servers {
			servers[i] = strings.TrimSpace(servers[i])
		}
		fmt.Fprintf(&b, "    nameservers:\n      addresses: [%s]\n", strings.Join(servers, ", "))
	}
	writeText(w, "text/yaml", b.String())
}

// publicKeysHandler serves the requesting machine's keys, one per line.
func (a *API) publicKeysHandler(w http.ResponseWriter, r *http.Request) {
	machine, ok := a.machineForRequest(w, r)
	if !ok {
		return
	}
	keys, err := a.reg.SSHKeys.ListByMachine(r.Context(), machine.ID)
	if err != nil {
		http.Error(w, "failed to list SSH keys", http.StatusInternalServerError)
		return
	}
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k.KeyText)
		b.WriteString("\n")
	}
	writeText(w, "text/plain", b.String())
}

// publicKeyByIdxHandler serves one key by its position in the machine's
// key list.
func (a *API) publicKeyByIdxHandler(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.Atoi(chi.URLParam(r, "idx"))
	if err != nil {
		http.Error(w, "invalid key index", http.StatusBadRequest)
		return
	}
	machine, ok := a.machineForRequest(w, r)
	if !ok {
		return
	}
	keys, err := a.reg.SSHKeys.ListByMachine(r.Context(), machine.ID)
	if err != nil {
		http.Error(w, "failed to list SSH keys", http.StatusInternalServerError)
		return
	}
	if idx < 0 || idx >= len(keys) {
		http.Error(w, "key index out of range", http.StatusNotFound)
		return
	}
	writeText(w, "text/plain", keys[idx].KeyText+"\n")
}

// instanceIdentityHandler serves an EC2-compatible identity document.
func (a *API) instanceIdentityHandler(w http.ResponseWriter, r *http.Request) {
	machine, ok := a.machineForRequest(w, r)
	if !ok {
		return
	}
	doc := map[string]any{
		"instanceId":       instanceID(machine),
		"privateIp":        machine.IPv4,
		"hostname":         machine.Hostname,
		"region":           "local-nocloud",
		"availabilityZone": "local-nocloud-az",
		"architecture":     "x86_64",
		"instanceType":     "nocloud",
	}
	writeJSON(w, http.StatusOK, doc)
}
