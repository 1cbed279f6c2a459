package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListNetworks_Empty(t *testing.T) {
	r := setupTestAPI(t, "TestListNetworks_Empty")

	w := doJSON(t, r, "GET", "/api/v0/networks", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]\n", w.Body.String())
}

func TestCreateNetwork(t *testing.T) {
	r := setupTestAPI(t, "TestCreateNetwork")

	w := doJSON(t, r, "POST", "/api/v0/networks", CreateNetworkRequest{
		Name:       "lan",
		Bridge:     "br0",
		Subnet:     "192.168.1.0/24",
		Gateway:    "192.168.1.1",
		DNSServers: "1.1.1.1,8.8.8.8",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	network := decode[NetworkResponse](t, w)
	assert.Equal(t, int64(1), network.ID)
	assert.Equal(t, "lan", network.Name)
	assert.Equal(t, "192.168.1.0/24", network.Subnet)
	assert.Equal(t, "192.168.1.1", network.Gateway)
}

func TestCreateNetwork_Validation(t *testing.T) {
	r := setupTestAPI(t, "TestCreateNetwork_Validation")

	w := doJSON(t, r, "POST", "/api/v0/networks", CreateNetworkRequest{Bridge: "br0", Subnet: "10.0.0.0/24"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, "POST", "/api/v0/networks", CreateNetworkRequest{Name: "lan", Bridge: "br0", Subnet: "10.0.0.0/33"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, "POST", "/api/v0/networks", CreateNetworkRequest{Name: "lan", Bridge: "br0", Subnet: "not a subnet"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateNetwork_DuplicateName(t *testing.T) {
	r := setupTestAPI(t, "TestCreateNetwork_DuplicateName")

	w := doJSON(t, r, "POST", "/api/v0/networks", CreateNetworkRequest{Name: "lan", Bridge: "br0", Subnet: "10.0.0.0/24"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, "POST", "/api/v0/networks", CreateNetworkRequest{Name: "lan", Bridge: "br1", Subnet: "10.0.1.0/24"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGetNetwork(t *testing.T) {
	r := setupTestAPI(t, "TestGetNetwork")

	w := doJSON(t, r, "POST", "/api/v0/networks", CreateNetworkRequest{Name: "lan", Bridge: "br0", Subnet: "10.0.0.0/24"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, "GET", "/api/v0/networks/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "lan", decode[NetworkResponse](t, w).Name)

	w = doJSON(t, r, "GET", "/api/v0/networks/name/lan", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), decode[NetworkResponse](t, w).ID)

	w = doJSON(t, r, "GET", "/api/v0/networks/99", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, "GET", "/api/v0/networks/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteNetwork(t *testing.T) {
	r := setupTestAPI(t, "TestDeleteNetwork")

	w := doJSON(t, r, "POST", "/api/v0/networks", CreateNetworkRequest{Name: "lan", Bridge: "br0", Subnet: "10.0.0.0/24"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, "DELETE", "/api/v0/networks/1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, r, "GET", "/api/v0/networks/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteNetwork_InUse(t *testing.T) {
	r := setupTestAPI(t, "TestDeleteNetwork_InUse")

	w := doJSON(t, r, "POST", "/api/v0/networks", CreateNetworkRequest{Name: "lan", Bridge: "br0", Subnet: "10.0.0.0/24"})
	require.Equal(t, http.StatusCreated, w.Code)
	network := decode[NetworkResponse](t, w)

	w = doJSON(t, r, "POST", "/api/v0/machines", CreateMachineRequest{
		Name: "web-1", Hostname: "a", NetworkID: &network.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, "DELETE", "/api/v0/networks/1", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Removing the machine unblocks the delete.
	w = doJSON(t, r, "DELETE", "/api/v0/machines/1", nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, r, "DELETE", "/api/v0/networks/1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestDHCPRanges(t *testing.T) {
	r := setupTestAPI(t, "TestDHCPRanges")

	w := doJSON(t, r, "POST", "/api/v0/networks", CreateNetworkRequest{Name: "lan", Bridge: "br0", Subnet: "10.0.0.0/24"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, "GET", "/api/v0/networks/1/dhcp-ranges", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]\n", w.Body.String())

	w = doJSON(t, r, "POST", "/api/v0/networks/1/dhcp-ranges", CreateDHCPRangeRequest{
		StartIP: "10.0.0.100", EndIP: "10.0.0.200",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	dr := decode[DHCPRangeResponse](t, w)
	assert.Equal(t, int64(1), dr.NetworkID)
	assert.Equal(t, "12h", dr.LeaseTime)

	w = doJSON(t, r, "GET", "/api/v0/networks/1/dhcp-ranges", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]DHCPRangeResponse](t, w), 1)

	w = doJSON(t, r, "DELETE", "/api/v0/dhcp-ranges/1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestCreateDHCPRange_Validation(t *testing.T) {
	r := setupTestAPI(t, "TestCreateDHCPRange_Validation")

	w := doJSON(t, r, "POST", "/api/v0/networks", CreateNetworkRequest{Name: "lan", Bridge: "br0", Subnet: "10.0.0.0/24"})
	require.Equal(t, http.StatusCreated, w.Code)

	// Missing endpoints.
	w = doJSON(t, r, "POST", "/api/v0/networks/1/dhcp-ranges", CreateDHCPRangeRequest{StartIP: "10.0.0.100"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Outside the subnet.
	w = doJSON(t, r, "POST", "/api/v0/networks/1/dhcp-ranges", CreateDHCPRangeRequest{
		StartIP: "10.0.1.100", EndIP: "10.0.1.200",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Reversed endpoints.
	w = doJSON(t, r, "POST", "/api/v0/networks/1/dhcp-ranges", CreateDHCPRangeRequest{
		StartIP: "10.0.0.200", EndIP: "10.0.0.100",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown network.
	w = doJSON(t, r, "POST", "/api/v0/networks/99/dhcp-ranges", CreateDHCPRangeRequest{
		StartIP: "10.0.0.100", EndIP: "10.0.0.200",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
