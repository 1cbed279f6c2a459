package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warren/internal/datastore"
	"warren/internal/registry"
	"warren/internal/testutil"
)

// setupTestAPI builds a router over a fresh in-memory database.
func setupTestAPI(t *testing.T, testName string) *chi.Mux {
	t.Helper()

	db, cleanup := testutil.SetupTestDBWithMigrations(t, testName)
	t.Cleanup(cleanup)

	reg, err := registry.New(datastore.New(db))
	require.NoError(t, err)

	r := chi.NewRouter()
	NewAPI(reg).RegisterRoutes(r)
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "203.0.113.7:12345"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	return v
}

func TestEndToEnd(t *testing.T) {
	r := setupTestAPI(t, "TestEndToEnd")

	w := doJSON(t, r, "POST", "/api/v0/networks", CreateNetworkRequest{
		Name: "example-net", Bridge: "br0", Subnet: "192.168.100.0/24",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	network := decode[NetworkResponse](t, w)
	assert.Equal(t, int64(1), network.ID)

	ipv4 := "192.168.100.10"
	w = doJSON(t, r, "POST", "/api/v0/machines", CreateMachineRequest{
		Name: "example-vm", Hostname: "example-vm.local", IPv4: &ipv4, NetworkID: &network.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	machine := decode[MachineResponse](t, w)
	assert.Equal(t, int64(1), machine.ID)
	require.NotNil(t, machine.NetworkID)
	assert.Equal(t, network.ID, *machine.NetworkID)

	w = doJSON(t, r, "POST", "/api/v0/ssh-keys", CreateSSHKeyRequest{
		MachineID: machine.ID, KeyText: "ssh-rsa AAAA... user@host",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	key := decode[SSHKeyResponse](t, w)
	assert.Equal(t, int64(1), key.ID)

	w = doJSON(t, r, "DELETE", "/api/v0/machines/1", nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, r, "GET", "/api/v0/ssh-keys", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]SSHKeyResponse](t, w), 0)

	w = doJSON(t, r, "GET", "/api/v0/machines", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]MachineResponse](t, w), 0)

	w = doJSON(t, r, "GET", "/api/v0/networks/1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
