package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"warren/internal/domain"
)

type CreateMachineRequest struct {
	Name      string  `json:"name"`
	Hostname  string  `json:"hostname"`
	IPv4      *string `json:"ipv4,omitempty"`
	NetworkID *int64  `json:"network_id,omitempty"`
}

type MachineResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Hostname  string `json:"hostname"`
	IPv4      string `json:"ipv4,omitempty"`
	NetworkID *int64 `json:"network_id,omitempty"`
}

func machineResponse(m domain.Machine) MachineResponse {
	return MachineResponse{
		ID:        m.ID,
		Name:      m.Name,
		Hostname:  m.Hostname,
		IPv4:      m.IPv4,
		NetworkID: m.NetworkID,
	}
}

func (a *API) listMachinesHandler(w http.ResponseWriter, r *http.Request) {
	machines, err := a.reg.Machines.List(r.Context())
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	response := make([]MachineResponse, 0, len(machines))
	for _, m := range machines {
		response = append(response, machineResponse(m))
	}
	writeJSON(w, http.StatusOK, response)
}

func (a *API) createMachineHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateMachineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Name == "" || req.Hostname == "" {
		writeError(w, http.StatusBadRequest, "name and hostname are required")
		return
	}

	machine := domain.Machine{
		Name:      req.Name,
		Hostname:  req.Hostname,
		NetworkID: req.NetworkID,
	}
	if req.IPv4 != nil && *req.IPv4 != "" {
		if !isIPv4(*req.IPv4) {
			writeError(w, http.StatusBadRequest, "invalid IPv4 address format")
			return
		}
		machine.IPv4 = *req.IPv4
	}

	created, err := a.reg.Machines.Create(r.Context(), machine)
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, machineResponse(created))
}

func (a *API) getMachineHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid machine ID")
		return
	}
	machine, err := a.reg.Machines.GetByID(r.Context(), id)
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, machineResponse(machine))
}

func (a *API) getMachineByNameHandler(w http.ResponseWriter, r *http.Request) {
	machine, err := a.reg.Machines.GetByName(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, machineResponse(machine))
}

func (a *API) getMachineByIPv4Handler(w http.ResponseWriter, r *http.Request) {
	machine, err := a.reg.Machines.GetByIPv4(r.Context(), chi.URLParam(r, "ipv4"))
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, machineResponse(machine))
}

func (a *API) deleteMachineHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid machine ID")
		return
	}
	if err := a.reg.Machines.Delete(r.Context(), id); err != nil {
		writeRegistryError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) listMachineSSHKeysHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid machine ID")
		return
	}
	if _, err := a.reg.Machines.GetByID(r.Context(), id); err != nil {
		writeRegistryError(w, err)
		return
	}
	keys, err := a.reg.SSHKeys.ListByMachine(r.Context(), id)
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	response := make([]SSHKeyResponse, 0, len(keys))
	for _, k := range keys {
		response = append(response, sshKeyResponse(k))
	}
	writeJSON(w, http.StatusOK, response)
}
