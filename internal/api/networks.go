package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"warren/internal/domain"
)

type CreateNetworkRequest struct {
	Name        string `json:"name"`
	Bridge      string `json:"bridge"`
	Subnet      string `json:"subnet"`
	Gateway     string `json:"gateway,omitempty"`
	DNSServers  string `json:"dns_servers,omitempty"`
	Description string `json:"description,omitempty"`
}

type NetworkResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Bridge      string `json:"bridge"`
	Subnet      string `json:"subnet"`
	Gateway     string `json:"gateway,omitempty"`
	DNSServers  string `json:"dns_servers,omitempty"`
	Description string `json:"description,omitempty"`
}

type CreateDHCPRangeRequest struct {
	StartIP   string `json:"start_ip"`
	EndIP     string `json:"end_ip"`
	LeaseTime string `json:"lease_time,omitempty"`
}

type DHCPRangeResponse struct {
	ID        int64  `json:"id"`
	NetworkID int64  `json:"network_id"`
	StartIP   string `json:"start_ip"`
	EndIP     string `json:"end_ip"`
	LeaseTime string `json:"lease_time"`
}

func networkResponse(n domain.Network) NetworkResponse {
	return NetworkResponse{
		ID:          n.ID,
		Name:        n.Name,
		Bridge:      n.Bridge,
		Subnet:      n.Subnet,
		Gateway:     n.Gateway,
		DNSServers:  n.DNSServers,
		Description: n.Description,
	}
}

func dhcpRangeResponse(dr domain.DHCPRange) DHCPRangeResponse {
	return DHCPRangeResponse{
		ID:        dr.ID,
		NetworkID: dr.NetworkID,
		StartIP:   dr.StartIP,
		EndIP:     dr.EndIP,
		LeaseTime: dr.LeaseTime,
	}
}

func (a *API) listNetworksHandler(w http.ResponseWriter, r *http.Request) {
	networks, err := a.reg.Networks.List(r.Context())
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	response := make([]NetworkResponse, 0, len(networks))
	for _, n := range networks {
		response = append(response, networkResponse(n))
	}
	writeJSON(w, http.StatusOK, response)
}

func (a *API) createNetworkHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateNetworkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Name == "" || req.Bridge == "" || req.Subnet == "" {
		writeError(w, http.StatusBadRequest, "name, bridge, and subnet are required")
		return
	}

	created, err := a.reg.Networks.Create(r.Context(), domain.Network{
		Name:        req.Name,
		Bridge:      req.Bridge,
		Subnet:      req.Subnet,
		Gateway:     req.Gateway,
		DNSServers:  req.DNSServers,
		Description: req.Description,
	})
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, networkResponse(created))
}

func (a *API) getNetworkHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid network ID")
		return
	}
	network, err := a.reg.Networks.GetByID(r.Context(), id)
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, networkResponse(network))
}

func (a *API) getNetworkByNameHandler(w http.ResponseWriter, r *http.Request) {
	network, err := a.reg.Networks.GetByName(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, networkResponse(network))
}

func (a *API) deleteNetworkHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid network ID")
		return
	}
	if err := a.reg.Networks.Delete(r.Context(), id); err != nil {
		writeRegistryError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) listDHCPRangesHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid network ID")
		return
	}
	ranges, err := a.reg.Networks.DHCPRanges(r.Context(), id)
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	response := make([]DHCPRangeResponse, 0, len(ranges))
	for _, dr := range ranges {
		response = append(response, dhcpRangeResponse(dr))
	}
	writeJSON(w, http.StatusOK, response)
}

func (a *API) createDHCPRangeHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid network ID")
		return
	}
	var req CreateDHCPRangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.StartIP == "" || req.EndIP == "" {
		writeError(w, http.StatusBadRequest, "start_ip and end_ip are required")
		return
	}
	leaseTime := req.LeaseTime
	if leaseTime == "" {
		leaseTime = "12h"
	}

	created, err := a.reg.Networks.CreateDHCPRange(r.Context(), domain.DHCPRange{
		NetworkID: id,
		StartIP:   req.StartIP,
		EndIP:     req.EndIP,
		LeaseTime: leaseTime,
	})
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dhcpRangeResponse(created))
}

func (a *API) deleteDHCPRangeHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid DHCP range ID")
		return
	}
	if err := a.reg.Networks.DeleteDHCPRange(r.Context(), id); err != nil {
		writeRegistryError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
