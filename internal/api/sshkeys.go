package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"warren/internal/domain"
)

type CreateSSHKeyRequest struct {
	MachineID int64  `json:"machine_id"`
	KeyText   string `json:"key_text"`
}

type SSHKeyResponse struct {
	ID        int64  `json:"id"`
	MachineID int64  `json:"machine_id"`
	KeyText   string `json:"key_text"`
}

func sshKeyResponse(k domain.SSHKey) SSHKeyResponse {
	return SSHKeyResponse{
		ID:        k.ID,
		MachineID: k.MachineID,
		KeyText:   k.KeyText,
	}
}

func (a *API) listSSHKeysHandler(w http.ResponseWriter, r *http.Request) {
	keys, err := a.reg.SSHKeys.List(r.Context())
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

func (a *API) createSSHKeyHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateSSHKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.MachineID == 0 {
		writeError(w, http.StatusBadRequest, "machine_id is required")
		return
	}
	if req.KeyText == "" {
		writeError(w, http.StatusBadRequest, "key_text is required")
		return
	}

	created, err := a.reg.SSHKeys.Create(r.Context(), req.MachineID, req.KeyText)
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sshKeyResponse(created))
}

func (a *API) deleteSSHKeyHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid SSH key ID")
		return
	}
	if err := a.reg.SSHKeys.Delete(r.Context(), id); err != nil {
		writeRegistryError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
