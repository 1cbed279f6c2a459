// Package api is the HTTP gateway over the registries: request
// validation, JSON (de)serialization, and error-to-status mapping. All
// state lives in the registry package.
package api

import (
	"github.com/go-chi/chi/v5"

	"warren/internal/registry"
)

// API holds the registries the handlers operate on.
type API struct {
	reg *registry.Registry
}

func NewAPI(reg *registry.Registry) *API {
	return &API{reg: reg}
}

// RegisterRoutes attaches every endpoint to the given router.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Route("/api/v0/machines", func(r chi.Router) {
		r.Get("/", a.listMachinesHandler)
		r.Post("/", a.createMachineHandler)
		r.Get("/{id}", a.getMachineHandler)
		r.Delete("/{id}", a.deleteMachineHandler)
		r.Get("/{id}/ssh-keys", a.listMachineSSHKeysHandler)
		r.Get("/name/{name}", a.getMachineByNameHandler)
		r.Get("/ipv4/{ipv4}", a.getMachineByIPv4Handler)
	})

	r.Route("/api/v0/networks", func(r chi.Router) {
		r.Get("/", a.listNetworksHandler)
		r.Post("/", a.createNetworkHandler)
		r.Get("/{id}", a.getNetworkHandler)
		r.Delete("/{id}", a.deleteNetworkHandler)
		r.Get("/name/{name}", a.getNetworkByNameHandler)
		r.Get("/{id}/dhcp-ranges", a.listDHCPRangesHandler)
		r.Post("/{id}/dhcp-ranges", a.createDHCPRangeHandler)
	})
	r.Delete("/api/v0/dhcp-ranges/{id}", a.deleteDHCPRangeHandler)

	r.Route("/api/v0/ssh-keys", func(r chi.Router) {
		r.Get("/", a.listSSHKeysHandler)
		r.Post("/", a.createSSHKeyHandler)
		r.Delete("/{id}", a.deleteSSHKeyHandler)
	})

	// NoCloud instance metadata, keyed on the caller's IP.
	r.Get("/meta-data", a.metaDataHandler)
	r.Get("/meta-data/", a.metaDataDirectoryHandler)
	r.Get("/meta-data/{key}", a.metaDataKeyHandler)
	r.Get("/user-data", a.userDataHandler)
	r.Get("/vendor-data", a.vendorDataHandler)
	r.Get("/network-config", a.networkConfigHandler)

	// EC2-compatible surface.
	r.Route("/2021-01-03", func(r chi.Router) {
		r.Get("/meta-data/public-keys", a.publicKeysHandler)
		r.Get("/meta-data/public-keys/{idx}", a.publicKeyByIdxHandler)
		r.Get("/meta-data/public-keys/{idx}/openssh-key", a.publicKeyByIdxHandler)
		r.Get("/dynamic/instance-identity/document", a.instanceIdentityHandler)
	})
}
