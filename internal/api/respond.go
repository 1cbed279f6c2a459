package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"

	"warren/internal/registry"
)

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeRegistryError maps a registry error to its status code. Internal
// errors are logged and not echoed to the client.
func writeRegistryError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("internal error: %v", err)
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, registry.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, registry.ErrDuplicateName),
		errors.Is(err, registry.ErrDuplicateAddress),
		errors.Is(err, registry.ErrNetworkInUse):
		return http.StatusConflict
	case errors.Is(err, registry.ErrInvalidSubnet),
		errors.Is(err, registry.ErrInvalidRange),
		errors.Is(err, registry.ErrUnknownNetwork),
		errors.Is(err, registry.ErrUnknownMachine),
		errors.Is(err, registry.ErrEmptyKey):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// clientIP resolves the requesting machine's address, preferring
// X-Forwarded-For over RemoteAddr.
func clientIP(r *http.Request) (string, error) {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		// Behind multiple proxies the header is a list; the
		// originating client is the first entry.
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first), nil
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "", fmt.Errorf("unable to parse remote address: %w", err)
	}
	return ip, nil
}

func isIPv4(ip string) bool {
	parsed := net.ParseIP(ip)
	return parsed != nil && parsed.To4() != nil
}
