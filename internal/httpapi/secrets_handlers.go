package httpapi

import (
	"net/http"
	"strings"

	"dealflow-engine/internal/secrets"
)

type SecretsHandler struct {
	Set func(name, value string) error
}

type setSecretReq struct {
	Value string `json:"value"`
}

// SetByPath stores a provider credential in the OS keychain.
// Expects POST /api/secrets/{name}.
func (h SecretsHandler) SetByPath(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/api/secrets/")
	if name == "" || strings.Contains(name, "/") || !secrets.Known(name) {
		WriteError(w, r, http.StatusNotFound, "unknown_secret", "unknown secret name")
		return
	}

	var req setSecretReq
	if err := decodeStrict(r, &req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", "invalid JSON: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Value) == "" {
		writeAPIError(w, r, http.StatusBadRequest, "validation_error", "value is required", "value")
		return
	}

	if err := h.Set(name, req.Value); err != nil {
		WriteError(w, r, http.StatusInternalServerError, "keychain_error", "failed to store secret: "+err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
