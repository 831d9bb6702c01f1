package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"inkwell/internal/models"
	"inkwell/internal/storage"
	"inkwell/internal/utils"
)

// Providers the router knows how to use.
var knownProviders = map[string]bool{
	"openai":    true,
	"anthropic": true,
	"google":    true,
	"xai":       true,
}

// AdminCredentialsHandler manages provider API credentials
type AdminCredentialsHandler struct {
	store  CredentialStore
	logger *utils.Logger
}

// NewAdminCredentialsHandler creates a new admin credentials handler
func NewAdminCredentialsHandler(store CredentialStore) *AdminCredentialsHandler {
	return &AdminCredentialsHandler{
		store:  store,
		logger: utils.NewLogger("admin-credentials"),
	}
}

// CreateCredentialRequest represents the request to register a provider key
type CreateCredentialRequest struct {
	Provider string `json:"provider"`
	Secret   string `json:"secret"`
	Active   *bool  `json:"active,omitempty"`
}

// CredentialResponse represents a credential without its secret
type CredentialResponse struct {
	ID        string `json:"id"`
	Provider  string `json:"provider"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// UpdateCredentialRequest toggles a credential's active flag
type UpdateCredentialRequest struct {
	Active *bool `json:"active"`
}

// ServeHTTP dispatches /admin/credentials requests by method and path
func (h *AdminCredentialsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, hasID := credentialIDFromPath(r.URL.Path)

	switch {
	case r.Method == http.MethodPost && !hasID:
		h.create(w, r)
	case r.Method == http.MethodGet && !hasID:
		h.list(w, r)
	case r.Method == http.MethodPatch && hasID:
		h.update(w, r, id)
	case r.Method == http.MethodDelete && hasID:
		h.delete(w, r, id)
	default:
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func credentialIDFromPath(path string) (uuid.UUID, bool) {
	rest := strings.TrimPrefix(strings.Trim(path, "/"), "admin/credentials")
	rest = strings.Trim(rest, "/")
	if rest == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(rest)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func (h *AdminCredentialsHandler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateCredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if req.Provider == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Provider is required")
		return
	}
	if !knownProviders[req.Provider] {
		utils.RespondWithError(w, http.StatusBadRequest, "Unknown provider: "+req.Provider)
		return
	}
	if req.Secret == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Secret is required")
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	cred := &models.Credential{
		ID:       uuid.New(),
		Provider: req.Provider,
		Secret:   req.Secret,
		Active:   active,
	}

	if err := h.store.Create(r.Context(), cred); err != nil {
		h.logger.Error("Failed to create credential", "provider", req.Provider, "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to create credential")
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, toCredentialResponse(cred))
}

func (h *AdminCredentialsHandler) list(w http.ResponseWriter, r *http.Request) {
	creds, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list credentials", "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to list credentials")
		return
	}

	responses := make([]CredentialResponse, 0, len(creds))
	for _, cred := range creds {
		responses = append(responses, toCredentialResponse(cred))
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"items": responses,
	})
}

func (h *AdminCredentialsHandler) update(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req UpdateCredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if req.Active == nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Active flag is required")
		return
	}

	if err := h.store.SetActive(r.Context(), id, *req.Active); err != nil {
		if errors.Is(err, storage.ErrCredentialNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "Credential not found")
			return
		}
		h.logger.Error("Failed to update credential", "id", id, "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update credential")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"id":     id.String(),
		"active": *req.Active,
	})
}

func (h *AdminCredentialsHandler) delete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if err := h.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrCredentialNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "Credential not found")
			return
		}
		h.logger.Error("Failed to delete credential", "id", id, "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to delete credential")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func toCredentialResponse(cred *models.Credential) CredentialResponse {
	return CredentialResponse{
		ID:        cred.ID.String(),
		Provider:  cred.Provider,
		Active:    cred.Active,
		CreatedAt: cred.CreatedAt.Format(timeFormat),
		UpdatedAt: cred.UpdatedAt.Format(timeFormat),
	}
}
