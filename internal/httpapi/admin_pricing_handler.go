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

// AdminPricingHandler manages pricing rules
type AdminPricingHandler struct {
	store  PricingStore
	logger *utils.Logger
}

// NewAdminPricingHandler creates a new admin pricing handler
func NewAdminPricingHandler(store PricingStore) *AdminPricingHandler {
	return &AdminPricingHandler{
		store:  store,
		logger: utils.NewLogger("admin-pricing"),
	}
}

// CreatePricingRuleRequest represents the request to add a pricing rule
type CreatePricingRuleRequest struct {
	Provider              string  `json:"provider"`
	ModelPattern          string  `json:"model_pattern"`
	InputPerMillion       float64 `json:"input_per_million"`
	CachedInputPerMillion float64 `json:"cached_input_per_million"`
	OutputPerMillion      float64 `json:"output_per_million"`
}

// PricingRuleResponse represents a pricing rule
type PricingRuleResponse struct {
	ID                    string  `json:"id"`
	Provider              string  `json:"provider"`
	ModelPattern          string  `json:"model_pattern"`
	InputPerMillion       float64 `json:"input_per_million"`
	CachedInputPerMillion float64 `json:"cached_input_per_million"`
	OutputPerMillion      float64 `json:"output_per_million"`
	CreatedAt             string  `json:"created_at"`
}

// ServeHTTP dispatches /admin/pricing requests by method and path
func (h *AdminPricingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, hasID := pricingIDFromPath(r.URL.Path)

	switch {
	case r.Method == http.MethodPost && !hasID:
		h.create(w, r)
	case r.Method == http.MethodGet && !hasID:
		h.list(w, r)
	case r.Method == http.MethodDelete && hasID:
		h.delete(w, r, id)
	default:
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func pricingIDFromPath(path string) (uuid.UUID, bool) {
	rest := strings.TrimPrefix(strings.Trim(path, "/"), "admin/pricing")
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

func (h *AdminPricingHandler) create(w http.ResponseWriter, r *http.Request) {
	var req CreatePricingRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if req.Provider == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Provider is required")
		return
	}
	if req.ModelPattern == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Model pattern is required")
		return
	}
	if req.InputPerMillion < 0 || req.CachedInputPerMillion < 0 || req.OutputPerMillion < 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "Prices cannot be negative")
		return
	}

	rule := &models.PricingRule{
		ID:                    uuid.New(),
		Provider:              req.Provider,
		ModelPattern:          req.ModelPattern,
		InputPerMillion:       req.InputPerMillion,
		CachedInputPerMillion: req.CachedInputPerMillion,
		OutputPerMillion:      req.OutputPerMillion,
	}

	if err := h.store.Create(r.Context(), rule); err != nil {
		h.logger.Error("Failed to create pricing rule", "provider", req.Provider, "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to create pricing rule")
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, toPricingRuleResponse(rule))
}

func (h *AdminPricingHandler) list(w http.ResponseWriter, r *http.Request) {
	rules, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list pricing rules", "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to list pricing rules")
		return
	}

	responses := make([]PricingRuleResponse, 0, len(rules))
	for i := range rules {
		responses = append(responses, toPricingRuleResponse(&rules[i]))
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"items": responses,
	})
}

func (h *AdminPricingHandler) delete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if err := h.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrPricingRuleNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "Pricing rule not found")
			return
		}
		h.logger.Error("Failed to delete pricing rule", "id", id, "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to delete pricing rule")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func toPricingRuleResponse(rule *models.PricingRule) PricingRuleResponse {
	return PricingRuleResponse{
		ID:                    rule.ID.String(),
		Provider:              rule.Provider,
		ModelPattern:          rule.ModelPattern,
		InputPerMillion:       rule.InputPerMillion,
		CachedInputPerMillion: rule.CachedInputPerMillion,
		OutputPerMillion:      rule.OutputPerMillion,
		CreatedAt:             rule.CreatedAt.Format(timeFormat),
	}
}
