package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"inkwell/internal/generation"
	"inkwell/internal/providers"
	"inkwell/internal/routing"
	"inkwell/internal/storage"
	"inkwell/internal/utils"
)

// GenerationService is the orchestration surface the HTTP layer calls.
type GenerationService interface {
	GenerateText(ctx context.Context, req generation.TextRequest) (*generation.TextResult, error)
	GenerateImage(ctx context.Context, req generation.ImageRequest) (*generation.ImageResult, error)
}

// GenerationsHandler serves the user-facing generation endpoints
type GenerationsHandler struct {
	service GenerationService
	history HistoryStore
	logger  *utils.Logger
}

// NewGenerationsHandler creates a new generations handler
func NewGenerationsHandler(service GenerationService, history HistoryStore) *GenerationsHandler {
	return &GenerationsHandler{
		service: service,
		history: history,
		logger:  utils.NewLogger("generations"),
	}
}

// GenerateTextRequest represents a text generation request
type GenerateTextRequest struct {
	TaskType string `json:"task_type"`
	Prompt   string `json:"prompt"`
	System   string `json:"system,omitempty"`
}

// GenerateImageRequest represents an image generation request
type GenerateImageRequest struct {
	Prompt string `json:"prompt"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Style  string `json:"style,omitempty"`
}

// ServeHTTP dispatches /v1/generations requests by method
func (h *GenerationsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.generateText(w, r)
	case http.MethodGet:
		h.listHistory(w, r)
	default:
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// GenerateImage handles POST /v1/generations/image
func (h *GenerationsHandler) GenerateImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req GenerateImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if req.Prompt == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Prompt is required")
		return
	}

	result, err := h.service.GenerateImage(r.Context(), generation.ImageRequest{
		UserID: userIDFromRequest(r),
		Prompt: req.Prompt,
		Width:  req.Width,
		Height: req.Height,
		Style:  req.Style,
	})
	if err != nil {
		h.respondGenerationError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, result)
}

func (h *GenerationsHandler) generateText(w http.ResponseWriter, r *http.Request) {
	var req GenerateTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if req.Prompt == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Prompt is required")
		return
	}
	if req.TaskType == "" {
		req.TaskType = routing.TaskTextWriting
	}

	result, err := h.service.GenerateText(r.Context(), generation.TextRequest{
		UserID:   userIDFromRequest(r),
		TaskType: req.TaskType,
		Prompt:   req.Prompt,
		System:   req.System,
	})
	if err != nil {
		h.respondGenerationError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, result)
}

// GetRecord handles GET /v1/generations/{id}
func (h *GenerationsHandler) GetRecord(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	userID := userIDFromRequest(r)
	if userID == uuid.Nil {
		utils.RespondWithError(w, http.StatusBadRequest, "X-User-ID header is required")
		return
	}

	id, err := uuid.Parse(strings.TrimPrefix(r.URL.Path, "/v1/generations/"))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid generation ID")
		return
	}

	record, err := h.history.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrGenerationNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "Generation not found")
			return
		}
		h.logger.Error("Failed to fetch generation", "id", id, "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch generation")
		return
	}
	if record.UserID != userID {
		utils.RespondWithError(w, http.StatusNotFound, "Generation not found")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, record)
}

func (h *GenerationsHandler) listHistory(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromRequest(r)
	if userID == uuid.Nil {
		utils.RespondWithError(w, http.StatusBadRequest, "X-User-ID header is required")
		return
	}

	query := r.URL.Query()
	limit := 0
	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil {
			limit = l
		}
	}
	offset := 0
	if offsetStr := query.Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o > 0 {
			offset = o
		}
	}

	records, err := h.history.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		h.logger.Error("Failed to list history", "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to list history")
		return
	}

	totalCost, err := h.history.TotalCostByUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to compute total cost", "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to list history")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"items":          records,
		"total_cost_usd": totalCost,
	})
}

// respondGenerationError maps pipeline errors onto HTTP statuses: a missing
// provider configuration is 503, a provider rejection keeps its status, and
// anything else is 500.
func (h *GenerationsHandler) respondGenerationError(w http.ResponseWriter, err error) {
	if errors.Is(err, routing.ErrNoProviderAvailable) {
		utils.RespondWithError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	var provErr *providers.ProviderError
	if errors.As(err, &provErr) {
		status := provErr.StatusCode
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		utils.RespondWithError(w, status, provErr.Message)
		return
	}

	h.logger.Error("Generation failed", "error", err)
	utils.RespondWithError(w, http.StatusInternalServerError, "Generation failed")
}

// userIDFromRequest reads the authenticated user ID forwarded by the app
// frontend. Missing or malformed headers yield the nil UUID.
func userIDFromRequest(r *http.Request) uuid.UUID {
	id, err := uuid.Parse(r.Header.Get("X-User-ID"))
	if err != nil {
		return uuid.Nil
	}
	return id
}

// TipsHandler serves GET /v1/tips
type TipsHandler struct {
	tips *generation.TipSource
}

// NewTipsHandler creates a new tips handler
func NewTipsHandler(tips *generation.TipSource) *TipsHandler {
	return &TipsHandler{tips: tips}
}

func (h *TipsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	count := 3
	if countStr := r.URL.Query().Get("count"); countStr != "" {
		if c, err := strconv.Atoi(countStr); err == nil && c > 0 {
			count = c
		}
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"tips": h.tips.Tips(count),
	})
}
