// Package generation orchestrates a single content-generation request:
// provider selection, the provider call, cost and readability metrics, and
// asynchronous history persistence.
package generation

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"inkwell/internal/models"
	"inkwell/internal/providers"
	"inkwell/internal/readability"
	"inkwell/internal/routing"
	"inkwell/internal/utils"
)

// Router selects a provider, model and credential for a task type.
type Router interface {
	Route(ctx context.Context, taskType string) (models.RouteResult, error)
}

// Completer produces text for a prompt.
type Completer interface {
	Complete(ctx context.Context, req providers.CompletionRequest) (*providers.CompletionResult, error)
}

// ImageGenerator produces an image for a prompt.
type ImageGenerator interface {
	Generate(ctx context.Context, provider string, req providers.ImageRequest) (*providers.ImageResult, error)
}

// CostSource computes the USD cost of a provider call.
type CostSource interface {
	Cost(ctx context.Context, provider, model string, usage models.TokenUsage) float64
}

// HistorySink accepts generation records for asynchronous persistence.
type HistorySink interface {
	Enqueue(ctx context.Context, record *models.GenerationRecord) error
}

// ImageStore persists image bytes and returns a public URL. Optional; when
// nil, image responses carry only the raw payload.
type ImageStore interface {
	PutImage(ctx context.Context, data []byte, contentType string) (string, error)
}

// TextRequest is a text-generation call from a user.
type TextRequest struct {
	UserID   uuid.UUID
	TaskType string
	Prompt   string
	System   string
}

// TextResult is the outcome of a text generation.
type TextResult struct {
	ID       uuid.UUID             `json:"id"`
	Provider string                `json:"provider"`
	Model    string                `json:"model"`
	Content  string                `json:"content"`
	Usage    models.TokenUsage     `json:"usage"`
	CostUSD  float64               `json:"cost_usd"`
	Metrics  models.ContentMetrics `json:"metrics"`
}

// ImageRequest is an image-generation call from a user.
type ImageRequest struct {
	UserID uuid.UUID
	Prompt string
	Width  int
	Height int
	Style  string
}

// ImageResult is the outcome of an image generation.
type ImageResult struct {
	ID            uuid.UUID `json:"id"`
	Provider      string    `json:"provider"`
	Model         string    `json:"model"`
	ImageURL      string    `json:"image_url,omitempty"`
	Data          []byte    `json:"data,omitempty"`
	ContentType   string    `json:"content_type"`
	RevisedPrompt string    `json:"revised_prompt,omitempty"`
	CostUSD       float64   `json:"cost_usd"`
}

// Service coordinates the generation pipeline.
type Service struct {
	router    Router
	completer Completer
	images    ImageGenerator
	costs     CostSource
	history   HistorySink
	store     ImageStore
	logger    *utils.Logger
}

// NewService creates a generation service. store may be nil when object
// storage is disabled.
func NewService(router Router, completer Completer, images ImageGenerator, costs CostSource, history HistorySink, store ImageStore) *Service {
	return &Service{
		router:    router,
		completer: completer,
		images:    images,
		costs:     costs,
		history:   history,
		store:     store,
		logger:    utils.NewLogger("generation"),
	}
}

// GenerateText routes a text task, calls the provider, computes cost and
// readability metrics, and records the generation in history.
func (s *Service) GenerateText(ctx context.Context, req TextRequest) (*TextResult, error) {
	route, err := s.router.Route(ctx, req.TaskType)
	if err != nil {
		return nil, err
	}

	completion, err := s.completer.Complete(ctx, providers.CompletionRequest{
		Provider: route.Provider,
		Model:    route.Model,
		Secret:   route.Secret,
		System:   req.System,
		Prompt:   req.Prompt,
	})
	if err != nil {
		s.recordFailure(ctx, req.UserID, req.TaskType, route, req.Prompt, err)
		return nil, err
	}

	cost := s.costs.Cost(ctx, route.Provider, route.Model, completion.Usage)
	metrics := readability.Compute(completion.Content)

	result := &TextResult{
		ID:       uuid.New(),
		Provider: route.Provider,
		Model:    route.Model,
		Content:  completion.Content,
		Usage:    completion.Usage,
		CostUSD:  cost,
		Metrics:  metrics,
	}

	record := &models.GenerationRecord{
		ID:                result.ID,
		UserID:            req.UserID,
		TaskType:          req.TaskType,
		Provider:          route.Provider,
		Model:             route.Model,
		Prompt:            req.Prompt,
		Content:           completion.Content,
		InputTokens:       completion.Usage.InputTokens,
		OutputTokens:      completion.Usage.OutputTokens,
		CachedInputTokens: completion.Usage.CachedInputTokens,
		CostUSD:           cost,
		Status:            models.GenerationStatusCompleted,
		ContentMetrics:    metrics,
	}
	s.record(ctx, record)

	return result, nil
}

// GenerateImage routes the image task and dispatches to the provider
// registry. When an image store is configured the bytes are uploaded and the
// public URL replaces the raw payload.
func (s *Service) GenerateImage(ctx context.Context, req ImageRequest) (*ImageResult, error) {
	route, err := s.router.Route(ctx, routing.TaskImage)
	if err != nil {
		return nil, err
	}

	image, err := s.images.Generate(ctx, route.Provider, providers.ImageRequest{
		Prompt: req.Prompt,
		Model:  route.Model,
		Secret: route.Secret,
		Width:  req.Width,
		Height: req.Height,
		Style:  req.Style,
	})
	if err != nil {
		s.recordFailure(ctx, req.UserID, routing.TaskImage, route, req.Prompt, err)
		return nil, err
	}

	result := &ImageResult{
		ID:            uuid.New(),
		Provider:      route.Provider,
		Model:         route.Model,
		Data:          image.Data,
		ContentType:   image.ContentType,
		RevisedPrompt: image.RevisedPrompt,
	}

	if s.store != nil {
		url, err := s.store.PutImage(ctx, image.Data, image.ContentType)
		if err != nil {
			// The generation itself succeeded; keep the raw payload.
			s.logger.Error("Failed to store image", "error", err)
		} else {
			result.ImageURL = url
			result.Data = nil
		}
	}

	record := &models.GenerationRecord{
		ID:       result.ID,
		UserID:   req.UserID,
		TaskType: routing.TaskImage,
		Provider: route.Provider,
		Model:    route.Model,
		Prompt:   req.Prompt,
		ImageURL: result.ImageURL,
		Status:   models.GenerationStatusCompleted,
	}
	s.record(ctx, record)

	return result, nil
}

func (s *Service) record(ctx context.Context, record *models.GenerationRecord) {
	if s.history == nil {
		return
	}
	if err := s.history.Enqueue(ctx, record); err != nil {
		s.logger.Error("Failed to enqueue generation record", "error", err)
	}
}

func (s *Service) recordFailure(ctx context.Context, userID uuid.UUID, taskType string, route models.RouteResult, prompt string, cause error) {
	message := cause.Error()
	var provErr *providers.ProviderError
	if errors.As(cause, &provErr) {
		message = fmt.Sprintf("provider %s failed with status %d: %s", provErr.Provider, provErr.StatusCode, provErr.Message)
	}

	s.record(ctx, &models.GenerationRecord{
		ID:           uuid.New(),
		UserID:       userID,
		TaskType:     taskType,
		Provider:     route.Provider,
		Model:        route.Model,
		Prompt:       prompt,
		Status:       models.GenerationStatusFailed,
		ErrorMessage: message,
	})
}
