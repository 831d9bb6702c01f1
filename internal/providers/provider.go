// Package providers translates generic image-generation requests into
// concrete provider wire calls and normalizes responses and errors.
package providers

import (
	"context"
	"fmt"
)

// ImageRequest is a normalized internal image-generation request.
type ImageRequest struct {
	Prompt string
	Model  string
	Secret string // decrypted provider API key
	Width  int
	Height int
	Style  string // free-form style hint, mapped per provider
}

// ImageResult is a normalized provider response.
type ImageResult struct {
	Data          []byte // raw decoded image bytes
	ContentType   string
	RevisedPrompt string // provider-rewritten prompt, if supplied
}

// ImageProvider is implemented by each concrete image backend.
type ImageProvider interface {
	// Name returns the provider identifier (e.g. "openai")
	Name() string

	// Generate issues one image-generation call. It performs no retries and
	// imposes no deadline of its own beyond the HTTP client default; callers
	// own cancellation via ctx.
	Generate(ctx context.Context, req ImageRequest) (*ImageResult, error)
}

// ProviderError describes a failed provider call: either a non-success
// response from the remote endpoint or an unsupported provider selection.
// It is propagated to the caller as-is and never retried internally.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %s (status %d)", e.Provider, e.Message, e.StatusCode)
}
