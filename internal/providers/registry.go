package providers

import (
	"context"
	"net/http"
	"time"
)

// Registry dispatches image requests to the adapter registered for a
// provider name. The table is populated once at construction and never
// mutated afterwards, so concurrent use needs no locking.
type Registry struct {
	adapters map[string]ImageProvider
}

// NewRegistry creates a registry with all built-in adapters registered.
// The timeout applies to each adapter's outbound calls; <= 0 selects the
// adapters' defaults.
func NewRegistry(timeout time.Duration) *Registry {
	r := &Registry{adapters: make(map[string]ImageProvider)}
	r.register(NewOpenAIImageProvider("", timeout))
	return r
}

func (r *Registry) register(p ImageProvider) {
	r.adapters[p.Name()] = p
}

// Generate dispatches to the adapter for the named provider. Requesting an
// unregistered provider is a configuration error, not a transient failure.
func (r *Registry) Generate(ctx context.Context, provider string, req ImageRequest) (*ImageResult, error) {
	adapter, ok := r.adapters[provider]
	if !ok {
		return nil, &ProviderError{
			Provider:   provider,
			StatusCode: http.StatusBadRequest,
			Message:    "unsupported provider: " + provider,
		}
	}
	return adapter.Generate(ctx, req)
}
