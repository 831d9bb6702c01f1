// Package routing selects which provider, model and credential serve a
// generation task, based on static per-task preference tables and the set of
// currently active credentials.
package routing

import (
	"context"
	"errors"
	"fmt"

	"inkwell/internal/models"
)

// ErrNoProviderAvailable is returned when no active provider credential
// exists. Every other routing path succeeds.
var ErrNoProviderAvailable = errors.New("no AI provider is configured: add an API key for at least one provider")

// CredentialSource supplies the active provider credentials, secrets already
// decrypted. Reads are assumed to be fast, consistent snapshots.
type CredentialSource interface {
	ListActive(ctx context.Context) ([]models.Credential, error)
}

// Router picks a (provider, model, credential) triple for a task type. It is
// stateless; concurrent calls are independent and each resolves against the
// store state visible to it at call time.
type Router struct {
	creds CredentialSource
}

// NewRouter creates a router over the given credential source.
func NewRouter(creds CredentialSource) *Router {
	return &Router{creds: creds}
}

// Route resolves a task type to a provider, model and credential secret.
//
// The task's preference list is scanned in order and the first candidate
// whose provider holds an active credential wins. If no candidate matches,
// the first active credential is used with its provider's fallback model.
func (r *Router) Route(ctx context.Context, taskType string) (models.RouteResult, error) {
	creds, err := r.creds.ListActive(ctx)
	if err != nil {
		return models.RouteResult{}, fmt.Errorf("failed to list credentials: %w", err)
	}
	if len(creds) == 0 {
		return models.RouteResult{}, ErrNoProviderAvailable
	}

	secrets := make(map[string]string, len(creds))
	for _, c := range creds {
		if _, seen := secrets[c.Provider]; !seen {
			secrets[c.Provider] = c.Secret
		}
	}

	prefs, ok := taskPreferences[taskType]
	if !ok {
		prefs = taskPreferences[TaskTextWriting]
	}

	for _, cand := range prefs {
		if secret, ok := secrets[cand.Provider]; ok {
			return models.RouteResult{
				Provider: cand.Provider,
				Model:    cand.Model,
				Secret:   secret,
			}, nil
		}
	}

	// No preferred provider has a credential: fall back to the first active
	// credential and its provider's default model.
	first := creds[0]
	model, ok := fallbackModels[first.Provider]
	if !ok {
		model = baselineModel
	}
	return models.RouteResult{
		Provider: first.Provider,
		Model:    model,
		Secret:   first.Secret,
	}, nil
}
