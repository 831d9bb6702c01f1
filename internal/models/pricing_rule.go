package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// PricingRule maps a (provider, model prefix) pair to per-million-token
// prices. Several rules may exist for one provider; the rule whose
// ModelPattern is the longest prefix of a concrete model name wins.
type PricingRule struct {
	ID                    uuid.UUID `db:"id" json:"id"`
	Provider              string    `db:"provider" json:"provider"`
	ModelPattern          string    `db:"model_pattern" json:"model_pattern"`
	InputPerMillion       float64   `db:"input_per_million" json:"input_per_million"`
	CachedInputPerMillion float64   `db:"cached_input_per_million" json:"cached_input_per_million"`
	OutputPerMillion      float64   `db:"output_per_million" json:"output_per_million"`
	CreatedAt             time.Time `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time `db:"updated_at" json:"updated_at"`
}

// Matches reports whether the rule's pattern is a prefix of the model name.
func (r *PricingRule) Matches(model string) bool {
	return strings.HasPrefix(model, r.ModelPattern)
}
