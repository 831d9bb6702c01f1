package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"inkwell/internal/models"
)

// PricingRepository handles pricing rule database operations
type PricingRepository struct {
	db *DB
}

// NewPricingRepository creates a new pricing repository
func NewPricingRepository(db *DB) *PricingRepository {
	return &PricingRepository{db: db}
}

// Create inserts a pricing rule
func (r *PricingRepository) Create(ctx context.Context, rule *models.PricingRule) error {
	query := `
		INSERT INTO pricing_rules
			(id, provider, model_pattern, input_per_million, cached_input_per_million, output_per_million)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err := r.db.conn.QueryRowxContext(ctx, query,
		rule.ID, rule.Provider, rule.ModelPattern,
		rule.InputPerMillion, rule.CachedInputPerMillion, rule.OutputPerMillion,
	).Scan(&rule.CreatedAt, &rule.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create pricing rule: %w", err)
	}

	r.db.pricingCache.Delete(pricingCacheKey(rule.Provider))
	return nil
}

// List returns all pricing rules
func (r *PricingRepository) List(ctx context.Context) ([]models.PricingRule, error) {
	query := `
		SELECT id, provider, model_pattern, input_per_million, cached_input_per_million,
		       output_per_million, created_at, updated_at
		FROM pricing_rules
		ORDER BY provider, length(model_pattern) DESC, created_at
	`

	var rules []models.PricingRule
	if err := r.db.conn.SelectContext(ctx, &rules, query); err != nil {
		return nil, fmt.Errorf("failed to list pricing rules: %w", err)
	}
	return rules, nil
}

// RulesForProvider returns all pricing rules for a provider. Ordering puts
// longer patterns first so equal-length ties resolve to the earliest rule.
func (r *PricingRepository) RulesForProvider(ctx context.Context, provider string) ([]models.PricingRule, error) {
	key := pricingCacheKey(provider)
	if cached, ok := r.db.pricingCache.Get(key); ok {
		return cached.([]models.PricingRule), nil
	}

	query := `
		SELECT id, provider, model_pattern, input_per_million, cached_input_per_million,
		       output_per_million, created_at, updated_at
		FROM pricing_rules
		WHERE provider = $1
		ORDER BY length(model_pattern) DESC, created_at
	`

	var rules []models.PricingRule
	if err := r.db.conn.SelectContext(ctx, &rules, query, provider); err != nil {
		return nil, fmt.Errorf("failed to list pricing rules for %s: %w", provider, err)
	}

	r.db.pricingCache.Set(key, rules)
	return rules, nil
}

// Delete removes a pricing rule
func (r *PricingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	var provider string
	err := r.db.conn.GetContext(ctx, &provider,
		`DELETE FROM pricing_rules WHERE id = $1 RETURNING provider`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrPricingRuleNotFound
		}
		return fmt.Errorf("failed to delete pricing rule: %w", err)
	}

	r.db.pricingCache.Delete(pricingCacheKey(provider))
	return nil
}

func pricingCacheKey(provider string) string {
	return "pricing:" + provider
}
