// Package pricing converts token usage into dollar cost using per-provider
// pricing rules with longest-prefix model matching.
package pricing

import (
	"context"
	"math"

	"inkwell/internal/models"
	"inkwell/internal/utils"
)

const tokensPerMillion = 1_000_000.0

// RuleSource supplies the pricing rules configured for a provider.
type RuleSource interface {
	RulesForProvider(ctx context.Context, provider string) ([]models.PricingRule, error)
}

// Calculator computes generation costs. Unresolvable pricing yields a cost
// of 0, never an error: callers must treat 0 as "cost not computed" rather
// than "free".
type Calculator struct {
	rules  RuleSource
	logger *utils.Logger
}

// NewCalculator creates a calculator backed by the given rule source.
func NewCalculator(rules RuleSource) *Calculator {
	return &Calculator{
		rules:  rules,
		logger: utils.NewLogger("pricing"),
	}
}

// Cost computes the dollar cost of one generation for the given provider and
// model. A failing or empty rule lookup degrades silently to 0.
func (c *Calculator) Cost(ctx context.Context, provider, model string, usage models.TokenUsage) float64 {
	rules, err := c.rules.RulesForProvider(ctx, provider)
	if err != nil {
		c.logger.Warn("Pricing lookup failed, recording zero cost", "provider", provider, "error", err)
		return 0
	}
	return Calculate(rules, model, usage)
}

// Calculate is the pure cost computation over an explicit rule set.
func Calculate(rules []models.PricingRule, model string, usage models.TokenUsage) float64 {
	rule := matchRule(rules, model)
	if rule == nil {
		return 0
	}

	cost := float64(usage.InputTokens)/tokensPerMillion*rule.InputPerMillion +
		float64(usage.CachedInputTokens)/tokensPerMillion*rule.CachedInputPerMillion +
		float64(usage.OutputTokens)/tokensPerMillion*rule.OutputPerMillion

	return roundMicro(cost)
}

// matchRule selects the rule whose ModelPattern is the longest prefix of the
// model name. Ties at equal length keep the first rule encountered.
func matchRule(rules []models.PricingRule, model string) *models.PricingRule {
	var best *models.PricingRule
	for i := range rules {
		r := &rules[i]
		if !r.Matches(model) {
			continue
		}
		if best == nil || len(r.ModelPattern) > len(best.ModelPattern) {
			best = r
		}
	}
	return best
}

// roundMicro rounds to 6 decimal places (micro-dollar precision), half away
// from zero.
func roundMicro(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
