package models

import (
	"time"

	"github.com/google/uuid"
)

// Generation status values stored in the history table.
const (
	GenerationStatusCompleted = "completed"
	GenerationStatusFailed    = "failed"
)

// TokenUsage holds the token counts reported by a provider for one
// generation call.
type TokenUsage struct {
	InputTokens       int `json:"input_tokens"`
	OutputTokens      int `json:"output_tokens"`
	CachedInputTokens int `json:"cached_input_tokens"`
}

// RouteResult is the outcome of provider selection for a single request.
// It is ephemeral and never persisted; Secret is the decrypted API key for
// the chosen provider.
type RouteResult struct {
	Provider string
	Model    string
	Secret   string
}

// ContentMetrics holds readability scores computed for generated text.
// They are attached to a GenerationRecord at creation and never mutated.
type ContentMetrics struct {
	ReadabilityScore  float64 `db:"readability_score" json:"readability_score"`
	GradeLevel        float64 `db:"grade_level" json:"grade_level"`
	WordCount         int     `db:"word_count" json:"word_count"`
	SentenceCount     int     `db:"sentence_count" json:"sentence_count"`
	AvgSentenceLength float64 `db:"avg_sentence_length" json:"avg_sentence_length"`
	ReadTimeMinutes   float64 `db:"read_time_minutes" json:"read_time_minutes"`
}

// GenerationRecord is a single row in the generation history table.
// A zero CostUSD means "cost not computed", not "free": pricing rules for
// the chosen provider/model may simply be missing.
type GenerationRecord struct {
	ID                uuid.UUID `db:"id" json:"id"`
	UserID            uuid.UUID `db:"user_id" json:"user_id"`
	TaskType          string    `db:"task_type" json:"task_type"`
	Provider          string    `db:"provider" json:"provider"`
	Model             string    `db:"model" json:"model"`
	Prompt            string    `db:"prompt" json:"prompt"`
	Content           string    `db:"content" json:"content,omitempty"`
	ImageURL          string    `db:"image_url" json:"image_url,omitempty"`
	InputTokens       int       `db:"input_tokens" json:"input_tokens"`
	OutputTokens      int       `db:"output_tokens" json:"output_tokens"`
	CachedInputTokens int       `db:"cached_input_tokens" json:"cached_input_tokens"`
	CostUSD           float64   `db:"cost_usd" json:"cost_usd"`
	Status            string    `db:"status" json:"status"`
	ErrorMessage      string    `db:"error_message" json:"error_message,omitempty"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`

	ContentMetrics
}
