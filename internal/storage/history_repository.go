package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"inkwell/internal/models"
)

// HistoryRepository handles generation history database operations
type HistoryRepository struct {
	db *DB
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Create inserts a generation record
func (r *HistoryRepository) Create(ctx context.Context, record *models.GenerationRecord) error {
	query := `
		INSERT INTO generations
			(id, user_id, task_type, provider, model, prompt, content, image_url,
			 input_tokens, output_tokens, cached_input_tokens, cost_usd,
			 readability_score, grade_level, word_count, sentence_count,
			 avg_sentence_length, read_time_minutes, status, error_message)
		VALUES
			(:id, :user_id, :task_type, :provider, :model, :prompt, :content, :image_url,
			 :input_tokens, :output_tokens, :cached_input_tokens, :cost_usd,
			 :readability_score, :grade_level, :word_count, :sentence_count,
			 :avg_sentence_length, :read_time_minutes, :status, :error_message)
	`

	if _, err := r.db.conn.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("failed to create generation record: %w", err)
	}
	return nil
}

// CreateBatch inserts multiple generation records in a single transaction
func (r *HistoryRepository) CreateBatch(ctx context.Context, records []*models.GenerationRecord) error {
	tx, err := r.db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO generations
			(id, user_id, task_type, provider, model, prompt, content, image_url,
			 input_tokens, output_tokens, cached_input_tokens, cost_usd,
			 readability_score, grade_level, word_count, sentence_count,
			 avg_sentence_length, read_time_minutes, status, error_message)
		VALUES
			(:id, :user_id, :task_type, :provider, :model, :prompt, :content, :image_url,
			 :input_tokens, :output_tokens, :cached_input_tokens, :cost_usd,
			 :readability_score, :grade_level, :word_count, :sentence_count,
			 :avg_sentence_length, :read_time_minutes, :status, :error_message)
	`

	for _, record := range records {
		if _, err := tx.NamedExecContext(ctx, query, record); err != nil {
			return fmt.Errorf("failed to insert record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetByID retrieves a generation record by ID
func (r *HistoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.GenerationRecord, error) {
	var record models.GenerationRecord
	query := `
		SELECT id, user_id, task_type, provider, model, prompt, content, image_url,
		       input_tokens, output_tokens, cached_input_tokens, cost_usd,
		       readability_score, grade_level, word_count, sentence_count,
		       avg_sentence_length, read_time_minutes, status, error_message, created_at
		FROM generations
		WHERE id = $1
	`

	err := r.db.conn.GetContext(ctx, &record, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrGenerationNotFound
		}
		return nil, fmt.Errorf("failed to get generation record: %w", err)
	}
	return &record, nil
}

// ListByUser returns a user's generation history, newest first
func (r *HistoryRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.GenerationRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := `
		SELECT id, user_id, task_type, provider, model, prompt, content, image_url,
		       input_tokens, output_tokens, cached_input_tokens, cost_usd,
		       readability_score, grade_level, word_count, sentence_count,
		       avg_sentence_length, read_time_minutes, status, error_message, created_at
		FROM generations
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	var records []models.GenerationRecord
	if err := r.db.conn.SelectContext(ctx, &records, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list generation records: %w", err)
	}
	return records, nil
}

// TotalCostByUser sums the recorded cost of a user's generations. Rows whose
// pricing was unresolved contribute 0.
func (r *HistoryRepository) TotalCostByUser(ctx context.Context, userID uuid.UUID) (float64, error) {
	var total float64
	query := `SELECT COALESCE(SUM(cost_usd), 0) FROM generations WHERE user_id = $1`

	if err := r.db.conn.GetContext(ctx, &total, query, userID); err != nil {
		return 0, fmt.Errorf("failed to sum generation costs: %w", err)
	}
	return total, nil
}
