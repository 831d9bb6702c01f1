package httpapi

import (
	"context"
	"time"

	"github.com/google/uuid"

	"inkwell/internal/models"
)

// Timestamp format used in API responses.
const timeFormat = time.RFC3339

// AdminStore resolves admin accounts for login.
type AdminStore interface {
	GetByEmail(ctx context.Context, email string) (*models.AdminUser, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID) error
}

// CredentialStore manages provider API credentials.
type CredentialStore interface {
	Create(ctx context.Context, cred *models.Credential) error
	List(ctx context.Context) ([]*models.Credential, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// PricingStore manages pricing rules.
type PricingStore interface {
	Create(ctx context.Context, rule *models.PricingRule) error
	List(ctx context.Context) ([]models.PricingRule, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// HistoryStore reads generation history.
type HistoryStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.GenerationRecord, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.GenerationRecord, error)
	TotalCostByUser(ctx context.Context, userID uuid.UUID) (float64, error)
}
