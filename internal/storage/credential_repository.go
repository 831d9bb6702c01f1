package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"inkwell/internal/models"
)

const activeCredentialsCacheKey = "credentials:active"

// CredentialRepository handles provider credential database operations.
// Secrets are encrypted before insert and decrypted on read; the caches hold
// decrypted credentials, so cache TTLs bound how long a revoked key can keep
// serving requests.
type CredentialRepository struct {
	db         *DB
	encryption *Encryption
}

// NewCredentialRepository creates a new credential repository
func NewCredentialRepository(db *DB, encryption *Encryption) *CredentialRepository {
	return &CredentialRepository{db: db, encryption: encryption}
}

// Create encrypts the secret and inserts the credential
func (r *CredentialRepository) Create(ctx context.Context, cred *models.Credential) error {
	encrypted, err := r.encryption.Encrypt([]byte(cred.Secret))
	if err != nil {
		return fmt.Errorf("failed to encrypt secret: %w", err)
	}
	cred.EncryptedSecret = encrypted

	query := `
		INSERT INTO credentials (id, provider, encrypted_secret, active)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`
	err = r.db.conn.QueryRowxContext(ctx, query, cred.ID, cred.Provider, cred.EncryptedSecret, cred.Active).
		Scan(&cred.CreatedAt, &cred.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create credential: %w", err)
	}

	r.db.credentialCache.Delete(activeCredentialsCacheKey)
	return nil
}

// GetByID retrieves a credential by ID, secret decrypted
func (r *CredentialRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Credential, error) {
	var cred models.Credential
	query := `
		SELECT id, provider, encrypted_secret, active, created_at, updated_at
		FROM credentials
		WHERE id = $1
	`

	err := r.db.conn.GetContext(ctx, &cred, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCredentialNotFound
		}
		return nil, fmt.Errorf("failed to get credential: %w", err)
	}

	if err := r.decrypt(&cred); err != nil {
		return nil, err
	}
	return &cred, nil
}

// List returns all credentials with secrets left encrypted, for the admin
// surface which never exposes them.
func (r *CredentialRepository) List(ctx context.Context) ([]*models.Credential, error) {
	query := `
		SELECT id, provider, encrypted_secret, active, created_at, updated_at
		FROM credentials
		ORDER BY provider, created_at
	`

	var creds []*models.Credential
	if err := r.db.conn.SelectContext(ctx, &creds, query); err != nil {
		return nil, fmt.Errorf("failed to list credentials: %w", err)
	}
	return creds, nil
}

// ListActive returns all active credentials with secrets decrypted, in
// stable provider order. This is the router's view of the credential store.
func (r *CredentialRepository) ListActive(ctx context.Context) ([]models.Credential, error) {
	if cached, ok := r.db.credentialCache.Get(activeCredentialsCacheKey); ok {
		return cached.([]models.Credential), nil
	}

	query := `
		SELECT id, provider, encrypted_secret, active, created_at, updated_at
		FROM credentials
		WHERE active = true
		ORDER BY provider, created_at
	`

	var creds []models.Credential
	if err := r.db.conn.SelectContext(ctx, &creds, query); err != nil {
		return nil, fmt.Errorf("failed to list active credentials: %w", err)
	}

	for i := range creds {
		if err := r.decrypt(&creds[i]); err != nil {
			return nil, err
		}
	}

	r.db.credentialCache.Set(activeCredentialsCacheKey, creds)
	return creds, nil
}

// SetActive enables or disables a credential
func (r *CredentialRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	query := `
		UPDATE credentials
		SET active = $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.conn.ExecContext(ctx, query, id, active)
	if err != nil {
		return fmt.Errorf("failed to update credential: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrCredentialNotFound
	}

	r.db.credentialCache.Delete(activeCredentialsCacheKey)
	return nil
}

// Delete removes a credential
func (r *CredentialRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.conn.ExecContext(ctx, `DELETE FROM credentials WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrCredentialNotFound
	}

	r.db.credentialCache.Delete(activeCredentialsCacheKey)
	return nil
}

func (r *CredentialRepository) decrypt(cred *models.Credential) error {
	secret, err := r.encryption.Decrypt(cred.EncryptedSecret)
	if err != nil {
		return fmt.Errorf("failed to decrypt credential %s: %w", cred.ID, err)
	}
	cred.Secret = string(secret)
	return nil
}
