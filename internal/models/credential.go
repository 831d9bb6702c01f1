package models

import (
	"time"

	"github.com/google/uuid"
)

// Credential represents an API key for an external AI provider.
// The secret is AES-GCM encrypted at rest; the decrypted value is only
// populated by the repository when a caller needs to make a provider call.
type Credential struct {
	ID              uuid.UUID `db:"id" json:"id"`
	Provider        string    `db:"provider" json:"provider"`
	EncryptedSecret string    `db:"encrypted_secret" json:"-"`
	Active          bool      `db:"active" json:"active"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`

	// Decrypted secret, never stored or serialized.
	Secret string `db:"-" json:"-"`
}
