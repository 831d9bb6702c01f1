package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkwell/internal/auth"
	"inkwell/internal/config"
	"inkwell/internal/models"
	"inkwell/internal/storage"
)

type fakeAdminStore struct {
	users      map[string]*models.AdminUser
	lastLogins []uuid.UUID
}

func (f *fakeAdminStore) GetByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	if user, ok := f.users[email]; ok {
		return user, nil
	}
	return nil, storage.ErrAdminUserNotFound
}

func (f *fakeAdminStore) UpdateLastLogin(ctx context.Context, id uuid.UUID) error {
	f.lastLogins = append(f.lastLogins, id)
	return nil
}

type fakeCredentialStore struct {
	creds   []*models.Credential
	deleted []uuid.UUID
	err     error
}

func (f *fakeCredentialStore) Create(ctx context.Context, cred *models.Credential) error {
	if f.err != nil {
		return f.err
	}
	cred.CreatedAt = time.Now()
	cred.UpdatedAt = cred.CreatedAt
	f.creds = append(f.creds, cred)
	return nil
}

func (f *fakeCredentialStore) List(ctx context.Context) ([]*models.Credential, error) {
	return f.creds, f.err
}

func (f *fakeCredentialStore) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	if f.err != nil {
		return f.err
	}
	for _, cred := range f.creds {
		if cred.ID == id {
			cred.Active = active
			return nil
		}
	}
	return storage.ErrCredentialNotFound
}

func (f *fakeCredentialStore) Delete(ctx context.Context, id uuid.UUID) error {
	if f.err != nil {
		return f.err
	}
	for _, cred := range f.creds {
		if cred.ID == id {
			f.deleted = append(f.deleted, id)
			return nil
		}
	}
	return storage.ErrCredentialNotFound
}

type fakePricingStore struct {
	rules []models.PricingRule
	err   error
}

func (f *fakePricingStore) Create(ctx context.Context, rule *models.PricingRule) error {
	rule.CreatedAt = time.Now()
	f.rules = append(f.rules, *rule)
	return nil
}

func (f *fakePricingStore) List(ctx context.Context) ([]models.PricingRule, error) {
	return f.rules, nil
}

func (f *fakePricingStore) Delete(ctx context.Context, id uuid.UUID) error {
	if f.err != nil {
		return f.err
	}
	for i := range f.rules {
		if f.rules[i].ID == id {
			f.rules = append(f.rules[:i], f.rules[i+1:]...)
			return nil
		}
	}
	return storage.ErrPricingRuleNotFound
}

func loginConfig() *config.Config {
	return &config.Config{
		JWTSecret: []byte("test-secret"),
		JWTExpiry: time.Hour,
	}
}

func TestAdminLogin(t *testing.T) {
	hash, err := auth.HashPassword("hunter2!")
	require.NoError(t, err)

	store := &fakeAdminStore{users: map[string]*models.AdminUser{
		"admin@example.com": {
			ID:           uuid.New(),
			Email:        "admin@example.com",
			PasswordHash: hash,
			Roles:        pq.StringArray{"admin"},
			Enabled:      true,
		},
	}}
	handler := NewAdminAuthHandler(store, loginConfig())

	body, _ := json.Marshal(LoginRequest{Email: "admin@example.com", Password: "hunter2!"})
	req := httptest.NewRequest(http.MethodPost, "/admin/auth/login", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	handler.Login(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "admin@example.com", resp.Email)
	assert.Equal(t, []string{"admin"}, resp.Roles)
	assert.Len(t, store.lastLogins, 1)
}

func TestAdminLoginRejections(t *testing.T) {
	hash, err := auth.HashPassword("hunter2!")
	require.NoError(t, err)

	store := &fakeAdminStore{users: map[string]*models.AdminUser{
		"admin@example.com": {
			ID:           uuid.New(),
			Email:        "admin@example.com",
			PasswordHash: hash,
			Roles:        pq.StringArray{"admin"},
			Enabled:      true,
		},
		"disabled@example.com": {
			ID:           uuid.New(),
			Email:        "disabled@example.com",
			PasswordHash: hash,
			Roles:        pq.StringArray{"admin"},
			Enabled:      false,
		},
	}}
	handler := NewAdminAuthHandler(store, loginConfig())

	tests := []struct {
		name     string
		payload  LoginRequest
		expected int
	}{
		{"wrong password", LoginRequest{Email: "admin@example.com", Password: "nope"}, http.StatusUnauthorized},
		{"unknown user", LoginRequest{Email: "ghost@example.com", Password: "hunter2!"}, http.StatusUnauthorized},
		{"disabled user", LoginRequest{Email: "disabled@example.com", Password: "hunter2!"}, http.StatusUnauthorized},
		{"missing fields", LoginRequest{}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, _ := json.Marshal(tt.payload)
			req := httptest.NewRequest(http.MethodPost, "/admin/auth/login", bytes.NewReader(body))
			rr := httptest.NewRecorder()
			handler.Login(rr, req)
			assert.Equal(t, tt.expected, rr.Code)
		})
	}
}

func TestCredentialsCreateAndList(t *testing.T) {
	store := &fakeCredentialStore{}
	handler := NewAdminCredentialsHandler(store)

	body, _ := json.Marshal(CreateCredentialRequest{Provider: "openai", Secret: "sk-live"})
	req := httptest.NewRequest(http.MethodPost, "/admin/credentials", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)

	var created CredentialResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, "openai", created.Provider)
	assert.True(t, created.Active)
	// Secret never appears in the response
	assert.NotContains(t, rr.Body.String(), "sk-live")

	req = httptest.NewRequest(http.MethodGet, "/admin/credentials", nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), created.ID)
}

func TestCredentialsCreateValidation(t *testing.T) {
	handler := NewAdminCredentialsHandler(&fakeCredentialStore{})

	tests := []struct {
		name    string
		payload CreateCredentialRequest
	}{
		{"missing provider", CreateCredentialRequest{Secret: "sk"}},
		{"unknown provider", CreateCredentialRequest{Provider: "deepseek", Secret: "sk"}},
		{"missing secret", CreateCredentialRequest{Provider: "openai"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, _ := json.Marshal(tt.payload)
			req := httptest.NewRequest(http.MethodPost, "/admin/credentials", bytes.NewReader(body))
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestCredentialsUpdateAndDelete(t *testing.T) {
	id := uuid.New()
	store := &fakeCredentialStore{creds: []*models.Credential{
		{ID: id, Provider: "openai", Active: true},
	}}
	handler := NewAdminCredentialsHandler(store)

	body, _ := json.Marshal(map[string]bool{"active": false})
	req := httptest.NewRequest(http.MethodPatch, "/admin/credentials/"+id.String(), bytes.NewReader(body))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.False(t, store.creds[0].Active)

	req = httptest.NewRequest(http.MethodDelete, "/admin/credentials/"+id.String(), nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, []uuid.UUID{id}, store.deleted)

	// Unknown ID
	req = httptest.NewRequest(http.MethodDelete, "/admin/credentials/"+uuid.New().String(), nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCredentialsStoreFailureIsNotNotFound(t *testing.T) {
	store := &fakeCredentialStore{err: assert.AnError}
	handler := NewAdminCredentialsHandler(store)

	req := httptest.NewRequest(http.MethodDelete, "/admin/credentials/"+uuid.New().String(), nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	body, _ := json.Marshal(map[string]bool{"active": false})
	req = httptest.NewRequest(http.MethodPatch, "/admin/credentials/"+uuid.New().String(), bytes.NewReader(body))
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestPricingCreateListDelete(t *testing.T) {
	store := &fakePricingStore{}
	handler := NewAdminPricingHandler(store)

	body, _ := json.Marshal(CreatePricingRuleRequest{
		Provider:         "openai",
		ModelPattern:     "gpt-4o",
		InputPerMillion:  2.5,
		OutputPerMillion: 10,
	})
	req := httptest.NewRequest(http.MethodPost, "/admin/pricing", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)

	var created PricingRuleResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, "gpt-4o", created.ModelPattern)

	req = httptest.NewRequest(http.MethodGet, "/admin/pricing", nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), created.ID)

	req = httptest.NewRequest(http.MethodDelete, "/admin/pricing/"+created.ID, nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, store.rules)
}

func TestPricingDeleteStoreFailureIsNotNotFound(t *testing.T) {
	handler := NewAdminPricingHandler(&fakePricingStore{err: assert.AnError})

	req := httptest.NewRequest(http.MethodDelete, "/admin/pricing/"+uuid.New().String(), nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	handler = NewAdminPricingHandler(&fakePricingStore{})
	req = httptest.NewRequest(http.MethodDelete, "/admin/pricing/"+uuid.New().String(), nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestPricingCreateValidation(t *testing.T) {
	handler := NewAdminPricingHandler(&fakePricingStore{})

	body, _ := json.Marshal(CreatePricingRuleRequest{
		Provider:        "openai",
		ModelPattern:    "gpt-4o",
		InputPerMillion: -1,
	})
	req := httptest.NewRequest(http.MethodPost, "/admin/pricing", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
