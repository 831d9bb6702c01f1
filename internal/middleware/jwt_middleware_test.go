package middleware

import (
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
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret: []byte("test-secret-key-for-testing"),
		JWTExpiry: 1 * time.Hour,
	}
}

func tokenFor(t *testing.T, cfg *config.Config, roles ...string) string {
	t.Helper()
	user := &models.AdminUser{
		ID:      uuid.New(),
		Email:   "admin@example.com",
		Roles:   pq.StringArray(roles),
		Enabled: true,
	}
	token, _, err := auth.GenerateAdminJWT(user, cfg)
	require.NoError(t, err)
	return token
}

func protectedHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := GetAdminClaims(r.Context())
		require.True(t, ok)
		assert.NotEmpty(t, claims.AdminID)
		w.WriteHeader(http.StatusOK)
	})
}

func TestAdminJWTMiddleware_ValidToken(t *testing.T) {
	cfg := testConfig()
	handler := AdminJWTMiddleware(cfg)(protectedHandler(t))

	req := httptest.NewRequest(http.MethodGet, "/admin/credentials", nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, cfg, "admin"))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAdminJWTMiddleware_MissingToken(t *testing.T) {
	cfg := testConfig()
	handler := AdminJWTMiddleware(cfg)(protectedHandler(t))

	req := httptest.NewRequest(http.MethodGet, "/admin/credentials", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAdminJWTMiddleware_InvalidToken(t *testing.T) {
	cfg := testConfig()
	handler := AdminJWTMiddleware(cfg)(protectedHandler(t))

	req := httptest.NewRequest(http.MethodGet, "/admin/credentials", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAdminJWTMiddleware_RoleEnforcement(t *testing.T) {
	cfg := testConfig()
	handler := AdminJWTMiddleware(cfg, "admin")(protectedHandler(t))

	// Viewer token rejected on an admin endpoint
	req := httptest.NewRequest(http.MethodDelete, "/admin/credentials/abc", nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, cfg, "viewer"))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	// Admin token accepted
	req = httptest.NewRequest(http.MethodDelete, "/admin/credentials/abc", nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, cfg, "admin"))
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAdminJWTMiddleware_AdminPassesViewerCheck(t *testing.T) {
	cfg := testConfig()
	handler := AdminJWTMiddleware(cfg, "viewer")(protectedHandler(t))

	req := httptest.NewRequest(http.MethodGet, "/admin/pricing", nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, cfg, "admin"))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}
