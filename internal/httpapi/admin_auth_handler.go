package httpapi

import (
	"encoding/json"
	"net/http"

	"inkwell/internal/auth"
	"inkwell/internal/config"
	"inkwell/internal/storage"
	"inkwell/internal/utils"
)

// AdminAuthHandler exchanges admin credentials for a session token
type AdminAuthHandler struct {
	store  AdminStore
	cfg    *config.Config
	logger *utils.Logger
}

// NewAdminAuthHandler creates a new admin auth handler
func NewAdminAuthHandler(store AdminStore, cfg *config.Config) *AdminAuthHandler {
	return &AdminAuthHandler{
		store:  store,
		cfg:    cfg,
		logger: utils.NewLogger("admin-auth"),
	}
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents a successful login
type LoginResponse struct {
	Token string   `json:"token"`
	Exp   int64    `json:"exp"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

// Login handles POST /admin/auth/login
func (h *AdminAuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if req.Email == "" || req.Password == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := h.store.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if err == storage.ErrAdminUserNotFound {
			utils.RespondWithError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		h.logger.Error("Failed to look up admin user", "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	if !user.IsValid() || !auth.CheckPassword(user.PasswordHash, req.Password) {
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, exp, err := auth.GenerateAdminJWT(user, h.cfg)
	if err != nil {
		h.logger.Error("Failed to generate token", "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	if err := h.store.UpdateLastLogin(r.Context(), user.ID); err != nil {
		// Non-fatal; the session is already issued
		h.logger.Warn("Failed to update last login", "error", err)
	}

	utils.RespondWithJSON(w, http.StatusOK, LoginResponse{
		Token: token,
		Exp:   exp,
		Email: user.Email,
		Roles: user.Roles,
	})
}
