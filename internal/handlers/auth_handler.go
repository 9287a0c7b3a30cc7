package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/markbates/goth/gothic"
	"go.uber.org/zap"

	"bookstore_back_end/internal/apperr"
	"bookstore_back_end/internal/auth"
	"bookstore_back_end/internal/middleware"
	"bookstore_back_end/internal/models"
	"bookstore_back_end/internal/services/account"
)

type AccountService interface {
	Register(ctx context.Context, name, email, password string) (*account.Session, error)
	Login(ctx context.Context, email, password string) (*account.Session, error)
	Logout(ctx context.Context, claims *auth.Claims) error
	OAuthLogin(ctx context.Context, provider, email, name string) (*account.Session, error)
	Profile(ctx context.Context, id uuid.UUID) (*models.User, error)
	ChangePassword(ctx context.Context, id uuid.UUID, current, next string) error
	ListUsers(ctx context.Context) ([]models.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

type AuthHandler struct {
	accounts AccountService
	log      *zap.Logger
}

func NewAuthHandler(accounts AccountService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, log: log}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	sess, err := h.accounts.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, sess)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	sess, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.accounts.Logout(c.Request.Context(), middleware.Claims(c)); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	id, ok := currentUser(c)
	if !ok {
		return
	}
	user, err := h.accounts.Profile(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// PUT /api/auth/password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	id, ok := currentUser(c)
	if !ok {
		return
	}
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if err := h.accounts.ChangePassword(c.Request.Context(), id, req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}

// =============================================
// OAUTH
// =============================================

// GET /api/auth/:provider
func (h *AuthHandler) BeginOAuth(c *gin.Context) {
	c.Request = auth.WithProvider(c.Request, c.Param("provider"))
	gothic.BeginAuthHandler(c.Writer, c.Request)
}

// GET /api/auth/:provider/callback
func (h *AuthHandler) OAuthCallback(c *gin.Context) {
	provider := c.Param("provider")
	c.Request = auth.WithProvider(c.Request, provider)

	info, err := gothic.CompleteUserAuth(c.Writer, c.Request)
	if err != nil {
		h.log.Warn("⚠️ OAuth refusé", zap.String("provider", provider), zap.Error(err))
		respondError(c, h.log, apperr.Unauthorizedf("%s authentication failed", provider))
		return
	}

	sess, err := h.accounts.OAuthLogin(c.Request.Context(), provider, info.Email, info.Name)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// =============================================
// ADMINISTRATION DES COMPTES
// =============================================

// GET /api/users (admin)
func (h *AuthHandler) ListUsers(c *gin.Context) {
	users, err := h.accounts.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// DELETE /api/users/:id (admin)
func (h *AuthHandler) DeleteUser(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.accounts.DeleteUser(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
