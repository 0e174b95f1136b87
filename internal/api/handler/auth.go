package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/walletd/internal/accounts"
	"github.com/jmerrifield20/walletd/internal/identity"
	"go.uber.org/zap"
)

// credentialSvc is the interface expected by AuthHandler, satisfied by *accounts.Service.
type credentialSvc interface {
	Register(ctx context.Context, handle, contact, secret string) (*accounts.Account, error)
	Authenticate(ctx context.Context, handle, secret string) (*accounts.Account, error)
}

// AuthHandler handles registration and login.
type AuthHandler struct {
	accounts credentialSvc
	tokens   *identity.TokenIssuer
	logger   *zap.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(svc credentialSvc, tokens *identity.TokenIssuer, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{accounts: svc, tokens: tokens, logger: logger}
}

// Register mounts the auth routes on the provided router group.
func (h *AuthHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/register", h.SignUp)
	rg.POST("/login", h.Login)
}

// ─── Request types ───────────────────────────────────────────────────────────

// The secret is a pointer so an empty password is accepted while an absent one
// is rejected.
type registerRequest struct {
	Email    string  `json:"email"    binding:"required"`
	Username string  `json:"username" binding:"required"`
	Password *string `json:"password" binding:"required"`
}

type loginRequest struct {
	Username string  `json:"username" binding:"required"`
	Password *string `json:"password" binding:"required"`
}

// ─── Handlers ────────────────────────────────────────────────────────────────

// SignUp handles POST /register. It creates an account and returns a session token.
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": msgBadRequest})
		return
	}

	a, err := h.accounts.Register(c.Request.Context(), req.Username, req.Email, *req.Password)
	if err != nil {
		recordRegistration(err)
		writeError(c, h.logger, "register", err)
		return
	}

	tok, err := h.tokens.Issue(a.Handle)
	if err != nil {
		recordRegistration(err)
		writeError(c, h.logger, "issue token after register", err)
		return
	}

	recordRegistration(nil)
	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"token":   tok,
	})
}

// Login handles POST /login. It exchanges a handle and secret for a session token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": msgBadRequest})
		return
	}

	a, err := h.accounts.Authenticate(c.Request.Context(), req.Username, *req.Password)
	if err != nil {
		recordLogin(err)
		if errors.Is(err, accounts.ErrUnknownHandle) {
			c.JSON(http.StatusUnauthorized, gin.H{"message": accounts.ErrUnknownHandle.Error()})
			return
		}
		writeError(c, h.logger, "login", err)
		return
	}

	tok, err := h.tokens.Issue(a.Handle)
	if err != nil {
		recordLogin(err)
		writeError(c, h.logger, "issue token after login", err)
		return
	}

	recordLogin(nil)
	c.JSON(http.StatusOK, gin.H{"token": tok})
}
