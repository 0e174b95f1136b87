package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/walletd/internal/accounts"
	"github.com/jmerrifield20/walletd/internal/identity"
	"github.com/jmerrifield20/walletd/internal/ledger"
	"go.uber.org/zap"
)

// resolver looks up the account behind a verified token.
type resolver interface {
	Resolve(ctx context.Context, handle string) (*accounts.Account, error)
}

// ledgerSvc is the interface expected by EntryHandler, satisfied by *ledger.Service.
type ledgerSvc interface {
	List(a *accounts.Account) []accounts.Entry
	Add(ctx context.Context, a *accounts.Account, in ledger.EntryInput) error
	SetByKey(ctx context.Context, a *accounts.Account, key string, value float64) error
	RemoveByKey(ctx context.Context, a *accounts.Account, key string) error
}

// EntryHandler serves the authenticated balance routes under /currencies.
type EntryHandler struct {
	accounts resolver
	ledger   ledgerSvc
	tokens   *identity.TokenIssuer
	logger   *zap.Logger
}

// NewEntryHandler creates an EntryHandler.
func NewEntryHandler(accts resolver, lsvc ledgerSvc, tokens *identity.TokenIssuer, logger *zap.Logger) *EntryHandler {
	return &EntryHandler{accounts: accts, ledger: lsvc, tokens: tokens, logger: logger}
}

// Register mounts the entry routes on the provided router group. Every route
// requires a session token.
func (h *EntryHandler) Register(rg *gin.RouterGroup) {
	entries := rg.Group("/currencies", identity.RequireToken(h.tokens))
	{
		entries.GET("", h.List)
		entries.POST("", h.Add)
		entries.PUT("/:currency", h.Set)
		entries.DELETE("/:currency", h.Remove)
	}
}

type setEntryRequest struct {
	Amount *float64 `json:"amount" binding:"required"`
}

// List handles GET /currencies.
func (h *EntryHandler) List(c *gin.Context) {
	a, ok := h.resolve(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.ledger.List(a))
}

// Add handles POST /currencies.
func (h *EntryHandler) Add(c *gin.Context) {
	var in ledger.EntryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": msgBadRequest})
		return
	}
	if err := in.Validate(); err != nil {
		writeError(c, h.logger, "add entry", err)
		return
	}

	a, ok := h.resolve(c)
	if !ok {
		return
	}
	if err := h.ledger.Add(c.Request.Context(), a, in); err != nil {
		writeError(c, h.logger, "add entry", err)
		return
	}

	recordMutation("add")
	c.JSON(http.StatusCreated, gin.H{"message": "Currency added successfully"})
}

// Set handles PUT /currencies/:currency.
func (h *EntryHandler) Set(c *gin.Context) {
	var req setEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": msgBadRequest})
		return
	}

	a, ok := h.resolve(c)
	if !ok {
		return
	}
	if err := h.ledger.SetByKey(c.Request.Context(), a, c.Param("currency"), *req.Amount); err != nil {
		writeError(c, h.logger, "set entry", err)
		return
	}

	recordMutation("set")
	c.JSON(http.StatusOK, gin.H{"message": "Currency updated successfully"})
}

// Remove handles DELETE /currencies/:currency.
func (h *EntryHandler) Remove(c *gin.Context) {
	a, ok := h.resolve(c)
	if !ok {
		return
	}
	if err := h.ledger.RemoveByKey(c.Request.Context(), a, c.Param("currency")); err != nil {
		writeError(c, h.logger, "remove entry", err)
		return
	}

	recordMutation("remove")
	c.JSON(http.StatusOK, gin.H{"message": "Currency deleted successfully"})
}

// resolve loads the caller's account. It writes the error response itself and
// reports false when the request should stop.
func (h *EntryHandler) resolve(c *gin.Context) (*accounts.Account, bool) {
	a, err := h.accounts.Resolve(c.Request.Context(), identity.HandleFromCtx(c))
	if err != nil {
		writeError(c, h.logger, "resolve account", err)
		return nil, false
	}
	return a, true
}
