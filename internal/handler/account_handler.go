package handler

import (
	"errors"
	"net/http"

	"trade-cashback-go/internal/accounts"
	"trade-cashback-go/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AccountHandler serves the internal surface: account linking, the VPS
// manager endpoints and the ledger read.
type AccountHandler struct {
	accounts *accounts.Service
	ledger   store.LedgerStore
	logger   *zap.Logger
}

// NewAccountHandler creates an AccountHandler.
func NewAccountHandler(accounts *accounts.Service, ledger store.LedgerStore, logger *zap.Logger) *AccountHandler {
	return &AccountHandler{accounts: accounts, ledger: ledger, logger: logger}
}

type linkRequest struct {
	UserID           string `json:"user_id" binding:"required"`
	Broker           string `json:"broker" binding:"required"`
	Platform         string `json:"platform" binding:"required,oneof=MT4 MT5"`
	Server           string `json:"server" binding:"required"`
	Login            string `json:"login" binding:"required"`
	InvestorPassword string `json:"investor_password" binding:"required"`
}

// Link handles POST /accounts.
func (h *AccountHandler) Link(c *gin.Context) {
	var req linkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}

	account, err := h.accounts.Link(c.Request.Context(), accounts.LinkParams{
		UserID:           req.UserID,
		Broker:           req.Broker,
		Platform:         req.Platform,
		Server:           req.Server,
		Login:            req.Login,
		InvestorPassword: req.InvestorPassword,
	})
	if err != nil {
		if errors.Is(err, accounts.ErrLoginTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "account already linked"})
			return
		}
		h.logger.Error("Account linking failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":                  account.ID,
		"external_account_id": account.ExternalAccountID,
		"broker":              account.Broker,
		"platform":            account.Platform,
		"server":              account.Server,
		"login":               account.Login,
		"status":              account.Status,
	})
}

// List handles GET /accounts?user_id=.
func (h *AccountHandler) List(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	list, err := h.accounts.ListByUser(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Account listing failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, list)
}

// PendingAccounts handles GET /vps/pending-accounts.
func (h *AccountHandler) PendingAccounts(c *gin.Context) {
	pending, err := h.accounts.PendingAccounts(c.Request.Context())
	if err != nil {
		h.logger.Error("Pending account listing failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, pending)
}

type accountStatusRequest struct {
	ExternalAccountID string `json:"external_account_id" binding:"required"`
	Status            string `json:"status" binding:"required,oneof=connected error disconnected"`
	ErrorMessage      string `json:"error_message"`
}

// UpdateStatus handles POST /vps/account-status.
func (h *AccountHandler) UpdateStatus(c *gin.Context) {
	var req accountStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}

	err := h.accounts.UpdateStatus(c.Request.Context(), req.ExternalAccountID, req.Status, req.ErrorMessage)
	if err != nil {
		if errors.Is(err, accounts.ErrUnknownAccount) {
			c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
			return
		}
		h.logger.Error("Status update failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Cashback handles GET /cashback?user_id=. Newest period first; this is the
// read side the withdrawal workflow consumes.
func (h *AccountHandler) Cashback(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	entries, err := h.ledger.ListByUser(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Ledger listing failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, entries)
}
