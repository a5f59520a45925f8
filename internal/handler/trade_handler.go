package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"trade-cashback-go/internal/accounts"
	"trade-cashback-go/internal/trades"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TradeHandler serves the unattended-client surface: registration and trade
// reports.
type TradeHandler struct {
	accounts *accounts.Service
	trades   *trades.Service
	logger   *zap.Logger
}

// NewTradeHandler creates a TradeHandler.
func NewTradeHandler(accounts *accounts.Service, trades *trades.Service, logger *zap.Logger) *TradeHandler {
	return &TradeHandler{accounts: accounts, trades: trades, logger: logger}
}

type registerRequest struct {
	AccountNumber int64  `json:"account_number" binding:"required"`
	Server        string `json:"server" binding:"required"`
	Platform      string `json:"platform" binding:"required,oneof=MT4 MT5"`
}

// Register handles POST /trades/register.
func (h *TradeHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}

	creds, err := h.accounts.Register(
		c.Request.Context(),
		strings.ToUpper(strings.TrimSpace(req.Platform)),
		strings.TrimSpace(req.Server),
		strconv.FormatInt(req.AccountNumber, 10),
	)
	if err != nil {
		if errors.Is(err, accounts.ErrNotLinked) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "account not found",
				"message": "no linked account matches; link it in the dashboard first",
			})
			return
		}
		h.logger.Error("Registration failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, creds)
}

// Submit handles POST /trades.
func (h *TradeHandler) Submit(c *gin.Context) {
	var report trades.Report
	if err := c.ShouldBindJSON(&report); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}

	result, err := h.trades.Admit(c.Request.Context(), &report)
	if err != nil {
		switch {
		case errors.Is(err, trades.ErrUnauthorized):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		case errors.Is(err, trades.ErrInvalidReport):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		default:
			h.logger.Error("Trade admission failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}

	if result.AlreadyRecorded {
		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"message":  "trade already recorded",
			"trade_id": result.TradeID,
		})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "trade_id": result.TradeID})
}
