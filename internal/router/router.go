package router

import (
	"crypto/subtle"
	"net/http"

	"trade-cashback-go/internal/handler"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Config carries the handlers and guard parameters the router composes.
type Config struct {
	TradeHandler   *handler.TradeHandler
	AccountHandler *handler.AccountHandler
	VPSAPIKey      string
	RateLimit      float64
	RateLimitBurst int
}

// NewRouter builds the HTTP surface. The unattended-client endpoints sit
// behind a shared rate limiter; the internal endpoints behind the static VPS
// API key.
func NewRouter(cfg *Config) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Unattended clients retry on any ambiguity; cap their request rate.
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst)
	client := router.Group("/trades", rateLimit(limiter))
	{
		client.POST("", cfg.TradeHandler.Submit)
		client.POST("/register", cfg.TradeHandler.Register)
	}

	internal := router.Group("/", apiKeyAuth(cfg.VPSAPIKey))
	{
		internal.POST("/accounts", cfg.AccountHandler.Link)
		internal.GET("/accounts", cfg.AccountHandler.List)
		internal.GET("/vps/pending-accounts", cfg.AccountHandler.PendingAccounts)
		internal.POST("/vps/account-status", cfg.AccountHandler.UpdateStatus)
		internal.GET("/cashback", cfg.AccountHandler.Cashback)
	}

	return router
}

func rateLimit(limiter *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}

// apiKeyAuth guards the internal surface with the static key the VPS manager
// and dashboard backend authenticate with. An unconfigured key rejects
// everything rather than opening the surface.
func apiKeyAuth(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := c.GetHeader("X-VPS-API-Key")
		if key == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid API key"})
			return
		}
		c.Next()
	}
}
