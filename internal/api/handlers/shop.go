package handlers

import (
	"errors"
	"net/http"

	"github.com/ReuvenDagaga/CoinRun-sub000/internal/accounts"
	"github.com/ReuvenDagaga/CoinRun-sub000/internal/config"
	"github.com/ReuvenDagaga/CoinRun-sub000/internal/ledger"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

// PurchaseUpgrade buys the next level of an upgrade track for the caller.
func PurchaseUpgrade(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := userID(c)
		if !ok {
			return
		}

		var req struct {
			Track string `json:"track"`
		}
		if err := c.BindJSON(&req); err != nil || req.Track == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "track required"})
			return
		}

		result, err := accounts.PurchaseUpgrade(db, uid, req.Track)
		if err != nil {
			switch {
			case errors.Is(err, accounts.ErrUnknownUpgrade):
				c.JSON(http.StatusBadRequest, gin.H{"error": "unknown upgrade track"})
			case errors.Is(err, ledger.ErrInsufficientFunds):
				c.JSON(http.StatusPaymentRequired, gin.H{"error": "insufficient coins"})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to purchase upgrade"})
			}
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// ExchangeGems converts the caller's gems into coins.
func ExchangeGems(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := userID(c)
		if !ok {
			return
		}

		var req struct {
			Gems int64 `json:"gems"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "gems required"})
			return
		}

		result, err := accounts.ExchangeGems(db, cfg, uid, req.Gems)
		if err != nil {
			switch {
			case errors.Is(err, accounts.ErrInvalidAmount):
				c.JSON(http.StatusBadRequest, gin.H{"error": "gems must be positive"})
			case errors.Is(err, ledger.ErrInsufficientFunds):
				c.JSON(http.StatusPaymentRequired, gin.H{"error": "insufficient gems"})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to exchange gems"})
			}
			return
		}
		c.JSON(http.StatusOK, result)
	}
}
