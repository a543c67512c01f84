package handlers

import (
	"net/http"
	"strconv"

	"github.com/ReuvenDagaga/CoinRun-sub000/internal/accounts"
	"github.com/ReuvenDagaga/CoinRun-sub000/internal/ledger"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

// GetMe returns the authenticated player's profile
func GetMe(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := userID(c)
		if !ok {
			return
		}

		user, err := accounts.GetUser(db, uid)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// GetLedger returns the caller's most recent balance changes, newest first.
func GetLedger(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := userID(c)
		if !ok {
			return
		}

		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
		if limit <= 0 || limit > 200 {
			limit = 50
		}

		entries, err := ledger.History(db, uid, limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch ledger"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"entries": entries})
	}
}
