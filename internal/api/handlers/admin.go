package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/ReuvenDagaga/CoinRun-sub000/internal/admin"
	"github.com/ReuvenDagaga/CoinRun-sub000/internal/ledger"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

// AdminAuthMiddleware validates the X-Admin-Email / X-Admin-Token header pair
// against the bcrypt hash stored for the admin account.
func AdminAuthMiddleware(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := strings.TrimSpace(c.GetHeader("X-Admin-Email"))
		token := strings.TrimSpace(c.GetHeader("X-Admin-Token"))
		if email == "" || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "admin credentials required"})
			return
		}

		account, err := admin.ValidateAdminEmailAndToken(db, email, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid admin credentials"})
			return
		}
		c.Set("admin_email", account.Email)
		c.Next()
	}
}

// AdminReconcileUser replays a user's full ledger and compares the
// reconstructed balances against the live row.
func AdminReconcileUser(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
			return
		}

		ok, replayed, err := ledger.Verify(db, uid)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"reconciled": ok, "replayed_balances": replayed})
	}
}

// AdminGetUserLedger returns a user's recent ledger entries.
func AdminGetUserLedger(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
			return
		}

		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
		if limit <= 0 || limit > 1000 {
			limit = 100
		}

		entries, err := ledger.History(db, uid, limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch ledger"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"entries": entries})
	}
}
