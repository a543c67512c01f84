package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/ReuvenDagaga/CoinRun-sub000/internal/config"
	"github.com/ReuvenDagaga/CoinRun-sub000/internal/game"
	"github.com/ReuvenDagaga/CoinRun-sub000/internal/ws"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

// JoinQueue puts the caller into the wager matchmaking queue.
func JoinQueue(mm *game.Matchmaker) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := userID(c)
		if !ok {
			return
		}

		var req struct {
			Stake int64 `json:"stake"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "stake required"})
			return
		}

		entry, err := mm.Enqueue(context.Background(), uid, req.Stake)
		if err != nil {
			switch {
			case errors.Is(err, game.ErrStakeTooSmall):
				c.JSON(http.StatusBadRequest, gin.H{"error": "stake below minimum"})
			case errors.Is(err, game.ErrCannotAffordBet):
				c.JSON(http.StatusPaymentRequired, gin.H{"error": "insufficient coins for stake"})
			case errors.Is(err, game.ErrAlreadyQueued):
				c.JSON(http.StatusConflict, gin.H{"error": "already queued"})
			case errors.Is(err, game.ErrQueueRateLimit):
				c.JSON(http.StatusTooManyRequests, gin.H{"error": "queue join rate limit exceeded"})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to join queue"})
			}
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"queue_token": entry.QueueToken,
			"stake":       entry.Stake,
			"expires_at":  entry.ExpiresAt,
		})
	}
}

// QueueStatus reports the state of the caller's queue entry.
func QueueStatus(mm *game.Matchmaker) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := userID(c)
		if !ok {
			return
		}

		entry, err := mm.Status(c.Query("queue_token"), uid)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "queue entry not found"})
			return
		}
		c.JSON(http.StatusOK, entry)
	}
}

// LeaveQueue cancels a waiting queue entry.
func LeaveQueue(mm *game.Matchmaker) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := userID(c)
		if !ok {
			return
		}

		var req struct {
			QueueToken string `json:"queue_token"`
		}
		if err := c.BindJSON(&req); err != nil || req.QueueToken == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "queue_token required"})
			return
		}

		if err := mm.Leave(req.QueueToken, uid); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "queue entry not found or already matched"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"left": true})
	}
}

// QueueSocket upgrades to a WebSocket that receives a match_found push when
// the matchmaker pairs this queue token.
func QueueSocket(mm *game.Matchmaker, hub *ws.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := userID(c)
		if !ok {
			return
		}

		token := c.Query("queue_token")
		if _, err := mm.Status(token, uid); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "queue entry not found"})
			return
		}
		hub.Serve(c.Writer, c.Request, token)
	}
}

// GetMatch returns one of the caller's matches.
func GetMatch(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := userID(c)
		if !ok {
			return
		}

		matchID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid match id"})
			return
		}

		match, err := game.GetMatch(db, matchID, uid)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "match not found"})
			return
		}
		c.JSON(http.StatusOK, match)
	}
}

// SubmitMatchScore records the caller's score; the match settles once both
// scores are in.
func SubmitMatchScore(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := userID(c)
		if !ok {
			return
		}

		matchID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid match id"})
			return
		}

		var req struct {
			Score int64 `json:"score"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "score required"})
			return
		}

		match, err := game.SubmitMatchScore(db, cfg, matchID, uid, req.Score)
		if err != nil {
			switch {
			case errors.Is(err, game.ErrMatchNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "match not found"})
			case errors.Is(err, game.ErrMatchAlreadyScored):
				c.JSON(http.StatusConflict, gin.H{"error": "score already submitted"})
			case errors.Is(err, game.ErrMatchNotSettleable):
				c.JSON(http.StatusConflict, gin.H{"error": "match already settled"})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to submit score"})
			}
			return
		}
		c.JSON(http.StatusOK, match)
	}
}
