package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/ReuvenDagaga/CoinRun-sub000/internal/leaderboard"
	"github.com/gin-gonic/gin"
)

// GetLeaderboard returns the top of a board plus the caller's own rank.
// Query params: board=best_score|coins, period=alltime|daily, limit.
func GetLeaderboard(lb *leaderboard.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := userID(c)
		if !ok {
			return
		}

		board := c.DefaultQuery("board", leaderboard.BoardBestScore)
		if board != leaderboard.BoardBestScore && board != leaderboard.BoardCoins {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown board"})
			return
		}
		daily := c.DefaultQuery("period", "alltime") == "daily"

		limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
		if limit <= 0 || limit > 100 {
			limit = 20
		}

		ctx := context.Background()
		entries, err := lb.TopN(ctx, board, daily, limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch leaderboard"})
			return
		}
		rank, score, err := lb.Rank(ctx, board, daily, uid)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch rank"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"board":   board,
			"entries": entries,
			"me":      gin.H{"rank": rank, "score": score},
		})
	}
}
