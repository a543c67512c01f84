package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/ReuvenDagaga/CoinRun-sub000/internal/config"
	"github.com/ReuvenDagaga/CoinRun-sub000/internal/game"
	"github.com/ReuvenDagaga/CoinRun-sub000/internal/leaderboard"
	"github.com/ReuvenDagaga/CoinRun-sub000/internal/missions"
	"github.com/ReuvenDagaga/CoinRun-sub000/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

// StartRun creates a new run session and hands the client its token and seed.
func StartRun(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := userID(c)
		if !ok {
			return
		}

		var req struct {
			Difficulty float64 `json:"difficulty"`
		}
		// Body is optional; default difficulty is 1.
		_ = c.BindJSON(&req)

		run, err := game.StartRun(db, cfg, uid, req.Difficulty)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start run"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"run_token":    run.RunToken,
			"seed":         run.Seed,
			"track_length": run.TrackLength,
			"difficulty":   run.Difficulty,
		})
	}
}

// SubmitResult settles a run: validates the outcome, pays the reward, and
// reports rejection reasons. Rejected outcomes are a 200 with accepted=false,
// not an error; the client needs the reason either way.
func SubmitResult(db *sqlx.DB, cfg *config.Config, ms *missions.Service, lb *leaderboard.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := userID(c)
		if !ok {
			return
		}

		var req struct {
			RunToken string            `json:"run_token"`
			Outcome  models.RunOutcome `json:"outcome"`
		}
		if err := c.BindJSON(&req); err != nil || req.RunToken == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "run_token and outcome required"})
			return
		}

		result, err := game.Settle(db, cfg, ms, req.RunToken, uid, req.Outcome)
		if err != nil {
			switch {
			case errors.Is(err, game.ErrRunNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
			case errors.Is(err, game.ErrAlreadySettled):
				c.JSON(http.StatusConflict, gin.H{"error": "run already settled"})
			case errors.Is(err, game.ErrRunNotInProgress):
				c.JSON(http.StatusConflict, gin.H{"error": "run is not in progress"})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to settle run"})
			}
			return
		}

		if result.Accepted {
			// Boards are best-effort and never block the response.
			ctx := context.Background()
			lb.RecordScore(ctx, uid, req.Outcome.FinalScore)
			lb.RecordCoins(ctx, uid, result.Reward)
		}

		c.JSON(http.StatusOK, result)
	}
}

// GetRun returns the state of one of the caller's runs.
func GetRun(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := userID(c)
		if !ok {
			return
		}

		run, err := game.GetRun(db, c.Param("token"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
			return
		}
		if run.UserID != uid {
			c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
			return
		}
		c.JSON(http.StatusOK, run)
	}
}
