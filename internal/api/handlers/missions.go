package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ReuvenDagaga/CoinRun-sub000/internal/missions"
	"github.com/gin-gonic/gin"
)

// ListMissions returns the caller's mission progress for the current day and week.
func ListMissions(ms *missions.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := userID(c)
		if !ok {
			return
		}

		views, err := ms.ListForUser(uid, time.Now())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch missions"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"missions": views})
	}
}

// ClaimMission pays out a completed mission's reward, once.
func ClaimMission(ms *missions.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := userID(c)
		if !ok {
			return
		}

		umID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid mission id"})
			return
		}

		result, err := ms.Claim(uid, umID)
		if err != nil {
			switch {
			case errors.Is(err, missions.ErrMissionNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "mission not found"})
			case errors.Is(err, missions.ErrNotCompleted):
				c.JSON(http.StatusConflict, gin.H{"error": "mission not completed"})
			case errors.Is(err, missions.ErrAlreadyClaimed):
				c.JSON(http.StatusConflict, gin.H{"error": "already claimed"})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to claim mission"})
			}
			return
		}
		c.JSON(http.StatusOK, result)
	}
}
