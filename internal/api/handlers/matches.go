package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cueladder/backend/internal/match"
)

// CreateMatch starts a direct ladder match between the authenticated member
// and an opponent, skipping the challenge negotiation phases. The result
// still flows into the ladder through the same rank mutation.
func CreateMatch(mgr *match.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		mid, ok := memberID(c)
		if !ok {
			return
		}

		var req struct {
			OpponentID int `json:"opponent_id" binding:"required"`
			GamesToWin int `json:"games_to_win"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "opponent_id required"})
			return
		}
		if req.GamesToWin < 1 {
			req.GamesToWin = 3
		}

		lm, err := mgr.CreateMatch(c.Request.Context(), mid, req.OpponentID, req.GamesToWin)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, lm)
	}
}

// GetMatch returns the current score sheet for a live or recent match.
func GetMatch(mgr *match.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		lm, err := mgr.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, lm)
	}
}

// ScorePoint credits one frame to a player in a live match. Only a
// participant may score, for either side; the winning point completes the
// match and applies the ladder mutation.
func ScorePoint(mgr *match.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID, ok := memberID(c)
		if !ok {
			return
		}

		var req struct {
			PlayerID int `json:"player_id"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.PlayerID == 0 {
			// Scoring for yourself is the common case.
			req.PlayerID = actorID
		}

		lm, err := mgr.ScorePointFor(c.Request.Context(), c.Param("id"), actorID, req.PlayerID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, lm)
	}
}
