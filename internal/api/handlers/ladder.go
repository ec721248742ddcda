package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cueladder/backend/internal/ladder"
)

// GetLadder returns every member ordered best first. Public read.
func GetLadder(store *ladder.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		members, err := store.Ladder(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ladder": members, "count": len(members)})
	}
}

// GetMe returns the authenticated member's ladder entry.
func GetMe(store *ladder.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		mid, ok := memberID(c)
		if !ok {
			return
		}

		m, err := store.MemberByID(c.Request.Context(), mid)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, m)
	}
}

// CheckEligibility previews whether the authenticated member could
// challenge the target right now. Advisory only: creation re-evaluates
// against live ranks inside its own transaction.
func CheckEligibility(store *ladder.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		mid, ok := memberID(c)
		if !ok {
			return
		}
		targetID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid member id"})
			return
		}

		ctx := c.Request.Context()
		challenger, err := store.MemberByID(ctx, mid)
		if err != nil {
			respondError(c, err)
			return
		}
		target, err := store.MemberByID(ctx, targetID)
		if err != nil {
			respondError(c, err)
			return
		}

		var cooldown *time.Time
		if challenger.CooldownUntil.Valid {
			cooldown = &challenger.CooldownUntil.Time
		}
		elig := ladder.CanChallenge(challenger.Rank, target.Rank, cooldown, time.Now().UTC(), store.ChallengePolicy())
		c.JSON(http.StatusOK, elig)
	}
}
