package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/cueladder/backend/internal/challenge"
	"github.com/cueladder/backend/internal/config"
	"github.com/cueladder/backend/internal/ladder"
	"github.com/cueladder/backend/internal/models"
)

// CreateChallenge opens a pending challenge from the authenticated member.
func CreateChallenge(lc *challenge.Lifecycle, rdb *redis.Client, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		challengerID, ok := memberID(c)
		if !ok {
			return
		}

		var req struct {
			ChallengedID int    `json:"challenged_id" binding:"required"`
			Discipline   string `json:"discipline"`
			GamesToWin   int    `json:"games_to_win"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "challenged_id required"})
			return
		}

		ctx := c.Request.Context()

		// Rate limit challenge creation per member
		if rdb != nil && cfg.ChallengeRateLimitSecs > 0 {
			key := fmt.Sprintf("challenge_rate:%d", challengerID)
			ok, err := rdb.SetNX(ctx, key, "1", time.Duration(cfg.ChallengeRateLimitSecs)*time.Second).Result()
			if err == nil && !ok {
				c.JSON(http.StatusTooManyRequests, gin.H{"error": "challenge rate limit exceeded"})
				return
			}
		}

		ch, err := lc.Create(ctx, challengerID, req.ChallengedID, req.Discipline, req.GamesToWin)
		if err != nil {
			if ladder.IsNotEligible(err) {
				log.Printf("[API] Challenge %d -> %d rejected: %v", challengerID, req.ChallengedID, err)
			}
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, ch)
	}
}

// GetChallenge returns one challenge by id.
func GetChallenge(lc *challenge.Lifecycle) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid challenge id"})
			return
		}

		ch, err := lc.GetByID(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, ch)
	}
}

// ListChallenges returns the authenticated member's challenges, newest
// first. Supports ?status=, ?limit=, ?offset=.
func ListChallenges(lc *challenge.Lifecycle) gin.HandlerFunc {
	return func(c *gin.Context) {
		mid, ok := memberID(c)
		if !ok {
			return
		}

		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

		challenges, err := lc.ListForMember(c.Request.Context(), mid, c.Query("status"), limit, offset)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"challenges": challenges, "count": len(challenges)})
	}
}

// ProposeChallenge is the challenged member's response: venue plus an
// optional time, moving the challenge to negotiating.
func ProposeChallenge(lc *challenge.Lifecycle) gin.HandlerFunc {
	return negotiationHandler(lc.Propose)
}

// CounterProposeChallenge lets either party put a new venue/time on the
// table while the challenge stays negotiating.
func CounterProposeChallenge(lc *challenge.Lifecycle) gin.HandlerFunc {
	return negotiationHandler(lc.CounterPropose)
}

func negotiationHandler(apply func(ctx context.Context, challengeID, actorID int, venue string, proposedTime *time.Time) (*models.Challenge, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID, ok := memberID(c)
		if !ok {
			return
		}
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid challenge id"})
			return
		}

		var req struct {
			Venue        string     `json:"venue" binding:"required"`
			ProposedTime *time.Time `json:"proposed_time"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "venue required"})
			return
		}

		ch, err := apply(c.Request.Context(), id, actorID, req.Venue, req.ProposedTime)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, ch)
	}
}

// ConfirmChallenge accepts the proposal on the table; challenger only.
func ConfirmChallenge(lc *challenge.Lifecycle) gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID, ok := memberID(c)
		if !ok {
			return
		}
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid challenge id"})
			return
		}

		ch, err := lc.Confirm(c.Request.Context(), id, actorID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, ch)
	}
}

// StartChallengeMatch spawns (or returns) the live match for a scheduled
// challenge. Safe to call twice; the second call gets the same match.
func StartChallengeMatch(lc *challenge.Lifecycle) gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID, ok := memberID(c)
		if !ok {
			return
		}
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid challenge id"})
			return
		}

		lm, err := lc.StartLiveMatch(c.Request.Context(), id, actorID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, lm)
	}
}
