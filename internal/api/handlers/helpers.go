package handlers

import (
	"database/sql"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cueladder/backend/internal/challenge"
	"github.com/cueladder/backend/internal/database"
	"github.com/cueladder/backend/internal/ladder"
	"github.com/cueladder/backend/internal/match"
)

// memberID returns the authenticated member id set by AuthMiddleware.
func memberID(c *gin.Context) (int, bool) {
	v, ok := c.Get("member_id")
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return 0, false
	}
	return v.(int), true
}

// respondError maps the engine's error taxonomy onto HTTP statuses. Invalid
// transitions and match-state conflicts are the caller's race to lose (409);
// eligibility rejections carry their reason (422); invariant violations are
// internal (500); exhausted retries are retryable (503).
func respondError(c *gin.Context, err error) {
	var notEligible *ladder.NotEligibleError
	if errors.As(err, &notEligible) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "not eligible", "reason": notEligible.Reason})
		return
	}

	var invalidTransition *challenge.InvalidTransitionError
	if errors.As(err, &invalidTransition) {
		c.JSON(http.StatusConflict, gin.H{
			"error":  "invalid transition",
			"status": invalidTransition.From,
			"action": string(invalidTransition.Action),
		})
		return
	}

	switch {
	case errors.Is(err, challenge.ErrDuplicateChallenge):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, challenge.ErrNotAllowed):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, challenge.ErrVenueRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, match.ErrInvalidMatchState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, ladder.ErrInvalidRankState):
		log.Printf("[API] Rank state error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal rank state error"})
	case errors.Is(err, database.ErrRetriesExhausted):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "ladder busy, please retry"})
	case errors.Is(err, sql.ErrNoRows):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		log.Printf("[API] Unhandled error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
