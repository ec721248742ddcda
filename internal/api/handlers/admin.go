package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/cueladder/backend/internal/challenge"
	"github.com/cueladder/backend/internal/events"
	"github.com/cueladder/backend/internal/ladder"
	"github.com/cueladder/backend/internal/match"
)

// RunSweep triggers one housekeeping pass by hand and returns the number
// of challenges forfeited. The background ticker does the same thing.
func RunSweep(sweeper *challenge.Sweeper) gin.HandlerFunc {
	return func(c *gin.Context) {
		count, err := sweeper.RunSweep(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"resolved": count})
	}
}

// ForfeitChallenge forces one challenge through the forfeit transition.
// The sweeper never touches live challenges; this is the operator's lever
// for a match that will never finish.
func ForfeitChallenge(lc *challenge.Lifecycle) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid challenge id"})
			return
		}

		ch, err := lc.Forfeit(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, ch)
	}
}

// OnboardMember adds a member at the bottom of the ladder (rank N+1).
func OnboardMember(store *ladder.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name  string `json:"name" binding:"required"`
			Email string `json:"email" binding:"required,email"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name and email required"})
			return
		}

		m, err := store.AppendMember(c.Request.Context(), req.Name, req.Email)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, m)
	}
}

// ImportMembers bulk-loads members with explicit ranks. The resulting
// ladder must be a dense permutation of 1..N or the whole import rolls
// back.
func ImportMembers(store *ladder.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Members []ladder.MemberImport `json:"members" binding:"required"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "members required"})
			return
		}

		count, err := store.ImportMembers(c.Request.Context(), req.Members)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"imported": count})
	}
}

// GetActivity tails the audit feed. Supports ?type=, ?limit=, ?offset=.
func GetActivity(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

		entries, err := events.RecentActivity(c.Request.Context(), db, c.Query("type"), limit, offset)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"activity": entries, "count": len(entries)})
	}
}

// ResolveMatchAgain retries the ladder update for a completed match whose
// first resolution failed (e.g. the database was briefly unreachable).
func ResolveMatchAgain(mgr *match.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := mgr.ResolveAgain(c.Request.Context(), c.Param("id")); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"resolved": true})
	}
}
