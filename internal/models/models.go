package models

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

// Challenge statuses
const (
	ChallengePending     = "pending"
	ChallengeNegotiating = "negotiating"
	ChallengeScheduled   = "scheduled"
	ChallengeLive        = "live"
	ChallengeCompleted   = "completed"
	ChallengeForfeited   = "forfeited"
)

// Disciplines (informational only, no rule engine behind them)
const (
	DisciplineEightBall = "eight_ball"
	DisciplineNineBall  = "nine_ball"
	DisciplineSnooker   = "snooker"
	DisciplineBilliards = "billiards"
)

// Member represents a club member occupying one ladder slot
type Member struct {
	ID            int          `db:"id" json:"id"`
	Name          string       `db:"name" json:"name"`
	Email         string       `db:"email" json:"email"`
	Rank          int          `db:"rank" json:"rank"`
	Rating        int          `db:"rating" json:"rating"`
	Points        int          `db:"points" json:"points"`
	CooldownUntil sql.NullTime `db:"cooldown_until" json:"cooldown_until,omitempty"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time    `db:"updated_at" json:"updated_at"`
}

// Challenge represents one challenge between two members
type Challenge struct {
	ID           int            `db:"id" json:"id"`
	ChallengerID int            `db:"challenger_id" json:"challenger_id"`
	ChallengedID int            `db:"challenged_id" json:"challenged_id"`
	Discipline   string         `db:"discipline" json:"discipline"`
	GamesToWin   int            `db:"games_to_win" json:"games_to_win"`
	Venue        sql.NullString `db:"venue" json:"venue,omitempty"`
	ProposedTime sql.NullTime   `db:"proposed_time" json:"proposed_time,omitempty"`
	Status       string         `db:"status" json:"status"`
	Deadline     time.Time      `db:"deadline" json:"deadline"`
	ConfirmedAt  sql.NullTime   `db:"confirmed_at" json:"confirmed_at,omitempty"`
	MatchID      sql.NullString `db:"match_id" json:"match_id,omitempty"`
	WinnerID     sql.NullInt64  `db:"winner_id" json:"winner_id,omitempty"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// Terminal reports whether the challenge can no longer change state
func (c *Challenge) Terminal() bool {
	return c.Status == ChallengeCompleted || c.Status == ChallengeForfeited
}

// ActivityEntry is one row of the append-only activity/audit feed
type ActivityEntry struct {
	ID        int       `db:"id" json:"id"`
	EventType string    `db:"event_type" json:"event_type"`
	Payload   []byte    `db:"payload" json:"payload"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Operator is a league operator account authenticated by a bcrypt token
type Operator struct {
	ID          int            `db:"id" json:"id"`
	Email       string         `db:"email" json:"email"`
	DisplayName string         `db:"display_name" json:"display_name"`
	TokenHash   string         `db:"token_hash" json:"-"`
	Roles       pq.StringArray `db:"roles" json:"roles"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}
