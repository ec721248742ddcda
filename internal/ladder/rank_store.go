package ladder

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/cueladder/backend/internal/config"
	"github.com/cueladder/backend/internal/database"
	"github.com/cueladder/backend/internal/events"
	"github.com/cueladder/backend/internal/metrics"
	"github.com/cueladder/backend/internal/models"
)

const memberColumns = `id, name, email, rank, rating, points, cooldown_until, created_at, updated_at`

// Store owns the canonical member ranking. It is the only writer of the
// rank column; every other component hands results to it.
type Store struct {
	db   *sqlx.DB
	cfg  *config.Config
	sink events.Sink
}

// ShiftResult describes one applied win for the audit trail.
type ShiftResult struct {
	WinnerID      int  `json:"winner_id"`
	LoserID       int  `json:"loser_id"`
	WinnerOldRank int  `json:"winner_old_rank"`
	LoserOldRank  int  `json:"loser_old_rank"`
	WinnerNewRank int  `json:"winner_new_rank"`
	Shifted       bool `json:"shifted"`
}

// MemberImport is one row of a bulk ladder import.
type MemberImport struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Rank  int    `json:"rank"`
}

func NewStore(db *sqlx.DB, cfg *config.Config, sink events.Sink) *Store {
	return &Store{db: db, cfg: cfg, sink: sink}
}

// ChallengePolicy builds the eligibility policy from config.
func (s *Store) ChallengePolicy() Policy {
	return Policy{
		ProximityWindow: s.cfg.ProximityWindow,
		TopRankExempt:   s.cfg.TopRankExempt,
	}
}

// ApplyWin records a win in its own serializable transaction and announces
// the result. Use ApplyWinTx to compose the mutation into a wider
// transaction instead.
func (s *Store) ApplyWin(ctx context.Context, winnerID, loserID int) error {
	var res *ShiftResult
	err := database.WithSerializableRetry(ctx, s.db, s.cfg.SerializableRetries, func(tx *sqlx.Tx) error {
		r, err := s.ApplyWinTx(ctx, tx, winnerID, loserID)
		if err != nil {
			return err
		}
		res = r
		return nil
	})
	if err != nil {
		return err
	}

	s.EmitMatchWon(ctx, res)
	return nil
}

// ApplyWinTx applies the slide inside the caller's transaction: the winner
// takes the loser's slot and everyone between moves back one. A win over a
// lower-ranked opponent moves nothing but still starts the loser's
// cooldown. The caller must call EmitMatchWon after committing.
func (s *Store) ApplyWinTx(ctx context.Context, tx *sqlx.Tx, winnerID, loserID int) (*ShiftResult, error) {
	if winnerID == loserID {
		return nil, fmt.Errorf("%w: winner and loser are the same member (%d)", ErrInvalidRankState, winnerID)
	}

	var rows []struct {
		ID   int `db:"id"`
		Rank int `db:"rank"`
	}
	if err := tx.SelectContext(ctx, &rows,
		`SELECT id, rank FROM members WHERE id IN ($1, $2)`, winnerID, loserID); err != nil {
		return nil, fmt.Errorf("read ranks: %w", err)
	}
	if len(rows) != 2 {
		return nil, fmt.Errorf("%w: unknown member in result (winner=%d, loser=%d)", ErrInvalidRankState, winnerID, loserID)
	}

	res := &ShiftResult{WinnerID: winnerID, LoserID: loserID}
	for _, r := range rows {
		if r.ID == winnerID {
			res.WinnerOldRank = r.Rank
		} else {
			res.LoserOldRank = r.Rank
		}
	}

	plan := planShift(res.WinnerOldRank, res.LoserOldRank)
	res.WinnerNewRank = plan.winnerNewRank
	res.Shifted = !plan.noop

	cooldownUntil := time.Now().UTC().Add(time.Duration(s.cfg.LossCooldownHours) * time.Hour)
	if err := writeWin(ctx, tx, plan, winnerID, loserID, cooldownUntil); err != nil {
		return nil, err
	}

	if res.Shifted {
		if err := s.checkDenseTx(ctx, tx); err != nil {
			return nil, err
		}
	}

	return res, nil
}

// execContexter is the one slice of sqlx.Tx the win writes need, seamed
// out so the write sequence is checkable without a database.
type execContexter interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// writeWin issues the row updates one win produces: the rank slide when
// the plan moves anyone, then the loser's cooldown. A loss always starts
// the cooldown, no-op plans included.
func writeWin(ctx context.Context, ex execContexter, plan shiftPlan, winnerID, loserID int, cooldownUntil time.Time) error {
	if !plan.noop {
		if _, err := ex.ExecContext(ctx,
			`UPDATE members SET rank = rank + 1, updated_at = NOW() WHERE rank >= $1 AND rank < $2`,
			plan.shiftFrom, plan.shiftTo); err != nil {
			return fmt.Errorf("shift ranks: %w", err)
		}
		if _, err := ex.ExecContext(ctx,
			`UPDATE members SET rank = $1, updated_at = NOW() WHERE id = $2`,
			plan.winnerNewRank, winnerID); err != nil {
			return fmt.Errorf("place winner: %w", err)
		}
	}

	if _, err := ex.ExecContext(ctx,
		`UPDATE members SET cooldown_until = $1, updated_at = NOW() WHERE id = $2`,
		cooldownUntil, loserID); err != nil {
		return fmt.Errorf("set cooldown: %w", err)
	}

	return nil
}

// EmitMatchWon publishes the audit event for an applied result. Callers of
// ApplyWinTx invoke it once their own transaction has committed.
func (s *Store) EmitMatchWon(ctx context.Context, res *ShiftResult) {
	metrics.RecordRankApplication(res.Shifted)
	s.sink.Emit(ctx, events.New(events.TypeMatchWon, map[string]interface{}{
		"winner_id":       res.WinnerID,
		"loser_id":        res.LoserID,
		"winner_old_rank": res.WinnerOldRank,
		"loser_old_rank":  res.LoserOldRank,
		"winner_new_rank": res.WinnerNewRank,
		"shifted":         res.Shifted,
	}))
}

// checkDenseTx verifies ranks still form a dense permutation of 1..N. A
// violation is never repaired; the transaction must roll back.
func (s *Store) checkDenseTx(ctx context.Context, tx *sqlx.Tx) error {
	var agg struct {
		Total         int `db:"total"`
		DistinctRanks int `db:"distinct_ranks"`
		MinRank       int `db:"min_rank"`
		MaxRank       int `db:"max_rank"`
	}
	if err := tx.GetContext(ctx, &agg, `
		SELECT COUNT(*) AS total,
		       COUNT(DISTINCT rank) AS distinct_ranks,
		       COALESCE(MIN(rank), 0) AS min_rank,
		       COALESCE(MAX(rank), 0) AS max_rank
		FROM members
	`); err != nil {
		return fmt.Errorf("verify ranks: %w", err)
	}

	if !ranksAreDense(agg.Total, agg.DistinctRanks, agg.MinRank, agg.MaxRank) {
		log.Printf("[LADDER] Rank invariant violation: total=%d distinct=%d min=%d max=%d",
			agg.Total, agg.DistinctRanks, agg.MinRank, agg.MaxRank)
		return fmt.Errorf("%w: ranks are not a dense permutation (total=%d distinct=%d min=%d max=%d)",
			ErrInvalidRankState, agg.Total, agg.DistinctRanks, agg.MinRank, agg.MaxRank)
	}
	return nil
}

// Ladder returns every member ordered best first.
func (s *Store) Ladder(ctx context.Context) ([]models.Member, error) {
	var members []models.Member
	if err := s.db.SelectContext(ctx, &members,
		`SELECT `+memberColumns+` FROM members ORDER BY rank ASC`); err != nil {
		return nil, fmt.Errorf("load ladder: %w", err)
	}
	return members, nil
}

// MemberByID loads one member.
func (s *Store) MemberByID(ctx context.Context, id int) (*models.Member, error) {
	var m models.Member
	if err := s.db.GetContext(ctx, &m,
		`SELECT `+memberColumns+` FROM members WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &m, nil
}

// MemberPairTx loads two members inside the caller's transaction, returned
// in the order requested.
func (s *Store) MemberPairTx(ctx context.Context, tx *sqlx.Tx, firstID, secondID int) (*models.Member, *models.Member, error) {
	var rows []models.Member
	if err := tx.SelectContext(ctx, &rows,
		`SELECT `+memberColumns+` FROM members WHERE id IN ($1, $2)`, firstID, secondID); err != nil {
		return nil, nil, fmt.Errorf("read member pair: %w", err)
	}
	if len(rows) != 2 {
		return nil, nil, fmt.Errorf("%w: unknown member (ids %d, %d)", ErrInvalidRankState, firstID, secondID)
	}
	if rows[0].ID == firstID {
		return &rows[0], &rows[1], nil
	}
	return &rows[1], &rows[0], nil
}

// AppendMember onboards a member at the bottom of the ladder (rank N+1).
func (s *Store) AppendMember(ctx context.Context, name, email string) (*models.Member, error) {
	var m models.Member
	err := database.WithSerializableRetry(ctx, s.db, s.cfg.SerializableRetries, func(tx *sqlx.Tx) error {
		return tx.GetContext(ctx, &m, `
			INSERT INTO members (name, email, rank)
			VALUES ($1, $2, (SELECT COALESCE(MAX(rank), 0) + 1 FROM members))
			RETURNING `+memberColumns+`
		`, name, email)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[LADDER] Member %d (%s) onboarded at rank %d", m.ID, m.Email, m.Rank)
	return &m, nil
}

// ImportMembers upserts members with explicit ranks in one transaction.
// The resulting ladder must be a dense permutation or nothing is kept.
func (s *Store) ImportMembers(ctx context.Context, imports []MemberImport) (int, error) {
	if len(imports) == 0 {
		return 0, nil
	}

	count := 0
	err := database.WithSerializableRetry(ctx, s.db, s.cfg.SerializableRetries, func(tx *sqlx.Tx) error {
		count = 0
		for _, im := range imports {
			if im.Rank < 1 {
				return fmt.Errorf("%w: import rank %d for %s", ErrInvalidRankState, im.Rank, im.Email)
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO members (name, email, rank)
				VALUES ($1, $2, $3)
				ON CONFLICT (email) DO UPDATE SET
					name = EXCLUDED.name,
					rank = EXCLUDED.rank,
					updated_at = NOW()
			`, im.Name, im.Email, im.Rank); err != nil {
				return fmt.Errorf("import member %s: %w", im.Email, err)
			}
			count++
		}
		return s.checkDenseTx(ctx, tx)
	})
	if err != nil {
		return 0, err
	}

	log.Printf("[LADDER] Imported %d members", count)
	return count, nil
}
