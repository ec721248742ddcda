package challenge

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/cueladder/backend/internal/config"
	"github.com/cueladder/backend/internal/database"
	"github.com/cueladder/backend/internal/events"
	"github.com/cueladder/backend/internal/ladder"
	"github.com/cueladder/backend/internal/match"
	"github.com/cueladder/backend/internal/metrics"
	"github.com/cueladder/backend/internal/models"
)

var (
	// ErrNotAllowed rejects an action by a member who is not the party the
	// state machine expects.
	ErrNotAllowed = errors.New("member may not perform this action")

	// ErrDuplicateChallenge rejects a second open challenge for a pair.
	ErrDuplicateChallenge = errors.New("an open challenge already exists between these members")

	// ErrVenueRequired rejects a proposal without a venue.
	ErrVenueRequired = errors.New("a venue is required to propose a match")
)

// Forfeit winner policies. Challenger-wins is the house convention; the
// non-responder policy awards the win against whichever side owed the next
// response.
const (
	ForfeitWinnerChallenger   = "challenger"
	ForfeitWinnerNonResponder = "non_responder"
)

const challengeColumns = `id, challenger_id, challenged_id, discipline, games_to_win, venue, proposed_time, status, deadline, confirmed_at, match_id, winner_id, created_at, updated_at`

// Lifecycle drives challenges through the state machine. Every status write
// is compare-and-swapped against the status the decision was made on, so a
// racing sweep or user action fails loudly instead of double-applying.
type Lifecycle struct {
	db      *sqlx.DB
	cfg     *config.Config
	ranks   *ladder.Store
	sink    events.Sink
	matches *match.Manager
}

func NewLifecycle(db *sqlx.DB, cfg *config.Config, ranks *ladder.Store, sink events.Sink, matches *match.Manager) *Lifecycle {
	return &Lifecycle{db: db, cfg: cfg, ranks: ranks, sink: sink, matches: matches}
}

// Create opens a pending challenge after checking eligibility against ranks
// read in the same transaction that inserts the row.
func (l *Lifecycle) Create(ctx context.Context, challengerID, challengedID int, discipline string, gamesToWin int) (*models.Challenge, error) {
	if challengerID == challengedID {
		return nil, &ladder.NotEligibleError{Reason: "a member cannot challenge themselves"}
	}
	if discipline == "" {
		discipline = models.DisciplineEightBall
	}
	if gamesToWin < 1 {
		gamesToWin = 3
	}

	var ch models.Challenge
	err := database.WithSerializableRetry(ctx, l.db, l.cfg.SerializableRetries, func(tx *sqlx.Tx) error {
		challenger, challenged, err := l.ranks.MemberPairTx(ctx, tx, challengerID, challengedID)
		if err != nil {
			return err
		}

		var cooldown *time.Time
		if challenger.CooldownUntil.Valid {
			cooldown = &challenger.CooldownUntil.Time
		}
		elig := ladder.CanChallenge(challenger.Rank, challenged.Rank, cooldown, time.Now().UTC(), l.ranks.ChallengePolicy())
		if !elig.Eligible {
			return &ladder.NotEligibleError{Reason: elig.Reason}
		}

		deadline := time.Now().UTC().AddDate(0, 0, l.cfg.ResponseDeadlineDays)
		return tx.GetContext(ctx, &ch, `
			INSERT INTO challenges (challenger_id, challenged_id, discipline, games_to_win, status, deadline)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING `+challengeColumns+`
		`, challengerID, challengedID, discipline, gamesToWin, models.ChallengePending, deadline)
	})
	if err != nil {
		if database.IsUniqueViolation(err, "challenges_open_pair_idx") {
			return nil, ErrDuplicateChallenge
		}
		return nil, err
	}

	metrics.RecordChallengeCreated()
	l.sink.Emit(ctx, events.New(events.TypeChallengeCreated, map[string]interface{}{
		"challenge_id":  ch.ID,
		"challenger_id": ch.ChallengerID,
		"challenged_id": ch.ChallengedID,
		"discipline":    ch.Discipline,
		"deadline":      ch.Deadline,
	}))
	log.Printf("[CHALLENGE] ✓ Challenge %d created: member %d challenges member %d", ch.ID, challengerID, challengedID)
	return &ch, nil
}

// Propose is the challenged member's first response: venue (required) and an
// optional time, moving the challenge to negotiating.
func (l *Lifecycle) Propose(ctx context.Context, challengeID, actorID int, venue string, proposedTime *time.Time) (*models.Challenge, error) {
	return l.negotiate(ctx, challengeID, actorID, venue, proposedTime, ActionPropose)
}

// CounterPropose lets either party put a new venue/time on the table while
// the challenge stays negotiating.
func (l *Lifecycle) CounterPropose(ctx context.Context, challengeID, actorID int, venue string, proposedTime *time.Time) (*models.Challenge, error) {
	return l.negotiate(ctx, challengeID, actorID, venue, proposedTime, ActionCounter)
}

func (l *Lifecycle) negotiate(ctx context.Context, challengeID, actorID int, venue string, proposedTime *time.Time, action Action) (*models.Challenge, error) {
	if venue == "" {
		return nil, ErrVenueRequired
	}

	ch, err := l.GetByID(ctx, challengeID)
	if err != nil {
		return nil, err
	}

	switch action {
	case ActionPropose:
		if actorID != ch.ChallengedID {
			return nil, fmt.Errorf("%w: only the challenged member may respond to challenge %d", ErrNotAllowed, challengeID)
		}
	default:
		if actorID != ch.ChallengerID && actorID != ch.ChallengedID {
			return nil, fmt.Errorf("%w: member %d is not a party to challenge %d", ErrNotAllowed, actorID, challengeID)
		}
	}

	next, err := Next(ch.Status, action)
	if err != nil {
		return nil, err
	}

	var updated models.Challenge
	err = l.db.GetContext(ctx, &updated, `
		UPDATE challenges
		SET status = $1, venue = $2, proposed_time = $3, updated_at = NOW()
		WHERE id = $4 AND status = $5
		RETURNING `+challengeColumns+`
	`, next, venue, proposedTime, challengeID, ch.Status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, l.staleTransition(ctx, challengeID, action)
		}
		return nil, fmt.Errorf("update challenge %d: %w", challengeID, err)
	}

	metrics.RecordChallengeTransition(string(action))
	l.sink.Emit(ctx, events.New(events.TypeChallengeProposed, map[string]interface{}{
		"challenge_id":  updated.ID,
		"actor_id":      actorID,
		"venue":         venue,
		"proposed_time": proposedTime,
		"action":        string(action),
	}))
	log.Printf("[CHALLENGE] Challenge %d: member %d proposed %s", challengeID, actorID, venue)
	return &updated, nil
}

// Confirm accepts the proposal on the table. Only the challenger confirms;
// the challenge becomes scheduled. Eligibility is enforced at creation only,
// but rank drift since then is logged for the operators.
func (l *Lifecycle) Confirm(ctx context.Context, challengeID, actorID int) (*models.Challenge, error) {
	ch, err := l.GetByID(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if actorID != ch.ChallengerID {
		return nil, fmt.Errorf("%w: only the challenger may confirm challenge %d", ErrNotAllowed, challengeID)
	}

	next, err := Next(ch.Status, ActionConfirm)
	if err != nil {
		return nil, err
	}

	l.logEligibilityDrift(ctx, ch)

	var updated models.Challenge
	err = l.db.GetContext(ctx, &updated, `
		UPDATE challenges
		SET status = $1, confirmed_at = NOW(), updated_at = NOW()
		WHERE id = $2 AND status = $3
		RETURNING `+challengeColumns+`
	`, next, challengeID, ch.Status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, l.staleTransition(ctx, challengeID, ActionConfirm)
		}
		return nil, fmt.Errorf("update challenge %d: %w", challengeID, err)
	}

	metrics.RecordChallengeTransition(string(ActionConfirm))
	l.sink.Emit(ctx, events.New(events.TypeChallengeConfirmed, map[string]interface{}{
		"challenge_id":  updated.ID,
		"venue":         updated.Venue.String,
		"proposed_time": updated.ProposedTime.Time,
		"confirmed_at":  updated.ConfirmedAt.Time,
	}))
	log.Printf("[CHALLENGE] ✓ Challenge %d confirmed for %s", challengeID, updated.Venue.String)
	return &updated, nil
}

// StartLiveMatch spawns the live match for a scheduled challenge. Calling it
// again while the challenge is live returns the existing match.
func (l *Lifecycle) StartLiveMatch(ctx context.Context, challengeID, actorID int) (*match.LiveMatch, error) {
	ch, err := l.GetByID(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if actorID != ch.ChallengerID && actorID != ch.ChallengedID {
		return nil, fmt.Errorf("%w: member %d is not a party to challenge %d", ErrNotAllowed, actorID, challengeID)
	}

	if ch.Status == models.ChallengeLive {
		if !ch.MatchID.Valid {
			return nil, fmt.Errorf("challenge %d is live with no match attached", challengeID)
		}
		lm, err := l.matches.Get(ctx, ch.MatchID.String)
		if err == nil {
			return lm, nil
		}
		if !errors.Is(err, match.ErrInvalidMatchState) {
			return nil, err
		}
		// Snapshot gone after a restart; rebuild the match from the record.
		if _, err := l.matches.StartForChallenge(ctx, ch.ID, ch.ChallengerID, ch.ChallengedID, ch.GamesToWin, ch.MatchID.String); err != nil {
			return nil, err
		}
		return l.matches.Get(ctx, ch.MatchID.String)
	}

	if _, err := Next(ch.Status, ActionStart); err != nil {
		return nil, err
	}

	// Claim the pair slot first; the status flip below only commits if the
	// challenge is still scheduled.
	matchID, err := l.matches.StartForChallenge(ctx, ch.ID, ch.ChallengerID, ch.ChallengedID, ch.GamesToWin, "")
	if err != nil {
		if errors.Is(err, match.ErrInvalidMatchState) {
			if fresh, ferr := l.GetByID(ctx, challengeID); ferr == nil && fresh.Status == models.ChallengeLive && fresh.MatchID.Valid {
				return l.matches.Get(ctx, fresh.MatchID.String)
			}
		}
		return nil, err
	}

	res, err := l.db.ExecContext(ctx, `
		UPDATE challenges
		SET status = $1, match_id = $2, updated_at = NOW()
		WHERE id = $3 AND status = $4
	`, models.ChallengeLive, matchID, challengeID, ch.Status)
	if err != nil {
		l.matches.Abort(ctx, matchID)
		return nil, fmt.Errorf("update challenge %d: %w", challengeID, err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		l.matches.Abort(ctx, matchID)
		if fresh, ferr := l.GetByID(ctx, challengeID); ferr == nil {
			if fresh.Status == models.ChallengeLive && fresh.MatchID.Valid {
				return l.matches.Get(ctx, fresh.MatchID.String)
			}
			return nil, &InvalidTransitionError{From: fresh.Status, Action: ActionStart}
		}
		return nil, l.staleTransition(ctx, challengeID, ActionStart)
	}

	metrics.RecordChallengeTransition(string(ActionStart))
	log.Printf("[CHALLENGE] ✓ Challenge %d is live, match %s", challengeID, matchID)
	return l.matches.Get(ctx, matchID)
}

// ResolveMatch closes out a completed live match. Matches spawned by a
// challenge close their challenge and shift ranks in one transaction; direct
// matches go straight to the rank store.
func (l *Lifecycle) ResolveMatch(ctx context.Context, challengeID int, matchID string, winnerID, loserID int) error {
	if challengeID == 0 {
		if err := l.ranks.ApplyWin(ctx, winnerID, loserID); err != nil {
			return err
		}
		l.sink.Emit(ctx, events.New(events.TypeMatchCompleted, map[string]interface{}{
			"match_id":  matchID,
			"winner_id": winnerID,
			"loser_id":  loserID,
		}))
		return nil
	}
	return l.CompleteFromMatch(ctx, challengeID, matchID, winnerID, loserID)
}

// CompleteFromMatch flips a live challenge to completed and applies the rank
// shift in the same serializable transaction.
func (l *Lifecycle) CompleteFromMatch(ctx context.Context, challengeID int, matchID string, winnerID, loserID int) error {
	var res *ladder.ShiftResult
	err := database.WithSerializableRetry(ctx, l.db, l.cfg.SerializableRetries, func(tx *sqlx.Tx) error {
		res = nil

		var ch models.Challenge
		if err := tx.GetContext(ctx, &ch,
			`SELECT `+challengeColumns+` FROM challenges WHERE id = $1`, challengeID); err != nil {
			return err
		}
		// Terminal rows are immutable.
		if ch.Terminal() {
			return &InvalidTransitionError{From: ch.Status, Action: ActionComplete}
		}
		if !ch.MatchID.Valid || ch.MatchID.String != matchID {
			return fmt.Errorf("%w: match %s does not belong to challenge %d", ErrNotAllowed, matchID, challengeID)
		}
		legit := (winnerID == ch.ChallengerID && loserID == ch.ChallengedID) ||
			(winnerID == ch.ChallengedID && loserID == ch.ChallengerID)
		if !legit {
			return fmt.Errorf("%w: result players (%d, %d) do not match challenge %d", ErrNotAllowed, winnerID, loserID, challengeID)
		}

		next, err := Next(ch.Status, ActionComplete)
		if err != nil {
			return err
		}

		casRes, err := tx.ExecContext(ctx, `
			UPDATE challenges
			SET status = $1, winner_id = $2, updated_at = NOW()
			WHERE id = $3 AND status = $4
		`, next, winnerID, challengeID, ch.Status)
		if err != nil {
			return fmt.Errorf("update challenge %d: %w", challengeID, err)
		}
		if rows, _ := casRes.RowsAffected(); rows == 0 {
			return &InvalidTransitionError{From: ch.Status, Action: ActionComplete}
		}

		res, err = l.ranks.ApplyWinTx(ctx, tx, winnerID, loserID)
		return err
	})
	if err != nil {
		return err
	}

	l.ranks.EmitMatchWon(ctx, res)
	metrics.RecordChallengeTransition(string(ActionComplete))
	l.sink.Emit(ctx, events.New(events.TypeMatchCompleted, map[string]interface{}{
		"challenge_id": challengeID,
		"match_id":     matchID,
		"winner_id":    winnerID,
		"loser_id":     loserID,
	}))
	log.Printf("[CHALLENGE] ✓ Challenge %d completed: member %d beat member %d", challengeID, winnerID, loserID)
	return nil
}

// Forfeit closes a non-terminal challenge whose deadline passed, awarding
// the win per the configured forfeit policy. The status flip and the rank
// shift share one serializable transaction, so a sweep interrupted mid-run
// leaves only whole forfeitures behind.
func (l *Lifecycle) Forfeit(ctx context.Context, challengeID int) (*models.Challenge, error) {
	var (
		updated   models.Challenge
		res       *ladder.ShiftResult
		wasLive   bool
		liveMatch string
	)
	err := database.WithSerializableRetry(ctx, l.db, l.cfg.SerializableRetries, func(tx *sqlx.Tx) error {
		res = nil

		var ch models.Challenge
		if err := tx.GetContext(ctx, &ch,
			`SELECT `+challengeColumns+` FROM challenges WHERE id = $1`, challengeID); err != nil {
			return err
		}
		if ch.Terminal() {
			return &InvalidTransitionError{From: ch.Status, Action: ActionForfeit}
		}

		next, err := Next(ch.Status, ActionForfeit)
		if err != nil {
			return err
		}

		winnerID, loserID := forfeitOutcome(&ch, l.cfg.ForfeitWinner)
		wasLive = ch.Status == models.ChallengeLive
		liveMatch = ch.MatchID.String

		if err := tx.GetContext(ctx, &updated, `
			UPDATE challenges
			SET status = $1, winner_id = $2, updated_at = NOW()
			WHERE id = $3 AND status = $4
			RETURNING `+challengeColumns+`
		`, next, winnerID, challengeID, ch.Status); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return &InvalidTransitionError{From: ch.Status, Action: ActionForfeit}
			}
			return fmt.Errorf("update challenge %d: %w", challengeID, err)
		}

		res, err = l.ranks.ApplyWinTx(ctx, tx, winnerID, loserID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if wasLive && liveMatch != "" {
		// The backing match is now an orphan; drop it so the pair frees up.
		if err := l.matches.Abort(ctx, liveMatch); err != nil {
			log.Printf("[CHALLENGE] Abort of orphaned match %s failed: %v", liveMatch, err)
		}
	}

	l.ranks.EmitMatchWon(ctx, res)
	metrics.RecordChallengeTransition(string(ActionForfeit))
	l.sink.Emit(ctx, events.New(events.TypeChallengeForfeited, map[string]interface{}{
		"challenge_id": updated.ID,
		"winner_id":    updated.WinnerID.Int64,
		"deadline":     updated.Deadline,
	}))
	log.Printf("[CHALLENGE] Challenge %d forfeited, member %d takes the win", challengeID, updated.WinnerID.Int64)
	return &updated, nil
}

// forfeitOutcome picks the forfeit winner. The house convention awards the
// challenger; the non-responder policy awards against whichever side owed
// the next response.
func forfeitOutcome(ch *models.Challenge, policy string) (winnerID, loserID int) {
	if policy == ForfeitWinnerNonResponder && ch.Status == models.ChallengeNegotiating {
		// A proposal is on the table and the challenger never confirmed.
		return ch.ChallengedID, ch.ChallengerID
	}
	return ch.ChallengerID, ch.ChallengedID
}

// staleTransition turns a failed compare-and-swap into the error the caller
// would have seen reading the fresh status.
func (l *Lifecycle) staleTransition(ctx context.Context, challengeID int, action Action) error {
	fresh, err := l.GetByID(ctx, challengeID)
	if err != nil {
		return err
	}
	return &InvalidTransitionError{From: fresh.Status, Action: action}
}

// logEligibilityDrift flags confirms whose rank gap has drifted outside the
// window since creation. Enforcement stays at creation time.
func (l *Lifecycle) logEligibilityDrift(ctx context.Context, ch *models.Challenge) {
	challenger, err := l.ranks.MemberByID(ctx, ch.ChallengerID)
	if err != nil {
		return
	}
	challenged, err := l.ranks.MemberByID(ctx, ch.ChallengedID)
	if err != nil {
		return
	}
	elig := ladder.CanChallenge(challenger.Rank, challenged.Rank, nil, time.Now().UTC(), l.ranks.ChallengePolicy())
	if !elig.Eligible {
		log.Printf("[CHALLENGE] Challenge %d confirmed after rank drift: %s", ch.ID, elig.Reason)
	}
}

// GetByID loads one challenge.
func (l *Lifecycle) GetByID(ctx context.Context, id int) (*models.Challenge, error) {
	var ch models.Challenge
	if err := l.db.GetContext(ctx, &ch,
		`SELECT `+challengeColumns+` FROM challenges WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &ch, nil
}

// ListForMember returns a member's challenges, newest first, optionally
// filtered by status.
func (l *Lifecycle) ListForMember(ctx context.Context, memberID int, status string, limit, offset int) ([]models.Challenge, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	challenges := []models.Challenge{}
	var err error
	if status != "" {
		err = l.db.SelectContext(ctx, &challenges, `
			SELECT `+challengeColumns+` FROM challenges
			WHERE (challenger_id = $1 OR challenged_id = $1) AND status = $2
			ORDER BY created_at DESC
			LIMIT $3 OFFSET $4
		`, memberID, status, limit, offset)
	} else {
		err = l.db.SelectContext(ctx, &challenges, `
			SELECT `+challengeColumns+` FROM challenges
			WHERE challenger_id = $1 OR challenged_id = $1
			ORDER BY created_at DESC
			LIMIT $2 OFFSET $3
		`, memberID, limit, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("list challenges for member %d: %w", memberID, err)
	}
	return challenges, nil
}
