package challenge

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/cueladder/backend/internal/metrics"
	"github.com/cueladder/backend/internal/models"
)

// sweepBatchSize caps one pass; anything left over is picked up next tick.
const sweepBatchSize = 100

// minSweepInterval floors the ticker so a zeroed-out deployment knob
// cannot panic time.NewTicker.
const minSweepInterval = time.Minute

// forfeiter resolves one expired challenge. Satisfied by *Lifecycle.
type forfeiter interface {
	Forfeit(ctx context.Context, challengeID int) (*models.Challenge, error)
}

// Sweeper forfeits challenges that sat past their response deadline. Each
// challenge resolves in its own transaction through Lifecycle.Forfeit, so
// overlapping sweeps and racing user actions settle by compare-and-swap:
// one writer wins, the rest skip.
type Sweeper struct {
	db        *sqlx.DB
	lifecycle forfeiter
	interval  time.Duration
}

func NewSweeper(db *sqlx.DB, lifecycle forfeiter, interval time.Duration) *Sweeper {
	if interval < minSweepInterval {
		interval = minSweepInterval
	}
	return &Sweeper{db: db, lifecycle: lifecycle, interval: interval}
}

// Start runs sweeps on the configured interval until ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	go func() {
		log.Printf("[SWEEPER] Started, sweeping every %s", s.interval)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Printf("[SWEEPER] Stopped")
				return
			case <-ticker.C:
				if _, err := s.RunSweep(ctx); err != nil {
					log.Printf("[SWEEPER] Sweep failed: %v", err)
				}
			}
		}
	}()
}

// RunSweep forfeits every expired waiting challenge it can and returns the
// number resolved.
func (s *Sweeper) RunSweep(ctx context.Context) (int, error) {
	started := time.Now()
	defer func() {
		metrics.ObserveSweepDuration(time.Since(started))
	}()

	var ids []int
	if err := s.db.SelectContext(ctx, &ids, `
		SELECT id FROM challenges
		WHERE status IN ('pending', 'negotiating', 'scheduled')
		  AND deadline < NOW()
		ORDER BY deadline ASC
		LIMIT $1
	`, sweepBatchSize); err != nil {
		return 0, fmt.Errorf("scan expired challenges: %w", err)
	}

	count := s.resolveExpired(ctx, ids)
	if count > 0 {
		metrics.RecordForfeitsSwept(count)
		log.Printf("[SWEEPER] ✓ Forfeited %d expired challenges", count)
	}
	return count, nil
}

// resolveExpired forfeits each candidate in turn. A challenge that a user
// action (or another sweep) beat us to is skipped; other failures are
// logged and retried on a later pass.
func (s *Sweeper) resolveExpired(ctx context.Context, ids []int) int {
	count := 0
	for _, id := range ids {
		if _, err := s.lifecycle.Forfeit(ctx, id); err != nil {
			if IsInvalidTransition(err) {
				// Someone resolved it between the scan and our write.
				continue
			}
			log.Printf("[SWEEPER] Forfeit of challenge %d failed: %v", id, err)
			continue
		}
		count++
	}
	return count
}
