package challenge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cueladder/backend/internal/models"
)

// stubForfeiter scripts per-challenge outcomes and records resolutions.
type stubForfeiter struct {
	failWith map[int]error
	resolved []int
}

func (s *stubForfeiter) Forfeit(ctx context.Context, challengeID int) (*models.Challenge, error) {
	if err, ok := s.failWith[challengeID]; ok {
		return nil, err
	}
	s.resolved = append(s.resolved, challengeID)
	return &models.Challenge{ID: challengeID, Status: models.ChallengeForfeited}, nil
}

func TestResolveExpiredCountsAndContinues(t *testing.T) {
	stub := &stubForfeiter{
		failWith: map[int]error{
			// A user confirmed challenge 2 between the scan and our write.
			2: &InvalidTransitionError{From: models.ChallengeScheduled, Action: ActionForfeit},
			// Challenge 3 hit a transient failure; next pass retries it.
			3: errors.New("connection reset"),
		},
	}
	s := NewSweeper(nil, stub, time.Minute)

	count := s.resolveExpired(context.Background(), []int{1, 2, 3, 4})

	if count != 2 {
		t.Errorf("Resolved count %d, want 2", count)
	}
	if len(stub.resolved) != 2 || stub.resolved[0] != 1 || stub.resolved[1] != 4 {
		t.Errorf("Resolved challenges %v, want [1 4]", stub.resolved)
	}
}

func TestResolveExpiredEmptyScan(t *testing.T) {
	s := NewSweeper(nil, &stubForfeiter{}, time.Minute)

	if count := s.resolveExpired(context.Background(), nil); count != 0 {
		t.Errorf("Empty scan resolved %d, want 0", count)
	}
}

func TestNewSweeperFloorsInterval(t *testing.T) {
	for _, interval := range []time.Duration{0, -time.Minute, time.Second} {
		s := NewSweeper(nil, &stubForfeiter{}, interval)
		if s.interval < minSweepInterval {
			t.Errorf("Interval %s accepted below the %s floor", s.interval, minSweepInterval)
		}
	}

	s := NewSweeper(nil, &stubForfeiter{}, 5*time.Minute)
	if s.interval != 5*time.Minute {
		t.Errorf("Interval %s, want the configured 5m", s.interval)
	}
}
