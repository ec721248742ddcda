package ladder

import (
	"fmt"
	"time"
)

// Policy holds the tunable eligibility constants.
type Policy struct {
	ProximityWindow int
	TopRankExempt   bool
}

// Eligibility is the outcome of a policy evaluation. Reason is set only
// when Eligible is false.
type Eligibility struct {
	Eligible bool   `json:"eligible"`
	Reason   string `json:"reason,omitempty"`
}

// CanChallenge decides whether a member at challengerRank may challenge the
// member at targetRank. Rules in order: an active cooldown blocks
// everything, rank 1 may challenge anyone, otherwise the ranks must be
// within the proximity window. Pure function; callers must pass ranks read
// in the same transaction that records the challenge.
func CanChallenge(challengerRank, targetRank int, cooldownUntil *time.Time, now time.Time, p Policy) Eligibility {
	if cooldownUntil != nil && cooldownUntil.After(now) {
		return Eligibility{
			Eligible: false,
			Reason:   fmt.Sprintf("cooldown active until %s", cooldownUntil.UTC().Format(time.RFC3339)),
		}
	}

	if p.TopRankExempt && challengerRank == 1 {
		return Eligibility{Eligible: true}
	}

	diff := challengerRank - targetRank
	if diff < 0 {
		diff = -diff
	}
	if diff <= p.ProximityWindow {
		return Eligibility{Eligible: true}
	}

	return Eligibility{
		Eligible: false,
		Reason:   fmt.Sprintf("outside the ±%d rank window", p.ProximityWindow),
	}
}
