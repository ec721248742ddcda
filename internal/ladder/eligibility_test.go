package ladder

import (
	"strings"
	"testing"
	"time"
)

func defaultPolicy() Policy {
	return Policy{ProximityWindow: 5, TopRankExempt: true}
}

func TestTopRankChallengesAnyone(t *testing.T) {
	now := time.Now()

	got := CanChallenge(1, 47, nil, now, defaultPolicy())
	if !got.Eligible {
		t.Errorf("Rank 1 vs rank 47 should be eligible, got reason %q", got.Reason)
	}
}

func TestOutsideWindowRejected(t *testing.T) {
	now := time.Now()

	got := CanChallenge(10, 20, nil, now, defaultPolicy())
	if got.Eligible {
		t.Error("Rank 10 vs rank 20 should be outside the window")
	}
	if !strings.Contains(got.Reason, "window") {
		t.Errorf("Reason should name the window, got %q", got.Reason)
	}
}

func TestActiveCooldownBlocks(t *testing.T) {
	now := time.Now()
	until := now.Add(2 * time.Hour)

	got := CanChallenge(10, 14, &until, now, defaultPolicy())
	if got.Eligible {
		t.Error("Active cooldown should block an otherwise valid challenge")
	}
	if !strings.Contains(got.Reason, "cooldown") {
		t.Errorf("Reason should name the cooldown, got %q", got.Reason)
	}
}

func TestExpiredCooldownIgnored(t *testing.T) {
	now := time.Now()
	until := now.Add(-1 * time.Minute)

	got := CanChallenge(10, 14, &until, now, defaultPolicy())
	if !got.Eligible {
		t.Errorf("Expired cooldown should not block, got reason %q", got.Reason)
	}
}

func TestCooldownAppliesToTopRankToo(t *testing.T) {
	now := time.Now()
	until := now.Add(time.Hour)

	got := CanChallenge(1, 30, &until, now, defaultPolicy())
	if got.Eligible {
		t.Error("Cooldown is checked before the top-rank exemption")
	}
}

func TestWindowBoundaries(t *testing.T) {
	now := time.Now()
	cases := []struct {
		challenger, target int
		eligible           bool
	}{
		{10, 15, true},  // exactly window below
		{10, 5, true},   // exactly window above
		{10, 16, false}, // one past, below
		{10, 4, false},  // one past, above
		{10, 10, true},  // same rank never happens in practice, but diff 0 passes
		{3, 2, true},
	}

	for _, c := range cases {
		got := CanChallenge(c.challenger, c.target, nil, now, defaultPolicy())
		if got.Eligible != c.eligible {
			t.Errorf("CanChallenge(%d, %d) eligible = %v, want %v (reason %q)",
				c.challenger, c.target, got.Eligible, c.eligible, got.Reason)
		}
	}
}

func TestTopRankExemptionCanBeDisabled(t *testing.T) {
	now := time.Now()
	p := Policy{ProximityWindow: 5, TopRankExempt: false}

	got := CanChallenge(1, 47, nil, now, p)
	if got.Eligible {
		t.Error("With the exemption disabled, rank 1 is bound by the window like everyone")
	}

	got = CanChallenge(1, 6, nil, now, p)
	if !got.Eligible {
		t.Errorf("Rank 1 vs rank 6 is inside the window regardless, got reason %q", got.Reason)
	}
}

func TestNarrowWindowPolicy(t *testing.T) {
	now := time.Now()
	p := Policy{ProximityWindow: 2, TopRankExempt: true}

	if got := CanChallenge(8, 5, nil, now, p); got.Eligible {
		t.Error("Diff of 3 should fail a ±2 window")
	}
	if got := CanChallenge(8, 6, nil, now, p); !got.Eligible {
		t.Errorf("Diff of 2 should pass a ±2 window, got reason %q", got.Reason)
	}
}
