package ladder

import (
	"sort"
	"testing"
)

// applySlide runs a plan against an in-memory rank snapshot, performing the
// same writes the store issues in SQL.
func applySlide(ranks map[string]int, winner, loser string) map[string]int {
	plan := planShift(ranks[winner], ranks[loser])
	out := make(map[string]int, len(ranks))
	for id, r := range ranks {
		switch {
		case plan.noop:
			out[id] = r
		case id == winner:
			out[id] = plan.winnerNewRank
		case r >= plan.shiftFrom && r < plan.shiftTo:
			out[id] = r + 1
		default:
			out[id] = r
		}
	}
	return out
}

func assertRanks(t *testing.T, got map[string]int, want map[string]int) {
	t.Helper()
	for id, r := range want {
		if got[id] != r {
			t.Errorf("Member %s at rank %d, want %d", id, got[id], r)
		}
	}
}

func assertDense(t *testing.T, ranks map[string]int) {
	t.Helper()
	values := make([]int, 0, len(ranks))
	for _, r := range ranks {
		values = append(values, r)
	}
	sort.Ints(values)
	for i, r := range values {
		if r != i+1 {
			t.Fatalf("Ranks are not dense: %v", values)
		}
	}
}

func TestWinnerTakesLosersSlot(t *testing.T) {
	ranks := map[string]int{"A": 1, "B": 2, "C": 3, "D": 4}

	got := applySlide(ranks, "D", "B")

	assertRanks(t, got, map[string]int{"A": 1, "D": 2, "B": 3, "C": 4})
	assertDense(t, got)
}

func TestWinAgainstLowerRankMovesNothing(t *testing.T) {
	ranks := map[string]int{"A": 1, "B": 2, "C": 3, "D": 4}

	got := applySlide(ranks, "B", "D")

	assertRanks(t, got, ranks)
}

func TestAdjacentWinSwapsTwoSlots(t *testing.T) {
	ranks := map[string]int{"A": 1, "B": 2, "C": 3, "D": 4}

	got := applySlide(ranks, "D", "C")

	assertRanks(t, got, map[string]int{"A": 1, "B": 2, "D": 3, "C": 4})
	assertDense(t, got)
}

func TestBottomBeatsTop(t *testing.T) {
	ranks := map[string]int{"A": 1, "B": 2, "C": 3, "D": 4}

	got := applySlide(ranks, "D", "A")

	assertRanks(t, got, map[string]int{"D": 1, "A": 2, "B": 3, "C": 4})
	assertDense(t, got)
}

func TestLongWinSequenceStaysDense(t *testing.T) {
	ranks := map[string]int{}
	ids := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}
	for i, id := range ids {
		ranks[id] = i + 1
	}

	results := []struct{ winner, loser string }{
		{"j", "e"}, {"h", "a"}, {"c", "j"},
		{"b", "h"}, {"e", "b"}, {"i", "c"}, {"a", "d"},
		{"g", "a"}, {"d", "g"}, {"j", "h"}, {"f", "e"},
	}

	for _, r := range results {
		ranks = applySlide(ranks, r.winner, r.loser)
		assertDense(t, ranks)
	}
}

func TestPlanBounds(t *testing.T) {
	plan := planShift(7, 3)

	if plan.noop {
		t.Fatal("Winner ranked 7 beating rank 3 must shift")
	}
	if plan.shiftFrom != 3 || plan.shiftTo != 7 {
		t.Errorf("Shift range [%d, %d), want [3, 7)", plan.shiftFrom, plan.shiftTo)
	}
	if plan.winnerNewRank != 3 {
		t.Errorf("Winner lands on rank %d, want 3", plan.winnerNewRank)
	}
}

func TestPlanNoopKeepsWinnerRank(t *testing.T) {
	plan := planShift(2, 9)

	if !plan.noop {
		t.Fatal("Winner already above loser must be a no-op")
	}
	if plan.winnerNewRank != 2 {
		t.Errorf("No-op plan reports winner rank %d, want 2", plan.winnerNewRank)
	}
}

func TestRanksAreDense(t *testing.T) {
	cases := []struct {
		total, distinct, min, max int
		want                      bool
	}{
		{0, 0, 0, 0, true},
		{4, 4, 1, 4, true},
		{1, 1, 1, 1, true},
		{4, 3, 1, 4, false}, // duplicate rank
		{4, 4, 2, 5, false}, // does not start at 1
		{4, 4, 1, 5, false}, // gap inside
	}

	for _, c := range cases {
		if got := ranksAreDense(c.total, c.distinct, c.min, c.max); got != c.want {
			t.Errorf("ranksAreDense(%d, %d, %d, %d) = %v, want %v",
				c.total, c.distinct, c.min, c.max, got, c.want)
		}
	}
}
