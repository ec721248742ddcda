package ladder

// shiftPlan is the set of rank writes one win produces. When the winner is
// already ranked above the loser there is nothing to move and the plan is a
// no-op.
type shiftPlan struct {
	noop bool
	// Members with shiftFrom <= rank < shiftTo move back one slot.
	shiftFrom int
	shiftTo   int
	// The winner lands on the loser's old slot.
	winnerNewRank int
}

// planShift computes the slide for a win: the winner leapfrogs into the
// loser's slot and everyone originally between them, loser included, moves
// back exactly one. Ranks stay a dense permutation of 1..N.
func planShift(winnerRank, loserRank int) shiftPlan {
	if winnerRank <= loserRank {
		return shiftPlan{noop: true, winnerNewRank: winnerRank}
	}
	return shiftPlan{
		shiftFrom:     loserRank,
		shiftTo:       winnerRank,
		winnerNewRank: loserRank,
	}
}

// ranksAreDense checks the aggregate counts a rank snapshot must satisfy:
// every rank distinct, starting at 1, ending at the member count.
func ranksAreDense(total, distinctRanks, minRank, maxRank int) bool {
	if total == 0 {
		return true
	}
	return distinctRanks == total && minRank == 1 && maxRank == total
}
