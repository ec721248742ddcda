package challenge

import (
	"testing"

	"github.com/cueladder/backend/internal/models"
)

func openChallenge(status string) *models.Challenge {
	return &models.Challenge{ID: 1, ChallengerID: 10, ChallengedID: 20, Status: status}
}

func TestForfeitConventionAwardsChallenger(t *testing.T) {
	for _, status := range []string{
		models.ChallengePending,
		models.ChallengeNegotiating,
		models.ChallengeScheduled,
		models.ChallengeLive,
	} {
		winner, loser := forfeitOutcome(openChallenge(status), ForfeitWinnerChallenger)
		if winner != 10 || loser != 20 {
			t.Errorf("%s: winner/loser = %d/%d, want 10/20", status, winner, loser)
		}
	}
}

func TestForfeitNonResponderPolicy(t *testing.T) {
	cases := []struct {
		status     string
		wantWinner int
	}{
		// The challenged member never answered the challenge.
		{models.ChallengePending, 10},
		// A proposal was on the table and the challenger never confirmed.
		{models.ChallengeNegotiating, 20},
		// Both sides agreed and neither showed; house convention applies.
		{models.ChallengeScheduled, 10},
		{models.ChallengeLive, 10},
	}

	for _, c := range cases {
		winner, loser := forfeitOutcome(openChallenge(c.status), ForfeitWinnerNonResponder)
		if winner != c.wantWinner {
			t.Errorf("%s: winner %d, want %d", c.status, winner, c.wantWinner)
		}
		if loser == winner {
			t.Errorf("%s: loser equals winner", c.status)
		}
	}
}
