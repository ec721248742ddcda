package challenge

import (
	"errors"
	"fmt"
	"testing"

	"github.com/cueladder/backend/internal/models"
)

var allActions = []Action{ActionPropose, ActionCounter, ActionConfirm, ActionStart, ActionComplete, ActionForfeit}

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		from   string
		action Action
		want   string
		ok     bool
	}{
		{models.ChallengePending, ActionPropose, models.ChallengeNegotiating, true},
		{models.ChallengePending, ActionForfeit, models.ChallengeForfeited, true},
		{models.ChallengePending, ActionCounter, "", false},
		{models.ChallengePending, ActionConfirm, "", false},
		{models.ChallengePending, ActionStart, "", false},
		{models.ChallengePending, ActionComplete, "", false},

		{models.ChallengeNegotiating, ActionCounter, models.ChallengeNegotiating, true},
		{models.ChallengeNegotiating, ActionConfirm, models.ChallengeScheduled, true},
		{models.ChallengeNegotiating, ActionForfeit, models.ChallengeForfeited, true},
		{models.ChallengeNegotiating, ActionPropose, "", false},
		{models.ChallengeNegotiating, ActionStart, "", false},
		{models.ChallengeNegotiating, ActionComplete, "", false},

		{models.ChallengeScheduled, ActionStart, models.ChallengeLive, true},
		{models.ChallengeScheduled, ActionForfeit, models.ChallengeForfeited, true},
		{models.ChallengeScheduled, ActionPropose, "", false},
		{models.ChallengeScheduled, ActionCounter, "", false},
		{models.ChallengeScheduled, ActionConfirm, "", false},
		{models.ChallengeScheduled, ActionComplete, "", false},

		{models.ChallengeLive, ActionComplete, models.ChallengeCompleted, true},
		{models.ChallengeLive, ActionForfeit, models.ChallengeForfeited, true},
		{models.ChallengeLive, ActionPropose, "", false},
		{models.ChallengeLive, ActionCounter, "", false},
		{models.ChallengeLive, ActionConfirm, "", false},
		{models.ChallengeLive, ActionStart, "", false},
	}

	for _, c := range cases {
		got, err := Next(c.from, c.action)
		if c.ok {
			if err != nil {
				t.Errorf("%s + %s: unexpected error %v", c.from, c.action, err)
			}
			if got != c.want {
				t.Errorf("%s + %s = %s, want %s", c.from, c.action, got, c.want)
			}
			continue
		}
		if err == nil {
			t.Errorf("%s + %s succeeded, want rejection", c.from, c.action)
		}
	}
}

func TestTerminalChallengesRejectEveryAction(t *testing.T) {
	for _, status := range []string{models.ChallengeCompleted, models.ChallengeForfeited} {
		for _, action := range allActions {
			if _, err := Next(status, action); !IsInvalidTransition(err) {
				t.Errorf("%s + %s returned %v, want InvalidTransitionError", status, action, err)
			}
		}
	}
}

func TestTerminalMarksCompletedAndForfeitedOnly(t *testing.T) {
	cases := []struct {
		status string
		want   bool
	}{
		{models.ChallengePending, false},
		{models.ChallengeNegotiating, false},
		{models.ChallengeScheduled, false},
		{models.ChallengeLive, false},
		{models.ChallengeCompleted, true},
		{models.ChallengeForfeited, true},
	}
	for _, c := range cases {
		ch := models.Challenge{Status: c.status}
		if got := ch.Terminal(); got != c.want {
			t.Errorf("Terminal() on %s = %v, want %v", c.status, got, c.want)
		}
	}
}

func TestUnknownStatusRejected(t *testing.T) {
	if _, err := Next("limbo", ActionPropose); !IsInvalidTransition(err) {
		t.Errorf("Unknown status returned %v, want InvalidTransitionError", err)
	}
}

func TestInvalidTransitionErrorDetail(t *testing.T) {
	_, err := Next(models.ChallengeCompleted, ActionConfirm)
	if err == nil {
		t.Fatal("Expected a rejection")
	}

	var te *InvalidTransitionError
	if !errors.As(err, &te) {
		t.Fatalf("Error type %T, want *InvalidTransitionError", err)
	}
	if te.From != models.ChallengeCompleted || te.Action != ActionConfirm {
		t.Errorf("Error carries %s/%s, want completed/confirm", te.From, te.Action)
	}
	if got, want := err.Error(), "invalid transition: cannot confirm a completed challenge"; got != want {
		t.Errorf("Message %q, want %q", got, want)
	}
}

func TestIsInvalidTransitionSeesWrappedErrors(t *testing.T) {
	_, err := Next(models.ChallengeForfeited, ActionStart)
	wrapped := fmt.Errorf("sweep challenge 7: %w", err)
	if !IsInvalidTransition(wrapped) {
		t.Error("Wrapped InvalidTransitionError not recognized")
	}
	if IsInvalidTransition(errors.New("other")) {
		t.Error("Unrelated error recognized as InvalidTransitionError")
	}
}
