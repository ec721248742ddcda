package challenge

import (
	"errors"
	"fmt"

	"github.com/cueladder/backend/internal/models"
)

// Action is one operation the lifecycle can apply to a challenge.
type Action string

const (
	ActionPropose  Action = "propose"
	ActionCounter  Action = "counter"
	ActionConfirm  Action = "confirm"
	ActionStart    Action = "start"
	ActionComplete Action = "complete"
	ActionForfeit  Action = "forfeit"
)

// transitions is the full state machine: (current status, action) -> next
// status. Any pair not listed is an invalid transition. Terminal statuses
// have no row, so nothing moves a completed or forfeited challenge.
var transitions = map[string]map[Action]string{
	models.ChallengePending: {
		ActionPropose: models.ChallengeNegotiating,
		ActionForfeit: models.ChallengeForfeited,
	},
	models.ChallengeNegotiating: {
		ActionCounter: models.ChallengeNegotiating,
		ActionConfirm: models.ChallengeScheduled,
		ActionForfeit: models.ChallengeForfeited,
	},
	models.ChallengeScheduled: {
		ActionStart:   models.ChallengeLive,
		ActionForfeit: models.ChallengeForfeited,
	},
	models.ChallengeLive: {
		ActionComplete: models.ChallengeCompleted,
		ActionForfeit:  models.ChallengeForfeited,
	},
}

// InvalidTransitionError rejects an action the current status does not
// permit. The challenge is left untouched; a stale caller must re-read.
type InvalidTransitionError struct {
	From   string
	Action Action
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: cannot %s a %s challenge", e.Action, e.From)
}

// IsInvalidTransition reports whether err is an InvalidTransitionError.
func IsInvalidTransition(err error) bool {
	var e *InvalidTransitionError
	return errors.As(err, &e)
}

// Next returns the status a challenge in current moves to under action.
func Next(current string, action Action) (string, error) {
	if rowActions, ok := transitions[current]; ok {
		if next, ok := rowActions[action]; ok {
			return next, nil
		}
	}
	return "", &InvalidTransitionError{From: current, Action: action}
}
