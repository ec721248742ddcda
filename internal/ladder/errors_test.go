package ladder

import (
	"fmt"
	"testing"
)

func TestIsNotEligibleSeesWrappedErrors(t *testing.T) {
	err := &NotEligibleError{Reason: "rank gap exceeds 5"}
	if !IsNotEligible(err) {
		t.Error("Direct NotEligibleError not recognized")
	}

	wrapped := fmt.Errorf("create challenge: %w", err)
	if !IsNotEligible(wrapped) {
		t.Error("Wrapped NotEligibleError not recognized")
	}
}

func TestIsNotEligibleIgnoresOtherErrors(t *testing.T) {
	if IsNotEligible(nil) {
		t.Error("nil recognized as NotEligibleError")
	}
	if IsNotEligible(ErrInvalidRankState) {
		t.Error("ErrInvalidRankState recognized as NotEligibleError")
	}
}

func TestNotEligibleErrorCarriesReason(t *testing.T) {
	err := &NotEligibleError{Reason: "challenged member is on cooldown"}
	if got, want := err.Error(), "not eligible: challenged member is on cooldown"; got != want {
		t.Errorf("Message %q, want %q", got, want)
	}
}
