package ladder

import (
	"errors"
	"fmt"
)

// ErrInvalidRankState signals a rank invariant violation: an unknown member
// in a result, or a mutation that would leave ranks non-dense. It is never
// corrected silently; the operation fails and the transaction rolls back.
var ErrInvalidRankState = errors.New("invalid rank state")

// NotEligibleError rejects a challenge at creation time with the specific
// policy reason.
type NotEligibleError struct {
	Reason string
}

func (e *NotEligibleError) Error() string {
	return fmt.Sprintf("not eligible: %s", e.Reason)
}

// IsNotEligible reports whether err is a NotEligibleError.
func IsNotEligible(err error) bool {
	var e *NotEligibleError
	return errors.As(err, &e)
}
