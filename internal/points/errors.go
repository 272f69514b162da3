package points

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientBalance is returned when a member-initiated debit would
	// exceed the current balance. Admin deltas are never floor-checked.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInvalidState is returned when a redemption decision targets a
	// request that is no longer pending.
	ErrInvalidState = errors.New("redemption request is not pending")

	// ErrInvalidAmount is returned for zero, negative, or non-numeric point
	// magnitudes.
	ErrInvalidAmount = errors.New("points must be a positive whole number")
)

type DenyReason string

const (
	DenyDailyLimitReached   DenyReason = "daily_limit_reached"
	DenyAlreadyClaimedToday DenyReason = "already_claimed_today"
)

// DeniedError is a self-scoring gate refusal. It is a policy outcome, not a
// failure: the caller reports it and must not retry.
type DeniedError struct {
	Reason DenyReason
	Label  string
	Limit  int
}

func (e *DeniedError) Error() string {
	switch e.Reason {
	case DenyDailyLimitReached:
		return fmt.Sprintf("daily self-score limit of %d reached", e.Limit)
	case DenyAlreadyClaimedToday:
		return fmt.Sprintf("%q already claimed today", e.Label)
	}
	return string(e.Reason)
}

// AsDenied unwraps err into a DeniedError if it is one.
func AsDenied(err error) (*DeniedError, bool) {
	var d *DeniedError
	if errors.As(err, &d) {
		return d, true
	}
	return nil, false
}
