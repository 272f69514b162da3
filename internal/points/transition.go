package points

import "github.com/hollyoak/housepoints/internal/model"

// CanTransition reports whether a redemption request may move from one
// status to another. Only pending requests accept a decision; approved,
// rejected, and completed are terminal. Completed is reached directly at
// creation when no approval is required, never via pending.
func CanTransition(from, to model.RedemptionStatus) bool {
	if from != model.RedemptionPending {
		return false
	}
	return to == model.RedemptionApproved || to == model.RedemptionRejected
}

// ValidateDecision guards an admin decision against a request's current
// status.
func ValidateDecision(current, decision model.RedemptionStatus) error {
	if !CanTransition(current, decision) {
		return ErrInvalidState
	}
	return nil
}
