package points

import (
	"fmt"
	"strings"
)

// Reason prefixes encode provenance in the denormalized reason string.
// History rows keep the text they were written with, so these prefixes must
// stay stable even if catalog entries are renamed or deactivated.
const (
	selfScorePrefix = "self-score: "
	redeemPrefix    = "redeem: "
)

// LIKE patterns for matching provenance prefixes in SQL.
const (
	SelfScoreLikePattern = selfScorePrefix + "%"
	RedeemLikePattern    = redeemPrefix + "%"
)

// SelfScoreReason builds the reason recorded for a self-initiated claim.
func SelfScoreReason(label string) string {
	return selfScorePrefix + label
}

// RedeemReason builds the reason recorded for a redemption debit.
func RedeemReason(rewardName string) string {
	return redeemPrefix + rewardName
}

// IsSelfScore reports whether reason carries the self-score provenance mark.
func IsSelfScore(reason string) bool {
	return strings.HasPrefix(reason, selfScorePrefix)
}

// SelfScoreLabel extracts the quick-action label from a self-score reason.
func SelfScoreLabel(reason string) (string, bool) {
	if !IsSelfScore(reason) {
		return "", false
	}
	return strings.TrimPrefix(reason, selfScorePrefix), true
}

// IsRedemption reports whether reason carries the redemption provenance mark.
func IsRedemption(reason string) bool {
	return strings.HasPrefix(reason, redeemPrefix)
}

// DisplayTitle renders a human-readable title for a ledger entry based on
// its provenance.
func DisplayTitle(amount int, reason string) string {
	if label, ok := SelfScoreLabel(reason); ok {
		return fmt.Sprintf("%s (self-score)", label)
	}
	if IsRedemption(reason) {
		return fmt.Sprintf("Redeemed %q", strings.TrimPrefix(reason, redeemPrefix))
	}
	if amount > 0 {
		return "Admin award: " + reason
	}
	if amount < 0 {
		return "Admin deduction: " + reason
	}
	return reason
}
