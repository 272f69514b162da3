package points

import (
	"fmt"
	"time"

	"github.com/hollyoak/housepoints/internal/model"
)

// DefaultDailyLimit caps self-initiated claims per member per calendar day.
const DefaultDailyLimit = 5

// Gate enforces the self-scoring policy: at most DailyLimit self-score
// claims per day, and each quick-action label at most once per day.
type Gate struct {
	DailyLimit int
}

func NewGate(limit int) Gate {
	if limit <= 0 {
		limit = DefaultDailyLimit
	}
	return Gate{DailyLimit: limit}
}

// AttemptSelfScore decides whether memberID may claim action, given the
// member's already-fetched entries for today. It performs no I/O; on success
// the returned draft is appended to the ledger by the caller. The decision
// is made against a snapshot, so the caller's write path is responsible for
// holding the per-day uniqueness if concurrent claims matter.
func (g Gate) AttemptSelfScore(memberID int64, action model.QuickAction, todays []model.LedgerEntry, now time.Time) (*model.LedgerEntry, error) {
	if action.Polarity != model.PolarityEarn {
		return nil, fmt.Errorf("quick action %q is not an earn action", action.Label)
	}
	if action.Points <= 0 {
		return nil, ErrInvalidAmount
	}

	claimed := 0
	for _, e := range todays {
		label, ok := SelfScoreLabel(e.Reason)
		if !ok {
			continue
		}
		if label == action.Label {
			return nil, &DeniedError{Reason: DenyAlreadyClaimedToday, Label: action.Label}
		}
		claimed++
	}
	if claimed >= g.DailyLimit {
		return nil, &DeniedError{Reason: DenyDailyLimitReached, Limit: g.DailyLimit}
	}

	return &model.LedgerEntry{
		MemberID:  memberID,
		Amount:    action.Points,
		Reason:    SelfScoreReason(action.Label),
		CreatedBy: &memberID,
		CreatedAt: now,
	}, nil
}
