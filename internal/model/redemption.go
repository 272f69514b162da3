package model

import "time"

type RedemptionStatus string

const (
	RedemptionPending   RedemptionStatus = "pending"
	RedemptionApproved  RedemptionStatus = "approved"
	RedemptionRejected  RedemptionStatus = "rejected"
	RedemptionCompleted RedemptionStatus = "completed"
)

// RedemptionRequest tracks one attempt to exchange points for a reward.
// RewardName and Cost are snapshots from request time; edits to the reward
// catalog never change them.
type RedemptionRequest struct {
	ID         int64            `json:"id"`
	MemberID   int64            `json:"member_id"`
	RewardID   *int64           `json:"reward_id"`
	RewardName string           `json:"reward_name"`
	Cost       int              `json:"cost"`
	Status     RedemptionStatus `json:"status"`
	AdminNote  string           `json:"admin_note"`
	CreatedAt  time.Time        `json:"created_at"`
	DecidedBy  *int64           `json:"decided_by"`
	DecidedAt  *time.Time       `json:"decided_at"`
}
