package model

import "time"

// LedgerEntry is an immutable signed point delta. The reason text carries
// provenance (self-score, redemption, admin action) as a structured prefix.
type LedgerEntry struct {
	ID        int64     `json:"id"`
	MemberID  int64     `json:"member_id"`
	Amount    int       `json:"amount"`
	Reason    string    `json:"reason"`
	CreatedBy *int64    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// DailyStat is one calendar-day bucket of ledger activity.
type DailyStat struct {
	Date string `json:"date"` // YYYY-MM-DD
	Net  int    `json:"net"`
	Gain int    `json:"gain"`
}
