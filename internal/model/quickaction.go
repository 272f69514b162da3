package model

import "time"

type Polarity string

const (
	PolarityEarn  Polarity = "earn"
	PolaritySpend Polarity = "spend"
)

// QuickAction is an admin-curated template for a recurring point delta.
// Points is always a positive magnitude; polarity decides the sign.
type QuickAction struct {
	ID        int64     `json:"id"`
	Label     string    `json:"label"`
	Points    int       `json:"points"`
	Emoji     string    `json:"emoji"`
	Polarity  Polarity  `json:"polarity"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
