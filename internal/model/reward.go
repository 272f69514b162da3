package model

import "time"

type Reward struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	Cost             int       `json:"cost"`
	Emoji            string    `json:"emoji"`
	RequiresApproval bool      `json:"requires_approval"`
	Active           bool      `json:"active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
