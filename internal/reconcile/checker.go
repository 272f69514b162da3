// Package reconcile cross-checks the ledger against the redemption request
// table. Every approved or completed request should have debited exactly its
// captured cost; the checker reports members where the two disagree.
package reconcile

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/hollyoak/housepoints/internal/points"
)

// Discrepancy describes one member whose redemption debits do not match the
// sum of their granted requests.
type Discrepancy struct {
	MemberID      int64
	MemberName    string
	LedgerDebited int // absolute points debited with the redemption mark
	RequestTotal  int // sum of cost snapshots of approved+completed requests
}

func (d Discrepancy) String() string {
	return fmt.Sprintf("member %d (%s): ledger debited %d, requests total %d",
		d.MemberID, d.MemberName, d.LedgerDebited, d.RequestTotal)
}

// Checker runs reconciliation sweeps against the database.
type Checker struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewChecker(db *sql.DB, logger *slog.Logger) *Checker {
	return &Checker{db: db, logger: logger}
}

// CheckOnce performs a single sweep and returns any discrepancies found.
// It is read-only; fixing a mismatch is a manual admin decision.
func (c *Checker) CheckOnce(ctx context.Context) ([]Discrepancy, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT m.id, m.name,
			COALESCE((SELECT -SUM(le.amount) FROM ledger_entries le
				WHERE le.member_id = m.id AND le.amount < 0 AND le.reason LIKE ?), 0),
			COALESCE((SELECT SUM(rr.cost) FROM redemption_requests rr
				WHERE rr.member_id = m.id AND rr.status IN ('approved', 'completed')), 0)
		FROM members m
		ORDER BY m.id`, points.RedeemLikePattern)
	if err != nil {
		return nil, fmt.Errorf("query reconciliation: %w", err)
	}
	defer rows.Close()

	var out []Discrepancy
	for rows.Next() {
		var d Discrepancy
		if err := rows.Scan(&d.MemberID, &d.MemberName, &d.LedgerDebited, &d.RequestTotal); err != nil {
			return nil, fmt.Errorf("scan reconciliation row: %w", err)
		}
		if d.LedgerDebited != d.RequestTotal {
			out = append(out, d)
		}
	}
	return out, rows.Err()
}

// Run sweeps at the given interval until ctx is cancelled. Discrepancies are
// logged at warn level so they surface in normal log review.
func (c *Checker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			discrepancies, err := c.CheckOnce(ctx)
			if err != nil {
				c.logger.Error("reconciliation sweep failed", "error", err)
				continue
			}
			for _, d := range discrepancies {
				c.logger.Warn("redemption mismatch",
					"member_id", d.MemberID,
					"member_name", d.MemberName,
					"ledger_debited", d.LedgerDebited,
					"request_total", d.RequestTotal,
				)
			}
			if len(discrepancies) == 0 {
				c.logger.Debug("reconciliation clean")
			}
		}
	}
}
