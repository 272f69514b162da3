package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/hollyoak/housepoints/internal/model"
	"github.com/hollyoak/housepoints/internal/points"
)

type LedgerStore struct {
	db *sql.DB
}

func NewLedgerStore(db *sql.DB) *LedgerStore {
	return &LedgerStore{db: db}
}

func scanEntry(scanner interface{ Scan(...any) error }) (*model.LedgerEntry, error) {
	var e model.LedgerEntry
	var createdBy sql.NullInt64

	err := scanner.Scan(&e.ID, &e.MemberID, &e.Amount, &e.Reason, &createdBy, &e.CreatedAt)
	if err != nil {
		return nil, err
	}

	if createdBy.Valid {
		e.CreatedBy = &createdBy.Int64
	}
	return &e, nil
}

const entryCols = `id, member_id, amount, reason, created_by, created_at`

// Insert appends one immutable entry. Entries are never updated or deleted.
func (s *LedgerStore) Insert(memberID int64, amount int, reason string, createdBy *int64, at time.Time) (*model.LedgerEntry, error) {
	if amount == 0 {
		return nil, points.ErrInvalidAmount
	}

	var by sql.NullInt64
	if createdBy != nil {
		by = sql.NullInt64{Int64: *createdBy, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO ledger_entries (member_id, amount, reason, created_by, created_at) VALUES (?, ?, ?, ?, ?)`,
		memberID, amount, reason, by, at.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert ledger entry: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *LedgerStore) GetByID(id int64) (*model.LedgerEntry, error) {
	row := s.db.QueryRow(`SELECT `+entryCols+` FROM ledger_entries WHERE id = ?`, id)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get ledger entry: %w", err)
	}
	return e, nil
}

// ListByMember returns a member's entries, newest first. limit <= 0 means
// no limit.
func (s *LedgerStore) ListByMember(memberID int64, limit int) ([]model.LedgerEntry, error) {
	q := `SELECT ` + entryCols + ` FROM ledger_entries WHERE member_id = ? ORDER BY created_at DESC, id DESC`
	args := []any{memberID}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()

	return collectEntries(rows)
}

// ListByMemberSince returns a member's entries at or after since, oldest
// first.
func (s *LedgerStore) ListByMemberSince(memberID int64, since time.Time) ([]model.LedgerEntry, error) {
	rows, err := s.db.Query(
		`SELECT `+entryCols+` FROM ledger_entries WHERE member_id = ? AND created_at >= ? ORDER BY created_at ASC, id ASC`,
		memberID, since.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries since: %w", err)
	}
	defer rows.Close()

	return collectEntries(rows)
}

func collectEntries(rows *sql.Rows) ([]model.LedgerEntry, error) {
	var entries []model.LedgerEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// Balance is the sum of all of a member's entries. The ledger is the source
// of truth; no cached balance exists anywhere.
func (s *LedgerStore) Balance(memberID int64) (int, error) {
	var balance int
	err := s.db.QueryRow(
		`SELECT COALESCE(SUM(amount), 0) FROM ledger_entries WHERE member_id = ?`,
		memberID,
	).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("sum balance: %w", err)
	}
	return balance, nil
}

// AllBalances returns earned/spent/balance per member, highest balance
// first.
func (s *LedgerStore) AllBalances() ([]model.PointBalance, error) {
	rows, err := s.db.Query(`
		SELECT m.id, m.name,
		       COALESCE(SUM(CASE WHEN e.amount > 0 THEN e.amount ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN e.amount < 0 THEN -e.amount ELSE 0 END), 0),
		       COALESCE(SUM(e.amount), 0)
		FROM members m
		LEFT JOIN ledger_entries e ON e.member_id = m.id
		GROUP BY m.id, m.name
		ORDER BY COALESCE(SUM(e.amount), 0) DESC, m.sort_order ASC, m.name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list balances: %w", err)
	}
	defer rows.Close()

	var balances []model.PointBalance
	for rows.Next() {
		var b model.PointBalance
		if err := rows.Scan(&b.MemberID, &b.MemberName, &b.TotalEarned, &b.TotalSpent, &b.Balance); err != nil {
			return nil, fmt.Errorf("scan balance: %w", err)
		}
		balances = append(balances, b)
	}
	return balances, rows.Err()
}

// SelfScoreInsert appends a self-score entry while re-checking the per-day
// policy inside a transaction: the label may be claimed once per day and the
// member may claim at most limit times per day. The pure gate decides
// against a snapshot; this guards the write against a concurrent claim that
// passed the same snapshot.
func (s *LedgerStore) SelfScoreInsert(draft *model.LedgerEntry, limit int) (*model.LedgerEntry, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	dayStart := startOfDay(draft.CreatedAt).UTC()
	dayEnd := startOfDay(draft.CreatedAt).AddDate(0, 0, 1).UTC()

	var dup int
	err = tx.QueryRow(
		`SELECT COUNT(*) FROM ledger_entries WHERE member_id = ? AND reason = ? AND created_at >= ? AND created_at < ?`,
		draft.MemberID, draft.Reason, dayStart, dayEnd,
	).Scan(&dup)
	if err != nil {
		return nil, fmt.Errorf("check duplicate claim: %w", err)
	}
	if dup > 0 {
		label, _ := points.SelfScoreLabel(draft.Reason)
		return nil, &points.DeniedError{Reason: points.DenyAlreadyClaimedToday, Label: label}
	}

	var count int
	err = tx.QueryRow(
		`SELECT COUNT(*) FROM ledger_entries WHERE member_id = ? AND reason LIKE ? AND created_at >= ? AND created_at < ?`,
		draft.MemberID, points.SelfScoreLikePattern, dayStart, dayEnd,
	).Scan(&count)
	if err != nil {
		return nil, fmt.Errorf("count today's claims: %w", err)
	}
	if count >= limit {
		return nil, &points.DeniedError{Reason: points.DenyDailyLimitReached, Limit: limit}
	}

	var by sql.NullInt64
	if draft.CreatedBy != nil {
		by = sql.NullInt64{Int64: *draft.CreatedBy, Valid: true}
	}
	result, err := tx.Exec(
		`INSERT INTO ledger_entries (member_id, amount, reason, created_by, created_at) VALUES (?, ?, ?, ?, ?)`,
		draft.MemberID, draft.Amount, draft.Reason, by, draft.CreatedAt.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert self-score entry: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
