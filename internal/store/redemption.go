package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/hollyoak/housepoints/internal/model"
	"github.com/hollyoak/housepoints/internal/points"
)

type RedemptionStore struct {
	db *sql.DB
}

func NewRedemptionStore(db *sql.DB) *RedemptionStore {
	return &RedemptionStore{db: db}
}

func scanRequest(scanner interface{ Scan(...any) error }) (*model.RedemptionRequest, error) {
	var r model.RedemptionRequest
	var rewardID, decidedBy sql.NullInt64
	var decidedAt sql.NullTime

	err := scanner.Scan(
		&r.ID, &r.MemberID, &rewardID, &r.RewardName, &r.Cost,
		&r.Status, &r.AdminNote, &r.CreatedAt, &decidedBy, &decidedAt,
	)
	if err != nil {
		return nil, err
	}

	if rewardID.Valid {
		r.RewardID = &rewardID.Int64
	}
	if decidedBy.Valid {
		r.DecidedBy = &decidedBy.Int64
	}
	if decidedAt.Valid {
		r.DecidedAt = &decidedAt.Time
	}
	return &r, nil
}

const requestCols = `id, member_id, reward_id, reward_name, cost, status, admin_note, created_at, decided_by, decided_at`

// Create opens a redemption for reward on behalf of memberID. The reward's
// name and cost are snapshotted into the request. The current balance must
// cover the cost on both paths; on the immediate path the debit entry and
// the completed request are written in one transaction, on the approval
// path the request is recorded pending with no debit.
func (s *RedemptionStore) Create(memberID int64, reward model.Reward, at time.Time) (*model.RedemptionRequest, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	balance, err := txBalance(tx, memberID)
	if err != nil {
		return nil, err
	}
	if balance < reward.Cost {
		return nil, points.ErrInsufficientBalance
	}

	status := model.RedemptionPending
	if !reward.RequiresApproval {
		status = model.RedemptionCompleted
		_, err = tx.Exec(
			`INSERT INTO ledger_entries (member_id, amount, reason, created_by, created_at) VALUES (?, ?, ?, ?, ?)`,
			memberID, -reward.Cost, points.RedeemReason(reward.Name), memberID, at.UTC(),
		)
		if err != nil {
			return nil, fmt.Errorf("insert redemption debit: %w", err)
		}
	}

	result, err := tx.Exec(
		`INSERT INTO redemption_requests (member_id, reward_id, reward_name, cost, status, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		memberID, reward.ID, reward.Name, reward.Cost, string(status), at.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert redemption request: %w", err)
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

// Approve debits the member by the request's cost snapshot and marks the
// request approved, in one transaction. Only pending requests can be
// approved; the live reward row is never consulted.
func (s *RedemptionStore) Approve(id, adminID int64, note string, at time.Time) (*model.RedemptionRequest, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRow(`SELECT `+requestCols+` FROM redemption_requests WHERE id = ?`, id)
	req, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get redemption request: %w", err)
	}
	if err := points.ValidateDecision(req.Status, model.RedemptionApproved); err != nil {
		return nil, err
	}

	balance, err := txBalance(tx, req.MemberID)
	if err != nil {
		return nil, err
	}
	if balance < req.Cost {
		return nil, points.ErrInsufficientBalance
	}

	_, err = tx.Exec(
		`INSERT INTO ledger_entries (member_id, amount, reason, created_by, created_at) VALUES (?, ?, ?, ?, ?)`,
		req.MemberID, -req.Cost, points.RedeemReason(req.RewardName), adminID, at.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert approval debit: %w", err)
	}

	if err := s.decide(tx, id, model.RedemptionApproved, note, adminID, at); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

// Reject marks a pending request rejected. No ledger entry is written.
func (s *RedemptionStore) Reject(id, adminID int64, note string, at time.Time) (*model.RedemptionRequest, error) {
	if note == "" {
		note = "Rejected by admin"
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRow(`SELECT status FROM redemption_requests WHERE id = ?`, id)
	var status model.RedemptionStatus
	if err := row.Scan(&status); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("get redemption request: %w", err)
	}
	if err := points.ValidateDecision(status, model.RedemptionRejected); err != nil {
		return nil, err
	}

	if err := s.decide(tx, id, model.RedemptionRejected, note, adminID, at); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

// decide flips a pending request to its terminal status. The status guard
// in the WHERE clause makes the transition single-shot even if two admins
// race on the same request.
func (s *RedemptionStore) decide(tx *sql.Tx, id int64, status model.RedemptionStatus, note string, adminID int64, at time.Time) error {
	result, err := tx.Exec(
		`UPDATE redemption_requests SET status = ?, admin_note = ?, decided_by = ?, decided_at = ? WHERE id = ? AND status = 'pending'`,
		string(status), note, adminID, at.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("update redemption status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n != 1 {
		return points.ErrInvalidState
	}
	return nil
}

func (s *RedemptionStore) GetByID(id int64) (*model.RedemptionRequest, error) {
	row := s.db.QueryRow(`SELECT `+requestCols+` FROM redemption_requests WHERE id = ?`, id)
	r, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get redemption request: %w", err)
	}
	return r, nil
}

func (s *RedemptionStore) ListByStatus(status model.RedemptionStatus) ([]model.RedemptionRequest, error) {
	rows, err := s.db.Query(
		`SELECT `+requestCols+` FROM redemption_requests WHERE status = ? ORDER BY created_at DESC, id DESC`,
		string(status),
	)
	if err != nil {
		return nil, fmt.Errorf("list redemption requests: %w", err)
	}
	defer rows.Close()

	return collectRequests(rows)
}

func (s *RedemptionStore) ListByMember(memberID int64) ([]model.RedemptionRequest, error) {
	rows, err := s.db.Query(
		`SELECT `+requestCols+` FROM redemption_requests WHERE member_id = ? ORDER BY created_at DESC, id DESC`,
		memberID,
	)
	if err != nil {
		return nil, fmt.Errorf("list member redemption requests: %w", err)
	}
	defer rows.Close()

	return collectRequests(rows)
}

func collectRequests(rows *sql.Rows) ([]model.RedemptionRequest, error) {
	var requests []model.RedemptionRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan redemption request: %w", err)
		}
		requests = append(requests, *r)
	}
	return requests, rows.Err()
}

func txBalance(tx *sql.Tx, memberID int64) (int, error) {
	var balance int
	err := tx.QueryRow(
		`SELECT COALESCE(SUM(amount), 0) FROM ledger_entries WHERE member_id = ?`,
		memberID,
	).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("sum balance: %w", err)
	}
	return balance, nil
}
