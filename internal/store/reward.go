package store

import (
	"database/sql"
	"fmt"

	"github.com/hollyoak/housepoints/internal/model"
)

type RewardStore struct {
	db *sql.DB
}

func NewRewardStore(db *sql.DB) *RewardStore {
	return &RewardStore{db: db}
}

func scanReward(scanner interface{ Scan(...any) error }) (*model.Reward, error) {
	var r model.Reward
	var requiresApproval, active int

	err := scanner.Scan(&r.ID, &r.Name, &r.Description, &r.Cost, &r.Emoji, &requiresApproval, &active, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}

	r.RequiresApproval = requiresApproval != 0
	r.Active = active != 0
	return &r, nil
}

const rewardCols = `id, name, description, cost, emoji, requires_approval, active, created_at, updated_at`

func (s *RewardStore) Create(name, description string, cost int, emoji string, requiresApproval bool) (*model.Reward, error) {
	var ra int
	if requiresApproval {
		ra = 1
	}

	result, err := s.db.Exec(
		`INSERT INTO rewards (name, description, cost, emoji, requires_approval) VALUES (?, ?, ?, ?, ?)`,
		name, description, cost, emoji, ra,
	)
	if err != nil {
		return nil, fmt.Errorf("insert reward: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *RewardStore) GetByID(id int64) (*model.Reward, error) {
	row := s.db.QueryRow(`SELECT `+rewardCols+` FROM rewards WHERE id = ?`, id)
	r, err := scanReward(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reward: %w", err)
	}
	return r, nil
}

// Update edits the catalog row. Existing redemption requests keep their
// name and cost snapshots.
func (s *RewardStore) Update(id int64, name, description string, cost int, emoji string, requiresApproval bool) (*model.Reward, error) {
	var ra int
	if requiresApproval {
		ra = 1
	}

	_, err := s.db.Exec(
		`UPDATE rewards SET name = ?, description = ?, cost = ?, emoji = ?, requires_approval = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		name, description, cost, emoji, ra, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update reward: %w", err)
	}
	return s.GetByID(id)
}

// SetActive soft-deletes (or restores) a reward.
func (s *RewardStore) SetActive(id int64, active bool) error {
	var a int
	if active {
		a = 1
	}
	_, err := s.db.Exec(
		`UPDATE rewards SET active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		a, id,
	)
	if err != nil {
		return fmt.Errorf("set reward active: %w", err)
	}
	return nil
}

// ListActive returns redeemable rewards for selection, cheapest first.
func (s *RewardStore) ListActive() ([]model.Reward, error) {
	rows, err := s.db.Query(`SELECT ` + rewardCols + ` FROM rewards WHERE active = 1 ORDER BY cost ASC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list active rewards: %w", err)
	}
	defer rows.Close()

	return collectRewards(rows)
}

// ListAll returns every reward, including inactive, for administration.
func (s *RewardStore) ListAll() ([]model.Reward, error) {
	rows, err := s.db.Query(`SELECT ` + rewardCols + ` FROM rewards ORDER BY cost ASC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list rewards: %w", err)
	}
	defer rows.Close()

	return collectRewards(rows)
}

func collectRewards(rows *sql.Rows) ([]model.Reward, error) {
	var rewards []model.Reward
	for rows.Next() {
		r, err := scanReward(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reward: %w", err)
		}
		rewards = append(rewards, *r)
	}
	return rewards, rows.Err()
}
