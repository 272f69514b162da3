package store

import (
	"database/sql"
	"fmt"

	"github.com/hollyoak/housepoints/internal/model"
)

type QuickActionStore struct {
	db *sql.DB
}

func NewQuickActionStore(db *sql.DB) *QuickActionStore {
	return &QuickActionStore{db: db}
}

func scanQuickAction(scanner interface{ Scan(...any) error }) (*model.QuickAction, error) {
	var a model.QuickAction
	var active int

	err := scanner.Scan(&a.ID, &a.Label, &a.Points, &a.Emoji, &a.Polarity, &active, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}

	a.Active = active != 0
	return &a, nil
}

const quickActionCols = `id, label, points, emoji, polarity, active, created_at, updated_at`

func (s *QuickActionStore) Create(label string, pts int, emoji string, polarity model.Polarity) (*model.QuickAction, error) {
	result, err := s.db.Exec(
		`INSERT INTO quick_actions (label, points, emoji, polarity) VALUES (?, ?, ?, ?)`,
		label, pts, emoji, string(polarity),
	)
	if err != nil {
		return nil, fmt.Errorf("insert quick action: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *QuickActionStore) GetByID(id int64) (*model.QuickAction, error) {
	row := s.db.QueryRow(`SELECT `+quickActionCols+` FROM quick_actions WHERE id = ?`, id)
	a, err := scanQuickAction(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get quick action: %w", err)
	}
	return a, nil
}

// Update edits the template text fields. Polarity is fixed at creation.
// Past ledger entries keep the reason text they were written with.
func (s *QuickActionStore) Update(id int64, label string, pts int, emoji string) (*model.QuickAction, error) {
	_, err := s.db.Exec(
		`UPDATE quick_actions SET label = ?, points = ?, emoji = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		label, pts, emoji, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update quick action: %w", err)
	}
	return s.GetByID(id)
}

// SetActive soft-deletes (or restores) a template. Rows are never hard
// deleted once they may be referenced by history.
func (s *QuickActionStore) SetActive(id int64, active bool) error {
	var a int
	if active {
		a = 1
	}
	_, err := s.db.Exec(
		`UPDATE quick_actions SET active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		a, id,
	)
	if err != nil {
		return fmt.Errorf("set quick action active: %w", err)
	}
	return nil
}

// ListActive returns active templates for selection, cheapest first. An
// empty polarity returns both kinds.
func (s *QuickActionStore) ListActive(polarity model.Polarity) ([]model.QuickAction, error) {
	q := `SELECT ` + quickActionCols + ` FROM quick_actions WHERE active = 1`
	var args []any
	if polarity != "" {
		q += ` AND polarity = ?`
		args = append(args, string(polarity))
	}
	q += ` ORDER BY points ASC, label ASC`

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("list active quick actions: %w", err)
	}
	defer rows.Close()

	return collectQuickActions(rows)
}

// ListAll returns every template, including inactive, for administration,
// grouped by polarity then points.
func (s *QuickActionStore) ListAll() ([]model.QuickAction, error) {
	rows, err := s.db.Query(
		`SELECT ` + quickActionCols + ` FROM quick_actions ORDER BY polarity ASC, points ASC, label ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list quick actions: %w", err)
	}
	defer rows.Close()

	return collectQuickActions(rows)
}

func collectQuickActions(rows *sql.Rows) ([]model.QuickAction, error) {
	var actions []model.QuickAction
	for rows.Next() {
		a, err := scanQuickAction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan quick action: %w", err)
		}
		actions = append(actions, *a)
	}
	return actions, rows.Err()
}
