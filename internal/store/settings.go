package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/hollyoak/housepoints/internal/points"
)

type SettingsStore struct {
	db *sql.DB
}

func NewSettingsStore(db *sql.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

func (s *SettingsStore) Get(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("setting %q not found", key)
	}
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

func (s *SettingsStore) GetAll() (map[string]string, error) {
	rows, err := s.db.Query(`SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("get all settings: %w", err)
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		settings[key] = value
	}
	return settings, rows.Err()
}

func (s *SettingsStore) Set(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}

// SelfScoreDailyLimit returns the configured per-day self-score cap,
// falling back to the default when the setting is missing or malformed.
func (s *SettingsStore) SelfScoreDailyLimit() int {
	value, err := s.Get("self_score_daily_limit")
	if err != nil {
		return points.DefaultDailyLimit
	}
	limit, err := strconv.Atoi(value)
	if err != nil || limit <= 0 {
		return points.DefaultDailyLimit
	}
	return limit
}

// LeaderboardEnabled reports whether the balance leaderboard is shown.
func (s *SettingsStore) LeaderboardEnabled() bool {
	value, err := s.Get("leaderboard_enabled")
	if err != nil {
		return true
	}
	return value == "true"
}
