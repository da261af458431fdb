package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"langgol/internal/models"
)

type HistoryRepository interface {
	Save(email string, history *models.History) error
	Load(email string) (*models.History, error)
}

type historyRepository struct {
	DB *sql.DB
}

func NewHistoryRepository(db *sql.DB) HistoryRepository {
	return &historyRepository{DB: db}
}

// Save overwrites the whole record for the email. The client always sends
// the full accumulated history, so there is nothing to merge.
func (r *historyRepository) Save(email string, history *models.History) error {
	blob, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	const q = `
		INSERT INTO history (email, history, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (email) DO UPDATE
		SET history = EXCLUDED.history, updated_at = NOW()
	`
	_, err = r.DB.Exec(q, email, blob)
	return err
}

// Load returns nil without error when the email never saved anything.
func (r *historyRepository) Load(email string) (*models.History, error) {
	var blob []byte
	err := r.DB.QueryRow(`SELECT history FROM history WHERE email = $1`, email).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	h := &models.History{}
	if err := json.Unmarshal(blob, h); err != nil {
		return nil, fmt.Errorf("unmarshal history for %s: %w", email, err)
	}
	return h, nil
}
