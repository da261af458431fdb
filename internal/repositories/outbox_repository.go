package repositories

import (
	"database/sql"
	"time"

	"langgol/internal/models"
)

type OutboxRepository interface {
	Enqueue(msg *models.OutboxMessage) error
	PendingBatch(limit int) ([]*models.OutboxMessage, error)
	MarkSent(id int64) error
	MarkAttempt(id int64, lastError string) error
	MarkFailed(id int64, lastError string) error
}

type outboxRepository struct {
	DB *sql.DB
}

func NewOutboxRepository(db *sql.DB) OutboxRepository {
	return &outboxRepository{DB: db}
}

func (r *outboxRepository) Enqueue(msg *models.OutboxMessage) error {
	const q = `
		INSERT INTO mail_outbox (recipient, subject, text_body, html_body, status, attempts)
		VALUES ($1,$2,$3,$4,$5,0)
		RETURNING id, created_at
	`
	return r.DB.QueryRow(q,
		msg.Recipient, msg.Subject, msg.TextBody, msg.HTMLBody, models.OutboxPending,
	).Scan(&msg.ID, &msg.CreatedAt)
}

func (r *outboxRepository) PendingBatch(limit int) ([]*models.OutboxMessage, error) {
	const q = `
		SELECT id, recipient, subject, text_body, html_body,
		       status, attempts, COALESCE(last_error,''), created_at, sent_at
		FROM mail_outbox
		WHERE status = $1
		ORDER BY id
		LIMIT $2
	`
	rows, err := r.DB.Query(q, models.OutboxPending, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*models.OutboxMessage
	for rows.Next() {
		m := &models.OutboxMessage{}
		var sentAt sql.NullTime
		if err := rows.Scan(
			&m.ID, &m.Recipient, &m.Subject, &m.TextBody, &m.HTMLBody,
			&m.Status, &m.Attempts, &m.LastError, &m.CreatedAt, &sentAt,
		); err != nil {
			return nil, err
		}
		if sentAt.Valid {
			t := sentAt.Time
			m.SentAt = &t
		}
		res = append(res, m)
	}
	return res, rows.Err()
}

func (r *outboxRepository) MarkSent(id int64) error {
	_, err := r.DB.Exec(`
		UPDATE mail_outbox
		SET status=$1, sent_at=$2, last_error=NULL
		WHERE id=$3
	`, models.OutboxSent, time.Now(), id)
	return err
}

func (r *outboxRepository) MarkAttempt(id int64, lastError string) error {
	_, err := r.DB.Exec(`
		UPDATE mail_outbox
		SET attempts = attempts + 1, last_error=$1
		WHERE id=$2
	`, lastError, id)
	return err
}

func (r *outboxRepository) MarkFailed(id int64, lastError string) error {
	_, err := r.DB.Exec(`
		UPDATE mail_outbox
		SET status=$1, attempts = attempts + 1, last_error=$2
		WHERE id=$3
	`, models.OutboxFailed, lastError, id)
	return err
}
