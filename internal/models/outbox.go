package models

import "time"

const (
	OutboxPending = "pending"
	OutboxSent    = "sent"
	OutboxFailed  = "failed"
)

// OutboxMessage is a durable mail to be delivered. Signup enqueues one
// together with the account record, so a dispatch failure leaves a
// resumable row instead of a silently missing email.
type OutboxMessage struct {
	ID        int64      `json:"id"`
	Recipient string     `json:"recipient"`
	Subject   string     `json:"subject"`
	TextBody  string     `json:"-"`
	HTMLBody  string     `json:"-"`
	Status    string     `json:"status"`
	Attempts  int        `json:"attempts"`
	LastError string     `json:"last_error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
}
