package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"langgol/internal/models"
	"langgol/internal/repositories"
)

// OutboxService owns mail delivery. Callers enqueue a durable row first,
// then may ask for one synchronous dispatch; everything still pending is
// retried by Run until maxAttempts, after which the row is marked failed
// and ops gets an alert.
type OutboxService struct {
	repo        repositories.OutboxRepository
	mailer      EmailService
	alerts      *AlertService
	maxAttempts int
	interval    time.Duration
}

func NewOutboxService(repo repositories.OutboxRepository, mailer EmailService, alerts *AlertService, maxAttempts int, interval time.Duration) *OutboxService {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &OutboxService{
		repo:        repo,
		mailer:      mailer,
		alerts:      alerts,
		maxAttempts: maxAttempts,
		interval:    interval,
	}
}

// EnqueueVerification stores the signup verification mail for the address.
func (s *OutboxService) EnqueueVerification(email, code string) (*models.OutboxMessage, error) {
	msg := &models.OutboxMessage{
		Recipient: email,
		Subject:   "Verify your Langgol account",
		TextBody:  fmt.Sprintf("Your verification code is: %s", code),
		HTMLBody:  fmt.Sprintf("<b>Your verification code is: %s</b>", code),
	}
	if err := s.repo.Enqueue(msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// DispatchNow makes one delivery attempt for an already-enqueued message.
// On failure the row stays pending for the background worker.
func (s *OutboxService) DispatchNow(msg *models.OutboxMessage) error {
	if err := s.mailer.Send(msg.Recipient, msg.Subject, msg.TextBody, msg.HTMLBody); err != nil {
		if mErr := s.repo.MarkAttempt(msg.ID, err.Error()); mErr != nil {
			log.Printf("[outbox] mark attempt id=%d failed: %v", msg.ID, mErr)
		}
		return err
	}
	return s.repo.MarkSent(msg.ID)
}

// Run polls for pending mail until the context is cancelled.
func (s *OutboxService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	log.Printf("[outbox] worker started, interval=%s max_attempts=%d", s.interval, s.maxAttempts)
	for {
		select {
		case <-ctx.Done():
			log.Printf("[outbox] worker stopped")
			return
		case <-ticker.C:
			s.ProcessPending()
		}
	}
}

// ProcessPending drains one batch of pending rows.
func (s *OutboxService) ProcessPending() {
	batch, err := s.repo.PendingBatch(50)
	if err != nil {
		log.Printf("[outbox] load pending failed: %v", err)
		return
	}
	for _, msg := range batch {
		if err := s.mailer.Send(msg.Recipient, msg.Subject, msg.TextBody, msg.HTMLBody); err != nil {
			if msg.Attempts+1 >= s.maxAttempts {
				log.Printf("[outbox] giving up on id=%d to=%s after %d attempts: %v",
					msg.ID, msg.Recipient, msg.Attempts+1, err)
				if mErr := s.repo.MarkFailed(msg.ID, err.Error()); mErr != nil {
					log.Printf("[outbox] mark failed id=%d: %v", msg.ID, mErr)
				}
				s.alerts.Notify(fmt.Sprintf(
					"Langgol mail outbox: giving up on message %d to %s: %v",
					msg.ID, msg.Recipient, err))
				continue
			}
			log.Printf("[outbox] attempt %d for id=%d failed: %v", msg.Attempts+1, msg.ID, err)
			if mErr := s.repo.MarkAttempt(msg.ID, err.Error()); mErr != nil {
				log.Printf("[outbox] mark attempt id=%d: %v", msg.ID, mErr)
			}
			continue
		}
		if err := s.repo.MarkSent(msg.ID); err != nil {
			log.Printf("[outbox] mark sent id=%d: %v", msg.ID, err)
		}
	}
}
