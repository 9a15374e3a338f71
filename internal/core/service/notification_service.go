package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/animalguardian/platform/internal/core/domain"
	"github.com/animalguardian/platform/internal/core/ports"
)

const resumeBatchSize = 500

// NotificationService creates in-app records synchronously and hands email
// copies to the delivery queue.
type NotificationService struct {
	repo   ports.NotificationRepository
	queue  ports.EmailQueue
	now    func() time.Time
	logger zerolog.Logger
}

// NewNotificationService returns a NotificationService. queue may be nil, in
// which case email rows stay pending until ResumePending runs with a queue.
func NewNotificationService(repo ports.NotificationRepository, queue ports.EmailQueue, logger zerolog.Logger) *NotificationService {
	return &NotificationService{
		repo:   repo,
		queue:  queue,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger,
	}
}

func (s *NotificationService) Notify(ctx context.Context, recipient *domain.User, msg domain.Message, withEmail bool) {
	if recipient == nil {
		return
	}

	var meta datatypes.JSON
	if len(msg.Metadata) > 0 {
		raw, err := json.Marshal(msg.Metadata)
		if err != nil {
			s.logger.Warn().Err(err).Str("title", msg.Title).Msg("notification metadata dropped")
		} else {
			meta = datatypes.JSON(raw)
		}
	}

	now := s.now()
	inApp := &domain.Notification{
		RecipientID: recipient.ID,
		Channel:     domain.ChannelInApp,
		Title:       msg.Title,
		Message:     msg.Body,
		CaseID:      msg.CaseID,
		LivestockID: msg.LivestockID,
		Status:      domain.NotificationSent,
		Metadata:    meta,
		SentAt:      &now,
		CreatedAt:   now,
	}
	if err := s.repo.Create(ctx, inApp); err != nil {
		s.logger.Error().Err(err).Uint("recipient_id", recipient.ID).Str("title", msg.Title).Msg("in-app notification failed")
	}

	if !withEmail {
		return
	}
	addr := recipient.EmailAddress()
	if addr == "" {
		s.logger.Debug().Uint("recipient_id", recipient.ID).Msg("recipient has no email, skipping")
		return
	}

	email := &domain.Notification{
		RecipientID: recipient.ID,
		Channel:     domain.ChannelEmail,
		Title:       msg.Title,
		Message:     msg.Body,
		CaseID:      msg.CaseID,
		LivestockID: msg.LivestockID,
		Status:      domain.NotificationPending,
		Destination: addr,
		Metadata:    meta,
		CreatedAt:   now,
	}
	if err := s.repo.Create(ctx, email); err != nil {
		s.logger.Error().Err(err).Uint("recipient_id", recipient.ID).Str("title", msg.Title).Msg("email notification failed")
		return
	}
	s.enqueue(email)
}

func (s *NotificationService) enqueue(n *domain.Notification) bool {
	if s.queue == nil {
		return false
	}
	ok := s.queue.Enqueue(domain.EmailJob{
		NotificationID: n.ID,
		To:             n.Destination,
		Subject:        n.Title,
		Body:           n.Message,
		Attempt:        n.Attempts + 1,
	})
	if !ok {
		s.logger.Warn().Uint("notification_id", n.ID).Msg("email queue full, left pending")
	}
	return ok
}

// List returns the actor's in-app notifications, newest first.
func (s *NotificationService) List(ctx context.Context, actor domain.Actor, page, limit int) (*ports.Page[domain.Notification], error) {
	page, limit = normalizePage(page, limit)
	items, total, err := s.repo.ListByRecipient(ctx, actor.ID, page, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return newPage(items, total, page, limit), nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, actor domain.Actor) (int64, error) {
	return s.repo.CountUnread(ctx, actor.ID)
}

func (s *NotificationService) MarkRead(ctx context.Context, actor domain.Actor, id uint) error {
	return s.repo.MarkRead(ctx, id, actor.ID, s.now())
}

func (s *NotificationService) MarkAllRead(ctx context.Context, actor domain.Actor) (int64, error) {
	return s.repo.MarkAllRead(ctx, actor.ID, s.now())
}

// ResumePending re-queues every pending email row. It is meant for startup,
// when nothing from a previous run can still be in flight.
func (s *NotificationService) ResumePending(ctx context.Context) (int, error) {
	queued, err := s.requeuePending(ctx, s.now())
	if err != nil {
		return queued, err
	}
	s.logger.Info().Int("queued", queued).Msg("pending emails resumed")
	return queued, nil
}

// SweepPending re-queues, every interval, pending email rows older than
// minAge: rows a full queue turned away while the process kept running.
// minAge should exceed the dispatcher's retry window so jobs still being
// retried are left alone. It blocks until ctx is done.
func (s *NotificationService) SweepPending(ctx context.Context, interval, minAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.requeuePending(ctx, s.now().Add(-minAge))
			if err != nil {
				s.logger.Error().Err(err).Msg("pending email sweep failed")
				continue
			}
			if n > 0 {
				s.logger.Info().Int("queued", n).Msg("pending emails swept")
			}
		}
	}
}

// requeuePending walks pending rows created before cutoff in id order, one
// batch at a time, and stops early once the queue refuses a job.
func (s *NotificationService) requeuePending(ctx context.Context, cutoff time.Time) (int, error) {
	queued := 0
	var after uint
	for {
		batch, err := s.repo.ListPendingEmails(ctx, cutoff, after, resumeBatchSize)
		if err != nil {
			return queued, fmt.Errorf("resume pending emails: %w", err)
		}
		for _, n := range batch {
			if !s.enqueue(n) {
				return queued, nil
			}
			queued++
			after = n.ID
		}
		if len(batch) < resumeBatchSize {
			return queued, nil
		}
	}
}
