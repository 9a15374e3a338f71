package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/animalguardian/platform/internal/core/domain"
	"github.com/animalguardian/platform/internal/core/ports"
)

// DeliveryDedup abstracts the store (Redis) that remembers delivered emails
// so a retried job is not sent twice.
type DeliveryDedup interface {
	IsDelivered(ctx context.Context, notificationID uint) (bool, error)
	MarkDelivered(ctx context.Context, notificationID uint) error
}

type emailDelivery struct {
	repo   ports.NotificationRepository
	sender ports.EmailSender
	dedup  DeliveryDedup
	log    zerolog.Logger
}

// NewEmailDelivery returns the EmailDeliverer used by the email dispatcher.
// dedup may be nil.
func NewEmailDelivery(
	repo ports.NotificationRepository,
	sender ports.EmailSender,
	dedup DeliveryDedup,
	log zerolog.Logger,
) ports.EmailDeliverer {
	return &emailDelivery{repo: repo, sender: sender, dedup: dedup, log: log}
}

// Deliver sends one email and records the outcome on its notification row.
func (d *emailDelivery) Deliver(ctx context.Context, job domain.EmailJob) error {
	if d.dedup != nil {
		done, err := d.dedup.IsDelivered(ctx, job.NotificationID)
		if err != nil {
			d.log.Warn().Err(err).Uint("notification_id", job.NotificationID).Msg("dedup check failed, sending anyway")
		} else if done {
			d.log.Debug().Uint("notification_id", job.NotificationID).Msg("email already delivered, skipped")
			return nil
		}
	}

	if err := d.sender.Send(ctx, job.To, job.Subject, job.Body); err != nil {
		if recErr := d.repo.RecordDelivery(ctx, job.NotificationID, domain.NotificationPending, job.Attempt, err.Error(), nil); recErr != nil {
			d.log.Warn().Err(recErr).Uint("notification_id", job.NotificationID).Msg("record failed attempt")
		}
		return fmt.Errorf("send email %d: %w", job.NotificationID, err)
	}

	if d.dedup != nil {
		if err := d.dedup.MarkDelivered(ctx, job.NotificationID); err != nil {
			d.log.Warn().Err(err).Uint("notification_id", job.NotificationID).Msg("dedup mark failed")
		}
	}

	sentAt := time.Now().UTC()
	if err := d.repo.RecordDelivery(ctx, job.NotificationID, domain.NotificationSent, job.Attempt, "", &sentAt); err != nil {
		return fmt.Errorf("record delivery %d: %w", job.NotificationID, err)
	}
	return nil
}

func (d *emailDelivery) Fail(ctx context.Context, job domain.EmailJob, cause error) {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	if err := d.repo.RecordDelivery(ctx, job.NotificationID, domain.NotificationFailed, job.Attempt, msg, nil); err != nil {
		d.log.Error().Err(err).Uint("notification_id", job.NotificationID).Msg("record permanent failure")
	}
}
