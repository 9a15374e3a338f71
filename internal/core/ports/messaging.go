package ports

import (
	"context"

	"github.com/animalguardian/platform/internal/core/domain"
)

// EventPublisher streams case lifecycle events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, e *domain.CaseEvent) error
}

// EmailSender delivers a single email.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// EmailQueue accepts email jobs for asynchronous delivery. Enqueue never
// blocks and reports false when the job was dropped.
type EmailQueue interface {
	Enqueue(job domain.EmailJob) bool
}

// EmailDeliverer performs one delivery attempt for a queued job.
type EmailDeliverer interface {
	Deliver(ctx context.Context, job domain.EmailJob) error
	// Fail marks the job's notification as permanently failed.
	Fail(ctx context.Context, job domain.EmailJob, cause error)
}
