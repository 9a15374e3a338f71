package ports

import (
	"context"

	"github.com/animalguardian/platform/internal/core/domain"
)

// NotificationService fans messages out to users and manages their inbox.
type NotificationService interface {
	// Notify creates the in-app record and, when withEmail is set and the
	// recipient has an address, a pending email that is queued for delivery.
	// Failures are logged and never returned.
	Notify(ctx context.Context, recipient *domain.User, msg domain.Message, withEmail bool)
	List(ctx context.Context, actor domain.Actor, page, limit int) (*Page[domain.Notification], error)
	UnreadCount(ctx context.Context, actor domain.Actor) (int64, error)
	MarkRead(ctx context.Context, actor domain.Actor, id uint) error
	MarkAllRead(ctx context.Context, actor domain.Actor) (int64, error)
	// ResumePending re-queues email notifications left pending by a previous run.
	ResumePending(ctx context.Context) (int, error)
}
