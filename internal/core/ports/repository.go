package ports

import (
	"context"
	"time"

	"github.com/animalguardian/platform/internal/core/domain"
)

// CaseRepository defines persistence operations for case reports.
type CaseRepository interface {
	// Create inserts c. A unique-key conflict is reported as domain.ErrDuplicateKey.
	Create(ctx context.Context, c *domain.CaseReport) error
	FindByID(ctx context.Context, id uint) (*domain.CaseReport, error)
	FindByCaseID(ctx context.Context, caseID string) (*domain.CaseReport, error)
	FindByIdempotencyKey(ctx context.Context, reporterID uint, key string) (*domain.CaseReport, error)
	// List returns a page of cases inside scope matching filter and the total count.
	List(ctx context.Context, scope domain.Scope, filter domain.CaseFilter) ([]*domain.CaseReport, int64, error)
	// Update persists the mutable columns of c. case_id and reporter are never written.
	Update(ctx context.Context, c *domain.CaseReport) error
	Delete(ctx context.Context, id uint) error
}

// UserRepository defines persistence operations for users and vet profiles.
type UserRepository interface {
	// Create inserts u together with its VeterinarianProfile, if any.
	Create(ctx context.Context, u *domain.User) error
	FindByID(ctx context.Context, id uint) (*domain.User, error)
	FindByPhone(ctx context.Context, phone string) (*domain.User, error)
	Update(ctx context.Context, u *domain.User) error
	UpdateProfile(ctx context.Context, p *domain.VeterinarianProfile) error
	// ListAvailableVets returns approved local vets with an available profile.
	// Empty sector or district match any value.
	ListAvailableVets(ctx context.Context, sector, district string) ([]*domain.User, error)
	ListPendingApprovals(ctx context.Context) ([]*domain.User, error)
}

// LivestockRepository defines persistence operations for animals.
type LivestockRepository interface {
	Create(ctx context.Context, l *domain.Livestock) error
	FindByID(ctx context.Context, id uint) (*domain.Livestock, error)
	// FindInScope returns domain.ErrLivestockNotFound when id exists but is outside scope.
	FindInScope(ctx context.Context, scope domain.Scope, id uint) (*domain.Livestock, error)
	// List applies scope: OwnerID matches the owner, AssigneeID matches animals
	// linked to cases assigned to that vet.
	List(ctx context.Context, scope domain.Scope, page, limit int) ([]*domain.Livestock, int64, error)
	Update(ctx context.Context, l *domain.Livestock) error
	Delete(ctx context.Context, id uint) error
}

// NotificationRepository defines persistence operations for notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	FindByID(ctx context.Context, id uint) (*domain.Notification, error)
	ListByRecipient(ctx context.Context, recipientID uint, page, limit int) ([]*domain.Notification, int64, error)
	CountUnread(ctx context.Context, recipientID uint) (int64, error)
	// MarkRead returns domain.ErrNotificationNotFound when id does not belong to recipientID.
	MarkRead(ctx context.Context, id, recipientID uint, at time.Time) error
	MarkAllRead(ctx context.Context, recipientID uint, at time.Time) (int64, error)
	// RecordDelivery stores the outcome of an email attempt.
	RecordDelivery(ctx context.Context, id uint, status domain.NotificationStatus, attempts int, lastErr string, sentAt *time.Time) error
	// ListPendingEmails pages through pending email rows created at or before
	// createdBefore, in id order, starting after afterID.
	ListPendingEmails(ctx context.Context, createdBefore time.Time, afterID uint, limit int) ([]*domain.Notification, error)
}

// CaseEventRepository stores the case audit trail.
type CaseEventRepository interface {
	Insert(ctx context.Context, e *domain.CaseEvent) error
	ListByCase(ctx context.Context, caseDBID uint) ([]*domain.CaseEvent, error)
}

// Repositories groups the repositories bound to a single transaction.
type Repositories struct {
	Cases         CaseRepository
	Users         UserRepository
	Livestock     LivestockRepository
	Notifications NotificationRepository
}

// UnitOfWork runs a function inside a database transaction.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
	// WithinCaseTx locks the case row for the duration of fn. It returns
	// domain.ErrCaseNotFound if the case does not exist.
	WithinCaseTx(ctx context.Context, caseID uint, fn func(ctx context.Context, repos Repositories, c *domain.CaseReport) error) error
}
