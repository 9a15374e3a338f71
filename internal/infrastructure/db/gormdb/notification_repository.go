package gormdb

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/animalguardian/platform/internal/core/domain"
	"github.com/animalguardian/platform/internal/core/ports"
)

// NotificationRepository implements ports.NotificationRepository with gorm.
// Inbox queries only consider in-app rows.
type NotificationRepository struct{ db *gorm.DB }

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

var _ ports.NotificationRepository = (*NotificationRepository)(nil)

func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *NotificationRepository) FindByID(ctx context.Context, id uint) (*domain.Notification, error) {
	var out domain.Notification
	if err := r.db.WithContext(ctx).First(&out, id).Error; err != nil {
		return nil, translate(err, domain.ErrNotificationNotFound)
	}
	return &out, nil
}

func (r *NotificationRepository) inbox(ctx context.Context, recipientID uint) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("recipient_id = ? AND channel = ?", recipientID, domain.ChannelInApp)
}

func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipientID uint, page, limit int) ([]*domain.Notification, int64, error) {
	var total int64
	if err := r.inbox(ctx, recipientID).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []*domain.Notification
	err := r.inbox(ctx, recipientID).
		Order("created_at DESC, id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, recipientID uint) (int64, error) {
	var n int64
	err := r.inbox(ctx, recipientID).Where("status <> ?", domain.NotificationRead).Count(&n).Error
	return n, err
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id, recipientID uint, at time.Time) error {
	res := r.inbox(ctx, recipientID).Where("id = ?", id).Updates(map[string]any{
		"status":  domain.NotificationRead,
		"read_at": at,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotificationNotFound
	}
	return nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipientID uint, at time.Time) (int64, error) {
	res := r.inbox(ctx, recipientID).Where("status <> ?", domain.NotificationRead).Updates(map[string]any{
		"status":  domain.NotificationRead,
		"read_at": at,
	})
	return res.RowsAffected, res.Error
}

func (r *NotificationRepository) RecordDelivery(ctx context.Context, id uint, status domain.NotificationStatus, attempts int, lastErr string, sentAt *time.Time) error {
	fields := map[string]any{
		"status":     status,
		"attempts":   attempts,
		"last_error": lastErr,
	}
	if sentAt != nil {
		fields["sent_at"] = *sentAt
	}
	res := r.db.WithContext(ctx).Model(&domain.Notification{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotificationNotFound
	}
	return nil
}

func (r *NotificationRepository) ListPendingEmails(ctx context.Context, createdBefore time.Time, afterID uint, limit int) ([]*domain.Notification, error) {
	var out []*domain.Notification
	err := r.db.WithContext(ctx).
		Where("channel = ? AND status = ?", domain.ChannelEmail, domain.NotificationPending).
		Where("created_at <= ? AND id > ?", createdBefore, afterID).
		Order("id").
		Limit(limit).
		Find(&out).Error
	return out, err
}
