package gormdb

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/animalguardian/platform/internal/core/domain"
	"github.com/animalguardian/platform/internal/core/ports"
)

// UnitOfWork implements ports.UnitOfWork on gorm transactions.
type UnitOfWork struct{ db *gorm.DB }

func NewUnitOfWork(db *gorm.DB) *UnitOfWork { return &UnitOfWork{db: db} }

var _ ports.UnitOfWork = (*UnitOfWork)(nil)

// NewRepositories binds every repository to db.
func NewRepositories(db *gorm.DB) ports.Repositories {
	return ports.Repositories{
		Cases:         NewCaseRepository(db),
		Users:         NewUserRepository(db),
		Livestock:     NewLivestockRepository(db),
		Notifications: NewNotificationRepository(db),
	}
}

func (u *UnitOfWork) WithinTx(ctx context.Context, fn func(context.Context, ports.Repositories) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, NewRepositories(tx))
	})
}

// WithinCaseTx locks the case row up-front (SELECT ... FOR UPDATE) so that
// concurrent assignments and updates of the same case serialize.
func (u *UnitOfWork) WithinCaseTx(ctx context.Context, caseID uint, fn func(context.Context, ports.Repositories, *domain.CaseReport) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c domain.CaseReport
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&c, caseID).Error
		if err != nil {
			return translate(err, domain.ErrCaseNotFound)
		}
		return fn(ctx, NewRepositories(tx), &c)
	})
}
