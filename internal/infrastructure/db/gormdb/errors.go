package gormdb

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/animalguardian/platform/internal/core/domain"
)

// translate maps gorm errors onto domain sentinels. notFound is returned for
// gorm.ErrRecordNotFound.
func translate(err, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound
	case errors.Is(err, gorm.ErrDuplicatedKey), isUniqueViolation(err):
		return domain.ErrDuplicateKey
	}
	return err
}

// isUniqueViolation catches drivers that do not implement error translation.
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "duplicate key value")
}
