package service

import "github.com/animalguardian/platform/internal/core/ports"

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}

func newPage[T any](items []*T, total int64, page, limit int) *ports.Page[T] {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	if items == nil {
		items = []*T{}
	}
	return &ports.Page[T]{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}
}
