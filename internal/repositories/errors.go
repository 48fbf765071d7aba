package repositories

import (
	"errors"
	"fmt"
	"math"

	"github.com/anonto42/nano-social/backend/internal/models"
	"gorm.io/gorm"
)

// storeError tags driver failures with models.ErrStoreUnavailable so callers
// can tell a transient backend problem from a domain outcome.
func storeError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	case errors.Is(err, models.ErrStateConflict),
		errors.Is(err, models.ErrUserNotFound),
		errors.Is(err, models.ErrNotFound),
		errors.Is(err, models.ErrInvalidTransition):
		return fmt.Errorf("%s: %w", op, err)
	default:
		return fmt.Errorf("%s: %w: %w", op, models.ErrStoreUnavailable, err)
	}
}

const (
	defaultPageSize = 20
	maxPageSize     = 100

	// maxPage keeps (page-1)*limit within int for every accepted limit.
	maxPage = math.MaxInt / maxPageSize
)

// Paginate is a gorm scope applying 1-based page/limit with sane bounds.
func Paginate(page, limit int) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		page, limit = NormalizePage(page, limit)
		return db.Offset((page - 1) * limit).Limit(limit)
	}
}

// NormalizePage clamps page to [1, maxPage] and limit to [1, 100], defaulting to 20.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if page > maxPage {
		page = maxPage
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}
