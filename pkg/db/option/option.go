package option

import (
	"fmt"
	"strings"
	"time"

	"github.com/smallbiznis/tradebook/pkg/db/pagination"
	"gorm.io/gorm"
)

// QueryOption mutates a query before it is executed.
type QueryOption interface {
	Apply(db *gorm.DB) *gorm.DB
}

type queryOptionFunc func(db *gorm.DB) *gorm.DB

func (f queryOptionFunc) Apply(db *gorm.DB) *gorm.DB {
	return f(db)
}

// WithSortBy orders by column in the given direction. Unknown directions fall back to ascending.
func WithSortBy(column, direction string) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		dir := "ASC"
		if strings.EqualFold(strings.TrimSpace(direction), "desc") {
			dir = "DESC"
		}
		return db.Order(fmt.Sprintf("%s %s", column, dir))
	})
}

func WithLimit(limit int) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if limit <= 0 {
			return db
		}
		return db.Limit(limit)
	})
}

func WithOffset(offset int) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if offset <= 0 {
			return db
		}
		return db.Offset(offset)
	})
}

// WithWhere adds a raw condition.
func WithWhere(query string, args ...any) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		return db.Where(query, args...)
	})
}

// WithPreload eager loads an association with optional scoping conditions.
func WithPreload(association string, conds ...any) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		return db.Preload(association, conds...)
	})
}

// ApplyPagination applies keyset pagination ordered by created_at desc, id desc.
// It fetches one row beyond the page size so callers can detect further pages.
func ApplyPagination(page pagination.Pagination) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if token := strings.TrimSpace(page.PageToken); token != "" {
			cursor, err := pagination.DecodeCursor(token)
			if err == nil && cursor != nil {
				createdAt, parseErr := time.Parse(time.RFC3339Nano, cursor.CreatedAt)
				if parseErr == nil {
					db = db.Where("created_at < ? OR (created_at = ? AND id < ?)", createdAt, createdAt, cursor.ID)
				}
			}
		}
		size := page.PageSize
		if size <= 0 {
			size = 10
		}
		return db.Limit(size + 1)
	})
}
