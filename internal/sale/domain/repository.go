package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tradebook/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, sale *Sale) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Sale, error)
	List(ctx context.Context, db *gorm.DB, filter ListSaleFilter, page pagination.Pagination) ([]*Sale, error)
	ListByCustomer(ctx context.Context, db *gorm.DB, filter ListSaleFilter) ([]*Sale, error)
	MarkPaid(ctx context.Context, db *gorm.DB, sale *Sale) error
}
