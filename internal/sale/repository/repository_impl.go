package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tradebook/internal/sale/domain"
	"github.com/smallbiznis/tradebook/pkg/db/option"
	"github.com/smallbiznis/tradebook/pkg/db/pagination"
	"github.com/smallbiznis/tradebook/pkg/repository"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, sale *domain.Sale) error {
	return repository.ProvideStore[domain.Sale](db).Create(ctx, sale)
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Sale, error) {
	return repository.ProvideStore[domain.Sale](db).FindOne(ctx, &domain.Sale{ID: id}, withOrderedItems())
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListSaleFilter, page pagination.Pagination) ([]*domain.Sale, error) {
	var sales []*domain.Sale
	stmt := applyFilter(db.WithContext(ctx).Model(&domain.Sale{}), filter)
	stmt = option.ApplyPagination(page).Apply(stmt)
	stmt = withOrderedItems().Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&sales).Error
	if err != nil {
		return nil, err
	}
	return sales, nil
}

func (r *repo) ListByCustomer(ctx context.Context, db *gorm.DB, filter domain.ListSaleFilter) ([]*domain.Sale, error) {
	var sales []*domain.Sale
	stmt := applyFilter(db.WithContext(ctx).Model(&domain.Sale{}), filter)
	stmt = withOrderedItems().Apply(stmt)
	err := stmt.
		Order("sale_date asc, id asc").
		Find(&sales).Error
	if err != nil {
		return nil, err
	}
	return sales, nil
}

func (r *repo) MarkPaid(ctx context.Context, db *gorm.DB, sale *domain.Sale) error {
	updates := map[string]any{
		"paid":            true,
		"paid_at":         sale.PaidAt,
		"amount_received": sale.AmountReceived,
		"updated_at":      sale.UpdatedAt,
	}
	if sale.PaymentMethod != nil {
		updates["payment_method"] = string(*sale.PaymentMethod)
	}
	return repository.ProvideStore[domain.Sale](db).Update(ctx, sale.ID.String(), updates)
}

func applyFilter(stmt *gorm.DB, filter domain.ListSaleFilter) *gorm.DB {
	if filter.CustomerName != "" {
		stmt = stmt.Where("customer_name = ?", filter.CustomerName)
	}
	if filter.Paid != nil {
		stmt = stmt.Where("paid = ?", *filter.Paid)
	}
	if filter.From != nil {
		stmt = stmt.Where("sale_date >= ?", *filter.From)
	}
	if filter.To != nil {
		stmt = stmt.Where("sale_date <= ?", *filter.To)
	}
	return stmt
}

func withOrderedItems() option.QueryOption {
	return option.WithPreload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("position asc")
	})
}
