package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/tradebook/internal/clock"
	"github.com/smallbiznis/tradebook/internal/config"
	"github.com/smallbiznis/tradebook/internal/sale/domain"
	"github.com/smallbiznis/tradebook/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NumberReserver allocates a durable invoice number inside a transaction.
type NumberReserver interface {
	Reserve(ctx context.Context, tx *gorm.DB) (string, error)
}

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    domain.Repository
	Numbers NumberReserver
	Company *config.CompanyProfileHolder
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    domain.Repository
	numbers NumberReserver
	company *config.CompanyProfileHolder
}

func New(p Params) domain.Service {
	c := p.Clock
	if c == nil {
		c = clock.New()
	}
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("sale.service"),
		genID:   p.GenID,
		clock:   c,
		repo:    p.Repo,
		numbers: p.Numbers,
		company: p.Company,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateSaleRequest) (domain.Sale, error) {
	customerName := strings.TrimSpace(req.CustomerName)
	if customerName == "" {
		return domain.Sale{}, domain.ErrInvalidCustomerName
	}

	now := s.clock.Now()
	saleDate := now
	if req.SaleDate != nil {
		saleDate = req.SaleDate.UTC()
	}

	sale := domain.Sale{
		ID:              s.genID.Generate(),
		CustomerName:    customerName,
		CustomerPhone:   strings.TrimSpace(req.CustomerPhone),
		CustomerEmail:   strings.TrimSpace(req.CustomerEmail),
		CustomerAddress: strings.TrimSpace(req.CustomerAddress),
		SaleDate:        saleDate,
		SalesmanName:    strings.TrimSpace(req.SalesmanName),
		Disclaimer:      strings.TrimSpace(req.Disclaimer),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	total := decimal.Zero
	for i, item := range req.Items {
		if item.Quantity.IsNegative() {
			return domain.Sale{}, domain.ErrInvalidQuantity
		}
		if item.UnitPrice.IsNegative() {
			return domain.Sale{}, domain.ErrInvalidUnitPrice
		}
		line := domain.SaleItem{
			ID:          s.genID.Generate(),
			SaleID:      sale.ID,
			Position:    i + 1,
			Description: strings.TrimSpace(item.Description),
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		}
		if line.Description != "" {
			total = total.Add(line.LineTotal())
		}
		sale.Items = append(sale.Items, line)
	}
	sale.TotalAmount = total.Round(2)

	if req.Paid {
		method := req.PaymentMethod
		if method == "" {
			method = domain.PaymentMethodCash
		}
		if !method.Valid() {
			return domain.Sale{}, domain.ErrInvalidPaymentMethod
		}
		paidAt := saleDate
		if req.PaidAt != nil {
			paidAt = req.PaidAt.UTC()
		}
		sale.Paid = true
		sale.PaidAt = &paidAt
		sale.PaymentMethod = &method
		sale.AmountReceived = sale.TotalAmount
	} else {
		due, err := s.dueDate(saleDate, req.DueDate)
		if err != nil {
			return domain.Sale{}, err
		}
		sale.DueDate = due
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		number, err := s.numbers.Reserve(ctx, tx)
		if err != nil {
			return err
		}
		sale.InvoiceNo = number
		return s.repo.Insert(ctx, tx, &sale)
	})
	if err != nil {
		return domain.Sale{}, err
	}

	s.log.Info("sale recorded",
		zap.String("sale_id", sale.ID.String()),
		zap.String("invoice_no", sale.InvoiceNo),
		zap.Int("items", len(sale.Items)),
	)
	return sale, nil
}

func (s *Service) dueDate(saleDate time.Time, requested *time.Time) (*time.Time, error) {
	if requested != nil {
		due := requested.UTC()
		if due.Before(saleDate.Truncate(24 * time.Hour)) {
			return nil, domain.ErrInvalidDueDate
		}
		return &due, nil
	}
	if s.company == nil {
		return nil, nil
	}
	days := s.company.Get().DefaultTermsDays
	if days <= 0 {
		return nil, nil
	}
	due := saleDate.AddDate(0, 0, days)
	return &due, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Sale, error) {
	saleID, err := parseID(id)
	if err != nil {
		return domain.Sale{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, saleID)
	if err != nil {
		return domain.Sale{}, err
	}
	if item == nil {
		return domain.Sale{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) List(ctx context.Context, req domain.ListSaleRequest) (domain.ListSaleResponse, error) {
	filter := domain.ListSaleFilter{
		CustomerName: strings.TrimSpace(req.CustomerName),
		Paid:         req.Paid,
		From:         req.From,
		To:           req.To,
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, filter, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(pageSize),
	})
	if err != nil {
		return domain.ListSaleResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(sale *domain.Sale) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        sale.ID.String(),
			CreatedAt: sale.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	sales := make([]domain.Sale, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		sales = append(sales, *item)
	}

	resp := domain.ListSaleResponse{Sales: sales}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) RecordPayment(ctx context.Context, req domain.RecordPaymentRequest) (domain.Sale, error) {
	saleID, err := parseID(req.SaleID)
	if err != nil {
		return domain.Sale{}, err
	}

	method := req.Method
	if method == "" {
		method = domain.PaymentMethodCash
	}
	if !method.Valid() {
		return domain.Sale{}, domain.ErrInvalidPaymentMethod
	}
	if req.Amount != nil && req.Amount.IsNegative() {
		return domain.Sale{}, domain.ErrInvalidAmount
	}

	var updated domain.Sale
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sale, err := s.repo.FindByID(ctx, tx, saleID)
		if err != nil {
			return err
		}
		if sale == nil {
			return domain.ErrNotFound
		}
		if sale.Paid {
			return domain.ErrAlreadyPaid
		}

		now := s.clock.Now()
		paidAt := now
		if req.PaidAt != nil {
			paidAt = req.PaidAt.UTC()
		}
		amount := sale.TotalAmount
		if req.Amount != nil {
			amount = req.Amount.Round(2)
		}

		sale.Paid = true
		sale.PaidAt = &paidAt
		sale.PaymentMethod = &method
		sale.AmountReceived = amount
		sale.UpdatedAt = now
		if err := s.repo.MarkPaid(ctx, tx, sale); err != nil {
			return err
		}
		updated = *sale
		return nil
	})
	if err != nil {
		return domain.Sale{}, err
	}

	s.log.Info("sale payment recorded",
		zap.String("sale_id", updated.ID.String()),
		zap.String("method", string(method)),
	)
	return updated, nil
}

func (s *Service) ListForCustomer(ctx context.Context, customerName string, from, to *time.Time) ([]domain.Sale, error) {
	customerName = strings.TrimSpace(customerName)
	if customerName == "" {
		return nil, domain.ErrInvalidCustomerName
	}

	items, err := s.repo.ListByCustomer(ctx, s.db, domain.ListSaleFilter{
		CustomerName: customerName,
		From:         from,
		To:           to,
	})
	if err != nil {
		return nil, err
	}

	sales := make([]domain.Sale, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		sales = append(sales, *item)
	}
	return sales, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
