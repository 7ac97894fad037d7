package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/tradebook/pkg/db/pagination"
)

type CreateSaleItem struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
}

type CreateSaleRequest struct {
	CustomerName    string
	CustomerPhone   string
	CustomerEmail   string
	CustomerAddress string
	SaleDate        *time.Time
	DueDate         *time.Time
	Paid            bool
	PaidAt          *time.Time
	PaymentMethod   PaymentMethod
	SalesmanName    string
	Disclaimer      string
	Items           []CreateSaleItem
}

type RecordPaymentRequest struct {
	SaleID string
	Method PaymentMethod
	PaidAt *time.Time
	// Amount defaults to the sale total when nil.
	Amount *decimal.Decimal
}

type ListSaleRequest struct {
	PageToken    string
	PageSize     int32
	CustomerName string
	Paid         *bool
	From         *time.Time
	To           *time.Time
}

type ListSaleFilter struct {
	CustomerName string
	Paid         *bool
	From         *time.Time
	To           *time.Time
}

type ListSaleResponse struct {
	pagination.PageInfo
	Sales []Sale `json:"sales"`
}

type Service interface {
	Create(context.Context, CreateSaleRequest) (Sale, error)
	GetByID(ctx context.Context, id string) (Sale, error)
	List(context.Context, ListSaleRequest) (ListSaleResponse, error)
	RecordPayment(context.Context, RecordPaymentRequest) (Sale, error)
	// ListForCustomer returns a customer's sales in sale date order, items loaded.
	ListForCustomer(ctx context.Context, customerName string, from, to *time.Time) ([]Sale, error)
}

var (
	ErrInvalidID            = errors.New("invalid_id")
	ErrInvalidCustomerName  = errors.New("invalid_customer_name")
	ErrInvalidQuantity      = errors.New("invalid_quantity")
	ErrInvalidUnitPrice     = errors.New("invalid_unit_price")
	ErrInvalidPaymentMethod = errors.New("invalid_payment_method")
	ErrInvalidAmount        = errors.New("invalid_amount")
	ErrInvalidDueDate       = errors.New("invalid_due_date")
	ErrAlreadyPaid          = errors.New("already_paid")
	ErrNotFound             = errors.New("not_found")
)
