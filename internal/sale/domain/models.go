// Package domain contains persistence models for recorded sales.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// PaymentMethod is how a paid sale was settled.
type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodOnline PaymentMethod = "online"
	PaymentMethodCheque PaymentMethod = "cheque"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodOnline, PaymentMethodCheque:
		return true
	default:
		return false
	}
}

// Sale is a recorded sale. TotalAmount is informational; documents recompute it from items.
type Sale struct {
	ID              snowflake.ID    `gorm:"primaryKey" json:"id"`
	InvoiceNo       string          `gorm:"column:invoice_no;not null;uniqueIndex" json:"invoice_no"`
	CustomerName    string          `gorm:"not null;index" json:"customer_name"`
	CustomerPhone   string          `json:"customer_phone,omitempty"`
	CustomerEmail   string          `json:"customer_email,omitempty"`
	CustomerAddress string          `json:"customer_address,omitempty"`
	SaleDate        time.Time       `gorm:"not null" json:"sale_date"`
	DueDate         *time.Time      `json:"due_date,omitempty"`
	Paid            bool            `gorm:"not null;default:false" json:"paid"`
	PaidAt          *time.Time      `json:"paid_at,omitempty"`
	PaymentMethod   *PaymentMethod  `gorm:"type:varchar(16)" json:"payment_method,omitempty"`
	AmountReceived  decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"amount_received"`
	SalesmanName    string          `json:"salesman_name,omitempty"`
	Disclaimer      string          `json:"disclaimer,omitempty"`
	TotalAmount     decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"total_amount"`
	Items           []SaleItem      `gorm:"foreignKey:SaleID" json:"items"`
	CreatedAt       time.Time       `gorm:"not null;index" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (Sale) TableName() string { return "sales" }

// SaleItem is one line on a sale, ordered by Position.
type SaleItem struct {
	ID          snowflake.ID    `gorm:"primaryKey" json:"id"`
	SaleID      snowflake.ID    `gorm:"not null;index" json:"sale_id"`
	Position    int             `gorm:"not null" json:"position"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `gorm:"type:numeric(14,3);not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"unit_price"`
}

// TableName sets the database table name.
func (SaleItem) TableName() string { return "sale_items" }

// LineTotal is quantity times unit price.
func (i SaleItem) LineTotal() decimal.Decimal {
	return i.Quantity.Mul(i.UnitPrice)
}
