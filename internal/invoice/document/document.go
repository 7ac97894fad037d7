// Package document holds the renderable invoice and statement models.
package document

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNegativeQuantity  = errors.New("negative_quantity")
	ErrNegativeUnitPrice = errors.New("negative_unit_price")
	ErrNegativeAmount    = errors.New("negative_amount")
	ErrMissingNumber     = errors.New("missing_invoice_number")
)

// PaymentMethod as printed on paid invoices.
type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "Cash"
	PaymentOnline PaymentMethod = "Online"
	PaymentCheque PaymentMethod = "Cheque"
)

// LineItem is one invoice row. Sequence is assigned by PrepareInvoice.
type LineItem struct {
	Sequence    int
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
}

// LineTotal is quantity times unit price.
func (l LineItem) LineTotal() decimal.Decimal {
	return l.Quantity.Mul(l.UnitPrice)
}

// Party is the bill-to customer. Optional fields are omitted when empty.
type Party struct {
	Name        string
	CompanyName string
	Address     string
	Phone       string
	Email       string
}

// Issuer is the company printed in the header.
type Issuer struct {
	CompanyName string
	Address     string
	Phone       string
	Email       string
}

type Invoice struct {
	InvoiceNumber string
	IssueDate     time.Time
	// DueDate is only shown while the invoice is unpaid.
	DueDate  *time.Time
	Customer Party
	Issuer   Issuer
	Items    []LineItem
	// GrandTotal is recomputed by PrepareInvoice; any caller value is discarded.
	GrandTotal    decimal.Decimal
	Paid          bool
	PaidAt        *time.Time
	PaymentMethod PaymentMethod
	SalesmanName  string
	Disclaimer    string
}

type StatementRow struct {
	Date     time.Time
	Activity string
	Amount   decimal.Decimal
	Received decimal.Decimal
}

type StatementTotals struct {
	Amount   decimal.Decimal
	Received decimal.Decimal
	Balance  decimal.Decimal
}

type Statement struct {
	Customer     Party
	Issuer       Issuer
	PeriodFrom   *time.Time
	PeriodTo     *time.Time
	IssueDate    time.Time
	Rows         []StatementRow
	Totals       StatementTotals
	SalesmanName string
	Disclaimer   string
}

// PrepareInvoice drops items without a description, renumbers the rest
// densely from 1 and recomputes the grand total.
func PrepareInvoice(in Invoice) (Invoice, error) {
	if strings.TrimSpace(in.InvoiceNumber) == "" {
		return Invoice{}, ErrMissingNumber
	}

	out := in
	out.Items = make([]LineItem, 0, len(in.Items))
	total := decimal.Zero
	for _, item := range in.Items {
		if strings.TrimSpace(item.Description) == "" {
			continue
		}
		if item.Quantity.IsNegative() {
			return Invoice{}, ErrNegativeQuantity
		}
		if item.UnitPrice.IsNegative() {
			return Invoice{}, ErrNegativeUnitPrice
		}
		item.Description = strings.TrimSpace(item.Description)
		item.Sequence = len(out.Items) + 1
		total = total.Add(item.LineTotal())
		out.Items = append(out.Items, item)
	}
	out.GrandTotal = total.Round(2)
	if out.Paid {
		out.DueDate = nil
	}
	return out, nil
}

// PrepareStatement validates rows and computes the statement totals.
func PrepareStatement(in Statement) (Statement, error) {
	out := in
	out.Rows = make([]StatementRow, 0, len(in.Rows))
	totals := StatementTotals{Amount: decimal.Zero, Received: decimal.Zero}
	for _, row := range in.Rows {
		if row.Amount.IsNegative() || row.Received.IsNegative() {
			return Statement{}, ErrNegativeAmount
		}
		totals.Amount = totals.Amount.Add(row.Amount)
		totals.Received = totals.Received.Add(row.Received)
		out.Rows = append(out.Rows, row)
	}
	totals.Amount = totals.Amount.Round(2)
	totals.Received = totals.Received.Round(2)
	totals.Balance = totals.Amount.Sub(totals.Received)
	out.Totals = totals
	return out, nil
}
