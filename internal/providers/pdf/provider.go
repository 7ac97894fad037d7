package pdf

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/fx"
)

var Module = fx.Module("providers.pdf",
	fx.Provide(New),
)

// Provider renders flowing documents that do not need the fixed invoice layout.
type Provider interface {
	GenerateReceipt(ctx context.Context, data ReceiptData) ([]byte, error)
}

type ReceiptData struct {
	OrgName    string
	OrgAddress string
	OrgPhone   string
	OrgEmail   string
	// Logo is optional PNG bytes.
	Logo []byte

	InvoiceNumber string
	IssueDate     time.Time
	PaidAt        time.Time
	PaymentMethod string

	BillToName    string
	BillToAddress string
	BillToPhone   string
	BillToEmail   string

	Items          []ReceiptItem
	Total          decimal.Decimal
	AmountReceived decimal.Decimal
	SalesmanName   string
}

type ReceiptItem struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
}
