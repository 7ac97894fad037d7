// Package domain declares the document export operations.
package domain

import (
	"context"
	"errors"
	"time"
)

const ContentTypePDF = "application/pdf"

// Document is an encoded attachment ready to be served.
type Document struct {
	Filename    string
	ContentType string
	// Pages is zero when the backend does not report a page count.
	Pages       int
	Bytes       []byte
}

type ExportStatementRequest struct {
	CustomerID string
	From       *time.Time
	To         *time.Time
}

type Service interface {
	// NextInvoiceNumber previews the number the next sale would receive.
	NextInvoiceNumber(ctx context.Context) string
	ExportInvoice(ctx context.Context, saleID string) (Document, error)
	ExportStatement(ctx context.Context, req ExportStatementRequest) (Document, error)
	ExportReceipt(ctx context.Context, saleID string) (Document, error)
}

var (
	ErrInvalidPeriod = errors.New("invalid_period")
	ErrSaleNotPaid   = errors.New("sale_not_paid")
)
