package document

import (
	"strconv"

	"github.com/smallbiznis/tradebook/internal/invoice/format"
)

// Kind discriminates the document variants.
type Kind string

const (
	KindInvoice   Kind = "invoice"
	KindStatement Kind = "statement"
)

// Align is horizontal text alignment inside a column or block.
type Align string

const (
	AlignLeft   Align = "L"
	AlignCenter Align = "C"
	AlignRight  Align = "R"
)

// Column describes one table column. Widths are millimetres.
type Column struct {
	Title string
	Width float64
	Align Align
}

var invoiceColumns = []Column{
	{Title: "No.", Width: 14, Align: AlignLeft},
	{Title: "Name of Item", Width: 76, Align: AlignLeft},
	{Title: "Quantity", Width: 24, Align: AlignRight},
	{Title: "Amount", Width: 32, Align: AlignRight},
	{Title: "Sum", Width: 34, Align: AlignRight},
}

var statementColumns = []Column{
	{Title: "Date", Width: 30, Align: AlignLeft},
	{Title: "Activity", Width: 80, Align: AlignLeft},
	{Title: "Amount", Width: 35, Align: AlignRight},
	{Title: "Received", Width: 35, Align: AlignRight},
}

// Variant is a prepared document of exactly one kind.
type Variant struct {
	Kind      Kind
	Invoice   *Invoice
	Statement *Statement
}

func InvoiceVariant(inv Invoice) Variant {
	return Variant{Kind: KindInvoice, Invoice: &inv}
}

func StatementVariant(st Statement) Variant {
	return Variant{Kind: KindStatement, Statement: &st}
}

func (v Variant) Title() string {
	if v.Kind == KindStatement {
		return "STATEMENT"
	}
	return "INVOICE"
}

// Columns returns a copy of the table schema for the variant.
func (v Variant) Columns() []Column {
	src := invoiceColumns
	if v.Kind == KindStatement {
		src = statementColumns
	}
	cols := make([]Column, len(src))
	copy(cols, src)
	return cols
}

// Rows renders the table body cells in column order.
func (v Variant) Rows() [][]string {
	switch v.Kind {
	case KindStatement:
		if v.Statement == nil {
			return nil
		}
		rows := make([][]string, 0, len(v.Statement.Rows))
		for _, r := range v.Statement.Rows {
			rows = append(rows, []string{
				format.DisplayDate(r.Date),
				r.Activity,
				format.Money(r.Amount),
				format.Money(r.Received),
			})
		}
		return rows
	default:
		if v.Invoice == nil {
			return nil
		}
		rows := make([][]string, 0, len(v.Invoice.Items))
		for _, item := range v.Invoice.Items {
			rows = append(rows, []string{
				strconv.Itoa(item.Sequence),
				item.Description,
				format.Quantity(item.Quantity),
				format.Money(item.UnitPrice),
				format.Money(item.LineTotal()),
			})
		}
		return rows
	}
}

func (v Variant) Issuer() Issuer {
	if v.Kind == KindStatement && v.Statement != nil {
		return v.Statement.Issuer
	}
	if v.Invoice != nil {
		return v.Invoice.Issuer
	}
	return Issuer{}
}

func (v Variant) Customer() Party {
	if v.Kind == KindStatement && v.Statement != nil {
		return v.Statement.Customer
	}
	if v.Invoice != nil {
		return v.Invoice.Customer
	}
	return Party{}
}

func (v Variant) SalesmanName() string {
	if v.Kind == KindStatement && v.Statement != nil {
		return v.Statement.SalesmanName
	}
	if v.Invoice != nil {
		return v.Invoice.SalesmanName
	}
	return ""
}

func (v Variant) Disclaimer() string {
	if v.Kind == KindStatement && v.Statement != nil {
		return v.Statement.Disclaimer
	}
	if v.Invoice != nil {
		return v.Invoice.Disclaimer
	}
	return ""
}

// Filename is the attachment name for the variant.
func (v Variant) Filename() string {
	if v.Kind == KindStatement && v.Statement != nil {
		return format.StatementFilename(v.Statement.Customer.Name, v.Statement.IssueDate)
	}
	if v.Invoice != nil {
		return format.InvoiceFilename(v.Invoice.InvoiceNumber, v.Invoice.Customer.Name, v.Invoice.IssueDate)
	}
	return ""
}
