package pdf

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/image"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/extension"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/smallbiznis/tradebook/internal/invoice/format"
)

var ErrMissingInvoiceNumber = errors.New("missing_invoice_number")

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) GenerateReceipt(ctx context.Context, receipt ReceiptData) ([]byte, error) {
	if strings.TrimSpace(receipt.InvoiceNumber) == "" {
		return nil, ErrMissingInvoiceNumber
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		WithCreationDate(receipt.PaidAt).
		WithTitle("Receipt "+receipt.InvoiceNumber, false).
		Build()

	m := maroto.New(cfg)

	header := []core.Col{
		text.NewCol(8, "Receipt", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	}
	if len(receipt.Logo) > 0 {
		header = append(header, image.NewFromBytesCol(4, receipt.Logo, extension.Png, props.Rect{
			Center:  false,
			Percent: 80,
			Left:    10,
		}))
	} else {
		header = append(header, col.New(4))
	}
	m.AddRow(30, header...)

	m.AddRow(20,
		col.New(6).Add(
			text.New("Invoice number: "+receipt.InvoiceNumber, props.Text{Top: 0}),
			text.New("Invoice date: "+format.DisplayDate(receipt.IssueDate), props.Text{Top: 4}),
			text.New("Date paid: "+format.DisplayDate(receipt.PaidAt), props.Text{Top: 8}),
			text.New("Payment method: "+receipt.PaymentMethod, props.Text{Top: 12}),
		),
		col.New(6),
	)

	m.AddRow(30,
		col.New(6).Add(partyLines(0, receipt.OrgName, receipt.OrgAddress, receipt.OrgPhone, receipt.OrgEmail)...),
		col.New(6).Add(append(
			[]core.Component{text.New("Received from", props.Text{Style: fontstyle.Bold})},
			partyLines(5, receipt.BillToName, receipt.BillToAddress, receipt.BillToPhone, receipt.BillToEmail)...,
		)...),
	)

	m.AddRow(15,
		text.NewCol(12, format.Money(receipt.AmountReceived)+" paid on "+format.DisplayDate(receipt.PaidAt), props.Text{
			Size:  14,
			Style: fontstyle.Bold,
			Top:   5,
		}),
	)

	m.AddRow(10,
		text.NewCol(6, "Description", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Qty", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Unit price", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, item := range receipt.Items {
		m.AddRow(8,
			text.NewCol(6, item.Description, props.Text{Size: 9}),
			text.NewCol(2, format.Quantity(item.Quantity), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, format.Money(item.UnitPrice), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, format.Money(item.Quantity.Mul(item.UnitPrice)), props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Total", props.Text{Size: 9, Style: fontstyle.Bold}),
		text.NewCol(2, format.Money(receipt.Total), props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Received", props.Text{Size: 9}),
		text.NewCol(2, format.Money(receipt.AmountReceived), props.Text{Size: 9, Align: align.Right}),
	)

	if name := strings.TrimSpace(receipt.SalesmanName); name != "" {
		m.AddRow(10, text.NewCol(12, "Salesman: "+name, props.Text{Size: 9, Align: align.Right, Top: 4}))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate receipt: %w", err)
	}
	return doc.GetBytes(), nil
}

// partyLines stacks the non-empty fields 5mm apart starting at top.
func partyLines(top float64, name, address, phone, email string) []core.Component {
	lines := []core.Component{}
	if v := strings.TrimSpace(name); v != "" {
		lines = append(lines, text.New(v, props.Text{Style: fontstyle.Bold, Top: top}))
	}
	for _, v := range []string{address, phone, email} {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		lines = append(lines, text.New(v, props.Text{Top: top + 5*float64(len(lines))}))
	}
	return lines
}
