package layout

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/tradebook/internal/invoice/document"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var issueDate = time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

func newEngine(opts Options) *Engine {
	return New(A4(), FixedMeasurer{PerRune: 2}, opts)
}

func invoiceWithItems(t *testing.T, n int, mutate func(*document.Invoice)) document.Variant {
	t.Helper()
	due := issueDate.AddDate(0, 0, 7)
	inv := document.Invoice{
		InvoiceNumber: "INV-0007",
		IssueDate:     issueDate,
		DueDate:       &due,
		Customer:      document.Party{Name: "Al Faisal & Co", Phone: "+971 4 555 0101"},
		Issuer:        document.Issuer{CompanyName: "Fresh Harvest Trading", Phone: "555-0100", Email: "sales@freshharvest.example", Address: "Stall 14"},
		SalesmanName:  "Omar",
	}
	for i := 0; i < n; i++ {
		inv.Items = append(inv.Items, document.LineItem{
			Description: fmt.Sprintf("Item %d", i+1),
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   decimal.NewFromInt(10),
		})
	}
	if mutate != nil {
		mutate(&inv)
	}
	prepared, err := document.PrepareInvoice(inv)
	require.NoError(t, err)
	return document.InvoiceVariant(prepared)
}

func texts(ops []Op) []string {
	out := make([]string, 0, len(ops))
	for _, op := range ops {
		if op.Kind == OpText {
			out = append(out, op.Text)
		}
	}
	return out
}

func totalRows(pages []Page) int {
	n := 0
	for _, p := range pages {
		n += p.Rows
	}
	return n
}

func TestPaginationBreaksAtFormulaIndex(t *testing.T) {
	e := newEngine(Options{})
	pages, err := e.Layout(invoiceWithItems(t, 45, nil))
	require.NoError(t, err)

	require.Len(t, pages, 2)
	geo := e.Geometry()
	reserve := totalsHeight(totalsLines(invoiceWithItems(t, 0, nil)))
	assert.Equal(t, geo.FirstBreakIndex(pages[0].BodyTop, reserve), pages[0].Rows)
	assert.Equal(t, 19, pages[0].Rows)
	assert.Equal(t, 26, pages[1].Rows)
	assert.Equal(t, geo.MarginTop, pages[1].BodyTop)
	assert.Equal(t, 45, totalRows(pages))
}

func TestPageCountsForLongTables(t *testing.T) {
	e := newEngine(Options{})
	geo := e.Geometry()
	perPage := geo.RowsPerContinuationPage(false, totalsHeight(totalsLines(invoiceWithItems(t, 0, nil))))
	require.Equal(t, 29, perPage)

	pages, err := e.Layout(invoiceWithItems(t, 19+2*perPage+1, nil))
	require.NoError(t, err)
	require.Len(t, pages, 4)
	assert.Equal(t, []int{19, 29, 29, 1}, []int{pages[0].Rows, pages[1].Rows, pages[2].Rows, pages[3].Rows})
}

func TestRowsNeverEnterFooterBand(t *testing.T) {
	e := newEngine(Options{})
	pages, err := e.Layout(invoiceWithItems(t, 73, nil))
	require.NoError(t, err)

	limit := e.Geometry().BodyLimit()
	for _, page := range pages {
		for _, op := range page.OpsTagged(TagRow) {
			assert.LessOrEqual(t, op.Y+op.H, limit, "page %d", page.Number)
		}
		for _, op := range page.OpsTagged(TagTotals) {
			assert.LessOrEqual(t, op.Y+op.H, limit, "page %d", page.Number)
		}
	}
}

func TestFullFirstPageKeepsTotals(t *testing.T) {
	e := newEngine(Options{})
	pages, err := e.Layout(invoiceWithItems(t, 19, nil))
	require.NoError(t, err)

	require.Len(t, pages, 1)
	assert.Equal(t, 19, pages[0].Rows)
	assert.Contains(t, texts(pages[0].OpsTagged(TagTotals)), "190.00")
	assert.NotEmpty(t, pages[0].OpsTagged(TagTerms))
}

func TestOneRowOverAddsOnePage(t *testing.T) {
	e := newEngine(Options{})
	pages, err := e.Layout(invoiceWithItems(t, 20, nil))
	require.NoError(t, err)

	require.Len(t, pages, 2)
	assert.Equal(t, 19, pages[0].Rows)
	assert.Empty(t, pages[0].OpsTagged(TagTotals))
	assert.Equal(t, 1, pages[1].Rows)
	assert.Contains(t, texts(pages[1].OpsTagged(TagTotals)), "200.00")
}

func TestStatementReservesRoomForAllTotals(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	st := document.Statement{Customer: document.Party{Name: "Karim"}, IssueDate: day}
	for i := 0; i < 40; i++ {
		st.Rows = append(st.Rows, document.StatementRow{
			Date:     day,
			Activity: fmt.Sprintf("Sale INV-%04d", i+1),
			Amount:   decimal.NewFromInt(10),
			Received: decimal.Zero,
		})
	}
	prepared, err := document.PrepareStatement(st)
	require.NoError(t, err)

	e := newEngine(Options{})
	pages, err := e.Layout(document.StatementVariant(prepared))
	require.NoError(t, err)

	last := pages[len(pages)-1]
	totals := last.OpsTagged(TagTotals)
	require.Len(t, totals, 6)
	assert.Greater(t, last.Rows, 0)
	for _, op := range totals {
		assert.LessOrEqual(t, op.Y+op.H, e.Geometry().BodyLimit())
	}
}

func TestFooterOnlyOnLastPageAnchoredToBottom(t *testing.T) {
	e := newEngine(Options{})
	pages, err := e.Layout(invoiceWithItems(t, 45, nil))
	require.NoError(t, err)
	require.Len(t, pages, 2)

	assert.Empty(t, pages[0].OpsTagged(TagTerms))
	assert.Empty(t, pages[0].OpsTagged(TagSalesman))

	geo := e.Geometry()
	last := pages[len(pages)-1]
	terms := last.OpsTagged(TagTerms)
	require.NotEmpty(t, terms)
	for _, op := range terms {
		assert.GreaterOrEqual(t, op.Y, geo.PageHeight-geo.BottomBand)
	}
	salesman := last.OpsTagged(TagSalesman)
	require.Len(t, salesman, 1)
	assert.Equal(t, geo.PageHeight-10, salesman[0].Y)
	assert.Equal(t, "Salesman: Omar", salesman[0].Text)
	assert.Equal(t, document.AlignRight, salesman[0].Align)
	assert.Equal(t, geo.PageWidth-geo.MarginRight, salesman[0].X+salesman[0].W)
}

func TestFooterPositionIndependentOfRowCount(t *testing.T) {
	e := newEngine(Options{})
	short, err := e.Layout(invoiceWithItems(t, 1, nil))
	require.NoError(t, err)
	long, err := e.Layout(invoiceWithItems(t, 12, nil))
	require.NoError(t, err)

	a := short[len(short)-1].OpsTagged(TagTerms)
	b := long[len(long)-1].OpsTagged(TagTerms)
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].Y, b[i].Y)
	}
}

func TestDueInSevenDays(t *testing.T) {
	e := newEngine(Options{})
	pages, err := e.Layout(invoiceWithItems(t, 2, nil))
	require.NoError(t, err)

	last := pages[len(pages)-1]
	assert.Equal(t, []string{
		"Terms and Conditions",
		"Payment is due in 7 days.",
		"Please make all payments payable to Fresh Harvest Trading.",
	}, texts(last.OpsTagged(TagTerms)))
	assert.Contains(t, texts(pages[0].OpsTagged(TagMeta)), "Due Date: 12/03/2024")
}

func TestTermsWithoutDueDate(t *testing.T) {
	e := newEngine(Options{})
	pages, err := e.Layout(invoiceWithItems(t, 2, func(inv *document.Invoice) { inv.DueDate = nil }))
	require.NoError(t, err)

	assert.Contains(t, texts(pages[0].OpsTagged(TagTerms)), "Payment terms to be discussed.")
	for _, line := range texts(pages[0].OpsTagged(TagMeta)) {
		assert.False(t, strings.HasPrefix(line, "Due Date"))
	}
}

func TestPaidInvoiceFooter(t *testing.T) {
	e := newEngine(Options{})
	paidAt := issueDate.AddDate(0, 0, 2)
	pages, err := e.Layout(invoiceWithItems(t, 2, func(inv *document.Invoice) {
		inv.Paid = true
		inv.PaidAt = &paidAt
		inv.PaymentMethod = document.PaymentCash
	}))
	require.NoError(t, err)

	assert.Equal(t, []string{"Payment received in full on 07/03/2024."}, texts(pages[0].OpsTagged(TagTerms)))
	meta := texts(pages[0].OpsTagged(TagMeta))
	assert.Contains(t, meta, "Payment Method: Cash")
	for _, line := range meta {
		assert.False(t, strings.HasPrefix(line, "Due Date"))
	}
}

func TestPaidWithoutPaidAtUsesIssueDate(t *testing.T) {
	e := newEngine(Options{})
	pages, err := e.Layout(invoiceWithItems(t, 1, func(inv *document.Invoice) { inv.Paid = true }))
	require.NoError(t, err)

	assert.Equal(t, []string{"Payment received in full on 05/03/2024."}, texts(pages[0].OpsTagged(TagTerms)))
}

func TestBillToOmitsEmptyLines(t *testing.T) {
	e := newEngine(Options{})

	pages, err := e.Layout(invoiceWithItems(t, 1, nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"Bill To", "Al Faisal & Co", "+971 4 555 0101"}, texts(pages[0].OpsTagged(TagBillTo)))

	pages, err = e.Layout(invoiceWithItems(t, 1, func(inv *document.Invoice) {
		inv.Customer = document.Party{Name: "Karim", CompanyName: "Karim Fruits", Address: "Dock 3", Phone: "555", Email: "k@example.com"}
	}))
	require.NoError(t, err)
	assert.Len(t, pages[0].OpsTagged(TagBillTo), 6)
}

func TestEmptyItemList(t *testing.T) {
	e := newEngine(Options{})
	pages, err := e.Layout(invoiceWithItems(t, 0, nil))
	require.NoError(t, err)

	require.Len(t, pages, 1)
	assert.Zero(t, pages[0].Rows)
	assert.Equal(t, []string{"Grand Total", "0.00"}, texts(pages[0].OpsTagged(TagTotals)))
	assert.Len(t, pages[0].OpsTagged(TagTableHeader), 6)
}

func TestMissingIssuerFieldsKeepPositions(t *testing.T) {
	e := newEngine(Options{})
	pages, err := e.Layout(invoiceWithItems(t, 1, func(inv *document.Invoice) { inv.Issuer = document.Issuer{} }))
	require.NoError(t, err)

	issuer := pages[0].OpsTagged(TagIssuer)
	require.Len(t, issuer, 4)
	for _, op := range issuer {
		assert.Empty(t, op.Text)
	}
}

func TestTableHeaderRepeatIsOptIn(t *testing.T) {
	pages, err := newEngine(Options{}).Layout(invoiceWithItems(t, 45, nil))
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Empty(t, pages[1].OpsTagged(TagTableHeader))

	e := newEngine(Options{RepeatTableHeader: true})
	pages, err = e.Layout(invoiceWithItems(t, 45, nil))
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.NotEmpty(t, pages[1].OpsTagged(TagTableHeader))
	assert.Equal(t, e.Geometry().MarginTop+e.Geometry().TableHeaderHeight, pages[1].BodyTop)
}

func TestBannerFallsBackToSolidFill(t *testing.T) {
	pages, err := newEngine(Options{}).Layout(invoiceWithItems(t, 1, nil))
	require.NoError(t, err)
	banner := pages[0].OpsTagged(TagBanner)
	require.Len(t, banner, 1)
	assert.Equal(t, OpRect, banner[0].Kind)
	assert.Equal(t, ColorDark, banner[0].Color)
	assert.Empty(t, pages[0].OpsTagged(TagLogo))

	pages, err = newEngine(Options{Assets: Assets{Banner: true, Logo: true}}).Layout(invoiceWithItems(t, 1, nil))
	require.NoError(t, err)
	banner = pages[0].OpsTagged(TagBanner)
	require.Len(t, banner, 1)
	assert.Equal(t, OpImage, banner[0].Kind)
	assert.Equal(t, AssetBanner, banner[0].Asset)
	assert.Len(t, pages[0].OpsTagged(TagLogo), 1)
}

func TestDisclaimerWrapsRightAligned(t *testing.T) {
	e := newEngine(Options{})
	disclaimer := "Goods once sold will not be taken back. Perishable produce must be inspected on delivery and any claims raised the same day."
	pages, err := e.Layout(invoiceWithItems(t, 1, func(inv *document.Invoice) { inv.Disclaimer = disclaimer }))
	require.NoError(t, err)

	ops := pages[0].OpsTagged(TagDisclaimer)
	require.Greater(t, len(ops), 1)
	geo := e.Geometry()
	for _, op := range ops {
		assert.Equal(t, document.AlignRight, op.Align)
		assert.LessOrEqual(t, FixedMeasurer{PerRune: 2}.TextWidth(op.Text, op.Font), geo.DisclaimerWidth)
		assert.GreaterOrEqual(t, op.Y, geo.PageHeight-geo.BottomBand)
	}
	assert.Equal(t, strings.Fields(disclaimer), strings.Fields(strings.Join(texts(ops), " ")))
}

func TestLongDescriptionIsTruncated(t *testing.T) {
	e := newEngine(Options{})
	long := strings.Repeat("Alphonso mango premium grade ", 5)
	pages, err := e.Layout(invoiceWithItems(t, 1, func(inv *document.Invoice) { inv.Items[0].Description = long }))
	require.NoError(t, err)

	rows := pages[0].OpsTagged(TagRow)
	require.GreaterOrEqual(t, len(rows), 2)
	assert.True(t, strings.HasSuffix(rows[1].Text, "..."))
}

func TestStatementLayout(t *testing.T) {
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	st, err := document.PrepareStatement(document.Statement{
		Customer:   document.Party{Name: "Karim"},
		Issuer:     document.Issuer{CompanyName: "Fresh Harvest Trading"},
		PeriodFrom: &from,
		PeriodTo:   &to,
		IssueDate:  to,
		Rows: []document.StatementRow{
			{Date: from, Activity: "Sale INV-0001", Amount: decimal.NewFromInt(100), Received: decimal.NewFromInt(40)},
		},
	})
	require.NoError(t, err)

	pages, err := newEngine(Options{}).Layout(document.StatementVariant(st))
	require.NoError(t, err)
	require.Len(t, pages, 1)

	assert.Equal(t, []string{"STATEMENT"}, texts(pages[0].OpsTagged(TagTitle)))
	assert.Contains(t, texts(pages[0].OpsTagged(TagMeta)), "Period: 01/03/2024 to 31/03/2024")
	assert.Equal(t, []string{"Total Amount", "100.00", "Total Received", "40.00", "Balance", "60.00"}, texts(pages[0].OpsTagged(TagTotals)))
	assert.Contains(t, texts(pages[0].OpsTagged(TagTerms)), "Balance due: 60.00")
	assert.Equal(t, 1, pages[0].Rows)
}

func TestLayoutRejectsEmptyVariant(t *testing.T) {
	_, err := newEngine(Options{}).Layout(document.Variant{Kind: document.KindInvoice})
	assert.ErrorIs(t, err, ErrEmptyVariant)
}

func TestWrap(t *testing.T) {
	m := FixedMeasurer{PerRune: 1}
	lines := Wrap(m, "aaa bbb ccc", Font{Size: 10}, 7)
	assert.Equal(t, []string{"aaa bbb", "ccc"}, lines)
	assert.Empty(t, Wrap(m, "   ", Font{Size: 10}, 7))
}
