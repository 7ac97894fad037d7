package layout

import (
	"errors"
	"strconv"
	"strings"

	"github.com/smallbiznis/tradebook/internal/invoice/document"
	"github.com/smallbiznis/tradebook/internal/invoice/format"
)

var ErrEmptyVariant = errors.New("empty_document_variant")

// Assets reports which header images the backend can draw.
type Assets struct {
	Banner bool
	Logo   bool
}

type Options struct {
	// RepeatTableHeader redraws the column header on continuation pages.
	RepeatTableHeader bool
	Assets            Assets
}

var (
	fontTitle    = Font{Size: 20, Bold: true}
	fontIssuer   = Font{Size: 14, Bold: true}
	fontHeading  = Font{Size: 10, Bold: true}
	fontBody     = Font{Size: 9}
	fontSmall    = Font{Size: 8}
	fontTotal    = Font{Size: 11, Bold: true}
	fontSalesman = Font{Size: 9, Bold: true}
)

const (
	titleTop       = 45.0
	titleHeight    = 10.0
	blocksTop      = 60.0
	blocksGap      = 6.0
	metaWidth      = 80.0
	logoSize       = 25.0
	totalsRowStep  = 7.0
	totalsPadding  = 3.0
	footerInset    = 2.0
	salesmanOffset = 10.0
	disclaimerStep = 4.0
	ellipsis       = "..."
)

type Engine struct {
	geo     Geometry
	measure Measurer
	opts    Options
}

func New(geo Geometry, measure Measurer, opts Options) *Engine {
	return &Engine{geo: geo, measure: measure, opts: opts}
}

func (e *Engine) Geometry() Geometry {
	return e.geo
}

// Layout places every section of v and returns the pages in order.
// The footer is drawn on the last page only.
func (e *Engine) Layout(v document.Variant) ([]Page, error) {
	switch v.Kind {
	case document.KindInvoice:
		if v.Invoice == nil {
			return nil, ErrEmptyVariant
		}
	case document.KindStatement:
		if v.Statement == nil {
			return nil, ErrEmptyVariant
		}
	default:
		return nil, ErrEmptyVariant
	}

	c := NewCursor(e.geo)
	e.header(c, v)
	c.Y = blocksTop
	metaEnd := e.metadata(c, v)
	billEnd := e.billTo(c, v.Customer())
	c.Y = max(metaEnd, billEnd) + blocksGap

	columns := v.Columns()
	totals := totalsLines(v)
	e.tableHeader(c, columns)
	e.body(c, columns, v.Rows(), totalsHeight(totals))
	e.totals(c, totals)
	e.footer(c, v)

	return c.Pages(), nil
}

func (e *Engine) header(c *Cursor, v document.Variant) {
	g := e.geo
	if e.opts.Assets.Banner {
		c.Add(Op{Kind: OpImage, Tag: TagBanner, X: 0, Y: 0, W: g.PageWidth, H: g.HeaderHeight, Asset: AssetBanner})
	} else {
		c.Add(Op{Kind: OpRect, Tag: TagBanner, X: 0, Y: 0, W: g.PageWidth, H: g.HeaderHeight, Color: ColorDark})
	}

	issuer := v.Issuer()
	y := 10.0
	c.Add(e.text(TagIssuer, g.MarginLeft, y, 110, 7, issuer.CompanyName, fontIssuer, document.AlignLeft, ColorWhite))
	y += 8
	for _, line := range []string{issuer.Phone, issuer.Email, issuer.Address} {
		c.Add(e.text(TagIssuer, g.MarginLeft, y, 110, g.LineHeight, line, fontBody, document.AlignLeft, ColorWhite))
		y += g.LineHeight
	}

	if e.opts.Assets.Logo {
		c.Add(Op{
			Kind:  OpImage,
			Tag:   TagLogo,
			X:     g.PageWidth - g.MarginRight - logoSize,
			Y:     (g.HeaderHeight - logoSize) / 2,
			W:     logoSize,
			H:     logoSize,
			Asset: AssetLogo,
		})
	}

	c.Add(Op{Kind: OpText, Tag: TagTitle, X: 0, Y: titleTop, W: g.PageWidth, H: titleHeight, Text: v.Title(), Font: fontTitle, Align: document.AlignCenter, Color: ColorDark})
}

// metadata draws the right-aligned reference block and returns its bottom.
func (e *Engine) metadata(c *Cursor, v document.Variant) float64 {
	g := e.geo
	var lines []string
	switch v.Kind {
	case document.KindStatement:
		st := v.Statement
		lines = append(lines, "Statement Date: "+format.DisplayDate(st.IssueDate))
		if period := periodLabel(st); period != "" {
			lines = append(lines, period)
		}
	default:
		inv := v.Invoice
		lines = append(lines,
			"Invoice No: "+inv.InvoiceNumber,
			"Date: "+format.DisplayDate(inv.IssueDate),
		)
		if !inv.Paid && inv.DueDate != nil {
			lines = append(lines, "Due Date: "+format.DisplayDate(*inv.DueDate))
		}
		if inv.Paid && inv.PaymentMethod != "" {
			lines = append(lines, "Payment Method: "+string(inv.PaymentMethod))
		}
	}

	x := g.PageWidth - g.MarginRight - metaWidth
	y := c.Y
	for _, line := range lines {
		c.Add(e.text(TagMeta, x, y, metaWidth, g.LineHeight, line, fontBody, document.AlignRight, ColorText))
		y += g.LineHeight
	}
	return y
}

// billTo draws the customer block, omitting empty optional lines.
func (e *Engine) billTo(c *Cursor, p document.Party) float64 {
	g := e.geo
	width := g.ContentWidth() - metaWidth - blocksGap
	y := c.Y
	c.Add(e.text(TagBillTo, g.MarginLeft, y, width, g.LineHeight, "Bill To", fontHeading, document.AlignLeft, ColorMuted))
	y += g.LineHeight
	c.Add(e.text(TagBillTo, g.MarginLeft, y, width, g.LineHeight, p.Name, fontHeading, document.AlignLeft, ColorText))
	y += g.LineHeight
	for _, line := range []string{p.CompanyName, p.Address, p.Phone, p.Email} {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		c.Add(e.text(TagBillTo, g.MarginLeft, y, width, g.LineHeight, line, fontBody, document.AlignLeft, ColorText))
		y += g.LineHeight
	}
	return y
}

func (e *Engine) tableHeader(c *Cursor, columns []document.Column) {
	g := e.geo
	c.Add(Op{Kind: OpRect, Tag: TagTableHeader, X: g.MarginLeft, Y: c.Y, W: g.ContentWidth(), H: g.TableHeaderHeight, Color: ColorBand})
	x := g.MarginLeft
	for _, col := range columns {
		c.Add(e.text(TagTableHeader, x+1, c.Y, col.Width-2, g.TableHeaderHeight, col.Title, fontHeading, col.Align, ColorText))
		x += col.Width
	}
	c.Y += g.TableHeaderHeight
}

// body places rows at a fixed step. A row is drawn only when it leaves room
// for reserve above the footer band; otherwise a new page begins first.
func (e *Engine) body(c *Cursor, columns []document.Column, rows [][]string, reserve float64) {
	g := e.geo
	for _, row := range rows {
		if !c.Fits(g.RowStep + reserve) {
			c.NewPage()
			if e.opts.RepeatTableHeader {
				e.tableHeader(c, columns)
			}
		}

		page := c.current()
		if page.Rows == 0 {
			page.BodyTop = c.Y
		}
		page.Rows++

		x := g.MarginLeft
		for i, col := range columns {
			cell := ""
			if i < len(row) {
				cell = e.fit(row[i], fontBody, col.Width-2)
			}
			c.Add(e.text(TagRow, x+1, c.Y, col.Width-2, g.RowStep, cell, fontBody, col.Align, ColorText))
			x += col.Width
		}
		c.Add(Op{Kind: OpLine, Tag: TagRow, X: g.MarginLeft, Y: c.Y + g.RowStep, W: g.ContentWidth(), H: 0, Color: ColorSeparator})
		c.Y += g.RowStep
	}
}

func totalsLines(v document.Variant) [][2]string {
	if v.Kind == document.KindStatement {
		t := v.Statement.Totals
		return [][2]string{
			{"Total Amount", format.Money(t.Amount)},
			{"Total Received", format.Money(t.Received)},
			{"Balance", format.Money(t.Balance)},
		}
	}
	return [][2]string{{"Grand Total", format.Money(v.Invoice.GrandTotal)}}
}

func totalsHeight(lines [][2]string) float64 {
	return totalsPadding + float64(len(lines))*totalsRowStep
}

// totals follows the last row inside the room the body reserved for it.
func (e *Engine) totals(c *Cursor, lines [][2]string) {
	g := e.geo
	if !c.Fits(totalsHeight(lines)) {
		c.NewPage()
	}

	c.Y += totalsPadding
	labelX := g.PageWidth - g.MarginRight - metaWidth
	for i, line := range lines {
		font := fontBody
		if i == len(lines)-1 {
			font = fontTotal
		}
		c.Add(e.text(TagTotals, labelX, c.Y, metaWidth/2, totalsRowStep, line[0], font, document.AlignLeft, ColorText))
		c.Add(e.text(TagTotals, labelX+metaWidth/2, c.Y, metaWidth/2, totalsRowStep, line[1], font, document.AlignRight, ColorText))
		c.Y += totalsRowStep
	}
}

// footer anchors the terms, disclaimer and salesman to the page bottom.
func (e *Engine) footer(c *Cursor, v document.Variant) {
	g := e.geo
	top := g.PageHeight - g.BottomBand + footerInset
	termsWidth := g.ContentWidth() - g.DisclaimerWidth - blocksGap

	y := top
	for i, line := range termsLines(v) {
		font := fontBody
		if i == 0 {
			font = fontHeading
		}
		c.Add(e.text(TagTerms, g.MarginLeft, y, termsWidth, g.LineHeight, line, font, document.AlignLeft, ColorText))
		y += g.LineHeight + 1
	}

	salesmanY := g.PageHeight - salesmanOffset
	if disclaimer := strings.TrimSpace(v.Disclaimer()); disclaimer != "" {
		x := g.PageWidth - g.MarginRight - g.DisclaimerWidth
		maxLines := int((salesmanY - top) / disclaimerStep)
		lines := Wrap(e.measure, disclaimer, fontSmall, g.DisclaimerWidth)
		if maxLines > 0 && len(lines) > maxLines {
			lines = lines[:maxLines]
			lines[maxLines-1] = e.fit(lines[maxLines-1]+ellipsis, fontSmall, g.DisclaimerWidth)
		}
		dy := top
		for _, line := range lines {
			c.Add(e.text(TagDisclaimer, x, dy, g.DisclaimerWidth, disclaimerStep, line, fontSmall, document.AlignRight, ColorMuted))
			dy += disclaimerStep
		}
	}

	if name := strings.TrimSpace(v.SalesmanName()); name != "" {
		x := g.PageWidth - g.MarginRight - g.DisclaimerWidth
		c.Add(e.text(TagSalesman, x, salesmanY, g.DisclaimerWidth, g.LineHeight, "Salesman: "+name, fontSalesman, document.AlignRight, ColorText))
	}
}

func termsLines(v document.Variant) []string {
	if v.Kind == document.KindStatement {
		st := v.Statement
		return []string{
			"Account Summary",
			"Balance due: " + format.Money(st.Totals.Balance),
			"Please make all payments payable to " + st.Issuer.CompanyName + ".",
		}
	}

	inv := v.Invoice
	if inv.Paid {
		paidOn := inv.IssueDate
		if inv.PaidAt != nil {
			paidOn = *inv.PaidAt
		}
		return []string{"Payment received in full on " + format.DisplayDate(paidOn) + "."}
	}

	return []string{
		"Terms and Conditions",
		dueSentence(inv),
		"Please make all payments payable to " + inv.Issuer.CompanyName + ".",
	}
}

func dueSentence(inv *document.Invoice) string {
	if inv.DueDate == nil {
		return "Payment terms to be discussed."
	}
	days := format.DaysBetween(inv.IssueDate, *inv.DueDate)
	switch {
	case days <= 0:
		return "Payment is due on receipt."
	case days == 1:
		return "Payment is due in 1 day."
	default:
		return "Payment is due in " + strconv.Itoa(days) + " days."
	}
}

func periodLabel(st *document.Statement) string {
	switch {
	case st.PeriodFrom != nil && st.PeriodTo != nil:
		return "Period: " + format.DisplayDate(*st.PeriodFrom) + " to " + format.DisplayDate(*st.PeriodTo)
	case st.PeriodFrom != nil:
		return "From: " + format.DisplayDate(*st.PeriodFrom)
	case st.PeriodTo != nil:
		return "Up to: " + format.DisplayDate(*st.PeriodTo)
	default:
		return ""
	}
}

func (e *Engine) text(tag string, x, y, w, h float64, text string, font Font, align document.Align, color Color) Op {
	return Op{Kind: OpText, Tag: tag, X: x, Y: y, W: w, H: h, Text: text, Font: font, Align: align, Color: color}
}

// fit shortens text with an ellipsis until it fits width.
func (e *Engine) fit(text string, font Font, width float64) string {
	if e.measure.TextWidth(text, font) <= width {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := strings.TrimRight(string(runes), " ") + ellipsis
		if e.measure.TextWidth(candidate, font) <= width {
			return candidate
		}
	}
	return ""
}

// Wrap breaks text into lines no wider than width, splitting on spaces.
// A single word wider than width is kept on its own line.
func Wrap(m Measurer, text string, font Font, width float64) []string {
	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			continue
		}
		line := words[0]
		for _, word := range words[1:] {
			candidate := line + " " + word
			if m.TextWidth(candidate, font) <= width {
				line = candidate
				continue
			}
			lines = append(lines, line)
			line = word
		}
		lines = append(lines, line)
	}
	return lines
}
