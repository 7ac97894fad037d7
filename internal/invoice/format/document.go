package format

import (
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const (
	displayDateLayout  = "02/01/2006"
	filenameDateLayout = "02-01-2006"

	maxCustomerRunes = 20
	fallbackCustomer = "Invoice"
)

var moneyPrinter = message.NewPrinter(language.English)

// Money renders an amount with grouping and exactly two decimals, e.g. 12,500.00.
func Money(amount decimal.Decimal) string {
	rounded := amount.Round(2)
	return moneyPrinter.Sprint(number.Decimal(rounded.InexactFloat64(), number.Scale(2)))
}

// Quantity renders a quantity without trailing zeros, grouping thousands.
func Quantity(q decimal.Decimal) string {
	text := q.String()
	scale := 0
	if idx := strings.IndexByte(text, '.'); idx >= 0 {
		scale = len(text) - idx - 1
	}
	return moneyPrinter.Sprint(number.Decimal(q.InexactFloat64(), number.Scale(scale)))
}

// DisplayDate renders a date as DD/MM/YYYY.
func DisplayDate(t time.Time) string {
	return t.Format(displayDateLayout)
}

// DaysBetween counts whole calendar days from one date to another.
func DaysBetween(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	start := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	end := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start).Hours() / 24)
}

// InvoiceFilename builds Invoice_<number>_<customer>_<DD-MM-YYYY>.pdf.
func InvoiceFilename(invoiceNumber, customerName string, issued time.Time) string {
	return "Invoice_" + invoiceNumber + "_" + SanitizeCustomer(customerName) + "_" + issued.Format(filenameDateLayout) + ".pdf"
}

// StatementFilename builds Statement_<customer>_<DD-MM-YYYY>.pdf.
func StatementFilename(customerName string, issued time.Time) string {
	return "Statement_" + SanitizeCustomer(customerName) + "_" + issued.Format(filenameDateLayout) + ".pdf"
}

// ReceiptFilename builds Receipt_<number>_<customer>_<DD-MM-YYYY>.pdf.
func ReceiptFilename(invoiceNumber, customerName string, paid time.Time) string {
	return "Receipt_" + invoiceNumber + "_" + SanitizeCustomer(customerName) + "_" + paid.Format(filenameDateLayout) + ".pdf"
}

// SanitizeCustomer maps whitespace, '-' and '_' to '_', drops every other rune
// outside [A-Za-z0-9] and keeps at most 20 runes. A result made only of
// separators falls back to Invoice.
func SanitizeCustomer(name string) string {
	var b strings.Builder
	count := 0
	for _, r := range name {
		if count == maxCustomerRunes {
			break
		}
		switch {
		case unicode.IsSpace(r) || r == '-' || r == '_':
			b.WriteRune('_')
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		default:
			continue
		}
		count++
	}
	if strings.Trim(b.String(), "_") == "" {
		return fallbackCustomer
	}
	return b.String()
}
