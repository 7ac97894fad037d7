package format

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatInvoiceNumberPadsToMinimumWidth(t *testing.T) {
	issued := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	cases := map[int64]string{
		1:     "INV-0001",
		43:    "INV-0043",
		9999:  "INV-9999",
		10000: "INV-10000",
	}
	for seq, want := range cases {
		got, err := FormatInvoiceNumber(DefaultInvoiceNumberTemplate, issued, seq)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestFormatInvoiceNumberRejectsBadInput(t *testing.T) {
	_, err := FormatInvoiceNumber("", time.Now(), 1)
	assert.Error(t, err)

	_, err = FormatInvoiceNumber(DefaultInvoiceNumberTemplate, time.Now(), 0)
	assert.Error(t, err)

	_, err = FormatInvoiceNumber("INV-{NOPE}", time.Now(), 1)
	assert.Error(t, err)
}

func TestParseInvoiceNumber(t *testing.T) {
	seq, ok := ParseInvoiceNumber("INV-0042")
	assert.True(t, ok)
	assert.Equal(t, int64(42), seq)

	seq, ok = ParseInvoiceNumber("INV-10000")
	assert.True(t, ok)
	assert.Equal(t, int64(10000), seq)

	for _, bad := range []string{"", "INV-42", "INV-00A1", "inv-0042", "XYZ", "INV-0042 ", "INV-99999999999999999999"} {
		_, ok := ParseInvoiceNumber(bad)
		assert.False(t, ok, bad)
	}
}

func TestMoney(t *testing.T) {
	assert.Equal(t, "0.00", Money(decimal.Zero))
	assert.Equal(t, "12,500.00", Money(decimal.NewFromInt(12500)))
	assert.Equal(t, "1,234.57", Money(decimal.RequireFromString("1234.567")))
	assert.Equal(t, "7.50", Money(decimal.RequireFromString("7.5")))
}

func TestQuantity(t *testing.T) {
	assert.Equal(t, "3", Quantity(decimal.NewFromInt(3)))
	assert.Equal(t, "2.5", Quantity(decimal.RequireFromString("2.500")))
	assert.Equal(t, "1,200", Quantity(decimal.NewFromInt(1200)))
}

func TestDisplayDateAndDaysBetween(t *testing.T) {
	issued := time.Date(2024, 3, 5, 23, 30, 0, 0, time.UTC)
	due := time.Date(2024, 3, 12, 1, 0, 0, 0, time.UTC)

	assert.Equal(t, "05/03/2024", DisplayDate(issued))
	assert.Equal(t, 7, DaysBetween(issued, due))
	assert.Equal(t, -7, DaysBetween(due, issued))
	assert.Equal(t, 0, DaysBetween(issued, issued))
}

func TestInvoiceFilename(t *testing.T) {
	issued := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "Invoice_INV-0007_Al_Faisal__Co_05-03-2024.pdf", InvoiceFilename("INV-0007", "Al Faisal & Co", issued))
	assert.Equal(t, "Invoice_INV-0001_Invoice_05-03-2024.pdf", InvoiceFilename("INV-0001", "!!!", issued))
	assert.Equal(t, "Invoice_INV-0007_Invoice_05-03-2024.pdf", InvoiceFilename("INV-0007", "   ", issued))
	assert.Equal(t, "Statement_Green_Grocer_05-03-2024.pdf", StatementFilename("Green-Grocer", issued))
	assert.Equal(t, "Receipt_INV-0002_Karim_05-03-2024.pdf", ReceiptFilename("INV-0002", "Karim", issued))
}

func TestSanitizeCustomer(t *testing.T) {
	assert.Equal(t, "Invoice", SanitizeCustomer(""))
	assert.Equal(t, "Invoice", SanitizeCustomer("&&&"))
	assert.Equal(t, "Cafe_Ole", SanitizeCustomer("Cafe Ole"))
	assert.Equal(t, "Caf_Ol", SanitizeCustomer("Café Olé"))
	assert.Equal(t, "ABCDEFGHIJKLMNOPQRST", SanitizeCustomer("ABCDEFGHIJKLMNOPQRSTUVWXYZ"))
	assert.Equal(t, "a_b_c", SanitizeCustomer("a-b_c"))
	assert.Equal(t, "Invoice", SanitizeCustomer("   "))
	assert.Equal(t, "Invoice", SanitizeCustomer(" - _ "))
	assert.Equal(t, "_Ali_", SanitizeCustomer(" Ali "))
}
