package billing

import (
	"fmt"
	"time"

	"itineramio/internal/model"

	"github.com/shopspring/decimal"
)

// LineAmounts is the rounded money of one invoice line.
type LineAmounts struct {
	Base      decimal.Decimal // quantity × unit price
	Vat       decimal.Decimal
	Retention decimal.Decimal
}

// Line computes base, VAT and retention for a single invoice line.
func Line(qty, unitPrice, vatRate, retentionRate decimal.Decimal) LineAmounts {
	base := round2(qty.Mul(unitPrice))
	return LineAmounts{
		Base:      base,
		Vat:       pct(base, vatRate),
		Retention: pct(base, retentionRate),
	}
}

// InvoiceTotals holds the header totals of an invoice.
type InvoiceTotals struct {
	Subtotal        decimal.Decimal
	TotalVat        decimal.Decimal
	RetentionAmount decimal.Decimal
	Total           decimal.Decimal
}

// SumItems sets each item's Total and returns the invoice totals.
// total = subtotal + VAT − retention.
func SumItems(items []model.InvoiceItem) InvoiceTotals {
	var t InvoiceTotals
	for i := range items {
		it := &items[i]
		l := Line(it.Quantity, it.UnitPrice, it.VatRate, it.RetentionRate)
		it.Total = l.Base
		t.Subtotal = t.Subtotal.Add(l.Base)
		t.TotalVat = t.TotalVat.Add(l.Vat)
		t.RetentionAmount = t.RetentionAmount.Add(l.Retention)
	}
	t.Total = t.Subtotal.Add(t.TotalVat).Sub(t.RetentionAmount)
	return t
}

// FormatNumber renders an issued invoice number as PREFIX-YYYY-NNNNN.
func FormatNumber(prefix string, issued time.Time, n int64) string {
	return fmt.Sprintf("%s-%04d-%05d", prefix, issued.Year(), n)
}
