package invoice

import (
	"fmt"
	"time"

	"github.com/christopherklint97/hourly/internal/entry"
	"github.com/shopspring/decimal"
)

// Document is the invoice model handed to a renderer.
type Document struct {
	Title       string
	InvoiceDate time.Time
	DueDate     time.Time
	IssuedTo    []string
	PayTo       []string
	Currency    string

	Lines  []LineItem
	Footer FooterRow

	TotalMinutes int
	TotalHours   decimal.Decimal
	Rate         decimal.Decimal
	Subtotal     decimal.Decimal
}

// FooterRow is the total line under the item table.
type FooterRow struct {
	Label string
	Value string
}

// Heading is the page title, e.g. "2026-10-17 Invoice".
func (d *Document) Heading() string {
	return fmt.Sprintf("%s %s", d.InvoiceDate.Format(entry.DateLayout), d.Title)
}

func (d *Document) InvoiceDateText() string {
	return d.InvoiceDate.Format(entry.DateLayout)
}

func (d *Document) DueDateText() string {
	return d.DueDate.Format(entry.DateLayout)
}

// SubtotalText formats the amount due with its currency symbol.
func (d *Document) SubtotalText() string {
	return d.Currency + d.Subtotal.StringFixed(2)
}
