// Package invoice turns a selection of time entries into billing totals
// and an invoice document. It performs no network calls.
package invoice

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/christopherklint97/hourly/internal/entry"
	"github.com/christopherklint97/hourly/internal/timecalc"
	"github.com/shopspring/decimal"
)

// ErrEmptySelection is returned when no entry is selected.
var ErrEmptySelection = errors.New("nothing was selected")

// DefaultDueDays is the payment term added to the invoice date.
const DefaultDueDays = 15

var minutesPerHour = decimal.NewFromInt(60)

// LineItem is one row of the invoice table. Duration is the displayed
// H:MM text the totals are computed from.
type LineItem struct {
	EntryID     string
	Date        string
	StartTime   string
	EndTime     string
	Duration    string
	Description string
}

// LineFor builds the invoice row for an entry.
func LineFor(e entry.TimeEntry) LineItem {
	return LineItem{
		EntryID:     e.ID,
		Date:        e.Date,
		StartTime:   e.StartTime,
		EndTime:     e.EndTime,
		Duration:    e.DurationText(),
		Description: e.Description,
	}
}

type Options struct {
	Rate     decimal.Decimal
	DueDays  int
	Title    string
	Currency string
	IssuedTo []string
	PayTo    []string
}

type Builder struct {
	opts   Options
	now    func() time.Time
	logger *slog.Logger
}

func NewBuilder(opts Options, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.DueDays <= 0 {
		opts.DueDays = DefaultDueDays
	}
	if opts.Title == "" {
		opts.Title = "Invoice"
	}
	if opts.Currency == "" {
		opts.Currency = "$"
	}
	return &Builder{opts: opts, now: time.Now, logger: logger}
}

// WithClock replaces the source of "today".
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// CollectSelected keeps the selected entries in store order.
func CollectSelected(entries []entry.TimeEntry) ([]entry.TimeEntry, error) {
	var selected []entry.TimeEntry
	for _, e := range entries {
		if e.Selected {
			selected = append(selected, e)
		}
	}
	if len(selected) == 0 {
		return nil, ErrEmptySelection
	}
	return selected, nil
}

// Aggregate sums the duration text of each line. Lines whose duration
// cannot be parsed are logged and left out of both the total and the
// returned lines.
func (b *Builder) Aggregate(lines []LineItem) (int, []LineItem) {
	total := 0
	kept := make([]LineItem, 0, len(lines))
	for _, line := range lines {
		mins, ok := timecalc.ParseText(line.Duration)
		if !ok {
			b.logger.Warn("invalid duration format, excluding from invoice", "entry_id", line.EntryID, "duration", line.Duration)
			continue
		}
		total += mins
		kept = append(kept, line)
	}
	return total, kept
}

// ToHours converts minutes to hours rounded half-up to two decimals.
func ToHours(totalMinutes int) decimal.Decimal {
	return decimal.NewFromInt(int64(totalMinutes)).Div(minutesPerHour).Round(2)
}

// ComputeSubtotal is rate * hours rounded to two decimals.
func ComputeSubtotal(totalHours, rate decimal.Decimal) decimal.Decimal {
	return rate.Mul(totalHours).Round(2)
}

// BuildDocument assembles the invoice for already aggregated lines.
func (b *Builder) BuildDocument(lines []LineItem, totalHours, subtotal decimal.Decimal) *Document {
	now := b.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	return &Document{
		Title:       b.opts.Title,
		InvoiceDate: today,
		DueDate:     today.AddDate(0, 0, b.opts.DueDays),
		IssuedTo:    b.opts.IssuedTo,
		PayTo:       b.opts.PayTo,
		Currency:    b.opts.Currency,
		Lines:       lines,
		Footer: FooterRow{
			Label: "Total Duration",
			Value: totalHours.StringFixed(2) + " hours",
		},
		TotalHours: totalHours,
		Rate:       b.opts.Rate,
		Subtotal:   subtotal,
	}
}

// Build runs the whole pipeline on a snapshot of entries.
func (b *Builder) Build(entries []entry.TimeEntry) (*Document, error) {
	selected, err := CollectSelected(entries)
	if err != nil {
		return nil, err
	}

	lines := make([]LineItem, 0, len(selected))
	for _, e := range selected {
		lines = append(lines, LineFor(e))
	}

	totalMinutes, kept := b.Aggregate(lines)
	totalHours := ToHours(totalMinutes)
	subtotal := ComputeSubtotal(totalHours, b.opts.Rate)

	doc := b.BuildDocument(kept, totalHours, subtotal)
	doc.TotalMinutes = totalMinutes

	b.logger.Info("invoice built", "lines", len(kept), "minutes", totalMinutes, "hours", totalHours.StringFixed(2), "subtotal", subtotal.StringFixed(2))
	return doc, nil
}
