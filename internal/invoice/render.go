package invoice

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var columns = []string{"Date", "Start Time", "End Time", "Duration", "Description"}

//go:embed invoice.html.tmpl
var htmlSource string

var htmlTemplate = template.Must(template.New("invoice").Parse(htmlSource))

// RenderText renders the document for a terminal.
func RenderText(doc *Document) string {
	rows := make([][]string, 0, len(doc.Lines)+1)
	for _, l := range doc.Lines {
		rows = append(rows, []string{l.Date, l.StartTime, l.EndTime, l.Duration, l.Description})
	}
	rows = append(rows, []string{doc.Footer.Label, "", "", doc.Footer.Value, ""})

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(columns...).
		Rows(rows...)

	var sb strings.Builder
	sb.WriteString("INVOICE\n")
	sb.WriteString(fmt.Sprintf("Date: %s\n", doc.InvoiceDateText()))
	sb.WriteString(fmt.Sprintf("Due Date: %s\n\n", doc.DueDateText()))
	if len(doc.IssuedTo) > 0 {
		sb.WriteString("Issued To: " + strings.Join(doc.IssuedTo, ", ") + "\n")
	}
	if len(doc.PayTo) > 0 {
		sb.WriteString("Pay To: " + strings.Join(doc.PayTo, ", ") + "\n")
	}
	sb.WriteString("\n")
	sb.WriteString(t.String())
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("Total: %s\n", doc.SubtotalText()))
	return sb.String()
}

// WriteHTML writes a printable HTML page for the document.
func WriteHTML(w io.Writer, doc *Document) error {
	if err := htmlTemplate.Execute(w, doc); err != nil {
		return fmt.Errorf("rendering invoice: %w", err)
	}
	return nil
}
