package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/christopherklint97/hourly/internal/calendar"
	"github.com/christopherklint97/hourly/internal/entry"
	"github.com/christopherklint97/hourly/internal/invoice"
	"github.com/christopherklint97/hourly/internal/notify"
	"github.com/christopherklint97/hourly/internal/tracker"
)

const requestTimeout = 60 * time.Second

type viewState int

const (
	listView viewState = iota
	loadingView
	editView
	confirmDeleteView
	batchResultView
	invoiceView
	importView
)

// outcomeMsg is the result of dispatching ev.
type outcomeMsg struct {
	ev  tracker.Event
	out tracker.Outcome
	err error
}

type draftsMsg struct {
	drafts []entry.Fields
	err    error
}

type importDoneMsg struct {
	created int
	failed  int
}

type htmlWrittenMsg struct {
	path string
	err  error
}

type Options struct {
	// CalendarSource is an ICS URL or file; empty disables import.
	CalendarSource string
	// Notices receives the tracker's notices so they can be shown inline.
	Notices *notify.Recorder
	Now     func() time.Time
}

// App is the Bubbletea model for browsing and editing entries.
type App struct {
	state   viewState
	tracker *tracker.Tracker
	opts    Options

	table   table.Model
	entries []entry.TimeEntry
	spinner spinner.Model
	loading string

	edit     editModel
	picker   draftPickerModel
	document *invoice.Document
	batch    *tracker.BatchResult

	pendingDelete string // entry id, or "" for the whole selection
	status        string
	statusErr     bool
}

func NewApp(t *tracker.Tracker, opts Options) *App {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := spinner.New()
	s.Spinner = spinner.Dot

	tbl := table.New(
		table.WithColumns([]table.Column{
			{Title: " ", Width: 3},
			{Title: "Date", Width: 10},
			{Title: "Start", Width: 5},
			{Title: "End", Width: 5},
			{Title: "Duration", Width: 8},
			{Title: "Description", Width: 40},
		}),
		table.WithFocused(true),
		table.WithHeight(15),
	)
	tbl.SetStyles(tableStyles())

	a := &App{
		state:   listView,
		tracker: t,
		opts:    opts,
		table:   tbl,
		spinner: s,
	}
	a.setEntries(t.Entries().List())
	return a
}

func (a *App) Init() tea.Cmd {
	return a.spinner.Tick
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.table.SetHeight(max(5, msg.Height-10))
		return a, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
	case outcomeMsg:
		return a.handleOutcome(msg)
	case draftsMsg:
		return a.handleDrafts(msg)
	case importDoneMsg:
		a.setEntries(a.tracker.Entries().List())
		a.state = listView
		a.setStatus(fmt.Sprintf("Imported %d of %d events", msg.created, msg.created+msg.failed), msg.failed > 0)
		return a, nil
	case htmlWrittenMsg:
		if msg.err != nil {
			a.setStatus(msg.err.Error(), true)
		} else {
			a.setStatus("Invoice written to "+msg.path, false)
		}
		return a, nil
	}

	switch a.state {
	case listView:
		return a.updateList(msg)
	case loadingView:
		return a.updateLoading(msg)
	case editView:
		return a.updateEdit(msg)
	case confirmDeleteView:
		return a.updateConfirmDelete(msg)
	case batchResultView:
		if _, ok := msg.(tea.KeyMsg); ok {
			a.state = listView
		}
		return a, nil
	case invoiceView:
		return a.updateInvoice(msg)
	case importView:
		return a.updateImport(msg)
	}

	return a, nil
}

func (a *App) View() string {
	switch a.state {
	case listView:
		return a.listView()
	case loadingView:
		return a.spinner.View() + " " + a.loading
	case editView:
		return a.edit.View()
	case confirmDeleteView:
		return a.confirmDeleteView()
	case batchResultView:
		return a.batchResultView()
	case invoiceView:
		return boxStyle.Render(invoice.RenderText(a.document)) + "\n" +
			a.statusLine() +
			helpStyle.Render("w: write HTML • Esc: back")
	case importView:
		return a.picker.View()
	}
	return ""
}

func (a *App) listView() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("hourly"))
	sb.WriteString("\n")

	if len(a.entries) == 0 {
		sb.WriteString(dimStyle.Render("No entries yet. Press n to add one."))
		sb.WriteString("\n")
	} else {
		selected := len(a.tracker.Entries().Selected())
		sb.WriteString(subtitleStyle.Render(fmt.Sprintf("%d entries, %d selected", len(a.entries), selected)))
		sb.WriteString("\n")
		sb.WriteString(a.table.View())
		sb.WriteString("\n")
	}

	sb.WriteString(a.statusLine())
	help := "n: new • e: edit • d: delete • space: select • a: select all • D: delete selected • i: invoice"
	if a.opts.CalendarSource != "" {
		help += " • c: import calendar"
	}
	sb.WriteString(helpStyle.Render(help + " • q: quit"))
	return sb.String()
}

func (a *App) statusLine() string {
	if a.status == "" {
		return ""
	}
	if a.statusErr {
		return errorStyle.Render(a.status) + "\n"
	}
	return successStyle.Render(a.status) + "\n"
}

func (a *App) setStatus(text string, isErr bool) {
	a.status = text
	a.statusErr = isErr
}

func (a *App) setEntries(list []entry.TimeEntry) {
	a.entries = list
	rows := make([]table.Row, 0, len(list))
	for _, e := range list {
		check := "[ ]"
		if e.Selected {
			check = "[x]"
		}
		rows = append(rows, table.Row{check, e.Date, e.StartTime, e.EndTime, e.DurationText(), e.Description})
	}
	a.table.SetRows(rows)
	if c := a.table.Cursor(); c >= len(rows) {
		a.table.SetCursor(max(0, len(rows)-1))
	}
}

func (a *App) current() (entry.TimeEntry, bool) {
	c := a.table.Cursor()
	if c < 0 || c >= len(a.entries) {
		return entry.TimeEntry{}, false
	}
	return a.entries[c], true
}

func (a *App) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		a.table, cmd = a.table.Update(msg)
		return a, cmd
	}

	switch keyMsg.String() {
	case "q":
		return a, tea.Quit
	case "n":
		a.edit = newEditModel("", entry.Fields{Date: a.opts.Now().Format(entry.DateLayout)}, a.opts.Now)
		a.state = editView
		return a, a.edit.inputs[formDate].Focus()
	case "e", "enter":
		if e, ok := a.current(); ok {
			a.edit = newEditModel(e.ID, e.Fields(), a.opts.Now)
			a.edit.duration = e.DurationText()
			a.state = editView
			return a, a.edit.inputs[formDate].Focus()
		}
		return a, nil
	case " ", "x":
		if e, ok := a.current(); ok {
			return a, a.dispatch(tracker.Event{Action: tracker.ActionSelect, ID: e.ID, Selected: !e.Selected})
		}
		return a, nil
	case "a":
		all := len(a.entries) > 0 && len(a.tracker.Entries().Selected()) == len(a.entries)
		return a, a.dispatch(tracker.Event{Action: tracker.ActionSelectAll, Selected: !all})
	case "d":
		if e, ok := a.current(); ok {
			a.pendingDelete = e.ID
			a.state = confirmDeleteView
		}
		return a, nil
	case "D":
		if len(a.tracker.Entries().Selected()) == 0 {
			return a, a.dispatch(tracker.Event{Action: tracker.ActionDeleteSelected})
		}
		a.pendingDelete = ""
		a.state = confirmDeleteView
		return a, nil
	case "i":
		return a, a.dispatch(tracker.Event{Action: tracker.ActionInvoice})
	case "c":
		if a.opts.CalendarSource == "" {
			return a, nil
		}
		return a, a.startLoading("Reading calendar...", a.fetchDrafts())
	}

	var cmd tea.Cmd
	a.table, cmd = a.table.Update(msg)
	return a, cmd
}

func (a *App) updateLoading(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	a.spinner, cmd = a.spinner.Update(msg)
	return a, cmd
}

func (a *App) updateEdit(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			a.state = listView
			return a, nil
		case "enter":
			return a.submitEdit()
		}
	}

	var cmd tea.Cmd
	var changed bool
	a.edit, cmd, changed = a.edit.Update(msg)
	if changed {
		out, _ := a.tracker.Dispatch(context.Background(), tracker.Event{
			Action: tracker.ActionFieldsChanged,
			Fields: a.edit.rawFields(),
		})
		a.edit.duration = out.Duration
	}
	return a, cmd
}

func (a *App) submitEdit() (tea.Model, tea.Cmd) {
	f, err := a.edit.Fields()
	if err == nil {
		err = entry.Validate(f)
	}
	var verr *entry.ValidationError
	if errors.As(err, &verr) {
		return a, a.edit.showError(verr)
	}

	ev := tracker.Event{Action: tracker.ActionCreate, Fields: f}
	label := "Saving entry..."
	if !a.edit.isNew() {
		ev = tracker.Event{Action: tracker.ActionUpdate, ID: a.edit.id, Fields: f}
		label = "Updating entry..."
	}
	return a, a.startLoading(label, a.dispatch(ev))
}

func (a *App) updateConfirmDelete(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return a, nil
	}
	switch keyMsg.String() {
	case "y", "Y":
		if a.pendingDelete == "" {
			return a, a.startLoading("Deleting selected entries...", a.dispatch(tracker.Event{Action: tracker.ActionDeleteSelected}))
		}
		return a, a.startLoading("Deleting entry...", a.dispatch(tracker.Event{Action: tracker.ActionDelete, ID: a.pendingDelete}))
	case "n", "N", "esc", "q":
		a.state = listView
	}
	return a, nil
}

func (a *App) confirmDeleteView() string {
	var prompt string
	if a.pendingDelete == "" {
		prompt = fmt.Sprintf("Delete %d selected entries?", len(a.tracker.Entries().Selected()))
	} else {
		e, _ := a.tracker.Entries().Get(a.pendingDelete)
		prompt = fmt.Sprintf("Delete the entry on %s %s-%s?", e.Date, e.StartTime, e.EndTime)
	}
	return boxStyle.Render(warningStyle.Render(prompt) + "\n" + helpStyle.Render("y: delete • n: cancel"))
}

func (a *App) updateInvoice(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return a, nil
	}
	switch keyMsg.String() {
	case "esc", "q":
		a.state = listView
		a.status = ""
	case "w":
		return a, a.writeHTML(a.document)
	}
	return a, nil
}

func (a *App) updateImport(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "esc" {
		a.state = listView
		return a, nil
	}

	var cmd tea.Cmd
	a.picker, cmd = a.picker.Update(msg)
	switch {
	case a.picker.canceled:
		a.state = listView
	case a.picker.done:
		drafts := a.picker.Result().Drafts
		return a, a.startLoading(fmt.Sprintf("Submitting %d entries...", len(drafts)), a.submitDrafts(drafts))
	}
	return a, cmd
}

func (a *App) handleOutcome(msg outcomeMsg) (tea.Model, tea.Cmd) {
	var notice string
	if a.opts.Notices != nil {
		notice = a.opts.Notices.Take()
	}
	errText := notice
	if msg.err != nil && errText == "" {
		errText = msg.err.Error()
	}

	switch msg.ev.Action {
	case tracker.ActionCreate, tracker.ActionUpdate:
		if msg.err != nil {
			a.state = editView
			var verr *entry.ValidationError
			if errors.As(msg.err, &verr) {
				return a, a.edit.showError(verr)
			}
			a.edit.errMsg = errText
			return a, nil
		}
		a.setEntries(msg.out.Entries)
		a.state = listView
		a.setStatus("Entry saved", false)

	case tracker.ActionDelete:
		a.state = listView
		if msg.err != nil {
			a.setStatus(errText, true)
			return a, nil
		}
		a.setEntries(msg.out.Entries)
		a.setStatus("Entry deleted", false)

	case tracker.ActionDeleteSelected:
		if msg.err != nil {
			a.state = listView
			a.setStatus(errText, true)
			return a, nil
		}
		a.setEntries(msg.out.Entries)
		a.batch = msg.out.Batch
		a.state = batchResultView

	case tracker.ActionSelect, tracker.ActionSelectAll:
		a.setEntries(msg.out.Entries)

	case tracker.ActionInvoice:
		if msg.err != nil {
			a.setStatus(errText, true)
			return a, nil
		}
		a.document = msg.out.Document
		a.status = ""
		a.state = invoiceView
	}
	return a, nil
}

func (a *App) handleDrafts(msg draftsMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		a.state = listView
		a.setStatus(msg.err.Error(), true)
		return a, nil
	}
	if len(msg.drafts) == 0 {
		a.state = listView
		a.setStatus("No calendar events today", false)
		return a, nil
	}
	a.picker = newDraftPicker(msg.drafts)
	a.state = importView
	return a, a.picker.Init()
}

func (a *App) startLoading(label string, cmd tea.Cmd) tea.Cmd {
	a.loading = label
	a.state = loadingView
	return tea.Batch(a.spinner.Tick, cmd)
}

func (a *App) dispatch(ev tracker.Event) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		out, err := a.tracker.Dispatch(ctx, ev)
		return outcomeMsg{ev: ev, out: out, err: err}
	}
}

func (a *App) fetchDrafts() tea.Cmd {
	source := a.opts.CalendarSource
	day := a.opts.Now()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		start, end := calendar.DayWindow(day)
		events, err := calendar.Fetch(ctx, source, start, end)
		if err != nil {
			return draftsMsg{err: err}
		}
		return draftsMsg{drafts: calendar.Drafts(events, day)}
	}
}

// submitDrafts creates one entry per draft, in order, and keeps going
// past failures.
func (a *App) submitDrafts(drafts []entry.Fields) tea.Cmd {
	return func() tea.Msg {
		var done importDoneMsg
		for _, f := range drafts {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			_, err := a.tracker.Dispatch(ctx, tracker.Event{Action: tracker.ActionCreate, Fields: f})
			cancel()
			if err != nil {
				done.failed++
				continue
			}
			done.created++
		}
		if a.opts.Notices != nil {
			a.opts.Notices.Take()
		}
		return done
	}
}

func (a *App) writeHTML(doc *invoice.Document) tea.Cmd {
	return func() tea.Msg {
		path := fmt.Sprintf("invoice-%s.html", doc.InvoiceDate.Format(entry.DateLayout))
		f, err := os.Create(path)
		if err != nil {
			return htmlWrittenMsg{err: fmt.Errorf("creating %s: %w", path, err)}
		}
		defer f.Close()

		if err := invoice.WriteHTML(f, doc); err != nil {
			return htmlWrittenMsg{err: err}
		}
		return htmlWrittenMsg{path: path}
	}
}
