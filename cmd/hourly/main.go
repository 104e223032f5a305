package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/christopherklint97/hourly/internal/calendar"
	"github.com/christopherklint97/hourly/internal/config"
	"github.com/christopherklint97/hourly/internal/entry"
	"github.com/christopherklint97/hourly/internal/invoice"
	"github.com/christopherklint97/hourly/internal/notify"
	"github.com/christopherklint97/hourly/internal/remote"
	"github.com/christopherklint97/hourly/internal/store"
	"github.com/christopherklint97/hourly/internal/timecalc"
	"github.com/christopherklint97/hourly/internal/tracker"
	"github.com/christopherklint97/hourly/internal/tui"
)

var rootCmd = &cobra.Command{
	Use:   "hourly",
	Short: "Track billable time entries and build invoices",
	Long:  "hourly records time entries in a remote page-data store, keeps them in a selectable table, and turns a selection into an invoice.",
	RunE:  runTUI,
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Browse and edit entries interactively (default)",
	RunE:  runTUI,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the entries from the last sync",
	RunE:  runList,
}

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a time entry",
	RunE:  runAdd,
}

var updateCmd = &cobra.Command{
	Use:   "update ID",
	Short: "Update a time entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runUpdate,
}

var deleteCmd = &cobra.Command{
	Use:   "delete ID...",
	Short: "Delete one or more time entries",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDelete,
}

var invoiceCmd = &cobra.Command{
	Use:   "invoice",
	Short: "Build an invoice from entries",
	RunE:  runInvoice,
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Create entries from calendar events",
	RunE:  runImport,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent sync actions",
	RunE:  runHistory,
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print JSON Schemas for the remote payloads",
	RunE:  runSchema,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Open config file in your editor",
	RunE:  runConfig,
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Write debug output to the log file")

	for _, c := range []*cobra.Command{addCmd, updateCmd} {
		c.Flags().String("date", "", "Entry date, YYYY-MM-DD or e.g. \"yesterday\"")
		c.Flags().String("start", "", "Start time, HH:MM")
		c.Flags().String("end", "", "End time, HH:MM")
		c.Flags().String("desc", "", "Description")
	}

	deleteCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")

	invoiceCmd.Flags().StringSlice("ids", nil, "Entry ids to invoice")
	invoiceCmd.Flags().Bool("all", false, "Invoice every entry")
	invoiceCmd.Flags().String("html", "", "Write a printable HTML invoice to this file")

	importCmd.Flags().String("date", "", "Day to import, defaults to today")
	importCmd.Flags().String("source", "", "ICS URL or file, overrides calendar.source")
	importCmd.Flags().Bool("submit", false, "Submit every event without asking")

	historyCmd.Flags().Int("limit", 20, "Number of records to show")

	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(invoiceCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app holds what every command that touches entries needs.
type app struct {
	cfg     *config.Config
	db      *store.DB
	tracker *tracker.Tracker
	notices *notify.Recorder
	logger  *slog.Logger
	logFile *os.File
}

func (a *app) Close() {
	a.db.Close()
	if a.logFile != nil {
		a.logFile.Close()
	}
}

func openApp(cmd *cobra.Command, requireRemote bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if requireRemote {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	logger, logFile, err := newLogger(verbose)
	if err != nil {
		return nil, err
	}

	dbPath, err := config.DataPath()
	if err != nil {
		return nil, err
	}
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	notices := &notify.Recorder{}
	notifier := notify.Multi{notices}
	if cfg.Notifications.Enabled {
		notifier = append(notifier, notify.NewDesktop(logger))
	}

	tr := tracker.New(tracker.Deps{
		Client:   remote.NewClient(cfg.RemoteOptions(), logger),
		Builder:  invoice.NewBuilder(cfg.InvoiceOptions(), logger),
		Notifier: notifier,
		History:  db,
		Logger:   logger,
	})

	payload, err := db.SeedPayload()
	if err != nil {
		logger.Warn("reading cached entries failed", "error", err)
	} else if payload != nil {
		if err := tr.Seed(payload); err != nil {
			logger.Warn("cached entries are unreadable", "error", err)
		}
	}

	return &app{cfg: cfg, db: db, tracker: tr, notices: notices, logger: logger, logFile: logFile}, nil
}

func newLogger(verbose bool) (*slog.Logger, *os.File, error) {
	if err := config.EnsureConfigDir(); err != nil {
		return nil, nil, fmt.Errorf("creating config directory: %w", err)
	}
	path, err := config.LogPath()
	if err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level})), f, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runTUI(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.Close()

	model := tui.NewApp(a.tracker, tui.Options{
		CalendarSource: a.cfg.Calendar.Source,
		Notices:        a.notices,
	})
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	printEntries(os.Stdout, a.tracker.Entries().List())
	return nil
}

func printEntries(w io.Writer, entries []entry.TimeEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No entries.")
		return
	}

	rows := make([][]string, 0, len(entries))
	totalMinutes := 0
	for _, e := range entries {
		rows = append(rows, []string{e.ID, e.Date, e.StartTime, e.EndTime, e.DurationText(), e.Description})
		if d, err := e.Duration(); err == nil {
			totalMinutes += d.TotalMinutes()
		}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "Date", "Start", "End", "Duration", "Description").
		Rows(rows...)
	fmt.Fprintln(w, t.String())
	fmt.Fprintf(w, "\nTotal: %s (%d entries)\n", timecalc.FormatMinutes(totalMinutes), len(entries))
}

// fieldsFromFlags overlays the flags that were set onto base.
func fieldsFromFlags(cmd *cobra.Command, base entry.Fields) (entry.Fields, error) {
	f := base
	if cmd.Flags().Changed("date") {
		v, _ := cmd.Flags().GetString("date")
		date, err := entry.ParseDate(v, time.Now())
		if err != nil {
			return f, err
		}
		f.Date = date
	}
	if cmd.Flags().Changed("start") {
		f.StartTime, _ = cmd.Flags().GetString("start")
	}
	if cmd.Flags().Changed("end") {
		f.EndTime, _ = cmd.Flags().GetString("end")
	}
	if cmd.Flags().Changed("desc") {
		f.Description, _ = cmd.Flags().GetString("desc")
	}
	return f, nil
}

func runAdd(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.Close()

	f, err := fieldsFromFlags(cmd, entry.Fields{Date: time.Now().Format(entry.DateLayout)})
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	entries, err := a.tracker.Create(ctx, f)
	if err != nil {
		return explain(err)
	}

	fmt.Printf("Logged: %s %s-%s (%s) %s\n", f.Date, f.StartTime, f.EndTime, entry.Draft(f).DurationText(), f.Description)
	fmt.Printf("%d entries on record.\n", len(entries))
	return nil
}

func runUpdate(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.Close()

	id := args[0]
	current, ok := a.tracker.Entries().Get(id)
	if !ok {
		return fmt.Errorf("no entry with id %s, run 'hourly list' to see ids", id)
	}

	f, err := fieldsFromFlags(cmd, current.Fields())
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	if _, err := a.tracker.Update(ctx, id, f); err != nil {
		return explain(err)
	}

	fmt.Printf("Updated %s: %s %s-%s (%s) %s\n", id, f.Date, f.StartTime, f.EndTime, entry.Draft(f).DurationText(), f.Description)
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	yes, _ := cmd.Flags().GetBool("yes")

	a, err := openApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.Close()

	if !yes {
		prompt := fmt.Sprintf("Delete %d entries?", len(args))
		if len(args) == 1 {
			prompt = fmt.Sprintf("Delete entry %s?", args[0])
		}
		if !confirm(os.Stdin, os.Stdout, prompt) {
			fmt.Println("Nothing deleted.")
			return nil
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	if len(args) == 1 {
		if err := a.tracker.Delete(ctx, args[0]); err != nil {
			return explain(err)
		}
		fmt.Printf("Deleted %s\n", args[0])
		return nil
	}

	entries := a.tracker.Entries()
	entries.SelectAll(false)
	for _, id := range args {
		if !entries.SetSelected(id, true) {
			fmt.Printf("Skipping unknown id %s\n", id)
		}
	}

	result, err := a.tracker.DeleteSelected(ctx)
	if err != nil {
		return explain(err)
	}

	fmt.Printf("Deleted %d entries\n", len(result.Deleted))
	for id, err := range result.Failed {
		fmt.Printf("  %s: %v\n", id, err)
	}
	if len(result.Failed) > 0 {
		return fmt.Errorf("%d deletes failed", len(result.Failed))
	}
	return nil
}

func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N] ", prompt)
	line, _ := bufio.NewReader(in).ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func runInvoice(cmd *cobra.Command, args []string) error {
	ids, _ := cmd.Flags().GetStringSlice("ids")
	all, _ := cmd.Flags().GetBool("all")
	htmlPath, _ := cmd.Flags().GetString("html")

	a, err := openApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	entries := a.tracker.Entries()
	if all {
		entries.SelectAll(true)
	}
	for _, id := range ids {
		if !entries.SetSelected(id, true) {
			return fmt.Errorf("no entry with id %s", id)
		}
	}

	doc, err := a.tracker.Invoice()
	if err != nil {
		return explain(err)
	}

	if htmlPath == "" {
		fmt.Print(invoice.RenderText(doc))
		return nil
	}

	f, err := os.Create(htmlPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", htmlPath, err)
	}
	defer f.Close()

	if err := invoice.WriteHTML(f, doc); err != nil {
		return err
	}
	fmt.Printf("Invoice written to %s (%s, due %s)\n", htmlPath, doc.SubtotalText(), doc.DueDateText())
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	dateFlag, _ := cmd.Flags().GetString("date")
	source, _ := cmd.Flags().GetString("source")
	submitAll, _ := cmd.Flags().GetBool("submit")

	a, err := openApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.Close()

	if source == "" {
		source = a.cfg.Calendar.Source
	}
	if source == "" {
		return fmt.Errorf("no calendar configured, set calendar.source or pass --source")
	}

	date, err := entry.ParseDate(dateFlag, time.Now())
	if err != nil {
		return err
	}
	day, err := time.ParseInLocation(entry.DateLayout, date, time.Local)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	start, end := calendar.DayWindow(day)
	events, err := calendar.Fetch(ctx, source, start, end)
	if err != nil {
		return err
	}
	drafts := calendar.Drafts(events, day)
	if len(drafts) == 0 {
		fmt.Printf("No calendar events on %s.\n", date)
		return nil
	}

	if !submitAll {
		picker := tui.NewDraftPickerApp(drafts)
		if _, err := tea.NewProgram(picker).Run(); err != nil {
			return fmt.Errorf("running picker: %w", err)
		}
		result := picker.GetResult()
		if result == nil || result.Canceled {
			fmt.Println("Import canceled.")
			return nil
		}
		drafts = result.Drafts
	}

	failed := 0
	for _, f := range drafts {
		if _, err := a.tracker.Create(ctx, f); err != nil {
			fmt.Printf("  failed: %s-%s %s: %v\n", f.StartTime, f.EndTime, f.Description, err)
			failed++
			continue
		}
		fmt.Printf("  logged: %s-%s %s\n", f.StartTime, f.EndTime, f.Description)
	}

	fmt.Printf("\nImported %d of %d events.\n", len(drafts)-failed, len(drafts))
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	dbPath, err := config.DataPath()
	if err != nil {
		return err
	}
	db, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	records, err := db.RecentSyncs(limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No sync history yet.")
		return nil
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.Op,
			r.EntryID,
			r.Status,
			r.Error,
		})
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("When", "Op", "Entry", "Status", "Error").
		Rows(rows...)
	fmt.Println(t.String())
	return nil
}

func runSchema(cmd *cobra.Command, args []string) error {
	out, err := json.MarshalIndent(remote.Schemas(), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding schemas: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func runConfig(cmd *cobra.Command, args []string) error {
	if err := config.EnsureConfigDir(); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath, err := config.ConfigPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := config.WriteDefault(configPath); err != nil {
			return fmt.Errorf("writing default config: %w", err)
		}
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	fmt.Printf("Opening %s with %s...\n", configPath, editor)

	proc := os.ProcAttr{
		Files: []*os.File{os.Stdin, os.Stdout, os.Stderr},
	}
	process, err := os.StartProcess(editor, []string{editor, configPath}, &proc)
	if err != nil {
		fmt.Printf("Could not open editor. Config file is at: %s\n", configPath)
		return nil
	}
	_, err = process.Wait()
	return err
}

// explain turns tracker errors into messages for the terminal.
func explain(err error) error {
	var verr *entry.ValidationError
	var serr *remote.SyncError
	switch {
	case errors.As(err, &verr):
		return fmt.Errorf("invalid %s: %s", verr.Field, verr.Reason)
	case errors.Is(err, invoice.ErrEmptySelection):
		return fmt.Errorf("nothing was selected")
	case errors.As(err, &serr) && serr.StatusCode >= 300:
		return fmt.Errorf("remote store rejected %s (status %d)", serr.Op, serr.StatusCode)
	}
	return err
}
