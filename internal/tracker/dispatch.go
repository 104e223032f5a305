package tracker

import (
	"context"
	"fmt"

	"github.com/christopherklint97/hourly/internal/entry"
	"github.com/christopherklint97/hourly/internal/invoice"
)

type Action string

const (
	ActionCreate         Action = "create"
	ActionUpdate         Action = "update"
	ActionDelete         Action = "delete"
	ActionDeleteSelected Action = "delete-selected"
	ActionSelect         Action = "select"
	ActionSelectAll      Action = "select-all"
	ActionInvoice        Action = "invoice"
	ActionFieldsChanged  Action = "fields-changed"
)

// Event is what a view emits. ID identifies the entry an action targets;
// Fields carries form input for create, update and fields-changed.
type Event struct {
	Action   Action
	ID       string
	Fields   entry.Fields
	Selected bool
}

// Outcome carries whatever an action produced.
type Outcome struct {
	Entries  []entry.TimeEntry
	Duration string
	Document *invoice.Document
	Batch    *BatchResult
}

// Dispatch routes an event to the matching operation.
func (t *Tracker) Dispatch(ctx context.Context, ev Event) (Outcome, error) {
	switch ev.Action {
	case ActionCreate:
		entries, err := t.Create(ctx, ev.Fields)
		return Outcome{Entries: entries}, err
	case ActionUpdate:
		entries, err := t.Update(ctx, ev.ID, ev.Fields)
		return Outcome{Entries: entries}, err
	case ActionDelete:
		if err := t.Delete(ctx, ev.ID); err != nil {
			return Outcome{}, err
		}
		return Outcome{Entries: t.entries.List()}, nil
	case ActionDeleteSelected:
		batch, err := t.DeleteSelected(ctx)
		return Outcome{Entries: t.entries.List(), Batch: batch}, err
	case ActionSelect:
		t.entries.SetSelected(ev.ID, ev.Selected)
		return Outcome{Entries: t.entries.List()}, nil
	case ActionSelectAll:
		t.entries.SelectAll(ev.Selected)
		return Outcome{Entries: t.entries.List()}, nil
	case ActionInvoice:
		doc, err := t.Invoice()
		return Outcome{Document: doc}, err
	case ActionFieldsChanged:
		return Outcome{Duration: Recompute(ev.Fields)}, nil
	default:
		return Outcome{}, fmt.Errorf("unknown action %q", ev.Action)
	}
}
