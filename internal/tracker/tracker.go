// Package tracker keeps the local entry collection consistent with the
// remote store. Mutations are applied only after the remote store has
// confirmed them; on failure local state is left exactly as it was.
package tracker

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/christopherklint97/hourly/internal/entry"
	"github.com/christopherklint97/hourly/internal/invoice"
	"github.com/christopherklint97/hourly/internal/notify"
	"github.com/christopherklint97/hourly/internal/remote"
	"github.com/christopherklint97/hourly/internal/store"
)

// Syncer is the remote store. *remote.Client implements it.
type Syncer interface {
	Create(ctx context.Context, f entry.Fields) (*remote.Collection, error)
	Update(ctx context.Context, id string, f entry.Fields) (*remote.Collection, error)
	Delete(ctx context.Context, id string) error
}

// History records sync outcomes and caches the last authoritative
// payload. *store.DB implements it.
type History interface {
	RecordSync(op, entryID string, err error) error
	SaveSeedPayload(payload []byte) error
}

type Deps struct {
	Entries  *store.Entries
	Client   Syncer
	Builder  *invoice.Builder
	Notifier notify.Notifier
	History  History
	Logger   *slog.Logger
}

type Tracker struct {
	entries  *store.Entries
	client   Syncer
	builder  *invoice.Builder
	notifier notify.Notifier
	history  History
	logger   *slog.Logger
}

func New(d Deps) *Tracker {
	if d.Logger == nil {
		d.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if d.Notifier == nil {
		d.Notifier = notify.Nop{}
	}
	if d.Entries == nil {
		d.Entries = store.NewEntries()
	}
	return &Tracker{
		entries:  d.Entries,
		client:   d.Client,
		builder:  d.Builder,
		notifier: d.Notifier,
		history:  d.History,
		logger:   d.Logger,
	}
}

// Entries exposes the collection views render from.
func (t *Tracker) Entries() *store.Entries {
	return t.entries
}

// Seed loads a pre-fetched collection, in the same shape as a create or
// update response.
func (t *Tracker) Seed(payload []byte) error {
	coll, err := remote.DecodeCollection(payload)
	if err != nil {
		return err
	}
	t.logSkipped("seed", coll)
	t.entries.ReplaceAll(coll.Entries)
	t.logger.Info("store seeded", "entries", len(coll.Entries), "skipped", len(coll.Skipped))
	return nil
}

// Create validates and submits a draft. On success the collection is
// replaced by the one the remote store returned.
func (t *Tracker) Create(ctx context.Context, f entry.Fields) ([]entry.TimeEntry, error) {
	if err := entry.Validate(f); err != nil {
		return nil, err
	}

	coll, err := t.client.Create(ctx, f)
	t.record("create", "", err)
	if err != nil {
		t.fail("Error submitting data", err)
		return nil, err
	}

	t.apply("create", coll)
	return t.entries.List(), nil
}

// Update validates and submits new fields for entry id.
func (t *Tracker) Update(ctx context.Context, id string, f entry.Fields) ([]entry.TimeEntry, error) {
	if err := entry.Validate(f); err != nil {
		return nil, err
	}

	coll, err := t.client.Update(ctx, id, f)
	t.record("update", id, err)
	if err != nil {
		t.fail("Error updating entry", err)
		return nil, err
	}

	t.apply("update", coll)
	return t.entries.List(), nil
}

// Delete removes entry id remotely and then locally. The delete response
// carries no collection, so only that one entry is removed.
func (t *Tracker) Delete(ctx context.Context, id string) error {
	err := t.client.Delete(ctx, id)
	t.record("delete", id, err)
	if err != nil {
		t.fail("Error deleting entry", err)
		return err
	}

	t.entries.Remove(id)
	t.cacheEntries()
	t.logger.Info("entry deleted", "id", id)
	return nil
}

// BatchResult reports a multi-entry delete. Failures do not undo the
// deletes that succeeded.
type BatchResult struct {
	Deleted []string
	Failed  map[string]error
}

// DeleteSelected deletes every selected entry with one request each, in
// store order.
func (t *Tracker) DeleteSelected(ctx context.Context) (*BatchResult, error) {
	selected := t.entries.Selected()
	if len(selected) == 0 {
		t.notice("Nothing was selected.")
		return nil, invoice.ErrEmptySelection
	}

	result := &BatchResult{Failed: map[string]error{}}
	for _, e := range selected {
		if err := t.Delete(ctx, e.ID); err != nil {
			result.Failed[e.ID] = err
			continue
		}
		result.Deleted = append(result.Deleted, e.ID)
	}

	t.logger.Info("batch delete finished", "deleted", len(result.Deleted), "failed", len(result.Failed))
	return result, nil
}

// Invoice builds an invoice document from the current selection.
func (t *Tracker) Invoice() (*invoice.Document, error) {
	doc, err := t.builder.Build(t.entries.List())
	if errors.Is(err, invoice.ErrEmptySelection) {
		t.notice("Nothing was selected.")
	}
	return doc, err
}

// Recompute is the duration text for edited but unsaved fields.
func Recompute(f entry.Fields) string {
	return entry.Draft(f).DurationText()
}

func (t *Tracker) apply(op string, coll *remote.Collection) {
	t.logSkipped(op, coll)
	t.entries.ReplaceAll(coll.Entries)

	if t.history != nil && len(coll.Raw) > 0 {
		if err := t.history.SaveSeedPayload(coll.Raw); err != nil {
			t.logger.Warn("caching collection failed", "error", err)
		}
	}
	t.logger.Info("store refreshed", "op", op, "entries", len(coll.Entries), "skipped", len(coll.Skipped))
}

// cacheEntries saves the current collection as the next seed, for
// mutations whose response carries no collection.
func (t *Tracker) cacheEntries() {
	if t.history == nil {
		return
	}
	payload, err := remote.EncodeCollection(t.entries.List())
	if err != nil {
		t.logger.Warn("encoding collection failed", "error", err)
		return
	}
	if err := t.history.SaveSeedPayload(payload); err != nil {
		t.logger.Warn("caching collection failed", "error", err)
	}
}

func (t *Tracker) logSkipped(op string, coll *remote.Collection) {
	for _, s := range coll.Skipped {
		t.logger.Warn("entry dropped from refresh", "op", op, "key", s.Key, "id", s.ID, "error", s.Err)
	}
}

func (t *Tracker) record(op, id string, err error) {
	if t.history == nil {
		return
	}
	if herr := t.history.RecordSync(op, id, err); herr != nil {
		t.logger.Warn("recording sync failed", "op", op, "error", herr)
	}
}

func (t *Tracker) fail(message string, err error) {
	t.logger.Error(message, "error", err)
	t.notice(message)
}

func (t *Tracker) notice(message string) {
	if err := t.notifier.Notify(message); err != nil {
		t.logger.Debug("notice not delivered", "message", message, "error", err)
	}
}
