package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/christopherklint97/hourly/internal/entry"
	"github.com/christopherklint97/hourly/internal/invoice"
	"github.com/christopherklint97/hourly/internal/notify"
	"github.com/christopherklint97/hourly/internal/remote"
	"github.com/christopherklint97/hourly/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSyncer struct {
	coll      *remote.Collection
	err       error
	deleteErr map[string]error
	calls     []string
}

func (f *fakeSyncer) Create(ctx context.Context, fields entry.Fields) (*remote.Collection, error) {
	f.calls = append(f.calls, "create")
	return f.coll, f.err
}

func (f *fakeSyncer) Update(ctx context.Context, id string, fields entry.Fields) (*remote.Collection, error) {
	f.calls = append(f.calls, "update "+id)
	return f.coll, f.err
}

func (f *fakeSyncer) Delete(ctx context.Context, id string) error {
	f.calls = append(f.calls, "delete "+id)
	if f.err != nil {
		return f.err
	}
	return f.deleteErr[id]
}

type fakeHistory struct {
	records []string
	seed    []byte
}

func (h *fakeHistory) RecordSync(op, entryID string, err error) error {
	status := "ok"
	if err != nil {
		status = "failed"
	}
	h.records = append(h.records, op+" "+entryID+" "+status)
	return nil
}

func (h *fakeHistory) SaveSeedPayload(payload []byte) error {
	h.seed = payload
	return nil
}

const seedPayload = `{"data":"{\"1\":{\"id\":\"1\",\"display\":\"{\\\"date\\\":\\\"2026-10-15\\\",\\\"startTime\\\":\\\"09:00\\\",\\\"endTime\\\":\\\"10:30\\\",\\\"description\\\":\\\"review\\\"}\"},\"2\":{\"id\":\"2\",\"display\":\"{\\\"date\\\":\\\"2026-10-16\\\",\\\"startTime\\\":\\\"13:00\\\",\\\"endTime\\\":\\\"15:45\\\"}\"}}"}`

func newTestTracker(t *testing.T, client Syncer) (*Tracker, *notify.Recorder, *fakeHistory) {
	t.Helper()
	rec := &notify.Recorder{}
	hist := &fakeHistory{}
	tr := New(Deps{
		Client:   client,
		Builder:  invoice.NewBuilder(invoice.Options{Rate: decimal.NewFromInt(75)}, nil),
		Notifier: rec,
		History:  hist,
	})
	require.NoError(t, tr.Seed([]byte(seedPayload)))
	return tr, rec, hist
}

var validFields = entry.Fields{Date: "2026-10-17", StartTime: "09:00", EndTime: "10:00", Description: "new"}

func TestSeed(t *testing.T) {
	tr, _, _ := newTestTracker(t, &fakeSyncer{})

	list := tr.Entries().List()
	require.Len(t, list, 2)
	assert.Equal(t, "review", list[0].Description)
	assert.Equal(t, "2:45", list[1].DurationText())
}

func TestCreate_ReplacesStoreWithResponse(t *testing.T) {
	response := []entry.TimeEntry{
		{ID: "9", Date: "2026-10-17", StartTime: "09:00", EndTime: "10:00", Description: "new"},
	}
	client := &fakeSyncer{coll: &remote.Collection{Entries: response, Raw: []byte("raw")}}
	tr, _, hist := newTestTracker(t, client)

	got, err := tr.Create(context.Background(), validFields)
	require.NoError(t, err)

	assert.Equal(t, response, got)
	assert.Equal(t, response, tr.Entries().List())
	assert.Equal(t, []byte("raw"), hist.seed)
	assert.Equal(t, []string{"create  ok"}, hist.records)
}

func TestCreate_ValidationNeverReachesClient(t *testing.T) {
	client := &fakeSyncer{}
	tr, _, hist := newTestTracker(t, client)

	_, err := tr.Create(context.Background(), entry.Fields{Date: "2026-10-17", StartTime: "10:00", EndTime: "09:00"})

	var verr *entry.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, entry.FieldStartTime, verr.Field)
	assert.Empty(t, client.calls)
	assert.Empty(t, hist.records)
	assert.Len(t, tr.Entries().List(), 2)
}

func TestUpdate_FailureLeavesStoreUntouched(t *testing.T) {
	syncErr := &remote.SyncError{Op: "update", EntryID: "1", StatusCode: 500, Err: errors.New("boom")}
	client := &fakeSyncer{err: syncErr}
	tr, rec, hist := newTestTracker(t, client)
	tr.Entries().SetSelected("2", true)

	before, err := json.Marshal(tr.Entries().List())
	require.NoError(t, err)
	beforeSelected := tr.Entries().Selected()

	_, err = tr.Update(context.Background(), "1", validFields)
	assert.ErrorIs(t, err, syncErr)

	after, err := json.Marshal(tr.Entries().List())
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, beforeSelected, tr.Entries().Selected())
	assert.Equal(t, "Error updating entry", rec.Last())
	assert.Equal(t, []string{"update 1 failed"}, hist.records)
	assert.Nil(t, hist.seed)
}

func TestDelete(t *testing.T) {
	client := &fakeSyncer{}
	tr, _, _ := newTestTracker(t, client)

	require.NoError(t, tr.Delete(context.Background(), "1"))

	list := tr.Entries().List()
	require.Len(t, list, 1)
	assert.Equal(t, "2", list[0].ID)
}

func TestDelete_CachedSeedDropsEntry(t *testing.T) {
	db, err := store.Open(filepath.Join(t.TempDir(), "hourly.db"))
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.SaveSeedPayload([]byte(seedPayload)))

	tr := New(Deps{Client: &fakeSyncer{}, History: db})
	cached, err := db.SeedPayload()
	require.NoError(t, err)
	require.NoError(t, tr.Seed(cached))

	require.NoError(t, tr.Delete(context.Background(), "1"))

	cached, err = db.SeedPayload()
	require.NoError(t, err)
	next := New(Deps{Client: &fakeSyncer{}})
	require.NoError(t, next.Seed(cached))

	list := next.Entries().List()
	require.Len(t, list, 1)
	assert.Equal(t, "2", list[0].ID)
	assert.Equal(t, "2:45", list[0].DurationText())
}

func TestDelete_FailureKeepsCachedSeed(t *testing.T) {
	tr, _, hist := newTestTracker(t, &fakeSyncer{err: errors.New("offline")})

	require.Error(t, tr.Delete(context.Background(), "1"))
	assert.Nil(t, hist.seed)
}

func TestDelete_FailureKeepsEntry(t *testing.T) {
	client := &fakeSyncer{err: errors.New("offline")}
	tr, rec, _ := newTestTracker(t, client)

	err := tr.Delete(context.Background(), "1")
	require.Error(t, err)
	assert.Len(t, tr.Entries().List(), 2)
	assert.Equal(t, "Error deleting entry", rec.Last())
}

func TestDeleteSelected_PartialFailure(t *testing.T) {
	client := &fakeSyncer{deleteErr: map[string]error{"1": errors.New("locked")}}
	tr, _, _ := newTestTracker(t, client)
	tr.Entries().SelectAll(true)

	result, err := tr.DeleteSelected(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"delete 1", "delete 2"}, client.calls)
	assert.Equal(t, []string{"2"}, result.Deleted)
	require.Contains(t, result.Failed, "1")

	list := tr.Entries().List()
	require.Len(t, list, 1)
	assert.Equal(t, "1", list[0].ID)
}

func TestDeleteSelected_NothingSelected(t *testing.T) {
	client := &fakeSyncer{}
	tr, rec, _ := newTestTracker(t, client)

	_, err := tr.DeleteSelected(context.Background())
	assert.ErrorIs(t, err, invoice.ErrEmptySelection)
	assert.Empty(t, client.calls)
	assert.Equal(t, "Nothing was selected.", rec.Last())
}

func TestInvoice(t *testing.T) {
	tr, rec, _ := newTestTracker(t, &fakeSyncer{})

	_, err := tr.Invoice()
	assert.ErrorIs(t, err, invoice.ErrEmptySelection)
	assert.Equal(t, "Nothing was selected.", rec.Last())

	tr.Entries().SelectAll(true)
	doc, err := tr.Invoice()
	require.NoError(t, err)
	assert.Equal(t, 255, doc.TotalMinutes)
	assert.Equal(t, "318.75", doc.Subtotal.StringFixed(2))
}

func TestDispatch(t *testing.T) {
	client := &fakeSyncer{}
	tr, _, _ := newTestTracker(t, client)
	ctx := context.Background()

	out, err := tr.Dispatch(ctx, Event{Action: ActionFieldsChanged, Fields: entry.Fields{StartTime: "09:00", EndTime: "17:00"}})
	require.NoError(t, err)
	assert.Equal(t, "8:00", out.Duration)
	assert.Empty(t, client.calls)

	out, err = tr.Dispatch(ctx, Event{Action: ActionSelect, ID: "2", Selected: true})
	require.NoError(t, err)
	assert.True(t, out.Entries[1].Selected)

	out, err = tr.Dispatch(ctx, Event{Action: ActionInvoice})
	require.NoError(t, err)
	assert.Equal(t, 165, out.Document.TotalMinutes)

	out, err = tr.Dispatch(ctx, Event{Action: ActionSelectAll, Selected: true})
	require.NoError(t, err)
	assert.Len(t, tr.Entries().Selected(), 2)

	out, err = tr.Dispatch(ctx, Event{Action: ActionDelete, ID: "2"})
	require.NoError(t, err)
	assert.Len(t, out.Entries, 1)

	_, err = tr.Dispatch(ctx, Event{Action: "archive"})
	assert.Error(t, err)
}

// The remote client and tracker together: the response collection fully
// supersedes whatever was in the store, and malformed items are dropped.
func TestCreate_AgainstRemoteClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/sitePageDataPost") {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"data":[` +
			`{"id":"10","display":"{\"date\":\"2026-10-17\",\"startTime\":\"09:00\",\"endTime\":\"10:00\",\"description\":\"new\"}"},` +
			`{"id":"11","display":"{oops"}` +
			`]}`))
	}))
	defer srv.Close()

	client := remote.NewClient(remote.Options{BaseURL: srv.URL, SiteID: "1", DataPageID: "2", Token: remote.StaticToken("t")}, nil)
	tr, _, _ := newTestTracker(t, client)

	got, err := tr.Create(context.Background(), validFields)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "10", got[0].ID)
}
