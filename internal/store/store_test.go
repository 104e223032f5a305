package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/christopherklint97/hourly/internal/entry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntries() []entry.TimeEntry {
	return []entry.TimeEntry{
		{ID: "3", Date: "2026-10-15", StartTime: "09:00", EndTime: "10:30", Description: "review"},
		{ID: "1", Date: "2026-10-16", StartTime: "13:00", EndTime: "15:45", Description: "build"},
		{ID: "2", Date: "2026-10-17", StartTime: "08:00", EndTime: "08:30"},
	}
}

func ids(entries []entry.TimeEntry) []string {
	var out []string
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}

func TestEntries_ReplaceAllKeepsArrivalOrder(t *testing.T) {
	s := NewEntries()
	s.ReplaceAll(sampleEntries())

	assert.Equal(t, []string{"3", "1", "2"}, ids(s.List()))
	assert.Equal(t, 3, s.Len())
}

func TestEntries_ReplaceAllDropsPreviousContents(t *testing.T) {
	s := NewEntries()
	s.ReplaceAll(sampleEntries())
	s.SetSelected("1", true)

	s.ReplaceAll([]entry.TimeEntry{{ID: "9", Date: "2026-10-18", StartTime: "10:00", EndTime: "11:00"}})

	list := s.List()
	require.Len(t, list, 1)
	assert.Equal(t, "9", list[0].ID)
	_, ok := s.Get("1")
	assert.False(t, ok)
}

func TestEntries_ReplaceAllClearsSelection(t *testing.T) {
	s := NewEntries()
	in := sampleEntries()
	in[0].Selected = true
	s.ReplaceAll(in)

	assert.Empty(t, s.Selected())
}

func TestEntries_ListReturnsCopy(t *testing.T) {
	s := NewEntries()
	s.ReplaceAll(sampleEntries())

	list := s.List()
	list[0].Description = "changed"

	got, _ := s.Get("3")
	assert.Equal(t, "review", got.Description)
}

func TestEntries_Remove(t *testing.T) {
	s := NewEntries()
	s.ReplaceAll(sampleEntries())

	assert.True(t, s.Remove("1"))
	assert.False(t, s.Remove("1"))
	assert.Equal(t, []string{"3", "2"}, ids(s.List()))
}

func TestEntries_Selection(t *testing.T) {
	s := NewEntries()
	s.ReplaceAll(sampleEntries())

	assert.True(t, s.SetSelected("2", true))
	assert.False(t, s.SetSelected("missing", true))
	assert.True(t, s.ToggleSelected("3"))
	assert.Equal(t, []string{"3", "2"}, ids(s.Selected()))

	assert.False(t, s.ToggleSelected("3"))
	assert.Equal(t, []string{"2"}, ids(s.Selected()))

	s.SelectAll(true)
	assert.Equal(t, []string{"3", "1", "2"}, ids(s.Selected()))

	s.SelectAll(false)
	assert.Empty(t, s.Selected())
}

func TestEntries_DuplicateIDKeepsFirstPosition(t *testing.T) {
	s := NewEntries()
	s.ReplaceAll([]entry.TimeEntry{
		{ID: "1", Description: "first"},
		{ID: "2", Description: "second"},
		{ID: "1", Description: "again"},
	})

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, "1", list[0].ID)
	assert.Equal(t, "again", list[0].Description)
}

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "hourly.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDB_SeedPayload(t *testing.T) {
	db := openTestDB(t)

	payload, err := db.SeedPayload()
	require.NoError(t, err)
	assert.Nil(t, payload)

	require.NoError(t, db.SaveSeedPayload([]byte(`{"data":"{}"}`)))
	require.NoError(t, db.SaveSeedPayload([]byte(`{"data":"[]"}`)))

	payload, err = db.SeedPayload()
	require.NoError(t, err)
	assert.Equal(t, `{"data":"[]"}`, string(payload))
}

func TestDB_SyncLog(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.RecordSync("create", "", nil))
	require.NoError(t, db.RecordSync("delete", "42", errors.New("status 500")))

	records, err := db.RecentSyncs(10)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "delete", records[0].Op)
	assert.Equal(t, "42", records[0].EntryID)
	assert.Equal(t, StatusFailed, records[0].Status)
	assert.Equal(t, "status 500", records[0].Error)

	assert.Equal(t, "create", records[1].Op)
	assert.Equal(t, StatusOK, records[1].Status)
	assert.Empty(t, records[1].Error)
}
