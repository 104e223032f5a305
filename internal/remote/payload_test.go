package remote

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/christopherklint97/hourly/internal/entry"
)

func TestDecodeCollection_Shapes(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantIDs []string
	}{
		{
			name:    "envelope with serialized object",
			payload: `{"data":"{\"5\":{\"id\":5,\"display\":\"{\\\"date\\\":\\\"2026-10-17\\\",\\\"startTime\\\":\\\"09:00\\\",\\\"endTime\\\":\\\"10:00\\\"}\"}}"}`,
			wantIDs: []string{"5"},
		},
		{
			name:    "envelope with inline array",
			payload: `{"data":[{"id":"b","display":"{\"date\":\"2026-10-17\",\"startTime\":\"09:00\",\"endTime\":\"10:00\"}"},{"id":"a","display":{"date":"2026-10-17","startTime":"11:00","endTime":"12:00"}}]}`,
			wantIDs: []string{"b", "a"},
		},
		{
			name:    "bare seed object keeps document order",
			payload: `{"9":{"id":"9","display":"{\"date\":\"2026-10-01\",\"startTime\":\"09:00\",\"endTime\":\"10:00\"}"},"3":{"id":"3","display":"{\"date\":\"2026-10-02\",\"startTime\":\"09:00\",\"endTime\":\"10:00\"}"}}`,
			wantIDs: []string{"9", "3"},
		},
		{
			name:    "empty collection",
			payload: `{"data":"{}"}`,
			wantIDs: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coll, err := DecodeCollection([]byte(tt.payload))
			require.NoError(t, err)

			var ids []string
			for _, e := range coll.Entries {
				ids = append(ids, e.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Empty(t, coll.Skipped)
		})
	}
}

func TestDecodeCollection_SkipsBadItems(t *testing.T) {
	payload := `{"data":[
		{"id":"1","display":"{\"date\":\"2026-10-17\",\"startTime\":\"09:00\",\"endTime\":\"10:00\",\"description\":\"ok\"}"},
		{"id":"2","display":"{not json"},
		{"id":"3"},
		{"display":"{\"date\":\"2026-10-17\"}"},
		{"id":"5","display":"null"},
		"scalar",
		{"id":"7","display":"{\"date\":\"2026-10-17\",\"startTime\":\"11:00\",\"endTime\":\"12:00\"}"}
	]}`

	coll, err := DecodeCollection([]byte(payload))
	require.NoError(t, err)

	require.Len(t, coll.Entries, 2)
	assert.Equal(t, "1", coll.Entries[0].ID)
	assert.Equal(t, "ok", coll.Entries[0].Description)
	assert.Equal(t, "7", coll.Entries[1].ID)

	require.Len(t, coll.Skipped, 5)
	assert.Equal(t, "2", coll.Skipped[0].ID)
	assert.Equal(t, "3", coll.Skipped[1].ID)
}

func TestDecodeCollection_Malformed(t *testing.T) {
	for _, payload := range []string{
		`not json`,
		`{"data":"{broken"}`,
		`{"data":42}`,
		`"just a string that is not json"`,
	} {
		_, err := DecodeCollection([]byte(payload))
		assert.ErrorIs(t, err, ErrMalformedResponse, payload)
	}
}

func TestEncodeCollection_KeepsOrder(t *testing.T) {
	entries := []entry.TimeEntry{
		{ID: "9", Date: "2026-10-01", StartTime: "09:00", EndTime: "10:00", Description: "plan \"Q4\""},
		{ID: "3", Date: "2026-10-02", StartTime: "13:00", EndTime: "14:30"},
	}

	payload, err := EncodeCollection(entries)
	require.NoError(t, err)

	c, err := DecodeCollection(payload)
	require.NoError(t, err)
	assert.Empty(t, c.Skipped)
	assert.Equal(t, entries, c.Entries)

	payload, err = EncodeCollection(nil)
	require.NoError(t, err)
	c, err = DecodeCollection(payload)
	require.NoError(t, err)
	assert.Empty(t, c.Entries)
}

func TestSchemas(t *testing.T) {
	schemas := Schemas()
	for _, name := range []string{"create_request", "update_request", "collection_response", "stored_entry", "display"} {
		s, ok := schemas[name]
		require.True(t, ok, name)
		require.NotNil(t, s.Properties, name)
	}

	_, ok := schemas["create_request"].Properties.Get("site_page_data_id")
	assert.True(t, ok)
}
