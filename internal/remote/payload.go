package remote

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/christopherklint97/hourly/internal/entry"
	"github.com/tidwall/gjson"
)

// CreateRequest is the body of a create call.
type CreateRequest struct {
	TeamID       string `json:"team_id"`
	EntryDate    string `json:"entryDate"`
	StartTime    string `json:"startTime"`
	EndTime      string `json:"endTime"`
	Description  string `json:"description"`
	ReturnJSON   bool   `json:"return_json"`
	SourcePageID string `json:"site_page_data_id"`
}

// UpdateRequest is the body of an update call. The entry ID is in the path.
type UpdateRequest struct {
	Date        string `json:"date"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	Description string `json:"description"`
	TeamID      string `json:"team_id"`
	ReturnJSON  bool   `json:"return_json"`
}

// CollectionResponse is the envelope returned by create and update. Data
// holds the collection either inline or as a serialized JSON string.
type CollectionResponse struct {
	Data json.RawMessage `json:"data" jsonschema:"oneof_type=string;object;array"`
}

// StoredEntry is one item of a collection. Display is the entry's
// descriptive fields serialized as a JSON document.
type StoredEntry struct {
	ID      json.RawMessage `json:"id" jsonschema:"oneof_type=string;integer"`
	Display string          `json:"display"`
}

// Display is the decoded form of StoredEntry.Display.
type Display struct {
	Date        string `json:"date"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	Description string `json:"description,omitempty"`
}

// Collection is a decoded authoritative collection.
type Collection struct {
	Entries []entry.TimeEntry
	// Skipped lists the items that could not be decoded.
	Skipped []*DecodeError
	// Raw is the payload the collection was decoded from.
	Raw []byte
}

// DecodeCollection reads a collection payload. It accepts the response
// envelope ({"data": ...}) as well as a bare collection, where the
// collection is an object or array of {id, display} items, possibly
// serialized into a string. Items are returned in document order.
func DecodeCollection(payload []byte) (*Collection, error) {
	if !gjson.ValidBytes(payload) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrMalformedResponse)
	}

	data := gjson.ParseBytes(payload)
	if data.IsObject() {
		if inner := data.Get("data"); inner.Exists() {
			data = inner
		}
	}

	if data.Type == gjson.String {
		if !gjson.Valid(data.Str) {
			return nil, fmt.Errorf("%w: data is not a JSON document", ErrMalformedResponse)
		}
		data = gjson.Parse(data.Str)
	}

	if !data.IsObject() && !data.IsArray() {
		return nil, fmt.Errorf("%w: data is neither an object nor an array", ErrMalformedResponse)
	}

	c := &Collection{Entries: []entry.TimeEntry{}, Raw: payload}
	data.ForEach(func(key, value gjson.Result) bool {
		e, err := decodeItem(value)
		if err != nil {
			c.Skipped = append(c.Skipped, &DecodeError{
				Key: key.String(),
				ID:  value.Get("id").String(),
				Err: err,
			})
			return true
		}
		c.Entries = append(c.Entries, e)
		return true
	})

	return c, nil
}

func decodeItem(item gjson.Result) (entry.TimeEntry, error) {
	if !item.IsObject() {
		return entry.TimeEntry{}, errors.New("item is not an object")
	}

	id := item.Get("id")
	if !id.Exists() || id.String() == "" {
		return entry.TimeEntry{}, errors.New("missing id")
	}

	display := item.Get("display")
	var raw string
	switch {
	case display.Type == gjson.String:
		raw = display.Str
	case display.IsObject():
		raw = display.Raw
	default:
		return entry.TimeEntry{}, errors.New("missing display")
	}

	var d *Display
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return entry.TimeEntry{}, fmt.Errorf("parsing display: %w", err)
	}
	if d == nil {
		return entry.TimeEntry{}, errors.New("display is null")
	}

	return entry.TimeEntry{
		ID:          id.String(),
		Date:        d.Date,
		StartTime:   d.StartTime,
		EndTime:     d.EndTime,
		Description: d.Description,
	}, nil
}

// EncodeCollection writes entries in the envelope shape DecodeCollection
// reads, as an array so their order survives.
func EncodeCollection(entries []entry.TimeEntry) ([]byte, error) {
	items := make([]StoredEntry, 0, len(entries))
	for _, e := range entries {
		id, err := json.Marshal(e.ID)
		if err != nil {
			return nil, fmt.Errorf("encoding id %s: %w", e.ID, err)
		}
		display, err := json.Marshal(Display{
			Date:        e.Date,
			StartTime:   e.StartTime,
			EndTime:     e.EndTime,
			Description: e.Description,
		})
		if err != nil {
			return nil, fmt.Errorf("encoding entry %s: %w", e.ID, err)
		}
		items = append(items, StoredEntry{ID: id, Display: string(display)})
	}

	data, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	return json.Marshal(CollectionResponse{Data: data})
}
