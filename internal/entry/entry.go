// Package entry defines the time entry model and the local validation
// applied to user input before it is submitted.
package entry

import (
	"github.com/christopherklint97/hourly/internal/timecalc"
)

// DateLayout is the calendar date format used on the wire and in the UI.
const DateLayout = "2006-01-02"

// TimeEntry is one recorded interval. ID is assigned by the remote store
// and is empty for a draft.
type TimeEntry struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	Description string `json:"description"`

	// Selected marks the entry for the next invoice or batch action.
	Selected bool `json:"-"`
}

// Fields is the editable part of an entry, as sent on create and update.
type Fields struct {
	Date        string `json:"date"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	Description string `json:"description"`
}

// Fields returns the editable part of e.
func (e TimeEntry) Fields() Fields {
	return Fields{
		Date:        e.Date,
		StartTime:   e.StartTime,
		EndTime:     e.EndTime,
		Description: e.Description,
	}
}

// IsDraft reports whether the entry has not been persisted yet.
func (e TimeEntry) IsDraft() bool {
	return e.ID == ""
}

// Duration recomputes the elapsed time from the start and end times.
func (e TimeEntry) Duration() (timecalc.Duration, error) {
	return timecalc.Compute(e.StartTime, e.EndTime)
}

// DurationText is the H:MM text shown for the entry, empty when the
// times do not form a valid range.
func (e TimeEntry) DurationText() string {
	return timecalc.DurationText(e.StartTime, e.EndTime)
}

// Draft builds an unsaved entry from form input.
func Draft(f Fields) TimeEntry {
	return TimeEntry{
		Date:        f.Date,
		StartTime:   f.StartTime,
		EndTime:     f.EndTime,
		Description: f.Description,
	}
}
