package calendar

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	ical "github.com/emersion/go-ical"

	"github.com/christopherklint97/hourly/internal/entry"
)

// Event represents a parsed calendar event.
type Event struct {
	Summary   string
	StartTime time.Time
	EndTime   time.Time
}

// Fetch retrieves and parses iCalendar events from a URL or file path,
// returning events that overlap with the given time window.
func Fetch(ctx context.Context, source string, windowStart, windowEnd time.Time) ([]Event, error) {
	var r io.ReadCloser

	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetching calendar: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("calendar fetch returned status %d", resp.StatusCode)
		}
		r = resp.Body
	} else {
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("opening calendar file: %w", err)
		}
		r = f
	}
	defer r.Close()

	return Parse(r, windowStart, windowEnd)
}

// Parse decodes iCalendar data and keeps events overlapping the window.
func Parse(r io.Reader, windowStart, windowEnd time.Time) ([]Event, error) {
	dec := ical.NewDecoder(r)
	var events []Event

	for {
		cal, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing calendar: %w", err)
		}

		for _, component := range cal.Children {
			if component.Name != ical.CompEvent {
				continue
			}
			event := ical.Event{Component: component}

			start, err := event.DateTimeStart(windowStart.Location())
			if err != nil {
				continue // skip malformed events
			}
			end, err := event.DateTimeEnd(windowStart.Location())
			if err != nil {
				continue
			}

			if start.Before(windowEnd) && end.After(windowStart) {
				summary, _ := event.Props.Text(ical.PropSummary)
				events = append(events, Event{
					Summary:   summary,
					StartTime: start,
					EndTime:   end,
				})
			}
		}
	}

	return events, nil
}

// Drafts turns the events that start and end on day into entry drafts.
// Events crossing midnight or shorter than a minute are left out.
func Drafts(events []Event, day time.Time) []entry.Fields {
	date := day.Format(entry.DateLayout)

	var drafts []entry.Fields
	for _, e := range events {
		start := e.StartTime.In(day.Location())
		end := e.EndTime.In(day.Location())
		if start.Format(entry.DateLayout) != date || end.Format(entry.DateLayout) != date {
			continue
		}

		f := entry.Fields{
			Date:        date,
			StartTime:   start.Format("15:04"),
			EndTime:     end.Format("15:04"),
			Description: e.Summary,
		}
		if entry.Validate(f) != nil {
			continue
		}
		drafts = append(drafts, f)
	}
	return drafts
}

// DayWindow returns the start and end of the calendar day containing t.
func DayWindow(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}
