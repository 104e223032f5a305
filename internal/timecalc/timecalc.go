// Package timecalc validates times-of-day and computes the elapsed time
// between them. All times are interpreted on one shared reference day;
// there is no date component and no wraparound past midnight.
package timecalc

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidRange is returned when the end time is not strictly after the start time.
var ErrInvalidRange = errors.New("end time must be after start time")

var layouts = []string{"15:04", "15:04:05"}

// Duration is whole hours and minutes elapsed between two times-of-day.
type Duration struct {
	Hours   int
	Minutes int
}

// String renders the duration as H:MM, e.g. "8:05".
func (d Duration) String() string {
	return fmt.Sprintf("%d:%02d", d.Hours, d.Minutes)
}

// TotalMinutes returns the duration expressed in minutes.
func (d Duration) TotalMinutes() int {
	return d.Hours*60 + d.Minutes
}

// ParseClock parses an HH:MM or HH:MM:SS time-of-day on the reference day.
func ParseClock(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time of day %q", s)
}

// IsValidRange reports whether end is strictly later than start.
func IsValidRange(start, end string) bool {
	s, err := ParseClock(start)
	if err != nil {
		return false
	}
	e, err := ParseClock(end)
	if err != nil {
		return false
	}
	return e.After(s)
}

// Compute returns the elapsed hours and minutes between start and end.
// Leftover seconds are floored.
func Compute(start, end string) (Duration, error) {
	if !IsValidRange(start, end) {
		return Duration{}, fmt.Errorf("%w: %s-%s", ErrInvalidRange, start, end)
	}
	s, _ := ParseClock(start)
	e, _ := ParseClock(end)

	mins := int(e.Sub(s) / time.Minute)
	return Duration{Hours: mins / 60, Minutes: mins % 60}, nil
}

// DurationText is the H:MM text for a range, or "" if the range is invalid.
func DurationText(start, end string) string {
	d, err := Compute(start, end)
	if err != nil {
		return ""
	}
	return d.String()
}

// ParseText converts H:MM text back into minutes. Only the first two
// colon-separated parts are read, so "8:05:00" is 485. Malformed text
// yields ok == false so callers can leave the value out of a total.
func ParseText(text string) (minutes int, ok bool) {
	parts := strings.SplitN(strings.TrimSpace(text), ":", 3)
	if len(parts) < 2 {
		return 0, false
	}

	h, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, false
	}
	m, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, false
	}

	return h*60 + m, true
}

// FormatMinutes renders a minute count as H:MM.
func FormatMinutes(minutes int) string {
	return Duration{Hours: minutes / 60, Minutes: minutes % 60}.String()
}
