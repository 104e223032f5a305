package entry

import (
	"fmt"
	"strings"
	"time"

	"github.com/christopherklint97/hourly/internal/timecalc"
	"github.com/tj/go-naturaldate"
)

// Field names used in ValidationError.Field. They match the form inputs.
const (
	FieldDate        = "date"
	FieldStartTime   = "startTime"
	FieldEndTime     = "endTime"
	FieldDescription = "description"
)

// ValidationError rejects input before it reaches the network.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Validate checks that the required fields are present and that the
// start time is before the end time. The description is optional.
func Validate(f Fields) error {
	if strings.TrimSpace(f.Date) == "" {
		return &ValidationError{Field: FieldDate, Reason: "date is required"}
	}
	if strings.TrimSpace(f.StartTime) == "" {
		return &ValidationError{Field: FieldStartTime, Reason: "start time is required"}
	}
	if strings.TrimSpace(f.EndTime) == "" {
		return &ValidationError{Field: FieldEndTime, Reason: "end time is required"}
	}

	if _, err := time.Parse(DateLayout, strings.TrimSpace(f.Date)); err != nil {
		return &ValidationError{Field: FieldDate, Reason: "date must be YYYY-MM-DD"}
	}
	if _, err := timecalc.ParseClock(f.StartTime); err != nil {
		return &ValidationError{Field: FieldStartTime, Reason: "start time must be HH:MM"}
	}
	if _, err := timecalc.ParseClock(f.EndTime); err != nil {
		return &ValidationError{Field: FieldEndTime, Reason: "end time must be HH:MM"}
	}

	// Focus goes back to the start time, as the range as a whole is wrong.
	if !timecalc.IsValidRange(f.StartTime, f.EndTime) {
		return &ValidationError{Field: FieldStartTime, Reason: "end time must be after start time"}
	}

	return nil
}

// ParseDate accepts YYYY-MM-DD or a natural-language date such as
// "yesterday" or "last friday", relative to now. The result is formatted
// with DateLayout.
func ParseDate(input string, now time.Time) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return now.Format(DateLayout), nil
	}
	if t, err := time.Parse(DateLayout, input); err == nil {
		return t.Format(DateLayout), nil
	}

	t, err := naturaldate.Parse(input, now, naturaldate.WithDirection(naturaldate.Past))
	if err != nil {
		return "", fmt.Errorf("parsing date %q: %w", input, err)
	}
	return t.Format(DateLayout), nil
}
