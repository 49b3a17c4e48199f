package ingest

import (
	"fmt"
	"time"
)

// DateLayout is the date format used on the command line and by Cost Explorer.
const DateLayout = "2006-01-02"

// DateFormatError reports a date that is not YYYY-MM-DD.
type DateFormatError struct {
	Value string
}

func (e *DateFormatError) Error() string {
	return fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", e.Value)
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, &DateFormatError{Value: s}
	}
	return t, nil
}

// DaysBetween returns the number of days from start to end, both included.
func DaysBetween(start, end string) (int, error) {
	s, err := ParseDate(start)
	if err != nil {
		return 0, err
	}
	e, err := ParseDate(end)
	if err != nil {
		return 0, err
	}
	if e.Before(s) {
		return 0, fmt.Errorf("end date %s is before start date %s", end, start)
	}
	return int(e.Sub(s).Hours()/24) + 1, nil
}
