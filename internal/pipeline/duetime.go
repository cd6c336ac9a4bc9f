package pipeline

import (
	"fmt"
	"time"

	"taskpad-backend/internal/schema"
)

// DefaultDueHour is the time of day used when only a date is known.
const DefaultDueHour = 18

// ResolveDueTime builds an instant in ref's location from the extracted
// fields. A date alone lands at 18:00, a time alone lands on ref's date and
// neither means no deadline.
func ResolveDueTime(f schema.DueTimeFields, ref time.Time) (*time.Time, error) {
	if f.Date == nil && f.Time == nil {
		return nil, nil
	}

	loc := ref.Location()
	year, month, day := ref.Date()
	hour, minute := DefaultDueHour, 0

	if f.Date != nil {
		d, err := time.ParseInLocation("2006-01-02", *f.Date, loc)
		if err != nil {
			return nil, fmt.Errorf("parse due date %q: %w", *f.Date, err)
		}
		year, month, day = d.Date()
	}

	if f.Time != nil {
		t, err := time.Parse("15:04", *f.Time)
		if err != nil {
			return nil, fmt.Errorf("parse due time %q: %w", *f.Time, err)
		}
		hour, minute = t.Hour(), t.Minute()
	}

	due := time.Date(year, month, day, hour, minute, 0, 0, loc)
	return &due, nil
}
