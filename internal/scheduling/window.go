package scheduling

import (
	"fmt"
	"time"
)

// OperatingWindow is a room's daily opening hours interpreted in Location.
type OperatingWindow struct {
	OpensAt  TimeOfDay
	ClosesAt TimeOfDay
	Location *time.Location
}

func (w OperatingWindow) Validate() error {
	if w.Location == nil {
		return fmt.Errorf("%w: location is required", ErrInvalidWindow)
	}
	if !w.OpensAt.Valid() || !w.ClosesAt.Valid() {
		return fmt.Errorf("%w: hours must be within a single day", ErrInvalidWindow)
	}
	if w.ClosesAt <= w.OpensAt {
		return fmt.Errorf("%w: closes_at %s must be after opens_at %s", ErrInvalidWindow, w.ClosesAt, w.OpensAt)
	}
	return nil
}

// On returns the concrete operating interval for the given date.
func (w OperatingWindow) On(d Date) (Interval, error) {
	if err := w.Validate(); err != nil {
		return Interval{}, err
	}
	iv := Interval{Start: d.At(w.OpensAt, w.Location), End: d.At(w.ClosesAt, w.Location)}
	if !iv.Valid() {
		// A DST transition can collapse a short window.
		return Interval{}, fmt.Errorf("%w: empty on %s", ErrInvalidWindow, d)
	}
	return iv, nil
}

// Today is the current calendar date in the window's zone.
func (w OperatingWindow) Today(now time.Time) Date {
	return DateOf(now.In(w.Location))
}

// Day returns [midnight, next midnight) of d in the window's zone.
func (w OperatingWindow) Day(d Date) Interval {
	return Interval{Start: d.Midnight(w.Location), End: d.AddDays(1).Midnight(w.Location)}
}
