package scheduling

import (
	"iter"
	"slices"
	"time"
)

// FreeSlots yields the maximal gaps of operating not covered by bookings, in
// ascending order. bookings may be unsorted; overlapping or out-of-window
// bookings are clamped and never produce an empty or inverted gap. The
// returned sequence can be ranged over more than once.
func FreeSlots(operating Interval, bookings []Interval) iter.Seq[Interval] {
	sorted := slices.Clone(bookings)
	slices.SortStableFunc(sorted, func(a, b Interval) int {
		return a.Start.Compare(b.Start)
	})

	return func(yield func(Interval) bool) {
		if !operating.Valid() {
			return
		}
		cursor := operating.Start
		for _, b := range sorted {
			if !cursor.Before(operating.End) {
				return
			}
			gap := Interval{Start: cursor, End: earlierOf(b.Start, operating.End)}
			if gap.Valid() && !yield(gap) {
				return
			}
			cursor = laterOf(cursor, b.End)
		}
		if tail := (Interval{Start: cursor, End: operating.End}); tail.Valid() {
			yield(tail)
		}
	}
}

// ComputeFreeSlots returns the free slots of date for a room with window w.
// bookingsOnDate must already be restricted to that room and date. When date
// is today in the room's zone, nothing before now is offered.
func ComputeFreeSlots(w OperatingWindow, date Date, bookingsOnDate []Interval, now time.Time) (iter.Seq[Interval], error) {
	operating, err := w.On(date)
	if err != nil {
		return nil, err
	}
	if date == w.Today(now) {
		operating.Start = laterOf(operating.Start, now.In(w.Location))
	}
	if !operating.Valid() {
		return func(func(Interval) bool) {}, nil
	}
	return FreeSlots(operating, bookingsOnDate), nil
}
