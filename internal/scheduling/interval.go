package scheduling

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidWindow   = errors.New("invalid operating window")
	ErrInvalidInterval = errors.New("invalid interval")
)

// Interval is the half-open range [Start, End).
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (i Interval) Valid() bool {
	return i.End.After(i.Start)
}

func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// Overlaps treats a shared boundary instant as free: [10:00,11:00) and
// [11:00,12:00) do not overlap.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && o.Start.Before(i.End)
}

func (i Interval) In(loc *time.Location) Interval {
	return Interval{Start: i.Start.In(loc), End: i.End.In(loc)}
}

func overlapsAny(candidate Interval, existing []Interval) bool {
	for _, e := range existing {
		if candidate.Overlaps(e) {
			return true
		}
	}
	return false
}

func laterOf(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}

func earlierOf(a, b time.Time) time.Time {
	if b.Before(a) {
		return b
	}
	return a
}

// TimeOfDay is an offset from local midnight in [00:00:00, 24:00:00).
type TimeOfDay time.Duration

const (
	StartOfDay TimeOfDay = 0
	EndOfDay   TimeOfDay = TimeOfDay(24*time.Hour - time.Second)
)

var timeOfDayLayouts = []string{"15:04:05.999999", "15:04"}

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeOfDayLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return ClockOf(t), nil
		}
	}
	return 0, fmt.Errorf("time of day %q: want HH:MM or HH:MM:SS", s)
}

func MustParseTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

// ClockOf returns the wall-clock offset of t in its own location.
func ClockOf(t time.Time) TimeOfDay {
	h, m, s := t.Clock()
	return TimeOfDay(time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(t.Nanosecond()))
}

func (t TimeOfDay) Valid() bool {
	return t >= 0 && time.Duration(t) < 24*time.Hour
}

func (t TimeOfDay) parts() (h, m, s, ns int) {
	d := time.Duration(t)
	h = int(d / time.Hour)
	d -= time.Duration(h) * time.Hour
	m = int(d / time.Minute)
	d -= time.Duration(m) * time.Minute
	s = int(d / time.Second)
	d -= time.Duration(s) * time.Second
	return h, m, s, int(d)
}

func (t TimeOfDay) String() string {
	h, m, s, _ := t.parts()
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// Date is a calendar date without a zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

const dateLayout = "2006-01-02"

func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("date %q: want YYYY-MM-DD", s)
	}
	return DateOf(t), nil
}

// At combines the date with a time of day in loc. DST gaps resolve the way
// time.Date does.
func (d Date) At(t TimeOfDay, loc *time.Location) time.Time {
	h, m, s, ns := t.parts()
	return time.Date(d.Year, d.Month, d.Day, h, m, s, ns, loc)
}

func (d Date) Midnight(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d Date) AddDays(n int) Date {
	return DateOf(time.Date(d.Year, d.Month, d.Day+n, 12, 0, 0, 0, time.UTC))
}

func (d Date) Before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}
