package scheduling

import (
	"fmt"
	"time"
)

type Reason string

const (
	ReasonPastDate              Reason = "PAST_DATE"
	ReasonEndBeforeStart        Reason = "END_BEFORE_START"
	ReasonMultiDay              Reason = "MULTI_DAY"
	ReasonOutsideOperatingHours Reason = "OUTSIDE_OPERATING_HOURS"
	ReasonRoomAlreadyBooked     Reason = "ROOM_ALREADY_BOOKED"
)

// Decision is the outcome of ValidateBooking. The zero value accepts.
type Decision struct {
	Reason Reason
}

var Accept = Decision{}

func Reject(r Reason) Decision {
	return Decision{Reason: r}
}

func (d Decision) Accepted() bool {
	return d.Reason == ""
}

func (d Decision) String() string {
	if d.Accepted() {
		return "ACCEPTED"
	}
	return "REJECTED(" + string(d.Reason) + ")"
}

type proposal struct {
	window   OperatingWindow
	local    Interval
	existing []Interval
	today    Date
}

type rule struct {
	reason Reason
	holds  func(p proposal) bool
}

// Evaluated in order; the first rule that does not hold decides.
var bookingRules = []rule{
	{ReasonPastDate, func(p proposal) bool {
		return !DateOf(p.local.Start).Before(p.today)
	}},
	{ReasonEndBeforeStart, func(p proposal) bool {
		return p.local.Valid()
	}},
	{ReasonMultiDay, func(p proposal) bool {
		return DateOf(p.local.Start) == DateOf(p.local.End)
	}},
	{ReasonOutsideOperatingHours, func(p proposal) bool {
		return ClockOf(p.local.Start) >= p.window.OpensAt && ClockOf(p.local.End) <= p.window.ClosesAt
	}},
	{ReasonRoomAlreadyBooked, func(p proposal) bool {
		return !overlapsAny(p.local, p.existing)
	}},
}

// ValidateBooking decides whether proposed may be admitted to a room with the
// given window and existing bookings. Business outcomes are returned as a
// Decision; the error is reserved for malformed input.
func ValidateBooking(w OperatingWindow, proposed Interval, existing []Interval, now time.Time) (Decision, error) {
	if err := w.Validate(); err != nil {
		return Decision{}, err
	}
	for i, e := range existing {
		if !e.Valid() {
			return Decision{}, fmt.Errorf("%w: existing booking %d ends at or before its start", ErrInvalidInterval, i)
		}
	}

	p := proposal{
		window:   w,
		local:    proposed.In(w.Location),
		existing: existing,
		today:    w.Today(now),
	}
	for _, r := range bookingRules {
		if !r.holds(p) {
			return Reject(r.reason), nil
		}
	}
	return Accept, nil
}
