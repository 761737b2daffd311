package scheduling

import (
	"testing"
	"time"
)

func TestIntervalOverlaps(t *testing.T) {
	day := Date{Year: 2026, Month: time.January, Day: 5}
	tests := []struct {
		a, b Interval
		want bool
	}{
		{span(day, "10:00", "11:00"), span(day, "11:00", "12:00"), false},
		{span(day, "11:00", "12:00"), span(day, "10:00", "11:00"), false},
		{span(day, "10:00", "11:00"), span(day, "10:30", "11:30"), true},
		{span(day, "10:00", "12:00"), span(day, "10:30", "11:00"), true},
		{span(day, "10:00", "11:00"), span(day, "10:00", "11:00"), true},
		{span(day, "09:00", "10:00"), span(day, "10:01", "11:00"), false},
	}
	for _, tc := range tests {
		if got := tc.a.Overlaps(tc.b); got != tc.want {
			t.Fatalf("%v overlaps %v = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "09:00", want: "09:00:00"},
		{in: " 18:30 ", want: "18:30:00"},
		{in: "23:59:59", want: "23:59:59"},
		{in: "00:00:00", want: "00:00:00"},
		{in: "07:15:30.250", want: "07:15:30"},
		{in: "24:00", wantErr: true},
		{in: "9am", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range tests {
		got, err := ParseTimeOfDay(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ParseTimeOfDay(%q) expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseTimeOfDay(%q) error: %v", tc.in, err)
		}
		if got.String() != tc.want {
			t.Fatalf("ParseTimeOfDay(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestDate(t *testing.T) {
	d, err := ParseDate("2026-02-28")
	if err != nil {
		t.Fatalf("ParseDate error: %v", err)
	}
	if got := d.AddDays(1).String(); got != "2026-03-01" {
		t.Fatalf("AddDays(1) = %s, want 2026-03-01", got)
	}
	if !d.Before(d.AddDays(1)) || d.AddDays(1).Before(d) || d.Before(d) {
		t.Fatalf("Before ordering broken around %s", d)
	}
	if _, err := ParseDate("28-02-2026"); err == nil {
		t.Fatalf("expected error for non-ISO date")
	}
}

func TestOperatingWindowOn_DaylightSaving(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Fatalf("LoadLocation error: %v", err)
	}
	w := OperatingWindow{
		OpensAt:  MustParseTimeOfDay("00:00"),
		ClosesAt: MustParseTimeOfDay("12:00"),
		Location: loc,
	}
	// Clocks jump from 02:00 to 03:00 on 2026-03-29.
	iv, err := w.On(Date{Year: 2026, Month: time.March, Day: 29})
	if err != nil {
		t.Fatalf("On error: %v", err)
	}
	if iv.Duration() != 11*time.Hour {
		t.Fatalf("duration = %s, want 11h", iv.Duration())
	}
	if got := ClockOf(iv.End.In(loc)).String(); got != "12:00:00" {
		t.Fatalf("closes at %s, want 12:00:00", got)
	}
}
