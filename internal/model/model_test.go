package model

import (
	"testing"
	"time"
)

func TestParseTimeOfDay(t *testing.T) {
	cases := map[string]struct {
		want TimeOfDay
		ok   bool
	}{
		"22:00":    {want: 22 * 60, ok: true},
		"02:30:00": {want: 150, ok: true},
		" 9:05 ":   {want: 545, ok: true},
		"24:00":    {ok: false},
		"12":       {ok: false},
		"12:61":    {ok: false},
		"ab:cd":    {ok: false},
	}
	for input, tc := range cases {
		got, err := ParseTimeOfDay(input)
		if tc.ok && err != nil {
			t.Fatalf("ParseTimeOfDay(%q) unexpected error: %v", input, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("ParseTimeOfDay(%q) expected error, got %v", input, got)
		}
		if tc.ok && got != tc.want {
			t.Fatalf("ParseTimeOfDay(%q) = %d, want %d", input, got, tc.want)
		}
	}
}

func TestISOWeekday(t *testing.T) {
	if ISOWeekday(time.Sunday) != 7 {
		t.Fatalf("sunday should map to 7")
	}
	if ISOWeekday(time.Monday) != 1 {
		t.Fatalf("monday should map to 1")
	}
	if PreviousISOWeekday(1) != 7 || PreviousISOWeekday(3) != 2 {
		t.Fatalf("unexpected previous weekday mapping")
	}
}

func TestCanTransition(t *testing.T) {
	allowed := [][2]BookingStatus{
		{BookingPending, BookingConfirmed},
		{BookingPending, BookingCancelled},
		{BookingUpcoming, BookingInProgress},
		{BookingUpcoming, BookingCancelled},
		{BookingConfirmed, BookingInProgress},
		{BookingInProgress, BookingCompleted},
	}
	for _, pair := range allowed {
		if !CanTransition(pair[0], pair[1]) {
			t.Fatalf("expected %s -> %s to be allowed", pair[0], pair[1])
		}
	}
	denied := [][2]BookingStatus{
		{BookingCompleted, BookingCancelled},
		{BookingCancelled, BookingPending},
		{BookingPending, BookingInProgress},
		{BookingInProgress, BookingCancelled},
	}
	for _, pair := range denied {
		if CanTransition(pair[0], pair[1]) {
			t.Fatalf("expected %s -> %s to be rejected", pair[0], pair[1])
		}
	}
}

func TestOverlaps(t *testing.T) {
	base := time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)
	at := func(min int) time.Time { return base.Add(time.Duration(min) * time.Minute) }

	if !Overlaps(at(0), at(120), at(60), at(180)) {
		t.Fatal("partial overlap not detected")
	}
	if Overlaps(at(0), at(120), at(120), at(240)) {
		t.Fatal("touching intervals must not overlap")
	}
	if !Overlaps(at(0), at(240), at(60), at(90)) {
		t.Fatal("containment not detected")
	}
}
