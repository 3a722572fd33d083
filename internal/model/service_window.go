package model

import (
    "fmt"
    "strconv"
    "strings"
    "time"
)

// WindowStatus marks a service window row as open or closed.
type WindowStatus string

const (
    WindowOpen   WindowStatus = "open"
    WindowClosed WindowStatus = "closed"
)

// TimeOfDay is a wall clock time expressed in minutes after midnight.
type TimeOfDay int

// MinutesPerDay bounds TimeOfDay values.
const MinutesPerDay = 24 * 60

// ParseTimeOfDay accepts "HH:MM" or "HH:MM:SS" (the format MySQL returns
// for TIME columns).  Seconds are dropped.
func ParseTimeOfDay(raw string) (TimeOfDay, error) {
    s := strings.TrimSpace(raw)
    parts := strings.Split(s, ":")
    if len(parts) < 2 || len(parts) > 3 {
        return 0, fmt.Errorf("invalid time of day %q", raw)
    }
    h, err := strconv.Atoi(parts[0])
    if err != nil || h < 0 || h > 23 {
        return 0, fmt.Errorf("invalid hour in %q", raw)
    }
    m, err := strconv.Atoi(parts[1])
    if err != nil || m < 0 || m > 59 {
        return 0, fmt.Errorf("invalid minute in %q", raw)
    }
    if len(parts) == 3 {
        if sec, err := strconv.Atoi(parts[2]); err != nil || sec < 0 || sec > 59 {
            return 0, fmt.Errorf("invalid second in %q", raw)
        }
    }
    return TimeOfDay(h*60 + m), nil
}

// TimeOfDayOf returns the wall clock minutes of t in t's own location.
func TimeOfDayOf(t time.Time) TimeOfDay {
    return TimeOfDay(t.Hour()*60 + t.Minute())
}

// String renders the value as "HH:MM".
func (t TimeOfDay) String() string {
    return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// ISOWeekday maps Go's Sunday-first weekday onto 1..7 with Monday = 1 and
// Sunday = 7.
func ISOWeekday(d time.Weekday) int {
    if d == time.Sunday {
        return 7
    }
    return int(d)
}

// PreviousISOWeekday returns the weekday before d on the 1..7 scale.
func PreviousISOWeekday(d int) int {
    if d <= 1 {
        return 7
    }
    return d - 1
}

// ServiceWindow is one recurring weekly interval of a venue.  There may
// be several rows per weekday.  When End is before Start the window runs
// past midnight into the following day.
//
// Fields:
//  ID      – primary key identifier.
//  VenueID – owning venue.
//  Weekday – ISO weekday 1 (Monday) .. 7 (Sunday).
//  Status  – open or closed.
//  Start   – opening time of day.
//  End     – closing time of day (exclusive).
type ServiceWindow struct {
    ID      uint64       // service_windows.id
    VenueID uint64       // service_windows.venue_id
    Weekday int          // service_windows.weekday
    Status  WindowStatus // service_windows.status
    Start   TimeOfDay    // service_windows.start_time
    End     TimeOfDay    // service_windows.end_time
}

// Wraps reports whether the window crosses midnight.
func (w ServiceWindow) Wraps() bool { return w.End < w.Start }
