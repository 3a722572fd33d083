package reservation

import (
	"context"
	"fmt"
	"time"

	"github.com/iliyamo/table-reservation/internal/model"
)

// Matcher decides whether a venue is serving at a given instant.  Windows
// are stored in UTC wall clock terms, so the instant is normalised to UTC
// before the weekday and time of day are derived.
type Matcher struct {
	windows WindowSource
}

// NewMatcher returns a Matcher reading windows from src.
func NewMatcher(src WindowSource) *Matcher {
	return &Matcher{windows: src}
}

// Match returns the open windows covering at.  Rows of the instant's own
// weekday match when:
//
//	start <= t < end                 ordinary window (opening minute inclusive)
//	start <= t and end < start       late segment of a window wrapping midnight
//	t < end and end < start          early segment of a wrapping window
//
// Wrapping rows of the previous weekday also match in their early
// segment, so Monday 22:00-02:00 covers Tuesday 01:00.
func (m *Matcher) Match(ctx context.Context, venueID uint64, at time.Time) ([]model.ServiceWindow, error) {
	utc := at.UTC()
	day := model.ISOWeekday(utc.Weekday())
	t := model.TimeOfDayOf(utc)

	today, err := m.windows.OpenWindows(ctx, venueID, day)
	if err != nil {
		return nil, fmt.Errorf("load service windows for weekday %d: %w", day, err)
	}
	var matched []model.ServiceWindow
	for _, w := range today {
		if w.Status == model.WindowOpen && coversSameDay(w, t) {
			matched = append(matched, w)
		}
	}

	prev := model.PreviousISOWeekday(day)
	yesterday, err := m.windows.OpenWindows(ctx, venueID, prev)
	if err != nil {
		return nil, fmt.Errorf("load service windows for weekday %d: %w", prev, err)
	}
	for _, w := range yesterday {
		if w.Status == model.WindowOpen && w.Wraps() && t < w.End {
			matched = append(matched, w)
		}
	}
	return matched, nil
}

// IsOpen reports whether at least one window covers at.
func (m *Matcher) IsOpen(ctx context.Context, venueID uint64, at time.Time) (bool, []model.ServiceWindow, error) {
	matched, err := m.Match(ctx, venueID, at)
	if err != nil {
		return false, nil, err
	}
	return len(matched) > 0, matched, nil
}

func coversSameDay(w model.ServiceWindow, t model.TimeOfDay) bool {
	wraps := w.Wraps()
	return (w.Start <= t && t < w.End) ||
		(w.Start <= t && wraps) ||
		(t < w.End && wraps)
}
