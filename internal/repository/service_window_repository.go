package repository

import (
    "context"
    "database/sql"
    "fmt"

    "github.com/iliyamo/table-reservation/internal/model"
)

// ServiceWindowRepo reads the weekly opening hours of venues.
type ServiceWindowRepo struct {
    db *sql.DB
}

// NewServiceWindowRepo returns a ServiceWindowRepo bound to db.
func NewServiceWindowRepo(db *sql.DB) *ServiceWindowRepo { return &ServiceWindowRepo{db: db} }

// OpenWindows returns the open windows of a venue on an ISO weekday.
// start_time and end_time are TIME columns, which the driver hands back
// as "HH:MM:SS" text regardless of parseTime.
func (r *ServiceWindowRepo) OpenWindows(ctx context.Context, venueID uint64, weekday int) ([]model.ServiceWindow, error) {
    const q = `SELECT id, venue_id, weekday, status, start_time, end_time
               FROM service_windows
               WHERE venue_id = ? AND weekday = ? AND status = 'open'
               ORDER BY start_time`
    rows, err := r.db.QueryContext(ctx, q, venueID, weekday)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var windows []model.ServiceWindow
    for rows.Next() {
        var (
            w          model.ServiceWindow
            status     string
            start, end string
        )
        if err := rows.Scan(&w.ID, &w.VenueID, &w.Weekday, &status, &start, &end); err != nil {
            return nil, err
        }
        w.Status = model.WindowStatus(status)
        if w.Start, err = model.ParseTimeOfDay(start); err != nil {
            return nil, fmt.Errorf("service window %d start: %w", w.ID, err)
        }
        if w.End, err = model.ParseTimeOfDay(end); err != nil {
            return nil, fmt.Errorf("service window %d end: %w", w.ID, err)
        }
        windows = append(windows, w)
    }
    return windows, rows.Err()
}
