package repository

import (
    "context"
    "database/sql"
    "strings"
    "time"

    "github.com/iliyamo/table-reservation/internal/model"
)

// AllocationRepo provides access to the allocations table.  Every
// timestamp is stored and compared in UTC.
type AllocationRepo struct {
    db *sql.DB
}

// NewAllocationRepo returns an AllocationRepo bound to db.
func NewAllocationRepo(db *sql.DB) *AllocationRepo { return &AllocationRepo{db: db} }

const allocationColumns = `a.id, a.booking_id, a.table_id, a.booking_date, a.start_at, a.end_at, a.status, a.created_at`

// LiveOverlapping returns pending and allocated allocations of the venue
// whose interval intersects [start, end).
func (r *AllocationRepo) LiveOverlapping(ctx context.Context, venueID uint64, start, end time.Time) ([]model.Allocation, error) {
    return r.liveOverlapping(ctx, r.db, venueID, start, end)
}

// LiveOverlappingTx is LiveOverlapping inside tx.
func (r *AllocationRepo) LiveOverlappingTx(ctx context.Context, tx *sql.Tx, venueID uint64, start, end time.Time) ([]model.Allocation, error) {
    return r.liveOverlapping(ctx, tx, venueID, start, end)
}

func (r *AllocationRepo) liveOverlapping(ctx context.Context, q dbtx, venueID uint64, start, end time.Time) ([]model.Allocation, error) {
    sel := `SELECT ` + allocationColumns + `
            FROM allocations a
            JOIN restaurant_tables t ON t.id = a.table_id
            WHERE t.venue_id = ? AND a.status IN ('pending', 'allocated')
              AND a.start_at < ? AND a.end_at > ?`
    return scanAllocations(q.QueryContext(ctx, sel, venueID, end.UTC(), start.UTC()))
}

// ByBooking returns every allocation of a booking ordered by table.
func (r *AllocationRepo) ByBooking(ctx context.Context, bookingID uint64) ([]model.Allocation, error) {
    return r.byBooking(ctx, r.db, bookingID)
}

func (r *AllocationRepo) byBooking(ctx context.Context, q dbtx, bookingID uint64) ([]model.Allocation, error) {
    sel := `SELECT ` + allocationColumns + ` FROM allocations a WHERE a.booking_id = ? ORDER BY a.table_id`
    return scanAllocations(q.QueryContext(ctx, sel, bookingID))
}

// CreateBulkTx inserts allocs in one statement and fills in their IDs
// and creation timestamps.  Passing an empty slice has no effect.
func (r *AllocationRepo) CreateBulkTx(ctx context.Context, tx *sql.Tx, allocs []model.Allocation) error {
    if len(allocs) == 0 {
        return nil
    }
    query := `INSERT INTO allocations (booking_id, table_id, booking_date, start_at, end_at, status) VALUES `
    args := make([]interface{}, 0, len(allocs)*6)
    for i, a := range allocs {
        if i > 0 {
            query += ","
        }
        query += "(?, ?, ?, ?, ?, ?)"
        args = append(args, a.BookingID, a.TableID, a.Date.Format("2006-01-02"), a.StartAt.UTC(), a.EndAt.UTC(), string(a.Status))
    }
    if _, err := tx.ExecContext(ctx, query, args...); err != nil {
        return err
    }
    // Auto-increment values of a multi-row insert are not guaranteed to be
    // consecutive, so read the rows back by table.
    stored, err := r.byBooking(ctx, tx, allocs[0].BookingID)
    if err != nil {
        return err
    }
    byTable := make(map[uint64]model.Allocation, len(stored))
    for _, s := range stored {
        byTable[s.TableID] = s
    }
    for i := range allocs {
        if s, ok := byTable[allocs[i].TableID]; ok {
            allocs[i].ID = s.ID
            allocs[i].CreatedAt = s.CreatedAt
        }
    }
    return nil
}

// SetStatusTx moves the allocations of a booking that are currently in
// one of from to status to.  It returns the number of rows changed.
func (r *AllocationRepo) SetStatusTx(ctx context.Context, tx *sql.Tx, bookingID uint64, from []model.AllocationStatus, to model.AllocationStatus) (int64, error) {
    if len(from) == 0 {
        return 0, nil
    }
    args := make([]interface{}, 0, len(from)+2)
    args = append(args, string(to), bookingID)
    for _, f := range from {
        args = append(args, string(f))
    }
    query := `UPDATE allocations SET status = ? WHERE booking_id = ? AND status IN (` + placeholders(len(from)) + `)`
    res, err := tx.ExecContext(ctx, query, args...)
    if err != nil {
        return 0, err
    }
    return res.RowsAffected()
}

// StalePendingBookingsTx lists up to limit pending bookings holding
// pending allocations created before cutoff, oldest booking first.
func (r *AllocationRepo) StalePendingBookingsTx(ctx context.Context, tx *sql.Tx, cutoff time.Time, limit int) ([]uint64, error) {
    const q = `SELECT DISTINCT a.booking_id
               FROM allocations a
               JOIN bookings b ON b.id = a.booking_id
               WHERE a.status = 'pending' AND b.status = 'pending' AND a.created_at < ?
               ORDER BY a.booking_id
               LIMIT ?`
    rows, err := tx.QueryContext(ctx, q, cutoff.UTC(), limit)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var ids []uint64
    for rows.Next() {
        var id uint64
        if err := rows.Scan(&id); err != nil {
            return nil, err
        }
        ids = append(ids, id)
    }
    return ids, rows.Err()
}

func scanAllocations(rows *sql.Rows, err error) ([]model.Allocation, error) {
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []model.Allocation
    for rows.Next() {
        var (
            a      model.Allocation
            status string
        )
        if err := rows.Scan(&a.ID, &a.BookingID, &a.TableID, &a.Date, &a.StartAt, &a.EndAt, &status, &a.CreatedAt); err != nil {
            return nil, err
        }
        a.Status = model.AllocationStatus(strings.ToLower(status))
        out = append(out, a)
    }
    return out, rows.Err()
}
