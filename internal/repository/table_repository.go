package repository

import (
    "context"
    "database/sql"

    "github.com/iliyamo/table-reservation/internal/model"
)

// TableRepo reads physical tables.
type TableRepo struct {
    db *sql.DB
}

// NewTableRepo returns a TableRepo bound to db.
func NewTableRepo(db *sql.DB) *TableRepo { return &TableRepo{db: db} }

// Active returns the bookable tables of a venue: not soft-deleted, with a
// positive capacity and in a dining area the venue has enabled.  Ordered
// by capacity then ID.
func (r *TableRepo) Active(ctx context.Context, venueID uint64) ([]model.Table, error) {
    return r.active(ctx, r.db, venueID)
}

// ActiveTx is Active inside tx.
func (r *TableRepo) ActiveTx(ctx context.Context, tx *sql.Tx, venueID uint64) ([]model.Table, error) {
    return r.active(ctx, tx, venueID)
}

func (r *TableRepo) active(ctx context.Context, q dbtx, venueID uint64) ([]model.Table, error) {
    const sel = `SELECT t.id, t.dining_area_id, t.venue_id, t.label, t.seat_capacity, t.deleted
                 FROM restaurant_tables t
                 JOIN venue_dining_areas vda
                   ON vda.venue_id = t.venue_id AND vda.dining_area_id = t.dining_area_id AND vda.enabled = 1
                 WHERE t.venue_id = ? AND t.deleted = 0 AND t.seat_capacity > 0
                 ORDER BY t.seat_capacity, t.id`
    rows, err := q.QueryContext(ctx, sel, venueID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var tables []model.Table
    for rows.Next() {
        var t model.Table
        if err := rows.Scan(&t.ID, &t.DiningAreaID, &t.VenueID, &t.Label, &t.SeatCapacity, &t.Deleted); err != nil {
            return nil, err
        }
        tables = append(tables, t)
    }
    return tables, rows.Err()
}
