package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/iliyamo/table-reservation/internal/model"
)

// VenueRepo reads venues and their opted-in dining areas.
type VenueRepo struct {
    db *sql.DB
}

// NewVenueRepo returns a VenueRepo bound to db.
func NewVenueRepo(db *sql.DB) *VenueRepo { return &VenueRepo{db: db} }

// GetByID returns the venue with the given ID or ErrVenueNotFound.
func (r *VenueRepo) GetByID(ctx context.Context, id uint64) (*model.Venue, error) {
    const q = `SELECT id, owner_id, name, timezone, created_at FROM venues WHERE id = ?`
    var v model.Venue
    err := r.db.QueryRowContext(ctx, q, id).Scan(&v.ID, &v.OwnerID, &v.Name, &v.Timezone, &v.CreatedAt)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrVenueNotFound
    }
    if err != nil {
        return nil, err
    }
    return &v, nil
}

// DiningAreas lists the dining areas a venue has enabled, ordered by name.
func (r *VenueRepo) DiningAreas(ctx context.Context, venueID uint64) ([]model.DiningArea, error) {
    const q = `SELECT d.id, d.name
               FROM venue_dining_areas vda
               JOIN dining_areas d ON d.id = vda.dining_area_id
               WHERE vda.venue_id = ? AND vda.enabled = 1
               ORDER BY d.name`
    rows, err := r.db.QueryContext(ctx, q, venueID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var areas []model.DiningArea
    for rows.Next() {
        var a model.DiningArea
        if err := rows.Scan(&a.ID, &a.Name); err != nil {
            return nil, err
        }
        areas = append(areas, a)
    }
    return areas, rows.Err()
}
