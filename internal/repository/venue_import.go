package repository

import (
    "context"
    "database/sql"
    "fmt"

    "github.com/iliyamo/table-reservation/internal/seed"
)

// Import inserts a validated venue plan in one transaction and returns the
// new venue ID.  Dining areas are shared between venues and matched by
// name.  A failure rolls back the whole venue.
func (r *VenueRepo) Import(ctx context.Context, p *seed.Plan) (uint64, error) {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return 0, err
    }
    defer tx.Rollback()

    res, err := tx.ExecContext(ctx, `INSERT INTO venues (owner_id, name, timezone) VALUES (?, ?, ?)`,
        p.Venue.OwnerID, p.Venue.Name, p.Venue.Timezone)
    if err != nil {
        return 0, fmt.Errorf("insert venue: %w", err)
    }
    id, err := res.LastInsertId()
    if err != nil {
        return 0, err
    }
    venueID := uint64(id)

    for _, a := range p.Areas {
        areaID, err := diningAreaID(ctx, tx, a.Name)
        if err != nil {
            return 0, err
        }
        if _, err := tx.ExecContext(ctx,
            `INSERT INTO venue_dining_areas (venue_id, dining_area_id, enabled) VALUES (?, ?, ?)`,
            venueID, areaID, a.Enabled); err != nil {
            return 0, fmt.Errorf("link dining area %q: %w", a.Name, err)
        }
        for _, t := range a.Tables {
            if _, err := tx.ExecContext(ctx,
                `INSERT INTO restaurant_tables (venue_id, dining_area_id, label, seat_capacity) VALUES (?, ?, ?, ?)`,
                venueID, areaID, t.Label, t.SeatCapacity); err != nil {
                return 0, fmt.Errorf("insert table %q: %w", t.Label, err)
            }
        }
    }

    for _, w := range p.Windows {
        if _, err := tx.ExecContext(ctx,
            `INSERT INTO service_windows (venue_id, weekday, status, start_time, end_time) VALUES (?, ?, ?, ?, ?)`,
            venueID, w.Weekday, string(w.Status), w.Start.String()+":00", w.End.String()+":00"); err != nil {
            return 0, fmt.Errorf("insert service window: %w", err)
        }
    }

    for _, d := range p.Durations {
        if _, err := tx.ExecContext(ctx,
            `INSERT INTO spending_durations (venue_id, party_size, duration_minutes) VALUES (?, ?, ?)`,
            venueID, d.PartySize, d.DurationMinutes); err != nil {
            return 0, fmt.Errorf("insert duration rule: %w", err)
        }
    }

    for _, m := range p.Menu {
        if _, err := tx.ExecContext(ctx,
            `INSERT INTO menu_items (venue_id, name, price_cents) VALUES (?, ?, ?)`,
            venueID, m.Name, m.PriceCents); err != nil {
            return 0, fmt.Errorf("insert menu item %q: %w", m.Name, err)
        }
    }

    if err := tx.Commit(); err != nil {
        return 0, err
    }
    return venueID, nil
}

func diningAreaID(ctx context.Context, tx *sql.Tx, name string) (uint64, error) {
    if _, err := tx.ExecContext(ctx, `INSERT IGNORE INTO dining_areas (name) VALUES (?)`, name); err != nil {
        return 0, fmt.Errorf("insert dining area %q: %w", name, err)
    }
    var id uint64
    if err := tx.QueryRowContext(ctx, `SELECT id FROM dining_areas WHERE name = ?`, name).Scan(&id); err != nil {
        return 0, fmt.Errorf("load dining area %q: %w", name, err)
    }
    return id, nil
}
