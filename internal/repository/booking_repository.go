package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/iliyamo/table-reservation/internal/model"
)

// BookingRepo provides access to bookings and their ordered items.
type BookingRepo struct {
    db *sql.DB
}

// NewBookingRepo returns a BookingRepo bound to db.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `id, venue_id, customer_id, party_size, booking_date, start_at, end_at,
                        payment_mode, status, billing_total_cents, payment_ref, created_at, updated_at`

// CreateTx inserts b within tx and populates its ID and timestamps from
// the stored row.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
    const q = `INSERT INTO bookings (venue_id, customer_id, party_size, booking_date, start_at, end_at,
                                     payment_mode, status, billing_total_cents)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
    result, err := tx.ExecContext(ctx, q,
        b.VenueID, b.CustomerID, b.PartySize, b.Date.Format("2006-01-02"), b.StartAt.UTC(), b.EndAt.UTC(),
        string(b.PaymentMode), string(b.Status), b.BillingTotalCents,
    )
    if err != nil {
        return err
    }
    id, err := result.LastInsertId()
    if err != nil {
        return err
    }
    stored, err := r.get(ctx, tx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, uint64(id))
    if err != nil {
        return err
    }
    *b = *stored
    return nil
}

// CreateItemsBulkTx inserts the ordered items of a booking in a single
// statement.  Passing an empty slice has no effect.
func (r *BookingRepo) CreateItemsBulkTx(ctx context.Context, tx *sql.Tx, items []model.BookingItem) error {
    if len(items) == 0 {
        return nil
    }
    query := `INSERT INTO booking_items (booking_id, item_id, quantity, unit_price_cents) VALUES `
    args := make([]interface{}, 0, len(items)*4)
    for i, it := range items {
        if i > 0 {
            query += ","
        }
        query += "(?, ?, ?, ?)"
        args = append(args, it.BookingID, it.ItemID, it.Quantity, it.UnitPriceCents)
    }
    _, err := tx.ExecContext(ctx, query, args...)
    return err
}

// GetByID returns the booking or ErrBookingNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
    return r.get(ctx, r.db, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
}

// LockByIDTx loads the booking row FOR UPDATE.
func (r *BookingRepo) LockByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Booking, error) {
    return r.get(ctx, tx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ? FOR UPDATE`, id)
}

// LockByPaymentRefTx loads the booking carrying a gateway order reference
// FOR UPDATE.
func (r *BookingRepo) LockByPaymentRefTx(ctx context.Context, tx *sql.Tx, ref string) (*model.Booking, error) {
    return r.get(ctx, tx, `SELECT `+bookingColumns+` FROM bookings WHERE payment_ref = ? FOR UPDATE`, ref)
}

// UpdateStatusTx sets the status of a booking.
func (r *BookingRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status model.BookingStatus) error {
    res, err := tx.ExecContext(ctx, `UPDATE bookings SET status = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`, string(status), id)
    if err != nil {
        return err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return ErrBookingNotFound
    }
    return nil
}

// SetPaymentRef stores the gateway order reference of a booking.
func (r *BookingRepo) SetPaymentRef(ctx context.Context, id uint64, ref string) error {
    res, err := r.db.ExecContext(ctx, `UPDATE bookings SET payment_ref = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`, ref, id)
    if err != nil {
        return err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return ErrBookingNotFound
    }
    return nil
}

func (r *BookingRepo) get(ctx context.Context, q dbtx, query string, arg interface{}) (*model.Booking, error) {
    var (
        b          model.Booking
        mode       string
        status     string
        paymentRef sql.NullString
    )
    err := q.QueryRowContext(ctx, query, arg).Scan(
        &b.ID, &b.VenueID, &b.CustomerID, &b.PartySize, &b.Date, &b.StartAt, &b.EndAt,
        &mode, &status, &b.BillingTotalCents, &paymentRef, &b.CreatedAt, &b.UpdatedAt,
    )
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrBookingNotFound
    }
    if err != nil {
        return nil, err
    }
    b.PaymentMode = model.PaymentMode(mode)
    b.Status = model.BookingStatus(status)
    if paymentRef.Valid {
        pr := paymentRef.String
        b.PaymentRef = &pr
    }
    return &b, nil
}
