package repository

import (
    "context"
    "database/sql"
    "errors"
)

// CatalogRepo reads menu item prices.  Menu management lives elsewhere;
// this repository only answers price lookups for booking totals.
type CatalogRepo struct {
    db *sql.DB
}

// NewCatalogRepo returns a CatalogRepo bound to db.
func NewCatalogRepo(db *sql.DB) *CatalogRepo { return &CatalogRepo{db: db} }

// PriceOf returns the current price in cents of an available menu item of
// the venue, or ErrItemNotFound.
func (r *CatalogRepo) PriceOf(ctx context.Context, venueID, itemID uint64) (int64, error) {
    const q = `SELECT price_cents FROM menu_items WHERE id = ? AND venue_id = ? AND available = 1`
    var price int64
    err := r.db.QueryRowContext(ctx, q, itemID, venueID).Scan(&price)
    if errors.Is(err, sql.ErrNoRows) {
        return 0, ErrItemNotFound
    }
    return price, err
}
