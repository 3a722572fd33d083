package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/table-reservation/internal/middleware"
	"github.com/iliyamo/table-reservation/internal/model"
	"github.com/iliyamo/table-reservation/internal/repository"
	"github.com/iliyamo/table-reservation/internal/reservation"
)

// BookingService is the part of the reservation engine the HTTP layer
// drives.  *reservation.Service implements it.
type BookingService interface {
	CheckAvailability(ctx context.Context, venueID uint64, date, clock string, partySize int) (reservation.Availability, error)
	CreateBooking(ctx context.Context, req reservation.BookingRequest) (*reservation.BookingResult, error)
	GetBooking(ctx context.Context, bookingID uint64) (*reservation.BookingDetail, error)
	CancelBooking(ctx context.Context, bookingID uint64) (*model.Booking, error)
	ConfirmPayment(ctx context.Context, ref string) (*model.Booking, error)
	AdvanceStatus(ctx context.Context, bookingID uint64, to model.BookingStatus) (*model.Booking, error)
}

// VenueLookup resolves venues for ownership checks.
type VenueLookup interface {
	Venue(ctx context.Context, venueID uint64) (*model.Venue, error)
}

// getUserID returns the user id stored by middleware.JWTAuth.
func getUserID(c echo.Context) (uint64, error) {
	if uid, ok := c.Get(middleware.ContextUserID).(uint64); ok && uid > 0 {
		return uid, nil
	}
	return 0, errors.New("invalid user_id in context")
}

// pathID parses a positive integer path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// writeError maps engine and repository errors onto HTTP responses.
func writeError(c echo.Context, err error) error {
	if vErr := reservation.AsValidationError(err); vErr != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_failed", "fields": vErr.Fields()})
	}
	switch {
	case errors.Is(err, reservation.ErrServiceUnavailable):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"error":   "service_unavailable",
			"message": "the venue is not serving at that time, try another time",
		})
	case errors.Is(err, reservation.ErrCapacity):
		return c.JSON(http.StatusConflict, echo.Map{
			"error":   "insufficient_capacity",
			"message": "no tables free for this party, join the waitlist",
		})
	case errors.Is(err, reservation.ErrAllocationConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "allocation_conflict", "message": "please retry"})
	case errors.Is(err, reservation.ErrInvalidTransition):
		return c.JSON(http.StatusConflict, echo.Map{"error": "invalid_transition"})
	case errors.Is(err, reservation.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, context.DeadlineExceeded):
		return c.JSON(http.StatusGatewayTimeout, echo.Map{"error": "timeout"})
	}
	c.Logger().Errorf("unhandled error: %v", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal_error"})
}

type allocationJSON struct {
	TableID uint64                 `json:"table_id"`
	Status  model.AllocationStatus `json:"status"`
}

type bookingJSON struct {
	ID                uint64              `json:"id"`
	VenueID           uint64              `json:"venue_id"`
	CustomerID        uint64              `json:"customer_id"`
	PartySize         int                 `json:"party_size"`
	Date              string              `json:"date"`
	StartAt           time.Time           `json:"start_at"`
	EndAt             time.Time           `json:"end_at"`
	PaymentMode       model.PaymentMode   `json:"payment_mode"`
	Status            model.BookingStatus `json:"status"`
	BillingTotalCents int64               `json:"billing_total_cents"`
	PaymentRef        *string             `json:"payment_ref,omitempty"`
	Tables            []allocationJSON    `json:"tables,omitempty"`
}

func toBookingJSON(b model.Booking, allocs []model.Allocation) bookingJSON {
	out := bookingJSON{
		ID:                b.ID,
		VenueID:           b.VenueID,
		CustomerID:        b.CustomerID,
		PartySize:         b.PartySize,
		Date:              b.Date.Format(reservation.DateLayout),
		StartAt:           b.StartAt.UTC(),
		EndAt:             b.EndAt.UTC(),
		PaymentMode:       b.PaymentMode,
		Status:            b.Status,
		BillingTotalCents: b.BillingTotalCents,
		PaymentRef:        b.PaymentRef,
	}
	for _, a := range allocs {
		out.Tables = append(out.Tables, allocationJSON{TableID: a.TableID, Status: a.Status})
	}
	return out
}
