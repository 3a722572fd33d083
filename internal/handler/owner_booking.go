package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/table-reservation/internal/model"
)

// OwnerBookingHandler lets venue owners move bookings through service.
type OwnerBookingHandler struct {
	Service BookingService
	Venues  VenueLookup
}

func NewOwnerBookingHandler(svc BookingService, venues VenueLookup) *OwnerBookingHandler {
	if svc == nil || venues == nil {
		panic("nil dependency passed to NewOwnerBookingHandler")
	}
	return &OwnerBookingHandler{Service: svc, Venues: venues}
}

// UpdateStatus handles PATCH /v1/owner/bookings/:id/status with body
// {"status": "inprogress"|"completed"}.  Only the owner of the booked venue
// may call it.
func (h *OwnerBookingHandler) UpdateStatus(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var body struct {
		Status model.BookingStatus `json:"status"`
	}
	if err := (&echo.DefaultBinder{}).BindBody(c, &body); err != nil || body.Status == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status is required"})
	}

	ctx := c.Request().Context()
	detail, err := h.Service.GetBooking(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	venue, err := h.Venues.Venue(ctx, detail.Booking.VenueID)
	if err != nil {
		return writeError(c, err)
	}
	if venue.OwnerID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	b, err := h.Service.AdvanceStatus(ctx, id, body.Status)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toBookingJSON(*b, nil))
}
