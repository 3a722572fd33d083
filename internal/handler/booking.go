package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/table-reservation/internal/reservation"
)

// BookingHandler serves availability checks and the customer booking
// endpoints.  Customer routes assume JWTAuth and RequireRole(CUSTOMER)
// already ran.
type BookingHandler struct {
	Service BookingService
}

// NewBookingHandler panics on a nil service.
func NewBookingHandler(svc BookingService) *BookingHandler {
	if svc == nil {
		panic("nil service passed to NewBookingHandler")
	}
	return &BookingHandler{Service: svc}
}

// Availability handles GET /v1/venues/:id/availability?date=&time=&party_size=.
// An unavailable slot is a normal 200 answer carrying the reason.
func (h *BookingHandler) Availability(c echo.Context) error {
	venueID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid venue id"})
	}
	party, err := strconv.Atoi(c.QueryParam("party_size"))
	if err != nil {
		return writeError(c, reservation.FieldError("party_size", "must be a number"))
	}
	av, err := h.Service.CheckAvailability(c.Request().Context(), venueID, c.QueryParam("date"), c.QueryParam("time"), party)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, av)
}

// Create handles POST /v1/venues/:id/bookings.  The customer is always the
// authenticated user.
func (h *BookingHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	venueID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid venue id"})
	}
	var req reservation.BookingRequest
	if err := (&echo.DefaultBinder{}).BindBody(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.VenueID = venueID
	req.CustomerID = userID

	res, err := h.Service.CreateBooking(c.Request().Context(), req)
	if err != nil {
		if res != nil && errors.Is(err, reservation.ErrPaymentGateway) {
			return c.JSON(http.StatusBadGateway, echo.Map{
				"error":      "payment_gateway_error",
				"message":    "booking is held pending payment, retry payment later",
				"booking_id": res.Booking.ID,
			})
		}
		return writeError(c, err)
	}
	body := echo.Map{"booking": toBookingJSON(res.Booking, res.Allocations)}
	if res.PaymentOrder != "" {
		body["payment_order"] = res.PaymentOrder
	}
	return c.JSON(http.StatusCreated, body)
}

// Get handles GET /v1/bookings/:id for the booking's customer.
func (h *BookingHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	detail, err := h.Service.GetBooking(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	if detail.Booking.CustomerID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return c.JSON(http.StatusOK, toBookingJSON(detail.Booking, detail.Allocations))
}

// Cancel handles DELETE /v1/bookings/:id.  Cancelling twice is not an
// error.
func (h *BookingHandler) Cancel(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	ctx := c.Request().Context()
	detail, err := h.Service.GetBooking(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	if detail.Booking.CustomerID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	b, err := h.Service.CancelBooking(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toBookingJSON(*b, nil))
}
