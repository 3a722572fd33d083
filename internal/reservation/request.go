package reservation

import (
	"strings"
	"time"

	"github.com/iliyamo/table-reservation/internal/model"
)

// Date and time layouts accepted from callers.
const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// ItemRequest is one pre-ordered catalog item.
type ItemRequest struct {
	ItemID   uint64 `json:"item_id"`
	Quantity int    `json:"quantity"`
}

// BookingRequest is the input of CreateBooking.  Date and Time are the
// venue's local calendar date and wall clock time.
type BookingRequest struct {
	VenueID     uint64            `json:"venue_id"`
	CustomerID  uint64            `json:"customer_id"`
	PartySize   int               `json:"party_size"`
	Date        string            `json:"date"`
	Time        string            `json:"time"`
	PaymentMode model.PaymentMode `json:"payment_mode"`
	Items       []ItemRequest     `json:"items"`
}

type slotRequest struct {
	venueID   uint64
	partySize int
	date      time.Time // civil date, midnight UTC
	clock     model.TimeOfDay
}

// parseSlot validates the fields shared by availability checks and
// bookings.
func parseSlot(vErr *ValidationError, venueID uint64, date, clock string, partySize, maxParty int) slotRequest {
	slot := slotRequest{venueID: venueID, partySize: partySize}
	if venueID == 0 {
		vErr.add("venue_id", "venue_id is required")
	}
	if partySize <= 0 {
		vErr.add("party_size", "party_size must be a positive integer")
	} else if maxParty > 0 && partySize > maxParty {
		vErr.add("party_size", "party_size exceeds the largest bookable party")
	}
	d, err := time.Parse(DateLayout, strings.TrimSpace(date))
	if err != nil {
		vErr.add("date", "date must use YYYY-MM-DD")
	} else {
		slot.date = d
	}
	c, err := time.Parse(ClockLayout, strings.TrimSpace(clock))
	if err != nil {
		vErr.add("time", "time must use HH:MM")
	} else {
		slot.clock = model.TimeOfDayOf(c)
	}
	return slot
}

func (r BookingRequest) validate(maxParty int) (slotRequest, error) {
	vErr := newValidationError()
	slot := parseSlot(vErr, r.VenueID, r.Date, r.Time, r.PartySize, maxParty)
	if r.CustomerID == 0 {
		vErr.add("customer_id", "customer_id is required")
	}
	if !r.PaymentMode.Valid() {
		vErr.add("payment_mode", "payment_mode must be online or cod")
	}
	for _, it := range r.Items {
		if it.ItemID == 0 {
			vErr.add("items.item_id", "item_id is required")
		}
		if it.Quantity <= 0 {
			vErr.add("items.quantity", "quantity must be a positive integer")
		}
	}
	if !vErr.empty() {
		return slotRequest{}, vErr
	}
	return slot, nil
}

// startIn returns the instant the slot begins in loc.
func (s slotRequest) startIn(loc *time.Location) time.Time {
	y, m, d := s.date.Date()
	return time.Date(y, m, d, int(s.clock)/60, int(s.clock)%60, 0, 0, loc)
}
