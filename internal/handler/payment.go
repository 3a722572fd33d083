package handler

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// PaymentHandler receives payment gateway callbacks.
type PaymentHandler struct {
	Service BookingService
	Secret  string // shared X-Webhook-Secret; empty rejects every call
}

func NewPaymentHandler(svc BookingService, secret string) *PaymentHandler {
	if svc == nil {
		panic("nil service passed to NewPaymentHandler")
	}
	return &PaymentHandler{Service: svc, Secret: secret}
}

// Confirm handles POST /v1/payments/confirm with body {"payment_ref": "..."}.
// Repeated callbacks for the same reference succeed without side effects.
func (h *PaymentHandler) Confirm(c echo.Context) error {
	got := c.Request().Header.Get("X-Webhook-Secret")
	if h.Secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(h.Secret)) != 1 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid webhook secret"})
	}
	var body struct {
		PaymentRef string `json:"payment_ref"`
	}
	if err := (&echo.DefaultBinder{}).BindBody(c, &body); err != nil || strings.TrimSpace(body.PaymentRef) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "payment_ref is required"})
	}
	b, err := h.Service.ConfirmPayment(c.Request().Context(), strings.TrimSpace(body.PaymentRef))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toBookingJSON(*b, nil))
}
