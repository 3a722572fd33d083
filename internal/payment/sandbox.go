package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/iliyamo/table-reservation/internal/reservation"
)

// SandboxGateway issues order references locally.  It is used when no
// payment gateway URL is configured; confirmations then arrive through
// the payment webhook with the issued reference.
type SandboxGateway struct{}

var _ reservation.PaymentGateway = SandboxGateway{}

// CreateOrder returns a fresh "sandbox_" reference.
func (SandboxGateway) CreateOrder(_ context.Context, order reservation.PaymentOrder) (string, error) {
	if order.AmountCents <= 0 {
		return "", fmt.Errorf("amount must be positive, got %d", order.AmountCents)
	}
	return "sandbox_" + uuid.NewString(), nil
}
