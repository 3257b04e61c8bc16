package orders

import (
	"fmt"

	"github.com/ledovalley/storefront-backend/pkg/enums"
	pkgerrors "github.com/ledovalley/storefront-backend/pkg/errors"
)

// transitions is the admin-facing order state machine. Checkout, payment
// callbacks, cancellation, payment retry, and the customer return request
// move orders through their own guarded paths and are not listed here.
var transitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPaymentSuccess:  {enums.OrderStatusReadyToShip, enums.OrderStatusCancelled},
	enums.OrderStatusReadyToShip:     {enums.OrderStatusShipped, enums.OrderStatusCancelled},
	enums.OrderStatusShipped:         {enums.OrderStatusDelivered},
	enums.OrderStatusDelivered:       {},
	enums.OrderStatusReturnRequested: {enums.OrderStatusReturnApproved},
	enums.OrderStatusReturnApproved:  {enums.OrderStatusRefunded},
}

// CanTransition reports whether from→to is allowed by the state machine.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// EnsureTransition returns a typed state-conflict error for a disallowed
// from→to move.
func EnsureTransition(from, to enums.OrderStatus) error {
	if !CanTransition(from, to) {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot change status from %s to %s", from, to))
	}
	return nil
}
