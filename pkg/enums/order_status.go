package enums

import "fmt"

// OrderStatus tracks the lifecycle of an order from checkout to terminal state.
type OrderStatus string

const (
	OrderStatusPlaced          OrderStatus = "PLACED"
	OrderStatusPaymentPending  OrderStatus = "PAYMENT_PENDING"
	OrderStatusPaymentFailed   OrderStatus = "PAYMENT_FAILED"
	OrderStatusPaymentSuccess  OrderStatus = "PAYMENT_SUCCESS"
	OrderStatusReadyToShip     OrderStatus = "READY_TO_SHIP"
	OrderStatusShipped         OrderStatus = "SHIPPED"
	OrderStatusDelivered       OrderStatus = "DELIVERED"
	OrderStatusCancelled       OrderStatus = "CANCELLED"
	OrderStatusReturnRequested OrderStatus = "RETURN_REQUESTED"
	OrderStatusReturnApproved  OrderStatus = "RETURN_APPROVED"
	OrderStatusReturnRejected  OrderStatus = "RETURN_REJECTED"
	OrderStatusRefunded        OrderStatus = "REFUNDED"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPlaced,
	OrderStatusPaymentPending,
	OrderStatusPaymentFailed,
	OrderStatusPaymentSuccess,
	OrderStatusReadyToShip,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
	OrderStatusReturnRequested,
	OrderStatusReturnApproved,
	OrderStatusReturnRejected,
	OrderStatusRefunded,
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
