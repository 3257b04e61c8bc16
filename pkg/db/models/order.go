package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledovalley/storefront-backend/pkg/enums"
	"github.com/ledovalley/storefront-backend/pkg/types"
)

// PaymentDetails tracks the gateway side of an order. GatewayPaymentID is
// the gateway's payment reference, required for refunds.
type PaymentDetails struct {
	Status           enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'PENDING'"`
	GatewayPaymentID *string             `gorm:"column:payment_gateway_id"`
	Mode             *string             `gorm:"column:payment_mode"`
	PaidAt           *time.Time          `gorm:"column:payment_paid_at"`
	FailureReason    *string             `gorm:"column:payment_failure_reason"`
	RefundedAt       *time.Time          `gorm:"column:payment_refunded_at"`
}

// ShippingDetails tracks the carrier side of an order. CarrierOrderID and
// ShipmentID are written as soon as the carrier order exists so that a
// failed AWB or pickup step can be retried without creating duplicates.
type ShippingDetails struct {
	CarrierOrderID    *string              `gorm:"column:shipping_carrier_order_id;index"`
	ShipmentID        *string              `gorm:"column:shipping_shipment_id"`
	AWBCode           *string              `gorm:"column:shipping_awb_code"`
	CourierName       *string              `gorm:"column:shipping_courier_name"`
	CarrierStatus     *enums.CarrierStatus `gorm:"column:shipping_carrier_status;type:text"`
	PickupScheduledAt *time.Time           `gorm:"column:shipping_pickup_scheduled_at"`
	ShippedAt         *time.Time           `gorm:"column:shipping_shipped_at"`
	DeliveredAt       *time.Time           `gorm:"column:shipping_delivered_at"`
}

// ReturnDetails tracks the return-and-refund flow for a delivered order.
type ReturnDetails struct {
	Status       enums.ReturnStatus `gorm:"column:return_status;type:text;not null;default:'NONE'"`
	Reason       *string            `gorm:"column:return_reason"`
	RefundAmount *decimal.Decimal   `gorm:"column:return_refund_amount;type:numeric(12,2)"`
	RequestedAt  *time.Time         `gorm:"column:return_requested_at"`
	ApprovedAt   *time.Time         `gorm:"column:return_approved_at"`
	RefundedAt   *time.Time         `gorm:"column:return_refunded_at"`
}

// Order is the root of the purchase lifecycle. Customer and address data
// are copied in at checkout so later profile edits never rewrite history.
type Order struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber     string                `gorm:"column:order_number;not null;uniqueIndex"`
	CustomerID      uuid.UUID             `gorm:"column:customer_id;type:uuid;not null;index"`
	CustomerName    string                `gorm:"column:customer_name;not null"`
	CustomerPhone   string                `gorm:"column:customer_phone;not null"`
	CustomerEmail   string                `gorm:"column:customer_email;not null"`
	ShippingAddress types.AddressSnapshot `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	Coupon          *types.CouponSnapshot `gorm:"column:coupon;type:jsonb;serializer:json"`
	ItemsTotal      decimal.Decimal       `gorm:"column:items_total;type:numeric(12,2);not null"`
	DiscountAmount  decimal.Decimal       `gorm:"column:discount_amount;type:numeric(12,2);not null;default:0"`
	GSTAmount       decimal.Decimal       `gorm:"column:gst_amount;type:numeric(12,2);not null"`
	ShippingAmount  decimal.Decimal       `gorm:"column:shipping_amount;type:numeric(12,2);not null"`
	GrandTotal      decimal.Decimal       `gorm:"column:grand_total;type:numeric(12,2);not null"`
	Status          enums.OrderStatus     `gorm:"column:status;type:text;not null;default:'PAYMENT_PENDING';index"`
	Payment         PaymentDetails        `gorm:"embedded"`
	Shipping        ShippingDetails       `gorm:"embedded"`
	Return          ReturnDetails         `gorm:"embedded"`
	Items           []OrderItem           `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
