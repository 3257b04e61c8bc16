package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledovalley/storefront-backend/pkg/db/models"
	"github.com/ledovalley/storefront-backend/pkg/enums"
	"github.com/ledovalley/storefront-backend/pkg/types"
)

// OrderItemDTO is a purchased line as it was snapshotted at checkout.
type OrderItemDTO struct {
	ProductID    uuid.UUID       `json:"productId"`
	VariantID    uuid.UUID       `json:"variantId"`
	Title        string          `json:"title"`
	VariantTitle string          `json:"variantTitle"`
	SKU          string          `json:"sku"`
	ImageURL     *string         `json:"imageUrl,omitempty"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	Quantity     int             `json:"quantity"`
	LineTotal    decimal.Decimal `json:"lineTotal"`
}

// PaymentDTO is the gateway-facing slice of an order.
type PaymentDTO struct {
	Status        enums.PaymentStatus `json:"status"`
	Mode          *string             `json:"mode,omitempty"`
	PaidAt        *time.Time          `json:"paidAt,omitempty"`
	FailureReason *string             `json:"failureReason,omitempty"`
	RefundedAt    *time.Time          `json:"refundedAt,omitempty"`
}

// ShippingDTO is the carrier-facing slice of an order.
type ShippingDTO struct {
	AWBCode           *string    `json:"awbCode,omitempty"`
	CourierName       *string    `json:"courierName,omitempty"`
	CarrierStatus     *string    `json:"carrierStatus,omitempty"`
	PickupScheduledAt *time.Time `json:"pickupScheduledAt,omitempty"`
	ShippedAt         *time.Time `json:"shippedAt,omitempty"`
	DeliveredAt       *time.Time `json:"deliveredAt,omitempty"`
}

// ReturnDTO is the return-flow slice of an order.
type ReturnDTO struct {
	Status       enums.ReturnStatus `json:"status"`
	Reason       *string            `json:"reason,omitempty"`
	RefundAmount *decimal.Decimal   `json:"refundAmount,omitempty"`
	RequestedAt  *time.Time         `json:"requestedAt,omitempty"`
	ApprovedAt   *time.Time         `json:"approvedAt,omitempty"`
	RefundedAt   *time.Time         `json:"refundedAt,omitempty"`
}

// OrderDTO is the full order view.
type OrderDTO struct {
	ID              uuid.UUID             `json:"id"`
	OrderNumber     string                `json:"orderNumber"`
	CustomerID      uuid.UUID             `json:"customerId"`
	CustomerName    string                `json:"customerName"`
	CustomerPhone   string                `json:"customerPhone"`
	CustomerEmail   string                `json:"customerEmail"`
	ShippingAddress types.AddressSnapshot `json:"shippingAddress"`
	Coupon          *types.CouponSnapshot `json:"coupon,omitempty"`
	Items           []OrderItemDTO        `json:"items"`
	ItemsTotal      decimal.Decimal       `json:"itemsTotal"`
	DiscountAmount  decimal.Decimal       `json:"discountAmount"`
	GSTAmount       decimal.Decimal       `json:"gstAmount"`
	ShippingAmount  decimal.Decimal       `json:"shippingAmount"`
	GrandTotal      decimal.Decimal       `json:"grandTotal"`
	Status          enums.OrderStatus     `json:"status"`
	Payment         PaymentDTO            `json:"payment"`
	Shipping        ShippingDTO           `json:"shipping"`
	Return          ReturnDTO             `json:"return"`
	CreatedAt       time.Time             `json:"createdAt"`
	UpdatedAt       time.Time             `json:"updatedAt"`
}

// OrderListDTO is one cursor page of a customer's orders.
type OrderListDTO struct {
	Items      []OrderDTO `json:"items"`
	NextCursor string     `json:"nextCursor,omitempty"`
}

// AdminOrderListDTO is one offset page of the admin order list.
type AdminOrderListDTO struct {
	Items []OrderDTO `json:"items"`
	Total int64      `json:"total"`
	Page  int        `json:"page"`
	Limit int        `json:"limit"`
}

// ToDTO converts a loaded order into its API shape.
func ToDTO(order *models.Order) *OrderDTO {
	dto := &OrderDTO{
		ID:              order.ID,
		OrderNumber:     order.OrderNumber,
		CustomerID:      order.CustomerID,
		CustomerName:    order.CustomerName,
		CustomerPhone:   order.CustomerPhone,
		CustomerEmail:   order.CustomerEmail,
		ShippingAddress: order.ShippingAddress,
		Coupon:          order.Coupon,
		Items:           make([]OrderItemDTO, 0, len(order.Items)),
		ItemsTotal:      order.ItemsTotal,
		DiscountAmount:  order.DiscountAmount,
		GSTAmount:       order.GSTAmount,
		ShippingAmount:  order.ShippingAmount,
		GrandTotal:      order.GrandTotal,
		Status:          order.Status,
		Payment: PaymentDTO{
			Status:        order.Payment.Status,
			Mode:          order.Payment.Mode,
			PaidAt:        order.Payment.PaidAt,
			FailureReason: order.Payment.FailureReason,
			RefundedAt:    order.Payment.RefundedAt,
		},
		Shipping: ShippingDTO{
			AWBCode:           order.Shipping.AWBCode,
			CourierName:       order.Shipping.CourierName,
			PickupScheduledAt: order.Shipping.PickupScheduledAt,
			ShippedAt:         order.Shipping.ShippedAt,
			DeliveredAt:       order.Shipping.DeliveredAt,
		},
		Return: ReturnDTO{
			Status:       order.Return.Status,
			Reason:       order.Return.Reason,
			RefundAmount: order.Return.RefundAmount,
			RequestedAt:  order.Return.RequestedAt,
			ApprovedAt:   order.Return.ApprovedAt,
			RefundedAt:   order.Return.RefundedAt,
		},
		CreatedAt: order.CreatedAt,
		UpdatedAt: order.UpdatedAt,
	}
	if order.Shipping.CarrierStatus != nil {
		status := order.Shipping.CarrierStatus.String()
		dto.Shipping.CarrierStatus = &status
	}
	for i := range order.Items {
		item := &order.Items[i]
		dto.Items = append(dto.Items, OrderItemDTO{
			ProductID:    item.ProductID,
			VariantID:    item.VariantID,
			Title:        item.Title,
			VariantTitle: item.VariantTitle,
			SKU:          item.SKU,
			ImageURL:     item.ImageURL,
			UnitPrice:    item.UnitPrice,
			Quantity:     item.Quantity,
			LineTotal:    item.LineTotal,
		})
	}
	return dto
}
