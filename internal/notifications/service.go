package notifications

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/shopspring/decimal"

	"github.com/ledovalley/storefront-backend/pkg/brevo"
	"github.com/ledovalley/storefront-backend/pkg/config"
	"github.com/ledovalley/storefront-backend/pkg/db/models"
	pkgerrors "github.com/ledovalley/storefront-backend/pkg/errors"
	"github.com/ledovalley/storefront-backend/pkg/logger"
)

// mailer is the slice of the Brevo client this service needs.
type mailer interface {
	SendEmail(ctx context.Context, email brevo.Email) error
}

// Service renders and sends the customer-facing lifecycle emails. It
// satisfies the notifier interfaces of the payments, fulfillment, and
// shipping webhook services.
type Service struct {
	mailer     mailer
	returnsCfg config.ReturnsConfig
	logger     *logger.Logger
}

// NewService constructs the notification service.
func NewService(m mailer, returnsCfg config.ReturnsConfig, logg *logger.Logger) (*Service, error) {
	if m == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "mailer required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{mailer: m, returnsCfg: returnsCfg, logger: logg}, nil
}

// OrderConfirmed emails the payment confirmation with the order summary.
func (s *Service) OrderConfirmed(ctx context.Context, order *models.Order) error {
	data := confirmedEmailData{
		CustomerName:   order.CustomerName,
		OrderNumber:    order.OrderNumber,
		GSTAmount:      order.GSTAmount.StringFixed(2),
		ShippingAmount: order.ShippingAmount.StringFixed(2),
		GrandTotal:     order.GrandTotal.StringFixed(2),
	}
	if order.DiscountAmount.IsPositive() {
		data.DiscountAmount = order.DiscountAmount.StringFixed(2)
	}
	if order.Coupon != nil {
		data.CouponCode = order.Coupon.Code
	}
	for i := range order.Items {
		item := &order.Items[i]
		data.Items = append(data.Items, confirmedEmailItem{
			Title:        item.Title,
			VariantTitle: item.VariantTitle,
			Quantity:     item.Quantity,
			LineTotal:    item.LineTotal.StringFixed(2),
		})
	}

	subject := fmt.Sprintf("Order Confirmed - %s", order.OrderNumber)
	return s.send(ctx, order, subject, orderConfirmedTmpl, data)
}

// OrderShipped emails the tracking details once the carrier has the parcel.
func (s *Service) OrderShipped(ctx context.Context, order *models.Order) error {
	data := shippedEmailData{
		CustomerName: order.CustomerName,
		OrderNumber:  order.OrderNumber,
	}
	if order.Shipping.AWBCode != nil {
		data.AWBCode = *order.Shipping.AWBCode
	}
	if order.Shipping.CourierName != nil {
		data.CourierName = *order.Shipping.CourierName
	}

	subject := fmt.Sprintf("Order Shipped - %s", order.OrderNumber)
	return s.send(ctx, order, subject, orderShippedTmpl, data)
}

// OrderDelivered emails the delivery confirmation and the return window.
func (s *Service) OrderDelivered(ctx context.Context, order *models.Order) error {
	data := deliveredEmailData{
		CustomerName:     order.CustomerName,
		OrderNumber:      order.OrderNumber,
		ReturnWindowDays: s.returnsCfg.WindowDays,
	}

	subject := fmt.Sprintf("Order Delivered - %s", order.OrderNumber)
	return s.send(ctx, order, subject, orderDeliveredTmpl, data)
}

// RefundProcessed emails the refund confirmation with the amount returned.
func (s *Service) RefundProcessed(ctx context.Context, order *models.Order, amount decimal.Decimal) error {
	data := refundEmailData{
		OrderNumber:  order.OrderNumber,
		RefundAmount: amount.StringFixed(2),
	}

	subject := fmt.Sprintf("Refund Processed - %s", order.OrderNumber)
	return s.send(ctx, order, subject, refundProcessedTmpl, data)
}

func (s *Service) send(ctx context.Context, order *models.Order, subject string, tmpl *template.Template, data any) error {
	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render email template")
	}

	err := s.mailer.SendEmail(ctx, brevo.Email{
		Subject:     subject,
		To:          []brevo.Contact{{Name: order.CustomerName, Email: order.CustomerEmail}},
		HTMLContent: body.String(),
	})
	if err != nil {
		return err
	}

	s.logger.Info(s.logger.WithFields(ctx, map[string]any{
		"order_number": order.OrderNumber,
		"subject":      subject,
	}), "lifecycle email sent")
	return nil
}
