package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ledovalley/storefront-backend/internal/catalog"
	"github.com/ledovalley/storefront-backend/internal/orders"
	"github.com/ledovalley/storefront-backend/pkg/config"
	"github.com/ledovalley/storefront-backend/pkg/db/models"
	"github.com/ledovalley/storefront-backend/pkg/enums"
	pkgerrors "github.com/ledovalley/storefront-backend/pkg/errors"
	"github.com/ledovalley/storefront-backend/pkg/logger"
	"github.com/ledovalley/storefront-backend/pkg/payu"
	"github.com/ledovalley/storefront-backend/pkg/shiprocket"
)

// Service drives the order lifecycle after payment: shipping, manual
// status moves, cancellation, and the return/refund flow.
type Service interface {
	// ChangeStatus is the admin entry point. READY_TO_SHIP triggers the
	// carrier orchestration; other targets apply the matching flow.
	ChangeStatus(ctx context.Context, orderID uuid.UUID, to enums.OrderStatus) (*orders.OrderDTO, error)
	CancelCustomerOrder(ctx context.Context, customerID, orderID uuid.UUID) (*orders.OrderDTO, error)
	RequestReturn(ctx context.Context, customerID, orderID uuid.UUID, reason string) (*orders.OrderDTO, error)
	ApproveReturn(ctx context.Context, orderID uuid.UUID) (*orders.OrderDTO, error)
	CompleteRefund(ctx context.Context, orderID uuid.UUID) (*orders.OrderDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// carrier is the slice of the Shiprocket client fulfillment needs.
type carrier interface {
	CreateOrder(ctx context.Context, req shiprocket.CreateOrderRequest) (*shiprocket.Shipment, error)
	AssignAWB(ctx context.Context, shipmentID string) (*shiprocket.AWBResult, error)
	RequestPickup(ctx context.Context, shipmentID string) error
	PickupLocation() string
}

// refunder is the slice of the PayU client fulfillment needs.
type refunder interface {
	Refund(ctx context.Context, paymentID string, amount decimal.Decimal, refundRef string) (*payu.RefundResult, error)
}

// notifier sends lifecycle emails. Failures are logged, never fatal.
type notifier interface {
	OrderShipped(ctx context.Context, order *models.Order) error
	OrderDelivered(ctx context.Context, order *models.Order) error
	RefundProcessed(ctx context.Context, order *models.Order, amount decimal.Decimal) error
}

type service struct {
	orders     orders.Repository
	catalog    catalog.Repository
	carrier    carrier
	refunder   refunder
	notifier   notifier
	dbClient   txRunner
	returnsCfg config.ReturnsConfig
	logger     *logger.Logger
	now        func() time.Time
}

// NewService constructs the fulfillment service.
func NewService(
	ordersRepo orders.Repository,
	catalogRepo catalog.Repository,
	carrierClient carrier,
	refundClient refunder,
	n notifier,
	dbClient txRunner,
	returnsCfg config.ReturnsConfig,
	logg *logger.Logger,
) (Service, error) {
	if ordersRepo == nil || catalogRepo == nil {
		return nil, fmt.Errorf("fulfillment repositories required")
	}
	if carrierClient == nil {
		return nil, fmt.Errorf("carrier client required")
	}
	if refundClient == nil {
		return nil, fmt.Errorf("refund client required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		orders:     ordersRepo,
		catalog:    catalogRepo,
		carrier:    carrierClient,
		refunder:   refundClient,
		notifier:   n,
		dbClient:   dbClient,
		returnsCfg: returnsCfg,
		logger:     logg,
		now:        time.Now,
	}, nil
}

func (s *service) ChangeStatus(ctx context.Context, orderID uuid.UUID, to enums.OrderStatus) (*orders.OrderDTO, error) {
	if !to.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", to))
	}

	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	ctx = s.logger.WithOrderNumber(ctx, order.OrderNumber)

	if err := orders.EnsureTransition(order.Status, to); err != nil {
		return nil, err
	}

	switch to {
	case enums.OrderStatusReadyToShip:
		return s.ship(ctx, order)
	case enums.OrderStatusShipped:
		return s.markShipped(ctx, order)
	case enums.OrderStatusDelivered:
		return s.markDelivered(ctx, order)
	case enums.OrderStatusCancelled:
		return s.cancel(ctx, order)
	case enums.OrderStatusReturnApproved:
		return s.approveReturn(ctx, order)
	case enums.OrderStatusRefunded:
		return s.completeRefund(ctx, order)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot change status from %s to %s", order.Status, to))
	}
}

// ship walks the carrier handshake. Each persisted step makes the next
// attempt resumable: a crash after order creation will not create a second
// carrier order, only re-run AWB and pickup.
func (s *service) ship(ctx context.Context, order *models.Order) (*orders.OrderDTO, error) {
	if order.Shipping.ShipmentID == nil {
		shipment, err := s.carrier.CreateOrder(ctx, s.carrierOrderRequest(order))
		if err != nil {
			return nil, err
		}

		order.Shipping.CarrierOrderID = &shipment.CarrierOrderID
		order.Shipping.ShipmentID = &shipment.ShipmentID
		status := enums.CarrierStatusCreated
		order.Shipping.CarrierStatus = &status
		if err := s.orders.Save(ctx, order); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save order")
		}
		s.logger.Info(s.logger.WithField(ctx, "shipment_id", shipment.ShipmentID), "carrier order created")
	}

	if order.Shipping.AWBCode == nil {
		awb, err := s.carrier.AssignAWB(ctx, *order.Shipping.ShipmentID)
		if err != nil {
			return nil, err
		}
		order.Shipping.AWBCode = &awb.AWBCode
		order.Shipping.CourierName = &awb.CourierName
		status := enums.CarrierStatusAWBAssigned
		order.Shipping.CarrierStatus = &status
		if err := s.orders.Save(ctx, order); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save order")
		}
	}

	if err := s.carrier.RequestPickup(ctx, *order.Shipping.ShipmentID); err != nil {
		return nil, err
	}

	now := s.now()
	status := enums.CarrierStatusPickupScheduled
	order.Shipping.CarrierStatus = &status
	order.Shipping.PickupScheduledAt = &now
	order.Status = enums.OrderStatusReadyToShip
	if err := s.orders.Save(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save order")
	}

	s.logger.Info(ctx, "order ready to ship")
	return orders.ToDTO(order), nil
}

func (s *service) carrierOrderRequest(order *models.Order) shiprocket.CreateOrderRequest {
	parcel := ParcelFor(order.Items)
	address := order.ShippingAddress

	items := make([]shiprocket.OrderItem, 0, len(order.Items))
	for i := range order.Items {
		item := &order.Items[i]
		items = append(items, shiprocket.OrderItem{
			Name:         item.Title + " " + item.VariantTitle,
			SKU:          item.SKU,
			Units:        item.Quantity,
			SellingPrice: item.UnitPrice.StringFixed(2),
		})
	}

	return shiprocket.CreateOrderRequest{
		OrderID:           order.OrderNumber,
		OrderDate:         order.CreatedAt.Format("2006-01-02 15:04"),
		PickupLocation:    s.carrier.PickupLocation(),
		BillingFirstName:  address.FirstName(),
		BillingLastName:   address.LastName(),
		BillingAddress:    address.AddressLine1,
		BillingAddress2:   address.AddressLine2,
		BillingCity:       address.City,
		BillingPincode:    address.Pincode,
		BillingState:      address.State,
		BillingCountry:    "India",
		BillingEmail:      order.CustomerEmail,
		BillingPhone:      address.Phone,
		ShippingIsBilling: true,
		Items:             items,
		PaymentMethod:     "Prepaid",
		SubTotal:          order.GrandTotal.StringFixed(2),
		Length:            parcel.Length,
		Breadth:           parcel.Breadth,
		Height:            parcel.Height,
		WeightKg:          parcel.WeightKg,
	}
}

func (s *service) markShipped(ctx context.Context, order *models.Order) (*orders.OrderDTO, error) {
	firstTime := order.Shipping.ShippedAt == nil
	if firstTime {
		now := s.now()
		order.Shipping.ShippedAt = &now
	}
	order.Status = enums.OrderStatusShipped

	if err := s.orders.Save(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save order")
	}
	if firstTime {
		s.notifyShipped(ctx, order)
	}
	return orders.ToDTO(order), nil
}

func (s *service) markDelivered(ctx context.Context, order *models.Order) (*orders.OrderDTO, error) {
	firstTime := order.Shipping.DeliveredAt == nil
	if firstTime {
		now := s.now()
		order.Shipping.DeliveredAt = &now
	}
	order.Status = enums.OrderStatusDelivered

	if err := s.orders.Save(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save order")
	}
	if firstTime {
		s.notifyDelivered(ctx, order)
	}
	return orders.ToDTO(order), nil
}

func (s *service) CancelCustomerOrder(ctx context.Context, customerID, orderID uuid.UUID) (*orders.OrderDTO, error) {
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != customerID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}

	// Customers can back out only before the order reaches the carrier.
	switch order.Status {
	case enums.OrderStatusPaymentPending, enums.OrderStatusPaymentFailed, enums.OrderStatusPaymentSuccess:
	default:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot change status from %s to %s", order.Status, enums.OrderStatusCancelled))
	}

	return s.cancel(s.logger.WithOrderNumber(ctx, order.OrderNumber), order)
}

// cancel unwinds an order. When payment was captured, the gateway refund
// must succeed before anything is written.
func (s *service) cancel(ctx context.Context, order *models.Order) (*orders.OrderDTO, error) {
	wasPaid := order.Payment.Status == enums.PaymentStatusSuccess
	if wasPaid {
		if err := s.refund(ctx, order, order.GrandTotal); err != nil {
			return nil, err
		}
	}

	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		ordersRepo := s.orders.WithTx(tx)
		catalogRepo := s.catalog.WithTx(tx)

		// Stock only moved if the payment had been captured.
		if wasPaid {
			if err := s.restoreStock(ctx, catalogRepo, order); err != nil {
				return err
			}
		}

		now := s.now()
		order.Status = enums.OrderStatusCancelled
		if wasPaid {
			order.Payment.Status = enums.PaymentStatusRefunded
			order.Payment.RefundedAt = &now
		}
		if err := ordersRepo.Save(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "order cancelled")
	return orders.ToDTO(order), nil
}

func (s *service) RequestReturn(ctx context.Context, customerID, orderID uuid.UUID, reason string) (*orders.OrderDTO, error) {
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != customerID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	ctx = s.logger.WithOrderNumber(ctx, order.OrderNumber)

	if order.Status != enums.OrderStatusDelivered {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only delivered orders can be returned")
	}
	if order.Return.Status != enums.ReturnStatusNone {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "a return was already requested for this order")
	}
	if order.Shipping.DeliveredAt == nil || s.now().Sub(*order.Shipping.DeliveredAt) > s.returnsCfg.Window() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("returns are accepted within %d days of delivery", s.returnsCfg.WindowDays))
	}

	now := s.now()
	order.Status = enums.OrderStatusReturnRequested
	order.Return.Status = enums.ReturnStatusRequested
	order.Return.RequestedAt = &now
	if trimmed := strings.TrimSpace(reason); trimmed != "" {
		order.Return.Reason = &trimmed
	}

	if err := s.orders.Save(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save order")
	}
	s.logger.Info(ctx, "return requested")
	return orders.ToDTO(order), nil
}

func (s *service) ApproveReturn(ctx context.Context, orderID uuid.UUID) (*orders.OrderDTO, error) {
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := orders.EnsureTransition(order.Status, enums.OrderStatusReturnApproved); err != nil {
		return nil, err
	}
	return s.approveReturn(s.logger.WithOrderNumber(ctx, order.OrderNumber), order)
}

func (s *service) approveReturn(ctx context.Context, order *models.Order) (*orders.OrderDTO, error) {
	now := s.now()
	refund := order.GrandTotal
	order.Status = enums.OrderStatusReturnApproved
	order.Return.Status = enums.ReturnStatusApproved
	order.Return.ApprovedAt = &now
	order.Return.RefundAmount = &refund
	order.Payment.Status = enums.PaymentStatusRefundPending

	if err := s.orders.Save(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save order")
	}
	s.logger.Info(ctx, "return approved")
	return orders.ToDTO(order), nil
}

func (s *service) CompleteRefund(ctx context.Context, orderID uuid.UUID) (*orders.OrderDTO, error) {
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := orders.EnsureTransition(order.Status, enums.OrderStatusRefunded); err != nil {
		return nil, err
	}
	return s.completeRefund(s.logger.WithOrderNumber(ctx, order.OrderNumber), order)
}

func (s *service) completeRefund(ctx context.Context, order *models.Order) (*orders.OrderDTO, error) {
	amount := order.GrandTotal
	if order.Return.RefundAmount != nil {
		amount = *order.Return.RefundAmount
	}

	if err := s.refund(ctx, order, amount); err != nil {
		return nil, err
	}

	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		ordersRepo := s.orders.WithTx(tx)
		catalogRepo := s.catalog.WithTx(tx)

		if err := s.restoreStock(ctx, catalogRepo, order); err != nil {
			return err
		}

		now := s.now()
		order.Status = enums.OrderStatusRefunded
		order.Payment.Status = enums.PaymentStatusRefunded
		order.Payment.RefundedAt = &now
		order.Return.Status = enums.ReturnStatusCompleted
		order.Return.RefundedAt = &now

		if err := ordersRepo.Save(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		if err := s.notifier.RefundProcessed(ctx, order, amount); err != nil {
			s.logger.Warn(s.logger.WithField(ctx, "error", err.Error()), "refund email failed")
		}
	}
	s.logger.Info(ctx, "refund completed")
	return orders.ToDTO(order), nil
}

// refund calls the gateway and treats anything but a reported success as
// fatal to the calling flow.
func (s *service) refund(ctx context.Context, order *models.Order, amount decimal.Decimal) error {
	if order.Payment.GatewayPaymentID == nil {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order has no captured payment to refund")
	}

	refundRef := fmt.Sprintf("REF%d", s.now().UnixMilli())
	result, err := s.refunder.Refund(ctx, *order.Payment.GatewayPaymentID, amount, refundRef)
	if err != nil {
		return err
	}
	if !result.Succeeded {
		return pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("gateway refused the refund: %s", result.Message))
	}
	return nil
}

func (s *service) restoreStock(ctx context.Context, catalogRepo catalog.Repository, order *models.Order) error {
	for i := range order.Items {
		item := &order.Items[i]
		if err := catalogRepo.RestoreVariantStock(ctx, item.VariantID, item.Quantity); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: restore stock")
		}
	}
	return nil
}

func (s *service) notifyShipped(ctx context.Context, order *models.Order) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.OrderShipped(ctx, order); err != nil {
		s.logger.Warn(s.logger.WithField(ctx, "error", err.Error()), "shipped email failed")
	}
}

func (s *service) notifyDelivered(ctx context.Context, order *models.Order) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.OrderDelivered(ctx, order); err != nil {
		s.logger.Warn(s.logger.WithField(ctx, "error", err.Error()), "delivered email failed")
	}
}

func (s *service) findOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find order")
	}
	return order, nil
}
