package shippingwebhook

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/ledovalley/storefront-backend/internal/orders"
	"github.com/ledovalley/storefront-backend/pkg/db/models"
	"github.com/ledovalley/storefront-backend/pkg/enums"
	pkgerrors "github.com/ledovalley/storefront-backend/pkg/errors"
	"github.com/ledovalley/storefront-backend/pkg/logger"
)

// Event is the carrier's status push, reduced to the fields we act on.
// The carrier identifies orders by the id it issued at creation time.
type Event struct {
	CarrierOrderID string `json:"order_id"`
	Status         string `json:"current_status"`
	AWBCode        string `json:"awb"`
	CourierName    string `json:"courier_name"`
	Timestamp      string `json:"current_timestamp"`
}

// lifecycleNotifier sends the customer-facing emails tied to carrier moves.
type lifecycleNotifier interface {
	OrderShipped(ctx context.Context, order *models.Order) error
	OrderDelivered(ctx context.Context, order *models.Order) error
}

type Service struct {
	orders   orders.Repository
	notifier lifecycleNotifier
	logger   *logger.Logger
	now      func() time.Time
}

// NewService constructs the shipping webhook handler.
func NewService(ordersRepo orders.Repository, n lifecycleNotifier, logg *logger.Logger) (*Service, error) {
	if ordersRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repo required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{
		orders:   ordersRepo,
		notifier: n,
		logger:   logg,
		now:      time.Now,
	}, nil
}

// Handle applies a carrier status push. Unknown orders and unmapped
// statuses are acknowledged without changes so the carrier stops retrying.
func (s *Service) Handle(ctx context.Context, event Event) error {
	carrierOrderID := strings.TrimSpace(event.CarrierOrderID)
	if carrierOrderID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "missing order_id")
	}

	order, err := s.orders.FindByCarrierOrderID(ctx, carrierOrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn(s.logger.WithField(ctx, "carrier_order_id", carrierOrderID),
				"carrier webhook for unknown order")
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find order by carrier id")
	}
	ctx = s.logger.WithOrderNumber(ctx, order.OrderNumber)

	carrierStatus, ok := parseCarrierStatus(event.Status)
	if !ok {
		s.logger.Warn(s.logger.WithField(ctx, "carrier_status", event.Status),
			"unmapped carrier status, recording raw value only")
		return nil
	}

	order.Shipping.CarrierStatus = &carrierStatus
	if event.AWBCode != "" && order.Shipping.AWBCode == nil {
		awb := event.AWBCode
		order.Shipping.AWBCode = &awb
	}
	if event.CourierName != "" && order.Shipping.CourierName == nil {
		courier := event.CourierName
		order.Shipping.CourierName = &courier
	}

	notifyShipped, notifyDelivered := s.applyTransition(order, carrierStatus)

	if err := s.orders.Save(ctx, order); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save order")
	}

	if notifyShipped {
		s.notifyShipped(ctx, order)
	}
	if notifyDelivered {
		s.notifyDelivered(ctx, order)
	}

	s.logger.Info(s.logger.WithField(ctx, "carrier_status", string(carrierStatus)),
		"carrier webhook applied")
	return nil
}

// applyTransition moves the order status to match the carrier, skipping
// moves the lifecycle forbids. Timestamps are stamped once, which also
// guards notification replay when the carrier re-delivers an event.
func (s *Service) applyTransition(order *models.Order, carrierStatus enums.CarrierStatus) (notifyShipped, notifyDelivered bool) {
	switch carrierStatus {
	case enums.CarrierStatusAWBAssigned, enums.CarrierStatusPickupScheduled:
		if orders.CanTransition(order.Status, enums.OrderStatusReadyToShip) {
			order.Status = enums.OrderStatusReadyToShip
		}
	case enums.CarrierStatusPickedUp, enums.CarrierStatusInTransit, enums.CarrierStatusOutForDelivery:
		if orders.CanTransition(order.Status, enums.OrderStatusShipped) {
			order.Status = enums.OrderStatusShipped
		}
		if order.Status == enums.OrderStatusShipped && order.Shipping.ShippedAt == nil {
			now := s.now()
			order.Shipping.ShippedAt = &now
			notifyShipped = true
		}
	case enums.CarrierStatusDelivered:
		if orders.CanTransition(order.Status, enums.OrderStatusDelivered) {
			order.Status = enums.OrderStatusDelivered
		}
		if order.Status == enums.OrderStatusDelivered && order.Shipping.DeliveredAt == nil {
			now := s.now()
			order.Shipping.DeliveredAt = &now
			notifyDelivered = true
		}
	case enums.CarrierStatusCancelled:
		if orders.CanTransition(order.Status, enums.OrderStatusCancelled) {
			order.Status = enums.OrderStatusCancelled
		}
	}
	return notifyShipped, notifyDelivered
}

func (s *Service) notifyShipped(ctx context.Context, order *models.Order) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.OrderShipped(ctx, order); err != nil {
		s.logger.Warn(s.logger.WithField(ctx, "error", err.Error()), "shipped email failed")
	}
}

func (s *Service) notifyDelivered(ctx context.Context, order *models.Order) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.OrderDelivered(ctx, order); err != nil {
		s.logger.Warn(s.logger.WithField(ctx, "error", err.Error()), "delivered email failed")
	}
}

// parseCarrierStatus maps the carrier's free-form status strings onto our
// enum. Carriers vary their casing and spacing between webhook versions.
func parseCarrierStatus(raw string) (enums.CarrierStatus, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	normalized = strings.ReplaceAll(normalized, " ", "_")
	normalized = strings.ReplaceAll(normalized, "-", "_")

	switch normalized {
	case "CREATED", "NEW":
		return enums.CarrierStatusCreated, true
	case "AWB_ASSIGNED":
		return enums.CarrierStatusAWBAssigned, true
	case "PICKUP_SCHEDULED", "PICKUP_GENERATED":
		return enums.CarrierStatusPickupScheduled, true
	case "PICKED_UP", "SHIPPED":
		return enums.CarrierStatusPickedUp, true
	case "IN_TRANSIT":
		return enums.CarrierStatusInTransit, true
	case "OUT_FOR_DELIVERY":
		return enums.CarrierStatusOutForDelivery, true
	case "DELIVERED":
		return enums.CarrierStatusDelivered, true
	case "CANCELED", "CANCELLED":
		return enums.CarrierStatusCancelled, true
	default:
		return "", false
	}
}
