package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ledovalley/storefront-backend/internal/catalog"
	"github.com/ledovalley/storefront-backend/internal/coupons"
	"github.com/ledovalley/storefront-backend/internal/customers"
	"github.com/ledovalley/storefront-backend/internal/orders"
	"github.com/ledovalley/storefront-backend/pkg/config"
	"github.com/ledovalley/storefront-backend/pkg/db/models"
	"github.com/ledovalley/storefront-backend/pkg/enums"
	pkgerrors "github.com/ledovalley/storefront-backend/pkg/errors"
	"github.com/ledovalley/storefront-backend/pkg/logger"
	"github.com/ledovalley/storefront-backend/pkg/payu"
)

// RetryResult is a fresh payment session for a failed order.
type RetryResult struct {
	Order   *orders.OrderDTO    `json:"order"`
	Payment payu.PaymentRequest `json:"payment"`
}

// Service applies gateway callbacks to orders and restarts failed payments.
type Service interface {
	// HandleSuccess processes the gateway's success redirect. The returned
	// URL is where the customer's browser should land; it points at the
	// failure page when the callback cannot be trusted or applied.
	HandleSuccess(ctx context.Context, payload payu.ReturnPayload) (string, error)
	// HandleFailure records a failed payment. It never downgrades an order
	// whose payment already succeeded.
	HandleFailure(ctx context.Context, payload payu.ReturnPayload) (string, error)
	RetryPayment(ctx context.Context, customerID, orderID uuid.UUID) (*RetryResult, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// gateway is the slice of the PayU client payments need.
type gateway interface {
	VerifyReturn(p payu.ReturnPayload) error
	BuildPaymentRequest(txnID string, amount decimal.Decimal, firstname, email, phone, successURL, failureURL string) payu.PaymentRequest
}

// notifier sends the post-payment customer email. Failures are logged,
// never surfaced to the gateway.
type notifier interface {
	OrderConfirmed(ctx context.Context, order *models.Order) error
}

// invoiceWriter produces the invoice artifact for a paid order.
type invoiceWriter interface {
	Generate(ctx context.Context, order *models.Order) (string, error)
}

type service struct {
	orders    orders.Repository
	catalog   catalog.Repository
	customers customers.Repository
	coupons   coupons.Repository
	gateway   gateway
	notifier  notifier
	invoices  invoiceWriter
	dbClient  txRunner
	appCfg    config.AppConfig
	logger    *logger.Logger
	now       func() time.Time
}

// NewService constructs the payment callback service.
func NewService(
	ordersRepo orders.Repository,
	catalogRepo catalog.Repository,
	customersRepo customers.Repository,
	couponsRepo coupons.Repository,
	gw gateway,
	n notifier,
	inv invoiceWriter,
	dbClient txRunner,
	appCfg config.AppConfig,
	logg *logger.Logger,
) (Service, error) {
	if ordersRepo == nil || catalogRepo == nil || customersRepo == nil || couponsRepo == nil {
		return nil, fmt.Errorf("payment repositories required")
	}
	if gw == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		orders:    ordersRepo,
		catalog:   catalogRepo,
		customers: customersRepo,
		coupons:   couponsRepo,
		gateway:   gw,
		notifier:  n,
		invoices:  inv,
		dbClient:  dbClient,
		appCfg:    appCfg,
		logger:    logg,
		now:       time.Now,
	}, nil
}

func (s *service) successURL() string {
	return s.appCfg.FrontendURL + "/payment/payment-success"
}

func (s *service) failureURL() string {
	return s.appCfg.FrontendURL + "/payment/payment-failed"
}

func (s *service) HandleSuccess(ctx context.Context, payload payu.ReturnPayload) (string, error) {
	ctx = s.logger.WithOrderNumber(ctx, payload.TxnID)

	// The reverse hash signs whatever status the gateway reported, so a
	// legitimately signed failure redirect replayed against this endpoint
	// still verifies. The status field is part of the contract.
	if payload.Status != "success" {
		err := pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("gateway reported status %q on the success callback", payload.Status))
		s.logger.Warn(s.logger.WithField(ctx, "gateway_status", payload.Status), "payment success callback rejected")
		return s.failureURL(), err
	}

	if err := s.gateway.VerifyReturn(payload); err != nil {
		s.logger.Warn(s.logger.WithField(ctx, "error", err.Error()), "payment success callback rejected")
		return s.failureURL(), err
	}

	var finalized *models.Order
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		ordersRepo := s.orders.WithTx(tx)
		catalogRepo := s.catalog.WithTx(tx)
		customersRepo := s.customers.WithTx(tx)
		couponsRepo := s.coupons.WithTx(tx)

		order, err := ordersRepo.FindByOrderNumber(ctx, payload.TxnID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find order")
		}

		// Gateways retry callbacks; a replay after success is a no-op.
		if order.Payment.Status == enums.PaymentStatusSuccess {
			return nil
		}

		now := s.now()
		order.Payment.Status = enums.PaymentStatusSuccess
		order.Payment.PaidAt = &now
		if payload.PaymentID != "" {
			paymentID := payload.PaymentID
			order.Payment.GatewayPaymentID = &paymentID
		}
		if payload.Mode != "" {
			mode := payload.Mode
			order.Payment.Mode = &mode
		}
		order.Status = enums.OrderStatusPaymentSuccess

		for i := range order.Items {
			item := &order.Items[i]
			ok, err := catalogRepo.DecrementVariantStock(ctx, item.VariantID, item.Quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: decrement stock")
			}
			if !ok {
				// Lost the race against a concurrent checkout. The whole
				// transaction rolls back and the order stays pending.
				return pkgerrors.New(pkgerrors.CodeConflict,
					fmt.Sprintf("insufficient stock for %s", item.SKU))
			}
		}

		if err := customersRepo.ClearCart(ctx, order.CustomerID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: clear cart")
		}
		if order.Coupon != nil {
			if err := couponsRepo.IncrementUsage(ctx, order.Coupon.Code); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: increment coupon usage")
			}
		}

		if err := ordersRepo.Save(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save order")
		}
		finalized = order
		return nil
	})
	if err != nil {
		s.logger.Error(ctx, "payment success callback failed", err)
		return s.failureURL(), err
	}

	if finalized != nil {
		s.postPaymentEffects(ctx, finalized)
		s.logger.Info(ctx, "payment captured")
	}
	return s.successURL(), nil
}

// postPaymentEffects runs after the commit; the payment is already final,
// so invoice or email trouble is logged and swallowed.
func (s *service) postPaymentEffects(ctx context.Context, order *models.Order) {
	if s.invoices != nil {
		if _, err := s.invoices.Generate(ctx, order); err != nil {
			s.logger.Warn(s.logger.WithField(ctx, "error", err.Error()), "invoice generation failed")
		}
	}
	if s.notifier != nil {
		if err := s.notifier.OrderConfirmed(ctx, order); err != nil {
			s.logger.Warn(s.logger.WithField(ctx, "error", err.Error()), "confirmation email failed")
		}
	}
}

func (s *service) HandleFailure(ctx context.Context, payload payu.ReturnPayload) (string, error) {
	ctx = s.logger.WithOrderNumber(ctx, payload.TxnID)

	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		ordersRepo := s.orders.WithTx(tx)

		order, err := ordersRepo.FindByOrderNumber(ctx, payload.TxnID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find order")
		}

		// A late failure callback for a captured payment is ignored.
		if order.Payment.Status == enums.PaymentStatusSuccess {
			return nil
		}

		order.Payment.Status = enums.PaymentStatusFailed
		if payload.ErrorMsg != "" {
			reason := payload.ErrorMsg
			order.Payment.FailureReason = &reason
		}
		order.Status = enums.OrderStatusPaymentFailed

		if err := ordersRepo.Save(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save order")
		}
		s.logger.Info(ctx, "payment failed")
		return nil
	})
	if err != nil {
		s.logger.Error(ctx, "payment failure callback failed", err)
	}
	return s.failureURL(), err
}

func (s *service) RetryPayment(ctx context.Context, customerID, orderID uuid.UUID) (*RetryResult, error) {
	var order *models.Order

	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		ordersRepo := s.orders.WithTx(tx)

		found, err := ordersRepo.FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find order")
		}
		if found.CustomerID != customerID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		if found.Status != enums.OrderStatusPaymentFailed {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot retry payment for an order in %s", found.Status))
		}

		if _, err := ordersRepo.FindPendingByCustomer(ctx, customerID); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "a payment is already in progress for another order")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find pending order")
		}

		found.Status = enums.OrderStatusPaymentPending
		found.Payment.Status = enums.PaymentStatusPending
		found.Payment.FailureReason = nil

		if err := ordersRepo.Save(ctx, found); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save order")
		}
		order = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	payment := s.gateway.BuildPaymentRequest(
		order.OrderNumber,
		order.GrandTotal,
		order.CustomerName,
		order.CustomerEmail,
		order.CustomerPhone,
		s.appCfg.BaseURL+"/api/payment/success",
		s.appCfg.BaseURL+"/api/payment/failure",
	)

	s.logger.Info(s.logger.WithOrderNumber(ctx, order.OrderNumber), "payment retry issued")
	return &RetryResult{Order: orders.ToDTO(order), Payment: payment}, nil
}
