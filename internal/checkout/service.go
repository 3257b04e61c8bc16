package checkout

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
	"github.com/ledovalley/storefront-backend/internal/coupons"
	"github.com/ledovalley/storefront-backend/internal/customers"
	"github.com/ledovalley/storefront-backend/internal/orders"
	"github.com/ledovalley/storefront-backend/pkg/config"
	"github.com/ledovalley/storefront-backend/pkg/db/models"
	"github.com/ledovalley/storefront-backend/pkg/enums"
	pkgerrors "github.com/ledovalley/storefront-backend/pkg/errors"
	"github.com/ledovalley/storefront-backend/pkg/logger"
	"github.com/ledovalley/storefront-backend/pkg/payu"
	"github.com/ledovalley/storefront-backend/pkg/types"
)

// Input identifies the address and optional coupon for a checkout.
type Input struct {
	AddressID  uuid.UUID `json:"addressId"`
	CouponCode string    `json:"couponCode"`
}

// Result is the pending order plus the gateway redirect payload.
type Result struct {
	Order   *orders.OrderDTO    `json:"order"`
	Payment payu.PaymentRequest `json:"payment"`
}

// Service turns a cart into a pending order and a payment session.
type Service interface {
	Checkout(ctx context.Context, customerID uuid.UUID, input Input) (*Result, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// gateway is the slice of the PayU client checkout needs.
type gateway interface {
	BuildPaymentRequest(txnID string, amount decimal.Decimal, firstname, email, phone, successURL, failureURL string) payu.PaymentRequest
}

type service struct {
	customers   customers.Repository
	catalog     catalog.Repository
	coupons     coupons.Repository
	orders      orders.Repository
	gateway     gateway
	dbClient    txRunner
	checkoutCfg config.CheckoutConfig
	appCfg      config.AppConfig
	logger      *logger.Logger
	now         func() time.Time
}

// NewService constructs the checkout orchestrator.
func NewService(
	customersRepo customers.Repository,
	catalogRepo catalog.Repository,
	couponsRepo coupons.Repository,
	ordersRepo orders.Repository,
	gw gateway,
	dbClient txRunner,
	checkoutCfg config.CheckoutConfig,
	appCfg config.AppConfig,
	logg *logger.Logger,
) (Service, error) {
	if customersRepo == nil || catalogRepo == nil || couponsRepo == nil || ordersRepo == nil {
		return nil, fmt.Errorf("checkout repositories required")
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
		customers:   customersRepo,
		catalog:     catalogRepo,
		coupons:     couponsRepo,
		orders:      ordersRepo,
		gateway:     gw,
		dbClient:    dbClient,
		checkoutCfg: checkoutCfg,
		appCfg:      appCfg,
		logger:      logg,
		now:         time.Now,
	}, nil
}

// Checkout snapshots the cart into a PAYMENT_PENDING order inside one
// transaction. Nothing is decremented here; stock moves only when the
// payment-success callback lands.
func (s *service) Checkout(ctx context.Context, customerID uuid.UUID, input Input) (*Result, error) {
	var created *models.Order

	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		customersRepo := s.customers.WithTx(tx)
		catalogRepo := s.catalog.WithTx(tx)
		couponsRepo := s.coupons.WithTx(tx)
		ordersRepo := s.orders.WithTx(tx)

		customer, err := customersRepo.FindByID(ctx, customerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find customer")
		}

		address, err := customersRepo.FindAddress(ctx, customerID, input.AddressID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find address")
		}

		cartItems, err := customersRepo.ListCartItems(ctx, customerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list cart items")
		}
		if len(cartItems) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		if _, err := ordersRepo.FindPendingByCustomer(ctx, customerID); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "a payment is already in progress for another order")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find pending order")
		}

		orderItems, itemsTotal, err := s.buildOrderItems(ctx, catalogRepo, cartItems)
		if err != nil {
			return err
		}

		var couponSnapshot *types.CouponSnapshot
		discount := decimal.Zero
		if code := strings.TrimSpace(input.CouponCode); code != "" {
			coupon, err := couponsRepo.FindByCode(ctx, code)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find coupon")
			}
			if err := coupons.Validate(coupon, itemsTotal, s.now()); err != nil {
				return err
			}
			discount = coupons.Discount(coupon, itemsTotal)
			couponSnapshot = &types.CouponSnapshot{
				Code:           coupon.Code,
				Type:           coupon.Type,
				Value:          coupon.Value,
				DiscountAmount: discount,
			}
		}

		taxable := itemsTotal.Sub(discount)
		gst := taxable.Mul(s.checkoutCfg.GSTRate()).Round(2)
		grandTotal := taxable.Add(gst).Add(s.checkoutCfg.ShippingAmount()).Round(2)
		if !grandTotal.IsPositive() {
			return pkgerrors.New(pkgerrors.CodeValidation, "order total must be positive")
		}

		orderNumber, err := s.uniqueOrderNumber(ctx, ordersRepo)
		if err != nil {
			return err
		}

		email := ""
		if customer.Email != nil {
			email = *customer.Email
		}

		order := &models.Order{
			OrderNumber:     orderNumber,
			CustomerID:      customer.ID,
			CustomerName:    customer.Name,
			CustomerPhone:   customer.Phone,
			CustomerEmail:   email,
			ShippingAddress: address.Snapshot(),
			Coupon:          couponSnapshot,
			ItemsTotal:      itemsTotal,
			DiscountAmount:  discount,
			GSTAmount:       gst,
			ShippingAmount:  s.checkoutCfg.ShippingAmount(),
			GrandTotal:      grandTotal,
			Status:          enums.OrderStatusPaymentPending,
			Payment:         models.PaymentDetails{Status: enums.PaymentStatusPending},
			Return:          models.ReturnDetails{Status: enums.ReturnStatusNone},
			Items:           orderItems,
		}
		created, err = ordersRepo.Create(ctx, order)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	payment := s.gateway.BuildPaymentRequest(
		created.OrderNumber,
		created.GrandTotal,
		created.CustomerName,
		created.CustomerEmail,
		created.CustomerPhone,
		s.appCfg.BaseURL+"/api/payment/success",
		s.appCfg.BaseURL+"/api/payment/failure",
	)

	s.logger.Info(s.logger.WithOrderNumber(ctx, created.OrderNumber), "checkout order created")
	return &Result{Order: orders.ToDTO(created), Payment: payment}, nil
}

// buildOrderItems reprices every cart line from the live variant and
// freezes the result. Any unavailable or under-stocked line fails the
// whole checkout.
func (s *service) buildOrderItems(ctx context.Context, catalogRepo catalog.Repository, cartItems []models.CartItem) ([]models.OrderItem, decimal.Decimal, error) {
	items := make([]models.OrderItem, 0, len(cartItems))
	itemsTotal := decimal.Zero
	productsByID := make(map[uuid.UUID]*models.Product)

	for i := range cartItems {
		line := &cartItems[i]

		variant, err := catalogRepo.FindVariant(ctx, line.VariantID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "a cart item is no longer sold")
			}
			return nil, decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find variant")
		}

		product, ok := productsByID[variant.ProductID]
		if !ok {
			product, err = catalogRepo.FindByID(ctx, variant.ProductID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "a cart item is no longer sold")
				}
				return nil, decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find product")
			}
			productsByID[variant.ProductID] = product
		}

		if !catalog.Available(product, variant) {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeConflict,
				fmt.Sprintf("%s (%s) is currently unavailable", product.Title, variant.Title))
		}
		if line.Quantity > variant.Stock {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeConflict,
				fmt.Sprintf("only %d left in stock for %s (%s)", variant.Stock, product.Title, variant.Title))
		}

		unitPrice := catalog.VariantFinalPrice(variant)
		lineTotal := unitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))).Round(2)

		item := models.OrderItem{
			ProductID:    product.ID,
			VariantID:    variant.ID,
			Title:        product.Title,
			VariantTitle: variant.Title,
			SKU:          variant.SKU,
			UnitPrice:    unitPrice,
			Quantity:     line.Quantity,
			LineTotal:    lineTotal,
			Weight:       variant.Weight,
			Dimensions:   variant.Dimensions,
		}
		if len(product.ImageURLs) > 0 {
			item.ImageURL = &product.ImageURLs[0]
		}
		items = append(items, item)
		itemsTotal = itemsTotal.Add(lineTotal)
	}
	return items, itemsTotal, nil
}

func (s *service) uniqueOrderNumber(ctx context.Context, ordersRepo orders.Repository) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		candidate := orders.NewOrderNumber(s.now())
		exists, err := ordersRepo.OrderNumberExists(ctx, candidate)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check order number")
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeInternal, "could not allocate a unique order number")
}
