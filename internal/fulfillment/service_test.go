package fulfillment

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
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
	"github.com/ledovalley/storefront-backend/pkg/types"
)

var fulfillmentTestTables = []string{`
CREATE TABLE product_variants (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  sku TEXT NOT NULL UNIQUE,
  title TEXT NOT NULL,
  price NUMERIC NOT NULL,
  discount_type TEXT,
  discount_value NUMERIC NOT NULL DEFAULT 0,
  stock INTEGER NOT NULL DEFAULT 0,
  weight TEXT,
  dimensions TEXT,
  status TEXT NOT NULL DEFAULT 'ACTIVE',
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE orders (
  id TEXT PRIMARY KEY,
  order_number TEXT NOT NULL UNIQUE,
  customer_id TEXT NOT NULL,
  customer_name TEXT NOT NULL,
  customer_phone TEXT NOT NULL,
  customer_email TEXT NOT NULL,
  shipping_address TEXT,
  coupon TEXT,
  items_total NUMERIC NOT NULL,
  discount_amount NUMERIC NOT NULL DEFAULT 0,
  gst_amount NUMERIC NOT NULL,
  shipping_amount NUMERIC NOT NULL,
  grand_total NUMERIC NOT NULL,
  status TEXT NOT NULL DEFAULT 'PAYMENT_PENDING',
  payment_status TEXT NOT NULL DEFAULT 'PENDING',
  payment_gateway_id TEXT,
  payment_mode TEXT,
  payment_paid_at DATETIME,
  payment_failure_reason TEXT,
  payment_refunded_at DATETIME,
  shipping_carrier_order_id TEXT,
  shipping_shipment_id TEXT,
  shipping_awb_code TEXT,
  shipping_courier_name TEXT,
  shipping_carrier_status TEXT,
  shipping_pickup_scheduled_at DATETIME,
  shipping_shipped_at DATETIME,
  shipping_delivered_at DATETIME,
  return_status TEXT NOT NULL DEFAULT 'NONE',
  return_reason TEXT,
  return_refund_amount NUMERIC,
  return_requested_at DATETIME,
  return_approved_at DATETIME,
  return_refunded_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  variant_id TEXT NOT NULL,
  title TEXT NOT NULL,
  variant_title TEXT NOT NULL,
  sku TEXT NOT NULL,
  image_url TEXT,
  unit_price NUMERIC NOT NULL,
  quantity INTEGER NOT NULL,
  line_total NUMERIC NOT NULL,
  weight TEXT,
  dimensions TEXT,
  created_at DATETIME
);`}

var fulfillmentTestTableNames = []string{"product_variants", "orders", "order_items"}

func setupFulfillmentTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	for _, name := range fulfillmentTestTableNames {
		require.NoError(t, db.Exec("DROP TABLE IF EXISTS "+name).Error)
	}
	for _, stmt := range fulfillmentTestTables {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

type gormTxRunner struct {
	db *gorm.DB
}

func (g gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return g.db.WithContext(ctx).Transaction(fn)
}

type fakeCarrier struct {
	createErr    error
	awbErr       error
	pickupErr    error
	createCalls  []shiprocket.CreateOrderRequest
	awbCalls     []string
	pickupCalls  []string
	nextShipment shiprocket.Shipment
}

func (f *fakeCarrier) CreateOrder(_ context.Context, req shiprocket.CreateOrderRequest) (*shiprocket.Shipment, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.createCalls = append(f.createCalls, req)
	shipment := f.nextShipment
	return &shipment, nil
}

func (f *fakeCarrier) AssignAWB(_ context.Context, shipmentID string) (*shiprocket.AWBResult, error) {
	if f.awbErr != nil {
		return nil, f.awbErr
	}
	f.awbCalls = append(f.awbCalls, shipmentID)
	return &shiprocket.AWBResult{AWBCode: "AWB123456", CourierName: "Delhivery"}, nil
}

func (f *fakeCarrier) RequestPickup(_ context.Context, shipmentID string) error {
	if f.pickupErr != nil {
		return f.pickupErr
	}
	f.pickupCalls = append(f.pickupCalls, shipmentID)
	return nil
}

func (f *fakeCarrier) PickupLocation() string { return "Home" }

type fakeRefunder struct {
	result  *payu.RefundResult
	err     error
	amounts []decimal.Decimal
}

func (f *fakeRefunder) Refund(_ context.Context, _ string, amount decimal.Decimal, _ string) (*payu.RefundResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.amounts = append(f.amounts, amount)
	if f.result != nil {
		return f.result, nil
	}
	return &payu.RefundResult{Succeeded: true, RequestID: "refund-req-1"}, nil
}

type fakeLifecycleNotifier struct {
	shipped   []string
	delivered []string
	refunded  []string
}

func (f *fakeLifecycleNotifier) OrderShipped(_ context.Context, order *models.Order) error {
	f.shipped = append(f.shipped, order.OrderNumber)
	return nil
}

func (f *fakeLifecycleNotifier) OrderDelivered(_ context.Context, order *models.Order) error {
	f.delivered = append(f.delivered, order.OrderNumber)
	return nil
}

func (f *fakeLifecycleNotifier) RefundProcessed(_ context.Context, order *models.Order, _ decimal.Decimal) error {
	f.refunded = append(f.refunded, order.OrderNumber)
	return nil
}

type fulfillmentFixture struct {
	db       *gorm.DB
	svc      *service
	carrier  *fakeCarrier
	refunder *fakeRefunder
	notifier *fakeLifecycleNotifier
}

func newFulfillmentFixture(t *testing.T) *fulfillmentFixture {
	t.Helper()

	db := setupFulfillmentTestDB(t)
	carrier := &fakeCarrier{nextShipment: shiprocket.Shipment{CarrierOrderID: "SR-778899", ShipmentID: "SHP-445566"}}
	refunder := &fakeRefunder{}
	n := &fakeLifecycleNotifier{}

	svc, err := NewService(
		orders.NewRepository(db),
		catalog.NewRepository(db),
		carrier, refunder, n,
		gormTxRunner{db: db},
		config.ReturnsConfig{WindowDays: 7},
		logger.New(logger.Options{ServiceName: "fulfillment-test", Output: io.Discard}),
	)
	require.NoError(t, err)
	return &fulfillmentFixture{
		db:       db,
		svc:      svc.(*service),
		carrier:  carrier,
		refunder: refunder,
		notifier: n,
	}
}

func (f *fulfillmentFixture) seedOrder(t *testing.T, status enums.OrderStatus, paid bool) *models.Order {
	t.Helper()

	variant := &models.ProductVariant{
		ID:        uuid.New(),
		ProductID: uuid.New(),
		SKU:       "HGT-" + uuid.NewString()[:8],
		Title:     "250g",
		Price:     decimal.NewFromInt(499),
		Stock:     8,
		Status:    enums.VariantStatusActive,
	}
	require.NoError(t, f.db.Create(variant).Error)

	order := &models.Order{
		ID:            uuid.New(),
		OrderNumber:   orders.NewOrderNumber(time.Now()),
		CustomerID:    uuid.New(),
		CustomerName:  "Asha Sharma",
		CustomerPhone: "+919876543210",
		CustomerEmail: "asha@example.com",
		ShippingAddress: types.AddressSnapshot{
			Name: "Asha Sharma", Phone: "+919876543210",
			AddressLine1: "14 Ridge Road", City: "Shimla",
			State: "Himachal Pradesh", Pincode: "171001",
		},
		ItemsTotal:     decimal.NewFromInt(998),
		GSTAmount:      decimal.NewFromFloat(79.84),
		ShippingAmount: decimal.NewFromInt(60),
		GrandTotal:     decimal.NewFromFloat(1137.84),
		Status:         status,
		Payment:        models.PaymentDetails{Status: enums.PaymentStatusPending},
		Return:         models.ReturnDetails{Status: enums.ReturnStatusNone},
		Items: []models.OrderItem{{
			ID:           uuid.New(),
			ProductID:    variant.ProductID,
			VariantID:    variant.ID,
			Title:        "Himalayan Green Tea",
			VariantTitle: "250g",
			SKU:          variant.SKU,
			UnitPrice:    decimal.NewFromInt(499),
			Quantity:     2,
			LineTotal:    decimal.NewFromInt(998),
			Weight:       types.Weight{Value: 250, Unit: enums.WeightUnitGram},
			Dimensions:   types.Dimensions{Length: 15, Breadth: 8, Height: 6},
		}},
	}
	if paid {
		gatewayID := "403993715531600000"
		paidAt := time.Now().Add(-time.Hour)
		order.Payment = models.PaymentDetails{
			Status:           enums.PaymentStatusSuccess,
			GatewayPaymentID: &gatewayID,
			PaidAt:           &paidAt,
		}
	}
	require.NoError(t, f.db.Create(order).Error)
	return order
}

func (f *fulfillmentFixture) reload(t *testing.T, id uuid.UUID) *models.Order {
	t.Helper()
	var order models.Order
	require.NoError(t, f.db.Preload("Items").First(&order, "id = ?", id).Error)
	return &order
}

func TestChangeStatusShipsOrder(t *testing.T) {
	f := newFulfillmentFixture(t)
	ctx := context.Background()

	order := f.seedOrder(t, enums.OrderStatusPaymentSuccess, true)

	dto, err := f.svc.ChangeStatus(ctx, order.ID, enums.OrderStatusReadyToShip)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusReadyToShip, dto.Status)

	require.Len(t, f.carrier.createCalls, 1)
	req := f.carrier.createCalls[0]
	assert.Equal(t, order.OrderNumber, req.OrderID)
	assert.Equal(t, "Home", req.PickupLocation)
	assert.Equal(t, "Asha", req.BillingFirstName)
	assert.Equal(t, "Sharma", req.BillingLastName)
	assert.Equal(t, "India", req.BillingCountry)
	assert.Equal(t, "Prepaid", req.PaymentMethod)
	assert.Equal(t, "1137.84", req.SubTotal)
	require.Len(t, req.Items, 1)
	assert.Equal(t, 2, req.Items[0].Units)
	assert.Equal(t, "499.00", req.Items[0].SellingPrice)
	assert.Equal(t, 0.5, req.WeightKg)

	reloaded := f.reload(t, order.ID)
	require.NotNil(t, reloaded.Shipping.ShipmentID)
	assert.Equal(t, "SHP-445566", *reloaded.Shipping.ShipmentID)
	require.NotNil(t, reloaded.Shipping.CarrierOrderID)
	assert.Equal(t, "SR-778899", *reloaded.Shipping.CarrierOrderID)
	require.NotNil(t, reloaded.Shipping.AWBCode)
	assert.Equal(t, "AWB123456", *reloaded.Shipping.AWBCode)
	require.NotNil(t, reloaded.Shipping.CarrierStatus)
	assert.Equal(t, enums.CarrierStatusPickupScheduled, *reloaded.Shipping.CarrierStatus)
	assert.NotNil(t, reloaded.Shipping.PickupScheduledAt)
}

func TestShipResumesWithoutDuplicateCarrierOrder(t *testing.T) {
	f := newFulfillmentFixture(t)
	ctx := context.Background()

	order := f.seedOrder(t, enums.OrderStatusPaymentSuccess, true)
	f.carrier.awbErr = pkgerrors.New(pkgerrors.CodeDependency, "shiprocket: awb assignment failed")

	_, err := f.svc.ChangeStatus(ctx, order.ID, enums.OrderStatusReadyToShip)
	require.Error(t, err)

	interim := f.reload(t, order.ID)
	require.NotNil(t, interim.Shipping.ShipmentID, "shipment id persisted before awb step")
	assert.Equal(t, enums.OrderStatusPaymentSuccess, interim.Status, "status unchanged until pickup succeeds")

	f.carrier.awbErr = nil
	_, err = f.svc.ChangeStatus(ctx, order.ID, enums.OrderStatusReadyToShip)
	require.NoError(t, err)

	assert.Len(t, f.carrier.createCalls, 1, "carrier order must not be created twice")
	assert.Len(t, f.carrier.awbCalls, 1)
}

func TestChangeStatusRejectsIllegalMove(t *testing.T) {
	f := newFulfillmentFixture(t)
	ctx := context.Background()

	order := f.seedOrder(t, enums.OrderStatusPaymentSuccess, true)

	_, err := f.svc.ChangeStatus(ctx, order.ID, enums.OrderStatusDelivered)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.CodeOf(err))
	assert.Contains(t, err.Error(), "cannot change status from PAYMENT_SUCCESS to DELIVERED")
}

func TestMarkShippedStampsTimestampAndNotifiesOnce(t *testing.T) {
	f := newFulfillmentFixture(t)
	ctx := context.Background()

	order := f.seedOrder(t, enums.OrderStatusReadyToShip, true)

	_, err := f.svc.ChangeStatus(ctx, order.ID, enums.OrderStatusShipped)
	require.NoError(t, err)

	reloaded := f.reload(t, order.ID)
	assert.Equal(t, enums.OrderStatusShipped, reloaded.Status)
	require.NotNil(t, reloaded.Shipping.ShippedAt)
	assert.Equal(t, []string{order.OrderNumber}, f.notifier.shipped)

	_, err = f.svc.ChangeStatus(ctx, order.ID, enums.OrderStatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, []string{order.OrderNumber}, f.notifier.delivered)
}

func TestCancelPaidOrderRefundsAndRestoresStock(t *testing.T) {
	f := newFulfillmentFixture(t)
	ctx := context.Background()

	order := f.seedOrder(t, enums.OrderStatusPaymentSuccess, true)

	dto, err := f.svc.CancelCustomerOrder(ctx, order.CustomerID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, dto.Status)

	require.Len(t, f.refunder.amounts, 1)
	assert.True(t, f.refunder.amounts[0].Equal(decimal.NewFromFloat(1137.84)))

	reloaded := f.reload(t, order.ID)
	assert.Equal(t, enums.PaymentStatusRefunded, reloaded.Payment.Status)
	assert.NotNil(t, reloaded.Payment.RefundedAt)

	var variant models.ProductVariant
	require.NoError(t, f.db.First(&variant, "id = ?", order.Items[0].VariantID).Error)
	assert.Equal(t, 10, variant.Stock, "cancelled quantity returned to stock")
}

func TestCancelAbortsWhenGatewayRefusesRefund(t *testing.T) {
	f := newFulfillmentFixture(t)
	ctx := context.Background()

	order := f.seedOrder(t, enums.OrderStatusPaymentSuccess, true)
	f.refunder.result = &payu.RefundResult{Succeeded: false, Message: "refund window closed"}

	_, err := f.svc.CancelCustomerOrder(ctx, order.CustomerID, order.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.CodeOf(err))

	reloaded := f.reload(t, order.ID)
	assert.Equal(t, enums.OrderStatusPaymentSuccess, reloaded.Status, "order untouched when refund fails")

	var variant models.ProductVariant
	require.NoError(t, f.db.First(&variant, "id = ?", order.Items[0].VariantID).Error)
	assert.Equal(t, 8, variant.Stock)
}

func TestCancelUnpaidOrderSkipsGateway(t *testing.T) {
	f := newFulfillmentFixture(t)
	ctx := context.Background()

	order := f.seedOrder(t, enums.OrderStatusPaymentPending, false)

	dto, err := f.svc.CancelCustomerOrder(ctx, order.CustomerID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, dto.Status)
	assert.Empty(t, f.refunder.amounts, "nothing was captured, nothing to refund")

	var variant models.ProductVariant
	require.NoError(t, f.db.First(&variant, "id = ?", order.Items[0].VariantID).Error)
	assert.Equal(t, 8, variant.Stock, "stock was never taken for an unpaid order")
}

func TestCancelCustomerOrderGuards(t *testing.T) {
	f := newFulfillmentFixture(t)
	ctx := context.Background()

	order := f.seedOrder(t, enums.OrderStatusShipped, true)

	_, err := f.svc.CancelCustomerOrder(ctx, order.CustomerID, order.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.CodeOf(err))

	_, err = f.svc.CancelCustomerOrder(ctx, uuid.New(), order.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestRequestReturnWithinWindow(t *testing.T) {
	f := newFulfillmentFixture(t)
	ctx := context.Background()

	order := f.seedOrder(t, enums.OrderStatusDelivered, true)
	deliveredAt := time.Now().Add(-3 * 24 * time.Hour)
	require.NoError(t, f.db.Model(&models.Order{}).Where("id = ?", order.ID).
		Update("shipping_delivered_at", deliveredAt).Error)

	dto, err := f.svc.RequestReturn(ctx, order.CustomerID, order.ID, "leaves arrived crushed")
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusReturnRequested, dto.Status)

	reloaded := f.reload(t, order.ID)
	assert.Equal(t, enums.ReturnStatusRequested, reloaded.Return.Status)
	require.NotNil(t, reloaded.Return.Reason)
	assert.Equal(t, "leaves arrived crushed", *reloaded.Return.Reason)
	assert.NotNil(t, reloaded.Return.RequestedAt)
}

func TestRequestReturnOutsideWindow(t *testing.T) {
	f := newFulfillmentFixture(t)
	ctx := context.Background()

	order := f.seedOrder(t, enums.OrderStatusDelivered, true)
	deliveredAt := time.Now().Add(-9 * 24 * time.Hour)
	require.NoError(t, f.db.Model(&models.Order{}).Where("id = ?", order.ID).
		Update("shipping_delivered_at", deliveredAt).Error)

	_, err := f.svc.RequestReturn(ctx, order.CustomerID, order.ID, "changed my mind")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
	assert.Contains(t, err.Error(), "7 days")
}

func TestRequestReturnOnlyOnceAndOnlyDelivered(t *testing.T) {
	f := newFulfillmentFixture(t)
	ctx := context.Background()

	shipped := f.seedOrder(t, enums.OrderStatusShipped, true)
	_, err := f.svc.RequestReturn(ctx, shipped.CustomerID, shipped.ID, "")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.CodeOf(err))

	delivered := f.seedOrder(t, enums.OrderStatusDelivered, true)
	deliveredAt := time.Now().Add(-time.Hour)
	require.NoError(t, f.db.Model(&models.Order{}).Where("id = ?", delivered.ID).
		Update("shipping_delivered_at", deliveredAt).Error)

	_, err = f.svc.RequestReturn(ctx, delivered.CustomerID, delivered.ID, "")
	require.NoError(t, err)

	_, err = f.svc.RequestReturn(ctx, delivered.CustomerID, delivered.ID, "")
	require.Error(t, err, "second request must be refused")
}

func TestApproveReturnSetsRefundAmount(t *testing.T) {
	f := newFulfillmentFixture(t)
	ctx := context.Background()

	order := f.seedOrder(t, enums.OrderStatusReturnRequested, true)
	require.NoError(t, f.db.Model(&models.Order{}).Where("id = ?", order.ID).
		Update("return_status", enums.ReturnStatusRequested).Error)

	dto, err := f.svc.ApproveReturn(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusReturnApproved, dto.Status)

	reloaded := f.reload(t, order.ID)
	assert.Equal(t, enums.ReturnStatusApproved, reloaded.Return.Status)
	assert.Equal(t, enums.PaymentStatusRefundPending, reloaded.Payment.Status)
	require.NotNil(t, reloaded.Return.RefundAmount)
	assert.True(t, reloaded.Return.RefundAmount.Equal(decimal.NewFromFloat(1137.84)))
	assert.NotNil(t, reloaded.Return.ApprovedAt)
}

func TestApproveReturnRequiresRequestedState(t *testing.T) {
	f := newFulfillmentFixture(t)
	ctx := context.Background()

	order := f.seedOrder(t, enums.OrderStatusDelivered, true)

	_, err := f.svc.ApproveReturn(ctx, order.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.CodeOf(err))
}

func TestCompleteRefundFinalizesReturn(t *testing.T) {
	f := newFulfillmentFixture(t)
	ctx := context.Background()

	order := f.seedOrder(t, enums.OrderStatusReturnApproved, true)
	refundAmount := decimal.NewFromFloat(1137.84)
	require.NoError(t, f.db.Model(&models.Order{}).Where("id = ?", order.ID).
		Updates(map[string]any{
			"return_status":        enums.ReturnStatusApproved,
			"return_refund_amount": refundAmount,
			"payment_status":       enums.PaymentStatusRefundPending,
		}).Error)

	dto, err := f.svc.CompleteRefund(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusRefunded, dto.Status)

	require.Len(t, f.refunder.amounts, 1)
	assert.True(t, f.refunder.amounts[0].Equal(refundAmount))

	reloaded := f.reload(t, order.ID)
	assert.Equal(t, enums.PaymentStatusRefunded, reloaded.Payment.Status)
	assert.Equal(t, enums.ReturnStatusCompleted, reloaded.Return.Status)
	assert.NotNil(t, reloaded.Return.RefundedAt)

	var variant models.ProductVariant
	require.NoError(t, f.db.First(&variant, "id = ?", order.Items[0].VariantID).Error)
	assert.Equal(t, 10, variant.Stock, "returned quantity goes back to stock")

	assert.Equal(t, []string{order.OrderNumber}, f.notifier.refunded)
}

func TestCompleteRefundAbortsWhenGatewayFails(t *testing.T) {
	f := newFulfillmentFixture(t)
	ctx := context.Background()

	order := f.seedOrder(t, enums.OrderStatusReturnApproved, true)
	require.NoError(t, f.db.Model(&models.Order{}).Where("id = ?", order.ID).
		Update("return_status", enums.ReturnStatusApproved).Error)
	f.refunder.err = pkgerrors.New(pkgerrors.CodeDependency, "payu: refund api unavailable")

	_, err := f.svc.CompleteRefund(ctx, order.ID)
	require.Error(t, err)

	reloaded := f.reload(t, order.ID)
	assert.Equal(t, enums.OrderStatusReturnApproved, reloaded.Status, "nothing written when refund fails")
	assert.Empty(t, f.notifier.refunded)
}
