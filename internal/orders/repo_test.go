package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ledovalley/storefront-backend/pkg/db/models"
	"github.com/ledovalley/storefront-backend/pkg/enums"
	"github.com/ledovalley/storefront-backend/pkg/pagination"
	"github.com/ledovalley/storefront-backend/pkg/types"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	orders := `
CREATE TABLE IF NOT EXISTS orders (
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
);`
	items := `
CREATE TABLE IF NOT EXISTS order_items (
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
);`
	require.NoError(t, db.Exec("DROP TABLE IF EXISTS orders").Error)
	require.NoError(t, db.Exec("DROP TABLE IF EXISTS order_items").Error)
	require.NoError(t, db.Exec(orders).Error)
	require.NoError(t, db.Exec(items).Error)
	return db
}

func seedOrder(t *testing.T, db *gorm.DB, customerID uuid.UUID, status enums.OrderStatus, createdAt time.Time) *models.Order {
	t.Helper()

	order := &models.Order{
		ID:            uuid.New(),
		OrderNumber:   NewOrderNumber(createdAt) + uuid.NewString()[:4],
		CustomerID:    customerID,
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
			ProductID:    uuid.New(),
			VariantID:    uuid.New(),
			Title:        "Himalayan Green Tea",
			VariantTitle: "250g",
			SKU:          "HGT-250",
			UnitPrice:    decimal.NewFromInt(499),
			Quantity:     2,
			LineTotal:    decimal.NewFromInt(998),
		}},
	}
	require.NoError(t, db.Create(order).Error)
	require.NoError(t, db.Model(order).UpdateColumn("created_at", createdAt).Error)
	order.CreatedAt = createdAt
	return order
}

func TestRepositoryFindByOrderNumber(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := seedOrder(t, db, uuid.New(), enums.OrderStatusPaymentPending, time.Now())

	found, err := repo.FindByOrderNumber(ctx, " "+order.OrderNumber+" ")
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)
	require.Len(t, found.Items, 1)
	assert.Equal(t, "HGT-250", found.Items[0].SKU)

	exists, err := repo.OrderNumberExists(ctx, order.OrderNumber)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRepositoryFindByCarrierOrderID(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := seedOrder(t, db, uuid.New(), enums.OrderStatusReadyToShip, time.Now())
	carrierID := "791234567"
	order.Shipping.CarrierOrderID = &carrierID
	require.NoError(t, repo.Save(ctx, order))

	found, err := repo.FindByCarrierOrderID(ctx, carrierID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)

	_, err = repo.FindByCarrierOrderID(ctx, "000000")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryFindPendingByCustomer(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	customerID := uuid.New()
	seedOrder(t, db, customerID, enums.OrderStatusPaymentSuccess, time.Now().Add(-time.Hour))
	pending := seedOrder(t, db, customerID, enums.OrderStatusPaymentPending, time.Now())

	found, err := repo.FindPendingByCustomer(ctx, customerID)
	require.NoError(t, err)
	assert.Equal(t, pending.ID, found.ID)

	_, err = repo.FindPendingByCustomer(ctx, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryListByCustomerPaginates(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	customerID := uuid.New()
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		seedOrder(t, db, customerID, enums.OrderStatusPaymentSuccess, base.Add(time.Duration(i)*time.Minute))
	}
	seedOrder(t, db, uuid.New(), enums.OrderStatusPaymentSuccess, base)

	page1, err := repo.ListByCustomer(ctx, customerID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page1.Items, 2)
	require.NotEmpty(t, page1.NextCursor)

	page2, err := repo.ListByCustomer(ctx, customerID, pagination.Params{Limit: 2, Cursor: page1.NextCursor})
	require.NoError(t, err)
	assert.Len(t, page2.Items, 1)
	assert.Empty(t, page2.NextCursor)
}

func TestRepositoryListAdminFilters(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 2; i++ {
		seedOrder(t, db, uuid.New(), enums.OrderStatusPaymentSuccess, base.Add(time.Duration(i)*time.Minute))
	}
	shipped := seedOrder(t, db, uuid.New(), enums.OrderStatusShipped, base.Add(5*time.Minute))

	status := enums.OrderStatusShipped
	byStatus, err := repo.ListAdmin(ctx, AdminListFilters{Status: &status})
	require.NoError(t, err)
	require.Len(t, byStatus.Items, 1)
	assert.Equal(t, shipped.ID, byStatus.Items[0].ID)
	assert.EqualValues(t, 1, byStatus.Total)

	bySearch, err := repo.ListAdmin(ctx, AdminListFilters{Search: shipped.OrderNumber})
	require.NoError(t, err)
	require.Len(t, bySearch.Items, 1)

	paged, err := repo.ListAdmin(ctx, AdminListFilters{Limit: 2, Page: 2})
	require.NoError(t, err)
	assert.Len(t, paged.Items, 1)
	assert.EqualValues(t, 3, paged.Total)

	from := base.Add(4 * time.Minute)
	byDate, err := repo.ListAdmin(ctx, AdminListFilters{From: &from})
	require.NoError(t, err)
	assert.Len(t, byDate.Items, 1)

	ascending, err := repo.ListAdmin(ctx, AdminListFilters{SortAscending: true})
	require.NoError(t, err)
	require.Len(t, ascending.Items, 3)
	assert.True(t, ascending.Items[0].CreatedAt.Before(ascending.Items[2].CreatedAt))
}
