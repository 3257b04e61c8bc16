package orders

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ledovalley/storefront-backend/pkg/db/models"
	"github.com/ledovalley/storefront-backend/pkg/enums"
	"github.com/ledovalley/storefront-backend/pkg/pagination"
)

// AdminListFilters narrows the admin order list.
type AdminListFilters struct {
	Status        *enums.OrderStatus
	PaymentStatus *enums.PaymentStatus
	Search        string
	From          *time.Time
	To            *time.Time
	SortAscending bool
	Page          int
	Limit         int
}

// OrderList is one cursor page of a customer's orders.
type OrderList struct {
	Items      []models.Order
	NextCursor string
}

// AdminOrderList is one offset page of the admin order list.
type AdminOrderList struct {
	Items []models.Order
	Total int64
	Page  int
	Limit int
}

// Repository defines persistence operations for orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	Save(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	FindByCarrierOrderID(ctx context.Context, carrierOrderID string) (*models.Order, error)
	FindPendingByCustomer(ctx context.Context, customerID uuid.UUID) (*models.Order, error)
	OrderNumberExists(ctx context.Context, orderNumber string) (bool, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*OrderList, error)
	ListAdmin(ctx context.Context, filters AdminListFilters) (*AdminOrderList, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// Save persists the order row itself. Items are immutable snapshots and are
// never rewritten after checkout.
func (r *repository) Save(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Omit("Items").Save(order).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Preload("Items").First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Preload("Items").
		First(&order, "order_number = ?", strings.TrimSpace(orderNumber)).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByCarrierOrderID(ctx context.Context, carrierOrderID string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Preload("Items").
		First(&order, "shipping_carrier_order_id = ?", strings.TrimSpace(carrierOrderID)).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindPendingByCustomer(ctx context.Context, customerID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Preload("Items").
		First(&order, "customer_id = ? AND status = ?", customerID, enums.OrderStatusPaymentPending).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) OrderNumberExists(ctx context.Context, orderNumber string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("order_number = ?", orderNumber).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) ListByCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*OrderList, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{}).
		Preload("Items").
		Where("customer_id = ?", customerID).
		Order("created_at DESC, id DESC")

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	limit := pagination.NormalizeLimit(params.Limit)
	var rows []models.Order
	if err := query.Limit(pagination.LimitWithBuffer(params.Limit)).Find(&rows).Error; err != nil {
		return nil, err
	}

	list := &OrderList{Items: rows}
	if len(rows) > limit {
		list.Items = rows[:limit]
		last := list.Items[limit-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return list, nil
}

func (r *repository) ListAdmin(ctx context.Context, filters AdminListFilters) (*AdminOrderList, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{})

	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.PaymentStatus != nil {
		query = query.Where("payment_status = ?", *filters.PaymentStatus)
	}
	if search := strings.TrimSpace(filters.Search); search != "" {
		like := "%" + search + "%"
		query = query.Where(
			"order_number LIKE ? OR customer_name LIKE ? OR customer_phone LIKE ?",
			like, like, like,
		)
	}
	if filters.From != nil {
		query = query.Where("created_at >= ?", *filters.From)
	}
	if filters.To != nil {
		query = query.Where("created_at <= ?", *filters.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	page := filters.Page
	if page < 1 {
		page = 1
	}
	limit := pagination.NormalizeLimit(filters.Limit)

	direction := "DESC"
	if filters.SortAscending {
		direction = "ASC"
	}

	var rows []models.Order
	err := query.Preload("Items").
		Order("created_at " + direction + ", id " + direction).
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	return &AdminOrderList{Items: rows, Total: total, Page: page, Limit: limit}, nil
}
