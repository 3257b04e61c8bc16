package customers

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ledovalley/storefront-backend/pkg/db/models"
)

// Repository defines persistence operations for customers and the
// customer-owned collections (addresses, cart, wishlist).
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	FindByPhone(ctx context.Context, phone string) (*models.Customer, error)
	Create(ctx context.Context, customer *models.Customer) (*models.Customer, error)
	Save(ctx context.Context, customer *models.Customer) error

	ListAddresses(ctx context.Context, customerID uuid.UUID) ([]models.CustomerAddress, error)
	FindAddress(ctx context.Context, customerID, addressID uuid.UUID) (*models.CustomerAddress, error)
	CreateAddress(ctx context.Context, address *models.CustomerAddress) (*models.CustomerAddress, error)
	SaveAddress(ctx context.Context, address *models.CustomerAddress) error
	DeleteAddress(ctx context.Context, customerID, addressID uuid.UUID) error
	ClearDefaultAddress(ctx context.Context, customerID uuid.UUID) error

	ListCartItems(ctx context.Context, customerID uuid.UUID) ([]models.CartItem, error)
	FindCartItemByVariant(ctx context.Context, customerID, variantID uuid.UUID) (*models.CartItem, error)
	FindCartItem(ctx context.Context, customerID, itemID uuid.UUID) (*models.CartItem, error)
	SaveCartItem(ctx context.Context, item *models.CartItem) error
	DeleteCartItem(ctx context.Context, customerID, itemID uuid.UUID) error
	ClearCart(ctx context.Context, customerID uuid.UUID) error

	ListWishlist(ctx context.Context, customerID uuid.UUID) ([]models.WishlistItem, error)
	AddWishlistItem(ctx context.Context, item *models.WishlistItem) error
	RemoveWishlistItem(ctx context.Context, customerID, productID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a customers repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).First(&customer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *repository) FindByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).First(&customer, "phone = ?", strings.TrimSpace(phone)).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *repository) Create(ctx context.Context, customer *models.Customer) (*models.Customer, error) {
	if err := r.db.WithContext(ctx).Create(customer).Error; err != nil {
		return nil, err
	}
	return customer, nil
}

func (r *repository) Save(ctx context.Context, customer *models.Customer) error {
	return r.db.WithContext(ctx).Save(customer).Error
}

func (r *repository) ListAddresses(ctx context.Context, customerID uuid.UUID) ([]models.CustomerAddress, error) {
	var rows []models.CustomerAddress
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("is_default DESC, created_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) FindAddress(ctx context.Context, customerID, addressID uuid.UUID) (*models.CustomerAddress, error) {
	var address models.CustomerAddress
	err := r.db.WithContext(ctx).
		First(&address, "id = ? AND customer_id = ?", addressID, customerID).Error
	if err != nil {
		return nil, err
	}
	return &address, nil
}

func (r *repository) CreateAddress(ctx context.Context, address *models.CustomerAddress) (*models.CustomerAddress, error) {
	if err := r.db.WithContext(ctx).Create(address).Error; err != nil {
		return nil, err
	}
	return address, nil
}

func (r *repository) SaveAddress(ctx context.Context, address *models.CustomerAddress) error {
	return r.db.WithContext(ctx).Save(address).Error
}

func (r *repository) DeleteAddress(ctx context.Context, customerID, addressID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ? AND customer_id = ?", addressID, customerID).
		Delete(&models.CustomerAddress{}).Error
}

func (r *repository) ClearDefaultAddress(ctx context.Context, customerID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.CustomerAddress{}).
		Where("customer_id = ? AND is_default = ?", customerID, true).
		Update("is_default", false).Error
}

func (r *repository) ListCartItems(ctx context.Context, customerID uuid.UUID) ([]models.CartItem, error) {
	var rows []models.CartItem
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) FindCartItemByVariant(ctx context.Context, customerID, variantID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		First(&item, "customer_id = ? AND variant_id = ?", customerID, variantID).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) FindCartItem(ctx context.Context, customerID, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		First(&item, "id = ? AND customer_id = ?", itemID, customerID).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) SaveCartItem(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *repository) DeleteCartItem(ctx context.Context, customerID, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ? AND customer_id = ?", itemID, customerID).
		Delete(&models.CartItem{}).Error
}

func (r *repository) ClearCart(ctx context.Context, customerID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Delete(&models.CartItem{}).Error
}

func (r *repository) ListWishlist(ctx context.Context, customerID uuid.UUID) ([]models.WishlistItem, error) {
	var rows []models.WishlistItem
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) AddWishlistItem(ctx context.Context, item *models.WishlistItem) error {
	return r.db.WithContext(ctx).
		Where("customer_id = ? AND product_id = ?", item.CustomerID, item.ProductID).
		FirstOrCreate(item).Error
}

func (r *repository) RemoveWishlistItem(ctx context.Context, customerID, productID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("customer_id = ? AND product_id = ?", customerID, productID).
		Delete(&models.WishlistItem{}).Error
}
