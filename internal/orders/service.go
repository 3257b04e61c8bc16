package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/ledovalley/storefront-backend/pkg/errors"
	"github.com/ledovalley/storefront-backend/pkg/pagination"
)

// Service exposes the read side of orders. Lifecycle mutations go through
// the checkout, payments, and fulfillment services.
type Service interface {
	ListCustomerOrders(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*OrderListDTO, error)
	GetCustomerOrder(ctx context.Context, customerID, orderID uuid.UUID) (*OrderDTO, error)
	ListAdminOrders(ctx context.Context, filters AdminListFilters) (*AdminOrderListDTO, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error)
}

type service struct {
	repo Repository
}

// NewService constructs the orders read service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListCustomerOrders(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*OrderListDTO, error) {
	list, err := s.repo.ListByCustomer(ctx, customerID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list customer orders")
	}

	result := &OrderListDTO{
		Items:      make([]OrderDTO, 0, len(list.Items)),
		NextCursor: list.NextCursor,
	}
	for i := range list.Items {
		result.Items = append(result.Items, *ToDTO(&list.Items[i]))
	}
	return result, nil
}

func (s *service) GetCustomerOrder(ctx context.Context, customerID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find order")
	}
	if order.CustomerID != customerID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return ToDTO(order), nil
}

func (s *service) ListAdminOrders(ctx context.Context, filters AdminListFilters) (*AdminOrderListDTO, error) {
	list, err := s.repo.ListAdmin(ctx, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list orders")
	}

	result := &AdminOrderListDTO{
		Items: make([]OrderDTO, 0, len(list.Items)),
		Total: list.Total,
		Page:  list.Page,
		Limit: list.Limit,
	}
	for i := range list.Items {
		result.Items = append(result.Items, *ToDTO(&list.Items[i]))
	}
	return result, nil
}

func (s *service) GetOrder(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find order")
	}
	return ToDTO(order), nil
}
