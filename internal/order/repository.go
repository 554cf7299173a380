package order

import (
	"context"

	"github.com/dmtrung/gostore-inventory-service/internal/model"
	"github.com/dmtrung/gostore-inventory-service/internal/order/dto"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*model.Order, error)
	// GetByIDForUpdate locks the order row so concurrent ship/cancel
	// requests serialize.
	GetByIDForUpdate(ctx context.Context, id string) (*model.Order, error)
	FindAll(ctx context.Context, f *dto.OrderFilters) ([]model.Order, int, error)
	Create(ctx context.Context, order *model.Order) error
	UpdateStatus(ctx context.Context, order *model.Order) error
}
