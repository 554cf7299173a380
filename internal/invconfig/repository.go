package invconfig

import (
	"context"

	"github.com/dmtrung/gostore-inventory-service/internal/invconfig/dto"
	"github.com/dmtrung/gostore-inventory-service/internal/model"
)

type Repository interface {
	// GetActive returns the single active configuration row, or nil when
	// no row is active.
	GetActive(ctx context.Context) (*model.InventoryConfiguration, error)
	GetByID(ctx context.Context, id string) (*model.InventoryConfiguration, error)
	FindAll(ctx context.Context, f *dto.ConfigurationFilters) ([]model.InventoryConfiguration, int, error)
	Create(ctx context.Context, cfg *model.InventoryConfiguration) error
	Update(ctx context.Context, cfg *model.InventoryConfiguration) error
	// DeactivateAll clears is_active on every row; pair with Update inside
	// one transaction to switch the active configuration.
	DeactivateAll(ctx context.Context) error
}
