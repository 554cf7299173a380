package invconfig

import (
	"context"

	"github.com/dmtrung/gostore-inventory-service/internal/invconfig/dto"
	"github.com/dmtrung/gostore-inventory-service/internal/model"
)

// UseCase manages inventory configuration rows. GetActive is the hot path:
// every stock mutation resolves the active policy through it, so the
// implementation keeps a short-lived cache in front of the database.
type UseCase interface {
	// GetActive returns the active configuration, creating and persisting
	// the default one when none exists yet.
	GetActive(ctx context.Context) (*model.InventoryConfiguration, error)
	GetByID(ctx context.Context, id string) (*model.InventoryConfiguration, error)
	List(ctx context.Context, f *dto.ConfigurationFilters) ([]model.InventoryConfiguration, int, error)
	Create(ctx context.Context, in *dto.ConfigurationInput) (*model.InventoryConfiguration, error)
	Update(ctx context.Context, id string, in *dto.ConfigurationInput) (*model.InventoryConfiguration, error)
	// Activate marks one row active and deactivates the rest atomically.
	Activate(ctx context.Context, id string) (*model.InventoryConfiguration, error)
}
