package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dmtrung/gostore-inventory-service/internal/apperrors"
	"github.com/dmtrung/gostore-inventory-service/internal/invconfig"
	"github.com/dmtrung/gostore-inventory-service/internal/invconfig/dto"
	"github.com/dmtrung/gostore-inventory-service/internal/inventory"
	"github.com/dmtrung/gostore-inventory-service/internal/model"
	"github.com/dmtrung/gostore-inventory-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	activeConfigCacheKey = "inventory:config:active"
	activeConfigCacheTTL = 5 * time.Minute
)

// Cache is the subset of the redis client the use case needs.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type configUseCase struct {
	repo   invconfig.Repository
	txm    inventory.TxRunner
	cache  Cache
	logger logger.ZapLogger
}

func NewConfigUseCase(
	repo invconfig.Repository,
	txm inventory.TxRunner,
	cache Cache,
	log logger.ZapLogger,
) invconfig.UseCase {
	return &configUseCase{
		repo:   repo,
		txm:    txm,
		cache:  cache,
		logger: log,
	}
}

// GetActive is called on every stock mutation, so it reads through a short
// redis cache. When no row is active a default configuration is created,
// matching first-use behavior on a fresh database.
func (uc *configUseCase) GetActive(ctx context.Context) (*model.InventoryConfiguration, error) {
	if uc.cache != nil {
		if raw, err := uc.cache.Get(ctx, activeConfigCacheKey); err == nil && raw != "" {
			var cfg model.InventoryConfiguration
			if err := json.Unmarshal([]byte(raw), &cfg); err == nil {
				return &cfg, nil
			}
			uc.logger.Warn("Dropping unreadable cached configuration")
		}
	}

	cfg, err := uc.repo.GetActive(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to load active configuration", err)
	}
	if cfg == nil {
		cfg = model.DefaultConfiguration()
		cfg.ID = uuid.New().String()
		now := time.Now().UTC()
		cfg.CreatedAt = now
		cfg.UpdatedAt = now
		if err := uc.repo.Create(ctx, cfg); err != nil {
			// A concurrent caller may have created the default first; the
			// partial unique index on is_active rejects the second insert.
			cfg, err = uc.repo.GetActive(ctx)
			if err != nil {
				return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to load active configuration", err)
			}
			if cfg == nil {
				return nil, apperrors.New(apperrors.CodeInternal, "no active configuration after create conflict")
			}
		} else {
			uc.logger.Info("Created default inventory configuration", zap.String("config_id", cfg.ID))
		}
	}

	uc.cachePut(ctx, cfg)
	return cfg, nil
}

func (uc *configUseCase) GetByID(ctx context.Context, id string) (*model.InventoryConfiguration, error) {
	cfg, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to load configuration", err)
	}
	if cfg == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, "configuration not found")
	}
	return cfg, nil
}

func (uc *configUseCase) List(ctx context.Context, f *dto.ConfigurationFilters) ([]model.InventoryConfiguration, int, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	return uc.repo.FindAll(ctx, f)
}

func (uc *configUseCase) Create(ctx context.Context, in *dto.ConfigurationInput) (*model.InventoryConfiguration, error) {
	cfg := model.DefaultConfiguration()
	cfg.ID = uuid.New().String()
	now := time.Now().UTC()
	cfg.CreatedAt = now
	cfg.UpdatedAt = now
	cfg.IsActive = false
	applyInput(cfg, in)

	if err := uc.repo.Create(ctx, cfg); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to create configuration", err)
	}
	return cfg, nil
}

func (uc *configUseCase) Update(ctx context.Context, id string, in *dto.ConfigurationInput) (*model.InventoryConfiguration, error) {
	cfg, err := uc.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	applyInput(cfg, in)
	cfg.UpdatedAt = time.Now().UTC()

	if err := uc.repo.Update(ctx, cfg); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to update configuration", err)
	}

	if cfg.IsActive {
		uc.cacheInvalidate(ctx)
	}
	return cfg, nil
}

func (uc *configUseCase) Activate(ctx context.Context, id string) (*model.InventoryConfiguration, error) {
	var activated *model.InventoryConfiguration

	err := uc.txm.RunInTx(ctx, func(ctx context.Context) error {
		cfg, err := uc.repo.GetByID(ctx, id)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to load configuration", err)
		}
		if cfg == nil {
			return apperrors.New(apperrors.CodeNotFound, "configuration not found")
		}

		if err := uc.repo.DeactivateAll(ctx); err != nil {
			return err
		}

		cfg.IsActive = true
		cfg.UpdatedAt = time.Now().UTC()
		if err := uc.repo.Update(ctx, cfg); err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to activate configuration", err)
		}

		activated = cfg
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.cacheInvalidate(ctx)
	uc.logger.Info("Activated inventory configuration", zap.String("config_id", activated.ID))
	return activated, nil
}

func (uc *configUseCase) cachePut(ctx context.Context, cfg *model.InventoryConfiguration) {
	if uc.cache == nil {
		return
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return
	}
	if err := uc.cache.Set(ctx, activeConfigCacheKey, string(raw), activeConfigCacheTTL); err != nil {
		uc.logger.Warn("Failed to cache active configuration", zap.Error(err))
	}
}

func (uc *configUseCase) cacheInvalidate(ctx context.Context) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Delete(ctx, activeConfigCacheKey); err != nil {
		uc.logger.Warn("Failed to invalidate configuration cache", zap.Error(err))
	}
}

func applyInput(cfg *model.InventoryConfiguration, in *dto.ConfigurationInput) {
	if in.LowStockThresholdType != "" {
		cfg.LowStockThresholdType = in.LowStockThresholdType
	}
	cfg.LowStockThresholdValue = in.LowStockThresholdValue
	cfg.OutOfStockThreshold = in.OutOfStockThreshold

	cfg.EnableAutoReorder = in.EnableAutoReorder
	if in.AutoReorderQuantityType != "" {
		cfg.AutoReorderQuantityType = in.AutoReorderQuantityType
	}
	cfg.AutoReorderQuantityVal = in.AutoReorderQuantityVal

	cfg.AllowNegativeStock = in.AllowNegativeStock
	cfg.RequireTransactionReason = in.RequireTransactionReason
	cfg.RequireTransactionReference = in.RequireTransactionReference

	if in.InStockLabel != "" {
		cfg.InStockLabel = in.InStockLabel
	}
	if in.LowStockLabel != "" {
		cfg.LowStockLabel = in.LowStockLabel
	}
	if in.OutOfStockLabel != "" {
		cfg.OutOfStockLabel = in.OutOfStockLabel
	}

	cfg.AutoReserveOnOrder = in.AutoReserveOnOrder
	if in.ReservationExpiryHrs > 0 {
		cfg.ReservationExpiryHrs = in.ReservationExpiryHrs
	}
	cfg.EnableMultiWarehouse = in.EnableMultiWarehouse
}
