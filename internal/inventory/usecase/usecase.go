package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/dmtrung/gostore-inventory-service/internal/apperrors"
	"github.com/dmtrung/gostore-inventory-service/internal/inventory"
	"github.com/dmtrung/gostore-inventory-service/internal/inventory/dto"
	"github.com/dmtrung/gostore-inventory-service/internal/model"
	"github.com/dmtrung/gostore-inventory-service/pkg/logger"
	"github.com/dmtrung/gostore-inventory-service/pkg/metrics"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

type inventoryUseCase struct {
	repo    inventory.Repository
	txm     inventory.TxRunner
	config  inventory.ConfigProvider
	locker  inventory.Locker
	metrics *metrics.Metrics
	logger  logger.ZapLogger
}

func NewInventoryUseCase(
	repo inventory.Repository,
	txm inventory.TxRunner,
	config inventory.ConfigProvider,
	locker inventory.Locker,
	m *metrics.Metrics,
	log logger.ZapLogger,
) inventory.UseCase {
	return &inventoryUseCase{
		repo:    repo,
		txm:     txm,
		config:  config,
		locker:  locker,
		metrics: m,
		logger:  log,
	}
}

var tracer = otel.Tracer("inventory-usecase")

func (uc *inventoryUseCase) EnsureInventory(ctx context.Context, productID string) (*model.Inventory, error) {
	if productID == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "product id is required")
	}

	var inv *model.Inventory
	err := uc.txm.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		inv, _, err = uc.getOrCreateLocked(ctx, productID, 0)
		return err
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (uc *inventoryUseCase) GetByProduct(ctx context.Context, productID string) (*model.Inventory, error) {
	inv, err := uc.repo.GetByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, apperrors.Newf(apperrors.CodeNotFound, "no inventory for product %s", productID)
	}
	return inv, nil
}

func (uc *inventoryUseCase) GetByID(ctx context.Context, id string) (*model.Inventory, error) {
	inv, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, apperrors.Newf(apperrors.CodeNotFound, "inventory %s not found", id)
	}
	return inv, nil
}

func (uc *inventoryUseCase) List(ctx context.Context, f *dto.InventoryFilters) ([]dto.InventoryView, int, error) {
	cfg, err := uc.config.GetActive(ctx)
	if err != nil {
		return nil, 0, err
	}

	if f.StockStatus != "" {
		threshold := cfg.OutOfStockThreshold
		f.OutOfStockThreshold = &threshold
	}

	items, count, err := uc.repo.FindAll(ctx, f)
	if err != nil {
		return nil, 0, err
	}

	views := make([]dto.InventoryView, len(items))
	for i := range items {
		views[i] = buildView(&items[i], cfg)
	}
	return views, count, nil
}

func buildView(inv *model.Inventory, cfg *model.InventoryConfiguration) dto.InventoryView {
	configured := cfg.StatusOf(inv)
	return dto.InventoryView{
		Inventory:         *inv,
		AvailableQuantity: inv.AvailableQuantity(),
		LocalStatus:       inv.LocalStatus(),
		ConfiguredStatus:  configured,
		StatusLabel:       cfg.StatusLabel(configured),
		ReorderQuantity:   cfg.ReorderQuantity(inv),
	}
}

// SetStock overwrites the on-hand quantity, logging the signed delta as an
// adjustment. The redis lock fences concurrent manual set requests for the
// same product; reserve/reduce stay serialized by the row lock alone.
func (uc *inventoryUseCase) SetStock(ctx context.Context, in *dto.StockMutationInput) (*model.Inventory, error) {
	ctx, span := tracer.Start(ctx, "inventory.SetStock")
	defer span.End()

	cfg, err := uc.config.GetActive(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateManual(cfg, in); err != nil {
		return nil, err
	}
	if in.Quantity < 0 && !cfg.AllowNegativeStock {
		return nil, apperrors.New(apperrors.CodeValidation, "quantity must not be negative")
	}

	unlock, err := uc.acquireLock(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var inv *model.Inventory
	err = uc.txm.RunInTx(ctx, func(ctx context.Context) error {
		var created bool
		var err error
		inv, created, err = uc.getOrCreateLocked(ctx, in.ProductID, in.Quantity)
		if err != nil {
			return err
		}

		oldQuantity := inv.CurrentQuantity
		if created {
			oldQuantity = 0
		} else {
			inv.CurrentQuantity = in.Quantity
			inv.UpdatedAt = time.Now()
			if err := uc.repo.UpdateQuantities(ctx, inv); err != nil {
				return err
			}
		}

		txn := model.NewAdjustTxn(inv.ID, in.Quantity-oldQuantity, in.ReferenceNumber, defaultReason(in.Reason, "Stock adjustment"), in.Actor)
		return uc.logTxn(ctx, txn)
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("stock set",
		zap.String("product_id", in.ProductID),
		zap.Float64("quantity", in.Quantity),
	)
	return inv, nil
}

func (uc *inventoryUseCase) AddStock(ctx context.Context, in *dto.StockMutationInput) (*model.Inventory, error) {
	ctx, span := tracer.Start(ctx, "inventory.AddStock")
	defer span.End()

	cfg, err := uc.config.GetActive(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateManual(cfg, in); err != nil {
		return nil, err
	}
	if in.Quantity < 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "quantity must not be negative")
	}

	var inv *model.Inventory
	err = uc.txm.RunInTx(ctx, func(ctx context.Context) error {
		var created bool
		var err error
		inv, created, err = uc.getOrCreateLocked(ctx, in.ProductID, in.Quantity)
		if err != nil {
			return err
		}

		if !created {
			inv.CurrentQuantity += in.Quantity
			inv.UpdatedAt = time.Now()
			if err := uc.repo.UpdateQuantities(ctx, inv); err != nil {
				return err
			}
		}

		txn := model.NewStockInTxn(inv.ID, in.Quantity, in.ReferenceNumber, defaultReason(in.Reason, "Stock in"), in.Actor)
		return uc.logTxn(ctx, txn)
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (uc *inventoryUseCase) ReduceStock(ctx context.Context, in *dto.StockMutationInput) (*model.Inventory, error) {
	ctx, span := tracer.Start(ctx, "inventory.ReduceStock")
	defer span.End()

	cfg, err := uc.config.GetActive(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateManual(cfg, in); err != nil {
		return nil, err
	}
	if in.Quantity < 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "quantity must not be negative")
	}

	var inv *model.Inventory
	err = uc.txm.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		inv, err = uc.lockExisting(ctx, in.ProductID)
		if err != nil {
			return err
		}

		if inv.CurrentQuantity < in.Quantity && !cfg.AllowNegativeStock {
			uc.incShortage("reduce")
			return apperrors.NewInsufficientStock(apperrors.StockShortage{
				ProductID: in.ProductID,
				Requested: in.Quantity,
				Available: inv.CurrentQuantity,
			})
		}

		inv.CurrentQuantity -= in.Quantity
		inv.UpdatedAt = time.Now()
		if err := uc.repo.UpdateQuantities(ctx, inv); err != nil {
			return err
		}

		txn := model.NewStockOutTxn(inv.ID, in.Quantity, in.ReferenceNumber, defaultReason(in.Reason, "Stock out"), in.Actor)
		return uc.logTxn(ctx, txn)
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// Reserve claims available stock for an order. The guard runs under the row
// lock, so two concurrent reservations can never drive reserved above
// current.
func (uc *inventoryUseCase) Reserve(ctx context.Context, in *dto.StockMutationInput) (*model.Inventory, error) {
	ctx, span := tracer.Start(ctx, "inventory.Reserve")
	defer span.End()

	if in.Quantity <= 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "reserve quantity must be positive")
	}

	var inv *model.Inventory
	err := uc.txm.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		inv, err = uc.lockExisting(ctx, in.ProductID)
		if err != nil {
			return err
		}

		if inv.ReservedQuantity+in.Quantity > inv.CurrentQuantity {
			uc.incShortage("reserve")
			return apperrors.NewInsufficientStock(apperrors.StockShortage{
				ProductID: in.ProductID,
				Requested: in.Quantity,
				Available: inv.AvailableQuantity(),
			})
		}

		inv.ReservedQuantity += in.Quantity
		inv.UpdatedAt = time.Now()
		if err := uc.repo.UpdateQuantities(ctx, inv); err != nil {
			return err
		}

		txn := model.NewReserveTxn(inv.ID, in.Quantity, in.ReferenceNumber, defaultReason(in.Reason, "Stock reserved"), in.Actor)
		return uc.logTxn(ctx, txn)
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (uc *inventoryUseCase) Unreserve(ctx context.Context, in *dto.StockMutationInput) (*model.Inventory, float64, error) {
	ctx, span := tracer.Start(ctx, "inventory.Unreserve")
	defer span.End()

	if in.Quantity <= 0 {
		return nil, 0, apperrors.New(apperrors.CodeValidation, "unreserve quantity must be positive")
	}

	var inv *model.Inventory
	var applied float64
	err := uc.txm.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		inv, err = uc.lockExisting(ctx, in.ProductID)
		if err != nil {
			return err
		}

		// Clamp: never drive the reservation negative, and record the
		// released amount rather than the requested one.
		applied = in.Quantity
		if applied > inv.ReservedQuantity {
			applied = inv.ReservedQuantity
		}

		inv.ReservedQuantity -= applied
		inv.UpdatedAt = time.Now()
		if err := uc.repo.UpdateQuantities(ctx, inv); err != nil {
			return err
		}

		txn := model.NewUnreserveTxn(inv.ID, applied, in.ReferenceNumber, defaultReason(in.Reason, "Stock unreserved"), in.Actor)
		return uc.logTxn(ctx, txn)
	})
	if err != nil {
		return nil, 0, err
	}

	if applied < in.Quantity {
		uc.logger.Warn("unreserve clamped",
			zap.String("product_id", in.ProductID),
			zap.Float64("requested", in.Quantity),
			zap.Float64("applied", applied),
		)
	}
	return inv, applied, nil
}

func (uc *inventoryUseCase) ShipReserved(ctx context.Context, in *dto.StockMutationInput) (*model.Inventory, bool, error) {
	ctx, span := tracer.Start(ctx, "inventory.ShipReserved")
	defer span.End()

	if in.Quantity <= 0 {
		return nil, false, apperrors.New(apperrors.CodeValidation, "ship quantity must be positive")
	}

	cfg, err := uc.config.GetActive(ctx)
	if err != nil {
		return nil, false, err
	}

	var inv *model.Inventory
	var reservationShort bool
	err = uc.txm.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		inv, err = uc.lockExisting(ctx, in.ProductID)
		if err != nil {
			return err
		}

		if inv.CurrentQuantity < in.Quantity && !cfg.AllowNegativeStock {
			uc.incShortage("ship")
			return apperrors.NewInsufficientStock(apperrors.StockShortage{
				ProductID: in.ProductID,
				Requested: in.Quantity,
				Available: inv.CurrentQuantity,
			})
		}

		reservationShort = inv.ReservedQuantity < in.Quantity
		inv.ReservedQuantity -= in.Quantity
		if inv.ReservedQuantity < 0 {
			inv.ReservedQuantity = 0
		}
		inv.CurrentQuantity -= in.Quantity
		inv.UpdatedAt = time.Now()
		if err := uc.repo.UpdateQuantities(ctx, inv); err != nil {
			return err
		}

		txn := model.NewStockOutTxn(inv.ID, in.Quantity, in.ReferenceNumber, defaultReason(in.Reason, "Stock shipped"), in.Actor)
		return uc.logTxn(ctx, txn)
	})
	if err != nil {
		return nil, false, err
	}
	return inv, reservationShort, nil
}

func (uc *inventoryUseCase) ListTransactions(ctx context.Context, f *dto.TransactionFilters) ([]model.InventoryTransaction, int, error) {
	return uc.repo.ListTransactions(ctx, f)
}

func (uc *inventoryUseCase) SummarizeTransactions(ctx context.Context, f *dto.TransactionFilters) ([]dto.TransactionSummary, error) {
	return uc.repo.SummarizeTransactions(ctx, f)
}

func (uc *inventoryUseCase) Stats(ctx context.Context) (*dto.InventoryStats, error) {
	cfg, err := uc.config.GetActive(ctx)
	if err != nil {
		return nil, err
	}

	stats, err := uc.repo.Stats(ctx, cfg)
	if err != nil {
		return nil, err
	}

	stats.InStockLabel = cfg.InStockLabel
	stats.LowStockLabel = cfg.LowStockLabel
	stats.OutOfStockLabel = cfg.OutOfStockLabel
	return stats, nil
}

// getOrCreateLocked returns the locked inventory row for productID,
// inserting a fresh row with current=initialQty when none exists. A lost
// insert race falls back to locking the winner's row.
func (uc *inventoryUseCase) getOrCreateLocked(ctx context.Context, productID string, initialQty float64) (*model.Inventory, bool, error) {
	inv, err := uc.repo.GetByProductForUpdate(ctx, productID)
	if err != nil {
		return nil, false, err
	}
	if inv != nil {
		return inv, false, nil
	}

	now := time.Now()
	fresh := &model.Inventory{
		BaseModel:       model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		ProductID:       productID,
		CurrentQuantity: initialQty,
	}
	inserted, err := uc.repo.CreateIfAbsent(ctx, fresh)
	if err != nil {
		return nil, false, err
	}
	if inserted {
		return fresh, true, nil
	}

	inv, err = uc.repo.GetByProductForUpdate(ctx, productID)
	if err != nil {
		return nil, false, err
	}
	if inv == nil {
		return nil, false, apperrors.Newf(apperrors.CodeInternal, "inventory for product %s vanished during create", productID)
	}
	return inv, false, nil
}

func (uc *inventoryUseCase) lockExisting(ctx context.Context, productID string) (*model.Inventory, error) {
	inv, err := uc.repo.GetByProductForUpdate(ctx, productID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, apperrors.Newf(apperrors.CodeNotFound, "no inventory for product %s", productID)
	}
	return inv, nil
}

func (uc *inventoryUseCase) logTxn(ctx context.Context, txn *model.InventoryTransaction) error {
	now := time.Now()
	txn.ID = uuid.New().String()
	txn.CreatedAt = now
	txn.UpdatedAt = now

	if err := uc.repo.LogTransaction(ctx, txn); err != nil {
		return err
	}
	if uc.metrics != nil {
		uc.metrics.StockMutations.WithLabelValues(txn.TransactionType).Inc()
	}
	return nil
}

func (uc *inventoryUseCase) incShortage(operation string) {
	if uc.metrics != nil {
		uc.metrics.InsufficientStock.WithLabelValues(operation).Inc()
	}
}

func (uc *inventoryUseCase) acquireLock(ctx context.Context, productID string) (func(), error) {
	lockKey := "lock:inventory:" + productID
	lockValue := uuid.New().String()

	acquired := false
	for i := 0; i < 3; i++ {
		ok, err := uc.locker.AcquireLock(ctx, lockKey, lockValue, 5*time.Second)
		if err != nil {
			uc.logger.Error("failed to acquire inventory lock", zap.Error(err))
		}
		if ok {
			acquired = true
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	if !acquired {
		return nil, apperrors.New(apperrors.CodeConflict, "inventory is busy, please retry")
	}

	return func() {
		if err := uc.locker.ReleaseLock(context.Background(), lockKey, lockValue); err != nil {
			uc.logger.Error("failed to release inventory lock", zap.Error(err))
		}
	}, nil
}

func validateManual(cfg *model.InventoryConfiguration, in *dto.StockMutationInput) error {
	if in.ProductID == "" {
		return apperrors.New(apperrors.CodeValidation, "product id is required")
	}
	if cfg.RequireTransactionReason && strings.TrimSpace(in.Reason) == "" {
		return apperrors.New(apperrors.CodeValidation, "transaction reason is required")
	}
	if cfg.RequireTransactionReference && strings.TrimSpace(in.ReferenceNumber) == "" {
		return apperrors.New(apperrors.CodeValidation, "transaction reference number is required")
	}
	return nil
}

func defaultReason(reason, fallback string) string {
	if strings.TrimSpace(reason) == "" {
		return fallback
	}
	return reason
}
