package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmtrung/gostore-inventory-service/internal/apperrors"
	"github.com/dmtrung/gostore-inventory-service/internal/inventory"
	"github.com/dmtrung/gostore-inventory-service/internal/inventory/dto"
	"github.com/dmtrung/gostore-inventory-service/internal/model"
	"github.com/dmtrung/gostore-inventory-service/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRepo keeps inventory rows and transaction logs in memory, keyed by
// product id.
type fakeRepo struct {
	byProduct map[string]*model.Inventory
	txns      []*model.InventoryTransaction

	logErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byProduct: map[string]*model.Inventory{}}
}

func (r *fakeRepo) seed(productID string, current, reserved float64) *model.Inventory {
	inv := &model.Inventory{
		BaseModel:        model.BaseModel{ID: "inv-" + productID},
		ProductID:        productID,
		CurrentQuantity:  current,
		ReservedQuantity: reserved,
	}
	r.byProduct[productID] = inv
	return inv
}

func (r *fakeRepo) GetByID(ctx context.Context, id string) (*model.Inventory, error) {
	for _, inv := range r.byProduct {
		if inv.ID == id {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) GetByProduct(ctx context.Context, productID string) (*model.Inventory, error) {
	if inv, ok := r.byProduct[productID]; ok {
		cp := *inv
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeRepo) GetByProductForUpdate(ctx context.Context, productID string) (*model.Inventory, error) {
	return r.GetByProduct(ctx, productID)
}

func (r *fakeRepo) CreateIfAbsent(ctx context.Context, inv *model.Inventory) (bool, error) {
	if _, ok := r.byProduct[inv.ProductID]; ok {
		return false, nil
	}
	cp := *inv
	r.byProduct[inv.ProductID] = &cp
	return true, nil
}

func (r *fakeRepo) UpdateQuantities(ctx context.Context, inv *model.Inventory) error {
	for pid, existing := range r.byProduct {
		if existing.ID == inv.ID {
			cp := *inv
			r.byProduct[pid] = &cp
			return nil
		}
	}
	return errors.New("row not found")
}

func (r *fakeRepo) FindAll(ctx context.Context, f *dto.InventoryFilters) ([]model.Inventory, int, error) {
	var items []model.Inventory
	for _, inv := range r.byProduct {
		items = append(items, *inv)
	}
	return items, len(items), nil
}

func (r *fakeRepo) LogTransaction(ctx context.Context, txn *model.InventoryTransaction) error {
	if r.logErr != nil {
		return r.logErr
	}
	cp := *txn
	r.txns = append(r.txns, &cp)
	return nil
}

func (r *fakeRepo) ListTransactions(ctx context.Context, f *dto.TransactionFilters) ([]model.InventoryTransaction, int, error) {
	var out []model.InventoryTransaction
	for _, txn := range r.txns {
		out = append(out, *txn)
	}
	return out, len(out), nil
}

func (r *fakeRepo) SummarizeTransactions(ctx context.Context, f *dto.TransactionFilters) ([]dto.TransactionSummary, error) {
	return nil, nil
}

func (r *fakeRepo) SumByReference(ctx context.Context, referenceNumber string) (float64, error) {
	var sum float64
	for _, txn := range r.txns {
		if txn.ReferenceNumber == referenceNumber {
			sum += txn.Quantity
		}
	}
	return sum, nil
}

func (r *fakeRepo) Stats(ctx context.Context, cfg *model.InventoryConfiguration) (*dto.InventoryStats, error) {
	return &dto.InventoryStats{TotalProducts: len(r.byProduct)}, nil
}

// snapshotTxRunner restores repository state when fn fails, mimicking a
// database rollback.
type snapshotTxRunner struct {
	repo *fakeRepo
}

func (t *snapshotTxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	rows := map[string]*model.Inventory{}
	for pid, inv := range t.repo.byProduct {
		cp := *inv
		rows[pid] = &cp
	}
	txnLen := len(t.repo.txns)

	if err := fn(ctx); err != nil {
		t.repo.byProduct = rows
		t.repo.txns = t.repo.txns[:txnLen]
		return err
	}
	return nil
}

type fakeConfig struct {
	cfg *model.InventoryConfiguration
}

func (f *fakeConfig) GetActive(ctx context.Context) (*model.InventoryConfiguration, error) {
	if f.cfg == nil {
		return model.DefaultConfiguration(), nil
	}
	return f.cfg, nil
}

type fakeLocker struct {
	busy bool
}

func (l *fakeLocker) AcquireLock(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	return !l.busy, nil
}

func (l *fakeLocker) ReleaseLock(ctx context.Context, key, value string) error {
	return nil
}

type env struct {
	repo   *fakeRepo
	config *fakeConfig
	locker *fakeLocker
	uc     inventory.UseCase
}

func newEnv() *env {
	repo := newFakeRepo()
	config := &fakeConfig{}
	locker := &fakeLocker{}
	uc := NewInventoryUseCase(repo, &snapshotTxRunner{repo: repo}, config, locker, nil, logger.NewNop())
	return &env{repo: repo, config: config, locker: locker, uc: uc}
}

func TestEnsureInventory(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	inv, err := e.uc.EnsureInventory(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 0.0, inv.CurrentQuantity)

	// Idempotent: a second call returns the existing row.
	again, err := e.uc.EnsureInventory(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, inv.ID, again.ID)
	assert.Len(t, e.repo.byProduct, 1)
	assert.Empty(t, e.repo.txns)

	_, err = e.uc.EnsureInventory(ctx, "")
	assert.True(t, apperrors.IsValidation(err))
}

func TestSetStock(t *testing.T) {
	ctx := context.Background()

	t.Run("creates row and logs full quantity as delta", func(t *testing.T) {
		e := newEnv()
		inv, err := e.uc.SetStock(ctx, &dto.StockMutationInput{ProductID: "p1", Quantity: 100})
		require.NoError(t, err)
		assert.Equal(t, 100.0, inv.CurrentQuantity)

		require.Len(t, e.repo.txns, 1)
		assert.Equal(t, model.TxnTypeAdjust, e.repo.txns[0].TransactionType)
		assert.Equal(t, 100.0, e.repo.txns[0].Quantity)
	})

	t.Run("logs signed delta against previous quantity", func(t *testing.T) {
		e := newEnv()
		e.repo.seed("p1", 80, 0)

		inv, err := e.uc.SetStock(ctx, &dto.StockMutationInput{ProductID: "p1", Quantity: 50})
		require.NoError(t, err)
		assert.Equal(t, 50.0, inv.CurrentQuantity)

		require.Len(t, e.repo.txns, 1)
		assert.Equal(t, -30.0, e.repo.txns[0].Quantity)
	})

	t.Run("rejects negative quantity by default", func(t *testing.T) {
		e := newEnv()
		_, err := e.uc.SetStock(ctx, &dto.StockMutationInput{ProductID: "p1", Quantity: -5})
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("allows negative quantity when configured", func(t *testing.T) {
		e := newEnv()
		cfg := model.DefaultConfiguration()
		cfg.AllowNegativeStock = true
		e.config.cfg = cfg
		e.repo.seed("p1", 10, 0)

		inv, err := e.uc.SetStock(ctx, &dto.StockMutationInput{ProductID: "p1", Quantity: -5})
		require.NoError(t, err)
		assert.Equal(t, -5.0, inv.CurrentQuantity)
	})

	t.Run("requires reason when configured", func(t *testing.T) {
		e := newEnv()
		cfg := model.DefaultConfiguration()
		cfg.RequireTransactionReason = true
		e.config.cfg = cfg

		_, err := e.uc.SetStock(ctx, &dto.StockMutationInput{ProductID: "p1", Quantity: 10})
		assert.True(t, apperrors.IsValidation(err))

		_, err = e.uc.SetStock(ctx, &dto.StockMutationInput{ProductID: "p1", Quantity: 10, Reason: "recount"})
		assert.NoError(t, err)
	})

	t.Run("fails with conflict when the lock is held", func(t *testing.T) {
		e := newEnv()
		e.locker.busy = true

		_, err := e.uc.SetStock(ctx, &dto.StockMutationInput{ProductID: "p1", Quantity: 10})
		assert.True(t, apperrors.IsConflict(err))
	})
}

func TestAddStock(t *testing.T) {
	ctx := context.Background()

	t.Run("adds to existing stock", func(t *testing.T) {
		e := newEnv()
		e.repo.seed("p1", 40, 0)

		inv, err := e.uc.AddStock(ctx, &dto.StockMutationInput{ProductID: "p1", Quantity: 60})
		require.NoError(t, err)
		assert.Equal(t, 100.0, inv.CurrentQuantity)

		require.Len(t, e.repo.txns, 1)
		assert.Equal(t, model.TxnTypeIn, e.repo.txns[0].TransactionType)
		assert.Equal(t, 60.0, e.repo.txns[0].Quantity)
	})

	t.Run("creates row seeded with quantity, no double add", func(t *testing.T) {
		e := newEnv()
		inv, err := e.uc.AddStock(ctx, &dto.StockMutationInput{ProductID: "p1", Quantity: 25})
		require.NoError(t, err)
		assert.Equal(t, 25.0, inv.CurrentQuantity)
	})

	t.Run("rejects negative quantity", func(t *testing.T) {
		e := newEnv()
		_, err := e.uc.AddStock(ctx, &dto.StockMutationInput{ProductID: "p1", Quantity: -1})
		assert.True(t, apperrors.IsValidation(err))
	})
}

func TestReduceStock(t *testing.T) {
	ctx := context.Background()

	t.Run("reduces and logs negative quantity", func(t *testing.T) {
		e := newEnv()
		e.repo.seed("p1", 100, 0)

		inv, err := e.uc.ReduceStock(ctx, &dto.StockMutationInput{ProductID: "p1", Quantity: 30})
		require.NoError(t, err)
		assert.Equal(t, 70.0, inv.CurrentQuantity)

		require.Len(t, e.repo.txns, 1)
		assert.Equal(t, model.TxnTypeOut, e.repo.txns[0].TransactionType)
		assert.Equal(t, -30.0, e.repo.txns[0].Quantity)
	})

	t.Run("insufficient stock leaves state untouched", func(t *testing.T) {
		e := newEnv()
		e.repo.seed("p1", 10, 0)

		_, err := e.uc.ReduceStock(ctx, &dto.StockMutationInput{ProductID: "p1", Quantity: 30})
		require.True(t, apperrors.IsInsufficientStock(err))

		var insufficient *apperrors.InsufficientStockError
		require.ErrorAs(t, err, &insufficient)
		require.Len(t, insufficient.Shortages, 1)
		assert.Equal(t, 30.0, insufficient.Shortages[0].Requested)
		assert.Equal(t, 10.0, insufficient.Shortages[0].Available)

		assert.Equal(t, 10.0, e.repo.byProduct["p1"].CurrentQuantity)
		assert.Empty(t, e.repo.txns)
	})

	t.Run("negative stock allowed when configured", func(t *testing.T) {
		e := newEnv()
		cfg := model.DefaultConfiguration()
		cfg.AllowNegativeStock = true
		e.config.cfg = cfg
		e.repo.seed("p1", 10, 0)

		inv, err := e.uc.ReduceStock(ctx, &dto.StockMutationInput{ProductID: "p1", Quantity: 30})
		require.NoError(t, err)
		assert.Equal(t, -20.0, inv.CurrentQuantity)
	})

	t.Run("missing row is not found", func(t *testing.T) {
		e := newEnv()
		_, err := e.uc.ReduceStock(ctx, &dto.StockMutationInput{ProductID: "ghost", Quantity: 1})
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestReserve(t *testing.T) {
	ctx := context.Background()

	t.Run("reserves available stock", func(t *testing.T) {
		e := newEnv()
		e.repo.seed("p1", 100, 20)

		inv, err := e.uc.Reserve(ctx, &dto.StockMutationInput{ProductID: "p1", Quantity: 50})
		require.NoError(t, err)
		assert.Equal(t, 70.0, inv.ReservedQuantity)
		assert.Equal(t, 100.0, inv.CurrentQuantity)

		require.Len(t, e.repo.txns, 1)
		assert.Equal(t, model.TxnTypeReserve, e.repo.txns[0].TransactionType)
		assert.Equal(t, 50.0, e.repo.txns[0].Quantity)
	})

	t.Run("guard rejects over-reservation", func(t *testing.T) {
		e := newEnv()
		e.repo.seed("p1", 100, 80)

		_, err := e.uc.Reserve(ctx, &dto.StockMutationInput{ProductID: "p1", Quantity: 30})
		require.True(t, apperrors.IsInsufficientStock(err))

		var insufficient *apperrors.InsufficientStockError
		require.ErrorAs(t, err, &insufficient)
		assert.Equal(t, 20.0, insufficient.Shortages[0].Available)

		assert.Equal(t, 80.0, e.repo.byProduct["p1"].ReservedQuantity)
		assert.Empty(t, e.repo.txns)
	})

	t.Run("reservation can take the last unit", func(t *testing.T) {
		e := newEnv()
		e.repo.seed("p1", 100, 80)

		inv, err := e.uc.Reserve(ctx, &dto.StockMutationInput{ProductID: "p1", Quantity: 20})
		require.NoError(t, err)
		assert.Equal(t, 100.0, inv.ReservedQuantity)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		e := newEnv()
		_, err := e.uc.Reserve(ctx, &dto.StockMutationInput{ProductID: "p1", Quantity: 0})
		assert.True(t, apperrors.IsValidation(err))
	})
}

func TestUnreserve(t *testing.T) {
	ctx := context.Background()

	t.Run("releases requested amount", func(t *testing.T) {
		e := newEnv()
		e.repo.seed("p1", 100, 50)

		inv, applied, err := e.uc.Unreserve(ctx, &dto.StockMutationInput{ProductID: "p1", Quantity: 30})
		require.NoError(t, err)
		assert.Equal(t, 30.0, applied)
		assert.Equal(t, 20.0, inv.ReservedQuantity)
	})

	t.Run("clamps at zero and logs the applied amount", func(t *testing.T) {
		e := newEnv()
		e.repo.seed("p1", 100, 5)

		inv, applied, err := e.uc.Unreserve(ctx, &dto.StockMutationInput{ProductID: "p1", Quantity: 30})
		require.NoError(t, err)
		assert.Equal(t, 5.0, applied)
		assert.Equal(t, 0.0, inv.ReservedQuantity)

		require.Len(t, e.repo.txns, 1)
		assert.Equal(t, model.TxnTypeUnreserve, e.repo.txns[0].TransactionType)
		assert.Equal(t, 5.0, e.repo.txns[0].Quantity)
	})
}

func TestShipReserved(t *testing.T) {
	ctx := context.Background()

	t.Run("turns reservation into stock out", func(t *testing.T) {
		e := newEnv()
		e.repo.seed("p1", 100, 40)

		inv, short, err := e.uc.ShipReserved(ctx, &dto.StockMutationInput{ProductID: "p1", Quantity: 40})
		require.NoError(t, err)
		assert.False(t, short)
		assert.Equal(t, 60.0, inv.CurrentQuantity)
		assert.Equal(t, 0.0, inv.ReservedQuantity)

		require.Len(t, e.repo.txns, 1)
		assert.Equal(t, model.TxnTypeOut, e.repo.txns[0].TransactionType)
		assert.Equal(t, -40.0, e.repo.txns[0].Quantity)
	})

	t.Run("flags short reservation and clamps it", func(t *testing.T) {
		e := newEnv()
		e.repo.seed("p1", 100, 10)

		inv, short, err := e.uc.ShipReserved(ctx, &dto.StockMutationInput{ProductID: "p1", Quantity: 40})
		require.NoError(t, err)
		assert.True(t, short)
		assert.Equal(t, 60.0, inv.CurrentQuantity)
		assert.Equal(t, 0.0, inv.ReservedQuantity)
	})

	t.Run("insufficient stock rejects the shipment", func(t *testing.T) {
		e := newEnv()
		e.repo.seed("p1", 20, 20)

		_, _, err := e.uc.ShipReserved(ctx, &dto.StockMutationInput{ProductID: "p1", Quantity: 40})
		assert.True(t, apperrors.IsInsufficientStock(err))
		assert.Equal(t, 20.0, e.repo.byProduct["p1"].CurrentQuantity)
	})
}

func TestMutationAtomicity(t *testing.T) {
	// A failed audit insert must roll back the quantity change: ledger and
	// log move together or not at all.
	e := newEnv()
	e.repo.seed("p1", 100, 0)
	e.repo.logErr = errors.New("insert failed")

	_, err := e.uc.ReduceStock(context.Background(), &dto.StockMutationInput{ProductID: "p1", Quantity: 30})
	require.Error(t, err)

	assert.Equal(t, 100.0, e.repo.byProduct["p1"].CurrentQuantity)
	assert.Empty(t, e.repo.txns)
}

func TestReservationNetZeroAfterCancel(t *testing.T) {
	// Reserve then fully unreserve nets the reservation to zero while
	// leaving two audit rows behind.
	e := newEnv()
	e.repo.seed("p1", 100, 0)
	ctx := context.Background()

	_, err := e.uc.Reserve(ctx, &dto.StockMutationInput{ProductID: "p1", Quantity: 25, ReferenceNumber: "ORDER-1"})
	require.NoError(t, err)

	inv, applied, err := e.uc.Unreserve(ctx, &dto.StockMutationInput{ProductID: "p1", Quantity: 25, ReferenceNumber: "ORDER-1"})
	require.NoError(t, err)
	assert.Equal(t, 25.0, applied)
	assert.Equal(t, 0.0, inv.ReservedQuantity)
	assert.Equal(t, 100.0, inv.CurrentQuantity)
	assert.Len(t, e.repo.txns, 2)
}
