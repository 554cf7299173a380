package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dmtrung/gostore-inventory-service/internal/apperrors"
	"github.com/dmtrung/gostore-inventory-service/internal/inventory"
	invdto "github.com/dmtrung/gostore-inventory-service/internal/inventory/dto"
	invUCPkg "github.com/dmtrung/gostore-inventory-service/internal/inventory/usecase"
	"github.com/dmtrung/gostore-inventory-service/internal/model"
	"github.com/dmtrung/gostore-inventory-service/internal/order"
	"github.com/dmtrung/gostore-inventory-service/internal/order/dto"
	"github.com/dmtrung/gostore-inventory-service/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The order tests run against the real inventory use case on top of
// in-memory repositories, so reservation guards, clamping, and audit rows
// behave exactly as in production.

type fakeInvRepo struct {
	byProduct map[string]*model.Inventory
	txns      []*model.InventoryTransaction
}

func newFakeInvRepo() *fakeInvRepo {
	return &fakeInvRepo{byProduct: map[string]*model.Inventory{}}
}

func (r *fakeInvRepo) seed(productID string, current float64) {
	r.byProduct[productID] = &model.Inventory{
		BaseModel:       model.BaseModel{ID: "inv-" + productID},
		ProductID:       productID,
		CurrentQuantity: current,
	}
}

func (r *fakeInvRepo) GetByID(ctx context.Context, id string) (*model.Inventory, error) {
	for _, inv := range r.byProduct {
		if inv.ID == id {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeInvRepo) GetByProduct(ctx context.Context, productID string) (*model.Inventory, error) {
	if inv, ok := r.byProduct[productID]; ok {
		cp := *inv
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeInvRepo) GetByProductForUpdate(ctx context.Context, productID string) (*model.Inventory, error) {
	return r.GetByProduct(ctx, productID)
}

func (r *fakeInvRepo) CreateIfAbsent(ctx context.Context, inv *model.Inventory) (bool, error) {
	if _, ok := r.byProduct[inv.ProductID]; ok {
		return false, nil
	}
	cp := *inv
	r.byProduct[inv.ProductID] = &cp
	return true, nil
}

func (r *fakeInvRepo) UpdateQuantities(ctx context.Context, inv *model.Inventory) error {
	for pid, existing := range r.byProduct {
		if existing.ID == inv.ID {
			cp := *inv
			r.byProduct[pid] = &cp
			return nil
		}
	}
	return fmt.Errorf("row %s not found", inv.ID)
}

func (r *fakeInvRepo) FindAll(ctx context.Context, f *invdto.InventoryFilters) ([]model.Inventory, int, error) {
	return nil, 0, nil
}

func (r *fakeInvRepo) LogTransaction(ctx context.Context, txn *model.InventoryTransaction) error {
	cp := *txn
	r.txns = append(r.txns, &cp)
	return nil
}

func (r *fakeInvRepo) ListTransactions(ctx context.Context, f *invdto.TransactionFilters) ([]model.InventoryTransaction, int, error) {
	return nil, 0, nil
}

func (r *fakeInvRepo) SummarizeTransactions(ctx context.Context, f *invdto.TransactionFilters) ([]invdto.TransactionSummary, error) {
	return nil, nil
}

func (r *fakeInvRepo) SumByReference(ctx context.Context, referenceNumber string) (float64, error) {
	var sum float64
	for _, txn := range r.txns {
		if txn.ReferenceNumber == referenceNumber {
			sum += txn.Quantity
		}
	}
	return sum, nil
}

func (r *fakeInvRepo) Stats(ctx context.Context, cfg *model.InventoryConfiguration) (*invdto.InventoryStats, error) {
	return &invdto.InventoryStats{}, nil
}

type fakeOrderRepo struct {
	orders map[string]*model.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[string]*model.Order{}}
}

func (r *fakeOrderRepo) GetByID(ctx context.Context, id string) (*model.Order, error) {
	if ord, ok := r.orders[id]; ok {
		cp := *ord
		cp.Items = append([]model.OrderItem(nil), ord.Items...)
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeOrderRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.Order, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeOrderRepo) FindAll(ctx context.Context, f *dto.OrderFilters) ([]model.Order, int, error) {
	var out []model.Order
	for _, ord := range r.orders {
		out = append(out, *ord)
	}
	return out, len(out), nil
}

func (r *fakeOrderRepo) Create(ctx context.Context, ord *model.Order) error {
	cp := *ord
	cp.Items = append([]model.OrderItem(nil), ord.Items...)
	r.orders[ord.ID] = &cp
	return nil
}

func (r *fakeOrderRepo) UpdateStatus(ctx context.Context, ord *model.Order) error {
	if stored, ok := r.orders[ord.ID]; ok {
		stored.Status = ord.Status
		stored.UpdatedAt = ord.UpdatedAt
	}
	return nil
}

// snapshotTxRunner restores both repositories when fn fails, mimicking a
// shared database transaction across features.
type snapshotTxRunner struct {
	inv *fakeInvRepo
	ord *fakeOrderRepo
}

func (t *snapshotTxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	invRows := map[string]*model.Inventory{}
	for pid, inv := range t.inv.byProduct {
		cp := *inv
		invRows[pid] = &cp
	}
	txnLen := len(t.inv.txns)
	ordRows := map[string]*model.Order{}
	for id, ord := range t.ord.orders {
		cp := *ord
		ordRows[id] = &cp
	}

	if err := fn(ctx); err != nil {
		t.inv.byProduct = invRows
		t.inv.txns = t.inv.txns[:txnLen]
		t.ord.orders = ordRows
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

type fakeLocker struct{}

func (fakeLocker) AcquireLock(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	return true, nil
}

func (fakeLocker) ReleaseLock(ctx context.Context, key, value string) error {
	return nil
}

type fakeCache struct {
	data map[string]string
}

func (c *fakeCache) Get(ctx context.Context, key string) (string, error) {
	return c.data[key], nil
}

func (c *fakeCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	c.data[key] = value
	return nil
}

type env struct {
	invRepo *fakeInvRepo
	ordRepo *fakeOrderRepo
	config  *fakeConfig
	stock   inventory.UseCase
	uc      order.UseCase
}

func newEnv() *env {
	invRepo := newFakeInvRepo()
	ordRepo := newFakeOrderRepo()
	config := &fakeConfig{}
	txm := &snapshotTxRunner{inv: invRepo, ord: ordRepo}
	stock := invUCPkg.NewInventoryUseCase(invRepo, txm, config, fakeLocker{}, nil, logger.NewNop())
	uc := NewOrderUseCase(ordRepo, txm, stock, config, &fakeCache{data: map[string]string{}}, nil, logger.NewNop())
	return &env{invRepo: invRepo, ordRepo: ordRepo, config: config, stock: stock, uc: uc}
}

func orderInput(items ...dto.OrderItemInput) *dto.OrderInput {
	return &dto.OrderInput{CustomerName: "Jo", Items: items}
}

func TestCreateOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("reserves every item and confirms", func(t *testing.T) {
		e := newEnv()
		e.invRepo.seed("p1", 100)
		e.invRepo.seed("p2", 50)

		result, err := e.uc.Create(ctx, orderInput(
			dto.OrderItemInput{ProductID: "p1", Quantity: 10},
			dto.OrderItemInput{ProductID: "p2", Quantity: 5},
		), nil)
		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusConfirmed, result.Order.Status)

		assert.Equal(t, 10.0, e.invRepo.byProduct["p1"].ReservedQuantity)
		assert.Equal(t, 5.0, e.invRepo.byProduct["p2"].ReservedQuantity)
		assert.Equal(t, 100.0, e.invRepo.byProduct["p1"].CurrentQuantity, "reservation must not move stock")

		require.Len(t, e.invRepo.txns, 2)
		ref := fmt.Sprintf("ORDER-%s", result.Order.ID)
		for _, txn := range e.invRepo.txns {
			assert.Equal(t, model.TxnTypeReserve, txn.TransactionType)
			assert.Equal(t, ref, txn.ReferenceNumber)
		}
	})

	t.Run("short order reports every shortage and writes nothing", func(t *testing.T) {
		e := newEnv()
		e.invRepo.seed("p1", 5)
		e.invRepo.seed("p2", 100)

		_, err := e.uc.Create(ctx, orderInput(
			dto.OrderItemInput{ProductID: "p1", Quantity: 10},
			dto.OrderItemInput{ProductID: "p2", Quantity: 5},
			dto.OrderItemInput{ProductID: "ghost", Quantity: 1},
		), nil)
		require.True(t, apperrors.IsInsufficientStock(err))

		var insufficient *apperrors.InsufficientStockError
		require.ErrorAs(t, err, &insufficient)
		require.Len(t, insufficient.Shortages, 2)
		assert.Equal(t, "p1", insufficient.Shortages[0].ProductID)
		assert.Equal(t, "ghost", insufficient.Shortages[1].ProductID)
		assert.Equal(t, 0.0, insufficient.Shortages[1].Available)

		assert.Empty(t, e.ordRepo.orders)
		assert.Empty(t, e.invRepo.txns)
		assert.Equal(t, 0.0, e.invRepo.byProduct["p2"].ReservedQuantity)
	})

	t.Run("reservation counts against availability", func(t *testing.T) {
		e := newEnv()
		e.invRepo.seed("p1", 100)
		e.invRepo.byProduct["p1"].ReservedQuantity = 95

		_, err := e.uc.Create(ctx, orderInput(
			dto.OrderItemInput{ProductID: "p1", Quantity: 10},
		), nil)
		assert.True(t, apperrors.IsInsufficientStock(err))
	})

	t.Run("skips reservation when auto-reserve is off", func(t *testing.T) {
		e := newEnv()
		cfg := model.DefaultConfiguration()
		cfg.AutoReserveOnOrder = false
		e.config.cfg = cfg
		e.invRepo.seed("p1", 100)

		result, err := e.uc.Create(ctx, orderInput(
			dto.OrderItemInput{ProductID: "p1", Quantity: 10},
		), nil)
		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusNew, result.Order.Status)
		assert.Equal(t, 0.0, e.invRepo.byProduct["p1"].ReservedQuantity)
		assert.Empty(t, e.invRepo.txns)
	})

	t.Run("idempotency key replays the first result", func(t *testing.T) {
		e := newEnv()
		e.invRepo.seed("p1", 100)

		in := orderInput(dto.OrderItemInput{ProductID: "p1", Quantity: 10})
		in.IdempotencyKey = "req-1"

		first, err := e.uc.Create(ctx, in, nil)
		require.NoError(t, err)

		second, err := e.uc.Create(ctx, in, nil)
		require.NoError(t, err)
		assert.True(t, second.Replayed)
		assert.Equal(t, first.Order.ID, second.Order.ID)

		assert.Len(t, e.ordRepo.orders, 1)
		assert.Equal(t, 10.0, e.invRepo.byProduct["p1"].ReservedQuantity, "replay must not re-reserve")
	})
}

func TestShipOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("converts reservations to stock out", func(t *testing.T) {
		e := newEnv()
		e.invRepo.seed("p1", 100)

		created, err := e.uc.Create(ctx, orderInput(
			dto.OrderItemInput{ProductID: "p1", Quantity: 30},
		), nil)
		require.NoError(t, err)

		result, err := e.uc.Ship(ctx, created.Order.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusShipped, result.Order.Status)
		assert.Empty(t, result.Warnings)

		inv := e.invRepo.byProduct["p1"]
		assert.Equal(t, 70.0, inv.CurrentQuantity)
		assert.Equal(t, 0.0, inv.ReservedQuantity)

		last := e.invRepo.txns[len(e.invRepo.txns)-1]
		assert.Equal(t, model.TxnTypeOut, last.TransactionType)
		assert.Equal(t, -30.0, last.Quantity)
	})

	t.Run("cannot ship a new order", func(t *testing.T) {
		e := newEnv()
		cfg := model.DefaultConfiguration()
		cfg.AutoReserveOnOrder = false
		e.config.cfg = cfg
		e.invRepo.seed("p1", 100)

		created, err := e.uc.Create(ctx, orderInput(
			dto.OrderItemInput{ProductID: "p1", Quantity: 10},
		), nil)
		require.NoError(t, err)

		_, err = e.uc.Ship(ctx, created.Order.ID, nil)
		assert.True(t, apperrors.IsConflict(err))
	})

	t.Run("cannot ship twice", func(t *testing.T) {
		e := newEnv()
		e.invRepo.seed("p1", 100)

		created, _ := e.uc.Create(ctx, orderInput(
			dto.OrderItemInput{ProductID: "p1", Quantity: 10},
		), nil)
		_, err := e.uc.Ship(ctx, created.Order.ID, nil)
		require.NoError(t, err)

		_, err = e.uc.Ship(ctx, created.Order.ID, nil)
		assert.True(t, apperrors.IsConflict(err))
	})

	t.Run("unknown order is not found", func(t *testing.T) {
		e := newEnv()
		_, err := e.uc.Ship(ctx, "missing", nil)
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestCancelOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("releases the reservation and nets to zero", func(t *testing.T) {
		e := newEnv()
		e.invRepo.seed("p1", 100)

		created, err := e.uc.Create(ctx, orderInput(
			dto.OrderItemInput{ProductID: "p1", Quantity: 40},
		), nil)
		require.NoError(t, err)

		result, err := e.uc.Cancel(ctx, created.Order.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusCancelled, result.Order.Status)
		assert.Empty(t, result.Warnings)

		inv := e.invRepo.byProduct["p1"]
		assert.Equal(t, 100.0, inv.CurrentQuantity)
		assert.Equal(t, 0.0, inv.ReservedQuantity)

		// Both legs are logged as positive magnitudes; the reservation
		// delta (reserve minus unreserve) must cancel out.
		ref := fmt.Sprintf("ORDER-%s", created.Order.ID)
		var reserved, released float64
		for _, txn := range e.invRepo.txns {
			if txn.ReferenceNumber != ref {
				continue
			}
			switch txn.TransactionType {
			case model.TxnTypeReserve:
				reserved += txn.Quantity
			case model.TxnTypeUnreserve:
				released += txn.Quantity
			}
		}
		assert.Equal(t, 40.0, reserved)
		assert.Equal(t, 40.0, released)
	})

	t.Run("warns when the reservation was already partially released", func(t *testing.T) {
		e := newEnv()
		e.invRepo.seed("p1", 100)

		created, err := e.uc.Create(ctx, orderInput(
			dto.OrderItemInput{ProductID: "p1", Quantity: 40},
		), nil)
		require.NoError(t, err)

		// Someone released part of the reservation out of band.
		e.invRepo.byProduct["p1"].ReservedQuantity = 15

		result, err := e.uc.Cancel(ctx, created.Order.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusCancelled, result.Order.Status)
		require.Len(t, result.Warnings, 1)
		assert.Equal(t, 0.0, e.invRepo.byProduct["p1"].ReservedQuantity)
	})

	t.Run("cannot cancel a shipped order", func(t *testing.T) {
		e := newEnv()
		e.invRepo.seed("p1", 100)

		created, _ := e.uc.Create(ctx, orderInput(
			dto.OrderItemInput{ProductID: "p1", Quantity: 10},
		), nil)
		_, err := e.uc.Ship(ctx, created.Order.ID, nil)
		require.NoError(t, err)

		_, err = e.uc.Cancel(ctx, created.Order.ID, nil)
		assert.True(t, apperrors.IsConflict(err))
	})
}

func TestOrderLifecycleLedger(t *testing.T) {
	// Two orders against the same product: one cancelled, one shipped. The
	// ledger must end balanced with a full audit trail.
	e := newEnv()
	e.invRepo.seed("p1", 1000)
	ctx := context.Background()

	shipped, err := e.uc.Create(ctx, orderInput(
		dto.OrderItemInput{ProductID: "p1", Quantity: 50},
	), nil)
	require.NoError(t, err)

	cancelled, err := e.uc.Create(ctx, orderInput(
		dto.OrderItemInput{ProductID: "p1", Quantity: 100},
	), nil)
	require.NoError(t, err)
	assert.Equal(t, 150.0, e.invRepo.byProduct["p1"].ReservedQuantity)

	_, err = e.uc.Cancel(ctx, cancelled.Order.ID, nil)
	require.NoError(t, err)

	_, err = e.uc.Ship(ctx, shipped.Order.ID, nil)
	require.NoError(t, err)

	inv := e.invRepo.byProduct["p1"]
	assert.Equal(t, 950.0, inv.CurrentQuantity)
	assert.Equal(t, 0.0, inv.ReservedQuantity)

	// reserve, reserve, unreserve, out
	require.Len(t, e.invRepo.txns, 4)

	// The cancelled order's trail carries matching positive magnitudes:
	// one reserve and one unreserve of the full quantity.
	cancelledRef := fmt.Sprintf("ORDER-%s", cancelled.Order.ID)
	var delta float64
	for _, txn := range e.invRepo.txns {
		if txn.ReferenceNumber != cancelledRef {
			continue
		}
		switch txn.TransactionType {
		case model.TxnTypeReserve:
			delta += txn.Quantity
		case model.TxnTypeUnreserve:
			delta -= txn.Quantity
		}
	}
	assert.Equal(t, 0.0, delta)
}
