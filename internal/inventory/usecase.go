package inventory

import (
	"context"

	"github.com/dmtrung/gostore-inventory-service/internal/inventory/dto"
	"github.com/dmtrung/gostore-inventory-service/internal/model"
)

// TxRunner executes fn inside one database transaction; every repository
// call made with the ctx passed to fn joins that transaction.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ConfigProvider resolves the active inventory configuration.
type ConfigProvider interface {
	GetActive(ctx context.Context) (*model.InventoryConfiguration, error)
}

// UseCase is the single write path to the stock ledger. Every mutation
// updates exactly one inventory row and appends exactly one transaction
// record, atomically.
type UseCase interface {
	EnsureInventory(ctx context.Context, productID string) (*model.Inventory, error)
	GetByProduct(ctx context.Context, productID string) (*model.Inventory, error)
	GetByID(ctx context.Context, id string) (*model.Inventory, error)
	List(ctx context.Context, f *dto.InventoryFilters) ([]dto.InventoryView, int, error)

	SetStock(ctx context.Context, in *dto.StockMutationInput) (*model.Inventory, error)
	AddStock(ctx context.Context, in *dto.StockMutationInput) (*model.Inventory, error)
	ReduceStock(ctx context.Context, in *dto.StockMutationInput) (*model.Inventory, error)
	Reserve(ctx context.Context, in *dto.StockMutationInput) (*model.Inventory, error)
	// Unreserve clamps at zero; the returned applied quantity is what was
	// actually released and what the audit row records.
	Unreserve(ctx context.Context, in *dto.StockMutationInput) (*model.Inventory, float64, error)
	// ShipReserved releases the reservation and removes the stock in one
	// mutation, logged as a single stock-out. reservationShort reports a
	// reservation smaller than the shipped quantity (clamped to zero).
	ShipReserved(ctx context.Context, in *dto.StockMutationInput) (*model.Inventory, bool, error)

	ListTransactions(ctx context.Context, f *dto.TransactionFilters) ([]model.InventoryTransaction, int, error)
	SummarizeTransactions(ctx context.Context, f *dto.TransactionFilters) ([]dto.TransactionSummary, error)
	Stats(ctx context.Context) (*dto.InventoryStats, error)
}
