package inventory

import (
	"context"

	"github.com/dmtrung/gostore-inventory-service/internal/inventory/dto"
	"github.com/dmtrung/gostore-inventory-service/internal/model"
)

type Repository interface {
	// Ledger rows
	GetByID(ctx context.Context, id string) (*model.Inventory, error)
	GetByProduct(ctx context.Context, productID string) (*model.Inventory, error)
	// GetByProductForUpdate locks the row for the current transaction
	// (SELECT ... FOR UPDATE). Mutations read through this.
	GetByProductForUpdate(ctx context.Context, productID string) (*model.Inventory, error)
	// CreateIfAbsent inserts unless a row for the product already exists;
	// reports whether a row was inserted.
	CreateIfAbsent(ctx context.Context, inv *model.Inventory) (bool, error)
	UpdateQuantities(ctx context.Context, inv *model.Inventory) error
	FindAll(ctx context.Context, f *dto.InventoryFilters) ([]model.Inventory, int, error)

	// Audit log. Rows are insert-only.
	LogTransaction(ctx context.Context, txn *model.InventoryTransaction) error
	ListTransactions(ctx context.Context, f *dto.TransactionFilters) ([]model.InventoryTransaction, int, error)
	SummarizeTransactions(ctx context.Context, f *dto.TransactionFilters) ([]dto.TransactionSummary, error)
	SumByReference(ctx context.Context, referenceNumber string) (float64, error)

	Stats(ctx context.Context, cfg *model.InventoryConfiguration) (*dto.InventoryStats, error)
}
