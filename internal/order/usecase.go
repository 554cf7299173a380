package order

import (
	"context"

	"github.com/dmtrung/gostore-inventory-service/internal/model"
	"github.com/dmtrung/gostore-inventory-service/internal/order/dto"
)

// UseCase drives the order lifecycle against the stock ledger. Create
// validates availability for every item before touching stock, then inserts
// the order and reserves all items in one transaction: an order either
// reserves everything or nothing.
type UseCase interface {
	// Create returns an insufficient-stock error listing every short item
	// when any item cannot be covered. An idempotency key, when present,
	// makes replays return the already-created order.
	Create(ctx context.Context, in *dto.OrderInput, actor *string) (*dto.OrderResult, error)
	GetByID(ctx context.Context, id string) (*model.Order, error)
	List(ctx context.Context, f *dto.OrderFilters) ([]model.Order, int, error)

	// Ship turns each item's reservation into a stock out. Per-item
	// reservation mismatches are reported as warnings; the shipment only
	// fails when no item could ship.
	Ship(ctx context.Context, id string, actor *string) (*dto.OrderResult, error)
	// Cancel releases the order's reservations (clamped at zero) and marks
	// it cancelled. Shipped and completed orders cannot be cancelled.
	Cancel(ctx context.Context, id string, actor *string) (*dto.OrderResult, error)
}
