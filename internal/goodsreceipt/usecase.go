package goodsreceipt

import (
	"context"

	"github.com/dmtrung/gostore-inventory-service/internal/goodsreceipt/dto"
	"github.com/dmtrung/gostore-inventory-service/internal/model"
)

// UseCase manages goods receipts. Apply and Unapply are the only paths
// through which a receipt touches stock; both run the whole receipt in one
// database transaction so a mid-receipt failure leaves no partial stock.
type UseCase interface {
	Create(ctx context.Context, in *dto.ReceiptInput, actor *string) (*model.GoodsReceipt, error)
	GetByID(ctx context.Context, id string) (*model.GoodsReceipt, error)
	List(ctx context.Context, f *dto.ReceiptFilters) ([]model.GoodsReceipt, int, error)
	// Update rejects applied receipts with a conflict error.
	Update(ctx context.Context, id string, in *dto.ReceiptInput) (*model.GoodsReceipt, error)
	// Delete rejects applied receipts with a conflict error.
	Delete(ctx context.Context, id string) error

	// Apply adds each item's quantity to stock and marks the receipt
	// applied. Applying an applied receipt is a conflict.
	Apply(ctx context.Context, id string, actor *string) (*model.GoodsReceipt, error)
	// Unapply reverses Apply. Unapplying a draft receipt is a conflict.
	Unapply(ctx context.Context, id string, actor *string) (*model.GoodsReceipt, error)
}
