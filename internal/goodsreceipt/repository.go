package goodsreceipt

import (
	"context"

	"github.com/dmtrung/gostore-inventory-service/internal/goodsreceipt/dto"
	"github.com/dmtrung/gostore-inventory-service/internal/model"
)

type Repository interface {
	// GetByID loads the receipt with its items; nil when absent.
	GetByID(ctx context.Context, id string) (*model.GoodsReceipt, error)
	// GetByIDForUpdate locks the receipt row so apply and unapply cannot
	// race each other.
	GetByIDForUpdate(ctx context.Context, id string) (*model.GoodsReceipt, error)
	FindAll(ctx context.Context, f *dto.ReceiptFilters) ([]model.GoodsReceipt, int, error)
	Create(ctx context.Context, receipt *model.GoodsReceipt) error
	Update(ctx context.Context, receipt *model.GoodsReceipt) error
	// ReplaceItems deletes and reinserts the receipt's item rows.
	ReplaceItems(ctx context.Context, receiptID string, items []model.GoodsReceiptItem) error
	Delete(ctx context.Context, id string) error
	// SetApplied flips the applied flag and timestamp.
	SetApplied(ctx context.Context, receipt *model.GoodsReceipt) error
}
