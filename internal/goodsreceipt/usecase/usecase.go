package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/dmtrung/gostore-inventory-service/internal/apperrors"
	"github.com/dmtrung/gostore-inventory-service/internal/goodsreceipt"
	"github.com/dmtrung/gostore-inventory-service/internal/goodsreceipt/dto"
	"github.com/dmtrung/gostore-inventory-service/internal/inventory"
	invdto "github.com/dmtrung/gostore-inventory-service/internal/inventory/dto"
	"github.com/dmtrung/gostore-inventory-service/internal/model"
	"github.com/dmtrung/gostore-inventory-service/pkg/logger"
	"github.com/dmtrung/gostore-inventory-service/pkg/metrics"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("goodsreceipt-usecase")

type receiptUseCase struct {
	repo    goodsreceipt.Repository
	txm     inventory.TxRunner
	stock   inventory.UseCase
	metrics *metrics.Metrics
	logger  logger.ZapLogger
}

func NewReceiptUseCase(
	repo goodsreceipt.Repository,
	txm inventory.TxRunner,
	stock inventory.UseCase,
	m *metrics.Metrics,
	log logger.ZapLogger,
) goodsreceipt.UseCase {
	return &receiptUseCase{
		repo:    repo,
		txm:     txm,
		stock:   stock,
		metrics: m,
		logger:  log,
	}
}

func (uc *receiptUseCase) Create(ctx context.Context, in *dto.ReceiptInput, actor *string) (*model.GoodsReceipt, error) {
	now := time.Now().UTC()
	receipt := &model.GoodsReceipt{
		BaseModel: model.BaseModel{
			ID:        uuid.New().String(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		SupplierName:  in.SupplierName,
		ReferenceCode: in.ReferenceCode,
		Note:          in.Note,
		Date:          in.Date,
	}
	receipt.Items = buildItems(receipt.ID, in.Items, now)

	if err := uc.txm.RunInTx(ctx, func(ctx context.Context) error {
		return uc.repo.Create(ctx, receipt)
	}); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to create goods receipt", err)
	}

	uc.logger.Info("Created goods receipt",
		zap.String("receipt_id", receipt.ID),
		zap.Int("items", len(receipt.Items)),
	)
	return receipt, nil
}

func (uc *receiptUseCase) GetByID(ctx context.Context, id string) (*model.GoodsReceipt, error) {
	receipt, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to load goods receipt", err)
	}
	if receipt == nil {
		return nil, apperrors.Newf(apperrors.CodeNotFound, "goods receipt %s not found", id)
	}
	return receipt, nil
}

func (uc *receiptUseCase) List(ctx context.Context, f *dto.ReceiptFilters) ([]model.GoodsReceipt, int, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	return uc.repo.FindAll(ctx, f)
}

// Update replaces the receipt's fields and items. Applied receipts are
// frozen: their items already moved stock, so editing them would desync the
// ledger from the receipt.
func (uc *receiptUseCase) Update(ctx context.Context, id string, in *dto.ReceiptInput) (*model.GoodsReceipt, error) {
	var updated *model.GoodsReceipt

	err := uc.txm.RunInTx(ctx, func(ctx context.Context) error {
		receipt, err := uc.repo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to load goods receipt", err)
		}
		if receipt == nil {
			return apperrors.Newf(apperrors.CodeNotFound, "goods receipt %s not found", id)
		}
		if receipt.IsApplied {
			return apperrors.New(apperrors.CodeConflict, "cannot edit an applied goods receipt")
		}

		now := time.Now().UTC()
		receipt.SupplierName = in.SupplierName
		receipt.ReferenceCode = in.ReferenceCode
		receipt.Note = in.Note
		receipt.Date = in.Date
		receipt.UpdatedAt = now
		receipt.Items = buildItems(receipt.ID, in.Items, now)

		if err := uc.repo.Update(ctx, receipt); err != nil {
			return err
		}
		if err := uc.repo.ReplaceItems(ctx, receipt.ID, receipt.Items); err != nil {
			return err
		}

		updated = receipt
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (uc *receiptUseCase) Delete(ctx context.Context, id string) error {
	return uc.txm.RunInTx(ctx, func(ctx context.Context) error {
		receipt, err := uc.repo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to load goods receipt", err)
		}
		if receipt == nil {
			return apperrors.Newf(apperrors.CodeNotFound, "goods receipt %s not found", id)
		}
		if receipt.IsApplied {
			return apperrors.New(apperrors.CodeConflict, "cannot delete an applied goods receipt; unapply it first")
		}
		return uc.repo.Delete(ctx, id)
	})
}

// Apply commits every item into stock and marks the receipt applied, all in
// one transaction. A failure on any item rolls back the whole receipt.
func (uc *receiptUseCase) Apply(ctx context.Context, id string, actor *string) (*model.GoodsReceipt, error) {
	ctx, span := tracer.Start(ctx, "receiptUseCase.Apply")
	defer span.End()

	var applied *model.GoodsReceipt

	err := uc.txm.RunInTx(ctx, func(ctx context.Context) error {
		receipt, err := uc.repo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to load goods receipt", err)
		}
		if receipt == nil {
			return apperrors.Newf(apperrors.CodeNotFound, "goods receipt %s not found", id)
		}
		if receipt.IsApplied {
			return apperrors.New(apperrors.CodeConflict, "goods receipt is already applied")
		}

		for i := range receipt.Items {
			item := &receipt.Items[i]
			_, err := uc.stock.AddStock(ctx, &invdto.StockMutationInput{
				ProductID:       item.ProductID,
				Quantity:        item.Quantity,
				Reason:          fmt.Sprintf("Goods receipt from %s", receipt.SupplierName),
				ReferenceNumber: fmt.Sprintf("GR-%s", receipt.ID),
				Actor:           actor,
			})
			if err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		receipt.IsApplied = true
		receipt.AppliedAt = &now
		receipt.UpdatedAt = now
		if err := uc.repo.SetApplied(ctx, receipt); err != nil {
			return err
		}

		applied = receipt
		return nil
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.ReceiptTransitions.WithLabelValues("applied").Inc()
	}
	uc.logger.Info("Applied goods receipt",
		zap.String("receipt_id", applied.ID),
		zap.Int("items", len(applied.Items)),
	)
	return applied, nil
}

// Unapply removes what Apply added, under a distinct reference so the audit
// trail keeps both movements.
func (uc *receiptUseCase) Unapply(ctx context.Context, id string, actor *string) (*model.GoodsReceipt, error) {
	ctx, span := tracer.Start(ctx, "receiptUseCase.Unapply")
	defer span.End()

	var unapplied *model.GoodsReceipt

	err := uc.txm.RunInTx(ctx, func(ctx context.Context) error {
		receipt, err := uc.repo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to load goods receipt", err)
		}
		if receipt == nil {
			return apperrors.Newf(apperrors.CodeNotFound, "goods receipt %s not found", id)
		}
		if !receipt.IsApplied {
			return apperrors.New(apperrors.CodeConflict, "goods receipt is not applied")
		}

		for i := range receipt.Items {
			item := &receipt.Items[i]
			_, err := uc.stock.ReduceStock(ctx, &invdto.StockMutationInput{
				ProductID:       item.ProductID,
				Quantity:        item.Quantity,
				Reason:          fmt.Sprintf("Unapplied goods receipt from %s", receipt.SupplierName),
				ReferenceNumber: fmt.Sprintf("GR-UNAPPLY-%s", receipt.ID),
				Actor:           actor,
			})
			if err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		receipt.IsApplied = false
		receipt.AppliedAt = nil
		receipt.UpdatedAt = now
		if err := uc.repo.SetApplied(ctx, receipt); err != nil {
			return err
		}

		unapplied = receipt
		return nil
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.ReceiptTransitions.WithLabelValues("unapplied").Inc()
	}
	uc.logger.Info("Unapplied goods receipt", zap.String("receipt_id", unapplied.ID))
	return unapplied, nil
}

func buildItems(receiptID string, inputs []dto.ReceiptItemInput, now time.Time) []model.GoodsReceiptItem {
	items := make([]model.GoodsReceiptItem, 0, len(inputs))
	for _, in := range inputs {
		item := model.GoodsReceiptItem{
			BaseModel: model.BaseModel{
				ID:        uuid.New().String(),
				CreatedAt: now,
				UpdatedAt: now,
			},
			ReceiptID: receiptID,
			ProductID: in.ProductID,
			Unit:      in.Unit,
			Quantity:  in.Quantity,
			UnitCost:  in.UnitCost,
		}
		item.RecalculateAmount()
		items = append(items, item)
	}
	return items
}
