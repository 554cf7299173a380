package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/dmtrung/gostore-inventory-service/internal/apperrors"
	"github.com/dmtrung/gostore-inventory-service/internal/inventory"
	invdto "github.com/dmtrung/gostore-inventory-service/internal/inventory/dto"
	"github.com/dmtrung/gostore-inventory-service/internal/model"
	"github.com/dmtrung/gostore-inventory-service/internal/order"
	"github.com/dmtrung/gostore-inventory-service/internal/order/dto"
	"github.com/dmtrung/gostore-inventory-service/pkg/logger"
	"github.com/dmtrung/gostore-inventory-service/pkg/metrics"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("order-usecase")

const (
	idempotencyKeyPrefix = "order:idempotency:"
	idempotencyTTL       = 10 * time.Minute
)

// Cache is the subset of the redis client used for idempotency keys.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

type orderUseCase struct {
	repo    order.Repository
	txm     inventory.TxRunner
	stock   inventory.UseCase
	config  inventory.ConfigProvider
	cache   Cache
	metrics *metrics.Metrics
	logger  logger.ZapLogger
}

func NewOrderUseCase(
	repo order.Repository,
	txm inventory.TxRunner,
	stock inventory.UseCase,
	config inventory.ConfigProvider,
	cache Cache,
	m *metrics.Metrics,
	log logger.ZapLogger,
) order.UseCase {
	return &orderUseCase{
		repo:    repo,
		txm:     txm,
		stock:   stock,
		config:  config,
		cache:   cache,
		metrics: m,
		logger:  log,
	}
}

// Create validates availability for every item before any write: a short
// order is rejected with the full shortage list and zero ledger rows. The
// pre-check is advisory; the reserve guard inside the transaction is what
// actually protects against concurrent oversell.
func (uc *orderUseCase) Create(ctx context.Context, in *dto.OrderInput, actor *string) (*dto.OrderResult, error) {
	ctx, span := tracer.Start(ctx, "orderUseCase.Create")
	defer span.End()

	if replay, err := uc.lookupIdempotent(ctx, in.IdempotencyKey); err != nil {
		return nil, err
	} else if replay != nil {
		return replay, nil
	}

	cfg, err := uc.config.GetActive(ctx)
	if err != nil {
		return nil, err
	}

	if err := uc.checkAvailability(ctx, in.Items); err != nil {
		if uc.metrics != nil && apperrors.IsInsufficientStock(err) {
			uc.metrics.InsufficientStock.WithLabelValues("order_create").Inc()
		}
		return nil, err
	}

	now := time.Now().UTC()
	ord := &model.Order{
		BaseModel: model.BaseModel{
			ID:        uuid.New().String(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		CustomerID:    in.CustomerID,
		CustomerName:  in.CustomerName,
		PaymentMethod: in.PaymentMethod,
		PaymentStatus: in.PaymentStatus,
		VATRate:       in.VATRate,
		ShippingFee:   in.ShippingFee,
		Status:        model.OrderStatusNew,
	}
	for _, item := range in.Items {
		ord.Items = append(ord.Items, model.OrderItem{
			BaseModel: model.BaseModel{
				ID:        uuid.New().String(),
				CreatedAt: now,
				UpdatedAt: now,
			},
			OrderID:   ord.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}
	if cfg.AutoReserveOnOrder {
		ord.Status = model.OrderStatusConfirmed
	}

	err = uc.txm.RunInTx(ctx, func(ctx context.Context) error {
		if err := uc.repo.Create(ctx, ord); err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to insert order", err)
		}
		if !cfg.AutoReserveOnOrder {
			return nil
		}
		for _, item := range ord.Items {
			_, err := uc.stock.Reserve(ctx, &invdto.StockMutationInput{
				ProductID:       item.ProductID,
				Quantity:        item.Quantity,
				Reason:          "Order reservation",
				ReferenceNumber: fmt.Sprintf("ORDER-%s", ord.ID),
				Actor:           actor,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if uc.metrics != nil && apperrors.IsInsufficientStock(err) {
			uc.metrics.InsufficientStock.WithLabelValues("order_create").Inc()
		}
		return nil, err
	}

	uc.storeIdempotent(ctx, in.IdempotencyKey, ord.ID)
	if uc.metrics != nil {
		uc.metrics.OrderTransitions.WithLabelValues("created").Inc()
	}
	uc.logger.Info("Created order",
		zap.String("order_id", ord.ID),
		zap.String("status", string(ord.Status)),
		zap.Int("items", len(ord.Items)),
	)
	return &dto.OrderResult{Order: ord}, nil
}

func (uc *orderUseCase) GetByID(ctx context.Context, id string) (*model.Order, error) {
	ord, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to load order", err)
	}
	if ord == nil {
		return nil, apperrors.Newf(apperrors.CodeNotFound, "order %s not found", id)
	}
	return ord, nil
}

func (uc *orderUseCase) List(ctx context.Context, f *dto.OrderFilters) ([]model.Order, int, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	return uc.repo.FindAll(ctx, f)
}

// Ship converts each item's reservation into a stock out. An item whose
// stock cannot cover the shipment is skipped with a warning; the shipment
// fails only when no item could ship.
func (uc *orderUseCase) Ship(ctx context.Context, id string, actor *string) (*dto.OrderResult, error) {
	ctx, span := tracer.Start(ctx, "orderUseCase.Ship")
	defer span.End()

	var result *dto.OrderResult

	err := uc.txm.RunInTx(ctx, func(ctx context.Context) error {
		ord, err := uc.repo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to load order", err)
		}
		if ord == nil {
			return apperrors.Newf(apperrors.CodeNotFound, "order %s not found", id)
		}
		if !ord.Status.CanShip() {
			return apperrors.Newf(apperrors.CodeConflict, "cannot ship order in status %s", ord.Status)
		}

		var warnings []string
		shipped := 0
		for _, item := range ord.Items {
			_, reservationShort, err := uc.stock.ShipReserved(ctx, &invdto.StockMutationInput{
				ProductID:       item.ProductID,
				Quantity:        item.Quantity,
				Reason:          "Order shipment",
				ReferenceNumber: fmt.Sprintf("ORDER-%s", ord.ID),
				Actor:           actor,
			})
			if err != nil {
				if apperrors.IsInsufficientStock(err) {
					warnings = append(warnings,
						fmt.Sprintf("product %s: insufficient stock to ship %.2f", item.ProductID, item.Quantity))
					continue
				}
				return err
			}
			if reservationShort {
				warnings = append(warnings,
					fmt.Sprintf("product %s: reservation was smaller than shipped quantity %.2f", item.ProductID, item.Quantity))
			}
			shipped++
		}

		if shipped == 0 && len(ord.Items) > 0 {
			return apperrors.New(apperrors.CodeConflict, "no order item could be shipped")
		}

		ord.Status = model.OrderStatusShipped
		ord.UpdatedAt = time.Now().UTC()
		if err := uc.repo.UpdateStatus(ctx, ord); err != nil {
			return err
		}

		result = &dto.OrderResult{Order: ord, Warnings: warnings}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.OrderTransitions.WithLabelValues("shipped").Inc()
	}
	uc.logger.Info("Shipped order",
		zap.String("order_id", result.Order.ID),
		zap.Int("warnings", len(result.Warnings)),
	)
	return result, nil
}

// Cancel releases every reservation the order still holds. Releases clamp
// at zero, so a cancel never fails on ledger state; illegal transitions are
// the only error.
func (uc *orderUseCase) Cancel(ctx context.Context, id string, actor *string) (*dto.OrderResult, error) {
	ctx, span := tracer.Start(ctx, "orderUseCase.Cancel")
	defer span.End()

	var result *dto.OrderResult

	err := uc.txm.RunInTx(ctx, func(ctx context.Context) error {
		ord, err := uc.repo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to load order", err)
		}
		if ord == nil {
			return apperrors.Newf(apperrors.CodeNotFound, "order %s not found", id)
		}
		if !ord.Status.CanCancel() {
			return apperrors.Newf(apperrors.CodeConflict, "cannot cancel order in status %s", ord.Status)
		}

		var warnings []string
		for _, item := range ord.Items {
			_, applied, err := uc.stock.Unreserve(ctx, &invdto.StockMutationInput{
				ProductID:       item.ProductID,
				Quantity:        item.Quantity,
				Reason:          "Order cancelled",
				ReferenceNumber: fmt.Sprintf("ORDER-%s", ord.ID),
				Actor:           actor,
			})
			if err != nil {
				if apperrors.IsNotFound(err) {
					warnings = append(warnings,
						fmt.Sprintf("product %s: no inventory row to release", item.ProductID))
					continue
				}
				return err
			}
			if applied < item.Quantity {
				warnings = append(warnings,
					fmt.Sprintf("product %s: released %.2f of %.2f reserved", item.ProductID, applied, item.Quantity))
			}
		}

		ord.Status = model.OrderStatusCancelled
		ord.UpdatedAt = time.Now().UTC()
		if err := uc.repo.UpdateStatus(ctx, ord); err != nil {
			return err
		}

		result = &dto.OrderResult{Order: ord, Warnings: warnings}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.OrderTransitions.WithLabelValues("cancelled").Inc()
	}
	uc.logger.Info("Cancelled order",
		zap.String("order_id", result.Order.ID),
		zap.Int("warnings", len(result.Warnings)),
	)
	return result, nil
}

// checkAvailability collects every short item so the caller sees the whole
// problem at once instead of failing on the first one.
func (uc *orderUseCase) checkAvailability(ctx context.Context, items []dto.OrderItemInput) error {
	var shortages []apperrors.StockShortage
	for _, item := range items {
		inv, err := uc.stock.GetByProduct(ctx, item.ProductID)
		if err != nil {
			if apperrors.IsNotFound(err) {
				shortages = append(shortages, apperrors.StockShortage{
					ProductID: item.ProductID,
					Requested: item.Quantity,
					Available: 0,
				})
				continue
			}
			return err
		}
		if available := inv.AvailableQuantity(); available < item.Quantity {
			shortages = append(shortages, apperrors.StockShortage{
				ProductID: item.ProductID,
				Requested: item.Quantity,
				Available: available,
			})
		}
	}
	if len(shortages) > 0 {
		return apperrors.NewInsufficientStock(shortages...)
	}
	return nil
}

func (uc *orderUseCase) lookupIdempotent(ctx context.Context, key string) (*dto.OrderResult, error) {
	if key == "" || uc.cache == nil {
		return nil, nil
	}
	orderID, err := uc.cache.Get(ctx, idempotencyKeyPrefix+key)
	if err != nil {
		uc.logger.Warn("Idempotency lookup failed", zap.Error(err))
		return nil, nil
	}
	if orderID == "" {
		return nil, nil
	}

	ord, err := uc.GetByID(ctx, orderID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	uc.logger.Info("Replayed order create via idempotency key", zap.String("order_id", ord.ID))
	return &dto.OrderResult{Order: ord, Replayed: true}, nil
}

func (uc *orderUseCase) storeIdempotent(ctx context.Context, key, orderID string) {
	if key == "" || uc.cache == nil {
		return
	}
	if err := uc.cache.Set(ctx, idempotencyKeyPrefix+key, orderID, idempotencyTTL); err != nil {
		uc.logger.Warn("Failed to store idempotency key", zap.Error(err))
	}
}
