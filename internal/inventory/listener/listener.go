package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dmtrung/gostore-inventory-service/internal/inventory"
	"github.com/dmtrung/gostore-inventory-service/pkg/broker"
	"github.com/dmtrung/gostore-inventory-service/pkg/logger"
	"go.uber.org/zap"
)

// InventoryListener consumes product lifecycle events and keeps a ledger row
// for every product that exists, so stock operations never hit a missing row.
type InventoryListener struct {
	consumer *broker.KafkaConsumer
	uc       inventory.UseCase
	logger   logger.ZapLogger
}

func NewInventoryListener(consumer *broker.KafkaConsumer, uc inventory.UseCase, logger logger.ZapLogger) *InventoryListener {
	return &InventoryListener{
		consumer: consumer,
		uc:       uc,
		logger:   logger,
	}
}

func (l *InventoryListener) Start(ctx context.Context) {
	l.logger.Info("Starting Inventory Kafka Listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping Inventory Kafka Listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				// Don't log context canceled error as error
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				time.Sleep(1 * time.Second)
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

type ProductCreatedEvent struct {
	EventID   string         `json:"event_id"`
	EventType string         `json:"event_type"`
	Payload   ProductPayload `json:"payload"`
	Timestamp time.Time      `json:"timestamp"`
}

type ProductPayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	SKU  string `json:"sku"`
}

func (l *InventoryListener) processMessage(ctx context.Context, value []byte) {
	var event ProductCreatedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}

	if event.EventType != "ProductCreated" {
		return
	}

	l.logger.Info("Processing ProductCreated event", zap.String("product_id", event.Payload.ID))

	if _, err := l.uc.EnsureInventory(ctx, event.Payload.ID); err != nil {
		l.logger.Error("Failed to ensure inventory for product",
			zap.String("product_id", event.Payload.ID),
			zap.Error(err),
		)
	}
}
