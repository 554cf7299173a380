package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the prometheus collectors for the inventory core.
type Metrics struct {
	StockMutations     *prometheus.CounterVec
	InsufficientStock  *prometheus.CounterVec
	ReceiptTransitions *prometheus.CounterVec
	OrderTransitions   *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		StockMutations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "inventory_stock_mutations_total",
			Help: "Committed stock mutations by transaction type.",
		}, []string{"type"}),
		InsufficientStock: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "inventory_insufficient_stock_total",
			Help: "Mutations rejected for insufficient stock, by operation.",
		}, []string{"operation"}),
		ReceiptTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "goods_receipt_transitions_total",
			Help: "Goods receipt apply/unapply transitions.",
		}, []string{"transition"}),
		OrderTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "order_transitions_total",
			Help: "Order status transitions.",
		}, []string{"transition"}),
	}
}
