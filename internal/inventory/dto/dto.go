package dto

import (
	"time"

	"github.com/dmtrung/gostore-inventory-service/internal/model"
)

type InventoryFilters struct {
	ProductID   string
	StockStatus string // in_stock / low_stock / out_of_stock, config thresholds
	Page        int
	PageSize    int

	// OutOfStockThreshold is resolved from the active configuration by the
	// usecase before the filter reaches the repository.
	OutOfStockThreshold *float64
}

type TransactionFilters struct {
	InventoryID     string
	ProductID       string
	TransactionType string
	ReferenceNumber string
	StartDate       *time.Time
	EndDate         *time.Time
	Page            int
	PageSize        int
}

// TransactionSummary is one aggregation bucket for the reporting read path.
type TransactionSummary struct {
	TransactionType string  `db:"transaction_type" json:"transaction_type"`
	TotalQuantity   float64 `db:"total_quantity" json:"total_quantity"`
	Count           int     `db:"count" json:"count"`
}

// InventoryView is the read projection handed to external callers: the raw
// row plus both classifiers, exposed separately so callers pick one
// deliberately.
type InventoryView struct {
	model.Inventory
	AvailableQuantity float64           `json:"available_quantity"`
	LocalStatus       model.StockStatus `json:"local_status"`
	ConfiguredStatus  model.StockStatus `json:"configured_status"`
	StatusLabel       string            `json:"status_label"`
	ReorderQuantity   float64           `json:"reorder_quantity"`
}

type InventoryStats struct {
	TotalProducts    int     `db:"total_products" json:"total_products"`
	LowStockCount    int     `db:"low_stock_count" json:"low_stock_count"`
	OutOfStockCount  int     `db:"out_of_stock_count" json:"out_of_stock_count"`
	TotalCurrentQty  float64 `db:"total_current_qty" json:"total_current_quantity"`
	TotalReservedQty float64 `db:"total_reserved_qty" json:"total_reserved_quantity"`

	InStockLabel    string `db:"-" json:"in_stock_label"`
	LowStockLabel   string `db:"-" json:"low_stock_label"`
	OutOfStockLabel string `db:"-" json:"out_of_stock_label"`
}
