package model

// Threshold and reorder policy types for InventoryConfiguration.
const (
	ThresholdTypeMinQuantity = "min_quantity"
	ThresholdTypePercentage  = "percentage"
	ThresholdTypeFixed       = "fixed"

	ReorderTypeMaxQuantity = "max_quantity"
	ReorderTypeFixed       = "fixed"
	ReorderTypeMultiple    = "multiple"
)

// InventoryConfiguration holds the stock policy knobs. At most one row is
// active at a time; activation deactivates every other row in the same
// database transaction.
type InventoryConfiguration struct {
	BaseModel
	LowStockThresholdType  string  `db:"low_stock_threshold_type" json:"low_stock_threshold_type"`
	LowStockThresholdValue float64 `db:"low_stock_threshold_value" json:"low_stock_threshold_value"`
	OutOfStockThreshold    float64 `db:"out_of_stock_threshold" json:"out_of_stock_threshold"`

	EnableAutoReorder       bool    `db:"enable_auto_reorder" json:"enable_auto_reorder"`
	AutoReorderQuantityType string  `db:"auto_reorder_quantity_type" json:"auto_reorder_quantity_type"`
	AutoReorderQuantityVal  float64 `db:"auto_reorder_quantity_value" json:"auto_reorder_quantity_value"`

	AllowNegativeStock bool `db:"allow_negative_stock" json:"allow_negative_stock"`

	RequireTransactionReason    bool `db:"require_transaction_reason" json:"require_transaction_reason"`
	RequireTransactionReference bool `db:"require_transaction_reference" json:"require_transaction_reference"`

	InStockLabel    string `db:"in_stock_label" json:"in_stock_label"`
	LowStockLabel   string `db:"low_stock_label" json:"low_stock_label"`
	OutOfStockLabel string `db:"out_of_stock_label" json:"out_of_stock_label"`

	AutoReserveOnOrder   bool `db:"auto_reserve_on_order" json:"auto_reserve_on_order"`
	ReservationExpiryHrs int  `db:"reservation_expiry_hours" json:"reservation_expiry_hours"`
	EnableMultiWarehouse bool `db:"enable_multi_warehouse" json:"enable_multi_warehouse"`

	IsActive bool `db:"is_active" json:"is_active"`
}

// DefaultConfiguration mirrors the defaults used when no active row exists.
func DefaultConfiguration() *InventoryConfiguration {
	return &InventoryConfiguration{
		LowStockThresholdType:   ThresholdTypeMinQuantity,
		AutoReorderQuantityType: ReorderTypeMaxQuantity,
		InStockLabel:            "In Stock",
		LowStockLabel:           "Low Stock",
		OutOfStockLabel:         "Out of Stock",
		AutoReserveOnOrder:      true,
		ReservationExpiryHrs:    24,
		IsActive:                true,
	}
}

// LowStockThreshold resolves the low-stock boundary for one inventory row.
// Percentage applies to the max quantity and falls back to min quantity
// when no max is set.
func (c *InventoryConfiguration) LowStockThreshold(inv *Inventory) float64 {
	switch c.LowStockThresholdType {
	case ThresholdTypePercentage:
		if inv.MaxQuantity != nil {
			return *inv.MaxQuantity * (c.LowStockThresholdValue / 100)
		}
		return inv.MinQuantity
	case ThresholdTypeFixed:
		return c.LowStockThresholdValue
	default:
		return inv.MinQuantity
	}
}

func (c *InventoryConfiguration) IsOutOfStock(inv *Inventory) bool {
	return inv.CurrentQuantity <= c.OutOfStockThreshold
}

func (c *InventoryConfiguration) IsLowStock(inv *Inventory) bool {
	return inv.CurrentQuantity > c.OutOfStockThreshold &&
		inv.CurrentQuantity <= c.LowStockThreshold(inv)
}

func (c *InventoryConfiguration) IsInStock(inv *Inventory) bool {
	return inv.CurrentQuantity > c.LowStockThreshold(inv)
}

// StatusOf classifies an inventory row against the configured thresholds:
// out-of-stock wins, then low stock, else in stock.
func (c *InventoryConfiguration) StatusOf(inv *Inventory) StockStatus {
	switch {
	case c.IsOutOfStock(inv):
		return StockStatusOut
	case c.IsLowStock(inv):
		return StockStatusLow
	default:
		return StockStatusIn
	}
}

// StatusLabel returns the display label for a status.
func (c *InventoryConfiguration) StatusLabel(s StockStatus) string {
	switch s {
	case StockStatusOut:
		return c.OutOfStockLabel
	case StockStatusLow:
		return c.LowStockLabel
	default:
		return c.InStockLabel
	}
}

// ReorderQuantity computes how much to reorder for a low-stock row.
// Returns 0 when auto-reorder is disabled.
func (c *InventoryConfiguration) ReorderQuantity(inv *Inventory) float64 {
	if !c.EnableAutoReorder {
		return 0
	}

	switch c.AutoReorderQuantityType {
	case ReorderTypeFixed:
		return c.AutoReorderQuantityVal
	case ReorderTypeMultiple:
		return inv.MinQuantity * c.AutoReorderQuantityVal
	case ReorderTypeMaxQuantity:
		if inv.MaxQuantity != nil {
			if qty := *inv.MaxQuantity - inv.CurrentQuantity; qty > 0 {
				return qty
			}
			return 0
		}
		return inv.MinQuantity * 2
	}

	return 0
}
