package dto

// ConfigurationInput carries every policy knob for create and update.
type ConfigurationInput struct {
	LowStockThresholdType  string  `json:"low_stock_threshold_type" binding:"omitempty,oneof=min_quantity percentage fixed"`
	LowStockThresholdValue float64 `json:"low_stock_threshold_value" binding:"gte=0"`
	OutOfStockThreshold    float64 `json:"out_of_stock_threshold" binding:"gte=0"`

	EnableAutoReorder       bool    `json:"enable_auto_reorder"`
	AutoReorderQuantityType string  `json:"auto_reorder_quantity_type" binding:"omitempty,oneof=max_quantity fixed multiple"`
	AutoReorderQuantityVal  float64 `json:"auto_reorder_quantity_value" binding:"gte=0"`

	AllowNegativeStock bool `json:"allow_negative_stock"`

	RequireTransactionReason    bool `json:"require_transaction_reason"`
	RequireTransactionReference bool `json:"require_transaction_reference"`

	InStockLabel    string `json:"in_stock_label"`
	LowStockLabel   string `json:"low_stock_label"`
	OutOfStockLabel string `json:"out_of_stock_label"`

	AutoReserveOnOrder   bool `json:"auto_reserve_on_order"`
	ReservationExpiryHrs int  `json:"reservation_expiry_hours" binding:"gte=0"`
	EnableMultiWarehouse bool `json:"enable_multi_warehouse"`
}

type ConfigurationFilters struct {
	IsActive *bool
	Page     int
	PageSize int
}
