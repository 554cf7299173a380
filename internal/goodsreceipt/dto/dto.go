package dto

import "time"

type ReceiptItemInput struct {
	ProductID string  `json:"product_id" binding:"required"`
	Unit      string  `json:"unit"`
	Quantity  float64 `json:"quantity" binding:"required,gt=0"`
	UnitCost  float64 `json:"unit_cost" binding:"gte=0"`
}

type ReceiptInput struct {
	SupplierName  string             `json:"supplier_name" binding:"required"`
	ReferenceCode string             `json:"reference_code"`
	Note          string             `json:"note"`
	Date          *time.Time         `json:"date"`
	Items         []ReceiptItemInput `json:"items" binding:"required,min=1,dive"`
}

type ReceiptFilters struct {
	// Search matches supplier name and reference code.
	Search    string
	IsApplied *bool
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	PageSize  int
}
