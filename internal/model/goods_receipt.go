package model

import "time"

// GoodsReceipt is a supplier delivery. Draft receipts (is_applied=false) are
// editable; applying commits item quantities into stock and freezes the
// receipt until it is unapplied.
type GoodsReceipt struct {
	BaseModel
	SupplierName  string     `db:"supplier_name" json:"supplier_name"`
	ReferenceCode string     `db:"reference_code" json:"reference_code"`
	Note          string     `db:"note" json:"note"`
	Date          *time.Time `db:"date" json:"date"`
	IsApplied     bool       `db:"is_applied" json:"is_applied"`
	AppliedAt     *time.Time `db:"applied_at" json:"applied_at"`

	Items []GoodsReceiptItem `db:"-" json:"items"`
}

type GoodsReceiptItem struct {
	BaseModel
	ReceiptID string  `db:"receipt_id" json:"receipt_id"`
	ProductID string  `db:"product_id" json:"product_id"`
	Unit      string  `db:"unit" json:"unit"`
	Quantity  float64 `db:"quantity" json:"quantity"`
	UnitCost  float64 `db:"unit_cost" json:"unit_cost"`
	Amount    float64 `db:"amount" json:"amount"`
}

// RecalculateAmount keeps amount = quantity x unit cost. Called on every
// save path.
func (i *GoodsReceiptItem) RecalculateAmount() {
	i.Amount = i.Quantity * i.UnitCost
}
