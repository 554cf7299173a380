package model

// Inventory is the stock ledger row for one product: quantity physically on
// hand plus the share of it reserved by unshipped orders. All writes go
// through the inventory usecase so that every change lands in the
// transaction log.
type Inventory struct {
	BaseModel
	ProductID        string   `db:"product_id" json:"product_id"`
	CurrentQuantity  float64  `db:"current_quantity" json:"current_quantity"`
	MinQuantity      float64  `db:"min_quantity" json:"min_quantity"`
	MaxQuantity      *float64 `db:"max_quantity" json:"max_quantity"`
	ReservedQuantity float64  `db:"reserved_quantity" json:"reserved_quantity"`
}

// AvailableQuantity is the sellable quantity: on hand minus reserved,
// never reported below zero.
func (i *Inventory) AvailableQuantity() float64 {
	if avail := i.CurrentQuantity - i.ReservedQuantity; avail > 0 {
		return avail
	}
	return 0
}

// IsLowStockLocal classifies against the row's own min quantity, without
// consulting the active configuration. Callers wanting threshold-type and
// out-of-stock-threshold awareness use InventoryConfiguration.StatusOf.
func (i *Inventory) IsLowStockLocal() bool {
	return i.CurrentQuantity <= i.MinQuantity
}

func (i *Inventory) IsOutOfStockLocal() bool {
	return i.CurrentQuantity <= 0
}

// LocalStatus is the configuration-independent classification.
func (i *Inventory) LocalStatus() StockStatus {
	switch {
	case i.IsOutOfStockLocal():
		return StockStatusOut
	case i.IsLowStockLocal():
		return StockStatusLow
	default:
		return StockStatusIn
	}
}

type StockStatus string

const (
	StockStatusIn  StockStatus = "in_stock"
	StockStatusLow StockStatus = "low_stock"
	StockStatusOut StockStatus = "out_of_stock"
)

// Transaction types. The quantity sign convention is mixed and load-bearing
// for reconciliation reports: in/reserve/unreserve are recorded positive,
// out negative, adjust carries the signed delta. Reserve and unreserve
// quantities are reservation deltas, not stock deltas. Use the New*Txn
// constructors instead of filling quantities by hand.
const (
	TxnTypeIn        = "in"
	TxnTypeOut       = "out"
	TxnTypeAdjust    = "adjust"
	TxnTypeReserve   = "reserve"
	TxnTypeUnreserve = "unreserve"
)

// InventoryTransaction is one immutable audit record. Rows are only ever
// inserted, in the same database transaction as the ledger mutation they
// describe.
type InventoryTransaction struct {
	BaseModel
	InventoryID     string  `db:"inventory_id" json:"inventory_id"`
	TransactionType string  `db:"transaction_type" json:"transaction_type"`
	Quantity        float64 `db:"quantity" json:"quantity"`
	ReferenceNumber string  `db:"reference_number" json:"reference_number"`
	Reason          string  `db:"reason" json:"reason"`
	CreatedBy       *string `db:"created_by" json:"created_by"`
}

func newTxn(inventoryID, txnType string, quantity float64, ref, reason string, actor *string) *InventoryTransaction {
	return &InventoryTransaction{
		InventoryID:     inventoryID,
		TransactionType: txnType,
		Quantity:        quantity,
		ReferenceNumber: ref,
		Reason:          reason,
		CreatedBy:       actor,
	}
}

// NewStockInTxn records a stock increase of qty (qty >= 0).
func NewStockInTxn(inventoryID string, qty float64, ref, reason string, actor *string) *InventoryTransaction {
	return newTxn(inventoryID, TxnTypeIn, qty, ref, reason, actor)
}

// NewStockOutTxn records a stock decrease of qty (qty >= 0); the stored
// quantity is -qty.
func NewStockOutTxn(inventoryID string, qty float64, ref, reason string, actor *string) *InventoryTransaction {
	return newTxn(inventoryID, TxnTypeOut, -qty, ref, reason, actor)
}

// NewAdjustTxn records a set-stock with the signed delta new-old.
func NewAdjustTxn(inventoryID string, delta float64, ref, reason string, actor *string) *InventoryTransaction {
	return newTxn(inventoryID, TxnTypeAdjust, delta, ref, reason, actor)
}

// NewReserveTxn records a reservation increase of qty (positive magnitude).
func NewReserveTxn(inventoryID string, qty float64, ref, reason string, actor *string) *InventoryTransaction {
	return newTxn(inventoryID, TxnTypeReserve, qty, ref, reason, actor)
}

// NewUnreserveTxn records a reservation release. appliedQty is the amount
// actually released after clamping, which is what the audit trail keeps.
func NewUnreserveTxn(inventoryID string, appliedQty float64, ref, reason string, actor *string) *InventoryTransaction {
	return newTxn(inventoryID, TxnTypeUnreserve, appliedQty, ref, reason, actor)
}
