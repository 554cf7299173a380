package model

// Order lifecycle. Reservation is taken at creation, released by shipment
// (stock out) or cancellation (unreserve).
type OrderStatus string

const (
	OrderStatusNew       OrderStatus = "new"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusPacking   OrderStatus = "packing"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// CanShip reports whether shipment is a legal transition.
func (s OrderStatus) CanShip() bool {
	return s == OrderStatusConfirmed || s == OrderStatusPacking
}

// CanCancel reports whether cancellation is a legal transition. Shipped and
// completed orders can no longer release their reservation.
func (s OrderStatus) CanCancel() bool {
	switch s {
	case OrderStatusShipped, OrderStatusCompleted, OrderStatusCancelled:
		return false
	}
	return true
}

type Order struct {
	BaseModel
	CustomerID    *string     `db:"customer_id" json:"customer_id"`
	CustomerName  string      `db:"customer_name" json:"customer_name"`
	PaymentMethod string      `db:"payment_method" json:"payment_method"`
	PaymentStatus string      `db:"payment_status" json:"payment_status"`
	VATRate       float64     `db:"vat_rate" json:"vat_rate"`
	ShippingFee   float64     `db:"shipping_fee" json:"shipping_fee"`
	Status        OrderStatus `db:"status" json:"status"`

	Items []OrderItem `db:"-" json:"items"`
}

type OrderItem struct {
	BaseModel
	OrderID   string  `db:"order_id" json:"order_id"`
	ProductID string  `db:"product_id" json:"product_id"`
	Quantity  float64 `db:"quantity" json:"quantity"`
	Price     float64 `db:"price" json:"price"`
}
