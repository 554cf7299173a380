package dto

import "github.com/dmtrung/gostore-inventory-service/internal/model"

type OrderItemInput struct {
	ProductID string  `json:"product_id" binding:"required"`
	Quantity  float64 `json:"quantity" binding:"required,gt=0"`
	Price     float64 `json:"price" binding:"gte=0"`
}

type OrderInput struct {
	CustomerID    *string          `json:"customer_id"`
	CustomerName  string           `json:"customer_name"`
	PaymentMethod string           `json:"payment_method"`
	PaymentStatus string           `json:"payment_status"`
	VATRate       float64          `json:"vat_rate" binding:"gte=0"`
	ShippingFee   float64          `json:"shipping_fee" binding:"gte=0"`
	Items         []OrderItemInput `json:"items" binding:"required,min=1,dive"`

	// IdempotencyKey deduplicates retried order submissions.
	IdempotencyKey string `json:"idempotency_key"`
}

type OrderFilters struct {
	Status     string
	CustomerID string
	Page       int
	PageSize   int
}

// OrderResult carries the order plus any per-item warnings from clamped
// reservations during ship or cancel.
type OrderResult struct {
	Order    *model.Order `json:"order"`
	Warnings []string     `json:"warnings,omitempty"`
	// Replayed is set when an idempotency key matched a previous create.
	Replayed bool `json:"replayed,omitempty"`
}
