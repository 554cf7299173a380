package dto

// StockMutationInput carries one stock mutation request. Actor is the
// acting user id when known; it lands in the transaction's created_by.
type StockMutationInput struct {
	ProductID       string
	Quantity        float64
	Reason          string
	ReferenceNumber string
	Actor           *string
}
