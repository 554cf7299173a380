package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies application errors across features so handlers can map
// them to transport status codes without inspecting messages.
type Code string

const (
	CodeValidation        Code = "validation_error"
	CodeNotFound          Code = "not_found"
	CodeConflict          Code = "conflict"
	CodeInsufficientStock Code = "insufficient_stock"
	CodeInternal          Code = "internal_error"
)

type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// StockShortage identifies one product that could not satisfy a request.
type StockShortage struct {
	ProductID string  `json:"product_id"`
	Requested float64 `json:"requested"`
	Available float64 `json:"available"`
}

// InsufficientStockError carries the full list of offending items so order
// creation can report every shortage at once.
type InsufficientStockError struct {
	Shortages []StockShortage
}

func (e *InsufficientStockError) Error() string {
	if len(e.Shortages) == 1 {
		s := e.Shortages[0]
		return fmt.Sprintf("insufficient stock for product %s: requested %.2f, available %.2f",
			s.ProductID, s.Requested, s.Available)
	}
	return fmt.Sprintf("insufficient stock for %d products", len(e.Shortages))
}

func NewInsufficientStock(shortages ...StockShortage) *InsufficientStockError {
	return &InsufficientStockError{Shortages: shortages}
}

// CodeOf extracts the classification of err, defaulting to internal.
func CodeOf(err error) Code {
	var insufficient *InsufficientStockError
	if errors.As(err, &insufficient) {
		return CodeInsufficientStock
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

func IsNotFound(err error) bool {
	return CodeOf(err) == CodeNotFound
}

func IsConflict(err error) bool {
	return CodeOf(err) == CodeConflict
}

func IsValidation(err error) bool {
	return CodeOf(err) == CodeValidation
}

func IsInsufficientStock(err error) bool {
	return CodeOf(err) == CodeInsufficientStock
}

// HTTPStatus maps an application error to a response status.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeInsufficientStock:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
