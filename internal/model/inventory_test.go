package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAvailableQuantity(t *testing.T) {
	tests := []struct {
		name     string
		current  float64
		reserved float64
		want     float64
	}{
		{"nothing reserved", 100, 0, 100},
		{"partially reserved", 100, 30, 70},
		{"fully reserved", 50, 50, 0},
		{"over-reserved clamps to zero", 20, 35, 0},
		{"negative stock clamps to zero", -5, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &Inventory{CurrentQuantity: tt.current, ReservedQuantity: tt.reserved}
			assert.Equal(t, tt.want, inv.AvailableQuantity())
		})
	}
}

func TestLocalStatus(t *testing.T) {
	tests := []struct {
		name    string
		current float64
		min     float64
		want    StockStatus
	}{
		{"above min", 50, 10, StockStatusIn},
		{"at min", 10, 10, StockStatusLow},
		{"below min", 5, 10, StockStatusLow},
		{"zero", 0, 10, StockStatusOut},
		{"negative", -3, 10, StockStatusOut},
		{"zero min and zero stock", 0, 0, StockStatusOut},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &Inventory{CurrentQuantity: tt.current, MinQuantity: tt.min}
			assert.Equal(t, tt.want, inv.LocalStatus())
		})
	}
}

func TestTransactionConstructorSigns(t *testing.T) {
	actor := "user-1"

	in := NewStockInTxn("inv-1", 10, "GR-1", "receipt", &actor)
	assert.Equal(t, TxnTypeIn, in.TransactionType)
	assert.Equal(t, 10.0, in.Quantity)

	out := NewStockOutTxn("inv-1", 10, "ORDER-1", "shipment", &actor)
	assert.Equal(t, TxnTypeOut, out.TransactionType)
	assert.Equal(t, -10.0, out.Quantity)

	adjUp := NewAdjustTxn("inv-1", 25, "", "recount", nil)
	assert.Equal(t, TxnTypeAdjust, adjUp.TransactionType)
	assert.Equal(t, 25.0, adjUp.Quantity)

	adjDown := NewAdjustTxn("inv-1", -7, "", "recount", nil)
	assert.Equal(t, -7.0, adjDown.Quantity)

	res := NewReserveTxn("inv-1", 5, "ORDER-2", "reservation", nil)
	assert.Equal(t, TxnTypeReserve, res.TransactionType)
	assert.Equal(t, 5.0, res.Quantity)

	// The unreserve row records the applied (clamped) amount.
	unres := NewUnreserveTxn("inv-1", 3, "ORDER-2", "cancelled", nil)
	assert.Equal(t, TxnTypeUnreserve, unres.TransactionType)
	assert.Equal(t, 3.0, unres.Quantity)
}
