package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type txKey struct{}

// TxManager runs functions inside a database transaction. The transaction is
// carried through the context so that repositories sharing the same *sqlx.DB
// join it transparently via Ext.
type TxManager struct {
	DB *sqlx.DB
}

func NewTxManager(db *sqlx.DB) *TxManager {
	return &TxManager{DB: db}
}

// RunInTx begins a transaction, stores it in the context and invokes fn.
// Commit happens only when fn returns nil; any error rolls everything back.
// Nested calls reuse the outer transaction.
func (m *TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if TxFrom(ctx) != nil {
		return fn(ctx)
	}

	tx, err := m.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// TxFrom returns the transaction stored in ctx, or nil.
func TxFrom(ctx context.Context) *sqlx.Tx {
	tx, _ := ctx.Value(txKey{}).(*sqlx.Tx)
	return tx
}

// Ext returns the context transaction when present, else the pool.
func Ext(ctx context.Context, db *sqlx.DB) sqlx.ExtContext {
	if tx := TxFrom(ctx); tx != nil {
		return tx
	}
	return db
}
