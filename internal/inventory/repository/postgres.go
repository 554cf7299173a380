package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmtrung/gostore-inventory-service/internal/inventory/dto"
	"github.com/dmtrung/gostore-inventory-service/internal/model"
	"github.com/dmtrung/gostore-inventory-service/pkg/postgres"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) GetByID(ctx context.Context, id string) (*model.Inventory, error) {
	var inv model.Inventory
	err := r.DB.GetContext(ctx, &inv, `SELECT * FROM inventory WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &inv, nil
}

func (r *PGRepository) GetByProduct(ctx context.Context, productID string) (*model.Inventory, error) {
	var inv model.Inventory
	err := sqlx.GetContext(ctx, postgres.Ext(ctx, r.DB), &inv,
		`SELECT * FROM inventory WHERE product_id = $1`, productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &inv, nil
}

// GetByProductForUpdate serializes concurrent mutations on the same product:
// the row lock is held until the enclosing transaction commits.
func (r *PGRepository) GetByProductForUpdate(ctx context.Context, productID string) (*model.Inventory, error) {
	var inv model.Inventory
	err := sqlx.GetContext(ctx, postgres.Ext(ctx, r.DB), &inv,
		`SELECT * FROM inventory WHERE product_id = $1 FOR UPDATE`, productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock inventory row: %w", err)
	}
	return &inv, nil
}

func (r *PGRepository) CreateIfAbsent(ctx context.Context, inv *model.Inventory) (bool, error) {
	query := `
        INSERT INTO inventory (
            id, product_id, current_quantity, min_quantity, max_quantity,
            reserved_quantity, created_at, updated_at
        )
        VALUES (
            :id, :product_id, :current_quantity, :min_quantity, :max_quantity,
            :reserved_quantity, :created_at, :updated_at
        )
        ON CONFLICT (product_id) DO NOTHING
    `
	res, err := sqlx.NamedExecContext(ctx, postgres.Ext(ctx, r.DB), query, inv)
	if err != nil {
		return false, fmt.Errorf("failed to insert inventory: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *PGRepository) UpdateQuantities(ctx context.Context, inv *model.Inventory) error {
	query := `
        UPDATE inventory SET
            current_quantity = :current_quantity,
            reserved_quantity = :reserved_quantity,
            min_quantity = :min_quantity,
            max_quantity = :max_quantity,
            updated_at = :updated_at
        WHERE id = :id
    `
	_, err := sqlx.NamedExecContext(ctx, postgres.Ext(ctx, r.DB), query, inv)
	if err != nil {
		return fmt.Errorf("failed to update inventory: %w", err)
	}
	return nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.InventoryFilters) ([]model.Inventory, int, error) {
	var items []model.Inventory
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.ProductID != "" {
		conditions = append(conditions, "product_id = :product_id")
		args["product_id"] = f.ProductID
	}
	if f.StockStatus != "" && f.OutOfStockThreshold != nil {
		args["oos_threshold"] = *f.OutOfStockThreshold
		switch f.StockStatus {
		case string(model.StockStatusOut):
			conditions = append(conditions, "current_quantity <= :oos_threshold")
		case string(model.StockStatusLow):
			// min_quantity approximates the per-row threshold; percentage
			// and fixed thresholds are resolved in the usecase projection.
			conditions = append(conditions, "current_quantity > :oos_threshold AND current_quantity <= min_quantity")
		case string(model.StockStatusIn):
			conditions = append(conditions, "current_quantity > min_quantity")
		}
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT count(*) FROM inventory" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	if rows.Next() {
		rows.Scan(&count)
	}

	query := "SELECT * FROM inventory" + whereClause + " ORDER BY updated_at DESC"
	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	err = nstmt.SelectContext(ctx, &items, args)
	return items, count, err
}

func (r *PGRepository) LogTransaction(ctx context.Context, txn *model.InventoryTransaction) error {
	query := `
        INSERT INTO inventory_transactions (
            id, inventory_id, transaction_type, quantity,
            reference_number, reason, created_by, created_at, updated_at
        )
        VALUES (
            :id, :inventory_id, :transaction_type, :quantity,
            :reference_number, :reason, :created_by, :created_at, :updated_at
        )
    `
	_, err := sqlx.NamedExecContext(ctx, postgres.Ext(ctx, r.DB), query, txn)
	if err != nil {
		return fmt.Errorf("failed to log inventory transaction: %w", err)
	}
	return nil
}

func (r *PGRepository) ListTransactions(ctx context.Context, f *dto.TransactionFilters) ([]model.InventoryTransaction, int, error) {
	var items []model.InventoryTransaction
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.InventoryID != "" {
		conditions = append(conditions, "inventory_id = :inventory_id")
		args["inventory_id"] = f.InventoryID
	}
	if f.ProductID != "" {
		conditions = append(conditions, "inventory_id IN (SELECT id FROM inventory WHERE product_id = :product_id)")
		args["product_id"] = f.ProductID
	}
	if f.TransactionType != "" {
		conditions = append(conditions, "transaction_type = :transaction_type")
		args["transaction_type"] = f.TransactionType
	}
	if f.ReferenceNumber != "" {
		conditions = append(conditions, "reference_number = :reference_number")
		args["reference_number"] = f.ReferenceNumber
	}
	if f.StartDate != nil {
		conditions = append(conditions, "created_at >= :start_date")
		args["start_date"] = *f.StartDate
	}
	if f.EndDate != nil {
		conditions = append(conditions, "created_at < :end_date")
		args["end_date"] = *f.EndDate
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT count(*) FROM inventory_transactions" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	if rows.Next() {
		rows.Scan(&count)
	}

	query := "SELECT * FROM inventory_transactions" + whereClause + " ORDER BY created_at DESC"
	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	err = nstmt.SelectContext(ctx, &items, args)
	return items, count, err
}

func (r *PGRepository) SummarizeTransactions(ctx context.Context, f *dto.TransactionFilters) ([]dto.TransactionSummary, error) {
	conditions := []string{}
	args := map[string]interface{}{}

	if f.InventoryID != "" {
		conditions = append(conditions, "inventory_id = :inventory_id")
		args["inventory_id"] = f.InventoryID
	}
	if f.ProductID != "" {
		conditions = append(conditions, "inventory_id IN (SELECT id FROM inventory WHERE product_id = :product_id)")
		args["product_id"] = f.ProductID
	}
	if f.StartDate != nil {
		conditions = append(conditions, "created_at >= :start_date")
		args["start_date"] = *f.StartDate
	}
	if f.EndDate != nil {
		conditions = append(conditions, "created_at < :end_date")
		args["end_date"] = *f.EndDate
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	query := `
        SELECT transaction_type, COALESCE(SUM(quantity), 0) AS total_quantity, COUNT(*) AS count
        FROM inventory_transactions` + whereClause + `
        GROUP BY transaction_type
        ORDER BY transaction_type
    `

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer nstmt.Close()

	var summaries []dto.TransactionSummary
	err = nstmt.SelectContext(ctx, &summaries, args)
	return summaries, err
}

// SumByReference is the reconciliation read: the net quantity of every
// transaction correlated to one reference number.
func (r *PGRepository) SumByReference(ctx context.Context, referenceNumber string) (float64, error) {
	var sum float64
	err := r.DB.GetContext(ctx, &sum,
		`SELECT COALESCE(SUM(quantity), 0) FROM inventory_transactions WHERE reference_number = $1`,
		referenceNumber)
	return sum, err
}

func (r *PGRepository) Stats(ctx context.Context, cfg *model.InventoryConfiguration) (*dto.InventoryStats, error) {
	query := `
        SELECT
            COUNT(*) AS total_products,
            COUNT(*) FILTER (WHERE current_quantity > $1 AND current_quantity <= min_quantity) AS low_stock_count,
            COUNT(*) FILTER (WHERE current_quantity <= $1) AS out_of_stock_count,
            COALESCE(SUM(current_quantity), 0) AS total_current_qty,
            COALESCE(SUM(reserved_quantity), 0) AS total_reserved_qty
        FROM inventory
    `
	var stats dto.InventoryStats
	if err := r.DB.GetContext(ctx, &stats, query, cfg.OutOfStockThreshold); err != nil {
		return nil, err
	}
	return &stats, nil
}
