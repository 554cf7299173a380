package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmtrung/gostore-inventory-service/internal/goodsreceipt/dto"
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

func (r *PGRepository) GetByID(ctx context.Context, id string) (*model.GoodsReceipt, error) {
	return r.getByID(ctx, id, false)
}

func (r *PGRepository) GetByIDForUpdate(ctx context.Context, id string) (*model.GoodsReceipt, error) {
	return r.getByID(ctx, id, true)
}

func (r *PGRepository) getByID(ctx context.Context, id string, forUpdate bool) (*model.GoodsReceipt, error) {
	query := `SELECT * FROM goods_receipts WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var receipt model.GoodsReceipt
	err := sqlx.GetContext(ctx, postgres.Ext(ctx, r.DB), &receipt, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	err = sqlx.SelectContext(ctx, postgres.Ext(ctx, r.DB), &receipt.Items,
		`SELECT * FROM goods_receipt_items WHERE receipt_id = $1 ORDER BY created_at`, id)
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.ReceiptFilters) ([]model.GoodsReceipt, int, error) {
	var items []model.GoodsReceipt
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.Search != "" {
		conditions = append(conditions, "(supplier_name ILIKE :search OR reference_code ILIKE :search)")
		args["search"] = "%" + f.Search + "%"
	}
	if f.IsApplied != nil {
		conditions = append(conditions, "is_applied = :is_applied")
		args["is_applied"] = *f.IsApplied
	}
	if f.StartDate != nil {
		conditions = append(conditions, "date >= :start_date")
		args["start_date"] = *f.StartDate
	}
	if f.EndDate != nil {
		conditions = append(conditions, "date <= :end_date")
		args["end_date"] = *f.EndDate
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM goods_receipts %s`, whereClause)
	nstmt, err := r.DB.PrepareNamedContext(ctx, countQuery)
	if err != nil {
		return nil, 0, err
	}
	if err := nstmt.GetContext(ctx, &count, args); err != nil {
		nstmt.Close()
		return nil, 0, err
	}
	nstmt.Close()

	pagination := ""
	if f.PageSize > 0 {
		args["limit"] = f.PageSize
		args["offset"] = (f.Page - 1) * f.PageSize
		pagination = "LIMIT :limit OFFSET :offset"
	}

	query := fmt.Sprintf(`
        SELECT * FROM goods_receipts
        %s
        ORDER BY created_at DESC
        %s
    `, whereClause, pagination)

	nstmt, err = r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	err = nstmt.SelectContext(ctx, &items, args)
	return items, count, err
}

func (r *PGRepository) Create(ctx context.Context, receipt *model.GoodsReceipt) error {
	query := `
        INSERT INTO goods_receipts (
            id, supplier_name, reference_code, note, date,
            is_applied, applied_at, created_at, updated_at
        )
        VALUES (
            :id, :supplier_name, :reference_code, :note, :date,
            :is_applied, :applied_at, :created_at, :updated_at
        )
    `
	_, err := sqlx.NamedExecContext(ctx, postgres.Ext(ctx, r.DB), query, receipt)
	if err != nil {
		return fmt.Errorf("failed to insert goods receipt: %w", err)
	}
	return r.insertItems(ctx, receipt.Items)
}

func (r *PGRepository) Update(ctx context.Context, receipt *model.GoodsReceipt) error {
	query := `
        UPDATE goods_receipts SET
            supplier_name = :supplier_name,
            reference_code = :reference_code,
            note = :note,
            date = :date,
            updated_at = :updated_at
        WHERE id = :id
    `
	_, err := sqlx.NamedExecContext(ctx, postgres.Ext(ctx, r.DB), query, receipt)
	if err != nil {
		return fmt.Errorf("failed to update goods receipt: %w", err)
	}
	return nil
}

func (r *PGRepository) ReplaceItems(ctx context.Context, receiptID string, items []model.GoodsReceiptItem) error {
	_, err := postgres.Ext(ctx, r.DB).ExecContext(ctx,
		`DELETE FROM goods_receipt_items WHERE receipt_id = $1`, receiptID)
	if err != nil {
		return fmt.Errorf("failed to clear goods receipt items: %w", err)
	}
	return r.insertItems(ctx, items)
}

func (r *PGRepository) insertItems(ctx context.Context, items []model.GoodsReceiptItem) error {
	if len(items) == 0 {
		return nil
	}
	query := `
        INSERT INTO goods_receipt_items (
            id, receipt_id, product_id, unit, quantity,
            unit_cost, amount, created_at, updated_at
        )
        VALUES (
            :id, :receipt_id, :product_id, :unit, :quantity,
            :unit_cost, :amount, :created_at, :updated_at
        )
    `
	_, err := sqlx.NamedExecContext(ctx, postgres.Ext(ctx, r.DB), query, items)
	if err != nil {
		return fmt.Errorf("failed to insert goods receipt items: %w", err)
	}
	return nil
}

func (r *PGRepository) Delete(ctx context.Context, id string) error {
	// Item rows go with the receipt via ON DELETE CASCADE.
	_, err := postgres.Ext(ctx, r.DB).ExecContext(ctx,
		`DELETE FROM goods_receipts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete goods receipt: %w", err)
	}
	return nil
}

func (r *PGRepository) SetApplied(ctx context.Context, receipt *model.GoodsReceipt) error {
	query := `
        UPDATE goods_receipts SET
            is_applied = :is_applied,
            applied_at = :applied_at,
            updated_at = :updated_at
        WHERE id = :id
    `
	_, err := sqlx.NamedExecContext(ctx, postgres.Ext(ctx, r.DB), query, receipt)
	if err != nil {
		return fmt.Errorf("failed to set goods receipt applied state: %w", err)
	}
	return nil
}
