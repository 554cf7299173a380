package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmtrung/gostore-inventory-service/internal/invconfig/dto"
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

func (r *PGRepository) GetActive(ctx context.Context) (*model.InventoryConfiguration, error) {
	var cfg model.InventoryConfiguration
	err := sqlx.GetContext(ctx, postgres.Ext(ctx, r.DB), &cfg,
		`SELECT * FROM inventory_configurations WHERE is_active = TRUE ORDER BY updated_at DESC LIMIT 1`)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &cfg, nil
}

func (r *PGRepository) GetByID(ctx context.Context, id string) (*model.InventoryConfiguration, error) {
	var cfg model.InventoryConfiguration
	err := sqlx.GetContext(ctx, postgres.Ext(ctx, r.DB), &cfg,
		`SELECT * FROM inventory_configurations WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &cfg, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.ConfigurationFilters) ([]model.InventoryConfiguration, int, error) {
	var items []model.InventoryConfiguration
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.IsActive != nil {
		conditions = append(conditions, "is_active = :is_active")
		args["is_active"] = *f.IsActive
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM inventory_configurations %s`, whereClause)
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
        SELECT * FROM inventory_configurations
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

func (r *PGRepository) Create(ctx context.Context, cfg *model.InventoryConfiguration) error {
	query := `
        INSERT INTO inventory_configurations (
            id, low_stock_threshold_type, low_stock_threshold_value, out_of_stock_threshold,
            enable_auto_reorder, auto_reorder_quantity_type, auto_reorder_quantity_value,
            allow_negative_stock, require_transaction_reason, require_transaction_reference,
            in_stock_label, low_stock_label, out_of_stock_label,
            auto_reserve_on_order, reservation_expiry_hours, enable_multi_warehouse,
            is_active, created_at, updated_at
        )
        VALUES (
            :id, :low_stock_threshold_type, :low_stock_threshold_value, :out_of_stock_threshold,
            :enable_auto_reorder, :auto_reorder_quantity_type, :auto_reorder_quantity_value,
            :allow_negative_stock, :require_transaction_reason, :require_transaction_reference,
            :in_stock_label, :low_stock_label, :out_of_stock_label,
            :auto_reserve_on_order, :reservation_expiry_hours, :enable_multi_warehouse,
            :is_active, :created_at, :updated_at
        )
    `
	_, err := sqlx.NamedExecContext(ctx, postgres.Ext(ctx, r.DB), query, cfg)
	if err != nil {
		return fmt.Errorf("failed to insert inventory configuration: %w", err)
	}
	return nil
}

func (r *PGRepository) Update(ctx context.Context, cfg *model.InventoryConfiguration) error {
	query := `
        UPDATE inventory_configurations SET
            low_stock_threshold_type = :low_stock_threshold_type,
            low_stock_threshold_value = :low_stock_threshold_value,
            out_of_stock_threshold = :out_of_stock_threshold,
            enable_auto_reorder = :enable_auto_reorder,
            auto_reorder_quantity_type = :auto_reorder_quantity_type,
            auto_reorder_quantity_value = :auto_reorder_quantity_value,
            allow_negative_stock = :allow_negative_stock,
            require_transaction_reason = :require_transaction_reason,
            require_transaction_reference = :require_transaction_reference,
            in_stock_label = :in_stock_label,
            low_stock_label = :low_stock_label,
            out_of_stock_label = :out_of_stock_label,
            auto_reserve_on_order = :auto_reserve_on_order,
            reservation_expiry_hours = :reservation_expiry_hours,
            enable_multi_warehouse = :enable_multi_warehouse,
            is_active = :is_active,
            updated_at = :updated_at
        WHERE id = :id
    `
	_, err := sqlx.NamedExecContext(ctx, postgres.Ext(ctx, r.DB), query, cfg)
	if err != nil {
		return fmt.Errorf("failed to update inventory configuration: %w", err)
	}
	return nil
}

func (r *PGRepository) DeactivateAll(ctx context.Context) error {
	_, err := postgres.Ext(ctx, r.DB).ExecContext(ctx,
		`UPDATE inventory_configurations SET is_active = FALSE, updated_at = NOW() WHERE is_active = TRUE`)
	if err != nil {
		return fmt.Errorf("failed to deactivate inventory configurations: %w", err)
	}
	return nil
}
