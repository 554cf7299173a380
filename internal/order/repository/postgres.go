package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmtrung/gostore-inventory-service/internal/model"
	"github.com/dmtrung/gostore-inventory-service/internal/order/dto"
	"github.com/dmtrung/gostore-inventory-service/pkg/postgres"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) GetByID(ctx context.Context, id string) (*model.Order, error) {
	return r.getByID(ctx, id, false)
}

func (r *PGRepository) GetByIDForUpdate(ctx context.Context, id string) (*model.Order, error) {
	return r.getByID(ctx, id, true)
}

func (r *PGRepository) getByID(ctx context.Context, id string, forUpdate bool) (*model.Order, error) {
	query := `SELECT * FROM orders WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var order model.Order
	err := sqlx.GetContext(ctx, postgres.Ext(ctx, r.DB), &order, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	err = sqlx.SelectContext(ctx, postgres.Ext(ctx, r.DB), &order.Items,
		`SELECT * FROM order_items WHERE order_id = $1 ORDER BY created_at`, id)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.OrderFilters) ([]model.Order, int, error) {
	var items []model.Order
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.Status != "" {
		conditions = append(conditions, "status = :status")
		args["status"] = f.Status
	}
	if f.CustomerID != "" {
		conditions = append(conditions, "customer_id = :customer_id")
		args["customer_id"] = f.CustomerID
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM orders %s`, whereClause)
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
        SELECT * FROM orders
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

func (r *PGRepository) Create(ctx context.Context, order *model.Order) error {
	query := `
        INSERT INTO orders (
            id, customer_id, customer_name, payment_method, payment_status,
            vat_rate, shipping_fee, status, created_at, updated_at
        )
        VALUES (
            :id, :customer_id, :customer_name, :payment_method, :payment_status,
            :vat_rate, :shipping_fee, :status, :created_at, :updated_at
        )
    `
	_, err := sqlx.NamedExecContext(ctx, postgres.Ext(ctx, r.DB), query, order)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	if len(order.Items) == 0 {
		return nil
	}
	itemQuery := `
        INSERT INTO order_items (
            id, order_id, product_id, quantity, price, created_at, updated_at
        )
        VALUES (
            :id, :order_id, :product_id, :quantity, :price, :created_at, :updated_at
        )
    `
	_, err = sqlx.NamedExecContext(ctx, postgres.Ext(ctx, r.DB), itemQuery, order.Items)
	if err != nil {
		return fmt.Errorf("failed to insert order items: %w", err)
	}
	return nil
}

func (r *PGRepository) UpdateStatus(ctx context.Context, order *model.Order) error {
	query := `
        UPDATE orders SET
            status = :status,
            updated_at = :updated_at
        WHERE id = :id
    `
	_, err := sqlx.NamedExecContext(ctx, postgres.Ext(ctx, r.DB), query, order)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	return nil
}
