package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Biaescu25/Aplicatie-Web-pentru-gestionarea-unei-florarii-online/internal/domain"
)

type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *OrderRepository) CreateOrder(ctx context.Context, order domain.Order) error {
	const stmt = `
INSERT INTO orders (id, account_id, session_token, created_at)
VALUES ($1, $2, $3, $4)`

	accountID, sessionToken := holderArgs(order.Holder())
	_, err := exec(ctx, r.pool, stmt, order.ID, accountID, sessionToken, order.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

func (r *OrderRepository) CreateOrderLines(ctx context.Context, lines []domain.OrderLine) error {
	const stmt = `
INSERT INTO order_lines (id, order_id, product_id, quantity, unit_price)
VALUES ($1, $2, $3, $4, $5)`

	for _, line := range lines {
		if _, err := exec(ctx, r.pool, stmt, line.ID, line.OrderID, line.ProductID, line.Quantity, line.UnitPrice); err != nil {
			if isInvalidUUID(err) {
				return domain.ErrInvalidID
			}
			return fmt.Errorf("create order line: %w", err)
		}
	}
	return nil
}

func (r *OrderRepository) GetOrder(ctx context.Context, orderID string) (domain.Order, []domain.OrderLine, error) {
	const orderQuery = `SELECT id, account_id, session_token, created_at FROM orders WHERE id = $1`

	var o domain.Order
	var accountID, sessionToken *string
	err := queryRow(ctx, r.pool, orderQuery, orderID).Scan(&o.ID, &accountID, &sessionToken, &o.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Order{}, nil, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Order{}, nil, domain.ErrOrderNotFound
		}
		return domain.Order{}, nil, fmt.Errorf("get order: %w", err)
	}
	if accountID != nil {
		o.AccountID = *accountID
	}
	if sessionToken != nil {
		o.SessionToken = *sessionToken
	}

	const linesQuery = `
SELECT id, order_id, product_id, quantity, unit_price
FROM order_lines
WHERE order_id = $1
ORDER BY id`

	rows, err := query(ctx, r.pool, linesQuery, orderID)
	if err != nil {
		return domain.Order{}, nil, fmt.Errorf("list order lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.OrderLine
	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(&line.ID, &line.OrderID, &line.ProductID, &line.Quantity, &line.UnitPrice); err != nil {
			return domain.Order{}, nil, fmt.Errorf("scan order line: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return domain.Order{}, nil, fmt.Errorf("list order lines: %w", err)
	}
	return o, lines, nil
}
