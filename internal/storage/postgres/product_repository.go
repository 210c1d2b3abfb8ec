package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Biaescu25/Aplicatie-Web-pentru-gestionarea-unei-florarii-online/internal/domain"
)

const productColumns = `id, name, description, category, stock_managed, stock, price,
before_auction_price, auction_manual, auction_start_time, auction_floor_price,
auction_interval_minutes, auction_drop_amount, bid_locked, bid_hold_id, purchase_count, created_at`

type ProductRepository struct {
	pool *pgxpool.Pool
}

func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

func (r *ProductRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func scanProduct(row pgx.Row) (domain.Product, error) {
	var p domain.Product
	var bidHoldID *string
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Category, &p.StockManaged, &p.Stock, &p.Price,
		&p.BeforeAuctionPrice, &p.AuctionManual, &p.AuctionStartTime, &p.AuctionFloorPrice,
		&p.AuctionIntervalMinutes, &p.AuctionDropAmount, &p.BidLocked, &bidHoldID, &p.PurchaseCount, &p.CreatedAt,
	)
	if bidHoldID != nil {
		p.BidHoldID = *bidHoldID
	}
	return p, err
}

func (r *ProductRepository) GetProduct(ctx context.Context, productID string) (domain.Product, error) {
	q := fmt.Sprintf(`SELECT %s FROM products WHERE id = $1`, productColumns)
	p, err := scanProduct(queryRow(ctx, r.pool, q, productID))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Product{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// GetProductForUpdate reads the product under a row lock. Every atomic
// section that mutates stock, price or the bid lock starts here so that
// concurrent reservations serialize on the product row.
func (r *ProductRepository) GetProductForUpdate(ctx context.Context, productID string) (domain.Product, error) {
	q := fmt.Sprintf(`SELECT %s FROM products WHERE id = $1 FOR UPDATE`, productColumns)
	p, err := scanProduct(queryRow(ctx, r.pool, q, productID))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Product{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("get product for update: %w", err)
	}
	return p, nil
}

func (r *ProductRepository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	q := fmt.Sprintf(`SELECT %s FROM products ORDER BY created_at, id`, productColumns)
	return r.listProducts(ctx, q)
}

// ListAuctioned returns every product participating in the decay auction,
// whatever its current state.
func (r *ProductRepository) ListAuctioned(ctx context.Context) ([]domain.Product, error) {
	q := fmt.Sprintf(`SELECT %s FROM products WHERE auction_manual ORDER BY created_at, id`, productColumns)
	return r.listProducts(ctx, q)
}

func (r *ProductRepository) listProducts(ctx context.Context, q string, args ...any) ([]domain.Product, error) {
	rows, err := query(ctx, r.pool, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return out, nil
}

func (r *ProductRepository) CreateProduct(ctx context.Context, p domain.Product) error {
	const stmt = `
INSERT INTO products (id, name, description, category, stock_managed, stock, price,
	auction_floor_price, auction_interval_minutes, auction_drop_amount, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := exec(ctx, r.pool, stmt,
		p.ID, p.Name, p.Description, p.Category, p.StockManaged, p.Stock, p.Price,
		p.AuctionFloorPrice, p.AuctionIntervalMinutes, p.AuctionDropAmount, p.CreatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

// LockBid writes the decayed price, the bid-lock flag and the id of the
// hold backing the lock in one statement, snapshotting the pre-auction
// baseline if it was never taken. Price, flag and backing hold can never
// diverge because no narrower write path exists.
func (r *ProductRepository) LockBid(ctx context.Context, productID string, price decimal.Decimal, holdID string) error {
	const stmt = `
UPDATE products
SET before_auction_price = CASE WHEN before_auction_price = 0 THEN price ELSE before_auction_price END,
    price = $2,
    bid_locked = TRUE,
    bid_hold_id = $3
WHERE id = $1`

	tag, err := exec(ctx, r.pool, stmt, productID, price, holdID)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("lock bid: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// ResetBid is the inverse transition: restore the snapshot price, clear the
// flag and forget the backing hold together. A no-op when the product is
// not locked, so sweep and explicit release can race safely.
func (r *ProductRepository) ResetBid(ctx context.Context, productID string) error {
	const stmt = `
UPDATE products
SET price = CASE WHEN before_auction_price > 0 THEN before_auction_price ELSE price END,
    bid_locked = FALSE,
    bid_hold_id = NULL
WHERE id = $1 AND bid_locked`

	if _, err := exec(ctx, r.pool, stmt, productID); err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("reset bid: %w", err)
	}
	return nil
}

// StartAuction flags the product for the decay auction and opens a fresh
// window. The baseline snapshot is only taken when currently zero.
func (r *ProductRepository) StartAuction(ctx context.Context, productID string, startTime time.Time, floor decimal.Decimal, intervalMinutes int, dropAmount decimal.Decimal) error {
	const stmt = `
UPDATE products
SET auction_manual = TRUE,
    auction_start_time = $2,
    auction_floor_price = $3,
    auction_interval_minutes = $4,
    auction_drop_amount = $5,
    before_auction_price = CASE WHEN before_auction_price = 0 THEN price ELSE before_auction_price END
WHERE id = $1`

	tag, err := exec(ctx, r.pool, stmt, productID, startTime, floor, intervalMinutes, dropAmount)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("start auction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// StopAuction fully resets the auction cycle: price back to the snapshot,
// snapshot zeroed, flags cleared.
func (r *ProductRepository) StopAuction(ctx context.Context, productID string) error {
	const stmt = `
UPDATE products
SET auction_manual = FALSE,
    auction_start_time = NULL,
    bid_locked = FALSE,
    bid_hold_id = NULL,
    price = CASE WHEN before_auction_price > 0 THEN before_auction_price ELSE price END,
    before_auction_price = 0
WHERE id = $1`

	tag, err := exec(ctx, r.pool, stmt, productID)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("stop auction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// CommitStock permanently deducts sold quantity, floored at zero, and bumps
// the purchase counter. Made-to-order products keep their stock untouched.
func (r *ProductRepository) CommitStock(ctx context.Context, productID string, quantity int) error {
	const stmt = `
UPDATE products
SET stock = CASE WHEN stock_managed THEN GREATEST(stock - $2, 0) ELSE stock END,
    purchase_count = purchase_count + 1
WHERE id = $1`

	tag, err := exec(ctx, r.pool, stmt, productID, quantity)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("commit stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}
