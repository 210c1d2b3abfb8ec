package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Biaescu25/Aplicatie-Web-pentru-gestionarea-unei-florarii-online/internal/domain"
)

const holdColumns = `id, account_id, session_token, product_id, quantity, reserved_until, created_at, updated_at`

type HoldRepository struct {
	pool *pgxpool.Pool
}

func NewHoldRepository(pool *pgxpool.Pool) *HoldRepository {
	return &HoldRepository{pool: pool}
}

func (r *HoldRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func holderArgs(h domain.Holder) (accountID, sessionToken any) {
	if h.AccountID != "" {
		accountID = h.AccountID
	}
	if h.SessionToken != "" {
		sessionToken = h.SessionToken
	}
	return accountID, sessionToken
}

func scanHold(row pgx.Row) (domain.Hold, error) {
	var h domain.Hold
	var accountID, sessionToken *string
	err := row.Scan(&h.ID, &accountID, &sessionToken, &h.ProductID, &h.Quantity, &h.ReservedUntil, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return domain.Hold{}, err
	}
	if accountID != nil {
		h.AccountID = *accountID
	}
	if sessionToken != nil {
		h.SessionToken = *sessionToken
	}
	return h, nil
}

// FindHold returns the holder's cart line for a product, or nil.
func (r *HoldRepository) FindHold(ctx context.Context, holder domain.Holder, productID string) (*domain.Hold, error) {
	q := fmt.Sprintf(`
SELECT %s FROM holds
WHERE product_id = $1
  AND account_id IS NOT DISTINCT FROM $2
  AND session_token IS NOT DISTINCT FROM $3`, holdColumns)

	accountID, sessionToken := holderArgs(holder)
	h, err := scanHold(queryRow(ctx, r.pool, q, productID, accountID, sessionToken))
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find hold: %w", err)
	}
	return &h, nil
}

// FindLockHold returns the hold backing a product's bid lock, as recorded
// on the product row. Other holds on the product, including ones created
// before the auction cycle opened, never match.
func (r *HoldRepository) FindLockHold(ctx context.Context, productID string) (*domain.Hold, error) {
	const q = `
SELECT h.id, h.account_id, h.session_token, h.product_id, h.quantity, h.reserved_until, h.created_at, h.updated_at
FROM holds h
JOIN products p ON p.bid_hold_id = h.id
WHERE p.id = $1`

	h, err := scanHold(queryRow(ctx, r.pool, q, productID))
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find lock hold: %w", err)
	}
	return &h, nil
}

// SumActiveHolds totals quantity reserved against a product by holds whose
// TTL has not passed. excludeHoldID removes the caller's own line so a
// holder updating it is compared against the remainder, not double-counted.
// Must run inside the same transaction as the write it guards.
func (r *HoldRepository) SumActiveHolds(ctx context.Context, productID string, now time.Time, excludeHoldID *string) (int, error) {
	const q = `
SELECT COALESCE(SUM(quantity), 0)
FROM holds
WHERE product_id = $1
  AND reserved_until > $2
  AND ($3::uuid IS NULL OR id <> $3::uuid)`

	var total int
	if err := queryRow(ctx, r.pool, q, productID, now, excludeHoldID).Scan(&total); err != nil {
		if isInvalidUUID(err) {
			return 0, domain.ErrInvalidID
		}
		return 0, fmt.Errorf("sum active holds: %w", err)
	}
	return total, nil
}

func (r *HoldRepository) ListHolds(ctx context.Context, holder domain.Holder) ([]domain.Hold, error) {
	q := fmt.Sprintf(`
SELECT %s FROM holds
WHERE account_id IS NOT DISTINCT FROM $1
  AND session_token IS NOT DISTINCT FROM $2
ORDER BY created_at, id`, holdColumns)

	accountID, sessionToken := holderArgs(holder)
	rows, err := query(ctx, r.pool, q, accountID, sessionToken)
	if err != nil {
		return nil, fmt.Errorf("list holds: %w", err)
	}
	defer rows.Close()

	var out []domain.Hold
	for rows.Next() {
		h, err := scanHold(rows)
		if err != nil {
			return nil, fmt.Errorf("scan hold: %w", err)
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list holds: %w", err)
	}
	return out, nil
}

func (r *HoldRepository) CreateHold(ctx context.Context, hold domain.Hold) error {
	const stmt = `
INSERT INTO holds (id, account_id, session_token, product_id, quantity, reserved_until, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`

	accountID, sessionToken := holderArgs(hold.Holder())
	_, err := exec(ctx, r.pool, stmt,
		hold.ID, accountID, sessionToken, hold.ProductID, hold.Quantity, hold.ReservedUntil, hold.CreatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create hold: %w", err)
	}
	return nil
}

func (r *HoldRepository) UpdateHold(ctx context.Context, holdID string, quantity int, reservedUntil *time.Time, now time.Time) error {
	const stmt = `
UPDATE holds
SET quantity = $2, reserved_until = $3, updated_at = $4
WHERE id = $1`

	tag, err := exec(ctx, r.pool, stmt, holdID, quantity, reservedUntil, now)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("update hold: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrHoldNotFound
	}
	return nil
}

// ReassignHold moves a guest cart line to an account (cart merge on login).
func (r *HoldRepository) ReassignHold(ctx context.Context, holdID, accountID string, now time.Time) error {
	const stmt = `
UPDATE holds
SET account_id = $2, session_token = NULL, updated_at = $3
WHERE id = $1`

	tag, err := exec(ctx, r.pool, stmt, holdID, accountID, now)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("reassign hold: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrHoldNotFound
	}
	return nil
}

// DeleteHold removes a hold. Deleting a hold that no longer exists is a
// no-op: sweep and explicit removal can race.
func (r *HoldRepository) DeleteHold(ctx context.Context, holdID string) error {
	const stmt = `DELETE FROM holds WHERE id = $1`

	if _, err := exec(ctx, r.pool, stmt, holdID); err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("delete hold: %w", err)
	}
	return nil
}

func (r *HoldRepository) DeleteHoldsForHolder(ctx context.Context, holder domain.Holder) error {
	const stmt = `
DELETE FROM holds
WHERE account_id IS NOT DISTINCT FROM $1
  AND session_token IS NOT DISTINCT FROM $2`

	accountID, sessionToken := holderArgs(holder)
	if _, err := exec(ctx, r.pool, stmt, accountID, sessionToken); err != nil {
		return fmt.Errorf("delete holds for holder: %w", err)
	}
	return nil
}

// SweepExpired is the reaper's global sweep: reset every bid-locked product
// whose lock hold expired, then drop all expired holds, in one transaction.
// Semantically identical to the lazy per-scope sweep on read paths.
func (r *HoldRepository) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	var deleted int64
	err := withTx(ctx, r.pool, func(txCtx context.Context) error {
		const resetStmt = `
UPDATE products p
SET price = CASE WHEN p.before_auction_price > 0 THEN p.before_auction_price ELSE p.price END,
    bid_locked = FALSE,
    bid_hold_id = NULL
FROM holds h
WHERE h.id = p.bid_hold_id AND p.bid_locked AND h.reserved_until <= $1`

		if _, err := exec(txCtx, r.pool, resetStmt, now); err != nil {
			return fmt.Errorf("reset expired bid locks: %w", err)
		}

		const deleteStmt = `DELETE FROM holds WHERE reserved_until <= $1`
		tag, err := exec(txCtx, r.pool, deleteStmt, now)
		if err != nil {
			return fmt.Errorf("delete expired holds: %w", err)
		}
		deleted = tag.RowsAffected()
		return nil
	})
	return deleted, err
}
