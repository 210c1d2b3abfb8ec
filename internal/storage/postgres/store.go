package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store bundles the repositories behind a single transaction boundary so
// services can compose product, hold and order operations into one atomic
// section.
type Store struct {
	*ProductRepository
	*HoldRepository
	*OrderRepository
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		ProductRepository: NewProductRepository(pool),
		HoldRepository:    NewHoldRepository(pool),
		OrderRepository:   NewOrderRepository(pool),
		pool:              pool,
	}
}

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, s.pool, fn)
}
