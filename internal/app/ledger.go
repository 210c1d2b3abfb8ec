package app

import (
	"context"
	"time"

	"github.com/Biaescu25/Aplicatie-Web-pentru-gestionarea-unei-florarii-online/internal/domain"
)

// LedgerRepository is the slice of storage the inventory ledger needs. The
// aggregate read must happen inside the same transaction (and product row
// lock) as the write it guards, or a stale read can oversell.
type LedgerRepository interface {
	SumActiveHolds(ctx context.Context, productID string, now time.Time, excludeHoldID *string) (int, error)
}

// InventoryLedger answers how much of a product is free to reserve right
// now. It is a read-plus-guard, never a mutator: the caller performs the
// subsequent write inside the same atomic section.
type InventoryLedger struct {
	repo LedgerRepository
}

func NewInventoryLedger(repo LedgerRepository) *InventoryLedger {
	return &InventoryLedger{repo: repo}
}

// AvailableStock is the authoritative stock minus all unexpired holds,
// optionally excluding the caller's own line.
func (l *InventoryLedger) AvailableStock(ctx context.Context, product domain.Product, now time.Time, excludeHoldID *string) (int, error) {
	reserved, err := l.repo.SumActiveHolds(ctx, product.ID, now, excludeHoldID)
	if err != nil {
		return 0, err
	}
	return product.Stock - reserved, nil
}

// TryReserve fails with ErrInsufficientStock when the requested quantity
// exceeds current availability. Products outside stock management bypass
// the ledger entirely.
func (l *InventoryLedger) TryReserve(ctx context.Context, product domain.Product, requested int, now time.Time, excludeHoldID *string) error {
	if !product.StockManaged {
		return nil
	}
	available, err := l.AvailableStock(ctx, product, now, excludeHoldID)
	if err != nil {
		return err
	}
	if requested > available {
		return domain.ErrInsufficientStock
	}
	return nil
}
