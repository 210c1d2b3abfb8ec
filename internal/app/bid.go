package app

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Biaescu25/Aplicatie-Web-pentru-gestionarea-unei-florarii-online/internal/domain"
)

// bidRepository is what the one-shot bid-confirmation transition needs.
// Both the cart and auction repositories satisfy it.
type bidRepository interface {
	FindHold(ctx context.Context, holder domain.Holder, productID string) (*domain.Hold, error)
	FindLockHold(ctx context.Context, productID string) (*domain.Hold, error)
	CreateHold(ctx context.Context, hold domain.Hold) error
	UpdateHold(ctx context.Context, holdID string, quantity int, reservedUntil *time.Time, now time.Time) error
	DeleteHold(ctx context.Context, holdID string) error
	LockBid(ctx context.Context, productID string, price decimal.Decimal, holdID string) error
	ResetBid(ctx context.Context, productID string) error
}

// confirmBid grants exactly one holder the currently decayed price. It must
// run inside an open transaction with the product row already locked: the
// state re-check and the price write have to be one atomic unit, or two
// holders that both read ELIGIBLE would both lock.
//
// An expired or orphaned lock is swept first, so a dead bid never blocks a
// live shopper. Re-confirming an own live lock pushes the TTL back, unless
// the auction window itself has elapsed.
func confirmBid(ctx context.Context, repo bidRepository, holder domain.Holder, p domain.Product, now time.Time, ttl time.Duration) (decimal.Decimal, error) {
	if p.BidLocked {
		lock, err := repo.FindLockHold(ctx, p.ID)
		if err != nil {
			return decimal.Decimal{}, err
		}
		switch {
		case lock == nil:
			// Stale flag with no backing hold; treat like an expired lock.
			if err := repo.ResetBid(ctx, p.ID); err != nil {
				return decimal.Decimal{}, err
			}
			p = bidReset(p)
		case lock.Expired(now):
			if err := repo.ResetBid(ctx, p.ID); err != nil {
				return decimal.Decimal{}, err
			}
			if err := repo.DeleteHold(ctx, lock.ID); err != nil {
				return decimal.Decimal{}, err
			}
			p = bidReset(p)
		case lock.OwnedBy(holder):
			if p.AuctionState(now) == domain.AuctionStateExpired {
				return decimal.Decimal{}, domain.ErrAuctionExpired
			}
			until := now.Add(ttl)
			if err := repo.UpdateHold(ctx, lock.ID, 1, &until, now); err != nil {
				return decimal.Decimal{}, err
			}
			return p.Price, nil
		}
	}

	switch p.AuctionState(now) {
	case domain.AuctionStateNone:
		return decimal.Decimal{}, domain.ErrProductNotAuctioned
	case domain.AuctionStateExpired:
		return decimal.Decimal{}, domain.ErrAuctionExpired
	case domain.AuctionStateBidLocked:
		return decimal.Decimal{}, domain.ErrAuctionLocked
	}

	// The backing hold id is written with the lock, so it has to exist (or
	// be chosen) before the product transition.
	until := now.Add(ttl)
	existing, err := repo.FindHold(ctx, holder, p.ID)
	if err != nil {
		return decimal.Decimal{}, err
	}

	holdID := newID()
	if existing != nil {
		holdID = existing.ID
	}

	quote := p.CurrentQuote(now)
	if err := repo.LockBid(ctx, p.ID, quote.Price, holdID); err != nil {
		return decimal.Decimal{}, err
	}

	if existing != nil {
		if err := repo.UpdateHold(ctx, existing.ID, 1, &until, now); err != nil {
			return decimal.Decimal{}, err
		}
	} else {
		hold := domain.Hold{
			ID:            holdID,
			AccountID:     holder.AccountID,
			SessionToken:  holder.SessionToken,
			ProductID:     p.ID,
			Quantity:      1,
			ReservedUntil: &until,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := repo.CreateHold(ctx, hold); err != nil {
			return decimal.Decimal{}, err
		}
	}
	return quote.Price, nil
}

// bidReset mirrors in memory what ResetBid just did to the row, so state
// checks and quotes after an inline sweep see the reset product.
func bidReset(p domain.Product) domain.Product {
	p.BidLocked = false
	p.BidHoldID = ""
	if !p.BeforeAuctionPrice.IsZero() {
		p.Price = p.BeforeAuctionPrice
	}
	return p
}
