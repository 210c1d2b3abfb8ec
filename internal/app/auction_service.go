package app

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Biaescu25/Aplicatie-Web-pentru-gestionarea-unei-florarii-online/internal/clock"
	"github.com/Biaescu25/Aplicatie-Web-pentru-gestionarea-unei-florarii-online/internal/domain"
	"github.com/Biaescu25/Aplicatie-Web-pentru-gestionarea-unei-florarii-online/internal/logging"
)

type AuctionRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	ListAuctioned(ctx context.Context) ([]domain.Product, error)
	GetProductForUpdate(ctx context.Context, productID string) (domain.Product, error)
	FindHold(ctx context.Context, holder domain.Holder, productID string) (*domain.Hold, error)
	FindLockHold(ctx context.Context, productID string) (*domain.Hold, error)
	CreateHold(ctx context.Context, hold domain.Hold) error
	UpdateHold(ctx context.Context, holdID string, quantity int, reservedUntil *time.Time, now time.Time) error
	DeleteHold(ctx context.Context, holdID string) error
	LockBid(ctx context.Context, productID string, price decimal.Decimal, holdID string) error
	ResetBid(ctx context.Context, productID string) error
}

// AuctionService exposes the decay-auction listing and the one-shot bid
// confirmation built on the reservation machinery.
type AuctionService struct {
	repo    AuctionRepository
	clock   clock.Clock
	log     logging.Logger
	holdTTL time.Duration
}

type AuctionServiceOption func(*AuctionService)

// WithBidTTL overrides how long a confirmed bid keeps its lock.
func WithBidTTL(d time.Duration) AuctionServiceOption {
	return func(s *AuctionService) {
		if d > 0 {
			s.holdTTL = d
		}
	}
}

func NewAuctionService(repo AuctionRepository, clk clock.Clock, log logging.Logger, opts ...AuctionServiceOption) *AuctionService {
	svc := &AuctionService{
		repo:    repo,
		clock:   clk,
		log:     log,
		holdTTL: defaultHoldTTL,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Listing pairs a product with its current decayed offer.
type Listing struct {
	Product domain.Product
	Quote   domain.Quote
}

// ListEligible returns every product currently open for bidding with its
// decayed price. Expired bid locks are swept as a side effect of listing,
// so an abandoned bid puts the product straight back on the page. Each
// product is judged independently; there is no cross-product state.
func (s *AuctionService) ListEligible(ctx context.Context) ([]Listing, error) {
	now := s.clock.Now()

	products, err := s.repo.ListAuctioned(ctx)
	if err != nil {
		return nil, err
	}

	var listings []Listing
	for _, p := range products {
		if p.BidLocked {
			swept, err := s.sweepLock(ctx, p.ID, now)
			if err != nil {
				return nil, err
			}
			p = swept
		}
		if p.AuctionState(now) != domain.AuctionStateEligible {
			continue
		}
		listings = append(listings, Listing{Product: p, Quote: p.CurrentQuote(now)})
	}
	return listings, nil
}

// ConfirmBid atomically grants the holder the currently decayed price and
// reserves the product for the hold TTL. Exactly one of any number of
// concurrent confirms wins; the rest observe the committed lock and get
// ErrAuctionLocked.
func (s *AuctionService) ConfirmBid(ctx context.Context, holder domain.Holder, productID string) (decimal.Decimal, error) {
	if err := holder.Validate(); err != nil {
		return decimal.Decimal{}, err
	}

	now := s.clock.Now()
	var locked decimal.Decimal

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		p, err := s.repo.GetProductForUpdate(txCtx, productID)
		if err != nil {
			return err
		}
		price, err := confirmBid(txCtx, s.repo, holder, p, now, s.holdTTL)
		if err != nil {
			return err
		}
		locked = price
		return nil
	})
	if err != nil {
		return decimal.Decimal{}, err
	}

	s.log.Info("bid confirmed", "product_id", productID, "price", locked.String())
	return locked, nil
}

// sweepLock re-reads the product under its row lock and releases the bid
// lock if the backing hold is gone or expired. Returns the product as the
// transaction left it.
func (s *AuctionService) sweepLock(ctx context.Context, productID string, now time.Time) (domain.Product, error) {
	var out domain.Product
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		p, err := s.repo.GetProductForUpdate(txCtx, productID)
		if err != nil {
			return err
		}
		out = p
		if !p.BidLocked {
			return nil
		}

		lock, err := s.repo.FindLockHold(txCtx, p.ID)
		if err != nil {
			return err
		}
		if lock != nil && !lock.Expired(now) {
			return nil
		}

		if err := s.repo.ResetBid(txCtx, p.ID); err != nil {
			return err
		}
		if lock != nil {
			if err := s.repo.DeleteHold(txCtx, lock.ID); err != nil {
				return err
			}
		}
		out = bidReset(p)
		s.log.Debug("expired bid lock swept", "product_id", p.ID)
		return nil
	})
	if err != nil {
		return domain.Product{}, err
	}
	return out, nil
}
