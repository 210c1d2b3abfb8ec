package app

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Biaescu25/Aplicatie-Web-pentru-gestionarea-unei-florarii-online/internal/clock"
	"github.com/Biaescu25/Aplicatie-Web-pentru-gestionarea-unei-florarii-online/internal/domain"
	"github.com/Biaescu25/Aplicatie-Web-pentru-gestionarea-unei-florarii-online/internal/logging"
)

type CartRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetProduct(ctx context.Context, productID string) (domain.Product, error)
	GetProductForUpdate(ctx context.Context, productID string) (domain.Product, error)
	FindHold(ctx context.Context, holder domain.Holder, productID string) (*domain.Hold, error)
	FindLockHold(ctx context.Context, productID string) (*domain.Hold, error)
	SumActiveHolds(ctx context.Context, productID string, now time.Time, excludeHoldID *string) (int, error)
	ListHolds(ctx context.Context, holder domain.Holder) ([]domain.Hold, error)
	CreateHold(ctx context.Context, hold domain.Hold) error
	UpdateHold(ctx context.Context, holdID string, quantity int, reservedUntil *time.Time, now time.Time) error
	ReassignHold(ctx context.Context, holdID, accountID string, now time.Time) error
	DeleteHold(ctx context.Context, holdID string) error
	LockBid(ctx context.Context, productID string, price decimal.Decimal, holdID string) error
	ResetBid(ctx context.Context, productID string) error
}

// CartService owns the create/refresh/release lifecycle of reservation
// holds and the lazy sweep that reclaims expired ones on read paths.
type CartService struct {
	repo    CartRepository
	ledger  *InventoryLedger
	clock   clock.Clock
	log     logging.Logger
	holdTTL time.Duration
	maxLine int
}

const (
	defaultHoldTTL         = 15 * time.Minute
	defaultMaxLineQuantity = 10
)

type CartServiceOption func(*CartService)

// WithHoldTTL overrides how long a cart line keeps its reservation.
func WithHoldTTL(d time.Duration) CartServiceOption {
	return func(s *CartService) {
		if d > 0 {
			s.holdTTL = d
		}
	}
}

// WithMaxLineQuantity overrides the per-line quantity cap.
func WithMaxLineQuantity(n int) CartServiceOption {
	return func(s *CartService) {
		if n > 0 {
			s.maxLine = n
		}
	}
}

func NewCartService(repo CartRepository, clk clock.Clock, log logging.Logger, opts ...CartServiceOption) *CartService {
	svc := &CartService{
		repo:    repo,
		ledger:  NewInventoryLedger(repo),
		clock:   clk,
		log:     log,
		holdTTL: defaultHoldTTL,
		maxLine: defaultMaxLineQuantity,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// AddOrIncrementLine adds one unit of a product to the holder's cart,
// creating the hold on first add. Stock-managed products pass through the
// ledger guard under the product row lock; auctioned products route through
// bid confirmation, because adding a Dutch-auction product to the cart is
// the bid. Every mutation refreshes the TTL.
func (s *CartService) AddOrIncrementLine(ctx context.Context, holder domain.Holder, productID string) (domain.Hold, error) {
	if err := holder.Validate(); err != nil {
		return domain.Hold{}, err
	}

	now := s.clock.Now()
	var result domain.Hold

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		p, err := s.repo.GetProductForUpdate(txCtx, productID)
		if err != nil {
			return err
		}

		if p.AuctionManual {
			if _, err := confirmBid(txCtx, s.repo, holder, p, now, s.holdTTL); err != nil {
				return err
			}
			hold, err := s.repo.FindHold(txCtx, holder, productID)
			if err != nil {
				return err
			}
			result = *hold
			return nil
		}

		existing, err := s.repo.FindHold(txCtx, holder, productID)
		if err != nil {
			return err
		}

		quantity := 1
		if existing != nil {
			quantity = existing.Quantity + 1
		}
		if quantity > s.maxLine {
			quantity = s.maxLine
		}

		var excludeID *string
		if existing != nil {
			excludeID = &existing.ID
		}
		if err := s.ledger.TryReserve(txCtx, p, quantity, now, excludeID); err != nil {
			return err
		}

		until := s.reservedUntil(p, now)
		if existing != nil {
			if err := s.repo.UpdateHold(txCtx, existing.ID, quantity, until, now); err != nil {
				return err
			}
			result = *existing
			result.Quantity = quantity
			result.ReservedUntil = until
			result.UpdatedAt = now
			return nil
		}

		result = domain.Hold{
			ID:            newID(),
			AccountID:     holder.AccountID,
			SessionToken:  holder.SessionToken,
			ProductID:     productID,
			Quantity:      quantity,
			ReservedUntil: until,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		return s.repo.CreateHold(txCtx, result)
	})
	if err != nil {
		return domain.Hold{}, err
	}
	return result, nil
}

// SetLineQuantity sets a cart line to an absolute quantity and returns the
// quantity actually stored after capping. Zero removes the line. The ledger
// comparison excludes the holder's own hold, so shrinking or re-setting a
// line is judged against the remainder only. Auctioned lines stay at one.
func (s *CartService) SetLineQuantity(ctx context.Context, holder domain.Holder, productID string, quantity int) (int, error) {
	if err := holder.Validate(); err != nil {
		return 0, err
	}
	if quantity < 0 {
		return 0, domain.ErrInvalidQuantity
	}
	if quantity == 0 {
		return 0, s.RemoveLine(ctx, holder, productID)
	}

	now := s.clock.Now()
	capped := quantity

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		p, err := s.repo.GetProductForUpdate(txCtx, productID)
		if err != nil {
			return err
		}

		existing, err := s.repo.FindHold(txCtx, holder, productID)
		if err != nil {
			return err
		}

		if p.AuctionManual {
			if existing == nil {
				return domain.ErrHoldNotFound
			}
			capped = 1
			until := now.Add(s.holdTTL)
			return s.repo.UpdateHold(txCtx, existing.ID, 1, &until, now)
		}

		if capped > s.maxLine {
			capped = s.maxLine
		}

		var excludeID *string
		if existing != nil {
			excludeID = &existing.ID
		}
		if err := s.ledger.TryReserve(txCtx, p, capped, now, excludeID); err != nil {
			return err
		}

		until := s.reservedUntil(p, now)
		if existing != nil {
			return s.repo.UpdateHold(txCtx, existing.ID, capped, until, now)
		}
		return s.repo.CreateHold(txCtx, domain.Hold{
			ID:            newID(),
			AccountID:     holder.AccountID,
			SessionToken:  holder.SessionToken,
			ProductID:     productID,
			Quantity:      capped,
			ReservedUntil: until,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	})
	if err != nil {
		return 0, err
	}
	return capped, nil
}

// RemoveLine releases the holder's hold on a product. Removing a line that
// no longer exists is a no-op: lazy sweep may have beaten us to it. When
// the hold backed a bid lock, price and flag are reset together in the same
// transaction as the delete.
func (s *CartService) RemoveLine(ctx context.Context, holder domain.Holder, productID string) error {
	if err := holder.Validate(); err != nil {
		return err
	}

	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		p, err := s.repo.GetProductForUpdate(txCtx, productID)
		if err != nil {
			return err
		}
		existing, err := s.repo.FindHold(txCtx, holder, productID)
		if err != nil {
			return err
		}
		if existing == nil {
			return nil
		}
		return s.release(txCtx, p, *existing)
	})
}

// CartLine is a cart entry with display pricing.
type CartLine struct {
	Product       domain.Product
	Quantity      int
	UnitPrice     decimal.Decimal
	TotalPrice    decimal.Decimal
	ReservedUntil *time.Time
}

// ListCart sweeps the holder's expired holds, then prices the surviving
// lines. Sweep-on-read is the baseline expiry mechanism; the periodic
// reaper only shortens the window.
func (s *CartService) ListCart(ctx context.Context, holder domain.Holder) ([]CartLine, error) {
	if err := holder.Validate(); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	var lines []CartLine

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		holds, err := s.repo.ListHolds(txCtx, holder)
		if err != nil {
			return err
		}

		lines = lines[:0]
		for _, hold := range holds {
			if hold.Expired(now) {
				p, err := s.repo.GetProductForUpdate(txCtx, hold.ProductID)
				if err != nil {
					return err
				}
				if err := s.release(txCtx, p, hold); err != nil {
					return err
				}
				continue
			}

			p, err := s.repo.GetProduct(txCtx, hold.ProductID)
			if err != nil {
				return err
			}
			unit := p.Price
			lines = append(lines, CartLine{
				Product:       p,
				Quantity:      hold.Quantity,
				UnitPrice:     unit,
				TotalPrice:    unit.Mul(decimal.NewFromInt(int64(hold.Quantity))),
				ReservedUntil: hold.ReservedUntil,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// MergeCarts folds a guest session cart into an account cart on login.
// Quantities on shared products are summed; both holds already counted
// against the ledger, so the merge never increases reserved quantity.
func (s *CartService) MergeCarts(ctx context.Context, sessionToken, accountID string) error {
	if sessionToken == "" || accountID == "" {
		return domain.ErrInvalidHolder
	}

	now := s.clock.Now()
	guest := domain.SessionHolder(sessionToken)
	account := domain.AccountHolder(accountID)

	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		guestHolds, err := s.repo.ListHolds(txCtx, guest)
		if err != nil {
			return err
		}

		for _, gh := range guestHolds {
			p, err := s.repo.GetProductForUpdate(txCtx, gh.ProductID)
			if err != nil {
				return err
			}

			if gh.Expired(now) {
				if err := s.release(txCtx, p, gh); err != nil {
					return err
				}
				continue
			}

			target, err := s.repo.FindHold(txCtx, account, gh.ProductID)
			if err != nil {
				return err
			}
			if target == nil {
				if err := s.repo.ReassignHold(txCtx, gh.ID, accountID, now); err != nil {
					return err
				}
				continue
			}

			merged := target.Quantity + gh.Quantity
			if merged > s.maxLine {
				merged = s.maxLine
			}
			until := s.reservedUntil(p, now)
			if p.AuctionManual {
				merged = 1
			}
			if err := s.repo.UpdateHold(txCtx, target.ID, merged, until, now); err != nil {
				return err
			}
			// When the guest hold backed a bid lock, the lock follows the
			// merged line before the guest row goes away.
			if p.BidLocked && p.BidHoldID == gh.ID {
				if err := s.repo.LockBid(txCtx, p.ID, p.Price, target.ID); err != nil {
					return err
				}
			}
			if err := s.repo.DeleteHold(txCtx, gh.ID); err != nil {
				return err
			}
		}
		return nil
	})
}

// release deletes the hold and, when it is the one backing a bid lock,
// resets price and flag in the same atomic section. A product can carry
// other holds, created before its auction cycle opened; dropping one of
// those must not touch the winner's lock.
func (s *CartService) release(ctx context.Context, p domain.Product, hold domain.Hold) error {
	if err := s.repo.DeleteHold(ctx, hold.ID); err != nil {
		return err
	}
	if p.AuctionManual && p.BidLocked && p.BidHoldID == hold.ID {
		if err := s.repo.ResetBid(ctx, p.ID); err != nil {
			return err
		}
		s.log.Debug("bid lock released", "product_id", p.ID)
	}
	return nil
}

// reservedUntil gives stock-managed lines a TTL; made-to-order lines hold
// nothing scarce and get none.
func (s *CartService) reservedUntil(p domain.Product, now time.Time) *time.Time {
	if !p.StockManaged {
		return nil
	}
	until := now.Add(s.holdTTL)
	return &until
}
