package app

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Biaescu25/Aplicatie-Web-pentru-gestionarea-unei-florarii-online/internal/clock"
	"github.com/Biaescu25/Aplicatie-Web-pentru-gestionarea-unei-florarii-online/internal/domain"
)

type CatalogRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	CreateProduct(ctx context.Context, p domain.Product) error
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, productID string) (domain.Product, error)
	GetProductForUpdate(ctx context.Context, productID string) (domain.Product, error)
	StartAuction(ctx context.Context, productID string, startTime time.Time, floor decimal.Decimal, intervalMinutes int, dropAmount decimal.Decimal) error
	StopAuction(ctx context.Context, productID string) error
	FindLockHold(ctx context.Context, productID string) (*domain.Hold, error)
	DeleteHold(ctx context.Context, holdID string) error
}

// CatalogService is the admin boundary: product creation and starting or
// stopping an auction cycle.
type CatalogService struct {
	repo  CatalogRepository
	clock clock.Clock
}

func NewCatalogService(repo CatalogRepository, clk clock.Clock) *CatalogService {
	return &CatalogService{repo: repo, clock: clk}
}

type CreateProductInput struct {
	Name         string
	Description  string
	Category     string
	StockManaged bool
	Stock        int
	Price        decimal.Decimal
}

func (s *CatalogService) CreateProduct(ctx context.Context, in CreateProductInput) (domain.Product, error) {
	if in.Name == "" {
		return domain.Product{}, domain.ErrProductNameRequired
	}
	if in.Price.IsNegative() {
		return domain.Product{}, domain.ErrInvalidPrice
	}
	if in.Stock < 0 {
		return domain.Product{}, domain.ErrInvalidQuantity
	}

	p := domain.Product{
		ID:           newID(),
		Name:         in.Name,
		Description:  in.Description,
		Category:     in.Category,
		StockManaged: in.StockManaged,
		Stock:        in.Stock,
		Price:        in.Price,
		CreatedAt:    s.clock.Now(),
	}
	if err := s.repo.CreateProduct(ctx, p); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *CatalogService) GetProduct(ctx context.Context, productID string) (domain.Product, error) {
	return s.repo.GetProduct(ctx, productID)
}

type StartAuctionInput struct {
	ProductID       string
	FloorPrice      decimal.Decimal
	IntervalMinutes int
	DropAmount      decimal.Decimal
}

// StartAuction opens a fresh 24h decay window on a product. The
// pre-auction price snapshot is taken only if the previous cycle fully
// reset, so re-starting mid-cycle never overwrites the baseline.
func (s *CatalogService) StartAuction(ctx context.Context, in StartAuctionInput) error {
	if in.IntervalMinutes <= 0 || !in.DropAmount.IsPositive() {
		return domain.ErrInvalidPrice
	}
	if in.FloorPrice.IsNegative() {
		return domain.ErrInvalidPrice
	}

	now := s.clock.Now()
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		p, err := s.repo.GetProductForUpdate(txCtx, in.ProductID)
		if err != nil {
			return err
		}
		if p.BidLocked {
			return domain.ErrAuctionLocked
		}
		if in.FloorPrice.GreaterThan(p.Price) {
			return domain.ErrInvalidPrice
		}
		return s.repo.StartAuction(txCtx, in.ProductID, now, in.FloorPrice, in.IntervalMinutes, in.DropAmount)
	})
}

// StopAuction ends the cycle and restores the listed price. A live bid
// lock is released and its hold dropped; the shopper simply lost the offer.
func (s *CatalogService) StopAuction(ctx context.Context, productID string) error {
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		p, err := s.repo.GetProductForUpdate(txCtx, productID)
		if err != nil {
			return err
		}
		if p.BidLocked {
			lock, err := s.repo.FindLockHold(txCtx, productID)
			if err != nil {
				return err
			}
			if lock != nil {
				if err := s.repo.DeleteHold(txCtx, lock.ID); err != nil {
					return err
				}
			}
		}
		return s.repo.StopAuction(txCtx, productID)
	})
}
