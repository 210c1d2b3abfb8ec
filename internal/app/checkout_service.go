package app

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/Biaescu25/Aplicatie-Web-pentru-gestionarea-unei-florarii-online/internal/clock"
	"github.com/Biaescu25/Aplicatie-Web-pentru-gestionarea-unei-florarii-online/internal/domain"
	"github.com/Biaescu25/Aplicatie-Web-pentru-gestionarea-unei-florarii-online/internal/logging"
)

type CheckoutRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetProductForUpdate(ctx context.Context, productID string) (domain.Product, error)
	CommitStock(ctx context.Context, productID string, quantity int) error
	CreateOrder(ctx context.Context, order domain.Order) error
	CreateOrderLines(ctx context.Context, lines []domain.OrderLine) error
	GetOrder(ctx context.Context, orderID string) (domain.Order, []domain.OrderLine, error)
	DeleteHoldsForHolder(ctx context.Context, holder domain.Holder) error
}

// CheckoutService is the boundary where a soft reservation becomes a
// permanent deduction. It runs on payment success only and is the single
// writer of authoritative stock.
type CheckoutService struct {
	repo  CheckoutRepository
	clock clock.Clock
	log   logging.Logger
}

func NewCheckoutService(repo CheckoutRepository, clk clock.Clock, log logging.Logger) *CheckoutService {
	return &CheckoutService{repo: repo, clock: clk, log: log}
}

// OrderLineInput is the point-in-time snapshot checkout captured: quantity
// and unit price as shown to the shopper, decoupled from any reservation
// changes that happen afterwards.
type OrderLineInput struct {
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
}

// CommitOrder decrements stock (floored at zero), bumps purchase counters,
// persists the order with its lines, and clears the holder's remaining
// holds. Availability is deliberately not re-validated here: checkout
// already captured its snapshot, and stock itself can never go negative.
func (s *CheckoutService) CommitOrder(ctx context.Context, holder domain.Holder, lines []OrderLineInput) (domain.Order, error) {
	if err := holder.Validate(); err != nil {
		return domain.Order{}, err
	}
	if len(lines) == 0 {
		return domain.Order{}, domain.ErrInvalidQuantity
	}
	for _, line := range lines {
		if line.Quantity <= 0 {
			return domain.Order{}, domain.ErrInvalidQuantity
		}
	}

	// Lock products in a stable order so two commits sharing products
	// cannot deadlock.
	sorted := make([]OrderLineInput, len(lines))
	copy(sorted, lines)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ProductID < sorted[j].ProductID })

	now := s.clock.Now()
	order := domain.Order{
		ID:           newID(),
		AccountID:    holder.AccountID,
		SessionToken: holder.SessionToken,
		CreatedAt:    now,
	}

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.CreateOrder(txCtx, order); err != nil {
			return err
		}

		orderLines := make([]domain.OrderLine, 0, len(sorted))
		for _, line := range sorted {
			if _, err := s.repo.GetProductForUpdate(txCtx, line.ProductID); err != nil {
				return err
			}
			if err := s.repo.CommitStock(txCtx, line.ProductID, line.Quantity); err != nil {
				return err
			}
			orderLines = append(orderLines, domain.OrderLine{
				ID:        newID(),
				OrderID:   order.ID,
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				UnitPrice: line.UnitPrice,
			})
		}
		if err := s.repo.CreateOrderLines(txCtx, orderLines); err != nil {
			return err
		}
		return s.repo.DeleteHoldsForHolder(txCtx, holder)
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.log.Info("order committed", "order_id", order.ID, "lines", len(lines))
	return order, nil
}

// GetOrder returns the holder's order with its lines. Orders belonging to
// anyone else read as not found rather than forbidden, so order ids leak
// nothing.
func (s *CheckoutService) GetOrder(ctx context.Context, holder domain.Holder, orderID string) (domain.Order, []domain.OrderLine, error) {
	if err := holder.Validate(); err != nil {
		return domain.Order{}, nil, err
	}

	order, lines, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return domain.Order{}, nil, err
	}
	if order.Holder() != holder {
		return domain.Order{}, nil, domain.ErrOrderNotFound
	}
	return order, lines, nil
}
