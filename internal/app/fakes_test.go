package app

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Biaescu25/Aplicatie-Web-pentru-gestionarea-unei-florarii-online/internal/domain"
)

// fakeStore is an in-memory stand-in for the postgres store. WithTx holds a
// mutex for the duration of the callback, so concurrent service calls
// serialize the same way row locks serialize them against the database.
type fakeStore struct {
	mu       sync.Mutex
	products map[string]domain.Product
	holds    map[string]domain.Hold
	orders   map[string]domain.Order
	lines    []domain.OrderLine
}

func newFakeStore(products ...domain.Product) *fakeStore {
	s := &fakeStore{
		products: make(map[string]domain.Product),
		holds:    make(map[string]domain.Hold),
		orders:   make(map[string]domain.Order),
	}
	for _, p := range products {
		s.products[p.ID] = p
	}
	return s
}

func (s *fakeStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(ctx)
}

func (s *fakeStore) GetProduct(_ context.Context, productID string) (domain.Product, error) {
	p, ok := s.products[productID]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return p, nil
}

func (s *fakeStore) GetProductForUpdate(ctx context.Context, productID string) (domain.Product, error) {
	return s.GetProduct(ctx, productID)
}

func (s *fakeStore) ListProducts(context.Context) ([]domain.Product, error) {
	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeStore) ListAuctioned(ctx context.Context) ([]domain.Product, error) {
	all, _ := s.ListProducts(ctx)
	var out []domain.Product
	for _, p := range all {
		if p.AuctionManual {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *fakeStore) CreateProduct(_ context.Context, p domain.Product) error {
	s.products[p.ID] = p
	return nil
}

func (s *fakeStore) LockBid(_ context.Context, productID string, price decimal.Decimal, holdID string) error {
	p, ok := s.products[productID]
	if !ok {
		return domain.ErrProductNotFound
	}
	if p.BeforeAuctionPrice.IsZero() {
		p.BeforeAuctionPrice = p.Price
	}
	p.Price = price
	p.BidLocked = true
	p.BidHoldID = holdID
	s.products[productID] = p
	return nil
}

func (s *fakeStore) ResetBid(_ context.Context, productID string) error {
	p, ok := s.products[productID]
	if !ok || !p.BidLocked {
		return nil
	}
	if p.BeforeAuctionPrice.IsPositive() {
		p.Price = p.BeforeAuctionPrice
	}
	p.BidLocked = false
	p.BidHoldID = ""
	s.products[productID] = p
	return nil
}

func (s *fakeStore) StartAuction(_ context.Context, productID string, startTime time.Time, floor decimal.Decimal, intervalMinutes int, dropAmount decimal.Decimal) error {
	p, ok := s.products[productID]
	if !ok {
		return domain.ErrProductNotFound
	}
	p.AuctionManual = true
	p.AuctionStartTime = &startTime
	p.AuctionFloorPrice = floor
	p.AuctionIntervalMinutes = intervalMinutes
	p.AuctionDropAmount = dropAmount
	if p.BeforeAuctionPrice.IsZero() {
		p.BeforeAuctionPrice = p.Price
	}
	s.products[productID] = p
	return nil
}

func (s *fakeStore) StopAuction(_ context.Context, productID string) error {
	p, ok := s.products[productID]
	if !ok {
		return domain.ErrProductNotFound
	}
	p.AuctionManual = false
	p.AuctionStartTime = nil
	p.BidLocked = false
	p.BidHoldID = ""
	if p.BeforeAuctionPrice.IsPositive() {
		p.Price = p.BeforeAuctionPrice
	}
	p.BeforeAuctionPrice = decimal.Zero
	s.products[productID] = p
	return nil
}

func (s *fakeStore) CommitStock(_ context.Context, productID string, quantity int) error {
	p, ok := s.products[productID]
	if !ok {
		return domain.ErrProductNotFound
	}
	if p.StockManaged {
		p.Stock -= quantity
		if p.Stock < 0 {
			p.Stock = 0
		}
	}
	p.PurchaseCount++
	s.products[productID] = p
	return nil
}

func (s *fakeStore) FindHold(_ context.Context, holder domain.Holder, productID string) (*domain.Hold, error) {
	for _, h := range s.holds {
		if h.ProductID == productID && h.AccountID == holder.AccountID && h.SessionToken == holder.SessionToken {
			hold := h
			return &hold, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) FindLockHold(_ context.Context, productID string) (*domain.Hold, error) {
	p, ok := s.products[productID]
	if !ok || p.BidHoldID == "" {
		return nil, nil
	}
	h, ok := s.holds[p.BidHoldID]
	if !ok {
		return nil, nil
	}
	hold := h
	return &hold, nil
}

func (s *fakeStore) SumActiveHolds(_ context.Context, productID string, now time.Time, excludeHoldID *string) (int, error) {
	total := 0
	for _, h := range s.holds {
		if h.ProductID != productID {
			continue
		}
		if excludeHoldID != nil && h.ID == *excludeHoldID {
			continue
		}
		if h.ReservedUntil == nil || !h.ReservedUntil.After(now) {
			continue
		}
		total += h.Quantity
	}
	return total, nil
}

func (s *fakeStore) ListHolds(_ context.Context, holder domain.Holder) ([]domain.Hold, error) {
	var out []domain.Hold
	for _, h := range s.holds {
		if h.AccountID == holder.AccountID && h.SessionToken == holder.SessionToken {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *fakeStore) CreateHold(_ context.Context, hold domain.Hold) error {
	s.holds[hold.ID] = hold
	return nil
}

func (s *fakeStore) UpdateHold(_ context.Context, holdID string, quantity int, reservedUntil *time.Time, now time.Time) error {
	h, ok := s.holds[holdID]
	if !ok {
		return domain.ErrHoldNotFound
	}
	h.Quantity = quantity
	h.ReservedUntil = reservedUntil
	h.UpdatedAt = now
	s.holds[holdID] = h
	return nil
}

func (s *fakeStore) ReassignHold(_ context.Context, holdID, accountID string, now time.Time) error {
	h, ok := s.holds[holdID]
	if !ok {
		return domain.ErrHoldNotFound
	}
	h.AccountID = accountID
	h.SessionToken = ""
	h.UpdatedAt = now
	s.holds[holdID] = h
	return nil
}

func (s *fakeStore) DeleteHold(_ context.Context, holdID string) error {
	delete(s.holds, holdID)
	return nil
}

func (s *fakeStore) DeleteHoldsForHolder(_ context.Context, holder domain.Holder) error {
	for id, h := range s.holds {
		if h.AccountID == holder.AccountID && h.SessionToken == holder.SessionToken {
			delete(s.holds, id)
		}
	}
	return nil
}

func (s *fakeStore) CreateOrder(_ context.Context, order domain.Order) error {
	s.orders[order.ID] = order
	return nil
}

func (s *fakeStore) CreateOrderLines(_ context.Context, lines []domain.OrderLine) error {
	s.lines = append(s.lines, lines...)
	return nil
}

func (s *fakeStore) GetOrder(_ context.Context, orderID string) (domain.Order, []domain.OrderLine, error) {
	o, ok := s.orders[orderID]
	if !ok {
		return domain.Order{}, nil, domain.ErrOrderNotFound
	}
	var lines []domain.OrderLine
	for _, line := range s.lines {
		if line.OrderID == orderID {
			lines = append(lines, line)
		}
	}
	return o, lines, nil
}

// holdCount reports how many holds currently exist, across all holders.
func (s *fakeStore) holdCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.holds)
}

func (s *fakeStore) product(id string) domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id]
}
