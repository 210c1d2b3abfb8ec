package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func money(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", s, err)
	}
	return d
}

func auctionProduct(t *testing.T, start time.Time) Product {
	t.Helper()
	return Product{
		ID:                     "prod-1",
		Price:                  money(t, "100"),
		BeforeAuctionPrice:     money(t, "100"),
		AuctionManual:          true,
		AuctionStartTime:       &start,
		AuctionFloorPrice:      money(t, "70"),
		AuctionIntervalMinutes: 60,
		AuctionDropAmount:      money(t, "5"),
	}
}

func TestProduct_AuctionState(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("not participating", func(t *testing.T) {
		p := Product{Price: money(t, "50")}
		if got := p.AuctionState(now); got != AuctionStateNone {
			t.Fatalf("expected none, got %s", got)
		}
	})

	t.Run("manual without start time is not eligible", func(t *testing.T) {
		p := Product{AuctionManual: true}
		if got := p.AuctionState(now); got != AuctionStateNone {
			t.Fatalf("expected none, got %s", got)
		}
	})

	t.Run("eligible inside window", func(t *testing.T) {
		p := auctionProduct(t, now.Add(-2*time.Hour))
		if got := p.AuctionState(now); got != AuctionStateEligible {
			t.Fatalf("expected eligible, got %s", got)
		}
	})

	t.Run("locked while a bid holds", func(t *testing.T) {
		p := auctionProduct(t, now.Add(-2*time.Hour))
		p.BidLocked = true
		if got := p.AuctionState(now); got != AuctionStateBidLocked {
			t.Fatalf("expected bid_locked, got %s", got)
		}
	})

	t.Run("expired at exactly 24h", func(t *testing.T) {
		p := auctionProduct(t, now.Add(-AuctionWindow))
		if got := p.AuctionState(now); got != AuctionStateExpired {
			t.Fatalf("expected expired, got %s", got)
		}
	})
}

func TestProduct_CurrentQuote(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("three intervals elapsed", func(t *testing.T) {
		p := auctionProduct(t, now.Add(-185*time.Minute))

		q := p.CurrentQuote(now)
		if !q.Price.Equal(money(t, "85")) {
			t.Fatalf("expected price 85, got %s", q.Price)
		}
		if !q.Discount.Equal(money(t, "15")) {
			t.Fatalf("expected discount 15, got %s", q.Discount)
		}
		if !q.PercentOff.Equal(money(t, "15")) {
			t.Fatalf("expected 15%% off, got %s", q.PercentOff)
		}
	})

	t.Run("discount clamps at the floor", func(t *testing.T) {
		p := auctionProduct(t, now.Add(-1000*time.Minute))

		q := p.CurrentQuote(now)
		if !q.Price.Equal(money(t, "70")) {
			t.Fatalf("expected floor price 70, got %s", q.Price)
		}
		if !q.Discount.Equal(money(t, "30")) {
			t.Fatalf("expected discount 30, got %s", q.Discount)
		}
	})

	t.Run("first drop applies immediately", func(t *testing.T) {
		p := auctionProduct(t, now.Add(-1*time.Minute))

		q := p.CurrentQuote(now)
		if !q.Price.Equal(money(t, "95")) {
			t.Fatalf("expected one drop right after start, got %s", q.Price)
		}
	})

	t.Run("decay is monotone until the floor", func(t *testing.T) {
		start := now
		p := auctionProduct(t, start)

		prev := p.Price
		for m := 0; m <= 30*60; m += 30 {
			q := p.CurrentQuote(start.Add(time.Duration(m) * time.Minute))
			if q.Price.GreaterThan(prev) {
				t.Fatalf("price rose from %s to %s at minute %d", prev, q.Price, m)
			}
			if q.Price.LessThan(p.AuctionFloorPrice) {
				t.Fatalf("price %s crossed floor %s at minute %d", q.Price, p.AuctionFloorPrice, m)
			}
			prev = q.Price
		}
	})

	t.Run("no discount outside the eligible state", func(t *testing.T) {
		p := auctionProduct(t, now.Add(-2*time.Hour))
		p.BidLocked = true
		p.Price = money(t, "85")

		q := p.CurrentQuote(now)
		if !q.Price.Equal(money(t, "85")) || !q.Discount.IsZero() || !q.PercentOff.IsZero() {
			t.Fatalf("expected passthrough quote, got %+v", q)
		}
	})

	t.Run("percentage against the pre-auction snapshot", func(t *testing.T) {
		// Price was already mutated by a previous lock/release cycle; the
		// percentage must still reference the original baseline.
		p := auctionProduct(t, now.Add(-185*time.Minute))
		p.Price = money(t, "90")
		p.BeforeAuctionPrice = money(t, "120")

		q := p.CurrentQuote(now)
		if !q.Price.Equal(money(t, "75")) {
			t.Fatalf("expected price 75, got %s", q.Price)
		}
		if !q.PercentOff.Equal(money(t, "37.5")) {
			t.Fatalf("expected 37.5%% off, got %s", q.PercentOff)
		}
	})

	t.Run("zero baseline yields zero percentage", func(t *testing.T) {
		p := auctionProduct(t, now.Add(-185*time.Minute))
		p.BeforeAuctionPrice = decimal.Zero

		q := p.CurrentQuote(now)
		if !q.PercentOff.IsZero() {
			t.Fatalf("expected 0%% off, got %s", q.PercentOff)
		}
	})
}
