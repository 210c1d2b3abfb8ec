package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AuctionWindow is how long a product stays biddable after its auction
// start time. Past it the product drops out of listings until an admin
// resets the cycle.
const AuctionWindow = 24 * time.Hour

type AuctionState int

const (
	// AuctionStateNone: the product does not participate in the decay auction.
	AuctionStateNone AuctionState = iota
	// AuctionStateEligible: inside the window, nobody holds the bid lock.
	AuctionStateEligible
	// AuctionStateBidLocked: exactly one holder confirmed the decayed price.
	AuctionStateBidLocked
	// AuctionStateExpired: the window elapsed without a surviving bid.
	AuctionStateExpired
)

func (s AuctionState) String() string {
	switch s {
	case AuctionStateEligible:
		return "eligible"
	case AuctionStateBidLocked:
		return "bid_locked"
	case AuctionStateExpired:
		return "expired"
	default:
		return "none"
	}
}

// AuctionState evaluates the product's auction state machine at the given
// instant. Each product is independent; no shared iteration state.
func (p Product) AuctionState(now time.Time) AuctionState {
	if !p.AuctionManual || p.AuctionStartTime == nil {
		return AuctionStateNone
	}
	if !now.Before(p.AuctionStartTime.Add(AuctionWindow)) {
		return AuctionStateExpired
	}
	if p.BidLocked {
		return AuctionStateBidLocked
	}
	return AuctionStateEligible
}

// Quote is the auction offer for a product at a given instant.
type Quote struct {
	// Price is the decayed price a bid would lock in right now.
	Price decimal.Decimal
	// Discount is the amount knocked off the current price, clamped so the
	// price never crosses the auction floor.
	Discount decimal.Decimal
	// PercentOff is measured against the pre-auction snapshot price, so
	// repeated reads agree even after a lock/release cycle mutated Price.
	PercentOff decimal.Decimal
}

// CurrentQuote computes the decayed offer from the auction schedule and
// elapsed time. Pure: it never mutates the product, and outside the
// eligible state it returns the stored price with no discount.
func (p Product) CurrentQuote(now time.Time) Quote {
	if p.AuctionState(now) != AuctionStateEligible {
		return Quote{Price: p.Price}
	}

	elapsed := int64(now.Sub(*p.AuctionStartTime) / time.Minute)
	interval := int64(p.AuctionIntervalMinutes)
	if interval <= 0 {
		interval = 1
	}
	// The first drop applies the moment the auction starts; there is no
	// zero-discount grace interval.
	intervals := elapsed / interval
	if intervals < 1 {
		intervals = 1
	}

	discount := p.AuctionDropAmount.Mul(decimal.NewFromInt(intervals))
	room := p.Price.Sub(p.AuctionFloorPrice)
	if room.IsNegative() {
		room = decimal.Zero
	}
	if discount.GreaterThan(room) {
		discount = room
	}

	price := p.Price.Sub(discount)
	percentOff := decimal.Zero
	if !p.BeforeAuctionPrice.IsZero() {
		percentOff = p.BeforeAuctionPrice.Sub(price).
			Div(p.BeforeAuctionPrice).
			Mul(decimal.NewFromInt(100)).
			Round(2)
	}

	return Quote{Price: price, Discount: discount, PercentOff: percentOff}
}
