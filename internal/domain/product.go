package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a sellable item. Stock-managed products are protected from
// oversell by the reservation ledger; made-to-order categories skip it and
// are only bounded by the per-line cap.
type Product struct {
	ID           string
	Name         string
	Description  string
	Category     string
	StockManaged bool
	// Stock is the authoritative count. Only order commit writes it.
	Stock int
	// Price is the currently displayed and charged price. Outside an
	// auction cycle it equals the listed price; while a bid is locked it
	// holds the decayed amount the winner confirmed.
	Price decimal.Decimal
	// BeforeAuctionPrice is the price snapshot taken when the product first
	// entered an auction. Set once, kept until the cycle fully resets; the
	// percentage-off shown to shoppers is always computed against it.
	BeforeAuctionPrice     decimal.Decimal
	AuctionManual          bool
	AuctionStartTime       *time.Time
	AuctionFloorPrice      decimal.Decimal
	AuctionIntervalMinutes int
	AuctionDropAmount      decimal.Decimal
	// BidLocked is true while exactly one holder has confirmed a bid.
	BidLocked bool
	// BidHoldID names the hold backing the bid lock. Empty when unlocked.
	// Releasing or sweeping any other hold must leave the lock alone.
	BidHoldID     string
	PurchaseCount int
	CreatedAt     time.Time
}
