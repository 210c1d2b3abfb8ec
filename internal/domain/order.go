package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is a confirmed purchase. Created only on payment success; its lines
// capture quantity and unit price at commit time, decoupled from any later
// reservation or price changes.
type Order struct {
	ID           string
	AccountID    string
	SessionToken string
	CreatedAt    time.Time
}

func (o Order) Holder() Holder {
	return Holder{AccountID: o.AccountID, SessionToken: o.SessionToken}
}

type OrderLine struct {
	ID        string
	OrderID   string
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
}
