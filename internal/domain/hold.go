package domain

import "time"

// Hold is a soft, time-boxed claim on inventory or on an auction bid lock.
// One hold maps to one cart line.
type Hold struct {
	ID           string
	AccountID    string
	SessionToken string
	ProductID    string
	Quantity     int
	// ReservedUntil is nil for made-to-order lines, which need no TTL.
	// Stock-managed lines and bid locks carry one and stop counting against
	// availability the moment it passes.
	ReservedUntil *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (h Hold) Holder() Holder {
	return Holder{AccountID: h.AccountID, SessionToken: h.SessionToken}
}

func (h Hold) OwnedBy(holder Holder) bool {
	return h.AccountID == holder.AccountID && h.SessionToken == holder.SessionToken
}

// Expired reports whether the hold's TTL has passed. Holds without a TTL
// never expire.
func (h Hold) Expired(now time.Time) bool {
	return h.ReservedUntil != nil && !h.ReservedUntil.After(now)
}
