package domain

import "errors"

var (
	ErrProductNotFound     = errors.New("product not found")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrInvalidQuantity     = errors.New("invalid quantity")
	ErrInvalidHolder       = errors.New("holder must have exactly one of account id or session token")
	ErrHoldNotFound        = errors.New("hold not found")
	ErrOrderNotFound       = errors.New("order not found")
	ErrAuctionLocked       = errors.New("auction already locked by another shopper")
	ErrAuctionExpired      = errors.New("auction ended")
	ErrProductNotAuctioned = errors.New("product is not auctioned")
	ErrProductNameRequired = errors.New("product name required")
	ErrInvalidPrice        = errors.New("invalid price")
	ErrInvalidID           = errors.New("invalid id")
)
