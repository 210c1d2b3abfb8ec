package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/Biaescu25/Aplicatie-Web-pentru-gestionarea-unei-florarii-online/internal/app"
	"github.com/Biaescu25/Aplicatie-Web-pentru-gestionarea-unei-florarii-online/internal/domain"
)

// AuctionService is the minimal interface the auction endpoints need.
type AuctionService interface {
	ListEligible(ctx context.Context) ([]app.Listing, error)
	ConfirmBid(ctx context.Context, holder domain.Holder, productID string) (decimal.Decimal, error)
}

type listingResponse struct {
	ProductID        string          `json:"product_id"`
	Name             string          `json:"name"`
	Price            decimal.Decimal `json:"price"`
	Discount         decimal.Decimal `json:"discount"`
	PercentOff       decimal.Decimal `json:"percent_off"`
	AuctionStartTime *time.Time      `json:"auction_start_time,omitempty"`
}

// HandleListAuctions returns the products currently open for bidding with
// their decayed prices.
func HandleListAuctions(svc AuctionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listings, err := svc.ListEligible(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := make([]listingResponse, 0, len(listings))
		for _, l := range listings {
			resp = append(resp, listingResponse{
				ProductID:        l.Product.ID,
				Name:             l.Product.Name,
				Price:            l.Quote.Price,
				Discount:         l.Quote.Discount,
				PercentOff:       l.Quote.PercentOff,
				AuctionStartTime: l.Product.AuctionStartTime,
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// HandleConfirmBid locks the current decayed price for the caller.
func HandleConfirmBid(svc AuctionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		holder, err := holderFromRequest(r)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		productID := mux.Vars(r)["productID"]

		price, err := svc.ConfirmBid(r.Context(), holder, productID)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(struct {
			ProductID   string          `json:"product_id"`
			LockedPrice decimal.Decimal `json:"locked_price"`
		}{ProductID: productID, LockedPrice: price})
	}
}
