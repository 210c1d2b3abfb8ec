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

// CartService is the minimal interface the cart endpoints need.
type CartService interface {
	AddOrIncrementLine(ctx context.Context, holder domain.Holder, productID string) (domain.Hold, error)
	SetLineQuantity(ctx context.Context, holder domain.Holder, productID string, quantity int) (int, error)
	RemoveLine(ctx context.Context, holder domain.Holder, productID string) error
	ListCart(ctx context.Context, holder domain.Holder) ([]app.CartLine, error)
	MergeCarts(ctx context.Context, sessionToken, accountID string) error
}

type cartLineResponse struct {
	ProductID     string          `json:"product_id"`
	Name          string          `json:"name"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	ReservedUntil *time.Time      `json:"reserved_until,omitempty"`
}

type holdResponse struct {
	ProductID     string     `json:"product_id"`
	Quantity      int        `json:"quantity"`
	ReservedUntil *time.Time `json:"reserved_until,omitempty"`
}

// HandleAddCartItem adds one unit of a product to the caller's cart.
func HandleAddCartItem(svc CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		holder, err := holderFromRequest(r)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		var req struct {
			ProductID string `json:"product_id"`
		}
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil || req.ProductID == "" {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		hold, err := svc.AddOrIncrementLine(r.Context(), holder, req.ProductID)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(holdResponse{
			ProductID:     hold.ProductID,
			Quantity:      hold.Quantity,
			ReservedUntil: hold.ReservedUntil,
		})
	}
}

// HandleSetCartItem sets a cart line to an absolute quantity; zero removes
// it. Responds with the quantity actually stored after capping.
func HandleSetCartItem(svc CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		holder, err := holderFromRequest(r)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		productID := mux.Vars(r)["productID"]

		var req struct {
			Quantity *int `json:"quantity"`
		}
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil || req.Quantity == nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		capped, err := svc.SetLineQuantity(r.Context(), holder, productID, *req.Quantity)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(struct {
			ProductID string `json:"product_id"`
			Quantity  int    `json:"quantity"`
		}{ProductID: productID, Quantity: capped})
	}
}

// HandleRemoveCartItem releases the caller's hold on a product.
func HandleRemoveCartItem(svc CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		holder, err := holderFromRequest(r)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		productID := mux.Vars(r)["productID"]

		if err := svc.RemoveLine(r.Context(), holder, productID); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleListCart returns the caller's cart lines, sweeping expired holds
// as a side effect.
func HandleListCart(svc CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		holder, err := holderFromRequest(r)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		lines, err := svc.ListCart(r.Context(), holder)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := make([]cartLineResponse, 0, len(lines))
		for _, line := range lines {
			resp = append(resp, cartLineResponse{
				ProductID:     line.Product.ID,
				Name:          line.Product.Name,
				Quantity:      line.Quantity,
				UnitPrice:     line.UnitPrice,
				TotalPrice:    line.TotalPrice,
				ReservedUntil: line.ReservedUntil,
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// HandleMergeCart folds the guest session cart named in the body into the
// authenticated account's cart. Called by the login flow.
func HandleMergeCart(svc CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID := r.Header.Get(accountHeader)
		if accountID == "" {
			writeError(w, http.StatusBadRequest, codeHolderRequired, "account id required")
			return
		}

		var req struct {
			SessionToken string `json:"session_token"`
		}
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil || req.SessionToken == "" {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		if err := svc.MergeCarts(r.Context(), req.SessionToken, accountID); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
