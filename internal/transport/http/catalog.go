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

// CatalogService is the minimal interface the admin catalog endpoints need.
type CatalogService interface {
	CreateProduct(ctx context.Context, in app.CreateProductInput) (domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	StartAuction(ctx context.Context, in app.StartAuctionInput) error
	StopAuction(ctx context.Context, productID string) error
}

type productResponse struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Category         string          `json:"category"`
	StockManaged     bool            `json:"stock_managed"`
	Stock            int             `json:"stock"`
	Price            decimal.Decimal `json:"price"`
	AuctionManual    bool            `json:"auction_manual"`
	AuctionStartTime *time.Time      `json:"auction_start_time,omitempty"`
	BidLocked        bool            `json:"bid_locked"`
}

func toProductResponse(p domain.Product) productResponse {
	return productResponse{
		ID:               p.ID,
		Name:             p.Name,
		Category:         p.Category,
		StockManaged:     p.StockManaged,
		Stock:            p.Stock,
		Price:            p.Price,
		AuctionManual:    p.AuctionManual,
		AuctionStartTime: p.AuctionStartTime,
		BidLocked:        p.BidLocked,
	}
}

// HandleAdminProducts creates and lists catalog products.
func HandleAdminProducts(svc CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			products, err := svc.ListProducts(r.Context())
			if err != nil {
				writeDomainError(w, err)
				return
			}
			resp := make([]productResponse, 0, len(products))
			for _, p := range products {
				resp = append(resp, toProductResponse(p))
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(resp)
		case http.MethodPost:
			var req struct {
				Name         string          `json:"name"`
				Description  string          `json:"description"`
				Category     string          `json:"category"`
				StockManaged bool            `json:"stock_managed"`
				Stock        int             `json:"stock"`
				Price        decimal.Decimal `json:"price"`
			}
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}

			p, err := svc.CreateProduct(r.Context(), app.CreateProductInput{
				Name:         req.Name,
				Description:  req.Description,
				Category:     req.Category,
				StockManaged: req.StockManaged,
				Stock:        req.Stock,
				Price:        req.Price,
			})
			if err != nil {
				writeDomainError(w, err)
				return
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(toProductResponse(p))
		default:
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		}
	}
}

// HandleStartAuction opens a decay-auction window on a product.
func HandleStartAuction(svc CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID := mux.Vars(r)["productID"]

		var req struct {
			FloorPrice      decimal.Decimal `json:"floor_price"`
			IntervalMinutes int             `json:"interval_minutes"`
			DropAmount      decimal.Decimal `json:"drop_amount"`
		}
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		err := svc.StartAuction(r.Context(), app.StartAuctionInput{
			ProductID:       productID,
			FloorPrice:      req.FloorPrice,
			IntervalMinutes: req.IntervalMinutes,
			DropAmount:      req.DropAmount,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleStopAuction ends a product's auction cycle and restores its price.
func HandleStopAuction(svc CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID := mux.Vars(r)["productID"]
		if err := svc.StopAuction(r.Context(), productID); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
