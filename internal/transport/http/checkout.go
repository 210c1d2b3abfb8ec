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

// CheckoutService is the minimal interface the order endpoints need.
type CheckoutService interface {
	CommitOrder(ctx context.Context, holder domain.Holder, lines []app.OrderLineInput) (domain.Order, error)
	GetOrder(ctx context.Context, holder domain.Holder, orderID string) (domain.Order, []domain.OrderLine, error)
}

type commitOrderRequest struct {
	Lines []commitOrderLine `json:"lines"`
}

type commitOrderLine struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// HandleCommitOrder converts the caller's reservations into a permanent
// stock deduction. Called by the payment callback on success only.
func HandleCommitOrder(svc CheckoutService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		holder, err := holderFromRequest(r)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		var req commitOrderRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		lines := make([]app.OrderLineInput, 0, len(req.Lines))
		for _, line := range req.Lines {
			lines = append(lines, app.OrderLineInput{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				UnitPrice: line.UnitPrice,
			})
		}

		order, err := svc.CommitOrder(r.Context(), holder, lines)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(struct {
			ID        string    `json:"id"`
			CreatedAt time.Time `json:"created_at"`
		}{ID: order.ID, CreatedAt: order.CreatedAt})
	}
}

type orderLineResponse struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type orderResponse struct {
	ID        string              `json:"id"`
	CreatedAt time.Time           `json:"created_at"`
	Lines     []orderLineResponse `json:"lines"`
}

// HandleGetOrder returns one of the caller's orders with its lines.
func HandleGetOrder(svc CheckoutService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		holder, err := holderFromRequest(r)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		orderID := mux.Vars(r)["orderID"]

		order, lines, err := svc.GetOrder(r.Context(), holder, orderID)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := orderResponse{ID: order.ID, CreatedAt: order.CreatedAt, Lines: make([]orderLineResponse, 0, len(lines))}
		for _, line := range lines {
			resp.Lines = append(resp.Lines, orderLineResponse{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				UnitPrice: line.UnitPrice,
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}
