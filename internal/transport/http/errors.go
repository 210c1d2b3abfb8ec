package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Biaescu25/Aplicatie-Web-pentru-gestionarea-unei-florarii-online/internal/domain"
)

const (
	codeMethodNotAllowed    = "method_not_allowed"
	codeNotFound            = "not_found"
	codeInvalidRequestBody  = "invalid_request_body"
	codeInvalidID           = "invalid_id"
	codeInvalidQuantity     = "invalid_quantity"
	codeInvalidPrice        = "invalid_price"
	codeHolderRequired      = "holder_required"
	codeProductNotFound     = "product_not_found"
	codeProductNameRequired = "product_name_required"
	codeHoldNotFound        = "hold_not_found"
	codeOrderNotFound       = "order_not_found"
	codeInsufficientStock   = "insufficient_stock"
	codeAuctionLocked       = "auction_locked"
	codeAuctionExpired      = "auction_expired"
	codeNotAuctioned        = "not_auctioned"
	codeForbidden           = "forbidden"
	codeInternalError       = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// writeDomainError maps the engine's error taxonomy onto HTTP statuses.
// Contention outcomes (stock gone, auction taken or over) are ordinary
// conflicts, never 5xx.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrProductNotFound):
		writeError(w, http.StatusNotFound, codeProductNotFound, err.Error())
	case errors.Is(err, domain.ErrHoldNotFound):
		writeError(w, http.StatusNotFound, codeHoldNotFound, err.Error())
	case errors.Is(err, domain.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, codeOrderNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidID):
		writeError(w, http.StatusBadRequest, codeInvalidID, err.Error())
	case errors.Is(err, domain.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, codeInvalidQuantity, err.Error())
	case errors.Is(err, domain.ErrInvalidPrice):
		writeError(w, http.StatusBadRequest, codeInvalidPrice, err.Error())
	case errors.Is(err, domain.ErrProductNameRequired):
		writeError(w, http.StatusBadRequest, codeProductNameRequired, err.Error())
	case errors.Is(err, domain.ErrInvalidHolder):
		writeError(w, http.StatusBadRequest, codeHolderRequired, err.Error())
	case errors.Is(err, domain.ErrInsufficientStock):
		writeError(w, http.StatusConflict, codeInsufficientStock, err.Error())
	case errors.Is(err, domain.ErrAuctionLocked):
		writeError(w, http.StatusConflict, codeAuctionLocked, err.Error())
	case errors.Is(err, domain.ErrAuctionExpired):
		writeError(w, http.StatusConflict, codeAuctionExpired, err.Error())
	case errors.Is(err, domain.ErrProductNotAuctioned):
		writeError(w, http.StatusConflict, codeNotAuctioned, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}
