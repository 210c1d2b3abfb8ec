package http

import (
	"net/http"

	"github.com/Biaescu25/Aplicatie-Web-pentru-gestionarea-unei-florarii-online/internal/domain"
)

// Authentication is handled upstream; the proxy forwards the resolved
// identity in one of these headers.
const (
	accountHeader = "X-Account-ID"
	sessionHeader = "X-Session-Token"
)

func holderFromRequest(r *http.Request) (domain.Holder, error) {
	h := domain.Holder{
		AccountID:    r.Header.Get(accountHeader),
		SessionToken: r.Header.Get(sessionHeader),
	}
	if err := h.Validate(); err != nil {
		return domain.Holder{}, err
	}
	return h, nil
}
