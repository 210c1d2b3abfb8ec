package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Biaescu25/Aplicatie-Web-pentru-gestionarea-unei-florarii-online/internal/app"
	"github.com/Biaescu25/Aplicatie-Web-pentru-gestionarea-unei-florarii-online/internal/clock"
	"github.com/Biaescu25/Aplicatie-Web-pentru-gestionarea-unei-florarii-online/internal/domain"
	"github.com/Biaescu25/Aplicatie-Web-pentru-gestionarea-unei-florarii-online/internal/logging"
	"github.com/Biaescu25/Aplicatie-Web-pentru-gestionarea-unei-florarii-online/internal/storage/postgres"
	"github.com/Biaescu25/Aplicatie-Web-pentru-gestionarea-unei-florarii-online/internal/testutil"
)

func newTestRouter(pool *pgxpool.Pool) *mux.Router {
	store := postgres.NewStore(pool)
	clk := clock.NewSystem()
	log := logging.NewNop()

	carts := app.NewCartService(store, clk, log)
	auctions := app.NewAuctionService(store, clk, log)
	checkout := app.NewCheckoutService(store, clk, log)

	router := mux.NewRouter()
	router.HandleFunc("/cart", HandleListCart(carts)).Methods(http.MethodGet)
	router.HandleFunc("/cart/items", HandleAddCartItem(carts)).Methods(http.MethodPost)
	router.HandleFunc("/cart/items/{productID}", HandleSetCartItem(carts)).Methods(http.MethodPut)
	router.HandleFunc("/cart/items/{productID}", HandleRemoveCartItem(carts)).Methods(http.MethodDelete)
	router.HandleFunc("/auctions", HandleListAuctions(auctions)).Methods(http.MethodGet)
	router.HandleFunc("/auctions/{productID}/bid", HandleConfirmBid(auctions)).Methods(http.MethodPost)
	router.HandleFunc("/orders", HandleCommitOrder(checkout)).Methods(http.MethodPost)
	router.HandleFunc("/orders/{orderID}", HandleGetOrder(checkout)).Methods(http.MethodGet)
	return router
}

func TestCartEndpointsIntegration(t *testing.T) {
	pool := testutil.NewTestPool(t)
	testutil.ApplyMigrations(t, context.Background(), pool)

	t.Run("four shoppers race for three stems", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		productID := testutil.InsertProduct(t, ctx, pool, domain.Product{
			Name: "Rose bouquet", StockManaged: true, Stock: 3, Price: testutil.Money(t, "49.99"),
		})

		server := httptest.NewServer(newTestRouter(pool))
		defer server.Close()

		const shoppers = 4
		statuses := make([]int, shoppers)
		var wg sync.WaitGroup
		for i := 0; i < shoppers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				body := fmt.Sprintf(`{"product_id":%q}`, productID)
				req, err := http.NewRequest(http.MethodPost, server.URL+"/cart/items", strings.NewReader(body))
				if err != nil {
					t.Errorf("build request: %v", err)
					return
				}
				req.Header.Set(sessionHeader, fmt.Sprintf("sess-%d", i))
				resp, err := server.Client().Do(req)
				if err != nil {
					t.Errorf("request: %v", err)
					return
				}
				defer resp.Body.Close()
				statuses[i] = resp.StatusCode
			}(i)
		}
		wg.Wait()

		created, conflict := 0, 0
		for _, status := range statuses {
			switch status {
			case http.StatusCreated:
				created++
			case http.StatusConflict:
				conflict++
			default:
				t.Fatalf("unexpected status %d", status)
			}
		}
		if created != 3 || conflict != 1 {
			t.Fatalf("expected 3 reservations and 1 conflict, got %d/%d", created, conflict)
		}
	})

	t.Run("bid then checkout at the locked price", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		products := postgres.NewProductRepository(pool)
		productID := testutil.InsertProduct(t, ctx, pool, domain.Product{
			Name: "Orchid", StockManaged: true, Stock: 1, Price: testutil.Money(t, "100"),
		})

		server := httptest.NewServer(newTestRouter(pool))
		defer server.Close()

		// Open the window directly; the admin surface is covered elsewhere.
		start := time.Now().UTC().Add(-185 * time.Minute)
		if err := products.StartAuction(ctx, productID, start, testutil.Money(t, "70"), 60, testutil.Money(t, "5")); err != nil {
			t.Fatalf("start auction: %v", err)
		}

		bidReq, err := http.NewRequest(http.MethodPost, server.URL+"/auctions/"+productID+"/bid", nil)
		if err != nil {
			t.Fatalf("build bid request: %v", err)
		}
		bidReq.Header.Set(accountHeader, "acct-1")
		bidResp, err := server.Client().Do(bidReq)
		if err != nil {
			t.Fatalf("bid: %v", err)
		}
		defer bidResp.Body.Close()
		if bidResp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", bidResp.StatusCode)
		}
		var bid struct {
			LockedPrice string `json:"locked_price"`
		}
		if err := json.NewDecoder(bidResp.Body).Decode(&bid); err != nil {
			t.Fatalf("decode bid: %v", err)
		}
		if !testutil.Money(t, bid.LockedPrice).Equal(testutil.Money(t, "85")) {
			t.Fatalf("expected locked price 85, got %s", bid.LockedPrice)
		}

		// A rival bid loses.
		rivalReq, err := http.NewRequest(http.MethodPost, server.URL+"/auctions/"+productID+"/bid", nil)
		if err != nil {
			t.Fatalf("build rival request: %v", err)
		}
		rivalReq.Header.Set(accountHeader, "acct-2")
		rivalResp, err := server.Client().Do(rivalReq)
		if err != nil {
			t.Fatalf("rival bid: %v", err)
		}
		defer rivalResp.Body.Close()
		if rivalResp.StatusCode != http.StatusConflict {
			t.Fatalf("expected 409 for the rival, got %d", rivalResp.StatusCode)
		}

		// Commit the order at the locked price.
		orderBody := fmt.Sprintf(`{"lines":[{"product_id":%q,"quantity":1,"unit_price":"85"}]}`, productID)
		orderReq, err := http.NewRequest(http.MethodPost, server.URL+"/orders", strings.NewReader(orderBody))
		if err != nil {
			t.Fatalf("build order request: %v", err)
		}
		orderReq.Header.Set(accountHeader, "acct-1")
		orderResp, err := server.Client().Do(orderReq)
		if err != nil {
			t.Fatalf("commit: %v", err)
		}
		defer orderResp.Body.Close()
		if orderResp.StatusCode != http.StatusCreated {
			t.Fatalf("expected 201, got %d", orderResp.StatusCode)
		}

		p, err := products.GetProduct(ctx, productID)
		if err != nil {
			t.Fatalf("get product: %v", err)
		}
		if p.Stock != 0 || p.PurchaseCount != 1 {
			t.Fatalf("stock not committed: %+v", p)
		}
	})
}
