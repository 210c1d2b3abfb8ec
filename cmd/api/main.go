package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Biaescu25/Aplicatie-Web-pentru-gestionarea-unei-florarii-online/internal/app"
	"github.com/Biaescu25/Aplicatie-Web-pentru-gestionarea-unei-florarii-online/internal/clock"
	"github.com/Biaescu25/Aplicatie-Web-pentru-gestionarea-unei-florarii-online/internal/config"
	"github.com/Biaescu25/Aplicatie-Web-pentru-gestionarea-unei-florarii-online/internal/logging"
	"github.com/Biaescu25/Aplicatie-Web-pentru-gestionarea-unei-florarii-online/internal/reaper"
	"github.com/Biaescu25/Aplicatie-Web-pentru-gestionarea-unei-florarii-online/internal/storage/postgres"
	transporthttp "github.com/Biaescu25/Aplicatie-Web-pentru-gestionarea-unei-florarii-online/internal/transport/http"
	"github.com/Biaescu25/Aplicatie-Web-pentru-gestionarea-unei-florarii-online/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	startupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(startupCtx, cfg.Database.URL)
	if err != nil {
		logger.Fatal("connect to db", "error", err)
	}
	defer pool.Close()

	if err := pool.Ping(startupCtx); err != nil {
		logger.Fatal("db ping", "error", err)
	}
	if err := migrations.Apply(startupCtx, pool); err != nil {
		logger.Fatal("apply migrations", "error", err)
	}

	clk := clock.NewSystem()
	store := postgres.NewStore(pool)

	cartSvc := app.NewCartService(store, clk, logger,
		app.WithHoldTTL(cfg.Hold.TTL),
		app.WithMaxLineQuantity(cfg.Cart.MaxLineQuantity),
	)
	auctionSvc := app.NewAuctionService(store, clk, logger, app.WithBidTTL(cfg.Hold.TTL))
	checkoutSvc := app.NewCheckoutService(store, clk, logger)
	catalogSvc := app.NewCatalogService(store, clk)

	router := mux.NewRouter()
	router.Handle("/health", transporthttp.HandleHealth(pool)).Methods(http.MethodGet)
	router.Handle("/cart", transporthttp.HandleListCart(cartSvc)).Methods(http.MethodGet)
	router.Handle("/cart/items", transporthttp.HandleAddCartItem(cartSvc)).Methods(http.MethodPost)
	router.Handle("/cart/items/{productID}", transporthttp.HandleSetCartItem(cartSvc)).Methods(http.MethodPut)
	router.Handle("/cart/items/{productID}", transporthttp.HandleRemoveCartItem(cartSvc)).Methods(http.MethodDelete)
	router.Handle("/cart/merge", transporthttp.HandleMergeCart(cartSvc)).Methods(http.MethodPost)
	router.Handle("/auctions", transporthttp.HandleListAuctions(auctionSvc)).Methods(http.MethodGet)
	router.Handle("/auctions/{productID}/bid", transporthttp.HandleConfirmBid(auctionSvc)).Methods(http.MethodPost)
	router.Handle("/orders", transporthttp.HandleCommitOrder(checkoutSvc)).Methods(http.MethodPost)
	router.Handle("/orders/{orderID}", transporthttp.HandleGetOrder(checkoutSvc)).Methods(http.MethodGet)
	router.Handle("/admin/products", transporthttp.HandleAdminProducts(catalogSvc)).Methods(http.MethodGet, http.MethodPost)
	router.Handle("/admin/products/{productID}/auction", transporthttp.HandleStartAuction(catalogSvc)).Methods(http.MethodPost)
	router.Handle("/admin/products/{productID}/auction", transporthttp.HandleStopAuction(catalogSvc)).Methods(http.MethodDelete)
	router.NotFoundHandler = transporthttp.NotFoundHandler()

	handler := transporthttp.RequestLogger(transporthttp.CORS(cfg.CORS.Origins, router), logger)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: handler,
	}

	reaperCtx, stopReaper := context.WithCancel(context.Background())
	defer stopReaper()
	var rp *reaper.Reaper
	if cfg.Reaper.Enabled {
		rp = reaper.New(store, clk, logger, cfg.Reaper.Interval)
		if err := rp.Start(reaperCtx); err != nil {
			logger.Fatal("start reaper", "error", err)
		}
	}

	logger.Info("api listening", "port", cfg.Server.Port)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
		}
	case <-stopCtx.Done():
		logger.Info("shutdown signal received, stopping server")
	}

	if rp != nil {
		rp.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server shutdown error", "error", err)
	}
	logger.Info("server stopped")
}
