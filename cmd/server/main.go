// Package main is the entry point for the fabrika API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fabrika/internal/config"
	"fabrika/internal/domain/billing"
	"fabrika/internal/domain/finance"
	"fabrika/internal/domain/ledger"
	"fabrika/internal/domain/procurement"
	"fabrika/internal/domain/rates"
	"fabrika/internal/domain/transfer"
	v1 "fabrika/internal/infrastructure/http/v1"
	"fabrika/internal/infrastructure/storage/postgres"
	"fabrika/internal/infrastructure/storage/postgres/billing_repo"
	"fabrika/internal/infrastructure/storage/postgres/catalog_repo"
	"fabrika/internal/infrastructure/storage/postgres/finance_repo"
	"fabrika/internal/infrastructure/storage/postgres/ledger_repo"
	"fabrika/internal/infrastructure/storage/postgres/procurement_repo"
	"fabrika/pkg/logger"
	"fabrika/pkg/numerator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting fabrika server")

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
	poolCfg.MaxConns = cfg.DBMaxConns
	poolCfg.MinConns = cfg.DBMinConns

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Repositories ---
	materialRepo := catalog_repo.NewMaterialRepo(txManager)
	warehouseRepo := catalog_repo.NewWarehouseRepo(txManager)
	supplierRepo := catalog_repo.NewSupplierRepo(txManager)

	ledgerRepo := ledger_repo.NewLedgerRepo(txManager)
	quoteRepo := procurement_repo.NewQuoteRepo(txManager)
	orderRepo := procurement_repo.NewOrderRepo(txManager)
	claimRepo := billing_repo.NewClaimRepo(txManager)
	invoiceRepo := finance_repo.NewInvoiceRepo(txManager)
	paymentRepo := finance_repo.NewPaymentRepo(txManager)
	allocationRepo := finance_repo.NewAllocationRepo(txManager)

	// --- Exchange rates ---
	var rateProvider rates.Provider
	if cfg.TCMBBaseURL != "" {
		rateProvider = rates.NewTCMBProviderWithClient(&http.Client{Timeout: 10 * time.Second}, cfg.TCMBBaseURL)
	} else {
		rateProvider = rates.NewTCMBProvider()
	}
	rateProvider = rates.NewCachingProvider(rateProvider, cfg.RateCacheTTL)

	// --- Services ---
	numbers := numerator.New(pool)

	auditSvc, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit service", "error", err)
	}

	ledgerSvc := ledger.NewService(ledgerRepo)

	currencyLock := procurement.NewCurrencyLockService(quoteRepo, rateProvider, txManager).
		WithAuditor(auditSvc)
	procurementSvc := procurement.NewService(quoteRepo, orderRepo, currencyLock, txManager)

	fifoMatcher := procurement.NewFifoMatcher(orderRepo, ledgerSvc)
	transferSvc := transfer.NewService(ledgerSvc, warehouseRepo, txManager, fifoMatcher)

	billingEngine := billing.NewEngine(claimRepo, orderRepo, quoteRepo, numbers, txManager)

	invoiceSvc := finance.NewInvoiceService(invoiceRepo, allocationRepo, ledgerSvc, warehouseRepo, procurementSvc, numbers, txManager)
	allocationEngine := finance.NewAllocationEngine(paymentRepo, invoiceRepo, allocationRepo, claimRepo, orderRepo, numbers, txManager).
		WithAuditor(auditSvc)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:         pool,
		Logger:       log,
		Materials:    materialRepo,
		Warehouses:   warehouseRepo,
		Suppliers:    supplierRepo,
		Ledger:       ledgerSvc,
		Transfers:    transferSvc,
		Procurement:  procurementSvc,
		CurrencyLock: currencyLock,
		Billing:      billingEngine,
		Invoices:     invoiceSvc,
		Allocations:  allocationEngine,
		Rates:        rateProvider,
	})

	// --- HTTP server ---
	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		log.Infow("http server listening", "addr", cfg.AppAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("http server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("forced shutdown", "error", err)
	}
	log.Info("server stopped")
}
