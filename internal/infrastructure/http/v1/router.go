// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"fabrika/internal/domain/billing"
	"fabrika/internal/domain/catalogs/material"
	"fabrika/internal/domain/catalogs/supplier"
	"fabrika/internal/domain/catalogs/warehouse"
	"fabrika/internal/domain/finance"
	"fabrika/internal/domain/ledger"
	"fabrika/internal/domain/procurement"
	"fabrika/internal/domain/rates"
	"fabrika/internal/domain/transfer"
	"fabrika/internal/infrastructure/http/v1/handlers"
	"fabrika/internal/infrastructure/http/v1/middleware"
	"fabrika/internal/infrastructure/storage/postgres"
	"fabrika/pkg/logger"
)

// RouterConfig carries the wired services the API serves.
type RouterConfig struct {
	Pool   *postgres.Pool
	Logger *logger.Logger

	Materials  material.Repository
	Warehouses warehouse.Repository
	Suppliers  supplier.Repository

	Ledger    *ledger.Service
	Transfers *transfer.Service

	Procurement  *procurement.Service
	CurrencyLock *procurement.CurrencyLockService

	Billing *billing.Engine

	Invoices    *finance.InvoiceService
	Allocations *finance.AllocationEngine

	Rates rates.Provider
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters).
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	base := handlers.NewBaseHandler()

	catalogHandler := handlers.NewCatalogHandler(base, cfg.Materials, cfg.Warehouses, cfg.Suppliers)
	stockHandler := handlers.NewStockHandler(base, cfg.Ledger, cfg.Transfers)
	procurementHandler := handlers.NewProcurementHandler(base, cfg.Procurement, cfg.CurrencyLock)
	billingHandler := handlers.NewBillingHandler(base, cfg.Billing)
	financeHandler := handlers.NewFinanceHandler(base, cfg.Invoices, cfg.Allocations)
	ratesHandler := handlers.NewRatesHandler(base, cfg.Rates)

	api := router.Group("/api/v1")
	{
		catalog := api.Group("/catalog")
		{
			catalog.POST("/materials", catalogHandler.CreateMaterial)
			catalog.GET("/materials", catalogHandler.ListMaterials)
			catalog.GET("/materials/:id", catalogHandler.GetMaterial)

			catalog.POST("/warehouses", catalogHandler.CreateWarehouse)
			catalog.GET("/warehouses", catalogHandler.ListWarehouses)
			catalog.GET("/warehouses/:id", catalogHandler.GetWarehouse)

			catalog.POST("/suppliers", catalogHandler.CreateSupplier)
			catalog.GET("/suppliers", catalogHandler.ListSuppliers)
			catalog.GET("/suppliers/:id", catalogHandler.GetSupplier)
		}

		stock := api.Group("/stock")
		{
			stock.POST("/transfers", stockHandler.Transfer)
			stock.GET("/balance", stockHandler.Balance)
			stock.GET("/history", stockHandler.History)
		}

		proc := api.Group("/procurement")
		{
			proc.POST("/quotes", procurementHandler.CreateQuote)
			proc.GET("/quotes", procurementHandler.ListQuotes)
			proc.GET("/quotes/:id", procurementHandler.GetQuote)
			proc.POST("/quotes/:id/lock", procurementHandler.LockQuote)
			proc.POST("/quotes/:id/approve", procurementHandler.ApproveQuote)
			proc.POST("/quotes/:id/reject", procurementHandler.RejectQuote)

			proc.GET("/orders", procurementHandler.ListOrders)
			proc.GET("/orders/:id", procurementHandler.GetOrder)
			proc.POST("/orders/:id/deliveries", procurementHandler.RegisterDelivery)
		}

		bill := api.Group("/billing")
		{
			bill.POST("/claims", billingHandler.CreateClaim)
			bill.GET("/claims", billingHandler.ListClaims)
			bill.GET("/claims/remaining", billingHandler.RemainingPercent)
			bill.GET("/claims/:id", billingHandler.GetClaim)
		}

		fin := api.Group("/finance")
		{
			fin.POST("/invoices", financeHandler.CreateInvoice)
			fin.GET("/invoices", financeHandler.ListInvoices)
			fin.GET("/invoices/:id", financeHandler.GetInvoice)
			fin.DELETE("/invoices/:id", financeHandler.DeleteInvoice)

			fin.POST("/payments", financeHandler.CreatePayment)
			fin.GET("/payments", financeHandler.ListPayments)
			fin.GET("/payments/:id", financeHandler.GetPayment)
			fin.DELETE("/payments/:id", financeHandler.DeletePayment)
			fin.POST("/payments/:id/allocate", financeHandler.Allocate)
			fin.GET("/payments/:id/allocations", financeHandler.ListAllocations)
		}

		api.GET("/rates/:currency", ratesHandler.Get)
	}

	return router
}
