// Package routes defines the API routing configuration: every route
// group, its handlers and the middleware each group requires.
package routes

import (
	"taqsit/internal/config"
	"taqsit/internal/handlers"
	"taqsit/internal/middleware"
	"taqsit/internal/models"
	"taqsit/internal/repositories"
	"taqsit/internal/services/auth"
	"taqsit/internal/services/credit"
	"taqsit/internal/services/ledger"
	"taqsit/internal/services/plan"
	"taqsit/internal/services/purchase"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Services bundles the wired service layer so the cron jobs can share
// the instances the HTTP layer uses.
type Services struct {
	Auth     auth.Service
	Credit   credit.Service
	Ledger   ledger.Service
	Purchase purchase.Service
	Plan     plan.Service
}

// SetupRoutes wires repositories into services and services into
// handlers, then registers every route group.
func SetupRoutes(app *fiber.App, db *gorm.DB) *Services {
	store := repositories.NewLedgerStore(db)
	userRepo := repositories.NewUserRepository(db)
	cacheService := repositories.CacheService

	authService := auth.NewService(userRepo, store)
	creditService := credit.NewService(store, userRepo, cacheService, credit.Config{})
	ledgerService := ledger.NewService(store, cacheService, ledger.Config{})
	purchaseService := purchase.NewService(store, cacheService, purchase.Config{
		FeePercent: config.TransactionFeePercent(),
	})
	planService := plan.NewService(store, cacheService, plan.Config{})

	authHandler := handlers.NewAuthHandler(authService)
	customerHandler := handlers.NewCustomerHandler(creditService)
	merchantHandler := handlers.NewMerchantHandler(ledgerService, creditService)
	purchaseHandler := handlers.NewPurchaseHandler(purchaseService)
	repaymentHandler := handlers.NewRepaymentHandler(planService)
	adminHandler := handlers.NewAdminHandler(creditService, ledgerService, purchaseService, planService)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Welcome to Taqsit API",
			"version": "1.0.0",
			"docs":    "/api",
		})
	})

	api := app.Group("/api")
	api.Get("/health", handlers.HealthCheck)

	// Public endpoints
	api.Post("/login", authHandler.Login)
	api.Post("/register/customer", authHandler.RegisterCustomer)
	api.Post("/register/merchant", authHandler.RegisterMerchant)
	api.Post("/refresh", authHandler.RefreshToken)

	authMiddleware := middleware.NewAuthMiddleware(authService)
	protected := api.Use(authMiddleware.Handler)

	protected.Post("/logout", authHandler.Logout)

	// Shared request reads
	protected.Get("/purchase-requests", purchaseHandler.ListMyRequests)
	protected.Get("/purchase-requests/:id", purchaseHandler.GetRequest)

	// Customer side
	customers := protected.Group("/customer", middleware.RequireRole(models.RoleCustomer))
	customers.Get("/account", customerHandler.GetMyAccount)
	customers.Get("/purchase-requests/pending", purchaseHandler.ListPendingRequests)
	customers.Post("/purchase-requests/:id/approve", purchaseHandler.ApproveRequest)
	customers.Post("/purchase-requests/:id/reject", purchaseHandler.RejectRequest)
	customers.Get("/plans", repaymentHandler.ListMyPlans)
	customers.Get("/plans/:id", repaymentHandler.GetPlan)
	customers.Get("/plans/:id/next-installment", repaymentHandler.NextInstallment)
	customers.Get("/installments/overdue", repaymentHandler.ListOverdue)
	customers.Post("/installments/:id/pay", repaymentHandler.PayInstallment)
	customers.Post("/installments/:id/request-payment", repaymentHandler.RequestPayment)

	// Merchant side
	merchants := protected.Group("/merchant", middleware.RequireRole(models.RoleMerchant))
	merchants.Get("/profile", merchantHandler.GetMyMerchant)
	merchants.Get("/balance", merchantHandler.GetBalanceSummary)
	merchants.Get("/customers/:national_id", merchantHandler.LookupCustomer)
	merchants.Post("/purchase-requests", purchaseHandler.CreateRequest)
	merchants.Post("/purchase-requests/:id/cancel", purchaseHandler.CancelRequest)
	merchants.Get("/payment-requests", repaymentHandler.ListPaymentRequests)
	merchants.Post("/payment-requests/:id/approve", repaymentHandler.ApprovePaymentRequest)
	merchants.Post("/payment-requests/:id/reject", repaymentHandler.RejectPaymentRequest)

	// Admin side
	admin := protected.Group("/admin", middleware.AdminAuthMiddleware)
	admin.Get("/customers", adminHandler.ListCustomers)
	admin.Post("/customers/:id/approve", adminHandler.ApproveCustomer)
	admin.Put("/customers/:id/credit-limit", adminHandler.ResizeCreditLimit)
	admin.Get("/merchants", adminHandler.ListMerchants)
	admin.Post("/merchants/:id/approve", adminHandler.ApproveMerchant)
	admin.Get("/requests", adminHandler.ListRequests)
	admin.Post("/sweeps/run", adminHandler.RunSweeps)

	return &Services{
		Auth:     authService,
		Credit:   creditService,
		Ledger:   ledgerService,
		Purchase: purchaseService,
		Plan:     planService,
	}
}
