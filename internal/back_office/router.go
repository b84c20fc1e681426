package back_office

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/microfin-loan-office/internal/back_office/handler"
	"github.com/microfin-loan-office/internal/back_office/middleware"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	customerHandler *handler.CustomerHandler,
	accountHandler *handler.AccountHandler,
	loanHandler *handler.LoanHandler,
	transactionHandler *handler.TransactionHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CorrelationID())

	// API v1 endpoints, all behind the identity headers set by the auth proxy
	v1 := r.Group("/api/v1")
	v1.Use(middleware.Identity())
	{
		// Customer operations
		customers := v1.Group("/customers")
		{
			customers.POST("", customerHandler.Create)
			customers.GET("", customerHandler.List)
			customers.GET("/:id", customerHandler.GetByID)
			customers.GET("/:id/accounts", accountHandler.ListByCustomer)
		}

		// Account operations
		accounts := v1.Group("/accounts")
		{
			accounts.POST("", accountHandler.Create)
			accounts.GET("/:id", accountHandler.GetByID)
			accounts.POST("/:id/deposit", accountHandler.Deposit)
			accounts.POST("/:id/withdraw", accountHandler.Withdraw)
			accounts.GET("/:id/transactions", transactionHandler.GetByAccountID)
		}

		// Loan lifecycle operations
		loans := v1.Group("/loans")
		{
			loans.POST("", loanHandler.Apply)
			loans.GET("", loanHandler.List)
			loans.GET("/:id", loanHandler.GetByID)
			loans.GET("/:id/actions", loanHandler.Actions)
			loans.GET("/:id/schedule", loanHandler.Schedule)
			loans.POST("/:id/approve", loanHandler.Approve)
			loans.POST("/:id/reject", loanHandler.Reject)
			loans.POST("/:id/disburse", loanHandler.Disburse)
			loans.POST("/:id/liquidate", loanHandler.Liquidate)
		}

		// Transaction history
		transactions := v1.Group("/transactions")
		{
			transactions.GET("/:id", transactionHandler.GetByID)
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
