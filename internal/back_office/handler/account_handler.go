package handler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/microfin-loan-office/internal/back_office/service"
	"github.com/microfin-loan-office/internal/domain/account"
	"github.com/microfin-loan-office/internal/domain/customer"
)

// AccountHandler handles HTTP requests for account operations
type AccountHandler struct {
	accountService service.AccountService
	logger         *slog.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(logger *slog.Logger, accountService service.AccountService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		logger:         logger,
	}
}

// Create handles opening of a new savings or collateral account
func (h *AccountHandler) Create(c *gin.Context) {
	var req OpenAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	customerID, _ := uuid.Parse(req.CustomerID)
	acc, err := h.accountService.OpenAccount(c.Request.Context(), customerID, account.Type(req.Type))
	if err != nil {
		h.respondAccountError(c, err)
		return
	}

	RespondCreated(c, mapAccountToResponse(acc))
}

// GetByID retrieves an account by its ID, returning 404 if not found
func (h *AccountHandler) GetByID(c *gin.Context) {
	id, ok := h.accountID(c)
	if !ok {
		return
	}

	acc, err := h.accountService.GetAccountByID(c.Request.Context(), id)
	if err != nil {
		h.respondAccountError(c, err)
		return
	}

	RespondOK(c, mapAccountToResponse(acc))
}

// ListByCustomer retrieves all accounts held by a customer
func (h *AccountHandler) ListByCustomer(c *gin.Context) {
	idParam := c.Param("id")
	customerID, err := uuid.Parse(idParam)
	if err != nil {
		RespondBadRequest(c, "Invalid customer ID")
		return
	}

	accounts, err := h.accountService.ListAccountsByCustomer(c.Request.Context(), customerID)
	if err != nil {
		h.respondAccountError(c, err)
		return
	}

	responses := make([]AccountResponse, 0, len(accounts))
	for i := range accounts {
		responses = append(responses, mapAccountToResponse(&accounts[i]))
	}
	RespondOK(c, responses)
}

// Deposit credits an account
func (h *AccountHandler) Deposit(c *gin.Context) {
	h.move(c, h.accountService.Deposit)
}

// Withdraw debits an account
func (h *AccountHandler) Withdraw(c *gin.Context) {
	h.move(c, h.accountService.Withdraw)
}

func (h *AccountHandler) move(c *gin.Context, op func(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, description string) (*account.Account, error)) {
	id, ok := h.accountID(c)
	if !ok {
		return
	}

	var req BalanceMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		RespondBadRequest(c, "amount must be a positive decimal")
		return
	}

	acc, err := op(c.Request.Context(), id, amount, req.Description)
	if err != nil {
		h.respondAccountError(c, err)
		return
	}

	RespondOK(c, mapAccountToResponse(acc))
}

func (h *AccountHandler) accountID(c *gin.Context) (uuid.UUID, bool) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid account ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid account ID")
		return uuid.Nil, false
	}
	return id, true
}

// respondAccountError maps domain errors onto HTTP status codes
func (h *AccountHandler) respondAccountError(c *gin.Context, err error) {
	var accNotFound account.ErrAccountNotFound
	if errors.As(err, &accNotFound) {
		RespondNotFound(c, "Account not found")
		return
	}
	var custNotFound customer.ErrCustomerNotFound
	if errors.As(err, &custNotFound) {
		RespondNotFound(c, "Customer not found")
		return
	}
	switch {
	case errors.Is(err, account.ErrInsufficientFunds):
		RespondUnprocessable(c, "Insufficient funds")
	case errors.Is(err, account.ErrAccountClosed):
		RespondUnprocessable(c, "Account is closed")
	case errors.Is(err, account.ErrInvalidAmount), errors.Is(err, account.ErrInvalidType):
		RespondBadRequest(c, err.Error())
	default:
		h.logger.Error("Account operation failed", "error", err)
		RespondInternalError(c)
	}
}

// mapAccountToResponse maps an account entity to an account response DTO
func mapAccountToResponse(acc *account.Account) AccountResponse {
	resp := AccountResponse{
		ID:            acc.ID.String(),
		AccountNumber: acc.AccountNumber,
		CustomerID:    acc.CustomerID.String(),
		Type:          string(acc.Type),
		Status:        string(acc.Status),
		Balance:       acc.Balance.String(),
		LoanCycle:     acc.LoanCycle,
		CreatedAt:     acc.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     acc.UpdatedAt.Format(time.RFC3339),
	}
	if acc.LoanID != nil {
		resp.LoanID = acc.LoanID.String()
	}
	return resp
}
