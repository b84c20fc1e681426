package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/microfin-loan-office/internal/back_office/service"
	"github.com/microfin-loan-office/internal/domain/transaction"
)

// TransactionHandler handles HTTP requests for transaction history
type TransactionHandler struct {
	transactionService service.TransactionService
	logger             *slog.Logger
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(logger *slog.Logger, transactionService service.TransactionService) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		logger:             logger,
	}
}

// GetByID retrieves a transaction by its ID
func (h *TransactionHandler) GetByID(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid transaction ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid transaction ID")
		return
	}

	trx, err := h.transactionService.GetTransactionByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to get transaction", "id", idParam, "error", err)
		RespondInternalError(c)
		return
	}
	if trx == nil {
		RespondNotFound(c, "Transaction not found")
		return
	}

	RespondOK(c, mapTransactionToResponse(trx))
}

// GetByAccountID retrieves paginated transaction history for an account
func (h *TransactionHandler) GetByAccountID(c *gin.Context) {
	idParam := c.Param("id")
	accountID, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid account ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid account ID")
		return
	}

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		h.logger.Error("Invalid pagination parameters", "error", err)
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	trxs, total, err := h.transactionService.GetTransactionsByAccountID(c.Request.Context(), accountID, pagination.Page, pagination.PerPage)
	if err != nil {
		h.logger.Error("Failed to get transactions", "account_id", idParam, "error", err)
		RespondInternalError(c)
		return
	}

	responses := make([]TransactionResponse, 0, len(trxs))
	for _, trx := range trxs {
		responses = append(responses, mapTransactionToResponse(trx))
	}

	RespondWithPaginatedData(c, http.StatusOK, responses, pagination.Page, pagination.PerPage, int(total))
}

// mapTransactionToResponse maps a transaction entity to a response DTO
func mapTransactionToResponse(trx *transaction.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:           trx.ID.String(),
		TrxNo:        trx.TrxNo,
		AccountID:    trx.AccountID.String(),
		Type:         string(trx.Type),
		Direction:    string(trx.Direction),
		Amount:       trx.Amount,
		BalanceAfter: trx.BalanceAfter,
		Description:  trx.Description,
		TrxDate:      trx.TrxDate.Format(time.RFC3339),
	}
}
