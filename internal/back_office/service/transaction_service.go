package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/microfin-loan-office/internal/domain/transaction"
)

// TransactionServiceImpl implements the TransactionService interface
type TransactionServiceImpl struct {
	logger  *slog.Logger
	trxRepo transaction.Repository
}

// NewTransactionService creates a new transaction history service
func NewTransactionService(logger *slog.Logger, trxRepo transaction.Repository) TransactionService {
	return &TransactionServiceImpl{
		logger:  logger,
		trxRepo: trxRepo,
	}
}

// GetTransactionByID retrieves a transaction by its ID. Returns nil if not found
func (s *TransactionServiceImpl) GetTransactionByID(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	trx, err := s.trxRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, transaction.ErrTransactionNotFound{}) {
			s.logger.Info("Transaction not found", "transaction_id", id.String())
			return nil, nil
		}
		s.logger.Error("Failed to get transaction by ID", "transaction_id", id.String(), "error", err)
		return nil, err
	}
	return trx, nil
}

// GetTransactionsByAccountID retrieves paginated transactions for an account
// Returns transactions, total count, and any error
func (s *TransactionServiceImpl) GetTransactionsByAccountID(ctx context.Context, accountID uuid.UUID, page, perPage int) ([]*transaction.Transaction, int64, error) {
	offset := (page - 1) * perPage

	trxs, err := s.trxRepo.GetByAccountID(ctx, accountID, perPage, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.trxRepo.CountByAccountID(ctx, accountID)
	if err != nil {
		return nil, 0, err
	}

	return trxs, total, nil
}
