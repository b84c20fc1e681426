package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/microfin-loan-office/internal/domain/account"
	"github.com/microfin-loan-office/internal/domain/customer"
	"github.com/microfin-loan-office/internal/domain/notification"
	"github.com/microfin-loan-office/internal/domain/outbox"
	"github.com/microfin-loan-office/internal/domain/shared"
	"github.com/microfin-loan-office/internal/domain/transaction"
)

// AccountServiceImpl implements the AccountService interface
type AccountServiceImpl struct {
	logger       *slog.Logger
	db           TxRunner
	accountRepo  account.Repository
	customerRepo customer.Repository
	outboxRepo   outbox.Repository
	trxRepo      transaction.Repository
}

// NewAccountService creates a new account service
func NewAccountService(
	logger *slog.Logger,
	db TxRunner,
	accountRepo account.Repository,
	customerRepo customer.Repository,
	outboxRepo outbox.Repository,
	trxRepo transaction.Repository,
) AccountService {
	return &AccountServiceImpl{
		logger:       logger,
		db:           db,
		accountRepo:  accountRepo,
		customerRepo: customerRepo,
		outboxRepo:   outboxRepo,
		trxRepo:      trxRepo,
	}
}

// OpenAccount opens an account of the given type for a customer
func (s *AccountServiceImpl) OpenAccount(ctx context.Context, customerID uuid.UUID, accountType account.Type) (*account.Account, error) {
	cust, err := s.customerRepo.GetByID(ctx, customerID)
	if err != nil {
		return nil, err
	}

	acc, err := account.NewAccount(cust.ID, account.NewAccountNumber(), accountType)
	if err != nil {
		return nil, err
	}

	if err := s.accountRepo.Create(ctx, acc); err != nil {
		return nil, err
	}

	s.logger.Info("Account opened",
		"account_id", acc.ID,
		"account_number", acc.AccountNumber,
		"type", string(accountType),
		"customer_id", cust.ID,
	)
	return acc, nil
}

// GetAccountByID retrieves an account by its ID
func (s *AccountServiceImpl) GetAccountByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	return s.accountRepo.GetByID(ctx, id)
}

// ListAccountsByCustomer retrieves all accounts held by a customer
func (s *AccountServiceImpl) ListAccountsByCustomer(ctx context.Context, customerID uuid.UUID) ([]account.Account, error) {
	return s.accountRepo.ListByCustomer(ctx, customerID)
}

// Deposit credits an account and queues the customer alert through the outbox
func (s *AccountServiceImpl) Deposit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, description string) (*account.Account, error) {
	return s.move(ctx, accountID, amount, shared.TrxTypeSavingsDeposit, description)
}

// Withdraw debits an account and queues the customer alert through the outbox
func (s *AccountServiceImpl) Withdraw(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, description string) (*account.Account, error) {
	return s.move(ctx, accountID, amount, shared.TrxTypeSavingsWithdrawal, description)
}

// move applies a single balance movement under a row lock, queues the alert
// in the same transaction, and records the history afterwards.
func (s *AccountServiceImpl) move(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, trxType shared.TrxType, description string) (*account.Account, error) {
	if !amount.IsPositive() {
		return nil, account.ErrInvalidAmount
	}

	var (
		moved        *account.Account
		priorBalance decimal.Decimal
	)

	err := s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		accounts := s.accountRepo.WithTx(tx)

		acc, err := accounts.LockForUpdate(ctx, accountID)
		if err != nil {
			return err
		}

		priorBalance = acc.Balance
		switch trxType.Direction() {
		case shared.DirectionCredit:
			err = acc.Credit(amount)
		default:
			err = acc.Debit(amount)
		}
		if err != nil {
			return err
		}

		if err := accounts.UpdateBalance(ctx, acc.ID, acc.Balance, acc.Version-1); err != nil {
			return err
		}
		moved = acc

		cust, err := s.customerRepo.GetByID(ctx, acc.CustomerID)
		if err != nil {
			s.logger.Warn("Skipping alert, customer lookup failed", "account_id", acc.ID, "error", err)
			return nil
		}

		signed := amount
		if trxType.Direction() == shared.DirectionDebit {
			signed = amount.Neg()
		}
		alert, err := notification.NewTransactionAlert(cust.ID, acc.ID, cust.PhoneNumber, notification.TransactionDetails{
			AccountNumber: acc.AccountNumber,
			TypeLabel:     trxType.Label(),
			Amount:        signed,
			PriorBalance:  priorBalance,
			OccurredAt:    acc.UpdatedAt,
		})
		if err != nil {
			s.logger.Warn("Skipping customer alert", "account_id", acc.ID, "error", err)
			return nil
		}
		msg, err := outbox.NewMessage(alert)
		if err != nil {
			s.logger.Error("Failed to build outbox message for alert", "alert_id", alert.ID, "error", err)
			return nil
		}
		if err := s.outboxRepo.WithTx(tx).Create(ctx, msg); err != nil {
			s.logger.Error("Failed to queue customer alert", "alert_id", alert.ID, "error", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	trx := transaction.New(moved.ID, moved.CustomerID, trxType, amount, moved.Balance, description, nil)
	if err := s.trxRepo.Create(ctx, trx); err != nil {
		s.logger.Error("Failed to record transaction history",
			"account_id", moved.ID,
			"trx_type", string(trxType),
			"error", err,
		)
	}

	s.logger.Info("Account balance moved",
		"account_id", moved.ID,
		"trx_type", string(trxType),
		"amount", amount.String(),
		"balance", moved.Balance.String(),
	)
	return moved, nil
}
