// Package postgres provides PostgreSQL implementations of the domain repositories.
// It handles all database operations while maintaining transaction safety and
// proper error handling for the loan back office.
//
// Monetary columns are NUMERIC; values cross the driver boundary as decimal
// strings so no floating point is involved at any step.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/microfin-loan-office/internal/domain/account"
	"github.com/microfin-loan-office/internal/platform/persistence"
)

// AccountRepository implements the account.Repository interface for PostgreSQL
type AccountRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewAccountRepository creates a new PostgreSQL account repository.
// It expects db.Pool() to satisfy persistence.Querier.
func NewAccountRepository(logger *slog.Logger, db *persistence.PostgresDB) account.Repository {
	return &AccountRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction, allowing for atomic operations
// across multiple repository calls.
func (r *AccountRepository) WithTx(tx pgx.Tx) account.Repository {
	return &AccountRepository{
		querier: tx,
		logger:  r.logger,
	}
}

const accountColumns = `id, account_number, customer_id, type, status, balance::text, loan_id, loan_cycle, version, created_at, updated_at`

func scanAccount(row pgx.Row) (*account.Account, error) {
	var acc account.Account
	var balance string
	err := row.Scan(
		&acc.ID,
		&acc.AccountNumber,
		&acc.CustomerID,
		&acc.Type,
		&acc.Status,
		&balance,
		&acc.LoanID,
		&acc.LoanCycle,
		&acc.Version,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	acc.Balance, err = decimal.NewFromString(balance)
	if err != nil {
		return nil, fmt.Errorf("failed to parse account balance: %w", err)
	}
	return &acc, nil
}

// Create stores a new account in the database. If an account with the same
// account number already exists, a database constraint error will be returned.
func (r *AccountRepository) Create(ctx context.Context, acc *account.Account) error {
	query := `
		INSERT INTO accounts (id, account_number, customer_id, type, status, balance, loan_id, loan_cycle, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.querier.Exec(ctx, query,
		acc.ID,
		acc.AccountNumber,
		acc.CustomerID,
		acc.Type,
		acc.Status,
		acc.Balance.String(),
		acc.LoanID,
		acc.LoanCycle,
		acc.Version,
		acc.CreatedAt,
		acc.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create account", "error", err)
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// GetByID retrieves an account by its ID
func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	acc, err := scanAccount(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{AccountID: id}
		}
		r.logger.Error("Failed to get account", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return acc, nil
}

// GetByNumber retrieves an account by its account number
func (r *AccountRepository) GetByNumber(ctx context.Context, accountNumber string) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_number = $1`

	acc, err := scanAccount(r.querier.QueryRow(ctx, query, accountNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // No account with the given number
		}
		r.logger.Error("Failed to get account by number", "accountNumber", accountNumber, "error", err)
		return nil, fmt.Errorf("failed to get account by number: %w", err)
	}

	return acc, nil
}

// GetByCustomerAndType retrieves the customer's active account of the given type
func (r *AccountRepository) GetByCustomerAndType(ctx context.Context, customerID uuid.UUID, accountType account.Type) (*account.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE customer_id = $1 AND type = $2 AND status = $3
		ORDER BY created_at DESC
		LIMIT 1
	`

	acc, err := scanAccount(r.querier.QueryRow(ctx, query, customerID, accountType, account.StatusActive))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Customer has no active account of this type
		}
		r.logger.Error("Failed to get account by customer and type", "customerID", customerID.String(), "type", string(accountType), "error", err)
		return nil, fmt.Errorf("failed to get account by customer and type: %w", err)
	}

	return acc, nil
}

// GetByLoan retrieves the account of the given type opened for a loan
func (r *AccountRepository) GetByLoan(ctx context.Context, loanID uuid.UUID, accountType account.Type) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE loan_id = $1 AND type = $2`

	acc, err := scanAccount(r.querier.QueryRow(ctx, query, loanID, accountType))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get account by loan", "loanID", loanID.String(), "type", string(accountType), "error", err)
		return nil, fmt.Errorf("failed to get account by loan: %w", err)
	}

	return acc, nil
}

// ListByCustomer retrieves all accounts belonging to a customer
func (r *AccountRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE customer_id = $1 ORDER BY created_at`

	rows, err := r.querier.Query(ctx, query, customerID)
	if err != nil {
		r.logger.Error("Failed to list accounts", "customerID", customerID.String(), "error", err)
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []account.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, *acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}

	return accounts, nil
}

// Update updates an existing account in the database
func (r *AccountRepository) Update(ctx context.Context, acc *account.Account) error {
	query := `
		UPDATE accounts
		SET status = $1, balance = $2, loan_id = $3, loan_cycle = $4, version = $5, updated_at = $6
		WHERE id = $7 AND version = $8
	`

	result, err := r.querier.Exec(ctx, query,
		acc.Status,
		acc.Balance.String(),
		acc.LoanID,
		acc.LoanCycle,
		acc.Version,
		acc.UpdatedAt,
		acc.ID,
		acc.Version-1, // Check previous version for optimistic locking
	)
	if err != nil {
		r.logger.Error("Failed to update account", "id", acc.ID.String(), "error", err)
		return fmt.Errorf("failed to update account: %w", err)
	}

	if result.RowsAffected() == 0 {
		return account.ErrConcurrentModification{AccountID: acc.ID}
	}

	return nil
}

// UpdateBalance atomically sets the account balance using optimistic locking.
// Returns ErrConcurrentModification if the account was modified between read and update.
func (r *AccountRepository) UpdateBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal, version int) error {
	query := `
		UPDATE accounts
		SET balance = $1, version = version + 1, updated_at = NOW()
		WHERE id = $2 AND version = $3
	`

	result, err := r.querier.Exec(ctx, query, balance.String(), id, version)
	if err != nil {
		r.logger.Error("Failed to update account balance", "id", id.String(), "error", err)
		return fmt.Errorf("failed to update account balance: %w", err)
	}

	if result.RowsAffected() == 0 {
		return account.ErrConcurrentModification{AccountID: id}
	}

	return nil
}

// LockForUpdate obtains a pessimistic lock on the account and returns its current state.
// This should be used within a transaction when strong consistency is required.
func (r *AccountRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`

	acc, err := scanAccount(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{AccountID: id}
		}
		r.logger.Error("Failed to lock account for update", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to lock account for update: %w", err)
	}

	return acc, nil
}
