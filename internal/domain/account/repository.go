package account

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Repository defines account persistence operations
type Repository interface {
	Create(ctx context.Context, account *Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	GetByNumber(ctx context.Context, accountNumber string) (*Account, error)
	GetByCustomerAndType(ctx context.Context, customerID uuid.UUID, accountType Type) (*Account, error)
	GetByLoan(ctx context.Context, loanID uuid.UUID, accountType Type) (*Account, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]Account, error)
	Update(ctx context.Context, account *Account) error

	// UpdateBalance uses optimistic locking to update account balance
	UpdateBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal, version int) error

	// LockForUpdate acquires a pessimistic lock for balance movements
	LockForUpdate(ctx context.Context, id uuid.UUID) (*Account, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrConcurrentModification indicates optimistic lock failure
type ErrConcurrentModification struct {
	AccountID uuid.UUID
}

func (e ErrConcurrentModification) Error() string {
	return "concurrent modification detected for account: " + e.AccountID.String()
}

// ErrAccountNotFound indicates missing account
type ErrAccountNotFound struct {
	AccountID uuid.UUID
}

func (e ErrAccountNotFound) Error() string {
	return "account not found: " + e.AccountID.String()
}

// ErrDuplicateAccountNumber indicates account number uniqueness violation
type ErrDuplicateAccountNumber struct {
	AccountNumber string
}

func (e ErrDuplicateAccountNumber) Error() string {
	return "account number already exists: " + e.AccountNumber
}
