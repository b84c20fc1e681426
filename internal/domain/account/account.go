package account

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Common errors
var (
	ErrInsufficientFunds = errors.New("insufficient funds for debit")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrMissingCustomer   = errors.New("account must belong to a customer")
	ErrAccountClosed     = errors.New("account is closed")
	ErrInvalidType       = errors.New("unknown account type")
)

// Type classifies what an account balance represents
type Type string

const (
	TypeSavings           Type = "SAVINGS"
	TypeLoan              Type = "LOAN"
	TypeCollateralDeposit Type = "COLLATERAL_DEPOSIT"
)

// Status of an account
type Status string

const (
	StatusActive Status = "ACTIVE"
	StatusClosed Status = "CLOSED"
)

// Account represents a customer ledger account. A customer holds one savings
// account, and one loan plus one collateral account per borrowing round.
type Account struct {
	ID            uuid.UUID       `json:"id"`
	AccountNumber string          `json:"account_number"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	Type          Type            `json:"type"`
	Status        Status          `json:"status"`
	Balance       decimal.Decimal `json:"balance"`
	LoanID        *uuid.UUID      `json:"loan_id,omitempty"`
	LoanCycle     int             `json:"loan_cycle"`
	Version       int             `json:"version"` // For optimistic locking
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// NewAccount creates a new account for the given customer
func NewAccount(customerID uuid.UUID, accountNumber string, accountType Type) (*Account, error) {
	if customerID == uuid.Nil {
		return nil, ErrMissingCustomer
	}
	switch accountType {
	case TypeSavings, TypeLoan, TypeCollateralDeposit:
	default:
		return nil, ErrInvalidType
	}

	now := time.Now()
	return &Account{
		ID:            uuid.New(),
		AccountNumber: accountNumber,
		CustomerID:    customerID,
		Type:          accountType,
		Status:        StatusActive,
		Balance:       decimal.Zero,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Credit adds the specified amount to the account balance
func (a *Account) Credit(amount decimal.Decimal) error {
	if a.Status != StatusActive {
		return ErrAccountClosed
	}
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	a.Balance = a.Balance.Add(amount)
	a.UpdatedAt = time.Now()
	a.Version++
	return nil
}

// Debit subtracts the specified amount from the account balance
func (a *Account) Debit(amount decimal.Decimal) error {
	if a.Status != StatusActive {
		return ErrAccountClosed
	}
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if a.Balance.LessThan(amount) {
		return ErrInsufficientFunds
	}

	a.Balance = a.Balance.Sub(amount)
	a.UpdatedAt = time.Now()
	a.Version++
	return nil
}

// CanDebit checks if the account covers the requested amount
func (a *Account) CanDebit(amount decimal.Decimal) bool {
	return a.Status == StatusActive && a.Balance.GreaterThanOrEqual(amount)
}
