package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/microfin-loan-office/internal/domain/account"
	"github.com/microfin-loan-office/internal/domain/customer"
	"github.com/microfin-loan-office/internal/domain/loan"
	"github.com/microfin-loan-office/internal/domain/repayment"
	"github.com/microfin-loan-office/internal/domain/transaction"
)

// CustomerService defines the interface for customer operations
type CustomerService interface {
	// CreateCustomer registers a new customer and opens their savings account
	// Returns ErrDuplicatePhoneNumber if the phone number is already taken
	CreateCustomer(ctx context.Context, input CreateCustomerInput) (*customer.Customer, error)

	// GetCustomerByID retrieves a customer by ID
	// Returns ErrCustomerNotFound if the customer doesn't exist
	GetCustomerByID(ctx context.Context, id uuid.UUID) (*customer.Customer, error)

	// ListCustomers retrieves a paginated list of customers
	ListCustomers(ctx context.Context, page, perPage int) ([]customer.Customer, error)
}

// CreateCustomerInput carries the details of a customer registration
type CreateCustomerInput struct {
	FirstName   string
	LastName    string
	PhoneNumber string
	Email       string
	Address     string
	BVN         string
}

// AccountService defines the interface for account operations
type AccountService interface {
	// OpenAccount opens an account of the given type for a customer
	OpenAccount(ctx context.Context, customerID uuid.UUID, accountType account.Type) (*account.Account, error)

	// GetAccountByID retrieves an account by its ID
	// Returns ErrAccountNotFound if the account doesn't exist
	GetAccountByID(ctx context.Context, id uuid.UUID) (*account.Account, error)

	// ListAccountsByCustomer retrieves all accounts held by a customer
	ListAccountsByCustomer(ctx context.Context, customerID uuid.UUID) ([]account.Account, error)

	// Deposit credits an account and queues the customer alert
	Deposit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, description string) (*account.Account, error)

	// Withdraw debits an account and queues the customer alert
	// Returns ErrInsufficientFunds when the balance doesn't cover the amount
	Withdraw(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, description string) (*account.Account, error)
}

// LoanService drives the loan application lifecycle
type LoanService interface {
	// Apply registers a new PENDING application after checking the customer
	// has no running loan and has lodged sufficient collateral
	Apply(ctx context.Context, input ApplyInput) (*loan.Application, error)

	// GetByID retrieves a loan application
	GetByID(ctx context.Context, id uuid.UUID) (*loan.Application, error)

	// List retrieves loan applications matching the filter
	List(ctx context.Context, filter loan.ListFilter) ([]loan.Application, error)

	// PermittedActions returns the lifecycle actions the role may take on the
	// loan in its current status, with approve-as-requested prefill terms
	PermittedActions(ctx context.Context, id uuid.UUID, role loan.Role) ([]loan.Action, *loan.ApprovalInput, error)

	// Approve fixes the approval terms and moves the loan to APPROVED
	Approve(ctx context.Context, id uuid.UUID, actor Actor, input loan.ApprovalInput) (*loan.Application, error)

	// Reject moves the loan to REJECTED and records the audit trail
	Reject(ctx context.Context, id uuid.UUID, actor Actor, input loan.RejectionInput) (*loan.Application, error)

	// Disburse pays the approved amount into the customer's savings account,
	// opens the loan account, generates the repayment schedule, and queues
	// the disbursement alert
	Disburse(ctx context.Context, id uuid.UUID, actor Actor) (*loan.Application, error)

	// Liquidate settles a running loan early: outstanding principal plus the
	// charged months of interest are collected from savings and the schedule
	// is closed out
	Liquidate(ctx context.Context, id uuid.UUID, actor Actor, input loan.LiquidationInput) (*loan.Application, error)

	// GetSchedule returns the loan's repayment schedule
	GetSchedule(ctx context.Context, id uuid.UUID) ([]repayment.Installment, error)
}

// Actor identifies the user performing a lifecycle action
type Actor struct {
	ID   uuid.UUID
	Role loan.Role
}

// ApplyInput carries a loan application request
type ApplyInput struct {
	CustomerID    uuid.UUID
	AppliedByID   uuid.UUID
	Amount        decimal.Decimal
	AmountInWords string
	Tenor         int
}

// TransactionService defines the interface for transaction history queries
type TransactionService interface {
	// GetTransactionByID retrieves a transaction by its ID
	// Returns nil if the transaction is not found
	GetTransactionByID(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error)

	// GetTransactionsByAccountID retrieves paginated transactions for an account
	// Returns transactions, total count, and any error
	GetTransactionsByAccountID(ctx context.Context, accountID uuid.UUID, page, perPage int) ([]*transaction.Transaction, int64, error)
}
