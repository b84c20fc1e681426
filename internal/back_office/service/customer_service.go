package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/microfin-loan-office/internal/domain/account"
	"github.com/microfin-loan-office/internal/domain/customer"
)

// CustomerServiceImpl implements the CustomerService interface
type CustomerServiceImpl struct {
	logger       *slog.Logger
	db           TxRunner
	customerRepo customer.Repository
	accountRepo  account.Repository
}

// NewCustomerService creates a new customer service
func NewCustomerService(logger *slog.Logger, db TxRunner, customerRepo customer.Repository, accountRepo account.Repository) CustomerService {
	return &CustomerServiceImpl{
		logger:       logger,
		db:           db,
		customerRepo: customerRepo,
		accountRepo:  accountRepo,
	}
}

// CreateCustomer registers a new customer and opens their savings account in
// one transaction. Returns ErrDuplicatePhoneNumber if the number is taken.
func (s *CustomerServiceImpl) CreateCustomer(ctx context.Context, input CreateCustomerInput) (*customer.Customer, error) {
	existing, err := s.customerRepo.GetByPhoneNumber(ctx, input.PhoneNumber)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, customer.ErrDuplicatePhoneNumber{PhoneNumber: input.PhoneNumber}
	}

	cust, err := customer.NewCustomer(input.FirstName, input.LastName, input.PhoneNumber, input.Email, input.Address, input.BVN)
	if err != nil {
		return nil, err
	}

	savings, err := account.NewAccount(cust.ID, account.NewAccountNumber(), account.TypeSavings)
	if err != nil {
		return nil, err
	}

	err = s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		if err := s.customerRepo.WithTx(tx).Create(ctx, cust); err != nil {
			return err
		}
		return s.accountRepo.WithTx(tx).Create(ctx, savings)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Customer registered",
		"customer_id", cust.ID,
		"savings_account", savings.AccountNumber,
	)
	return cust, nil
}

// GetCustomerByID retrieves a customer by ID
func (s *CustomerServiceImpl) GetCustomerByID(ctx context.Context, id uuid.UUID) (*customer.Customer, error) {
	return s.customerRepo.GetByID(ctx, id)
}

// ListCustomers retrieves a paginated list of customers
func (s *CustomerServiceImpl) ListCustomers(ctx context.Context, page, perPage int) ([]customer.Customer, error) {
	offset := (page - 1) * perPage
	return s.customerRepo.List(ctx, perPage, offset)
}
