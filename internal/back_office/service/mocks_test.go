package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/microfin-loan-office/internal/domain/account"
	"github.com/microfin-loan-office/internal/domain/customer"
	"github.com/microfin-loan-office/internal/domain/loan"
	"github.com/microfin-loan-office/internal/domain/outbox"
	"github.com/microfin-loan-office/internal/domain/repayment"
	"github.com/microfin-loan-office/internal/domain/shared"
	"github.com/microfin-loan-office/internal/domain/transaction"
)

// stubTxRunner executes the transactional closure directly with a nil tx;
// mock repositories return themselves from WithTx, so the closure exercises
// the same expectations as direct calls.
type stubTxRunner struct{}

func (stubTxRunner) ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

type MockLoanRepository struct {
	mock.Mock
}

func (m *MockLoanRepository) Create(ctx context.Context, app *loan.Application) error {
	args := m.Called(ctx, app)
	return args.Error(0)
}

func (m *MockLoanRepository) GetByID(ctx context.Context, id uuid.UUID) (*loan.Application, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*loan.Application), args.Error(1)
}

func (m *MockLoanRepository) List(ctx context.Context, f loan.ListFilter) ([]loan.Application, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]loan.Application), args.Error(1)
}

func (m *MockLoanRepository) UpdateApproval(ctx context.Context, id uuid.UUID, approvedBy uuid.UUID, in loan.ApprovalInput) (*loan.Application, error) {
	args := m.Called(ctx, id, approvedBy, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*loan.Application), args.Error(1)
}

func (m *MockLoanRepository) UpdateStatus(ctx context.Context, id uuid.UUID, next loan.Status, expected []loan.Status) error {
	args := m.Called(ctx, id, next, expected)
	return args.Error(0)
}

func (m *MockLoanRepository) MarkDisbursed(ctx context.Context, id uuid.UUID, disbursedBy uuid.UUID, maturity time.Time) (*loan.Application, error) {
	args := m.Called(ctx, id, disbursedBy, maturity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*loan.Application), args.Error(1)
}

func (m *MockLoanRepository) MarkOverdue(ctx context.Context, id uuid.UUID, daysOverdue int64) error {
	args := m.Called(ctx, id, daysOverdue)
	return args.Error(0)
}

func (m *MockLoanRepository) CreateRejection(ctx context.Context, rejection *loan.Rejection) error {
	args := m.Called(ctx, rejection)
	return args.Error(0)
}

func (m *MockLoanRepository) CreateLiquidation(ctx context.Context, liquidation *loan.Liquidation) error {
	args := m.Called(ctx, liquidation)
	return args.Error(0)
}

func (m *MockLoanRepository) WithTx(tx pgx.Tx) loan.Repository {
	return m
}

type MockRepaymentRepository struct {
	mock.Mock
}

func (m *MockRepaymentRepository) CreateSchedule(ctx context.Context, installments []repayment.Installment) error {
	args := m.Called(ctx, installments)
	return args.Error(0)
}

func (m *MockRepaymentRepository) GetByApplication(ctx context.Context, applicationID uuid.UUID) ([]repayment.Installment, error) {
	args := m.Called(ctx, applicationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repayment.Installment), args.Error(1)
}

func (m *MockRepaymentRepository) FirstPending(ctx context.Context, applicationID uuid.UUID) (*repayment.Installment, error) {
	args := m.Called(ctx, applicationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repayment.Installment), args.Error(1)
}

func (m *MockRepaymentRepository) Update(ctx context.Context, installment *repayment.Installment) error {
	args := m.Called(ctx, installment)
	return args.Error(0)
}

func (m *MockRepaymentRepository) SettleAll(ctx context.Context, applicationID uuid.UUID, paymentDate time.Time) error {
	args := m.Called(ctx, applicationID, paymentDate)
	return args.Error(0)
}

func (m *MockRepaymentRepository) WithTx(tx pgx.Tx) repayment.Repository {
	return m
}

type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) Create(ctx context.Context, acc *account.Account) error {
	args := m.Called(ctx, acc)
	return args.Error(0)
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepository) GetByNumber(ctx context.Context, accountNumber string) (*account.Account, error) {
	args := m.Called(ctx, accountNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepository) GetByCustomerAndType(ctx context.Context, customerID uuid.UUID, accountType account.Type) (*account.Account, error) {
	args := m.Called(ctx, customerID, accountType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepository) GetByLoan(ctx context.Context, loanID uuid.UUID, accountType account.Type) (*account.Account, error) {
	args := m.Called(ctx, loanID, accountType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]account.Account, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]account.Account), args.Error(1)
}

func (m *MockAccountRepository) Update(ctx context.Context, acc *account.Account) error {
	args := m.Called(ctx, acc)
	return args.Error(0)
}

func (m *MockAccountRepository) UpdateBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal, version int) error {
	args := m.Called(ctx, id, balance, version)
	return args.Error(0)
}

func (m *MockAccountRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepository) WithTx(tx pgx.Tx) account.Repository {
	return m
}

type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) Create(ctx context.Context, cust *customer.Customer) error {
	args := m.Called(ctx, cust)
	return args.Error(0)
}

func (m *MockCustomerRepository) GetByID(ctx context.Context, id uuid.UUID) (*customer.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *MockCustomerRepository) GetByPhoneNumber(ctx context.Context, phoneNumber string) (*customer.Customer, error) {
	args := m.Called(ctx, phoneNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *MockCustomerRepository) Update(ctx context.Context, cust *customer.Customer) error {
	args := m.Called(ctx, cust)
	return args.Error(0)
}

func (m *MockCustomerRepository) List(ctx context.Context, limit, offset int) ([]customer.Customer, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]customer.Customer), args.Error(1)
}

func (m *MockCustomerRepository) IncrementLoanCycle(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCustomerRepository) WithTx(tx pgx.Tx) customer.Repository {
	return m
}

type MockOutboxRepository struct {
	mock.Mock
}

func (m *MockOutboxRepository) Create(ctx context.Context, message *outbox.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockOutboxRepository) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepository) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockOutboxRepository) IncrementAttempts(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepository) GetByAlertID(ctx context.Context, alertID uuid.UUID) (*outbox.Message, error) {
	args := m.Called(ctx, alertID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepository) WithTx(tx pgx.Tx) outbox.Repository {
	return m
}

type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, trx *transaction.Transaction) error {
	args := m.Called(ctx, trx)
	return args.Error(0)
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) GetByTrxNo(ctx context.Context, trxNo string) (*transaction.Transaction, error) {
	args := m.Called(ctx, trxNo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) GetByAccountID(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*transaction.Transaction, error) {
	args := m.Called(ctx, accountID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*transaction.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) CountByAccountID(ctx context.Context, accountID uuid.UUID) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTransactionRepository) GetByTimeRange(ctx context.Context, startTime, endTime time.Time, limit, offset int) ([]*transaction.Transaction, error) {
	args := m.Called(ctx, startTime, endTime, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*transaction.Transaction), args.Error(1)
}

// Verify interface implementations
var (
	_ loan.Repository        = (*MockLoanRepository)(nil)
	_ repayment.Repository   = (*MockRepaymentRepository)(nil)
	_ account.Repository     = (*MockAccountRepository)(nil)
	_ customer.Repository    = (*MockCustomerRepository)(nil)
	_ outbox.Repository      = (*MockOutboxRepository)(nil)
	_ transaction.Repository = (*MockTransactionRepository)(nil)
	_ TxRunner               = stubTxRunner{}
)
