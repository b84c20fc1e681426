package poller

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

type MockOutboxRepo struct {
	mock.Mock
}

func (m *MockOutboxRepo) Create(ctx context.Context, message *outbox.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockOutboxRepo) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepo) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockOutboxRepo) IncrementAttempts(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepo) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepo) GetByAlertID(ctx context.Context, alertID uuid.UUID) (*outbox.Message, error) {
	args := m.Called(ctx, alertID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepo) WithTx(tx pgx.Tx) outbox.Repository {
	return m
}

type MockMessagePublisher struct {
	mock.Mock
}

func (m *MockMessagePublisher) Publish(ctx context.Context, key string, value interface{}) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockMessagePublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockAlertPublisher struct {
	mock.Mock
}

func (m *MockAlertPublisher) PublishAlert(ctx context.Context, message *outbox.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

type MockLoanRepo struct {
	mock.Mock
}

func (m *MockLoanRepo) Create(ctx context.Context, app *loan.Application) error {
	args := m.Called(ctx, app)
	return args.Error(0)
}

func (m *MockLoanRepo) GetByID(ctx context.Context, id uuid.UUID) (*loan.Application, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*loan.Application), args.Error(1)
}

func (m *MockLoanRepo) List(ctx context.Context, f loan.ListFilter) ([]loan.Application, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]loan.Application), args.Error(1)
}

func (m *MockLoanRepo) UpdateApproval(ctx context.Context, id uuid.UUID, approvedBy uuid.UUID, in loan.ApprovalInput) (*loan.Application, error) {
	args := m.Called(ctx, id, approvedBy, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*loan.Application), args.Error(1)
}

func (m *MockLoanRepo) UpdateStatus(ctx context.Context, id uuid.UUID, next loan.Status, expected []loan.Status) error {
	args := m.Called(ctx, id, next, expected)
	return args.Error(0)
}

func (m *MockLoanRepo) MarkDisbursed(ctx context.Context, id uuid.UUID, disbursedBy uuid.UUID, maturity time.Time) (*loan.Application, error) {
	args := m.Called(ctx, id, disbursedBy, maturity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*loan.Application), args.Error(1)
}

func (m *MockLoanRepo) MarkOverdue(ctx context.Context, id uuid.UUID, daysOverdue int64) error {
	args := m.Called(ctx, id, daysOverdue)
	return args.Error(0)
}

func (m *MockLoanRepo) CreateRejection(ctx context.Context, rejection *loan.Rejection) error {
	args := m.Called(ctx, rejection)
	return args.Error(0)
}

func (m *MockLoanRepo) CreateLiquidation(ctx context.Context, liquidation *loan.Liquidation) error {
	args := m.Called(ctx, liquidation)
	return args.Error(0)
}

func (m *MockLoanRepo) WithTx(tx pgx.Tx) loan.Repository {
	return m
}

type MockRepaymentRepo struct {
	mock.Mock
}

func (m *MockRepaymentRepo) CreateSchedule(ctx context.Context, installments []repayment.Installment) error {
	args := m.Called(ctx, installments)
	return args.Error(0)
}

func (m *MockRepaymentRepo) GetByApplication(ctx context.Context, applicationID uuid.UUID) ([]repayment.Installment, error) {
	args := m.Called(ctx, applicationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repayment.Installment), args.Error(1)
}

func (m *MockRepaymentRepo) FirstPending(ctx context.Context, applicationID uuid.UUID) (*repayment.Installment, error) {
	args := m.Called(ctx, applicationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repayment.Installment), args.Error(1)
}

func (m *MockRepaymentRepo) Update(ctx context.Context, installment *repayment.Installment) error {
	args := m.Called(ctx, installment)
	return args.Error(0)
}

func (m *MockRepaymentRepo) SettleAll(ctx context.Context, applicationID uuid.UUID, paymentDate time.Time) error {
	args := m.Called(ctx, applicationID, paymentDate)
	return args.Error(0)
}

func (m *MockRepaymentRepo) WithTx(tx pgx.Tx) repayment.Repository {
	return m
}

type MockAccountRepo struct {
	mock.Mock
}

func (m *MockAccountRepo) Create(ctx context.Context, acc *account.Account) error {
	args := m.Called(ctx, acc)
	return args.Error(0)
}

func (m *MockAccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepo) GetByNumber(ctx context.Context, accountNumber string) (*account.Account, error) {
	args := m.Called(ctx, accountNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepo) GetByCustomerAndType(ctx context.Context, customerID uuid.UUID, accountType account.Type) (*account.Account, error) {
	args := m.Called(ctx, customerID, accountType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepo) GetByLoan(ctx context.Context, loanID uuid.UUID, accountType account.Type) (*account.Account, error) {
	args := m.Called(ctx, loanID, accountType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepo) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]account.Account, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]account.Account), args.Error(1)
}

func (m *MockAccountRepo) Update(ctx context.Context, acc *account.Account) error {
	args := m.Called(ctx, acc)
	return args.Error(0)
}

func (m *MockAccountRepo) UpdateBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal, version int) error {
	args := m.Called(ctx, id, balance, version)
	return args.Error(0)
}

func (m *MockAccountRepo) LockForUpdate(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepo) WithTx(tx pgx.Tx) account.Repository {
	return m
}

type MockCustomerRepo struct {
	mock.Mock
}

func (m *MockCustomerRepo) Create(ctx context.Context, cust *customer.Customer) error {
	args := m.Called(ctx, cust)
	return args.Error(0)
}

func (m *MockCustomerRepo) GetByID(ctx context.Context, id uuid.UUID) (*customer.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *MockCustomerRepo) GetByPhoneNumber(ctx context.Context, phoneNumber string) (*customer.Customer, error) {
	args := m.Called(ctx, phoneNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *MockCustomerRepo) Update(ctx context.Context, cust *customer.Customer) error {
	args := m.Called(ctx, cust)
	return args.Error(0)
}

func (m *MockCustomerRepo) List(ctx context.Context, limit, offset int) ([]customer.Customer, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]customer.Customer), args.Error(1)
}

func (m *MockCustomerRepo) IncrementLoanCycle(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCustomerRepo) WithTx(tx pgx.Tx) customer.Repository {
	return m
}

type MockTransactionRepo struct {
	mock.Mock
}

func (m *MockTransactionRepo) Create(ctx context.Context, trx *transaction.Transaction) error {
	args := m.Called(ctx, trx)
	return args.Error(0)
}

func (m *MockTransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

func (m *MockTransactionRepo) GetByTrxNo(ctx context.Context, trxNo string) (*transaction.Transaction, error) {
	args := m.Called(ctx, trxNo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

func (m *MockTransactionRepo) GetByAccountID(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*transaction.Transaction, error) {
	args := m.Called(ctx, accountID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*transaction.Transaction), args.Error(1)
}

func (m *MockTransactionRepo) CountByAccountID(ctx context.Context, accountID uuid.UUID) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTransactionRepo) GetByTimeRange(ctx context.Context, startTime, endTime time.Time, limit, offset int) ([]*transaction.Transaction, error) {
	args := m.Called(ctx, startTime, endTime, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*transaction.Transaction), args.Error(1)
}

var (
	_ TxRunner               = stubTxRunner{}
	_ outbox.Repository      = (*MockOutboxRepo)(nil)
	_ AlertPublisher         = (*MockAlertPublisher)(nil)
	_ loan.Repository        = (*MockLoanRepo)(nil)
	_ repayment.Repository   = (*MockRepaymentRepo)(nil)
	_ account.Repository     = (*MockAccountRepo)(nil)
	_ customer.Repository    = (*MockCustomerRepo)(nil)
	_ transaction.Repository = (*MockTransactionRepo)(nil)
)
