package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/microfin-loan-office/internal/config"
	"github.com/microfin-loan-office/internal/domain/account"
	"github.com/microfin-loan-office/internal/domain/customer"
	"github.com/microfin-loan-office/internal/domain/loan"
	"github.com/microfin-loan-office/internal/domain/notification"
	"github.com/microfin-loan-office/internal/domain/outbox"
	"github.com/microfin-loan-office/internal/domain/repayment"
	"github.com/microfin-loan-office/internal/domain/shared"
	"github.com/microfin-loan-office/internal/domain/transaction"
)

// TxRunner executes a function inside a database transaction
type TxRunner interface {
	ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// runningStatuses are the lifecycle states in which a loan still occupies
// the customer's single borrowing slot.
var runningStatuses = []loan.Status{
	loan.StatusPending, loan.StatusApproved, loan.StatusDisbursed,
	loan.StatusActive, loan.StatusDue,
}

// LoanServiceImpl implements the LoanService interface
type LoanServiceImpl struct {
	logger        *slog.Logger
	db            TxRunner
	loanRepo      loan.Repository
	repaymentRepo repayment.Repository
	accountRepo   account.Repository
	customerRepo  customer.Repository
	outboxRepo    outbox.Repository
	trxRepo       transaction.Repository
	terms         config.LoanConfig
}

// NewLoanService creates a new loan lifecycle service
func NewLoanService(
	logger *slog.Logger,
	db TxRunner,
	loanRepo loan.Repository,
	repaymentRepo repayment.Repository,
	accountRepo account.Repository,
	customerRepo customer.Repository,
	outboxRepo outbox.Repository,
	trxRepo transaction.Repository,
	terms config.LoanConfig,
) LoanService {
	return &LoanServiceImpl{
		logger:        logger,
		db:            db,
		loanRepo:      loanRepo,
		repaymentRepo: repaymentRepo,
		accountRepo:   accountRepo,
		customerRepo:  customerRepo,
		outboxRepo:    outboxRepo,
		trxRepo:       trxRepo,
		terms:         terms,
	}
}

func (s *LoanServiceImpl) productTerms() loan.ProductTerms {
	return loan.ProductTerms{
		InterestRate:      decimal.NewFromFloat(s.terms.InterestRate),
		MonitoringFeeRate: decimal.NewFromFloat(s.terms.MonitoringFeeRate),
		ProcessingFeeRate: decimal.NewFromFloat(s.terms.ProcessingFeeRate),
	}
}

// Apply registers a new PENDING application. The customer must exist, hold
// no running loan, and have lodged collateral covering the required share of
// the requested principal.
func (s *LoanServiceImpl) Apply(ctx context.Context, input ApplyInput) (*loan.Application, error) {
	cust, err := s.customerRepo.GetByID(ctx, input.CustomerID)
	if err != nil {
		return nil, err
	}

	running, err := s.loanRepo.List(ctx, loan.ListFilter{
		CustomerID: cust.ID,
		Statuses:   runningStatuses,
		Limit:      1,
	})
	if err != nil {
		return nil, err
	}
	if len(running) > 0 {
		return nil, loan.ErrRunningLoanExists
	}

	required := loan.RequiredCollateral(input.Amount, decimal.NewFromFloat(s.terms.CollateralRate))
	collateral, err := s.accountRepo.GetByCustomerAndType(ctx, cust.ID, account.TypeCollateralDeposit)
	if err != nil {
		return nil, err
	}
	lodged := decimal.Zero
	if collateral != nil {
		lodged = collateral.Balance
	}
	if lodged.LessThan(required) {
		s.logger.Warn("Collateral below required minimum",
			"customer_id", cust.ID,
			"required", required.String(),
			"lodged", lodged.String(),
		)
		return nil, loan.ErrShortCollateral
	}

	app, err := loan.NewApplication(cust.ID, input.AppliedByID, input.Amount, input.AmountInWords, input.Tenor, s.productTerms(), lodged)
	if err != nil {
		return nil, err
	}

	if err := s.loanRepo.Create(ctx, app); err != nil {
		return nil, err
	}

	s.logger.Info("Loan application created",
		"application_id", app.ID,
		"customer_id", cust.ID,
		"amount", app.Amount.String(),
		"tenor", app.Tenor,
	)
	return app, nil
}

// GetByID retrieves a loan application
func (s *LoanServiceImpl) GetByID(ctx context.Context, id uuid.UUID) (*loan.Application, error) {
	return s.loanRepo.GetByID(ctx, id)
}

// List retrieves loan applications matching the filter
func (s *LoanServiceImpl) List(ctx context.Context, filter loan.ListFilter) ([]loan.Application, error) {
	return s.loanRepo.List(ctx, filter)
}

// PermittedActions reports what the role may do with the loan right now,
// with the approve-as-requested prefill for the approval form.
func (s *LoanServiceImpl) PermittedActions(ctx context.Context, id uuid.UUID, role loan.Role) ([]loan.Action, *loan.ApprovalInput, error) {
	app, err := s.loanRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	actions := loan.PermittedActions(app.Status, role)
	var prefill *loan.ApprovalInput
	for _, a := range actions {
		if a == loan.ActionApprove {
			d := loan.ApprovalDefaults(*app)
			prefill = &d
		}
	}
	return actions, prefill, nil
}

// Approve validates and fixes the approval terms. Approving above the
// requested amount is allowed but logged.
func (s *LoanServiceImpl) Approve(ctx context.Context, id uuid.UUID, actor Actor, input loan.ApprovalInput) (*loan.Application, error) {
	app, err := s.loanRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if _, err := loan.DecideApproval(*app, actor.Role, input); err != nil {
		return nil, err
	}

	if input.AmountApproved.GreaterThan(app.Amount) {
		s.logger.Warn("Approving above the requested amount",
			"application_id", app.ID,
			"requested", app.Amount.String(),
			"approved", input.AmountApproved.String(),
		)
	}

	updated, err := s.loanRepo.UpdateApproval(ctx, id, actor.ID, input)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Loan approved",
		"application_id", updated.ID,
		"approved_by", actor.ID,
		"amount_approved", updated.AmountApproved.String(),
		"tenor_approved", updated.TenorApproved,
	)
	return updated, nil
}

// Reject moves the loan to REJECTED and records the audit trail in the same
// transaction.
func (s *LoanServiceImpl) Reject(ctx context.Context, id uuid.UUID, actor Actor, input loan.RejectionInput) (*loan.Application, error) {
	app, err := s.loanRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	decision, err := loan.DecideRejection(*app, actor.Role, input)
	if err != nil {
		return nil, err
	}

	err = s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		loans := s.loanRepo.WithTx(tx)
		if err := loans.UpdateStatus(ctx, id, decision.Next, []loan.Status{decision.From}); err != nil {
			return err
		}
		return loans.CreateRejection(ctx, &loan.Rejection{
			ID:            uuid.New(),
			ApplicationID: id,
			Type:          input.Type,
			Reason:        input.Reason,
			RejectedByID:  actor.ID,
			RejectedAt:    time.Now(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Loan rejected",
		"application_id", id,
		"rejected_by", actor.ID,
		"rejection_type", string(input.Type),
	)
	return s.loanRepo.GetByID(ctx, id)
}

// Disburse pays the approved amount into the customer's savings account,
// opens the loan account carrying the total repayable, generates the weekly
// repayment schedule, and queues the disbursement alert through the outbox.
// The alert rides the same transaction as the credit, so it can neither
// block the posting nor outrun it.
func (s *LoanServiceImpl) Disburse(ctx context.Context, id uuid.UUID, actor Actor) (*loan.Application, error) {
	app, err := s.loanRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	decision, err := loan.DecideDisbursement(*app, actor.Role)
	if err != nil {
		return nil, err
	}

	cust, err := s.customerRepo.GetByID(ctx, app.CustomerID)
	if err != nil {
		return nil, err
	}

	var (
		disbursed    *loan.Application
		savingsAcc   *account.Account
		priorBalance decimal.Decimal
		now          = time.Now()
	)

	err = s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		loans := s.loanRepo.WithTx(tx)
		accounts := s.accountRepo.WithTx(tx)
		repayments := s.repaymentRepo.WithTx(tx)
		outboxMsgs := s.outboxRepo.WithTx(tx)

		if err := loans.UpdateStatus(ctx, id, decision.Next, []loan.Status{decision.From}); err != nil {
			return err
		}

		savings, err := accounts.GetByCustomerAndType(ctx, cust.ID, account.TypeSavings)
		if err != nil {
			return err
		}
		if savings == nil {
			savings, err = account.NewAccount(cust.ID, account.NewAccountNumber(), account.TypeSavings)
			if err != nil {
				return err
			}
			if err := accounts.Create(ctx, savings); err != nil {
				return err
			}
		}
		savings, err = accounts.LockForUpdate(ctx, savings.ID)
		if err != nil {
			return err
		}

		priorBalance = savings.Balance
		if err := savings.Credit(app.AmountApproved); err != nil {
			return err
		}
		if err := accounts.UpdateBalance(ctx, savings.ID, savings.Balance, savings.Version-1); err != nil {
			return err
		}
		savingsAcc = savings

		loanAcc, err := account.NewAccount(cust.ID, account.NewAccountNumber(), account.TypeLoan)
		if err != nil {
			return err
		}
		loanAcc.LoanID = &app.ID
		loanAcc.LoanCycle = cust.LoanCycle + 1
		loanAcc.Balance = app.TotalRepayable()
		if err := accounts.Create(ctx, loanAcc); err != nil {
			return err
		}

		schedule := repayment.BuildSchedule(app.ID, repayment.ScheduleTerms{
			Amount:            app.AmountApproved,
			TenorMonths:       app.TenorApproved,
			InterestRate:      app.Terms.InterestRate,
			MonitoringFeeRate: app.Terms.MonitoringFeeRate,
			ProcessingFeeRate: app.Terms.ProcessingFeeRate,
			PerMonth:          s.terms.InstallmentsPerMonth,
		}, now)
		if err := repayments.CreateSchedule(ctx, schedule); err != nil {
			return err
		}

		maturity := now.AddDate(0, app.TenorApproved, 0)
		disbursed, err = loans.MarkDisbursed(ctx, id, actor.ID, maturity)
		if err != nil {
			return err
		}

		s.queueAlert(ctx, outboxMsgs, func() (*notification.Alert, error) {
			return notification.NewDisbursementAlert(cust.ID, app.ID, cust.PhoneNumber, notification.TransactionDetails{
				AccountNumber: savings.AccountNumber,
				Amount:        app.AmountApproved,
				PriorBalance:  priorBalance,
				OccurredAt:    now,
			})
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordTransaction(ctx, savingsAcc, shared.TrxTypeLoanDisbursement, app.AmountApproved, "Loan disbursement", &app.ID)

	s.logger.Info("Loan disbursed",
		"application_id", id,
		"disbursed_by", actor.ID,
		"amount", app.AmountApproved.String(),
		"maturity", disbursed.Maturity,
	)
	return disbursed, nil
}

// Liquidate settles a running loan early. The payoff is the outstanding
// principal plus the charged months of interest, collected from savings in
// one transaction that also closes the schedule and the loan account.
func (s *LoanServiceImpl) Liquidate(ctx context.Context, id uuid.UUID, actor Actor, input loan.LiquidationInput) (*loan.Application, error) {
	app, err := s.loanRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	schedule, err := s.repaymentRepo.GetByApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(schedule) == 0 {
		return nil, repayment.ErrNoPendingInstallment{ApplicationID: id}
	}

	decision, err := loan.DecideLiquidation(*app, actor.Role, repayment.Charges(&schedule[0]), input)
	if err != nil {
		return nil, err
	}

	cust, err := s.customerRepo.GetByID(ctx, app.CustomerID)
	if err != nil {
		return nil, err
	}

	outstanding := decimal.Zero
	for i := range schedule {
		outstanding = outstanding.Add(schedule[i].RemainingPrincipal())
	}
	payoff := outstanding.Add(decision.Liquidation.InterestCharged)

	var (
		savingsAcc   *account.Account
		priorBalance decimal.Decimal
		now          = time.Now()
	)

	err = s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		loans := s.loanRepo.WithTx(tx)
		accounts := s.accountRepo.WithTx(tx)
		repayments := s.repaymentRepo.WithTx(tx)
		customers := s.customerRepo.WithTx(tx)
		outboxMsgs := s.outboxRepo.WithTx(tx)

		savings, err := accounts.GetByCustomerAndType(ctx, cust.ID, account.TypeSavings)
		if err != nil {
			return err
		}
		if savings == nil {
			return account.ErrInsufficientFunds
		}
		savings, err = accounts.LockForUpdate(ctx, savings.ID)
		if err != nil {
			return err
		}

		priorBalance = savings.Balance
		if err := savings.Debit(payoff); err != nil {
			return err
		}
		if err := accounts.UpdateBalance(ctx, savings.ID, savings.Balance, savings.Version-1); err != nil {
			return err
		}
		savingsAcc = savings

		if err := repayments.SettleAll(ctx, id, now); err != nil {
			return err
		}

		loanAcc, err := accounts.GetByLoan(ctx, id, account.TypeLoan)
		if err != nil {
			return err
		}
		if err := accounts.UpdateBalance(ctx, loanAcc.ID, decimal.Zero, loanAcc.Version); err != nil {
			return err
		}

		if err := loans.UpdateStatus(ctx, id, decision.Next, []loan.Status{loan.StatusActive, loan.StatusDue}); err != nil {
			return err
		}
		if err := loans.CreateLiquidation(ctx, &loan.Liquidation{
			ID:              uuid.New(),
			ApplicationID:   id,
			LoanAmount:      app.AmountApproved,
			Amount:          payoff,
			InterestCharged: decision.Liquidation.InterestCharged,
			MonthsCharged:   decision.Liquidation.MonthsCharged,
			Reason:          decision.Liquidation.Reason,
			LiquidatedByID:  actor.ID,
			LiquidatedAt:    now,
		}); err != nil {
			return err
		}

		if err := customers.IncrementLoanCycle(ctx, cust.ID); err != nil {
			return err
		}

		s.queueAlert(ctx, outboxMsgs, func() (*notification.Alert, error) {
			return notification.NewTransactionAlert(cust.ID, id, cust.PhoneNumber, notification.TransactionDetails{
				AccountNumber: savings.AccountNumber,
				TypeLabel:     shared.TrxTypeLoanLiquidation.Label(),
				Amount:        payoff.Neg(),
				PriorBalance:  priorBalance,
				OccurredAt:    now,
			})
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordTransaction(ctx, savingsAcc, shared.TrxTypeLoanLiquidation, payoff, "Loan liquidation", &app.ID)

	s.logger.Info("Loan liquidated",
		"application_id", id,
		"liquidated_by", actor.ID,
		"payoff", payoff.String(),
		"months_charged", decision.Liquidation.MonthsCharged,
	)
	return s.loanRepo.GetByID(ctx, id)
}

// GetSchedule returns the loan's repayment schedule
func (s *LoanServiceImpl) GetSchedule(ctx context.Context, id uuid.UUID) ([]repayment.Installment, error) {
	if _, err := s.loanRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repaymentRepo.GetByApplication(ctx, id)
}

// queueAlert builds and stores a customer alert in the outbox. Alert
// failures are logged, never propagated: delivery must not block a posting.
func (s *LoanServiceImpl) queueAlert(ctx context.Context, repo outbox.Repository, build func() (*notification.Alert, error)) {
	alert, err := build()
	if err != nil {
		s.logger.Warn("Skipping customer alert", "error", err)
		return
	}
	msg, err := outbox.NewMessage(alert)
	if err != nil {
		s.logger.Error("Failed to build outbox message for alert", "alert_id", alert.ID, "error", err)
		return
	}
	if err := repo.Create(ctx, msg); err != nil {
		s.logger.Error("Failed to queue customer alert", "alert_id", alert.ID, "error", err)
	}
}

// recordTransaction writes the movement to the transaction history. History
// writes are best-effort; failures are logged and the posting stands.
func (s *LoanServiceImpl) recordTransaction(ctx context.Context, acc *account.Account, trxType shared.TrxType, amount decimal.Decimal, description string, referenceID *uuid.UUID) {
	if acc == nil {
		return
	}
	trx := transaction.New(acc.ID, acc.CustomerID, trxType, amount, acc.Balance, description, referenceID)
	if err := s.trxRepo.Create(ctx, trx); err != nil {
		s.logger.Error("Failed to record transaction history",
			"account_id", acc.ID,
			"trx_type", string(trxType),
			"error", err,
		)
	}
}
