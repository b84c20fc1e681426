package poller

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

// collectibleStatuses are the lifecycle states a running loan is swept in.
var collectibleStatuses = []loan.Status{loan.StatusActive, loan.StatusDue}

// Sweeper periodically collects matured installments of running loans from
// the customers' savings balances. Each loan is settled in its own database
// transaction so one failing loan does not hold up the batch.
type Sweeper struct {
	logger        *slog.Logger
	db            TxRunner
	loanRepo      loan.Repository
	repaymentRepo repayment.Repository
	accountRepo   account.Repository
	customerRepo  customer.Repository
	outboxRepo    outbox.Repository
	trxRepo       transaction.Repository
	sweepInterval time.Duration
	batchSize     int
	defaultAfter  time.Duration
}

func NewSweeper(
	cfg *config.CollectionConfig,
	db TxRunner,
	loanRepo loan.Repository,
	repaymentRepo repayment.Repository,
	accountRepo account.Repository,
	customerRepo customer.Repository,
	outboxRepo outbox.Repository,
	trxRepo transaction.Repository,
	logger *slog.Logger,
) *Sweeper {
	return &Sweeper{
		logger:        logger,
		db:            db,
		loanRepo:      loanRepo,
		repaymentRepo: repaymentRepo,
		accountRepo:   accountRepo,
		customerRepo:  customerRepo,
		outboxRepo:    outboxRepo,
		trxRepo:       trxRepo,
		sweepInterval: cfg.SweepInterval,
		batchSize:     cfg.BatchSize,
		defaultAfter:  cfg.DefaultAfter,
	}
}

// Start runs collection sweeps until the context is canceled
func (s *Sweeper) Start(ctx context.Context) {
	s.logger.Info("Starting Collection Sweeper",
		"sweep_interval", s.sweepInterval.String(),
		"batch_size", s.batchSize,
		"default_after", s.defaultAfter.String(),
	)
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Collection Sweeper stopping due to context cancellation.")
			return
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				s.logger.Error("Error during collection sweep", "error", err)
			}
		}
	}
}

// Sweep collects one batch of running loans
func (s *Sweeper) Sweep(ctx context.Context) error {
	loans, err := s.loanRepo.List(ctx, loan.ListFilter{
		Statuses: collectibleStatuses,
		Limit:    int32(s.batchSize),
	})
	if err != nil {
		return err
	}
	if len(loans) == 0 {
		s.logger.Debug("No running loans to collect.")
		return nil
	}

	s.logger.Info("Sweeping running loans", "count", len(loans))
	for i := range loans {
		if err := s.collectLoan(ctx, &loans[i]); err != nil {
			s.logger.Error("Failed to collect loan",
				"application_id", loans[i].ID,
				"customer_id", loans[i].CustomerID,
				"error", err,
			)
		}
	}
	return nil
}

// collectLoan settles the matured installments of a single loan from the
// customer's savings, interest and fees before principal. The loan moves to
// DUE when a matured installment stays unpaid, to DEFAULT once the oldest
// unpaid installment ages past the configured cutoff, and to PAID_OFF when
// the schedule clears.
func (s *Sweeper) collectLoan(ctx context.Context, app *loan.Application) error {
	cust, err := s.customerRepo.GetByID(ctx, app.CustomerID)
	if err != nil {
		return err
	}

	var (
		savingsAcc   *account.Account
		collected    decimal.Decimal
		priorBalance decimal.Decimal
		now          = time.Now()
	)

	err = s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		loans := s.loanRepo.WithTx(tx)
		accounts := s.accountRepo.WithTx(tx)
		repayments := s.repaymentRepo.WithTx(tx)
		customers := s.customerRepo.WithTx(tx)
		outboxMsgs := s.outboxRepo.WithTx(tx)

		schedule, err := repayments.GetByApplication(ctx, app.ID)
		if err != nil {
			return err
		}
		if len(schedule) == 0 {
			s.logger.Warn("Running loan has no repayment schedule, skipping", "application_id", app.ID)
			return nil
		}

		savings, err := accounts.GetByCustomerAndType(ctx, cust.ID, account.TypeSavings)
		if err != nil {
			return err
		}

		available := decimal.Zero
		if savings != nil {
			savings, err = accounts.LockForUpdate(ctx, savings.ID)
			if err != nil {
				return err
			}
			priorBalance = savings.Balance
			available = savings.Balance
		}

		collected = decimal.Zero
		var oldestUnpaid *repayment.Installment
		for i := range schedule {
			inst := &schedule[i]
			if !inst.MaturityDate.Before(now) || !inst.TotalDue.IsPositive() {
				continue
			}
			paid := inst.ApplyPayment(available, now)
			if paid.IsPositive() {
				available = available.Sub(paid)
				collected = collected.Add(paid)
			}
			if inst.TotalDue.IsPositive() {
				inst.MarkDefaulted(int64(now.Sub(inst.MaturityDate).Hours() / 24))
				if oldestUnpaid == nil {
					oldestUnpaid = inst
				}
			}
			if err := repayments.Update(ctx, inst); err != nil {
				return err
			}
		}

		if collected.IsPositive() {
			if err := savings.Debit(collected); err != nil {
				return err
			}
			if err := accounts.UpdateBalance(ctx, savings.ID, savings.Balance, savings.Version-1); err != nil {
				return err
			}
			savingsAcc = savings

			loanAcc, err := accounts.GetByLoan(ctx, app.ID, account.TypeLoan)
			if err != nil {
				return err
			}
			if err := accounts.UpdateBalance(ctx, loanAcc.ID, loanAcc.Balance.Sub(collected), loanAcc.Version); err != nil {
				return err
			}

			s.queueAlert(ctx, outboxMsgs, func() (*notification.Alert, error) {
				return notification.NewTransactionAlert(cust.ID, app.ID, cust.PhoneNumber, notification.TransactionDetails{
					AccountNumber: savings.AccountNumber,
					TypeLabel:     shared.TrxTypeLoanRepayment.Label(),
					Amount:        collected.Neg(),
					PriorBalance:  priorBalance,
					OccurredAt:    now,
				})
			})
		}

		if !repayment.OutstandingBalance(schedule).IsPositive() {
			if err := loans.UpdateStatus(ctx, app.ID, loan.StatusPaidOff, collectibleStatuses); err != nil {
				return err
			}
			return customers.IncrementLoanCycle(ctx, cust.ID)
		}

		if oldestUnpaid == nil {
			// Collections are caught up; recover a previously overdue loan.
			if app.Status == loan.StatusDue {
				return loans.UpdateStatus(ctx, app.ID, loan.StatusActive, []loan.Status{loan.StatusDue})
			}
			return nil
		}

		overdueFor := now.Sub(oldestUnpaid.MaturityDate)
		daysOverdue := int64(overdueFor.Hours() / 24)
		if overdueFor >= s.defaultAfter {
			if err := loans.UpdateStatus(ctx, app.ID, loan.StatusDefault, collectibleStatuses); err != nil {
				return err
			}
			s.logger.Warn("Loan marked as DEFAULT",
				"application_id", app.ID,
				"customer_id", cust.ID,
				"days_overdue", daysOverdue,
			)
			return nil
		}
		return loans.MarkOverdue(ctx, app.ID, daysOverdue)
	})
	if err != nil {
		return err
	}

	if collected.IsPositive() {
		s.recordTransaction(ctx, savingsAcc, collected, &app.ID)
		s.logger.Info("Collected loan repayment",
			"application_id", app.ID,
			"customer_id", cust.ID,
			"amount", collected.String(),
		)
	}
	return nil
}

// queueAlert stores a repayment alert in the outbox. Alert failures are
// logged, never propagated: delivery must not block a collection.
func (s *Sweeper) queueAlert(ctx context.Context, repo outbox.Repository, build func() (*notification.Alert, error)) {
	alert, err := build()
	if err != nil {
		s.logger.Warn("Skipping repayment alert", "error", err)
		return
	}
	msg, err := outbox.NewMessage(alert)
	if err != nil {
		s.logger.Error("Failed to build outbox message for alert", "alert_id", alert.ID, "error", err)
		return
	}
	if err := repo.Create(ctx, msg); err != nil {
		s.logger.Error("Failed to queue repayment alert", "alert_id", alert.ID, "error", err)
	}
}

// recordTransaction writes the savings debit to the transaction history.
// History writes are best-effort; failures are logged and the posting stands.
func (s *Sweeper) recordTransaction(ctx context.Context, acc *account.Account, amount decimal.Decimal, referenceID *uuid.UUID) {
	if acc == nil {
		return
	}
	trx := transaction.New(acc.ID, acc.CustomerID, shared.TrxTypeLoanRepayment, amount, acc.Balance, "Installment collection", referenceID)
	if err := s.trxRepo.Create(ctx, trx); err != nil {
		s.logger.Error("Failed to record transaction history",
			"account_id", acc.ID,
			"trx_type", string(shared.TrxTypeLoanRepayment),
			"error", err,
		)
	}
}
