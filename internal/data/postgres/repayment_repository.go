package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/microfin-loan-office/internal/domain/repayment"
	"github.com/microfin-loan-office/internal/platform/persistence"
)

// RepaymentRepository implements the repayment.Repository interface for PostgreSQL
type RepaymentRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewRepaymentRepository creates a new PostgreSQL repayment repository
func NewRepaymentRepository(logger *slog.Logger, db *persistence.PostgresDB) repayment.Repository {
	return &RepaymentRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction for atomic operations
func (r *RepaymentRepository) WithTx(tx pgx.Tx) repayment.Repository {
	return &RepaymentRepository{
		querier: tx,
		logger:  r.logger,
	}
}

const repaymentColumns = `id, application_id, interest::text, monitoring_fee::text,
	processing_fee::text, principal::text, total::text, total_paid::text,
	total_due::text, total_interest_paid::text, status, maturity_date,
	payment_date, days_overdue`

func scanInstallment(row pgx.Row) (*repayment.Installment, error) {
	var inst repayment.Installment
	var interest, monitoring, processing, principal, total, totalPaid, totalDue, totalInterestPaid string
	err := row.Scan(
		&inst.ID,
		&inst.ApplicationID,
		&interest,
		&monitoring,
		&processing,
		&principal,
		&total,
		&totalPaid,
		&totalDue,
		&totalInterestPaid,
		&inst.Status,
		&inst.MaturityDate,
		&inst.PaymentDate,
		&inst.DaysOverdue,
	)
	if err != nil {
		return nil, err
	}

	fields := []struct {
		dst *decimal.Decimal
		src string
	}{
		{&inst.Interest, interest},
		{&inst.MonitoringFee, monitoring},
		{&inst.ProcessingFee, processing},
		{&inst.Principal, principal},
		{&inst.Total, total},
		{&inst.TotalPaid, totalPaid},
		{&inst.TotalDue, totalDue},
		{&inst.TotalInterestPaid, totalInterestPaid},
	}
	for _, f := range fields {
		*f.dst, err = decimal.NewFromString(f.src)
		if err != nil {
			return nil, fmt.Errorf("failed to parse installment amount column: %w", err)
		}
	}

	return &inst, nil
}

// CreateSchedule persists all installments of a freshly disbursed loan in a
// single batch
func (r *RepaymentRepository) CreateSchedule(ctx context.Context, installments []repayment.Installment) error {
	if len(installments) == 0 {
		return nil
	}

	query := `
		INSERT INTO loan_repayments (
			id, application_id, interest, monitoring_fee, processing_fee, principal,
			total, total_paid, total_due, total_interest_paid, status, maturity_date, days_overdue
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	for i := range installments {
		inst := &installments[i]
		_, err := r.querier.Exec(ctx, query,
			inst.ID,
			inst.ApplicationID,
			inst.Interest.String(),
			inst.MonitoringFee.String(),
			inst.ProcessingFee.String(),
			inst.Principal.String(),
			inst.Total.String(),
			inst.TotalPaid.String(),
			inst.TotalDue.String(),
			inst.TotalInterestPaid.String(),
			inst.Status,
			inst.MaturityDate,
			inst.DaysOverdue,
		)
		if err != nil {
			r.logger.Error("Failed to create repayment schedule", "application_id", inst.ApplicationID.String(), "error", err)
			return fmt.Errorf("failed to create repayment schedule: %w", err)
		}
	}

	return nil
}

// GetByApplication returns the full schedule ordered by maturity date
func (r *RepaymentRepository) GetByApplication(ctx context.Context, applicationID uuid.UUID) ([]repayment.Installment, error) {
	query := `SELECT ` + repaymentColumns + ` FROM loan_repayments WHERE application_id = $1 ORDER BY maturity_date`

	rows, err := r.querier.Query(ctx, query, applicationID)
	if err != nil {
		r.logger.Error("Failed to get repayment schedule", "application_id", applicationID.String(), "error", err)
		return nil, fmt.Errorf("failed to get repayment schedule: %w", err)
	}
	defer rows.Close()

	var installments []repayment.Installment
	for rows.Next() {
		inst, err := scanInstallment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan installment: %w", err)
		}
		installments = append(installments, *inst)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over installments: %w", err)
	}

	return installments, nil
}

// FirstPending returns the earliest-maturing installment still carrying a due balance
func (r *RepaymentRepository) FirstPending(ctx context.Context, applicationID uuid.UUID) (*repayment.Installment, error) {
	query := `
		SELECT ` + repaymentColumns + `
		FROM loan_repayments
		WHERE application_id = $1 AND total_due > 0
		ORDER BY maturity_date
		LIMIT 1
	`

	inst, err := scanInstallment(r.querier.QueryRow(ctx, query, applicationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repayment.ErrNoPendingInstallment{ApplicationID: applicationID}
		}
		r.logger.Error("Failed to get first pending installment", "application_id", applicationID.String(), "error", err)
		return nil, fmt.Errorf("failed to get first pending installment: %w", err)
	}

	return inst, nil
}

// Update persists payment progress on a single installment
func (r *RepaymentRepository) Update(ctx context.Context, inst *repayment.Installment) error {
	query := `
		UPDATE loan_repayments
		SET total_paid = $1, total_due = $2, total_interest_paid = $3,
			status = $4, payment_date = $5, days_overdue = $6
		WHERE id = $7
	`

	result, err := r.querier.Exec(ctx, query,
		inst.TotalPaid.String(),
		inst.TotalDue.String(),
		inst.TotalInterestPaid.String(),
		inst.Status,
		inst.PaymentDate,
		inst.DaysOverdue,
		inst.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update installment", "id", inst.ID.String(), "error", err)
		return fmt.Errorf("failed to update installment: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("installment %s not found", inst.ID)
	}

	return nil
}

// SettleAll zeroes the due balances of every open installment of the
// application and marks them PAID, as part of a liquidation
func (r *RepaymentRepository) SettleAll(ctx context.Context, applicationID uuid.UUID, paymentDate time.Time) error {
	query := `
		UPDATE loan_repayments
		SET total_paid = total, total_due = 0, status = $1, payment_date = $2
		WHERE application_id = $3 AND total_due > 0
	`

	_, err := r.querier.Exec(ctx, query, repayment.StatusPaid, paymentDate, applicationID)
	if err != nil {
		r.logger.Error("Failed to settle repayment schedule", "application_id", applicationID.String(), "error", err)
		return fmt.Errorf("failed to settle repayment schedule: %w", err)
	}

	return nil
}
