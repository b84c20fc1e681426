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

	"github.com/microfin-loan-office/internal/domain/loan"
	"github.com/microfin-loan-office/internal/platform/persistence"
)

// LoanRepository implements the loan.Repository interface for PostgreSQL
type LoanRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewLoanRepository creates a new PostgreSQL loan repository
func NewLoanRepository(logger *slog.Logger, db *persistence.PostgresDB) loan.Repository {
	return &LoanRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction for atomic operations
func (r *LoanRepository) WithTx(tx pgx.Tx) loan.Repository {
	return &LoanRepository{
		querier: tx,
		logger:  r.logger,
	}
}

const loanColumns = `id, customer_id, amount::text, amount_in_words, tenor,
	interest_rate::text, monitoring_fee_rate::text, processing_fee_rate::text,
	collateral_deposit::text, status, amount_approved::text, amount_in_words_approved,
	tenor_approved, maturity, days_overdue, applied_by, approved_by, disbursed_by,
	applied_at, approved_at, disbursed_at, created_at, updated_at`

func scanApplication(row pgx.Row) (*loan.Application, error) {
	var app loan.Application
	var amount, interestRate, monitoringRate, processingRate, collateral, amountApproved string
	err := row.Scan(
		&app.ID,
		&app.CustomerID,
		&amount,
		&app.AmountInWords,
		&app.Tenor,
		&interestRate,
		&monitoringRate,
		&processingRate,
		&collateral,
		&app.Status,
		&amountApproved,
		&app.AmountInWordsApproved,
		&app.TenorApproved,
		&app.Maturity,
		&app.DaysOverdue,
		&app.AppliedByID,
		&app.ApprovedByID,
		&app.DisbursedByID,
		&app.AppliedAt,
		&app.ApprovedAt,
		&app.DisbursedAt,
		&app.CreatedAt,
		&app.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	fields := []struct {
		dst *decimal.Decimal
		src string
	}{
		{&app.Amount, amount},
		{&app.Terms.InterestRate, interestRate},
		{&app.Terms.MonitoringFeeRate, monitoringRate},
		{&app.Terms.ProcessingFeeRate, processingRate},
		{&app.CollateralDeposit, collateral},
		{&app.AmountApproved, amountApproved},
	}
	for _, f := range fields {
		*f.dst, err = decimal.NewFromString(f.src)
		if err != nil {
			return nil, fmt.Errorf("failed to parse loan amount column: %w", err)
		}
	}

	return &app, nil
}

// Create stores a new loan application in PENDING status
func (r *LoanRepository) Create(ctx context.Context, app *loan.Application) error {
	query := `
		INSERT INTO loan_applications (
			id, customer_id, amount, amount_in_words, tenor,
			interest_rate, monitoring_fee_rate, processing_fee_rate,
			collateral_deposit, status, amount_approved, amount_in_words_approved,
			tenor_approved, days_overdue, applied_by, applied_at, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	_, err := r.querier.Exec(ctx, query,
		app.ID,
		app.CustomerID,
		app.Amount.String(),
		app.AmountInWords,
		app.Tenor,
		app.Terms.InterestRate.String(),
		app.Terms.MonitoringFeeRate.String(),
		app.Terms.ProcessingFeeRate.String(),
		app.CollateralDeposit.String(),
		app.Status,
		app.AmountApproved.String(),
		app.AmountInWordsApproved,
		app.TenorApproved,
		app.DaysOverdue,
		app.AppliedByID,
		app.AppliedAt,
		app.CreatedAt,
		app.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create loan application", "error", err)
		return fmt.Errorf("failed to create loan application: %w", err)
	}

	return nil
}

// GetByID retrieves a loan application by its ID
func (r *LoanRepository) GetByID(ctx context.Context, id uuid.UUID) (*loan.Application, error) {
	query := `SELECT ` + loanColumns + ` FROM loan_applications WHERE id = $1`

	app, err := scanApplication(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, loan.ErrApplicationNotFound{ID: id}
		}
		r.logger.Error("Failed to get loan application", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get loan application: %w", err)
	}

	return app, nil
}

// List retrieves loan applications matching the filter, newest first
func (r *LoanRepository) List(ctx context.Context, f loan.ListFilter) ([]loan.Application, error) {
	query := `SELECT ` + loanColumns + ` FROM loan_applications WHERE 1=1`
	args := []any{}
	arg := 0

	if f.CustomerID != uuid.Nil {
		arg++
		query += fmt.Sprintf(" AND customer_id = $%d", arg)
		args = append(args, f.CustomerID)
	}
	if len(f.Statuses) > 0 {
		arg++
		query += fmt.Sprintf(" AND status = ANY($%d)", arg)
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		args = append(args, statuses)
	}

	query += " ORDER BY created_at DESC"
	if f.Limit > 0 {
		arg++
		query += fmt.Sprintf(" LIMIT $%d", arg)
		args = append(args, f.Limit)
	}
	if f.Offset > 0 {
		arg++
		query += fmt.Sprintf(" OFFSET $%d", arg)
		args = append(args, f.Offset)
	}

	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list loan applications", "error", err)
		return nil, fmt.Errorf("failed to list loan applications: %w", err)
	}
	defer rows.Close()

	var apps []loan.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan loan application: %w", err)
		}
		apps = append(apps, *app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over loan applications: %w", err)
	}

	return apps, nil
}

// UpdateApproval fixes the approval terms and moves the application to APPROVED.
// The row must still be PENDING; otherwise ErrStaleStatus is returned and the
// row is left untouched.
func (r *LoanRepository) UpdateApproval(ctx context.Context, id uuid.UUID, approvedBy uuid.UUID, in loan.ApprovalInput) (*loan.Application, error) {
	query := `
		UPDATE loan_applications
		SET status = $1, amount_approved = $2, amount_in_words_approved = $3,
			tenor_approved = $4, approved_by = $5, approved_at = $6, updated_at = $6
		WHERE id = $7 AND status = $8
		RETURNING ` + loanColumns

	app, err := scanApplication(r.querier.QueryRow(ctx, query,
		loan.StatusApproved,
		in.AmountApproved.String(),
		in.AmountInWordsApproved,
		in.TenorApproved,
		approvedBy,
		time.Now(),
		id,
		loan.StatusPending,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.staleOrMissing(ctx, id, []loan.Status{loan.StatusPending})
		}
		r.logger.Error("Failed to approve loan application", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to approve loan application: %w", err)
	}

	return app, nil
}

// UpdateStatus moves the application to the given status when it is still in
// one of the expected statuses
func (r *LoanRepository) UpdateStatus(ctx context.Context, id uuid.UUID, next loan.Status, expected []loan.Status) error {
	statuses := make([]string, len(expected))
	for i, s := range expected {
		statuses[i] = string(s)
	}

	query := `
		UPDATE loan_applications
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = ANY($3)
	`

	result, err := r.querier.Exec(ctx, query, next, id, statuses)
	if err != nil {
		r.logger.Error("Failed to update loan status", "id", id.String(), "next", string(next), "error", err)
		return fmt.Errorf("failed to update loan status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return r.staleOrMissing(ctx, id, expected)
	}

	return nil
}

// MarkDisbursed records disbursement bookkeeping and finalizes ACTIVE. The
// row must be in DISBURSED, which the ledger posting set just before.
func (r *LoanRepository) MarkDisbursed(ctx context.Context, id uuid.UUID, disbursedBy uuid.UUID, maturity time.Time) (*loan.Application, error) {
	query := `
		UPDATE loan_applications
		SET status = $1, disbursed_by = $2, disbursed_at = $3, maturity = $4, updated_at = $3
		WHERE id = $5 AND status = $6
		RETURNING ` + loanColumns

	app, err := scanApplication(r.querier.QueryRow(ctx, query,
		loan.StatusActive,
		disbursedBy,
		time.Now(),
		maturity,
		id,
		loan.StatusDisbursed,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.staleOrMissing(ctx, id, []loan.Status{loan.StatusDisbursed})
		}
		r.logger.Error("Failed to mark loan disbursed", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to mark loan disbursed: %w", err)
	}

	return app, nil
}

// MarkOverdue sets DUE and the overdue day count on a matured loan
func (r *LoanRepository) MarkOverdue(ctx context.Context, id uuid.UUID, daysOverdue int64) error {
	query := `
		UPDATE loan_applications
		SET status = $1, days_overdue = $2, updated_at = NOW()
		WHERE id = $3 AND status = ANY($4)
	`

	expected := []string{string(loan.StatusActive), string(loan.StatusDue)}
	result, err := r.querier.Exec(ctx, query, loan.StatusDue, daysOverdue, id, expected)
	if err != nil {
		r.logger.Error("Failed to mark loan overdue", "id", id.String(), "error", err)
		return fmt.Errorf("failed to mark loan overdue: %w", err)
	}

	if result.RowsAffected() == 0 {
		return r.staleOrMissing(ctx, id, []loan.Status{loan.StatusActive, loan.StatusDue})
	}

	return nil
}

// CreateRejection stores the audit record of a rejected application
func (r *LoanRepository) CreateRejection(ctx context.Context, rejection *loan.Rejection) error {
	query := `
		INSERT INTO loan_rejections (id, application_id, type, reason, rejected_by, rejected_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.querier.Exec(ctx, query,
		rejection.ID,
		rejection.ApplicationID,
		rejection.Type,
		rejection.Reason,
		rejection.RejectedByID,
		rejection.RejectedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create loan rejection", "application_id", rejection.ApplicationID.String(), "error", err)
		return fmt.Errorf("failed to create loan rejection: %w", err)
	}

	return nil
}

// CreateLiquidation stores the audit record of a liquidated loan
func (r *LoanRepository) CreateLiquidation(ctx context.Context, liquidation *loan.Liquidation) error {
	query := `
		INSERT INTO loan_liquidations (id, application_id, loan_amount, amount, interest_charged, months_charged, reason, liquidated_by, liquidated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.querier.Exec(ctx, query,
		liquidation.ID,
		liquidation.ApplicationID,
		liquidation.LoanAmount.String(),
		liquidation.Amount.String(),
		liquidation.InterestCharged.String(),
		liquidation.MonthsCharged,
		liquidation.Reason,
		liquidation.LiquidatedByID,
		liquidation.LiquidatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create loan liquidation", "application_id", liquidation.ApplicationID.String(), "error", err)
		return fmt.Errorf("failed to create loan liquidation: %w", err)
	}

	return nil
}

// staleOrMissing distinguishes a missing row from a guarded update that
// matched no rows because the status moved underneath the caller.
func (r *LoanRepository) staleOrMissing(ctx context.Context, id uuid.UUID, expected []loan.Status) error {
	var exists bool
	err := r.querier.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM loan_applications WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check loan application existence: %w", err)
	}
	if !exists {
		return loan.ErrApplicationNotFound{ID: id}
	}
	return loan.ErrStaleStatus{ID: id, Expected: expected}
}
