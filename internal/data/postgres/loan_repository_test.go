package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microfin-loan-office/internal/domain/loan"
)

func sampleApplication() *loan.Application {
	now := time.Now()
	return &loan.Application{
		ID:            uuid.New(),
		CustomerID:    uuid.New(),
		Amount:        decimal.RequireFromString("500000"),
		AmountInWords: "Five Hundred Thousand Naira Only",
		Tenor:         12,
		Terms: loan.ProductTerms{
			InterestRate:      decimal.RequireFromString("5"),
			MonitoringFeeRate: decimal.RequireFromString("1"),
			ProcessingFeeRate: decimal.RequireFromString("1"),
		},
		CollateralDeposit: decimal.RequireFromString("50000"),
		Status:            loan.StatusPending,
		AmountApproved:    decimal.Zero,
		AppliedByID:       uuid.New(),
		AppliedAt:         now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func loanRows(app *loan.Application) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "customer_id", "amount", "amount_in_words", "tenor",
		"interest_rate", "monitoring_fee_rate", "processing_fee_rate",
		"collateral_deposit", "status", "amount_approved", "amount_in_words_approved",
		"tenor_approved", "maturity", "days_overdue", "applied_by", "approved_by", "disbursed_by",
		"applied_at", "approved_at", "disbursed_at", "created_at", "updated_at",
	}).AddRow(
		app.ID, app.CustomerID, app.Amount.String(), app.AmountInWords, app.Tenor,
		app.Terms.InterestRate.String(), app.Terms.MonitoringFeeRate.String(), app.Terms.ProcessingFeeRate.String(),
		app.CollateralDeposit.String(), app.Status, app.AmountApproved.String(), app.AmountInWordsApproved,
		app.TenorApproved, app.Maturity, app.DaysOverdue, app.AppliedByID, app.ApprovedByID, app.DisbursedByID,
		app.AppliedAt, app.ApprovedAt, app.DisbursedAt, app.CreatedAt, app.UpdatedAt,
	)
}

func TestLoanRepository_Create(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &LoanRepository{querier: mock, logger: logger}
	app := sampleApplication()

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO loan_applications`).
			WithArgs(
				app.ID, app.CustomerID, app.Amount.String(), app.AmountInWords, app.Tenor,
				app.Terms.InterestRate.String(), app.Terms.MonitoringFeeRate.String(), app.Terms.ProcessingFeeRate.String(),
				app.CollateralDeposit.String(), app.Status, app.AmountApproved.String(), app.AmountInWordsApproved,
				app.TenorApproved, app.DaysOverdue, app.AppliedByID, app.AppliedAt, app.CreatedAt, app.UpdatedAt,
			).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		err := repo.Create(ctx, app)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failure", func(t *testing.T) {
		dbErr := errors.New("db error")
		mock.ExpectExec(`INSERT INTO loan_applications`).
			WithArgs(
				app.ID, app.CustomerID, app.Amount.String(), app.AmountInWords, app.Tenor,
				app.Terms.InterestRate.String(), app.Terms.MonitoringFeeRate.String(), app.Terms.ProcessingFeeRate.String(),
				app.CollateralDeposit.String(), app.Status, app.AmountApproved.String(), app.AmountInWordsApproved,
				app.TenorApproved, app.DaysOverdue, app.AppliedByID, app.AppliedAt, app.CreatedAt, app.UpdatedAt,
			).
			WillReturnError(dbErr)

		err := repo.Create(ctx, app)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create loan application")
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLoanRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &LoanRepository{querier: mock, logger: logger}
	app := sampleApplication()

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM loan_applications WHERE id = \$1`).
			WithArgs(app.ID).
			WillReturnRows(loanRows(app))

		got, err := repo.GetByID(ctx, app.ID)
		assert.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, app.ID, got.ID)
		assert.Equal(t, loan.StatusPending, got.Status)
		assert.True(t, app.Amount.Equal(got.Amount))
		assert.True(t, app.Terms.InterestRate.Equal(got.Terms.InterestRate))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM loan_applications WHERE id = \$1`).
			WithArgs(app.ID).
			WillReturnError(pgx.ErrNoRows)

		got, err := repo.GetByID(ctx, app.ID)
		assert.Error(t, err)
		assert.Nil(t, got)
		var notFoundErr loan.ErrApplicationNotFound
		assert.ErrorAs(t, err, &notFoundErr)
		assert.Equal(t, app.ID, notFoundErr.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLoanRepository_UpdateApproval(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &LoanRepository{querier: mock, logger: logger}
	app := sampleApplication()
	approvedBy := uuid.New()
	in := loan.ApprovalInput{
		AmountApproved:        decimal.RequireFromString("500000"),
		AmountInWordsApproved: "Five Hundred Thousand Naira Only",
		TenorApproved:         12,
	}

	t.Run("success", func(t *testing.T) {
		approved := *app
		approved.Status = loan.StatusApproved
		approved.AmountApproved = in.AmountApproved
		approved.AmountInWordsApproved = in.AmountInWordsApproved
		approved.TenorApproved = in.TenorApproved
		approved.ApprovedByID = &approvedBy

		mock.ExpectQuery(`UPDATE loan_applications`).
			WithArgs(
				loan.StatusApproved, in.AmountApproved.String(), in.AmountInWordsApproved,
				in.TenorApproved, approvedBy, pgxmock.AnyArg(), app.ID, loan.StatusPending,
			).
			WillReturnRows(loanRows(&approved))

		got, err := repo.UpdateApproval(ctx, app.ID, approvedBy, in)
		assert.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, loan.StatusApproved, got.Status)
		assert.True(t, in.AmountApproved.Equal(got.AmountApproved))
		assert.Equal(t, in.TenorApproved, got.TenorApproved)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stale status", func(t *testing.T) {
		mock.ExpectQuery(`UPDATE loan_applications`).
			WithArgs(
				loan.StatusApproved, in.AmountApproved.String(), in.AmountInWordsApproved,
				in.TenorApproved, approvedBy, pgxmock.AnyArg(), app.ID, loan.StatusPending,
			).
			WillReturnError(pgx.ErrNoRows)
		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs(app.ID).
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

		got, err := repo.UpdateApproval(ctx, app.ID, approvedBy, in)
		assert.Error(t, err)
		assert.Nil(t, got)
		var staleErr loan.ErrStaleStatus
		assert.ErrorAs(t, err, &staleErr)
		assert.Equal(t, app.ID, staleErr.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row", func(t *testing.T) {
		mock.ExpectQuery(`UPDATE loan_applications`).
			WithArgs(
				loan.StatusApproved, in.AmountApproved.String(), in.AmountInWordsApproved,
				in.TenorApproved, approvedBy, pgxmock.AnyArg(), app.ID, loan.StatusPending,
			).
			WillReturnError(pgx.ErrNoRows)
		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs(app.ID).
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

		got, err := repo.UpdateApproval(ctx, app.ID, approvedBy, in)
		assert.Error(t, err)
		assert.Nil(t, got)
		var notFoundErr loan.ErrApplicationNotFound
		assert.ErrorAs(t, err, &notFoundErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLoanRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &LoanRepository{querier: mock, logger: logger}
	id := uuid.New()
	expected := []loan.Status{loan.StatusPending, loan.StatusApproved}
	expectedStrings := []string{"PENDING", "APPROVED"}

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(`UPDATE loan_applications`).
			WithArgs(loan.StatusRejected, id, expectedStrings).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.UpdateStatus(ctx, id, loan.StatusRejected, expected)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stale status", func(t *testing.T) {
		mock.ExpectExec(`UPDATE loan_applications`).
			WithArgs(loan.StatusRejected, id, expectedStrings).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))
		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs(id).
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

		err := repo.UpdateStatus(ctx, id, loan.StatusRejected, expected)
		var staleErr loan.ErrStaleStatus
		assert.ErrorAs(t, err, &staleErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLoanRepository_CreateLiquidation(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &LoanRepository{querier: mock, logger: logger}

	liq := &loan.Liquidation{
		ID:              uuid.New(),
		ApplicationID:   uuid.New(),
		LoanAmount:      decimal.RequireFromString("500000"),
		Amount:          decimal.RequireFromString("120000"),
		InterestCharged: decimal.RequireFromString("4500"),
		MonthsCharged:   3,
		Reason:          "Early settlement by customer",
		LiquidatedByID:  uuid.New(),
		LiquidatedAt:    time.Now(),
	}

	mock.ExpectExec(`INSERT INTO loan_liquidations`).
		WithArgs(
			liq.ID, liq.ApplicationID, liq.LoanAmount.String(), liq.Amount.String(),
			liq.InterestCharged.String(), liq.MonthsCharged, liq.Reason, liq.LiquidatedByID, liq.LiquidatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.CreateLiquidation(ctx, liq)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
