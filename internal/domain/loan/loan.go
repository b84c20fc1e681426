package loan

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Common errors
var (
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrInvalidTenor      = errors.New("tenor must be a positive number of months")
	ErrEmptyAmountWords  = errors.New("amount in words cannot be empty")
	ErrMissingCustomer   = errors.New("customer is required")
	ErrShortCollateral   = errors.New("collateral deposit below required minimum")
	ErrRunningLoanExists = errors.New("customer already has a running loan")
)

// Status is the lifecycle state of a loan application. PENDING is the sole
// initial state; REJECTED, PAID_OFF and DEFAULT are absorbing.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusDisbursed Status = "DISBURSED"
	StatusActive    Status = "ACTIVE"
	StatusDue       Status = "DUE"
	StatusPaidOff   Status = "PAID_OFF"
	StatusDefault   Status = "DEFAULT"
)

// Statuses lists every lifecycle state.
var Statuses = []Status{
	StatusPending, StatusApproved, StatusRejected, StatusDisbursed,
	StatusActive, StatusDue, StatusPaidOff, StatusDefault,
}

// Terminal reports whether s has no outgoing transitions.
func (s Status) Terminal() bool {
	return s == StatusRejected || s == StatusPaidOff || s == StatusDefault
}

// ProductTerms are the rate parameters of the loan product the application
// was taken against, in percent per month of the approved principal.
type ProductTerms struct {
	InterestRate      decimal.Decimal `json:"interest_rate"`
	MonitoringFeeRate decimal.Decimal `json:"monitoring_fee_rate"`
	ProcessingFeeRate decimal.Decimal `json:"processing_fee_rate"`
}

// Application represents a loan application and its approval/disbursement
// bookkeeping. Amounts are decimal currency values in Naira.
type Application struct {
	ID                    uuid.UUID       `json:"id"`
	CustomerID            uuid.UUID       `json:"customer_id"`
	Amount                decimal.Decimal `json:"amount"`
	AmountInWords         string          `json:"amount_in_words"`
	Tenor                 int             `json:"tenor"` // requested, in months
	Terms                 ProductTerms    `json:"terms"`
	CollateralDeposit     decimal.Decimal `json:"collateral_deposit"`
	Status                Status          `json:"status"`
	AmountApproved        decimal.Decimal `json:"amount_approved"`
	AmountInWordsApproved string          `json:"amount_in_words_approved"`
	TenorApproved         int             `json:"tenor_approved"`
	Maturity              *time.Time      `json:"maturity,omitempty"`
	DaysOverdue           int64           `json:"days_overdue"`
	AppliedByID           uuid.UUID       `json:"applied_by_id"`
	ApprovedByID          *uuid.UUID      `json:"approved_by_id,omitempty"`
	DisbursedByID         *uuid.UUID      `json:"disbursed_by_id,omitempty"`
	AppliedAt             time.Time       `json:"applied_at"`
	ApprovedAt            *time.Time      `json:"approved_at,omitempty"`
	DisbursedAt           *time.Time      `json:"disbursed_at,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

// NewApplication creates a PENDING application for the given customer.
func NewApplication(customerID, appliedByID uuid.UUID, amount decimal.Decimal, amountInWords string, tenor int, terms ProductTerms, collateralDeposit decimal.Decimal) (*Application, error) {
	if customerID == uuid.Nil {
		return nil, ErrMissingCustomer
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if amountInWords == "" {
		return nil, ErrEmptyAmountWords
	}
	if tenor <= 0 {
		return nil, ErrInvalidTenor
	}

	now := time.Now()
	return &Application{
		ID:                uuid.New(),
		CustomerID:        customerID,
		Amount:            amount,
		AmountInWords:     amountInWords,
		Tenor:             tenor,
		Terms:             terms,
		CollateralDeposit: collateralDeposit,
		Status:            StatusPending,
		AppliedByID:       appliedByID,
		AppliedAt:         now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// RequiredCollateral returns the minimum collateral deposit for a requested
// amount at the given rate (percent of principal).
func RequiredCollateral(amount, ratePercent decimal.Decimal) decimal.Decimal {
	return ratePercent.Div(decimal.NewFromInt(100)).Mul(amount)
}

// TotalRepayable is the full amount owed once the loan is disbursed:
// principal plus interest, monitoring and processing charges over the
// approved tenor.
func (a *Application) TotalRepayable() decimal.Decimal {
	principal := a.AmountApproved
	tenor := decimal.NewFromInt(int64(a.TenorApproved))
	hundred := decimal.NewFromInt(100)

	interest := a.Terms.InterestRate.Div(hundred).Mul(principal).Mul(tenor)
	monitoring := a.Terms.MonitoringFeeRate.Div(hundred).Mul(principal).Mul(tenor)
	processing := a.Terms.ProcessingFeeRate.Div(hundred).Mul(principal).Mul(tenor)

	return principal.Add(interest).Add(monitoring).Add(processing)
}
