// Package repayment owns the installment schedule attached to a disbursed
// loan. Installments exist only for loans that have reached disbursement; a
// PENDING or APPROVED application has an empty schedule.
package repayment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status of a single installment. This vocabulary is independent from the
// loan lifecycle statuses.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusPaid    Status = "PAID"
	StatusDefault Status = "DEFAULT"
)

// Installment is one scheduled repayment of a disbursed loan.
type Installment struct {
	ID                uuid.UUID       `json:"id"`
	ApplicationID     uuid.UUID       `json:"application_id"`
	Interest          decimal.Decimal `json:"interest"`
	MonitoringFee     decimal.Decimal `json:"monitoring_fee"`
	ProcessingFee     decimal.Decimal `json:"processing_fee"`
	Principal         decimal.Decimal `json:"principal"`
	Total             decimal.Decimal `json:"total"`
	TotalPaid         decimal.Decimal `json:"total_paid"`
	TotalDue          decimal.Decimal `json:"total_due"`
	TotalInterestPaid decimal.Decimal `json:"total_interest_paid"`
	Status            Status          `json:"status"`
	MaturityDate      time.Time       `json:"maturity_date"`
	PaymentDate       *time.Time      `json:"payment_date,omitempty"`
	DaysOverdue       int64           `json:"days_overdue"`
}

// RemainingInterest is the unpaid interest-and-fees portion of the
// installment. Never negative.
func (i *Installment) RemainingInterest() decimal.Decimal {
	remaining := i.Interest.Add(i.MonitoringFee).Add(i.ProcessingFee).Sub(i.TotalInterestPaid)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// RemainingPrincipal is the unpaid principal portion of the installment.
// Never negative.
func (i *Installment) RemainingPrincipal() decimal.Decimal {
	principalPaid := i.TotalPaid.Sub(i.TotalInterestPaid)
	remaining := i.Principal.Sub(principalPaid)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// ApplyPayment applies an amount to the installment, interest and fees
// first, then principal, and returns the portion actually consumed. An
// installment whose due balance clears is marked PAID with the payment date.
func (i *Installment) ApplyPayment(amount decimal.Decimal, paidAt time.Time) decimal.Decimal {
	if !amount.IsPositive() || !i.TotalDue.IsPositive() {
		return decimal.Zero
	}

	interest := decimal.Min(amount, i.RemainingInterest())
	principal := decimal.Min(amount.Sub(interest), i.RemainingPrincipal())
	paid := interest.Add(principal)
	if !paid.IsPositive() {
		return decimal.Zero
	}

	i.TotalPaid = i.TotalPaid.Add(paid)
	i.TotalInterestPaid = i.TotalInterestPaid.Add(interest)
	i.TotalDue = i.TotalDue.Sub(paid)
	if !i.TotalDue.IsPositive() {
		i.Status = StatusPaid
		date := paidAt
		i.PaymentDate = &date
	}
	return paid
}

// MarkDefaulted flags a matured installment that could not be collected.
func (i *Installment) MarkDefaulted(daysOverdue int64) {
	i.Status = StatusDefault
	i.DaysOverdue = daysOverdue
}

// ScheduleTerms parameterize schedule generation for an approved loan.
// Rates are percent per month of the approved principal.
type ScheduleTerms struct {
	Amount            decimal.Decimal
	TenorMonths       int
	InterestRate      decimal.Decimal
	MonitoringFeeRate decimal.Decimal
	ProcessingFeeRate decimal.Decimal
	PerMonth          int // installments per month
}

// BuildSchedule generates the weekly installment schedule for a disbursed
// loan: tenor * PerMonth installments, each carrying an equal share of the
// interest, monitoring and processing charges plus principal, rounded
// half-up to 2 decimal places. The first installment matures one interval
// after start.
func BuildSchedule(applicationID uuid.UUID, terms ScheduleTerms, start time.Time) []Installment {
	n := terms.TenorMonths * terms.PerMonth
	if n <= 0 {
		return nil
	}

	hundred := decimal.NewFromInt(100)
	tenor := decimal.NewFromInt(int64(terms.TenorMonths))
	count := decimal.NewFromInt(int64(n))

	interest := terms.InterestRate.Div(hundred).Mul(terms.Amount).Mul(tenor)
	monitoring := terms.MonitoringFeeRate.Div(hundred).Mul(terms.Amount).Mul(tenor)
	processing := terms.ProcessingFeeRate.Div(hundred).Mul(terms.Amount).Mul(tenor)

	perInterest := interest.DivRound(count, 2)
	perMonitoring := monitoring.DivRound(count, 2)
	perProcessing := processing.DivRound(count, 2)
	perPrincipal := terms.Amount.DivRound(count, 2)
	perTotal := perInterest.Add(perMonitoring).Add(perProcessing).Add(perPrincipal)

	installments := make([]Installment, n)
	due := start
	for i := 0; i < n; i++ {
		due = due.AddDate(0, 0, 7)
		installments[i] = Installment{
			ID:                uuid.New(),
			ApplicationID:     applicationID,
			Interest:          perInterest,
			MonitoringFee:     perMonitoring,
			ProcessingFee:     perProcessing,
			Principal:         perPrincipal,
			Total:             perTotal,
			TotalPaid:         decimal.Zero,
			TotalDue:          perTotal,
			TotalInterestPaid: decimal.Zero,
			Status:            StatusPending,
			MaturityDate:      due,
		}
	}

	return installments
}

// OutstandingBalance sums the unpaid totals across a schedule.
func OutstandingBalance(installments []Installment) decimal.Decimal {
	sum := decimal.Zero
	for i := range installments {
		sum = sum.Add(installments[i].TotalDue)
	}
	return sum
}
