package repayment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines storage operations for installment schedules.
type Repository interface {
	// CreateSchedule persists all installments of a freshly disbursed loan.
	CreateSchedule(ctx context.Context, installments []Installment) error

	// GetByApplication returns the full schedule ordered by maturity date.
	GetByApplication(ctx context.Context, applicationID uuid.UUID) ([]Installment, error)

	// FirstPending returns the earliest-maturing installment still carrying a
	// due balance, or ErrNoPendingInstallment when the schedule is settled.
	FirstPending(ctx context.Context, applicationID uuid.UUID) (*Installment, error)

	// Update persists payment progress on a single installment.
	Update(ctx context.Context, installment *Installment) error

	// SettleAll zeroes the due balances of every open installment of the
	// application and marks them PAID, as part of a liquidation.
	SettleAll(ctx context.Context, applicationID uuid.UUID, paymentDate time.Time) error

	// WithTx returns a repository bound to the given transaction.
	WithTx(tx pgx.Tx) Repository
}

// ErrNoPendingInstallment indicates the schedule carries no open installment.
type ErrNoPendingInstallment struct {
	ApplicationID uuid.UUID
}

func (e ErrNoPendingInstallment) Error() string {
	return fmt.Sprintf("no pending installment for application %s", e.ApplicationID)
}
