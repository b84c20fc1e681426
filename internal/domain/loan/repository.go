package loan

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Rejection is the audit record of a rejected application.
type Rejection struct {
	ID            uuid.UUID     `json:"id"`
	ApplicationID uuid.UUID     `json:"application_id"`
	Type          RejectionType `json:"type,omitempty"`
	Reason        string        `json:"reason,omitempty"`
	RejectedByID  uuid.UUID     `json:"rejected_by_id"`
	RejectedAt    time.Time     `json:"rejected_at"`
}

// Liquidation is the audit record of a liquidated loan.
type Liquidation struct {
	ID              uuid.UUID       `json:"id"`
	ApplicationID   uuid.UUID       `json:"application_id"`
	LoanAmount      decimal.Decimal `json:"loan_amount"`
	Amount          decimal.Decimal `json:"amount"` // principal outstanding + interest charged
	InterestCharged decimal.Decimal `json:"interest_charged"`
	MonthsCharged   int             `json:"months_charged"`
	Reason          string          `json:"reason"`
	LiquidatedByID  uuid.UUID       `json:"liquidated_by_id"`
	LiquidatedAt    time.Time       `json:"liquidated_at"`
}

// ListFilter narrows application listings.
type ListFilter struct {
	CustomerID uuid.UUID
	Statuses   []Status
	Limit      int32
	Offset     int32
}

// Repository defines loan application persistence operations.
type Repository interface {
	Create(ctx context.Context, app *Application) error
	GetByID(ctx context.Context, id uuid.UUID) (*Application, error)
	List(ctx context.Context, f ListFilter) ([]Application, error)

	// UpdateApproval fixes the approval terms and moves the application to
	// APPROVED. The row must still be in PENDING; a stale status returns
	// ErrStaleStatus.
	UpdateApproval(ctx context.Context, id uuid.UUID, approvedBy uuid.UUID, in ApprovalInput) (*Application, error)

	// UpdateStatus moves the application to the given status, expecting it to
	// currently be in one of the expected statuses.
	UpdateStatus(ctx context.Context, id uuid.UUID, next Status, expected []Status) error

	// MarkDisbursed records disbursement bookkeeping and finalizes ACTIVE.
	MarkDisbursed(ctx context.Context, id uuid.UUID, disbursedBy uuid.UUID, maturity time.Time) (*Application, error)

	// MarkOverdue sets DUE and the overdue day count on a matured loan.
	MarkOverdue(ctx context.Context, id uuid.UUID, daysOverdue int64) error

	CreateRejection(ctx context.Context, rejection *Rejection) error
	CreateLiquidation(ctx context.Context, liquidation *Liquidation) error

	WithTx(tx pgx.Tx) Repository
}

// ErrApplicationNotFound indicates a missing loan application.
type ErrApplicationNotFound struct {
	ID uuid.UUID
}

func (e ErrApplicationNotFound) Error() string {
	return "loan application not found: " + e.ID.String()
}

// ErrStaleStatus indicates the application was no longer in the status the
// transition expected, typically because another actor moved it first. The
// local record is left unchanged.
type ErrStaleStatus struct {
	ID       uuid.UUID
	Expected []Status
}

func (e ErrStaleStatus) Error() string {
	return "loan application " + e.ID.String() + " is no longer in the expected status"
}
