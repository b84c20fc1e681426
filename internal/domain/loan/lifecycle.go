// Package loan owns the loan application entity and its lifecycle: the set
// of valid statuses, the transitions between them, and the preconditions for
// each transition. Every surface that gates a loan action consults the
// decision functions here rather than branching on status strings itself.
//
// The decision functions are pure: they operate on a snapshot of the
// application passed in by the caller, never mutate it, and return the
// intended transition together with the data the caller must persist.
// Persistence and notification are left to the caller, so a failed remote
// call leaves local state untouched.
package loan

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Role of the acting user, supplied by the ambient session context. Only
// ADMIN unlocks mutating actions; every other role gets a read-only view.
type Role string

const (
	RoleAdmin       Role = "ADMIN"
	RoleLoanOfficer Role = "LOAN_OFFICER"
	RoleTeller      Role = "TELLER"
)

// Action is a lifecycle operation an administrator can request.
type Action string

const (
	ActionApprove   Action = "APPROVE"
	ActionReject    Action = "REJECT"
	ActionDisburse  Action = "DISBURSE"
	ActionLiquidate Action = "LIQUIDATE"
)

// MaxLiquidationMonths caps the number of months of interest an
// administrator may charge when liquidating.
const MaxLiquidationMonths = 12

// ValidationError is a local precondition failure: wrong role, wrong current
// status for the requested action, or missing/out-of-range input. It is
// raised before any persistence work is attempted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// PermittedActions returns the lifecycle actions the given role may request
// on a loan in the given status. It is pure and total over the full status
// enumeration; terminal states and non-admin roles always yield nil.
func PermittedActions(status Status, role Role) []Action {
	if role != RoleAdmin {
		return nil
	}
	switch status {
	case StatusPending:
		return []Action{ActionApprove, ActionReject}
	case StatusApproved:
		return []Action{ActionDisburse, ActionReject}
	case StatusActive, StatusDue:
		return []Action{ActionLiquidate}
	default:
		return nil
	}
}

// Allows reports whether the action is permitted for the status/role pair.
func Allows(status Status, role Role, action Action) bool {
	for _, a := range PermittedActions(status, role) {
		if a == action {
			return true
		}
	}
	return false
}

func gate(status Status, role Role, action Action) error {
	if role != RoleAdmin {
		return ValidationError{Field: "role", Reason: fmt.Sprintf("%s may not %s a loan", role, action)}
	}
	if !Allows(status, role, action) {
		return ValidationError{Field: "status", Reason: fmt.Sprintf("cannot %s a loan in status %s", action, status)}
	}
	return nil
}

// ApprovalInput carries the administrator's approval terms.
type ApprovalInput struct {
	AmountApproved        decimal.Decimal
	AmountInWordsApproved string
	TenorApproved         int
}

// ApprovalDefaults returns the approve-as-requested prefill for an
// application. The administrator may edit the values before confirming;
// raising the amount above the original request is warned about upstream,
// not blocked here.
func ApprovalDefaults(app Application) ApprovalInput {
	return ApprovalInput{
		AmountApproved:        app.Amount,
		AmountInWordsApproved: app.AmountInWords,
		TenorApproved:         app.Tenor,
	}
}

// RejectionType categorizes a rejection. Optional.
type RejectionType string

const (
	RejectionTemporary RejectionType = "TEMPORARY"
	RejectionPermanent RejectionType = "PERMANENT"
)

// RejectionInput carries the optional rejection categorization and reason.
type RejectionInput struct {
	Type   RejectionType
	Reason string
}

// LiquidationInput carries the administrator's liquidation request. The
// interest to charge is derived, never supplied.
type LiquidationInput struct {
	MonthsCharged int
	Reason        string
}

// LiquidationOutcome is the derived result of a liquidation decision.
type LiquidationOutcome struct {
	MonthsCharged   int
	InterestCharged decimal.Decimal
	Reason          string
}

// InstallmentCharges are the per-installment charge components of the first
// repayment installment, used to derive the monthly interest unit.
type InstallmentCharges struct {
	Interest      decimal.Decimal
	MonitoringFee decimal.Decimal
	ProcessingFee decimal.Decimal
}

// MonthlyUnit is the sum of the installment's interest and fee components.
func (c InstallmentCharges) MonthlyUnit() decimal.Decimal {
	return c.Interest.Add(c.MonitoringFee).Add(c.ProcessingFee)
}

// LiquidationInterest derives the interest to charge on liquidation:
// monthsCharged times the monthly interest unit. Zero months charges zero.
func LiquidationInterest(monthlyUnit decimal.Decimal, monthsCharged int) decimal.Decimal {
	if monthsCharged <= 0 {
		return decimal.Zero
	}
	return monthlyUnit.Mul(decimal.NewFromInt(int64(monthsCharged)))
}

// Transition is the outcome of a lifecycle decision: the status the loan
// must move to, plus the validated data the caller persists alongside it.
// Exactly one of the payload fields is set, matching the action.
type Transition struct {
	Action Action
	From   Status
	Next   Status

	Approval    *ApprovalInput
	Rejection   *RejectionInput
	Liquidation *LiquidationOutcome
}

// DecideApproval validates an approval request against the lifecycle table.
// On success the loan moves PENDING -> APPROVED and the approval terms are
// fixed; they are immutable afterwards.
func DecideApproval(app Application, role Role, in ApprovalInput) (*Transition, error) {
	if err := gate(app.Status, role, ActionApprove); err != nil {
		return nil, err
	}
	if !in.AmountApproved.IsPositive() {
		return nil, ValidationError{Field: "amountApproved", Reason: "must be greater than 0"}
	}
	if in.AmountInWordsApproved == "" {
		return nil, ValidationError{Field: "amountInWordsApproved", Reason: "is required"}
	}
	if in.TenorApproved <= 0 {
		return nil, ValidationError{Field: "tenorApproved", Reason: "must be a positive number of months"}
	}

	return &Transition{
		Action:   ActionApprove,
		From:     app.Status,
		Next:     StatusApproved,
		Approval: &in,
	}, nil
}

// DecideRejection validates a rejection request. Both the type and the
// reason are optional; a rejected loan is absorbing regardless of type.
func DecideRejection(app Application, role Role, in RejectionInput) (*Transition, error) {
	if err := gate(app.Status, role, ActionReject); err != nil {
		return nil, err
	}
	if in.Type != "" && in.Type != RejectionTemporary && in.Type != RejectionPermanent {
		return nil, ValidationError{Field: "rejectionType", Reason: "must be TEMPORARY or PERMANENT"}
	}

	return &Transition{
		Action:    ActionReject,
		From:      app.Status,
		Next:      StatusRejected,
		Rejection: &in,
	}, nil
}

// DecideDisbursement validates a disbursement request. The transition is to
// DISBURSED; the ledger posting that follows promptly advances the loan to
// ACTIVE, which the caller reports back from the persisted record.
func DecideDisbursement(app Application, role Role) (*Transition, error) {
	if err := gate(app.Status, role, ActionDisburse); err != nil {
		return nil, err
	}

	return &Transition{
		Action: ActionDisburse,
		From:   app.Status,
		Next:   StatusDisbursed,
	}, nil
}

// DecideLiquidation validates a liquidation request and derives the interest
// to charge from the first installment's charge components.
func DecideLiquidation(app Application, role Role, charges InstallmentCharges, in LiquidationInput) (*Transition, error) {
	if err := gate(app.Status, role, ActionLiquidate); err != nil {
		return nil, err
	}
	if in.MonthsCharged < 0 {
		return nil, ValidationError{Field: "monthsCharged", Reason: "must be at least 0"}
	}
	if in.MonthsCharged > MaxLiquidationMonths {
		return nil, ValidationError{Field: "monthsCharged", Reason: fmt.Sprintf("must not exceed %d", MaxLiquidationMonths)}
	}
	if in.Reason == "" {
		return nil, ValidationError{Field: "liquidationReason", Reason: "is required"}
	}

	return &Transition{
		Action: ActionLiquidate,
		From:   app.Status,
		Next:   StatusPaidOff,
		Liquidation: &LiquidationOutcome{
			MonthsCharged:   in.MonthsCharged,
			InterestCharged: LiquidationInterest(charges.MonthlyUnit(), in.MonthsCharged),
			Reason:          in.Reason,
		},
	}, nil
}
