package shared

// TrxType defines the business meaning of a ledger movement
type TrxType string

const (
	TrxTypeSavingsDeposit    TrxType = "SAVINGS_DEPOSIT"
	TrxTypeSavingsWithdrawal TrxType = "SAVINGS_WITHDRAWAL"
	TrxTypeLoanDisbursement  TrxType = "LOAN_DISBURSEMENT"
	TrxTypeLoanRepayment     TrxType = "LOAN_REPAYMENT"
	TrxTypeCollateralDeposit TrxType = "COLLATERAL_DEPOSIT"
	TrxTypeCollateralRefund  TrxType = "COLLATERAL_REFUND"
	TrxTypeLoanLiquidation   TrxType = "LOAN_LIQUIDATION"
)

// Label returns the human-readable form used in customer alerts
func (t TrxType) Label() string {
	switch t {
	case TrxTypeSavingsDeposit:
		return "Deposit"
	case TrxTypeSavingsWithdrawal:
		return "Withdrawal"
	case TrxTypeLoanDisbursement:
		return "Loan Disbursement"
	case TrxTypeLoanRepayment:
		return "Loan Repayment"
	case TrxTypeCollateralDeposit:
		return "Collateral Deposit"
	case TrxTypeCollateralRefund:
		return "Collateral Refund"
	case TrxTypeLoanLiquidation:
		return "Loan Liquidation"
	default:
		return string(t)
	}
}

// Direction marks whether a movement increases or decreases a balance
type Direction string

const (
	DirectionCredit Direction = "CREDIT"
	DirectionDebit  Direction = "DEBIT"
)

// Direction returns which way the movement affects the customer account
func (t TrxType) Direction() Direction {
	switch t {
	case TrxTypeSavingsDeposit, TrxTypeLoanDisbursement, TrxTypeCollateralRefund:
		return DirectionCredit
	default:
		return DirectionDebit
	}
}
