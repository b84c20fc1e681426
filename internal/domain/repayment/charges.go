package repayment

import "github.com/microfin-loan-office/internal/domain/loan"

// Charges exposes the per-installment charge components of an installment
// so the loan lifecycle can derive liquidation interest from them.
func Charges(i *Installment) loan.InstallmentCharges {
	return loan.InstallmentCharges{
		Interest:      i.Interest,
		MonitoringFee: i.MonitoringFee,
		ProcessingFee: i.ProcessingFee,
	}
}
