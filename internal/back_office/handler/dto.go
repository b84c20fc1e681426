package handler

// CreateCustomerRequest represents a request to register a new customer
type CreateCustomerRequest struct {
	FirstName   string `json:"first_name" binding:"required"`
	LastName    string `json:"last_name" binding:"required"`
	PhoneNumber string `json:"phone_number" binding:"required"`
	Email       string `json:"email,omitempty" binding:"omitempty,email"`
	Address     string `json:"address,omitempty"`
	BVN         string `json:"bvn,omitempty"`
}

// CustomerResponse represents a customer in API responses
type CustomerResponse struct {
	ID          string `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
	Email       string `json:"email,omitempty"`
	Address     string `json:"address,omitempty"`
	LoanCycle   int    `json:"loan_cycle"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// OpenAccountRequest represents a request to open an account
type OpenAccountRequest struct {
	CustomerID string `json:"customer_id" binding:"required,uuid"`
	Type       string `json:"type" binding:"required,oneof=SAVINGS COLLATERAL_DEPOSIT"`
}

// AccountResponse represents an account in API responses
type AccountResponse struct {
	ID            string `json:"id"`
	AccountNumber string `json:"account_number"`
	CustomerID    string `json:"customer_id"`
	Type          string `json:"type"`
	Status        string `json:"status"`
	Balance       string `json:"balance"`
	LoanID        string `json:"loan_id,omitempty"`
	LoanCycle     int    `json:"loan_cycle"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

// BalanceMovementRequest represents a deposit or withdrawal request
type BalanceMovementRequest struct {
	Amount      string `json:"amount" binding:"required"`
	Description string `json:"description,omitempty"`
}

// ApplyLoanRequest represents a loan application request
type ApplyLoanRequest struct {
	CustomerID    string `json:"customer_id" binding:"required,uuid"`
	Amount        string `json:"amount" binding:"required"`
	AmountInWords string `json:"amount_in_words" binding:"required"`
	Tenor         int    `json:"tenor" binding:"required,gt=0"`
}

// ApproveLoanRequest represents the approval terms fixed by the administrator
type ApproveLoanRequest struct {
	AmountApproved        string `json:"amount_approved" binding:"required"`
	AmountInWordsApproved string `json:"amount_in_words_approved" binding:"required"`
	TenorApproved         int    `json:"tenor_approved" binding:"required,gt=0"`
}

// RejectLoanRequest represents an optional rejection categorization
type RejectLoanRequest struct {
	Type   string `json:"type,omitempty" binding:"omitempty,oneof=TEMPORARY PERMANENT"`
	Reason string `json:"reason,omitempty"`
}

// LiquidateLoanRequest represents an early payoff request
type LiquidateLoanRequest struct {
	MonthsCharged int    `json:"months_charged" binding:"min=0,max=12"`
	Reason        string `json:"reason" binding:"required"`
}

// LoanResponse represents a loan application in API responses
type LoanResponse struct {
	ID                    string `json:"id"`
	CustomerID            string `json:"customer_id"`
	Amount                string `json:"amount"`
	AmountInWords         string `json:"amount_in_words"`
	Tenor                 int    `json:"tenor"`
	Status                string `json:"status"`
	AmountApproved        string `json:"amount_approved,omitempty"`
	AmountInWordsApproved string `json:"amount_in_words_approved,omitempty"`
	TenorApproved         int    `json:"tenor_approved,omitempty"`
	CollateralDeposit     string `json:"collateral_deposit"`
	Maturity              string `json:"maturity,omitempty"`
	DaysOverdue           int64  `json:"days_overdue,omitempty"`
	AppliedAt             string `json:"applied_at"`
	ApprovedAt            string `json:"approved_at,omitempty"`
	DisbursedAt           string `json:"disbursed_at,omitempty"`
}

// LoanActionsResponse lists what the acting user may do with a loan
type LoanActionsResponse struct {
	Status   string           `json:"status"`
	Actions  []string         `json:"actions"`
	Approval *ApprovalPrefill `json:"approval_prefill,omitempty"`
}

// ApprovalPrefill carries the approve-as-requested default terms
type ApprovalPrefill struct {
	AmountApproved        string `json:"amount_approved"`
	AmountInWordsApproved string `json:"amount_in_words_approved"`
	TenorApproved         int    `json:"tenor_approved"`
}

// InstallmentResponse represents a repayment installment in API responses
type InstallmentResponse struct {
	ID            string `json:"id"`
	Interest      string `json:"interest"`
	MonitoringFee string `json:"monitoring_fee"`
	ProcessingFee string `json:"processing_fee"`
	Principal     string `json:"principal"`
	Total         string `json:"total"`
	TotalPaid     string `json:"total_paid"`
	TotalDue      string `json:"total_due"`
	Status        string `json:"status"`
	MaturityDate  string `json:"maturity_date"`
	PaymentDate   string `json:"payment_date,omitempty"`
}

// TransactionResponse represents a transaction in API responses
type TransactionResponse struct {
	ID           string `json:"id"`
	TrxNo        string `json:"trx_no"`
	AccountID    string `json:"account_id"`
	Type         string `json:"type"`
	Direction    string `json:"direction"`
	Amount       string `json:"amount"`
	BalanceAfter string `json:"balance_after"`
	Description  string `json:"description,omitempty"`
	TrxDate      string `json:"trx_date"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=10" binding:"min=1,max=100"`
}
