package notification

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Common errors
var (
	ErrMissingAccount   = errors.New("no account associated with notification")
	ErrMissingRecipient = errors.New("notification recipient phone number is empty")
)

// Alert is a customer notification queued for SMS delivery
type Alert struct {
	ID          uuid.UUID `json:"id"`
	CustomerID  uuid.UUID `json:"customer_id"`
	Recipient   string    `json:"recipient"`
	Message     string    `json:"message"`
	ReferenceID uuid.UUID `json:"reference_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// TransactionDetails carries everything needed to render an account alert
type TransactionDetails struct {
	AccountNumber string
	TypeLabel     string
	Amount        decimal.Decimal
	PriorBalance  decimal.Decimal
	OccurredAt    time.Time
}

// BuildTransactionMessage renders the standard account alert text: masked
// account number, transaction type label, amount and resulting balance to
// two decimal places with thousands separators, and a 24-hour timestamp.
func BuildTransactionMessage(d TransactionDetails) (string, error) {
	if d.AccountNumber == "" {
		return "", ErrMissingAccount
	}

	balance := d.PriorBalance.Add(d.Amount)
	return fmt.Sprintf("Acct: %s\nTrx Type: %s\nAmount: NGN%s\nBalance: NGN%s\nDate: %s",
		MaskAccountNumber(d.AccountNumber),
		d.TypeLabel,
		FormatAmount(d.Amount),
		FormatAmount(balance),
		FormatTimestamp(d.OccurredAt),
	), nil
}

// NewDisbursementAlert builds the alert sent when an approved loan is paid
// into the customer's savings account.
func NewDisbursementAlert(customerID, loanID uuid.UUID, recipient string, d TransactionDetails) (*Alert, error) {
	if recipient == "" {
		return nil, ErrMissingRecipient
	}
	d.TypeLabel = "Loan Disbursement"
	message, err := BuildTransactionMessage(d)
	if err != nil {
		return nil, err
	}

	return &Alert{
		ID:          uuid.New(),
		CustomerID:  customerID,
		Recipient:   recipient,
		Message:     message,
		ReferenceID: loanID,
		CreatedAt:   time.Now(),
	}, nil
}

// NewTransactionAlert builds the alert sent for a savings deposit or
// withdrawal.
func NewTransactionAlert(customerID, transactionID uuid.UUID, recipient string, d TransactionDetails) (*Alert, error) {
	if recipient == "" {
		return nil, ErrMissingRecipient
	}
	message, err := BuildTransactionMessage(d)
	if err != nil {
		return nil, err
	}

	return &Alert{
		ID:          uuid.New(),
		CustomerID:  customerID,
		Recipient:   recipient,
		Message:     message,
		ReferenceID: transactionID,
		CreatedAt:   time.Now(),
	}, nil
}
