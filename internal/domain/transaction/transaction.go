package transaction

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/microfin-loan-office/internal/domain/shared"
)

// Transaction records a single balance movement on a customer account. The
// history lives in MongoDB; amounts are stored as decimal strings to avoid
// float drift.
type Transaction struct {
	ID            uuid.UUID        `json:"id" bson:"id"`
	TrxNo         string           `json:"trx_no" bson:"trx_no"`
	AccountID     uuid.UUID        `json:"account_id" bson:"account_id"`
	CustomerID    uuid.UUID        `json:"customer_id" bson:"customer_id"`
	Type          shared.TrxType   `json:"type" bson:"type"`
	Direction     shared.Direction `json:"direction" bson:"direction"`
	Amount        string           `json:"amount" bson:"amount"`
	BalanceAfter  string           `json:"balance_after" bson:"balance_after"`
	Description   string           `json:"description,omitempty" bson:"description,omitempty"`
	ReferenceID   *uuid.UUID       `json:"reference_id,omitempty" bson:"reference_id,omitempty"`
	CorrelationID string           `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	TrxDate       time.Time        `json:"trx_date" bson:"trx_date"`
}

// New builds a transaction record for a completed balance movement.
// referenceID links back to the originating loan or installment when there
// is one.
func New(accountID, customerID uuid.UUID, trxType shared.TrxType, amount, balanceAfter decimal.Decimal, description string, referenceID *uuid.UUID) *Transaction {
	return &Transaction{
		ID:           uuid.New(),
		TrxNo:        NewTrxNo(),
		AccountID:    accountID,
		CustomerID:   customerID,
		Type:         trxType,
		Direction:    trxType.Direction(),
		Amount:       amount.String(),
		BalanceAfter: balanceAfter.String(),
		Description:  description,
		ReferenceID:  referenceID,
		TrxDate:      time.Now(),
	}
}

// AmountDecimal parses the stored amount
func (t *Transaction) AmountDecimal() (decimal.Decimal, error) {
	return decimal.NewFromString(t.Amount)
}

// NewTrxNo generates a reference like TRX-20260302-483920175. Uniqueness is
// enforced by the unique index on the collection.
func NewTrxNo() string {
	max := big.NewInt(1_000_000_000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		panic(fmt.Sprintf("transaction number generation: %v", err))
	}
	return fmt.Sprintf("TRX-%s-%09d", time.Now().Format("20060102"), n)
}
