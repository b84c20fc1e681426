package transaction

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository manages transaction history persistence with pagination support
type Repository interface {
	Create(ctx context.Context, trx *Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	GetByTrxNo(ctx context.Context, trxNo string) (*Transaction, error)
	GetByAccountID(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*Transaction, error)
	CountByAccountID(ctx context.Context, accountID uuid.UUID) (int64, error)
	GetByTimeRange(ctx context.Context, startTime, endTime time.Time, limit, offset int) ([]*Transaction, error)
}

// ErrTransactionNotFound indicates missing transaction record
type ErrTransactionNotFound struct {
	ID uuid.UUID
}

func (e ErrTransactionNotFound) Error() string {
	return "transaction not found: " + e.ID.String()
}

// Is matches any ErrTransactionNotFound when the target carries a nil ID
func (e ErrTransactionNotFound) Is(target error) bool {
	t, ok := target.(ErrTransactionNotFound)
	if !ok {
		return false
	}
	if t.ID == uuid.Nil {
		return true
	}
	return e.ID == t.ID
}

// ErrDuplicateTransaction indicates transaction number uniqueness violation
type ErrDuplicateTransaction struct {
	TrxNo string
}

func (e ErrDuplicateTransaction) Error() string {
	return "duplicate transaction: " + e.TrxNo
}
