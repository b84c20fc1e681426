package customer

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines customer persistence operations
type Repository interface {
	Create(ctx context.Context, customer *Customer) error
	GetByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	GetByPhoneNumber(ctx context.Context, phoneNumber string) (*Customer, error)
	Update(ctx context.Context, customer *Customer) error
	List(ctx context.Context, limit, offset int) ([]Customer, error)

	// IncrementLoanCycle records a completed borrowing round
	IncrementLoanCycle(ctx context.Context, id uuid.UUID) error
	WithTx(tx pgx.Tx) Repository
}

// ErrCustomerNotFound indicates missing customer
type ErrCustomerNotFound struct {
	ID uuid.UUID
}

func (e ErrCustomerNotFound) Error() string {
	return "customer not found: " + e.ID.String()
}

// ErrDuplicatePhoneNumber indicates a phone number already in use
type ErrDuplicatePhoneNumber struct {
	PhoneNumber string
}

func (e ErrDuplicatePhoneNumber) Error() string {
	return "phone number already registered: " + e.PhoneNumber
}
