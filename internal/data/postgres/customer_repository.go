package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/microfin-loan-office/internal/domain/customer"
	"github.com/microfin-loan-office/internal/platform/persistence"
)

// CustomerRepository implements the customer.Repository interface for PostgreSQL
type CustomerRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewCustomerRepository creates a new PostgreSQL customer repository
func NewCustomerRepository(logger *slog.Logger, db *persistence.PostgresDB) customer.Repository {
	return &CustomerRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction for atomic operations
func (r *CustomerRepository) WithTx(tx pgx.Tx) customer.Repository {
	return &CustomerRepository{
		querier: tx,
		logger:  r.logger,
	}
}

const customerColumns = `id, first_name, last_name, phone_number, email, address, bvn, loan_cycle, created_at, updated_at`

func scanCustomer(row pgx.Row) (*customer.Customer, error) {
	var c customer.Customer
	err := row.Scan(
		&c.ID,
		&c.FirstName,
		&c.LastName,
		&c.PhoneNumber,
		&c.Email,
		&c.Address,
		&c.BVN,
		&c.LoanCycle,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create stores a new customer. A duplicate phone number returns
// ErrDuplicatePhoneNumber.
func (r *CustomerRepository) Create(ctx context.Context, c *customer.Customer) error {
	query := `
		INSERT INTO customers (id, first_name, last_name, phone_number, email, address, bvn, loan_cycle, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.querier.Exec(ctx, query,
		c.ID,
		c.FirstName,
		c.LastName,
		c.PhoneNumber,
		c.Email,
		c.Address,
		c.BVN,
		c.LoanCycle,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return customer.ErrDuplicatePhoneNumber{PhoneNumber: c.PhoneNumber}
		}
		r.logger.Error("Failed to create customer", "error", err)
		return fmt.Errorf("failed to create customer: %w", err)
	}

	return nil
}

// GetByID retrieves a customer by their ID
func (r *CustomerRepository) GetByID(ctx context.Context, id uuid.UUID) (*customer.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`

	c, err := scanCustomer(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, customer.ErrCustomerNotFound{ID: id}
		}
		r.logger.Error("Failed to get customer", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	return c, nil
}

// GetByPhoneNumber retrieves a customer by their phone number
func (r *CustomerRepository) GetByPhoneNumber(ctx context.Context, phoneNumber string) (*customer.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE phone_number = $1`

	c, err := scanCustomer(r.querier.QueryRow(ctx, query, phoneNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // No customer with the given phone number
		}
		r.logger.Error("Failed to get customer by phone number", "phoneNumber", phoneNumber, "error", err)
		return nil, fmt.Errorf("failed to get customer by phone number: %w", err)
	}

	return c, nil
}

// Update updates an existing customer
func (r *CustomerRepository) Update(ctx context.Context, c *customer.Customer) error {
	query := `
		UPDATE customers
		SET first_name = $1, last_name = $2, phone_number = $3, email = $4, address = $5, bvn = $6, updated_at = $7
		WHERE id = $8
	`

	result, err := r.querier.Exec(ctx, query,
		c.FirstName,
		c.LastName,
		c.PhoneNumber,
		c.Email,
		c.Address,
		c.BVN,
		c.UpdatedAt,
		c.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update customer", "id", c.ID.String(), "error", err)
		return fmt.Errorf("failed to update customer: %w", err)
	}

	if result.RowsAffected() == 0 {
		return customer.ErrCustomerNotFound{ID: c.ID}
	}

	return nil
}

// List retrieves customers ordered by registration time, newest first
func (r *CustomerRepository) List(ctx context.Context, limit, offset int) ([]customer.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.querier.Query(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list customers", "error", err)
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	var customers []customer.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over customers: %w", err)
	}

	return customers, nil
}

// IncrementLoanCycle records a completed borrowing round
func (r *CustomerRepository) IncrementLoanCycle(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE customers SET loan_cycle = loan_cycle + 1, updated_at = NOW() WHERE id = $1`

	result, err := r.querier.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to increment loan cycle", "id", id.String(), "error", err)
		return fmt.Errorf("failed to increment loan cycle: %w", err)
	}

	if result.RowsAffected() == 0 {
		return customer.ErrCustomerNotFound{ID: id}
	}

	return nil
}
