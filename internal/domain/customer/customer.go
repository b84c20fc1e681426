package customer

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrEmptyName          = errors.New("customer name cannot be empty")
	ErrInvalidPhoneNumber = errors.New("phone number must contain 10 to 15 digits")
)

// Customer represents a registered microfinance customer
type Customer struct {
	ID          uuid.UUID `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	PhoneNumber string    `json:"phone_number"`
	Email       string    `json:"email,omitempty"`
	Address     string    `json:"address,omitempty"`
	BVN         string    `json:"bvn,omitempty"`
	LoanCycle   int       `json:"loan_cycle"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewCustomer creates a new customer with the given parameters
func NewCustomer(firstName, lastName, phoneNumber, email, address, bvn string) (*Customer, error) {
	if strings.TrimSpace(firstName) == "" || strings.TrimSpace(lastName) == "" {
		return nil, ErrEmptyName
	}
	if !validPhoneNumber(phoneNumber) {
		return nil, ErrInvalidPhoneNumber
	}

	now := time.Now()
	return &Customer{
		ID:          uuid.New(),
		FirstName:   firstName,
		LastName:    lastName,
		PhoneNumber: phoneNumber,
		Email:       email,
		Address:     address,
		BVN:         bvn,
		LoanCycle:   0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// FullName returns the customer's display name
func (c *Customer) FullName() string {
	return c.FirstName + " " + c.LastName
}

func validPhoneNumber(phone string) bool {
	digits := 0
	for i, r := range phone {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '+' && i == 0:
		default:
			return false
		}
	}
	return digits >= 10 && digits <= 15
}
