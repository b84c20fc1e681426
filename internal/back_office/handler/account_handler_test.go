package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/microfin-loan-office/internal/back_office/service"
	"github.com/microfin-loan-office/internal/domain/account"
	"github.com/microfin-loan-office/internal/domain/customer"
)

type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) OpenAccount(ctx context.Context, customerID uuid.UUID, accountType account.Type) (*account.Account, error) {
	args := m.Called(ctx, customerID, accountType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountService) GetAccountByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountService) ListAccountsByCustomer(ctx context.Context, customerID uuid.UUID) ([]account.Account, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]account.Account), args.Error(1)
}

func (m *MockAccountService) Deposit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, description string) (*account.Account, error) {
	args := m.Called(ctx, accountID, amount, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountService) Withdraw(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, description string) (*account.Account, error) {
	args := m.Called(ctx, accountID, amount, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func sampleStoredAccount(balance int64) *account.Account {
	now := time.Now()
	return &account.Account{
		ID:            uuid.New(),
		AccountNumber: "2045678913",
		CustomerID:    uuid.New(),
		Type:          account.TypeSavings,
		Status:        account.StatusActive,
		Balance:       decimal.NewFromInt(balance),
		LoanCycle:     0,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestAccountHandler_Create(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAccountHandler(logger, mockService)

		expected := sampleStoredAccount(0)
		mockService.On("OpenAccount", mock.Anything, expected.CustomerID, account.TypeSavings).
			Return(expected, nil)

		router := setupTestRouter()
		router.POST("/accounts", handler.Create)

		reqBody := OpenAccountRequest{
			CustomerID: expected.CustomerID.String(),
			Type:       "SAVINGS",
		}
		jsonBody, _ := json.Marshal(reqBody)

		req, _ := http.NewRequest(http.MethodPost, "/accounts", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)

		var responseBody AccountResponse
		decodeData(t, rr.Body.Bytes(), &responseBody)
		assert.Equal(t, expected.ID.String(), responseBody.ID)
		assert.Equal(t, expected.AccountNumber, responseBody.AccountNumber)
		assert.Equal(t, "SAVINGS", responseBody.Type)
		assert.Equal(t, "0", responseBody.Balance)

		mockService.AssertExpectations(t)
	})

	t.Run("RejectsUnknownType", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAccountHandler(logger, mockService)

		router := setupTestRouter()
		router.POST("/accounts", handler.Create)

		jsonBody, _ := json.Marshal(OpenAccountRequest{
			CustomerID: uuid.New().String(),
			Type:       "LOAN",
		})

		req, _ := http.NewRequest(http.MethodPost, "/accounts", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("CustomerNotFound", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAccountHandler(logger, mockService)

		customerID := uuid.New()
		mockService.On("OpenAccount", mock.Anything, customerID, account.TypeCollateralDeposit).
			Return(nil, customer.ErrCustomerNotFound{ID: customerID})

		router := setupTestRouter()
		router.POST("/accounts", handler.Create)

		jsonBody, _ := json.Marshal(OpenAccountRequest{
			CustomerID: customerID.String(),
			Type:       "COLLATERAL_DEPOSIT",
		})

		req, _ := http.NewRequest(http.MethodPost, "/accounts", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		mockService.AssertExpectations(t)
	})
}

func TestAccountHandler_GetByID(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAccountHandler(logger, mockService)

		expected := sampleStoredAccount(25000)
		mockService.On("GetAccountByID", mock.Anything, expected.ID).Return(expected, nil)

		router := setupTestRouter()
		router.GET("/accounts/:id", handler.GetByID)

		req, _ := http.NewRequest(http.MethodGet, "/accounts/"+expected.ID.String(), nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var responseBody AccountResponse
		decodeData(t, rr.Body.Bytes(), &responseBody)
		assert.Equal(t, expected.ID.String(), responseBody.ID)
		assert.Equal(t, "25000", responseBody.Balance)

		mockService.AssertExpectations(t)
	})

	t.Run("InvalidUUID", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAccountHandler(logger, mockService)

		router := setupTestRouter()
		router.GET("/accounts/:id", handler.GetByID)

		req, _ := http.NewRequest(http.MethodGet, "/accounts/not-a-uuid", nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("AccountNotFound", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAccountHandler(logger, mockService)

		accountID := uuid.New()
		mockService.On("GetAccountByID", mock.Anything, accountID).
			Return(nil, account.ErrAccountNotFound{AccountID: accountID})

		router := setupTestRouter()
		router.GET("/accounts/:id", handler.GetByID)

		req, _ := http.NewRequest(http.MethodGet, "/accounts/"+accountID.String(), nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		mockService.AssertExpectations(t)
	})
}

func TestAccountHandler_ListByCustomer(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAccountHandler(logger, mockService)

		customerID := uuid.New()
		savings := sampleStoredAccount(50000)
		savings.CustomerID = customerID
		collateral := sampleStoredAccount(10000)
		collateral.CustomerID = customerID
		collateral.Type = account.TypeCollateralDeposit
		mockService.On("ListAccountsByCustomer", mock.Anything, customerID).
			Return([]account.Account{*savings, *collateral}, nil)

		router := setupTestRouter()
		router.GET("/customers/:id/accounts", handler.ListByCustomer)

		req, _ := http.NewRequest(http.MethodGet, "/customers/"+customerID.String()+"/accounts", nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var responseBody []AccountResponse
		decodeData(t, rr.Body.Bytes(), &responseBody)
		require.Len(t, responseBody, 2)
		assert.Equal(t, "SAVINGS", responseBody[0].Type)
		assert.Equal(t, "COLLATERAL_DEPOSIT", responseBody[1].Type)

		mockService.AssertExpectations(t)
	})
}

func TestAccountHandler_Deposit(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAccountHandler(logger, mockService)

		expected := sampleStoredAccount(30000)
		amount := decimal.NewFromInt(5000)
		mockService.On("Deposit", mock.Anything, expected.ID, amount, "cash deposit").
			Return(expected, nil)

		router := setupTestRouter()
		router.POST("/accounts/:id/deposit", handler.Deposit)

		jsonBody, _ := json.Marshal(BalanceMovementRequest{Amount: "5000", Description: "cash deposit"})
		req, _ := http.NewRequest(http.MethodPost, "/accounts/"+expected.ID.String()+"/deposit", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var responseBody AccountResponse
		decodeData(t, rr.Body.Bytes(), &responseBody)
		assert.Equal(t, "30000", responseBody.Balance)

		mockService.AssertExpectations(t)
	})

	t.Run("RejectsNonPositiveAmount", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAccountHandler(logger, mockService)

		router := setupTestRouter()
		router.POST("/accounts/:id/deposit", handler.Deposit)

		jsonBody, _ := json.Marshal(BalanceMovementRequest{Amount: "-100"})
		req, _ := http.NewRequest(http.MethodPost, "/accounts/"+uuid.New().String()+"/deposit", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertExpectations(t)
	})
}

func TestAccountHandler_Withdraw(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	t.Run("InsufficientFunds", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAccountHandler(logger, mockService)

		accountID := uuid.New()
		amount := decimal.NewFromInt(100000)
		mockService.On("Withdraw", mock.Anything, accountID, amount, "").
			Return(nil, account.ErrInsufficientFunds)

		router := setupTestRouter()
		router.POST("/accounts/:id/withdraw", handler.Withdraw)

		jsonBody, _ := json.Marshal(BalanceMovementRequest{Amount: "100000"})
		req, _ := http.NewRequest(http.MethodPost, "/accounts/"+accountID.String()+"/withdraw", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

		var response Response
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
		require.NotNil(t, response.Error)
		assert.Equal(t, "VALIDATION_ERROR", response.Error.Code)

		mockService.AssertExpectations(t)
	})

	t.Run("ServiceError", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAccountHandler(logger, mockService)

		accountID := uuid.New()
		mockService.On("Withdraw", mock.Anything, accountID, decimal.NewFromInt(500), "").
			Return(nil, errors.New("database connection lost"))

		router := setupTestRouter()
		router.POST("/accounts/:id/withdraw", handler.Withdraw)

		jsonBody, _ := json.Marshal(BalanceMovementRequest{Amount: "500"})
		req, _ := http.NewRequest(http.MethodPost, "/accounts/"+accountID.String()+"/withdraw", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		mockService.AssertExpectations(t)
	})
}

var _ service.AccountService = (*MockAccountService)(nil)
