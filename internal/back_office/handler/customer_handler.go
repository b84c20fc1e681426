package handler

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/microfin-loan-office/internal/back_office/service"
	"github.com/microfin-loan-office/internal/domain/customer"
)

// CustomerHandler handles HTTP requests for customer operations
type CustomerHandler struct {
	customerService service.CustomerService
	logger          *slog.Logger
}

// NewCustomerHandler creates a new customer handler
func NewCustomerHandler(logger *slog.Logger, customerService service.CustomerService) *CustomerHandler {
	return &CustomerHandler{
		customerService: customerService,
		logger:          logger,
	}
}

// Create handles customer registration, checking for duplicate phone numbers
func (h *CustomerHandler) Create(c *gin.Context) {
	var req CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	cust, err := h.customerService.CreateCustomer(c.Request.Context(), service.CreateCustomerInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		Email:       req.Email,
		Address:     req.Address,
		BVN:         req.BVN,
	})
	if err != nil {
		var duplicatePhone customer.ErrDuplicatePhoneNumber
		if errors.As(err, &duplicatePhone) {
			h.logger.Warn("Attempt to register duplicate phone number", "phone_number", duplicatePhone.PhoneNumber)
			RespondConflict(c, "Customer with this phone number already exists")
			return
		}
		if errors.Is(err, customer.ErrEmptyName) || errors.Is(err, customer.ErrInvalidPhoneNumber) {
			RespondBadRequest(c, err.Error())
			return
		}
		h.logger.Error("Failed to register customer", "error", err)
		RespondInternalError(c)
		return
	}

	RespondCreated(c, mapCustomerToResponse(cust))
}

// GetByID retrieves a customer by ID, returning 404 if not found
func (h *CustomerHandler) GetByID(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid customer ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid customer ID")
		return
	}

	cust, err := h.customerService.GetCustomerByID(c.Request.Context(), id)
	if err != nil {
		var custNotFound customer.ErrCustomerNotFound
		if errors.As(err, &custNotFound) {
			RespondNotFound(c, "Customer not found")
			return
		}
		h.logger.Error("Failed to get customer", "id", idParam, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapCustomerToResponse(cust))
}

// List retrieves a paginated list of customers
func (h *CustomerHandler) List(c *gin.Context) {
	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters: "+err.Error())
		return
	}

	customers, err := h.customerService.ListCustomers(c.Request.Context(), pagination.Page, pagination.PerPage)
	if err != nil {
		h.logger.Error("Failed to list customers", "error", err)
		RespondInternalError(c)
		return
	}

	responses := make([]CustomerResponse, 0, len(customers))
	for i := range customers {
		responses = append(responses, mapCustomerToResponse(&customers[i]))
	}
	RespondOK(c, responses)
}

// mapCustomerToResponse maps a customer entity to a customer response DTO
func mapCustomerToResponse(cust *customer.Customer) CustomerResponse {
	return CustomerResponse{
		ID:          cust.ID.String(),
		FirstName:   cust.FirstName,
		LastName:    cust.LastName,
		PhoneNumber: cust.PhoneNumber,
		Email:       cust.Email,
		Address:     cust.Address,
		LoanCycle:   cust.LoanCycle,
		CreatedAt:   cust.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   cust.UpdatedAt.Format(time.RFC3339),
	}
}
