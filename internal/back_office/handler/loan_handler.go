package handler

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/microfin-loan-office/internal/back_office/middleware"
	"github.com/microfin-loan-office/internal/back_office/service"
	"github.com/microfin-loan-office/internal/domain/account"
	"github.com/microfin-loan-office/internal/domain/customer"
	"github.com/microfin-loan-office/internal/domain/loan"
	"github.com/microfin-loan-office/internal/domain/repayment"
)

// LoanHandler handles HTTP requests for the loan lifecycle
type LoanHandler struct {
	loanService service.LoanService
	logger      *slog.Logger
}

// NewLoanHandler creates a new loan handler
func NewLoanHandler(logger *slog.Logger, loanService service.LoanService) *LoanHandler {
	return &LoanHandler{
		loanService: loanService,
		logger:      logger,
	}
}

// Apply handles a new loan application
func (h *LoanHandler) Apply(c *gin.Context) {
	var req ApplyLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	customerID, _ := uuid.Parse(req.CustomerID)
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		RespondBadRequest(c, "amount must be a positive decimal")
		return
	}

	app, err := h.loanService.Apply(c.Request.Context(), service.ApplyInput{
		CustomerID:    customerID,
		AppliedByID:   middleware.GetUserID(c),
		Amount:        amount,
		AmountInWords: req.AmountInWords,
		Tenor:         req.Tenor,
	})
	if err != nil {
		h.respondLoanError(c, err)
		return
	}

	RespondCreated(c, mapLoanToResponse(app))
}

// GetByID retrieves a loan application
func (h *LoanHandler) GetByID(c *gin.Context) {
	id, ok := h.loanID(c)
	if !ok {
		return
	}

	app, err := h.loanService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.respondLoanError(c, err)
		return
	}

	RespondOK(c, mapLoanToResponse(app))
}

// List retrieves loan applications, optionally filtered by customer and status
func (h *LoanHandler) List(c *gin.Context) {
	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters: "+err.Error())
		return
	}

	filter := loan.ListFilter{
		Limit:  int32(pagination.PerPage),
		Offset: int32((pagination.Page - 1) * pagination.PerPage),
	}
	if raw := c.Query("customer_id"); raw != "" {
		customerID, err := uuid.Parse(raw)
		if err != nil {
			RespondBadRequest(c, "Invalid customer_id")
			return
		}
		filter.CustomerID = customerID
	}
	if raw := c.Query("status"); raw != "" {
		filter.Statuses = []loan.Status{loan.Status(raw)}
	}

	apps, err := h.loanService.List(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list loans", "error", err)
		RespondInternalError(c)
		return
	}

	responses := make([]LoanResponse, 0, len(apps))
	for i := range apps {
		responses = append(responses, mapLoanToResponse(&apps[i]))
	}
	RespondOK(c, responses)
}

// Actions reports the lifecycle actions the acting user may take on the loan
func (h *LoanHandler) Actions(c *gin.Context) {
	id, ok := h.loanID(c)
	if !ok {
		return
	}

	app, err := h.loanService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.respondLoanError(c, err)
		return
	}

	actions, prefill, err := h.loanService.PermittedActions(c.Request.Context(), id, middleware.GetUserRole(c))
	if err != nil {
		h.respondLoanError(c, err)
		return
	}

	resp := LoanActionsResponse{
		Status:  string(app.Status),
		Actions: make([]string, 0, len(actions)),
	}
	for _, a := range actions {
		resp.Actions = append(resp.Actions, string(a))
	}
	if prefill != nil {
		resp.Approval = &ApprovalPrefill{
			AmountApproved:        prefill.AmountApproved.String(),
			AmountInWordsApproved: prefill.AmountInWordsApproved,
			TenorApproved:         prefill.TenorApproved,
		}
	}
	RespondOK(c, resp)
}

// Approve fixes the approval terms on a pending application
func (h *LoanHandler) Approve(c *gin.Context) {
	id, ok := h.loanID(c)
	if !ok {
		return
	}

	var req ApproveLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	amount, err := decimal.NewFromString(req.AmountApproved)
	if err != nil {
		RespondBadRequest(c, "amount_approved must be a decimal")
		return
	}

	app, err := h.loanService.Approve(c.Request.Context(), id, h.actor(c), loan.ApprovalInput{
		AmountApproved:        amount,
		AmountInWordsApproved: req.AmountInWordsApproved,
		TenorApproved:         req.TenorApproved,
	})
	if err != nil {
		h.respondLoanError(c, err)
		return
	}

	RespondOK(c, mapLoanToResponse(app))
}

// Reject moves a loan to REJECTED
func (h *LoanHandler) Reject(c *gin.Context) {
	id, ok := h.loanID(c)
	if !ok {
		return
	}

	var req RejectLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	app, err := h.loanService.Reject(c.Request.Context(), id, h.actor(c), loan.RejectionInput{
		Type:   loan.RejectionType(req.Type),
		Reason: req.Reason,
	})
	if err != nil {
		h.respondLoanError(c, err)
		return
	}

	RespondOK(c, mapLoanToResponse(app))
}

// Disburse pays out an approved loan
func (h *LoanHandler) Disburse(c *gin.Context) {
	id, ok := h.loanID(c)
	if !ok {
		return
	}

	app, err := h.loanService.Disburse(c.Request.Context(), id, h.actor(c))
	if err != nil {
		h.respondLoanError(c, err)
		return
	}

	RespondOK(c, mapLoanToResponse(app))
}

// Liquidate settles a running loan early
func (h *LoanHandler) Liquidate(c *gin.Context) {
	id, ok := h.loanID(c)
	if !ok {
		return
	}

	var req LiquidateLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	app, err := h.loanService.Liquidate(c.Request.Context(), id, h.actor(c), loan.LiquidationInput{
		MonthsCharged: req.MonthsCharged,
		Reason:        req.Reason,
	})
	if err != nil {
		h.respondLoanError(c, err)
		return
	}

	RespondOK(c, mapLoanToResponse(app))
}

// Schedule returns the loan's repayment schedule
func (h *LoanHandler) Schedule(c *gin.Context) {
	id, ok := h.loanID(c)
	if !ok {
		return
	}

	schedule, err := h.loanService.GetSchedule(c.Request.Context(), id)
	if err != nil {
		h.respondLoanError(c, err)
		return
	}

	responses := make([]InstallmentResponse, 0, len(schedule))
	for i := range schedule {
		responses = append(responses, mapInstallmentToResponse(&schedule[i]))
	}
	RespondOK(c, responses)
}

func (h *LoanHandler) loanID(c *gin.Context) (uuid.UUID, bool) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid loan ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid loan ID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *LoanHandler) actor(c *gin.Context) service.Actor {
	return service.Actor{
		ID:   middleware.GetUserID(c),
		Role: middleware.GetUserRole(c),
	}
}

// respondLoanError maps domain errors onto HTTP status codes
func (h *LoanHandler) respondLoanError(c *gin.Context, err error) {
	var verr loan.ValidationError
	if errors.As(err, &verr) {
		RespondUnprocessable(c, verr.Error())
		return
	}
	var appNotFound loan.ErrApplicationNotFound
	if errors.As(err, &appNotFound) {
		RespondNotFound(c, "Loan application not found")
		return
	}
	var custNotFound customer.ErrCustomerNotFound
	if errors.As(err, &custNotFound) {
		RespondNotFound(c, "Customer not found")
		return
	}
	var stale loan.ErrStaleStatus
	if errors.As(err, &stale) {
		RespondConflict(c, "Loan is no longer in the expected status")
		return
	}
	switch {
	case errors.Is(err, loan.ErrRunningLoanExists):
		RespondConflict(c, "Customer already has a running loan")
	case errors.Is(err, loan.ErrShortCollateral):
		RespondUnprocessable(c, "Collateral deposit below required minimum")
	case errors.Is(err, account.ErrInsufficientFunds):
		RespondUnprocessable(c, "Savings balance does not cover the payoff")
	case errors.Is(err, loan.ErrInvalidAmount), errors.Is(err, loan.ErrInvalidTenor), errors.Is(err, loan.ErrEmptyAmountWords):
		RespondBadRequest(c, err.Error())
	default:
		h.logger.Error("Loan operation failed", "error", err)
		RespondInternalError(c)
	}
}

// mapLoanToResponse maps a loan application to its response DTO
func mapLoanToResponse(app *loan.Application) LoanResponse {
	resp := LoanResponse{
		ID:                    app.ID.String(),
		CustomerID:            app.CustomerID.String(),
		Amount:                app.Amount.String(),
		AmountInWords:         app.AmountInWords,
		Tenor:                 app.Tenor,
		Status:                string(app.Status),
		AmountInWordsApproved: app.AmountInWordsApproved,
		TenorApproved:         app.TenorApproved,
		CollateralDeposit:     app.CollateralDeposit.String(),
		DaysOverdue:           app.DaysOverdue,
		AppliedAt:             app.AppliedAt.Format(time.RFC3339),
	}
	if !app.AmountApproved.IsZero() {
		resp.AmountApproved = app.AmountApproved.String()
	}
	if app.Maturity != nil {
		resp.Maturity = app.Maturity.Format(time.RFC3339)
	}
	if app.ApprovedAt != nil {
		resp.ApprovedAt = app.ApprovedAt.Format(time.RFC3339)
	}
	if app.DisbursedAt != nil {
		resp.DisbursedAt = app.DisbursedAt.Format(time.RFC3339)
	}
	return resp
}

// mapInstallmentToResponse maps an installment to its response DTO
func mapInstallmentToResponse(inst *repayment.Installment) InstallmentResponse {
	resp := InstallmentResponse{
		ID:            inst.ID.String(),
		Interest:      inst.Interest.String(),
		MonitoringFee: inst.MonitoringFee.String(),
		ProcessingFee: inst.ProcessingFee.String(),
		Principal:     inst.Principal.String(),
		Total:         inst.Total.String(),
		TotalPaid:     inst.TotalPaid.String(),
		TotalDue:      inst.TotalDue.String(),
		Status:        string(inst.Status),
		MaturityDate:  inst.MaturityDate.Format(time.RFC3339),
	}
	if inst.PaymentDate != nil {
		resp.PaymentDate = inst.PaymentDate.Format(time.RFC3339)
	}
	return resp
}
