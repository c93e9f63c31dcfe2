package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dlemaitre/billingcore/internal/application/service"
	"github.com/dlemaitre/billingcore/internal/domain/document"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	invoiceService  service.InvoiceService
	contractService service.ContractService
	exportService   service.ExportService
	logger          Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	invoiceService service.InvoiceService,
	contractService service.ContractService,
	exportService service.ExportService,
	logger Logger,
) *Handlers {
	return &Handlers{
		invoiceService:  invoiceService,
		contractService: contractService,
		exportService:   exportService,
		logger:          logger,
	}
}

// Response represents the uniform JSON envelope. Expected failures surface
// here as {success: false, error}; callers never need exception handling.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// PayInvoiceRequest carries the payment amount
type PayInvoiceRequest struct {
	PaidAmount float64 `json:"paid_amount"`
}

// ListRequest represents pagination query parameters
type ListRequest struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

func (r *ListRequest) normalize() {
	if r.Limit <= 0 || r.Limit > 100 {
		r.Limit = 20
	}
	if r.Offset < 0 {
		r.Offset = 0
	}
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

// CreateInvoice handles POST /api/invoices
func (h *Handlers) CreateInvoice(c *gin.Context) {
	var req service.CreateInvoiceInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}

	inv, err := h.invoiceService.Create(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: inv})
}

// ListInvoices handles GET /api/invoices
func (h *Handlers) ListInvoices(c *gin.Context) {
	var req ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.badRequest(c, "invalid query parameters")
		return
	}
	req.normalize()

	invoices, err := h.invoiceService.List(c.Request.Context(), req.Limit, req.Offset)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: invoices})
}

// GetInvoice handles GET /api/invoices/:id
func (h *Handlers) GetInvoice(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	inv, err := h.invoiceService.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: inv})
}

// SendInvoice handles POST /api/invoices/:id/send
func (h *Handlers) SendInvoice(c *gin.Context) {
	h.invoiceTransition(c, h.invoiceService.MarkSent)
}

// ViewInvoice handles POST /api/invoices/:id/view
func (h *Handlers) ViewInvoice(c *gin.Context) {
	h.invoiceTransition(c, h.invoiceService.MarkViewed)
}

// CancelInvoice handles POST /api/invoices/:id/cancel
func (h *Handlers) CancelInvoice(c *gin.Context) {
	h.invoiceTransition(c, h.invoiceService.Cancel)
}

// PayInvoice handles POST /api/invoices/:id/pay
func (h *Handlers) PayInvoice(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var req PayInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}

	inv, err := h.invoiceService.MarkPaid(c.Request.Context(), id, req.PaidAmount)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: inv})
}

// ExportInvoices handles GET /api/invoices/export
func (h *Handlers) ExportInvoices(c *gin.Context) {
	format := c.DefaultQuery("format", "xlsx")

	switch format {
	case "xlsx":
		data, err := h.exportService.InvoiceRegisterXLSX(c.Request.Context())
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="invoices.xlsx"`)
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
	case "csv":
		data, err := h.exportService.InvoiceRegisterCSV(c.Request.Context())
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="invoices.csv"`)
		c.Data(http.StatusOK, "text/csv", data)
	default:
		h.badRequest(c, "unsupported export format")
	}
}

// CreateContract handles POST /api/contracts
func (h *Handlers) CreateContract(c *gin.Context) {
	var req service.CreateContractInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}

	contract, err := h.contractService.Create(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: contract})
}

// ListContracts handles GET /api/contracts
func (h *Handlers) ListContracts(c *gin.Context) {
	var req ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.badRequest(c, "invalid query parameters")
		return
	}
	req.normalize()

	contracts, err := h.contractService.List(c.Request.Context(), req.Limit, req.Offset)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: contracts})
}

// GetContract handles GET /api/contracts/:id
func (h *Handlers) GetContract(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	contract, err := h.contractService.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: contract})
}

// SendContract handles POST /api/contracts/:id/send
func (h *Handlers) SendContract(c *gin.Context) {
	h.contractTransition(c, h.contractService.SendForSignature)
}

// ActivateContract handles POST /api/contracts/:id/activate
func (h *Handlers) ActivateContract(c *gin.Context) {
	h.contractTransition(c, h.contractService.Activate)
}

// CancelContract handles POST /api/contracts/:id/cancel
func (h *Handlers) CancelContract(c *gin.Context) {
	h.contractTransition(c, h.contractService.Cancel)
}

// SignSignature handles POST /api/contracts/:id/signatures/:sid/sign
func (h *Handlers) SignSignature(c *gin.Context) {
	contractID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	signatureID, ok := h.pathID(c, "sid")
	if !ok {
		return
	}

	var req service.SignSignatureInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}
	if req.IPAddress == "" {
		req.IPAddress = c.ClientIP()
	}
	if req.UserAgent == "" {
		req.UserAgent = c.Request.UserAgent()
	}

	sig, err := h.contractService.SignSignature(c.Request.Context(), contractID, signatureID, req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: sig})
}

// invoiceTransition runs a status transition and renders the updated invoice
func (h *Handlers) invoiceTransition(c *gin.Context, op func(ctx context.Context, id int64) (*document.Invoice, error)) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	inv, err := op(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: inv})
}

// contractTransition runs a status transition and renders the updated contract
func (h *Handlers) contractTransition(c *gin.Context, op func(ctx context.Context, id int64) (*document.Contract, error)) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	contract, err := op(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: contract})
}

// pathID parses a numeric path parameter, responding with a 400 on failure
func (h *Handlers) pathID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		h.badRequest(c, "invalid "+name+" parameter")
		return 0, false
	}
	return id, true
}

func (h *Handlers) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: msg})
}

// respondError maps domain errors onto HTTP statuses. Storage and unknown
// errors are logged with detail and surfaced as an opaque message.
func (h *Handlers) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, document.ErrNotFound):
		c.JSON(http.StatusNotFound, Response{Success: false, Error: err.Error()})
	case errors.Is(err, document.ErrValidation):
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
	case errors.Is(err, document.ErrPrecondition):
		c.JSON(http.StatusConflict, Response{Success: false, Error: err.Error()})
	case errors.Is(err, document.ErrConflict):
		c.JSON(http.StatusConflict, Response{Success: false, Error: err.Error()})
	case errors.Is(err, document.ErrUnauthorized):
		c.JSON(http.StatusForbidden, Response{Success: false, Error: err.Error()})
	default:
		h.logger.Error("Request failed", "error", err, "path", c.Request.URL.Path, "request_id", GetRequestID(c))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "internal error"})
	}
}
