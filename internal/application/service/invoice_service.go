package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/dlemaitre/billingcore/internal/application/port"
	"github.com/dlemaitre/billingcore/internal/domain/document"
	"github.com/dlemaitre/billingcore/internal/domain/numbering"
	"github.com/dlemaitre/billingcore/internal/domain/workflow"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// numberAttempts bounds the create retry when a generated number collides
// with a concurrent insert. One retry; a second collision surfaces as a
// conflict to the caller.
const numberAttempts = 2

// LineItemInput describes one billable position on a new invoice
type LineItemInput struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

// CreateInvoiceInput carries the fields needed to create an invoice
type CreateInvoiceInput struct {
	ClientName string          `json:"client_name"`
	TaxRate    float64         `json:"tax_rate"`
	DueDate    *time.Time      `json:"due_date"`
	CreatedBy  string          `json:"created_by"`
	LineItems  []LineItemInput `json:"line_items"`
}

// InvoiceService manages the invoice document lifecycle
type InvoiceService interface {
	Create(ctx context.Context, in CreateInvoiceInput) (*document.Invoice, error)
	Get(ctx context.Context, id int64) (*document.Invoice, error)
	List(ctx context.Context, limit, offset int) ([]*document.Invoice, error)
	MarkSent(ctx context.Context, id int64) (*document.Invoice, error)
	MarkViewed(ctx context.Context, id int64) (*document.Invoice, error)
	MarkPaid(ctx context.Context, id int64, paidAmount float64) (*document.Invoice, error)
	MarkOverdue(ctx context.Context, id int64) (*document.Invoice, error)
	Cancel(ctx context.Context, id int64) (*document.Invoice, error)
}

type invoiceServiceImpl struct {
	invoiceRepo  port.InvoiceRepository
	lineItemRepo port.LineItemRepository
	txManager    port.TransactionManager
	clock        port.Clock
	logger       Logger
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	invoiceRepo port.InvoiceRepository,
	lineItemRepo port.LineItemRepository,
	txManager port.TransactionManager,
	clock port.Clock,
	logger Logger,
) InvoiceService {
	return &invoiceServiceImpl{
		invoiceRepo:  invoiceRepo,
		lineItemRepo: lineItemRepo,
		txManager:    txManager,
		clock:        clock,
		logger:       logger,
	}
}

// Create generates the next invoice number for the current year and inserts
// the invoice with its line items in one transaction. The number column's
// unique constraint backs the read-max-then-insert sequence; on a collision
// the whole transaction is retried once with a freshly read maximum.
func (s *invoiceServiceImpl) Create(ctx context.Context, in CreateInvoiceInput) (*document.Invoice, error) {
	if err := validateCreateInvoice(in); err != nil {
		return nil, err
	}

	now := s.clock.Now()

	var inv *document.Invoice
	var err error
	for attempt := 0; attempt < numberAttempts; attempt++ {
		err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
			last, lookupErr := s.invoiceRepo.MaxNumberInScope(txCtx, numbering.PrefixInvoice, now.Year())
			if lookupErr != nil {
				return fmt.Errorf("lookup max number: %w", lookupErr)
			}

			inv = &document.Invoice{
				Number:     numbering.Next(numbering.PrefixInvoice, now.Year(), last),
				ClientName: in.ClientName,
				Status:     document.InvoiceStatusDraft,
				IssueDate:  now,
				DueDate:    in.DueDate,
				TaxRate:    in.TaxRate,
				CreatedBy:  in.CreatedBy,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			for pos, item := range in.LineItems {
				inv.LineItems = append(inv.LineItems, &document.InvoiceLineItem{
					Position:    pos + 1,
					Description: item.Description,
					Quantity:    item.Quantity,
					UnitPrice:   item.UnitPrice,
				})
			}
			inv.ComputeTotals()

			if createErr := s.invoiceRepo.Create(txCtx, inv); createErr != nil {
				return fmt.Errorf("create invoice: %w", createErr)
			}

			for _, item := range inv.LineItems {
				item.InvoiceID = inv.ID
				if itemErr := s.lineItemRepo.Create(txCtx, item); itemErr != nil {
					return fmt.Errorf("create line item: %w", itemErr)
				}
			}

			return nil
		})

		if err == nil {
			s.logger.Info("Invoice created", "id", inv.ID, "number", inv.Number)
			return inv, nil
		}
		if !errors.Is(err, document.ErrConflict) {
			break
		}
		s.logger.Info("Invoice number collision, retrying", "number", inv.Number, "attempt", attempt+1)
	}

	s.logger.Error("Failed to create invoice", "error", err)
	return nil, err
}

// Get retrieves an invoice with its line items
func (s *invoiceServiceImpl) Get(ctx context.Context, id int64) (*document.Invoice, error) {
	inv, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get invoice", "error", err, "id", id)
		return nil, err
	}
	if inv == nil {
		return nil, fmt.Errorf("invoice %d: %w", id, document.ErrNotFound)
	}

	items, err := s.lineItemRepo.GetByInvoiceID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to load line items", "error", err, "invoice_id", id)
		return nil, err
	}
	inv.LineItems = items

	return inv, nil
}

// List retrieves a paginated list of invoices
func (s *invoiceServiceImpl) List(ctx context.Context, limit, offset int) ([]*document.Invoice, error) {
	invoices, err := s.invoiceRepo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("Failed to list invoices", "error", err, "limit", limit, "offset", offset)
		return nil, err
	}
	return invoices, nil
}

// MarkSent transitions the invoice through the Send trigger and stamps the
// sent date. Re-sending a sent or viewed invoice re-stamps the date without
// moving status backward.
func (s *invoiceServiceImpl) MarkSent(ctx context.Context, id int64) (*document.Invoice, error) {
	inv, machine, err := s.loadForTransition(ctx, id)
	if err != nil {
		return nil, err
	}

	prior := inv.Status
	if err := machine.Fire(ctx, workflow.TriggerSend); err != nil {
		return nil, transitionError(err)
	}

	now := s.clock.Now()
	newStatus := document.InvoiceStatus(machine.State())
	if err := s.invoiceRepo.MarkSent(ctx, id, prior, newStatus, now); err != nil {
		s.logger.Error("Failed to mark invoice sent", "error", err, "id", id)
		return nil, err
	}

	inv.Status = newStatus
	inv.SentDate = &now
	s.logger.Info("Invoice sent", "id", id, "number", inv.Number)
	return inv, nil
}

// MarkViewed records that the recipient opened the invoice
func (s *invoiceServiceImpl) MarkViewed(ctx context.Context, id int64) (*document.Invoice, error) {
	inv, machine, err := s.loadForTransition(ctx, id)
	if err != nil {
		return nil, err
	}

	prior := inv.Status
	if err := machine.Fire(ctx, workflow.TriggerView); err != nil {
		return nil, transitionError(err)
	}

	now := s.clock.Now()
	if err := s.invoiceRepo.MarkViewed(ctx, id, prior, now); err != nil {
		s.logger.Error("Failed to mark invoice viewed", "error", err, "id", id)
		return nil, err
	}

	inv.Status = document.InvoiceStatusViewed
	inv.ViewedDate = &now
	return inv, nil
}

// MarkPaid transitions the invoice to PAID and stores the paid amount. The
// amount must be a finite number greater than zero; it is deliberately not
// validated against the invoice total, partial and excess payments are
// accepted.
func (s *invoiceServiceImpl) MarkPaid(ctx context.Context, id int64, paidAmount float64) (*document.Invoice, error) {
	if paidAmount <= 0 || math.IsNaN(paidAmount) || math.IsInf(paidAmount, 0) {
		return nil, fmt.Errorf("paid amount must be a positive number: %w", document.ErrValidation)
	}

	inv, machine, err := s.loadForTransition(ctx, id)
	if err != nil {
		return nil, err
	}

	prior := inv.Status
	if err := machine.Fire(ctx, workflow.TriggerPay); err != nil {
		return nil, transitionError(err)
	}

	now := s.clock.Now()
	if err := s.invoiceRepo.MarkPaid(ctx, id, prior, paidAmount, now); err != nil {
		s.logger.Error("Failed to mark invoice paid", "error", err, "id", id)
		return nil, err
	}

	inv.Status = document.InvoiceStatusPaid
	inv.PaidAmount = &paidAmount
	inv.PaidDate = &now
	s.logger.Info("Invoice paid", "id", id, "number", inv.Number, "paid_amount", paidAmount)
	return inv, nil
}

// MarkOverdue flags a sent or viewed invoice as overdue
func (s *invoiceServiceImpl) MarkOverdue(ctx context.Context, id int64) (*document.Invoice, error) {
	return s.applyStatus(ctx, id, workflow.TriggerMarkOverdue, document.InvoiceStatusOverdue)
}

// Cancel moves the invoice to the terminal CANCELLED state
func (s *invoiceServiceImpl) Cancel(ctx context.Context, id int64) (*document.Invoice, error) {
	return s.applyStatus(ctx, id, workflow.TriggerCancel, document.InvoiceStatusCancelled)
}

// applyStatus fires a plain trigger and persists the resulting status. The
// repository update is conditional on the status the invoice was loaded in,
// so a racing transition that commits first turns this one into a
// precondition failure instead of overwriting it.
func (s *invoiceServiceImpl) applyStatus(ctx context.Context, id int64, trigger workflow.Trigger, status document.InvoiceStatus) (*document.Invoice, error) {
	inv, machine, err := s.loadForTransition(ctx, id)
	if err != nil {
		return nil, err
	}

	prior := inv.Status
	if err := machine.Fire(ctx, trigger); err != nil {
		return nil, transitionError(err)
	}

	if err := s.invoiceRepo.UpdateStatus(ctx, id, prior, status); err != nil {
		s.logger.Error("Failed to update invoice status", "error", err, "id", id, "status", status)
		return nil, err
	}

	inv.Status = status
	s.logger.Info("Invoice status updated", "id", id, "status", status)
	return inv, nil
}

// loadForTransition fetches the invoice and positions a lifecycle machine at
// its current status
func (s *invoiceServiceImpl) loadForTransition(ctx context.Context, id int64) (*document.Invoice, workflow.StateMachine, error) {
	inv, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get invoice", "error", err, "id", id)
		return nil, nil, err
	}
	if inv == nil {
		return nil, nil, fmt.Errorf("invoice %d: %w", id, document.ErrNotFound)
	}

	return inv, workflow.NewInvoiceMachine(workflow.State(inv.Status)), nil
}

func validateCreateInvoice(in CreateInvoiceInput) error {
	if in.ClientName == "" {
		return fmt.Errorf("client name is required: %w", document.ErrValidation)
	}
	if in.TaxRate < 0 || math.IsNaN(in.TaxRate) || math.IsInf(in.TaxRate, 0) {
		return fmt.Errorf("tax rate must be a non-negative number: %w", document.ErrValidation)
	}
	for i, item := range in.LineItems {
		if item.Quantity <= 0 || math.IsNaN(item.Quantity) || math.IsInf(item.Quantity, 0) {
			return fmt.Errorf("line item %d: quantity must be positive: %w", i+1, document.ErrValidation)
		}
		if item.UnitPrice < 0 || math.IsNaN(item.UnitPrice) || math.IsInf(item.UnitPrice, 0) {
			return fmt.Errorf("line item %d: unit price must be non-negative: %w", i+1, document.ErrValidation)
		}
	}
	return nil
}

// transitionError maps state machine rejections onto the precondition error
// so the handler layer reports them uniformly
func transitionError(err error) error {
	if errors.Is(err, workflow.ErrInvalidTransition) || errors.Is(err, workflow.ErrGuardFailed) {
		return fmt.Errorf("%v: %w", err, document.ErrPrecondition)
	}
	return err
}
