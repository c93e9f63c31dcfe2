package port

import (
	"context"
	"time"

	"github.com/dlemaitre/billingcore/internal/domain/document"
)

// InvoiceRepository defines persistence operations for Invoice
type InvoiceRepository interface {
	// Create inserts the invoice and assigns its ID. Returns an error
	// wrapping document.ErrConflict when the number is already taken.
	Create(ctx context.Context, inv *document.Invoice) error

	// GetByID retrieves an invoice by ID, nil when it does not exist
	GetByID(ctx context.Context, id int64) (*document.Invoice, error)

	// MaxNumberInScope returns the greatest document number starting with
	// "<prefix>-<year>-", or empty when none exists
	MaxNumberInScope(ctx context.Context, prefix string, year int) (string, error)

	// List retrieves invoices ordered by id, newest first
	List(ctx context.Context, limit, offset int) ([]*document.Invoice, error)

	// ListAll retrieves every invoice ordered by number
	ListAll(ctx context.Context) ([]*document.Invoice, error)

	// UpdateStatus moves the invoice from the expected prior status to the
	// new one. When the row is no longer in the prior status, a concurrent
	// operation won the race; the update is skipped and an error wrapping
	// document.ErrPrecondition is returned.
	UpdateStatus(ctx context.Context, id int64, from, to document.InvoiceStatus) error

	// MarkSent stamps the sent date and sets the status produced by the
	// lifecycle machine (re-sending a viewed invoice keeps it VIEWED).
	// Conditional on the prior status like UpdateStatus.
	MarkSent(ctx context.Context, id int64, from, to document.InvoiceStatus, sentAt time.Time) error

	// MarkViewed sets status VIEWED and stamps the viewed date.
	// Conditional on the prior status like UpdateStatus.
	MarkViewed(ctx context.Context, id int64, from document.InvoiceStatus, viewedAt time.Time) error

	// MarkPaid sets status PAID and stores the paid amount and date.
	// Conditional on the prior status like UpdateStatus.
	MarkPaid(ctx context.Context, id int64, from document.InvoiceStatus, paidAmount float64, paidAt time.Time) error
}

// LineItemRepository defines persistence operations for InvoiceLineItem
type LineItemRepository interface {
	Create(ctx context.Context, item *document.InvoiceLineItem) error
	GetByInvoiceID(ctx context.Context, invoiceID int64) ([]*document.InvoiceLineItem, error)
}

// ContractRepository defines persistence operations for Contract
type ContractRepository interface {
	// Create inserts the contract and assigns its ID. Returns an error
	// wrapping document.ErrConflict when the number is already taken.
	Create(ctx context.Context, c *document.Contract) error

	// GetByID retrieves a contract by ID, nil when it does not exist
	GetByID(ctx context.Context, id int64) (*document.Contract, error)

	// MaxNumberInScope returns the greatest document number starting with
	// "<prefix>-<year>-", or empty when none exists
	MaxNumberInScope(ctx context.Context, prefix string, year int) (string, error)

	// List retrieves contracts ordered by id, newest first
	List(ctx context.Context, limit, offset int) ([]*document.Contract, error)

	// UpdateStatus moves the contract from the expected prior status to the
	// new one. When the row is no longer in the prior status, a concurrent
	// operation won the race; the update is skipped and an error wrapping
	// document.ErrPrecondition is returned.
	UpdateStatus(ctx context.Context, id int64, from, to document.ContractStatus) error

	// MarkSigned sets status SIGNED and stamps the signed date.
	// Conditional on the prior status like UpdateStatus.
	MarkSigned(ctx context.Context, id int64, from document.ContractStatus, signedAt time.Time) error
}

// SignatureRepository defines persistence operations for Signature
type SignatureRepository interface {
	Create(ctx context.Context, sig *document.Signature) error

	// GetByID retrieves a signature by ID, nil when it does not exist
	GetByID(ctx context.Context, id int64) (*document.Signature, error)

	GetByContractID(ctx context.Context, contractID int64) ([]*document.Signature, error)

	// Sign stamps the signing time and audit metadata on an unsigned record
	Sign(ctx context.Context, id int64, signedAt time.Time, meta document.SignatureMeta) error
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
