package repository

import (
	"context"
	dbsql "database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dlemaitre/billingcore/internal/application/port"
	"github.com/dlemaitre/billingcore/internal/domain/document"
	"github.com/dlemaitre/billingcore/internal/infrastructure/persistence/sqlite"
)

// InvoiceRepository implements port.InvoiceRepository on sqlite
type InvoiceRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *sqlite.DB, logger *zap.Logger) port.InvoiceRepository {
	return &InvoiceRepository{
		db:     db,
		logger: logger,
	}
}

const invoiceColumns = `id, number, client_name, status, issue_date, due_date,
	subtotal, tax_rate, tax_amount, total, paid_amount,
	sent_date, viewed_date, paid_date, created_by, created_at, updated_at`

// Create inserts a new invoice record. A unique violation on the number
// column is reported as document.ErrConflict.
func (r *InvoiceRepository) Create(ctx context.Context, inv *document.Invoice) error {
	query := `
		INSERT INTO invoices (
			number, client_name, status, issue_date, due_date,
			subtotal, tax_rate, tax_amount, total,
			created_by, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		inv.Number,
		inv.ClientName,
		inv.Status,
		inv.IssueDate,
		inv.DueDate,
		inv.Subtotal,
		inv.TaxRate,
		inv.TaxAmount,
		inv.Total,
		inv.CreatedBy,
		inv.CreatedAt,
		inv.UpdatedAt,
	)
	if err != nil {
		if sqlite.IsUniqueViolation(err) {
			return fmt.Errorf("invoice number %s: %w", inv.Number, document.ErrConflict)
		}
		r.logger.Error("Failed to create invoice", zap.Error(err))
		return fmt.Errorf("failed to create invoice: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	inv.ID = id
	return nil
}

// GetByID retrieves an invoice by ID, nil when it does not exist
func (r *InvoiceRepository) GetByID(ctx context.Context, id int64) (*document.Invoice, error) {
	query := fmt.Sprintf(`SELECT %s FROM invoices WHERE id = ?`, invoiceColumns)

	row := r.db.Executor(ctx).QueryRowContext(ctx, query, id)
	inv, err := scanInvoice(row)
	if errors.Is(err, dbsql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get invoice by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	return inv, nil
}

// MaxNumberInScope returns the greatest number starting with
// "<prefix>-<year>-", or empty when none exists
func (r *InvoiceRepository) MaxNumberInScope(ctx context.Context, prefix string, year int) (string, error) {
	// Length before lexicographic order: sequences wider than the minimum
	// padding (1000+) would otherwise sort below 999.
	query := `SELECT number FROM invoices WHERE number LIKE ? ORDER BY LENGTH(number) DESC, number DESC LIMIT 1`
	pattern := fmt.Sprintf("%s-%04d-%%", prefix, year)

	var number string
	err := r.db.Executor(ctx).QueryRowContext(ctx, query, pattern).Scan(&number)
	if errors.Is(err, dbsql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		r.logger.Error("Failed to get max invoice number", zap.String("pattern", pattern), zap.Error(err))
		return "", fmt.Errorf("failed to get max number: %w", err)
	}

	return number, nil
}

// List retrieves invoices ordered by id, newest first
func (r *InvoiceRepository) List(ctx context.Context, limit, offset int) ([]*document.Invoice, error) {
	query := fmt.Sprintf(`SELECT %s FROM invoices ORDER BY id DESC LIMIT ? OFFSET ?`, invoiceColumns)

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list invoices", zap.Error(err))
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	return collectInvoices(rows)
}

// ListAll retrieves every invoice ordered by number
func (r *InvoiceRepository) ListAll(ctx context.Context) ([]*document.Invoice, error) {
	query := fmt.Sprintf(`SELECT %s FROM invoices ORDER BY number`, invoiceColumns)

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list invoices", zap.Error(err))
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	return collectInvoices(rows)
}

// UpdateStatus moves the invoice status, conditional on the expected prior
// status. The WHERE predicate makes racing transitions lose cleanly: zero
// rows affected means a concurrent operation moved the row first.
func (r *InvoiceRepository) UpdateStatus(ctx context.Context, id int64, from, to document.InvoiceStatus) error {
	query := `UPDATE invoices SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND status = ?`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query, to, id, from)
	if err != nil {
		r.logger.Error("Failed to update invoice status", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to update invoice status: %w", err)
	}
	return checkStatusMoved(result, "invoice", id, string(from))
}

// MarkSent stamps the sent date and sets the machine-produced status
func (r *InvoiceRepository) MarkSent(ctx context.Context, id int64, from, to document.InvoiceStatus, sentAt time.Time) error {
	query := `UPDATE invoices SET status = ?, sent_date = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND status = ?`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query, to, sentAt, id, from)
	if err != nil {
		r.logger.Error("Failed to mark invoice sent", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark invoice sent: %w", err)
	}
	return checkStatusMoved(result, "invoice", id, string(from))
}

// MarkViewed sets status VIEWED and stamps the viewed date
func (r *InvoiceRepository) MarkViewed(ctx context.Context, id int64, from document.InvoiceStatus, viewedAt time.Time) error {
	query := `UPDATE invoices SET status = ?, viewed_date = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND status = ?`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query, document.InvoiceStatusViewed, viewedAt, id, from)
	if err != nil {
		r.logger.Error("Failed to mark invoice viewed", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark invoice viewed: %w", err)
	}
	return checkStatusMoved(result, "invoice", id, string(from))
}

// MarkPaid sets status PAID and stores the paid amount and date
func (r *InvoiceRepository) MarkPaid(ctx context.Context, id int64, from document.InvoiceStatus, paidAmount float64, paidAt time.Time) error {
	query := `UPDATE invoices SET status = ?, paid_amount = ?, paid_date = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND status = ?`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query, document.InvoiceStatusPaid, paidAmount, paidAt, id, from)
	if err != nil {
		r.logger.Error("Failed to mark invoice paid", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark invoice paid: %w", err)
	}
	return checkStatusMoved(result, "invoice", id, string(from))
}

// checkStatusMoved reports a conditional status update that matched no row
// as a precondition failure
func checkStatusMoved(result dbsql.Result, kind string, id int64, from string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%s %d no longer in status %s: %w", kind, id, from, document.ErrPrecondition)
	}
	return nil
}

// rowScanner covers both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanInvoice(row rowScanner) (*document.Invoice, error) {
	var inv document.Invoice
	var dueDate, sentDate, viewedDate, paidDate dbsql.NullTime
	var paidAmount dbsql.NullFloat64

	err := row.Scan(
		&inv.ID,
		&inv.Number,
		&inv.ClientName,
		&inv.Status,
		&inv.IssueDate,
		&dueDate,
		&inv.Subtotal,
		&inv.TaxRate,
		&inv.TaxAmount,
		&inv.Total,
		&paidAmount,
		&sentDate,
		&viewedDate,
		&paidDate,
		&inv.CreatedBy,
		&inv.CreatedAt,
		&inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if dueDate.Valid {
		inv.DueDate = &dueDate.Time
	}
	if sentDate.Valid {
		inv.SentDate = &sentDate.Time
	}
	if viewedDate.Valid {
		inv.ViewedDate = &viewedDate.Time
	}
	if paidDate.Valid {
		inv.PaidDate = &paidDate.Time
	}
	if paidAmount.Valid {
		inv.PaidAmount = &paidAmount.Float64
	}

	return &inv, nil
}

func collectInvoices(rows *dbsql.Rows) ([]*document.Invoice, error) {
	var invoices []*document.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

// Verify interface compliance
var _ port.InvoiceRepository = (*InvoiceRepository)(nil)
