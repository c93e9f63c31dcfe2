package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/dlemaitre/billingcore/internal/application/port"
	"github.com/dlemaitre/billingcore/internal/domain/document"
	"github.com/dlemaitre/billingcore/internal/infrastructure/persistence/sqlite"
)

// LineItemRepository implements port.LineItemRepository on sqlite
type LineItemRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewLineItemRepository creates a new line item repository
func NewLineItemRepository(db *sqlite.DB, logger *zap.Logger) port.LineItemRepository {
	return &LineItemRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new line item record
func (r *LineItemRepository) Create(ctx context.Context, item *document.InvoiceLineItem) error {
	query := `
		INSERT INTO invoice_line_items (invoice_id, position, description, quantity, unit_price, amount)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		item.InvoiceID,
		item.Position,
		item.Description,
		item.Quantity,
		item.UnitPrice,
		item.Amount,
	)
	if err != nil {
		r.logger.Error("Failed to create line item", zap.Int64("invoice_id", item.InvoiceID), zap.Error(err))
		return fmt.Errorf("failed to create line item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	item.ID = id
	return nil
}

// GetByInvoiceID retrieves all line items for an invoice in position order
func (r *LineItemRepository) GetByInvoiceID(ctx context.Context, invoiceID int64) ([]*document.InvoiceLineItem, error) {
	query := `
		SELECT id, invoice_id, position, description, quantity, unit_price, amount
		FROM invoice_line_items
		WHERE invoice_id = ?
		ORDER BY position
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, invoiceID)
	if err != nil {
		r.logger.Error("Failed to get line items", zap.Int64("invoice_id", invoiceID), zap.Error(err))
		return nil, fmt.Errorf("failed to get line items: %w", err)
	}
	defer rows.Close()

	var items []*document.InvoiceLineItem
	for rows.Next() {
		var item document.InvoiceLineItem
		err := rows.Scan(
			&item.ID,
			&item.InvoiceID,
			&item.Position,
			&item.Description,
			&item.Quantity,
			&item.UnitPrice,
			&item.Amount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan line item: %w", err)
		}
		items = append(items, &item)
	}

	return items, rows.Err()
}

// Verify interface compliance
var _ port.LineItemRepository = (*LineItemRepository)(nil)
