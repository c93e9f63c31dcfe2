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

// ContractRepository implements port.ContractRepository on sqlite
type ContractRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewContractRepository creates a new contract repository
func NewContractRepository(db *sqlite.DB, logger *zap.Logger) port.ContractRepository {
	return &ContractRepository{
		db:     db,
		logger: logger,
	}
}

const contractColumns = `id, number, title, client_name, status, value,
	start_date, end_date, signed_date, created_by, created_at, updated_at`

// Create inserts a new contract record. A unique violation on the number
// column is reported as document.ErrConflict.
func (r *ContractRepository) Create(ctx context.Context, c *document.Contract) error {
	query := `
		INSERT INTO contracts (
			number, title, client_name, status, value,
			start_date, end_date, created_by, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		c.Number,
		c.Title,
		c.ClientName,
		c.Status,
		c.Value,
		c.StartDate,
		c.EndDate,
		c.CreatedBy,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		if sqlite.IsUniqueViolation(err) {
			return fmt.Errorf("contract number %s: %w", c.Number, document.ErrConflict)
		}
		r.logger.Error("Failed to create contract", zap.Error(err))
		return fmt.Errorf("failed to create contract: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	c.ID = id
	return nil
}

// GetByID retrieves a contract by ID, nil when it does not exist
func (r *ContractRepository) GetByID(ctx context.Context, id int64) (*document.Contract, error) {
	query := fmt.Sprintf(`SELECT %s FROM contracts WHERE id = ?`, contractColumns)

	row := r.db.Executor(ctx).QueryRowContext(ctx, query, id)
	c, err := scanContract(row)
	if errors.Is(err, dbsql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get contract by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get contract: %w", err)
	}

	return c, nil
}

// MaxNumberInScope returns the greatest number starting with
// "<prefix>-<year>-", or empty when none exists
func (r *ContractRepository) MaxNumberInScope(ctx context.Context, prefix string, year int) (string, error) {
	// Length before lexicographic order: sequences wider than the minimum
	// padding (1000+) would otherwise sort below 999.
	query := `SELECT number FROM contracts WHERE number LIKE ? ORDER BY LENGTH(number) DESC, number DESC LIMIT 1`
	pattern := fmt.Sprintf("%s-%04d-%%", prefix, year)

	var number string
	err := r.db.Executor(ctx).QueryRowContext(ctx, query, pattern).Scan(&number)
	if errors.Is(err, dbsql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		r.logger.Error("Failed to get max contract number", zap.String("pattern", pattern), zap.Error(err))
		return "", fmt.Errorf("failed to get max number: %w", err)
	}

	return number, nil
}

// List retrieves contracts ordered by id, newest first
func (r *ContractRepository) List(ctx context.Context, limit, offset int) ([]*document.Contract, error) {
	query := fmt.Sprintf(`SELECT %s FROM contracts ORDER BY id DESC LIMIT ? OFFSET ?`, contractColumns)

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list contracts", zap.Error(err))
		return nil, fmt.Errorf("failed to list contracts: %w", err)
	}
	defer rows.Close()

	var contracts []*document.Contract
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contract: %w", err)
		}
		contracts = append(contracts, c)
	}

	return contracts, rows.Err()
}

// UpdateStatus moves the contract status, conditional on the expected prior
// status. The WHERE predicate makes racing transitions lose cleanly: zero
// rows affected means a concurrent operation moved the row first.
func (r *ContractRepository) UpdateStatus(ctx context.Context, id int64, from, to document.ContractStatus) error {
	query := `UPDATE contracts SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND status = ?`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query, to, id, from)
	if err != nil {
		r.logger.Error("Failed to update contract status", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to update contract status: %w", err)
	}
	return checkStatusMoved(result, "contract", id, string(from))
}

// MarkSigned sets status SIGNED and stamps the signed date
func (r *ContractRepository) MarkSigned(ctx context.Context, id int64, from document.ContractStatus, signedAt time.Time) error {
	query := `UPDATE contracts SET status = ?, signed_date = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND status = ?`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query, document.ContractStatusSigned, signedAt, id, from)
	if err != nil {
		r.logger.Error("Failed to mark contract signed", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark contract signed: %w", err)
	}
	return checkStatusMoved(result, "contract", id, string(from))
}

func scanContract(row rowScanner) (*document.Contract, error) {
	var c document.Contract
	var startDate, endDate, signedDate dbsql.NullTime

	err := row.Scan(
		&c.ID,
		&c.Number,
		&c.Title,
		&c.ClientName,
		&c.Status,
		&c.Value,
		&startDate,
		&endDate,
		&signedDate,
		&c.CreatedBy,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if startDate.Valid {
		c.StartDate = &startDate.Time
	}
	if endDate.Valid {
		c.EndDate = &endDate.Time
	}
	if signedDate.Valid {
		c.SignedDate = &signedDate.Time
	}

	return &c, nil
}

// Verify interface compliance
var _ port.ContractRepository = (*ContractRepository)(nil)
