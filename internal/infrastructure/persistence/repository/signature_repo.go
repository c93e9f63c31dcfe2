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

// SignatureRepository implements port.SignatureRepository on sqlite
type SignatureRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewSignatureRepository creates a new signature repository
func NewSignatureRepository(db *sqlite.DB, logger *zap.Logger) port.SignatureRepository {
	return &SignatureRepository{
		db:     db,
		logger: logger,
	}
}

const signatureColumns = `id, contract_id, signer_name, signer_email, signer_role,
	signed_at, ip_address, user_agent, signature_url, created_at`

// Create inserts a new unsigned signature record
func (r *SignatureRepository) Create(ctx context.Context, sig *document.Signature) error {
	query := `
		INSERT INTO signatures (contract_id, signer_name, signer_email, signer_role, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		sig.ContractID,
		sig.SignerName,
		sig.SignerEmail,
		sig.SignerRole,
		sig.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create signature", zap.Int64("contract_id", sig.ContractID), zap.Error(err))
		return fmt.Errorf("failed to create signature: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	sig.ID = id
	return nil
}

// GetByID retrieves a signature by ID, nil when it does not exist
func (r *SignatureRepository) GetByID(ctx context.Context, id int64) (*document.Signature, error) {
	query := fmt.Sprintf(`SELECT %s FROM signatures WHERE id = ?`, signatureColumns)

	row := r.db.Executor(ctx).QueryRowContext(ctx, query, id)
	sig, err := scanSignature(row)
	if errors.Is(err, dbsql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get signature by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get signature: %w", err)
	}

	return sig, nil
}

// GetByContractID retrieves all signatures of a contract
func (r *SignatureRepository) GetByContractID(ctx context.Context, contractID int64) ([]*document.Signature, error) {
	query := fmt.Sprintf(`SELECT %s FROM signatures WHERE contract_id = ? ORDER BY id`, signatureColumns)

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, contractID)
	if err != nil {
		r.logger.Error("Failed to get signatures", zap.Int64("contract_id", contractID), zap.Error(err))
		return nil, fmt.Errorf("failed to get signatures: %w", err)
	}
	defer rows.Close()

	var signatures []*document.Signature
	for rows.Next() {
		sig, err := scanSignature(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan signature: %w", err)
		}
		signatures = append(signatures, sig)
	}

	return signatures, rows.Err()
}

// Sign stamps the signing time and audit metadata. The signed_at IS NULL
// predicate keeps the unsigned-to-signed transition one-shot at the storage
// level as well.
func (r *SignatureRepository) Sign(ctx context.Context, id int64, signedAt time.Time, meta document.SignatureMeta) error {
	query := `
		UPDATE signatures
		SET signed_at = ?, ip_address = ?, user_agent = ?, signature_url = ?
		WHERE id = ? AND signed_at IS NULL
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		signedAt,
		meta.IPAddress,
		meta.UserAgent,
		meta.SignatureURL,
		id,
	)
	if err != nil {
		r.logger.Error("Failed to sign signature", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to sign signature: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("signature %d already signed or missing: %w", id, document.ErrPrecondition)
	}

	return nil
}

func scanSignature(row rowScanner) (*document.Signature, error) {
	var sig document.Signature
	var signedAt dbsql.NullTime
	var ipAddress, userAgent, signatureURL dbsql.NullString

	err := row.Scan(
		&sig.ID,
		&sig.ContractID,
		&sig.SignerName,
		&sig.SignerEmail,
		&sig.SignerRole,
		&signedAt,
		&ipAddress,
		&userAgent,
		&signatureURL,
		&sig.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if signedAt.Valid {
		sig.SignedAt = &signedAt.Time
	}
	sig.IPAddress = ipAddress.String
	sig.UserAgent = userAgent.String
	sig.SignatureURL = signatureURL.String

	return &sig, nil
}

// Verify interface compliance
var _ port.SignatureRepository = (*SignatureRepository)(nil)
