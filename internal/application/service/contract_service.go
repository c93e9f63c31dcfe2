package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dlemaitre/billingcore/internal/application/port"
	"github.com/dlemaitre/billingcore/internal/domain/document"
	"github.com/dlemaitre/billingcore/internal/domain/numbering"
	"github.com/dlemaitre/billingcore/internal/domain/workflow"
	"github.com/dlemaitre/billingcore/pkg/utils"
)

// SignerInput describes one signer on a new contract
type SignerInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// CreateContractInput carries the fields needed to create a contract
type CreateContractInput struct {
	Title      string        `json:"title"`
	ClientName string        `json:"client_name"`
	Value      float64       `json:"value"`
	StartDate  *time.Time    `json:"start_date"`
	EndDate    *time.Time    `json:"end_date"`
	CreatedBy  string        `json:"created_by"`
	Signers    []SignerInput `json:"signers"`
}

// SignSignatureInput carries the signing timestamp and audit metadata
type SignSignatureInput struct {
	SignedAt     *time.Time `json:"signed_at"`
	IPAddress    string     `json:"ip_address"`
	UserAgent    string     `json:"user_agent"`
	SignatureURL string     `json:"signature_url"`
}

// ContractService manages the contract document lifecycle, including the
// signature cascade
type ContractService interface {
	Create(ctx context.Context, in CreateContractInput) (*document.Contract, error)
	Get(ctx context.Context, id int64) (*document.Contract, error)
	List(ctx context.Context, limit, offset int) ([]*document.Contract, error)
	SendForSignature(ctx context.Context, id int64) (*document.Contract, error)
	SignSignature(ctx context.Context, contractID, signatureID int64, in SignSignatureInput) (*document.Signature, error)
	Activate(ctx context.Context, id int64) (*document.Contract, error)
	MarkExpired(ctx context.Context, id int64) (*document.Contract, error)
	Cancel(ctx context.Context, id int64) (*document.Contract, error)
}

type contractServiceImpl struct {
	contractRepo  port.ContractRepository
	signatureRepo port.SignatureRepository
	txManager     port.TransactionManager
	clock         port.Clock
	logger        Logger
}

// NewContractService creates a new ContractService
func NewContractService(
	contractRepo port.ContractRepository,
	signatureRepo port.SignatureRepository,
	txManager port.TransactionManager,
	clock port.Clock,
	logger Logger,
) ContractService {
	return &contractServiceImpl{
		contractRepo:  contractRepo,
		signatureRepo: signatureRepo,
		txManager:     txManager,
		clock:         clock,
		logger:        logger,
	}
}

// Create generates the next contract number and inserts the contract with
// one unsigned signature per signer in one transaction. Number collisions
// with concurrent creations are retried once, same as invoices.
func (s *contractServiceImpl) Create(ctx context.Context, in CreateContractInput) (*document.Contract, error) {
	if err := validateCreateContract(in); err != nil {
		return nil, err
	}

	now := s.clock.Now()

	var contract *document.Contract
	var err error
	for attempt := 0; attempt < numberAttempts; attempt++ {
		err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
			last, lookupErr := s.contractRepo.MaxNumberInScope(txCtx, numbering.PrefixContract, now.Year())
			if lookupErr != nil {
				return fmt.Errorf("lookup max number: %w", lookupErr)
			}

			contract = &document.Contract{
				Number:     numbering.Next(numbering.PrefixContract, now.Year(), last),
				Title:      in.Title,
				ClientName: in.ClientName,
				Status:     document.ContractStatusDraft,
				Value:      in.Value,
				StartDate:  in.StartDate,
				EndDate:    in.EndDate,
				CreatedBy:  in.CreatedBy,
				CreatedAt:  now,
				UpdatedAt:  now,
			}

			if createErr := s.contractRepo.Create(txCtx, contract); createErr != nil {
				return fmt.Errorf("create contract: %w", createErr)
			}

			for _, signer := range in.Signers {
				sig := &document.Signature{
					ContractID:  contract.ID,
					SignerName:  signer.Name,
					SignerEmail: signer.Email,
					SignerRole:  signer.Role,
					CreatedAt:   now,
				}
				if sigErr := s.signatureRepo.Create(txCtx, sig); sigErr != nil {
					return fmt.Errorf("create signature: %w", sigErr)
				}
				contract.Signatures = append(contract.Signatures, sig)
			}

			return nil
		})

		if err == nil {
			s.logger.Info("Contract created", "id", contract.ID, "number", contract.Number, "signers", len(in.Signers))
			return contract, nil
		}
		if !errors.Is(err, document.ErrConflict) {
			break
		}
		s.logger.Info("Contract number collision, retrying", "number", contract.Number, "attempt", attempt+1)
	}

	s.logger.Error("Failed to create contract", "error", err)
	return nil, err
}

// Get retrieves a contract with its signatures
func (s *contractServiceImpl) Get(ctx context.Context, id int64) (*document.Contract, error) {
	return s.load(ctx, id)
}

// List retrieves a paginated list of contracts
func (s *contractServiceImpl) List(ctx context.Context, limit, offset int) ([]*document.Contract, error) {
	contracts, err := s.contractRepo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("Failed to list contracts", "error", err, "limit", limit, "offset", offset)
		return nil, err
	}
	return contracts, nil
}

// SendForSignature moves a draft contract to PENDING_SIGNATURE
func (s *contractServiceImpl) SendForSignature(ctx context.Context, id int64) (*document.Contract, error) {
	return s.applyStatus(ctx, id, workflow.TriggerSendForSignature, document.ContractStatusPendingSignature)
}

// SignSignature applies one signature and evaluates the cascade: when the
// last outstanding signature lands, the contract advances to SIGNED with
// signedDate stamped to that signing's timestamp. The whole operation runs
// in one transaction so two concurrent signings cannot both observe "not
// all signed" and skip the cascade.
func (s *contractServiceImpl) SignSignature(ctx context.Context, contractID, signatureID int64, in SignSignatureInput) (*document.Signature, error) {
	var signature *document.Signature

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		contract, err := s.contractRepo.GetByID(txCtx, contractID)
		if err != nil {
			return err
		}
		if contract == nil {
			return fmt.Errorf("contract %d: %w", contractID, document.ErrNotFound)
		}

		sig, err := s.signatureRepo.GetByID(txCtx, signatureID)
		if err != nil {
			return err
		}
		if sig == nil || sig.ContractID != contractID {
			return fmt.Errorf("signature %d on contract %d: %w", signatureID, contractID, document.ErrNotFound)
		}
		if sig.Signed() {
			// Re-signing is rejected: a silent overwrite would destroy the
			// signing audit trail.
			return fmt.Errorf("signature %d already signed: %w", signatureID, document.ErrPrecondition)
		}

		signedAt := s.clock.Now()
		if in.SignedAt != nil {
			signedAt = *in.SignedAt
		}
		meta := document.SignatureMeta{
			IPAddress:    in.IPAddress,
			UserAgent:    in.UserAgent,
			SignatureURL: in.SignatureURL,
		}

		if err := s.signatureRepo.Sign(txCtx, signatureID, signedAt, meta); err != nil {
			return fmt.Errorf("sign signature: %w", err)
		}

		sig.SignedAt = &signedAt
		sig.IPAddress = meta.IPAddress
		sig.UserAgent = meta.UserAgent
		sig.SignatureURL = meta.SignatureURL
		signature = sig

		// Cascade: last signature advances the contract to SIGNED
		signatures, err := s.signatureRepo.GetByContractID(txCtx, contractID)
		if err != nil {
			return fmt.Errorf("load signatures: %w", err)
		}
		if !document.AllSigned(signatures) {
			return nil
		}

		// The trigger fires from DRAFT and PENDING_SIGNATURE alike, so a
		// contract whose signatures were all collected before it was sent
		// out still advances. CanFire is false only at SIGNED and beyond,
		// which keeps the cascade idempotent.
		machine := workflow.NewContractMachine(workflow.State(contract.Status), nil)
		if !machine.CanFire(workflow.TriggerCompleteSigning) {
			return nil
		}
		if err := machine.Fire(txCtx, workflow.TriggerCompleteSigning); err != nil {
			return transitionError(err)
		}
		if err := s.contractRepo.MarkSigned(txCtx, contractID, contract.Status, signedAt); err != nil {
			return fmt.Errorf("mark contract signed: %w", err)
		}
		s.logger.Info("Contract fully signed", "id", contractID, "number", contract.Number)

		return nil
	})

	if err != nil {
		s.logger.Error("Failed to sign signature", "error", err, "contract_id", contractID, "signature_id", signatureID)
		return nil, err
	}

	s.logger.Info("Signature applied", "contract_id", contractID, "signature_id", signatureID)
	return signature, nil
}

// Activate moves a fully signed contract to ACTIVE. The guard re-checks
// both the SIGNED status and the aggregate signature condition server-side;
// the conditional repository update additionally rejects the move when a
// racing operation (a cancel, say) committed a different status first.
func (s *contractServiceImpl) Activate(ctx context.Context, id int64) (*document.Contract, error) {
	contract, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	machine := workflow.NewContractMachine(workflow.State(contract.Status), func(ctx context.Context) bool {
		return document.AllSigned(contract.Signatures)
	})
	if err := machine.Fire(ctx, workflow.TriggerActivate); err != nil {
		return nil, transitionError(err)
	}

	if err := s.contractRepo.UpdateStatus(ctx, id, contract.Status, document.ContractStatusActive); err != nil {
		s.logger.Error("Failed to activate contract", "error", err, "id", id)
		return nil, err
	}

	contract.Status = document.ContractStatusActive
	s.logger.Info("Contract activated", "id", id, "number", contract.Number)
	return contract, nil
}

// MarkExpired moves the contract to EXPIRED
func (s *contractServiceImpl) MarkExpired(ctx context.Context, id int64) (*document.Contract, error) {
	return s.applyStatus(ctx, id, workflow.TriggerExpire, document.ContractStatusExpired)
}

// Cancel moves the contract to the terminal CANCELLED state
func (s *contractServiceImpl) Cancel(ctx context.Context, id int64) (*document.Contract, error) {
	return s.applyStatus(ctx, id, workflow.TriggerCancel, document.ContractStatusCancelled)
}

// applyStatus fires a plain trigger and persists the resulting status. The
// repository update is conditional on the status the contract was loaded in,
// so a racing transition that commits first turns this one into a
// precondition failure instead of overwriting it.
func (s *contractServiceImpl) applyStatus(ctx context.Context, id int64, trigger workflow.Trigger, status document.ContractStatus) (*document.Contract, error) {
	contract, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	machine := workflow.NewContractMachine(workflow.State(contract.Status), nil)
	if err := machine.Fire(ctx, trigger); err != nil {
		return nil, transitionError(err)
	}

	if err := s.contractRepo.UpdateStatus(ctx, id, contract.Status, status); err != nil {
		s.logger.Error("Failed to update contract status", "error", err, "id", id, "status", status)
		return nil, err
	}

	contract.Status = status
	s.logger.Info("Contract status updated", "id", id, "status", status)
	return contract, nil
}

// load fetches a contract and its signatures
func (s *contractServiceImpl) load(ctx context.Context, id int64) (*document.Contract, error) {
	contract, err := s.contractRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get contract", "error", err, "id", id)
		return nil, err
	}
	if contract == nil {
		return nil, fmt.Errorf("contract %d: %w", id, document.ErrNotFound)
	}

	signatures, err := s.signatureRepo.GetByContractID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to load signatures", "error", err, "contract_id", id)
		return nil, err
	}
	contract.Signatures = signatures

	return contract, nil
}

func validateCreateContract(in CreateContractInput) error {
	if in.Title == "" {
		return fmt.Errorf("title is required: %w", document.ErrValidation)
	}
	if in.ClientName == "" {
		return fmt.Errorf("client name is required: %w", document.ErrValidation)
	}
	for i, signer := range in.Signers {
		if signer.Name == "" || signer.Email == "" {
			return fmt.Errorf("signer %d: name and email are required: %w", i+1, document.ErrValidation)
		}
		if err := utils.ValidateEmail(signer.Email); err != nil {
			return fmt.Errorf("signer %d: %v: %w", i+1, err, document.ErrValidation)
		}
	}
	return nil
}
