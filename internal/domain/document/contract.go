package document

import "time"

// Contract represents an agreement with a sequential number, a status
// lifecycle and a set of signatures collected from its signers.
type Contract struct {
	ID         int64          `json:"id"`
	Number     string         `json:"number"`
	Title      string         `json:"title"`
	ClientName string         `json:"client_name"`
	Status     ContractStatus `json:"status"`

	Value     float64    `json:"value"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`

	SignedDate *time.Time `json:"signed_date,omitempty"`

	Signatures []*Signature `json:"signatures,omitempty"`

	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Signature is a per-signer child record of a contract. It is created
// unsigned alongside the contract and transitions exactly once to signed.
type Signature struct {
	ID          int64  `json:"id"`
	ContractID  int64  `json:"contract_id"`
	SignerName  string `json:"signer_name"`
	SignerEmail string `json:"signer_email"`
	SignerRole  string `json:"signer_role,omitempty"`

	SignedAt     *time.Time `json:"signed_at,omitempty"`
	IPAddress    string     `json:"ip_address,omitempty"`
	UserAgent    string     `json:"user_agent,omitempty"`
	SignatureURL string     `json:"signature_url,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// SignatureMeta carries the audit fields recorded at signing time
type SignatureMeta struct {
	IPAddress    string
	UserAgent    string
	SignatureURL string
}

// Signed returns true once the signature has been applied
func (s *Signature) Signed() bool {
	return s.SignedAt != nil
}

// AllSigned reports whether every signature in the collection has been
// applied. An empty collection counts as not signed: a contract without
// signers cannot complete signing.
func AllSigned(signatures []*Signature) bool {
	if len(signatures) == 0 {
		return false
	}
	for _, sig := range signatures {
		if !sig.Signed() {
			return false
		}
	}
	return true
}
