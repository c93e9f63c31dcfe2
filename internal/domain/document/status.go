package document

// InvoiceStatus represents the lifecycle state of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "DRAFT"
	InvoiceStatusSent      InvoiceStatus = "SENT"
	InvoiceStatusViewed    InvoiceStatus = "VIEWED"
	InvoiceStatusPaid      InvoiceStatus = "PAID"
	InvoiceStatusOverdue   InvoiceStatus = "OVERDUE"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
)

var validInvoiceStatuses = map[InvoiceStatus]bool{
	InvoiceStatusDraft:     true,
	InvoiceStatusSent:      true,
	InvoiceStatusViewed:    true,
	InvoiceStatusPaid:      true,
	InvoiceStatusOverdue:   true,
	InvoiceStatusCancelled: true,
}

// IsValid returns true if the status is a known invoice status
func (s InvoiceStatus) IsValid() bool {
	return validInvoiceStatuses[s]
}

// String returns the string representation of the status
func (s InvoiceStatus) String() string {
	return string(s)
}

// ContractStatus represents the lifecycle state of a contract
type ContractStatus string

const (
	ContractStatusDraft            ContractStatus = "DRAFT"
	ContractStatusPendingSignature ContractStatus = "PENDING_SIGNATURE"
	ContractStatusSigned           ContractStatus = "SIGNED"
	ContractStatusActive           ContractStatus = "ACTIVE"
	ContractStatusExpired          ContractStatus = "EXPIRED"
	ContractStatusCancelled        ContractStatus = "CANCELLED"
)

var validContractStatuses = map[ContractStatus]bool{
	ContractStatusDraft:            true,
	ContractStatusPendingSignature: true,
	ContractStatusSigned:           true,
	ContractStatusActive:           true,
	ContractStatusExpired:          true,
	ContractStatusCancelled:        true,
}

// IsValid returns true if the status is a known contract status
func (s ContractStatus) IsValid() bool {
	return validContractStatuses[s]
}

// String returns the string representation of the status
func (s ContractStatus) String() string {
	return string(s)
}
