package workflow

// State represents a lifecycle state of a document
type State string

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// StateSet describes the states a single lifecycle may occupy, and which of
// them are terminal. Each document type carries its own set; a state machine
// only accepts states from the set it was built with.
type StateSet struct {
	valid    map[State]bool
	terminal map[State]bool
}

// NewStateSet builds a state set from the full state list and the subset of
// terminal states. Terminal states are implicitly part of the set.
func NewStateSet(states []State, terminal []State) StateSet {
	set := StateSet{
		valid:    make(map[State]bool, len(states)+len(terminal)),
		terminal: make(map[State]bool, len(terminal)),
	}
	for _, s := range states {
		set.valid[s] = true
	}
	for _, s := range terminal {
		set.valid[s] = true
		set.terminal[s] = true
	}
	return set
}

// Contains returns true if the state belongs to this set
func (ss StateSet) Contains(s State) bool {
	return ss.valid[s]
}

// IsTerminal returns true if the state is terminal (no further transitions)
func (ss StateSet) IsTerminal(s State) bool {
	return ss.terminal[s]
}

// Invoice lifecycle states
const (
	StateInvoiceDraft     State = "DRAFT"
	StateInvoiceSent      State = "SENT"
	StateInvoiceViewed    State = "VIEWED"
	StateInvoicePaid      State = "PAID"
	StateInvoiceOverdue   State = "OVERDUE"
	StateInvoiceCancelled State = "CANCELLED"
)

// Contract lifecycle states
const (
	StateContractDraft            State = "DRAFT"
	StateContractPendingSignature State = "PENDING_SIGNATURE"
	StateContractSigned           State = "SIGNED"
	StateContractActive           State = "ACTIVE"
	StateContractExpired          State = "EXPIRED"
	StateContractCancelled        State = "CANCELLED"
)

// InvoiceStates returns the invoice lifecycle state set
func InvoiceStates() StateSet {
	return NewStateSet(
		[]State{StateInvoiceDraft, StateInvoiceSent, StateInvoiceViewed, StateInvoiceOverdue},
		[]State{StateInvoicePaid, StateInvoiceCancelled},
	)
}

// ContractStates returns the contract lifecycle state set
func ContractStates() StateSet {
	return NewStateSet(
		[]State{StateContractDraft, StateContractPendingSignature, StateContractSigned, StateContractActive},
		[]State{StateContractExpired, StateContractCancelled},
	)
}
