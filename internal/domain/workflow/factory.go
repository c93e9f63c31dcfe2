package workflow

// NewInvoiceMachine builds the invoice lifecycle machine positioned at the
// given state.
//
// DRAFT -> SENT -> VIEWED -> PAID, with OVERDUE reachable from SENT/VIEWED
// and CANCELLED reachable from every non-terminal state. Re-sending is a
// self-transition: status never moves backward.
func NewInvoiceMachine(initial State) StateMachine {
	builder := NewBuilder(InvoiceStates())

	builder.Configure(StateInvoiceDraft).
		Permit(TriggerSend, StateInvoiceSent).
		Permit(TriggerPay, StateInvoicePaid).
		Permit(TriggerCancel, StateInvoiceCancelled)

	builder.Configure(StateInvoiceSent).
		Permit(TriggerSend, StateInvoiceSent).
		Permit(TriggerView, StateInvoiceViewed).
		Permit(TriggerPay, StateInvoicePaid).
		Permit(TriggerMarkOverdue, StateInvoiceOverdue).
		Permit(TriggerCancel, StateInvoiceCancelled)

	builder.Configure(StateInvoiceViewed).
		Permit(TriggerSend, StateInvoiceViewed).
		Permit(TriggerPay, StateInvoicePaid).
		Permit(TriggerMarkOverdue, StateInvoiceOverdue).
		Permit(TriggerCancel, StateInvoiceCancelled)

	builder.Configure(StateInvoiceOverdue).
		Permit(TriggerPay, StateInvoicePaid).
		Permit(TriggerCancel, StateInvoiceCancelled)

	return builder.Build(initial)
}

// NewContractMachine builds the contract lifecycle machine positioned at the
// given state. allSigned guards activation: a contract only becomes ACTIVE
// when it is SIGNED and every signature has been applied.
//
// DRAFT -> PENDING_SIGNATURE -> SIGNED -> ACTIVE, with EXPIRED reachable
// from PENDING_SIGNATURE/ACTIVE and CANCELLED reachable up to activation.
// An active contract runs to expiry; it cannot be cancelled. Signing
// completes from DRAFT as well: signatures can be collected before the
// contract is formally sent out, and the last one must still advance it.
func NewContractMachine(initial State, allSigned GuardFunc) StateMachine {
	builder := NewBuilder(ContractStates())

	builder.Configure(StateContractDraft).
		Permit(TriggerSendForSignature, StateContractPendingSignature).
		Permit(TriggerCompleteSigning, StateContractSigned).
		Permit(TriggerCancel, StateContractCancelled)

	builder.Configure(StateContractPendingSignature).
		Permit(TriggerCompleteSigning, StateContractSigned).
		Permit(TriggerExpire, StateContractExpired).
		Permit(TriggerCancel, StateContractCancelled)

	builder.Configure(StateContractSigned).
		PermitIf(TriggerActivate, StateContractActive, allSigned).
		Permit(TriggerCancel, StateContractCancelled)

	builder.Configure(StateContractActive).
		Permit(TriggerExpire, StateContractExpired)

	return builder.Build(initial)
}
