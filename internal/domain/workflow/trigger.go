package workflow

// Trigger represents a business event that can cause a state transition
type Trigger string

const (
	// Invoice triggers
	TriggerSend        Trigger = "SEND"
	TriggerView        Trigger = "VIEW"
	TriggerPay         Trigger = "PAY"
	TriggerMarkOverdue Trigger = "MARK_OVERDUE"

	// Contract triggers
	TriggerSendForSignature Trigger = "SEND_FOR_SIGNATURE"
	TriggerCompleteSigning  Trigger = "COMPLETE_SIGNING"
	TriggerActivate         Trigger = "ACTIVATE"
	TriggerExpire           Trigger = "EXPIRE"

	// Shared
	TriggerCancel Trigger = "CANCEL"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
