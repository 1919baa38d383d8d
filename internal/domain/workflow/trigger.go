package workflow

// Trigger represents an action that can cause a state transition
type Trigger string

const (
	TriggerSend               Trigger = "SEND"
	TriggerApprove            Trigger = "APPROVE"
	TriggerReject             Trigger = "REJECT"
	TriggerRecheck            Trigger = "RECHECK"
	TriggerResend             Trigger = "RESEND"
	TriggerPrepareCC          Trigger = "PREPARE_CC"
	TriggerSubmitCC           Trigger = "SUBMIT_CC"
	TriggerApproveCC          Trigger = "APPROVE_CC"
	TriggerRejectCC           Trigger = "REJECT_CC"
	TriggerResubmitCC         Trigger = "RESUBMIT_CC"
	TriggerIssuePO            Trigger = "ISSUE_PO"
	TriggerIssueDirectPO      Trigger = "ISSUE_DIRECT_PO"
	TriggerRejectPO           Trigger = "REJECT_PO"
	TriggerMarkOrdered        Trigger = "MARK_ORDERED"
	TriggerMarkOutForDelivery Trigger = "MARK_OUT_FOR_DELIVERY"
	TriggerConfirmPartial     Trigger = "CONFIRM_PARTIAL"
	TriggerConfirmFinal       Trigger = "CONFIRM_FINAL"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
