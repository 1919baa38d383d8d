// Package workflow assembles the procurement request lifecycle out of the
// domain state machine builder. The transition table below is the single
// place where statuses, actions, and actor roles are tied together; every
// mutation entry point consults it through BuildRequestStateMachine.
package workflow

import (
	domainwf "github.com/krishsoni15/procureflow/internal/domain/workflow"
)

// BuildRequestStateMachine creates a state machine configured with the full
// procurement transition table, positioned at the given current state.
func BuildRequestStateMachine(currentState domainwf.State) domainwf.StateMachine {
	builder := domainwf.NewBuilder()

	// Draft stage: only the creating site engineer moves the group forward.
	builder.Configure(domainwf.StateDraft).
		Permit(domainwf.TriggerSend, domainwf.StatePending, domainwf.RoleSiteEngineer)

	// Manager review of the request group.
	builder.Configure(domainwf.StatePending).
		Permit(domainwf.TriggerApprove, domainwf.StateApproved, domainwf.RoleManager).
		Permit(domainwf.TriggerReject, domainwf.StateRejected, domainwf.RoleManager).
		Permit(domainwf.TriggerRecheck, domainwf.StateRecheck, domainwf.RoleManager)

	builder.Configure(domainwf.StateRecheck).
		Permit(domainwf.TriggerResend, domainwf.StatePending, domainwf.RoleSiteEngineer)

	// Cost comparison stage. Saving a draft comparison parks the item in
	// ready_for_cc; submission is allowed from either state.
	builder.Configure(domainwf.StateApproved).
		Permit(domainwf.TriggerPrepareCC, domainwf.StateReadyForCC, domainwf.RolePurchaseOfficer).
		Permit(domainwf.TriggerSubmitCC, domainwf.StateCCPending, domainwf.RolePurchaseOfficer)

	builder.Configure(domainwf.StateReadyForCC).
		Permit(domainwf.TriggerPrepareCC, domainwf.StateReadyForCC, domainwf.RolePurchaseOfficer).
		Permit(domainwf.TriggerSubmitCC, domainwf.StateCCPending, domainwf.RolePurchaseOfficer)

	builder.Configure(domainwf.StateCCPending).
		Permit(domainwf.TriggerApproveCC, domainwf.StateCCApproved, domainwf.RoleManager).
		Permit(domainwf.TriggerRejectCC, domainwf.StateCCRejected, domainwf.RoleManager)

	builder.Configure(domainwf.StateCCRejected).
		Permit(domainwf.TriggerResubmitCC, domainwf.StateCCPending, domainwf.RolePurchaseOfficer)

	// Purchase order stage. Direct delivery skips vendor dispatch.
	builder.Configure(domainwf.StateCCApproved).
		Permit(domainwf.TriggerIssuePO, domainwf.StatePendingPO, domainwf.RolePurchaseOfficer).
		Permit(domainwf.TriggerIssueDirectPO, domainwf.StateDirectPO, domainwf.RolePurchaseOfficer)

	builder.Configure(domainwf.StateReadyForPO).
		Permit(domainwf.TriggerIssuePO, domainwf.StatePendingPO, domainwf.RolePurchaseOfficer).
		Permit(domainwf.TriggerIssueDirectPO, domainwf.StateDirectPO, domainwf.RolePurchaseOfficer)

	builder.Configure(domainwf.StatePORejected).
		Permit(domainwf.TriggerIssuePO, domainwf.StatePendingPO, domainwf.RolePurchaseOfficer).
		Permit(domainwf.TriggerIssueDirectPO, domainwf.StateDirectPO, domainwf.RolePurchaseOfficer)

	builder.Configure(domainwf.StatePendingPO).
		Permit(domainwf.TriggerRejectPO, domainwf.StatePORejected, domainwf.RoleManager).
		Permit(domainwf.TriggerMarkOrdered, domainwf.StateOrdered, domainwf.RolePurchaseOfficer).
		Permit(domainwf.TriggerConfirmPartial, domainwf.StatePartiallyProcessed, domainwf.RoleSiteEngineer).
		Permit(domainwf.TriggerConfirmFinal, domainwf.StateDelivered, domainwf.RoleSiteEngineer)

	builder.Configure(domainwf.StateOrdered).
		Permit(domainwf.TriggerMarkOutForDelivery, domainwf.StateOutForDelivery, domainwf.RolePurchaseOfficer).
		Permit(domainwf.TriggerConfirmPartial, domainwf.StatePartiallyProcessed, domainwf.RoleSiteEngineer).
		Permit(domainwf.TriggerConfirmFinal, domainwf.StateDelivered, domainwf.RoleSiteEngineer)

	builder.Configure(domainwf.StateOutForDelivery).
		Permit(domainwf.TriggerConfirmPartial, domainwf.StatePartiallyProcessed, domainwf.RoleSiteEngineer).
		Permit(domainwf.TriggerConfirmFinal, domainwf.StateDelivered, domainwf.RoleSiteEngineer)

	builder.Configure(domainwf.StateDirectPO).
		Permit(domainwf.TriggerConfirmPartial, domainwf.StatePartiallyProcessed, domainwf.RoleSiteEngineer).
		Permit(domainwf.TriggerConfirmFinal, domainwf.StateDelivered, domainwf.RoleSiteEngineer)

	builder.Configure(domainwf.StateReadyForDelivery).
		Permit(domainwf.TriggerConfirmPartial, domainwf.StatePartiallyProcessed, domainwf.RoleSiteEngineer).
		Permit(domainwf.TriggerConfirmFinal, domainwf.StateDelivered, domainwf.RoleSiteEngineer)

	builder.Configure(domainwf.StateDeliveryProcessing).
		Permit(domainwf.TriggerConfirmPartial, domainwf.StatePartiallyProcessed, domainwf.RoleSiteEngineer).
		Permit(domainwf.TriggerConfirmFinal, domainwf.StateDelivered, domainwf.RoleSiteEngineer)

	builder.Configure(domainwf.StateDeliveryStage).
		Permit(domainwf.TriggerConfirmPartial, domainwf.StatePartiallyProcessed, domainwf.RoleSiteEngineer).
		Permit(domainwf.TriggerConfirmFinal, domainwf.StateDelivered, domainwf.RoleSiteEngineer)

	builder.Configure(domainwf.StatePartiallyProcessed).
		Permit(domainwf.TriggerConfirmPartial, domainwf.StatePartiallyProcessed, domainwf.RoleSiteEngineer).
		Permit(domainwf.TriggerConfirmFinal, domainwf.StateDelivered, domainwf.RoleSiteEngineer)

	// rejected and delivered are terminal - no outgoing transitions

	return builder.Build(currentState)
}
